// Package service generates reports: it builds the backend query for a
// report type, runs it, folds the aggregation results and renders the
// requested output payload.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/newsroom-cloud/analytics/internal/activity"
	"github.com/newsroom-cloud/analytics/internal/chart"
	"github.com/newsroom-cloud/analytics/internal/dates"
	"github.com/newsroom-cloud/analytics/internal/directory"
	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/elastic"
	"github.com/newsroom-cloud/analytics/internal/logger"
	"github.com/newsroom-cloud/analytics/internal/render"
	"github.com/newsroom-cloud/analytics/internal/report"
)

// categoriesVocabularyID is the content-category vocabulary.
const categoriesVocabularyID = "categories"

// Service generates reports against the search backend.
type Service struct {
	search   elastic.Searcher
	builder  *elastic.QueryBuilder
	resolver *dates.Resolver
	lookups  chart.Lookups
	stages   directory.Stages
	log      logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates the report service. defaultRepos is the full repo set
// searched when a request's repo selection reduces to nothing.
func NewService(
	search elastic.Searcher,
	resolver *dates.Resolver,
	lookups chart.Lookups,
	stages directory.Stages,
	defaultRepos []string,
	log logger.Logger,
) *Service {
	return &Service{
		search:   search,
		builder:  elastic.NewQueryBuilder(resolver, defaultRepos),
		resolver: resolver,
		lookups:  lookups,
		stages:   stages,
		log:      log,
		now:      time.Now,
	}
}

// GetReport runs one report request end to end and returns the payload for
// the requested return type.
func (s *Service) GetReport(ctx context.Context, req *domain.ReportRequest) (map[string]any, error) {
	reportType, err := LookupReportType(req.ReportType)
	if err != nil {
		return nil, err
	}

	query, err := s.buildQuery(ctx, req, reportType)
	if err != nil {
		return nil, err
	}

	s.log.Debug("running report query",
		logger.String("report_type", reportType.Name),
		logger.String("repo", query.Repo))

	result, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	returnType := req.ReturnType
	if returnType == "" {
		returnType = domain.ReturnAggregations
	}

	switch returnType {
	case domain.ReturnAggregations:
		return s.aggregationsPayload(ctx, req, reportType, result)
	case domain.ReturnHighcharts:
		configs, err := s.chartConfigs(ctx, req, reportType, result, false)
		if err != nil {
			return nil, err
		}
		return map[string]any{"highcharts": configs}, nil
	case domain.ReturnCSV:
		config, err := s.tableConfig(ctx, req, reportType, result)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"csv":      string(render.CSV(config)),
			"mimetype": render.MimeCSV,
		}, nil
	case domain.ReturnHTML:
		config, err := s.tableConfig(ctx, req, reportType, result)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"html":     string(render.HTML(config)),
			"mimetype": render.MimeHTML,
		}, nil
	}
	return nil, domain.BadRequest("unsupported return type %q", returnType)
}

// buildQuery assembles the backend query for the request: raw source
// passthrough or the declarative parameter build.
func (s *Service) buildQuery(ctx context.Context, req *domain.ReportRequest, reportType *ReportType) (*domain.BuiltQuery, error) {
	switch {
	case req.Source != nil:
		repo := req.Repo
		if repo == "" {
			repo = strings.Join(reportType.Repos, ",")
		}
		source := make(map[string]any, len(req.Source))
		for key, value := range req.Source {
			source[key] = value
		}
		return &domain.BuiltQuery{Source: source, Repo: repo}, nil

	case req.Params != nil:
		aggs, err := s.buildAggs(req.Params, reportType)
		if err != nil {
			return nil, err
		}

		opts := elastic.BuildOptions{
			DateField: reportType.DateField,
			Aggs:      aggs,
		}
		if reportType.ExcludeStages {
			stageIDs, err := s.stages.HiddenStageIDs(ctx)
			if err != nil {
				return nil, domain.Internal(err, "failed to load hidden stages")
			}
			opts.ExcludedStages = stageIDs
		}

		params := *req.Params
		if params.Repos == nil && len(reportType.Repos) > 0 {
			params.Repos = make(map[string]bool, len(reportType.Repos))
			for _, repo := range reportType.Repos {
				params.Repos[repo] = true
			}
		}

		return s.builder.Build(&params, opts, s.now())
	}

	return nil, domain.BadRequest("either source or params must be supplied")
}

// buildAggs assembles the aggregation tree: the requested grouping, or the
// report type's default, wrapped in a date histogram when time bucketing
// was requested.
func (s *Service) buildAggs(params *domain.ReportParams, reportType *ReportType) (map[string]any, error) {
	var aggs map[string]any
	if params.Aggs != nil && params.Aggs.Group != nil {
		aggs = elastic.BuildAggregations(params.Aggs, params.CategoryField)
	} else if reportType.DefaultAggs != nil {
		aggs = reportType.DefaultAggs()
	}

	if params.Histogram == nil {
		return aggs, nil
	}

	field := reportType.HistogramField
	if field == "" {
		field = reportType.DateField
	}
	return elastic.ExpandHistogram(
		s.resolver, aggs, params.Dates, params.Histogram.Interval, field, s.now())
}

// groupFields returns the grouping dimensions of the request, falling back
// to the report type defaults.
func groupFields(params *domain.ReportParams, reportType *ReportType) (group, subgroup string) {
	if params != nil && params.Aggs != nil && params.Aggs.Group != nil {
		group = params.Aggs.Group.Field
		if params.Aggs.Subgroup != nil {
			subgroup = params.Aggs.Subgroup.Field
		}
		return group, subgroup
	}

	group = reportType.DefaultGroupField
	switch reportType.normalize {
	case normalizeGrouped:
		if hasDefaultSubgroup(reportType) {
			subgroup = "state"
		}
	}
	return group, subgroup
}

// hasDefaultSubgroup reports whether the type's default aggregation tree
// nests a child grouping.
func hasDefaultSubgroup(reportType *ReportType) bool {
	if reportType.DefaultAggs == nil {
		return false
	}
	parent, ok := reportType.DefaultAggs()[elastic.AggParent].(map[string]any)
	if !ok {
		return false
	}
	_, nested := parent["aggs"]
	return nested
}

// aggregationsPayload folds the raw search result into the normalized
// report shape of the type.
func (s *Service) aggregationsPayload(
	ctx context.Context,
	req *domain.ReportRequest,
	reportType *ReportType,
	result *domain.SearchResult,
) (map[string]any, error) {
	var payload map[string]any
	var err error

	switch reportType.normalize {
	case normalizeSourceCategory:
		payload, err = s.sourceCategoryPayload(ctx, result)
	case normalizeGrouped:
		payload, err = s.groupedPayload(ctx, req.Params, reportType, result)
	case normalizeTimeline:
		payload = s.timelinePayload(result)
	case normalizeUserActivity:
		payload, err = s.userActivityPayload(req.Params, result)
	default:
		err = domain.Internal(nil, fmt.Sprintf("no normalizer for report type %s", reportType.Name))
	}
	if err != nil {
		return nil, err
	}

	if req.IncludeItems {
		payload["_items"] = result.Items
		meta := map[string]any{"total": result.Total}
		if result.Page > 0 {
			meta["page"] = result.Page
			meta["max_results"] = result.MaxResults
		}
		payload["_meta"] = meta
	}

	return payload, nil
}

func (s *Service) sourceCategoryPayload(ctx context.Context, result *domain.SearchResult) (map[string]any, error) {
	vocabulary, err := s.lookups.Vocabularies.Vocabulary(ctx, categoriesVocabularyID)
	if err != nil {
		return nil, domain.Internal(err, "failed to load category vocabulary")
	}

	folded := report.SourceCategoryReport(result, "source", "category", vocabulary)
	return map[string]any{
		"categories": folded.Categories,
		"sources":    folded.Sources,
	}, nil
}

func (s *Service) groupedPayload(
	ctx context.Context,
	params *domain.ReportParams,
	reportType *ReportType,
	result *domain.SearchResult,
) (map[string]any, error) {
	folded, group, subgroup, err := s.foldGrouped(ctx, params, reportType, result)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"group": group}
	if folded.Groups != nil {
		payload["groups"] = folded.Groups
	} else {
		payload["subgroup"] = subgroup
		payload["groups"] = folded.Stacked
		payload["subgroups"] = folded.Subgroups
	}
	return payload, nil
}

// foldGrouped folds the parent/child buckets. When grouping by desk and the
// full roster was requested, idle desks are backfilled with zero rows.
func (s *Service) foldGrouped(
	ctx context.Context,
	params *domain.ReportParams,
	reportType *ReportType,
	result *domain.SearchResult,
) (report.Grouped, string, string, error) {
	group, subgroup := groupFields(params, reportType)
	folded := report.GroupSubgroup(result, elastic.AggParent, elastic.AggChild, subgroup != "")

	if group == "task.desk" && params != nil && params.ShowAllDesks {
		desks, err := s.lookups.Desks.Desks(ctx)
		if err != nil {
			return report.Grouped{}, "", "", domain.Internal(err, "failed to load desks")
		}
		childKeys := make([]string, 0, len(folded.Subgroups))
		for key := range folded.Subgroups {
			childKeys = append(childKeys, key)
		}
		sort.Strings(childKeys)
		folded.FillDesks(desks, childKeys)
	}

	return folded, group, subgroup, nil
}

// timelinePayload flattens every top-level aggregation of a time-bucketed
// report into raw buckets keyed by aggregation id.
func (s *Service) timelinePayload(result *domain.SearchResult) map[string]any {
	ids := make([]string, 0, len(result.Aggregations))
	for id := range result.Aggregations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	flat := report.Flat(result, ids)
	payload := make(map[string]any, len(flat))
	for id, buckets := range flat {
		rows := make([]map[string]any, 0, len(buckets))
		for _, bucket := range buckets {
			row := map[string]any{"key": bucket.Key, "doc_count": bucket.DocCount}
			if bucket.KeyAsString != "" {
				row["key_as_string"] = bucket.KeyAsString
			}
			rows = append(rows, row)
		}
		payload[id] = rows
	}
	return payload
}

// userActivityPayload walks each item's lock timeline and reports the
// closed editing intervals per user.
func (s *Service) userActivityPayload(params *domain.ReportParams, result *domain.SearchResult) (map[string]any, error) {
	var flushEnd time.Time
	if params != nil && params.Dates != nil {
		if _, lt, err := s.resolver.ResolveBounds(params.Dates, s.now()); err == nil {
			flushEnd = lt
		}
	}

	intervalsByUser := map[string][]map[string]any{}
	for _, item := range result.Items {
		events := timelineEvents(item)
		for _, userID := range eventUsers(events) {
			for _, interval := range activity.Collect(userID, events, flushEnd) {
				intervalsByUser[userID] = append(intervalsByUser[userID], map[string]any{
					"item":  item["_id"],
					"start": interval.Start.UTC().Format(time.RFC3339),
					"end":   interval.End.UTC().Format(time.RFC3339),
				})
			}
		}
	}

	return map[string]any{"users": intervalsByUser}, nil
}

// timelineEvents extracts the lock/unlock events of one stats item in
// chronological order.
func timelineEvents(item map[string]any) []activity.Event {
	stats, _ := item["stats"].(map[string]any)
	timeline, _ := stats["timeline"].([]any)

	events := make([]activity.Event, 0, len(timeline))
	for _, raw := range timeline {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		operation, _ := entry["operation"].(string)
		if operation != activity.OpItemLock && operation != activity.OpItemUnlock {
			continue
		}

		task, _ := entry["task"].(map[string]any)
		userID, _ := task["user"].(string)
		if userID == "" {
			userID, _ = entry["update"].(map[string]any)["lock_user"].(string)
		}

		createdRaw, _ := entry["operation_created"].(string)
		created, err := time.Parse(time.RFC3339, createdRaw)
		if err != nil {
			continue
		}

		events = append(events, activity.Event{
			Operation: operation,
			UserID:    userID,
			Created:   created,
		})
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Created.Before(events[j].Created) })
	return events
}

// eventUsers lists the distinct users of a timeline, in first-seen order.
func eventUsers(events []activity.Event) []string {
	seen := map[string]struct{}{}
	var users []string
	for _, event := range events {
		if event.UserID == "" {
			continue
		}
		if _, ok := seen[event.UserID]; ok {
			continue
		}
		seen[event.UserID] = struct{}{}
		users = append(users, event.UserID)
	}
	return users
}

// chartConfigs builds the chart configuration list for the result. The
// forceTable flag switches the chart type to a table for CSV and HTML
// rendering.
func (s *Service) chartConfigs(
	ctx context.Context,
	req *domain.ReportRequest,
	reportType *ReportType,
	result *domain.SearchResult,
	forceTable bool,
) ([]map[string]any, error) {
	if reportType.normalize == normalizeUserActivity || reportType.normalize == normalizeTimeline {
		return nil, domain.BadRequest("report type %s has no chart rendering", reportType.Name)
	}

	chartType := "bar"
	title := ""
	subtitle := ""
	sortOrder := "desc"
	if req.Params != nil && req.Params.Chart != nil {
		if req.Params.Chart.Type != "" {
			chartType = req.Params.Chart.Type
		}
		title = req.Params.Chart.Title
		subtitle = req.Params.Chart.Subtitle
		sortOrder = req.Params.SortOrder()
	}
	if forceTable {
		chartType = "table"
	}

	builder := chart.NewBuilder(reportType.Name, chartType)
	builder.Title = title
	builder.Subtitle = subtitle
	builder.SortOrder = sortOrder

	if err := s.setChartSource(ctx, req, reportType, result, builder); err != nil {
		return nil, err
	}

	config, err := builder.Generate()
	if err != nil {
		return nil, err
	}
	return []map[string]any{config}, nil
}

// setChartSource folds the result and wires it into the builder with the
// matching translations.
func (s *Service) setChartSource(
	ctx context.Context,
	req *domain.ReportRequest,
	reportType *ReportType,
	result *domain.SearchResult,
	builder *chart.Builder,
) error {
	if reportType.normalize == normalizeSourceCategory {
		vocabulary, err := s.lookups.Vocabularies.Vocabulary(ctx, categoriesVocabularyID)
		if err != nil {
			return domain.Internal(err, "failed to load category vocabulary")
		}
		folded := report.SourceCategoryReport(result, "source", "category", vocabulary)
		translations, err := chart.Load(ctx, s.lookups, "source", "anpa_category.name")
		if err != nil {
			return domain.Internal(err, "failed to load chart translations")
		}
		builder.SetTranslations(translations)
		// Category keys are already display names after vocabulary
		// translation.
		builder.SetMultiSource("source", folded.Sources, "anpa_category.name", folded.Categories)
		return nil
	}

	folded, group, subgroup, err := s.foldGrouped(ctx, req.Params, reportType, result)
	if err != nil {
		return err
	}

	translations, err := chart.Load(ctx, s.lookups, group, subgroup)
	if err != nil {
		return domain.Internal(err, "failed to load chart translations")
	}
	builder.SetTranslations(translations)

	if folded.Groups != nil {
		builder.SetSingleSource(group, folded.Groups)
		return nil
	}
	builder.SetMultiSource(group, folded.Stacked, subgroup, folded.Subgroups)
	return nil
}

// tableConfig builds the table rendering of the report.
func (s *Service) tableConfig(
	ctx context.Context,
	req *domain.ReportRequest,
	reportType *ReportType,
	result *domain.SearchResult,
) (map[string]any, error) {
	configs, err := s.chartConfigs(ctx, req, reportType, result, true)
	if err != nil {
		return nil, err
	}
	return configs[0], nil
}
