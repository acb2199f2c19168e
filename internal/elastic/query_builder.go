// Package elastic builds and executes the Elasticsearch queries behind
// report generation.
package elastic

import (
	"sort"
	"strings"
	"time"

	"github.com/newsroom-cloud/analytics/internal/dates"
	"github.com/newsroom-cloud/analytics/internal/domain"
)

// defaultDateField is the timestamp field date filters apply to unless a
// report type overrides it.
const defaultDateField = "versioncreated"

// filterField identifies one supported must/must_not filter field.
type filterField string

const (
	fieldDesks           filterField = "desks"
	fieldUsers           filterField = "users"
	fieldCategories      filterField = "categories"
	fieldSources         filterField = "sources"
	fieldGenre           filterField = "genre"
	fieldUrgency         filterField = "urgency"
	fieldIngestProviders filterField = "ingest_providers"
	fieldStages          filterField = "stages"
	fieldStates          filterField = "states"
	fieldContentTypes    filterField = "content_types"
	fieldRewrites        filterField = "rewrites"
)

// fieldSpec maps one filter field to its document path. Sorted fields order
// their values ascending before the clause is emitted.
type fieldSpec struct {
	name   filterField
	path   string
	sorted bool
}

// filterFields is the closed set of supported filter fields, in clause
// emission order. The categories path is completed per request from the
// category_field parameter.
var filterFields = []fieldSpec{
	{name: fieldDesks, path: "task.desk"},
	{name: fieldUsers, path: "task.user"},
	{name: fieldCategories, path: "anpa_category.", sorted: true},
	{name: fieldSources, path: "source", sorted: true},
	{name: fieldGenre, path: "genre.qcode"},
	{name: fieldUrgency, path: "urgency"},
	{name: fieldIngestProviders, path: "ingest_provider"},
	{name: fieldStages, path: "task.stage"},
	{name: fieldStates, path: "state", sorted: true},
	{name: fieldContentTypes, path: "type", sorted: true},
	{name: fieldRewrites, path: "rewrite_of"},
}

// BuildOptions carries per-report-type settings into query construction.
type BuildOptions struct {
	// DateField is the timestamp field for the date clause. Empty means
	// the default publish timestamp.
	DateField string
	// ExcludedStages are stage ids hidden from global readers; they are
	// filtered out of every result unless the report type opts out.
	ExcludedStages []string
	// Aggs is the aggregation tree to attach, already expanded by the
	// caller (grouping or histogram).
	Aggs map[string]any
}

// QueryBuilder assembles report queries from declarative parameters.
type QueryBuilder struct {
	resolver     *dates.Resolver
	defaultRepos []string
}

// NewQueryBuilder creates a query builder using the given date resolver and
// the full default repository set.
func NewQueryBuilder(resolver *dates.Resolver, defaultRepos []string) *QueryBuilder {
	return &QueryBuilder{
		resolver:     resolver,
		defaultRepos: defaultRepos,
	}
}

// Build constructs the report query. Clause ordering inside must/must_not
// is fixed: dates, then the desk scope, then rewrite inclusion, then the
// filter fields in their declared order.
func (qb *QueryBuilder) Build(params *domain.ReportParams, opts BuildOptions, now time.Time) (*domain.BuiltQuery, error) {
	if params == nil {
		return nil, domain.BadRequest("report parameters are required")
	}

	dateField := opts.DateField
	if dateField == "" {
		dateField = defaultDateField
	}

	query := &domain.BuiltQuery{
		Repo: qb.buildRepos(params.Repos),
		Size: params.Size,
		Aggs: opts.Aggs,
	}

	if params.Page > 0 {
		query.From = (params.Page - 1) * params.Size
		query.Page = params.Page
		query.MaxResults = params.Size
	}

	if query.Size > 0 {
		query.Sort = []map[string]any{
			{dateField: map[string]any{"order": "desc"}},
		}
	}

	if err := qb.buildDates(query, params.Dates, dateField, now); err != nil {
		return nil, err
	}

	if params.Desk != "" {
		query.Must = append(query.Must, termClause("task.desk", params.Desk))
	}

	qb.buildRewriteInclusion(query, params.Rewrites)

	if err := buildFieldClauses(&query.Must, params.Must, params.CategoryField); err != nil {
		return nil, err
	}
	if err := buildFieldClauses(&query.MustNot, params.MustNot, params.CategoryField); err != nil {
		return nil, err
	}

	for _, stageID := range opts.ExcludedStages {
		query.MustNot = append(query.MustNot, termClause("task.stage", stageID))
	}

	return query, nil
}

// buildRepos reduces the repo selection map to a sorted comma-separated
// string, falling back to the full default set when nothing is enabled.
func (qb *QueryBuilder) buildRepos(repos map[string]bool) string {
	enabled := make([]string, 0, len(repos))
	for name, on := range repos {
		if on {
			enabled = append(enabled, name)
		}
	}
	if len(enabled) == 0 {
		enabled = append(enabled, qb.defaultRepos...)
	}
	sort.Strings(enabled)
	return strings.Join(enabled, ",")
}

// buildDates resolves the date filter and appends the range clause. An
// unset filter contributes nothing.
func (qb *QueryBuilder) buildDates(query *domain.BuiltQuery, params *domain.DateParams, dateField string, now time.Time) error {
	rng, err := qb.resolver.Resolve(params, now)
	if err != nil {
		return err
	}
	if rng.Empty() {
		return nil
	}

	query.Must = append(query.Must, map[string]any{
		"range": map[string]any{
			dateField: map[string]any{
				"gte":       rng.GTE,
				"lt":        rng.LT,
				"time_zone": rng.TimeZone,
			},
		},
	})
	return nil
}

// buildRewriteInclusion applies the top-level rewrite toggle. "include"
// emits nothing; "only" requires published rewrites; "exclude" forbids them.
func (qb *QueryBuilder) buildRewriteInclusion(query *domain.BuiltQuery, mode domain.RewritesMode) {
	if mode != domain.RewritesOnly && mode != domain.RewritesExclude {
		return
	}

	clause := map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				termClause("state", "published"),
				existsClause("rewrite_of"),
			},
		},
	}

	if mode == domain.RewritesOnly {
		query.Must = append(query.Must, clause)
	} else {
		query.MustNot = append(query.MustNot, clause)
	}
}

// buildFieldClauses appends one clause per filter field that has enabled
// values, in the declared field order.
func buildFieldClauses(clauses *[]map[string]any, filters map[string]domain.FilterValues, categoryField string) error {
	if len(filters) == 0 {
		return nil
	}

	for _, spec := range filterFields {
		values, ok := filters[string(spec.name)]
		if !ok {
			continue
		}

		if spec.name == fieldRewrites {
			if values.True() {
				*clauses = append(*clauses, existsClause(spec.path))
			}
			continue
		}

		enabled := values.Enabled()
		if len(enabled) == 0 {
			continue
		}
		if spec.sorted {
			enabled = sortedCopy(enabled)
		}

		path := spec.path
		if spec.name == fieldCategories {
			path += categorySubField(categoryField)
		}
		*clauses = append(*clauses, termsClause(path, enabled))
	}

	for name := range filters {
		if !knownFilterField(name) {
			return domain.BadRequest("unsupported filter field %q", name)
		}
	}
	return nil
}

func knownFilterField(name string) bool {
	for _, spec := range filterFields {
		if string(spec.name) == name {
			return true
		}
	}
	return false
}

// categorySubField picks the category grouping sub-field, defaulting to the
// qcode.
func categorySubField(field string) string {
	if field == "name" {
		return "name"
	}
	return "qcode"
}

func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

func termsClause(field string, values []string) map[string]any {
	return map[string]any{"terms": map[string]any{field: values}}
}

func termClause(field, value string) map[string]any {
	return map[string]any{"term": map[string]any{field: value}}
}

func existsClause(field string) map[string]any {
	return map[string]any{"exists": map[string]any{"field": field}}
}
