package service

import (
	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/elastic"
)

// normalizer selects how a report type folds its aggregation buckets.
type normalizer int

const (
	normalizeGrouped normalizer = iota
	normalizeSourceCategory
	normalizeTimeline
	normalizeUserActivity
)

// ReportType binds one report to its query and normalization behavior.
type ReportType struct {
	Name string
	// Repos searched when the request selects none.
	Repos []string
	// DateField carries the date filter clause.
	DateField string
	// HistogramField is the source field of time bucketing; empty falls
	// back to DateField.
	HistogramField string
	// ExcludeStages filters out stages hidden from global readers.
	ExcludeStages bool
	// DefaultAggs is used when the request carries no grouping.
	DefaultAggs func() map[string]any
	// DefaultGroupField names the grouping dimension of DefaultAggs for
	// chart translation.
	DefaultGroupField string

	normalize normalizer
}

// Report type names.
const (
	TypeSourceCategory        = "source_category"
	TypeContentPublishing     = "content_publishing"
	TypePublishingPerformance = "publishing_performance"
	TypeProcessedItems        = "processed_items"
	TypeDeskActivity          = "desk_activity"
	TypeUserActivity          = "user_activity"
)

// sourceCategoryAggs groups sources with nested categories.
func sourceCategoryAggs() map[string]any {
	return map[string]any{
		"source": map[string]any{
			"terms": map[string]any{"field": "source", "size": 10000},
			"aggs": map[string]any{
				"category": map[string]any{
					"terms": map[string]any{"field": "anpa_category.qcode", "size": 10000},
				},
			},
		},
	}
}

func sourceAggs() map[string]any {
	return map[string]any{
		elastic.AggParent: map[string]any{
			"terms": map[string]any{"field": "source", "size": 10000},
		},
	}
}

func deskStateAggs() map[string]any {
	return map[string]any{
		elastic.AggParent: map[string]any{
			"terms": map[string]any{"field": "task.desk", "size": 10000},
			"aggs": map[string]any{
				elastic.AggChild: map[string]any{
					"terms": map[string]any{"field": "state", "size": 10000},
				},
			},
		},
	}
}

func userStateAggs() map[string]any {
	return map[string]any{
		elastic.AggParent: map[string]any{
			"terms": map[string]any{"field": "task.user", "size": 10000},
			"aggs": map[string]any{
				elastic.AggChild: map[string]any{
					"terms": map[string]any{"field": "state", "size": 10000},
				},
			},
		},
	}
}

func operationsAggs() map[string]any {
	return map[string]any{
		"operations": map[string]any{
			"terms": map[string]any{"field": "stats.timeline.operation", "size": 10000},
		},
	}
}

// registry is the closed set of supported report types.
var registry = map[string]*ReportType{
	TypeSourceCategory: {
		Name:          TypeSourceCategory,
		Repos:         []string{"published", "archived"},
		DateField:     "versioncreated",
		ExcludeStages: true,
		DefaultAggs:   sourceCategoryAggs,
		normalize:     normalizeSourceCategory,
	},
	TypeContentPublishing: {
		Name:              TypeContentPublishing,
		Repos:             []string{"published", "archived"},
		DateField:         "versioncreated",
		ExcludeStages:     true,
		DefaultAggs:       sourceAggs,
		DefaultGroupField: "source",
		normalize:         normalizeGrouped,
	},
	TypePublishingPerformance: {
		Name:              TypePublishingPerformance,
		Repos:             []string{"published", "archived"},
		DateField:         "versioncreated",
		ExcludeStages:     true,
		DefaultAggs:       deskStateAggs,
		DefaultGroupField: "task.desk",
		normalize:         normalizeGrouped,
	},
	TypeProcessedItems: {
		Name:              TypeProcessedItems,
		Repos:             []string{"published", "archived"},
		DateField:         "versioncreated",
		ExcludeStages:     true,
		DefaultAggs:       userStateAggs,
		DefaultGroupField: "task.user",
		normalize:         normalizeGrouped,
	},
	TypeDeskActivity: {
		Name:           TypeDeskActivity,
		Repos:          []string{"archive_statistics"},
		DateField:      "versioncreated",
		HistogramField: "stats.timeline.operation_created",
		DefaultAggs:    operationsAggs,
		normalize:      normalizeTimeline,
	},
	TypeUserActivity: {
		Name:      TypeUserActivity,
		Repos:     []string{"archive_statistics"},
		DateField: "versioncreated",
		normalize: normalizeUserActivity,
	},
}

// LookupReportType resolves a report type name.
func LookupReportType(name string) (*ReportType, error) {
	reportType, ok := registry[name]
	if !ok {
		return nil, domain.BadRequest("unknown report type %q", name)
	}
	return reportType, nil
}

// ReportTypes lists the supported report type names.
func ReportTypes() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
