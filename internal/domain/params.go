package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// DateFilter selects how the report date range is derived.
type DateFilter string

// Supported date filters.
const (
	DateFilterNone           DateFilter = ""
	DateFilterRange          DateFilter = "range"
	DateFilterDay            DateFilter = "day"
	DateFilterYesterday      DateFilter = "yesterday"
	DateFilterToday          DateFilter = "today"
	DateFilterLastWeek       DateFilter = "last_week"
	DateFilterThisWeek       DateFilter = "this_week"
	DateFilterLastMonth      DateFilter = "last_month"
	DateFilterThisMonth      DateFilter = "this_month"
	DateFilterLastYear       DateFilter = "last_year"
	DateFilterThisYear       DateFilter = "this_year"
	DateFilterRelativeHours  DateFilter = "relative_hours"
	DateFilterRelativeDays   DateFilter = "relative_days"
	DateFilterRelativeWeeks  DateFilter = "relative_weeks"
	DateFilterRelativeMonths DateFilter = "relative_months"
)

// Relative reports whether the filter needs the relative count parameter.
func (f DateFilter) Relative() bool {
	switch f {
	case DateFilterRelativeHours, DateFilterRelativeDays,
		DateFilterRelativeWeeks, DateFilterRelativeMonths:
		return true
	}
	return false
}

// DateParams selects the report date range.
// Exactly one filter kind is active at a time.
type DateParams struct {
	Filter DateFilter `json:"filter,omitempty"`
	// Start and End bound the "range" filter, formatted YYYY-MM-DD.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	// Date is the single day for the "day" filter, formatted YYYY-MM-DD.
	Date string `json:"date,omitempty"`
	// Relative is the count for the relative_* filters.
	Relative int `json:"relative,omitempty"`
}

// FilterValues is a must/must_not filter value. Callers may supply either a
// plain list of values, a map of value to enabled flag, or a single boolean
// (the rewrites field).
type FilterValues struct {
	List  []string
	Flags map[string]bool
	Bool  *bool
}

// UnmarshalJSON accepts a list, a value->bool map, or a boolean.
func (v *FilterValues) UnmarshalJSON(data []byte) error {
	*v = FilterValues{}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		v.Bool = &b
		return nil
	}

	var flags map[string]bool
	if err := json.Unmarshal(data, &flags); err == nil {
		v.Flags = flags
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var anyList []any
	if err := dec.Decode(&anyList); err == nil {
		list := make([]string, 0, len(anyList))
		for _, item := range anyList {
			switch val := item.(type) {
			case string:
				list = append(list, val)
			case json.Number:
				list = append(list, val.String())
			default:
				return fmt.Errorf("unsupported filter value %v", item)
			}
		}
		v.List = list
		return nil
	}

	return fmt.Errorf("filter value must be a list, map or boolean")
}

// MarshalJSON emits the original representation.
func (v FilterValues) MarshalJSON() ([]byte, error) {
	switch {
	case v.Bool != nil:
		return json.Marshal(*v.Bool)
	case v.Flags != nil:
		return json.Marshal(v.Flags)
	default:
		return json.Marshal(v.List)
	}
}

// Enabled reduces the filter value to the list of enabled values.
// List inputs pass through unchanged; map inputs yield the keys whose flag
// is true, sorted ascending for determinism.
func (v FilterValues) Enabled() []string {
	if v.Flags != nil {
		keys := make([]string, 0, len(v.Flags))
		for key, on := range v.Flags {
			if on {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		return keys
	}
	return v.List
}

// True reports whether the value is the boolean true (the rewrites field).
func (v FilterValues) True() bool {
	return v.Bool != nil && *v.Bool
}

// RewritesMode controls rewrite inclusion at the query level.
type RewritesMode string

// Rewrite inclusion toggles.
const (
	RewritesInclude RewritesMode = "include"
	RewritesOnly    RewritesMode = "only"
	RewritesExclude RewritesMode = "exclude"
)

// AggSpec requests a single grouping dimension.
type AggSpec struct {
	Field  string `json:"field"`
	Filter string `json:"filter,omitempty"`
	Size   int    `json:"size,omitempty"`
}

// AggsParams requests the grouping dimensions of the report.
type AggsParams struct {
	Group    *AggSpec `json:"group,omitempty"`
	Subgroup *AggSpec `json:"subgroup,omitempty"`
}

// HistogramInterval selects the time bucketing of a time-series report.
type HistogramInterval string

// Supported histogram intervals.
const (
	IntervalHourly HistogramInterval = "hourly"
	IntervalDaily  HistogramInterval = "daily"
	IntervalWeekly HistogramInterval = "weekly"
)

// HistogramParams requests time bucketing.
type HistogramParams struct {
	Interval HistogramInterval `json:"interval"`
}

// ChartParams selects the chart rendering of the report.
type ChartParams struct {
	Type      string `json:"type,omitempty"`
	Title     string `json:"title,omitempty"`
	Subtitle  string `json:"subtitle,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

// ReportParams is the declarative, user-supplied report request.
type ReportParams struct {
	Dates         *DateParams             `json:"dates,omitempty"`
	Must          map[string]FilterValues `json:"must,omitempty"`
	MustNot       map[string]FilterValues `json:"must_not,omitempty"`
	Repos         map[string]bool         `json:"repos,omitempty"`
	Rewrites      RewritesMode            `json:"rewrites,omitempty"`
	CategoryField string                  `json:"category_field,omitempty"`
	Size          int                     `json:"size,omitempty"`
	Page          int                     `json:"page,omitempty"`
	Aggs          *AggsParams             `json:"aggs,omitempty"`
	Histogram     *HistogramParams        `json:"histogram,omitempty"`
	Chart         *ChartParams            `json:"chart,omitempty"`
	ShowAllDesks  bool                    `json:"show_all_desks,omitempty"`
	Desk          string                  `json:"desk,omitempty"`
}

// SortOrder returns the requested chart sort order, defaulting to desc.
func (p *ReportParams) SortOrder() string {
	if p != nil && p.Chart != nil && p.Chart.SortOrder == "asc" {
		return "asc"
	}
	return "desc"
}

// ReturnType selects which generator produces the report payload.
type ReturnType string

// Supported return types.
const (
	ReturnAggregations ReturnType = "aggregations"
	ReturnHighcharts   ReturnType = "highcharts_config"
	ReturnCSV          ReturnType = "csv"
	ReturnHTML         ReturnType = "html"
)

// ReportRequest is the inbound request to the report service.
// Exactly one of Source (raw backend-query passthrough) or Params
// (declarative) must be supplied.
type ReportRequest struct {
	ReportType   string         `json:"report_type"`
	ReturnType   ReturnType     `json:"return_type,omitempty"`
	Source       map[string]any `json:"source,omitempty"`
	Params       *ReportParams  `json:"params,omitempty"`
	Repo         string         `json:"repo,omitempty"`
	IncludeItems bool           `json:"include_items,omitempty"`
}
