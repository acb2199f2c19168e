package elastic

import (
	"fmt"
	"time"

	"github.com/newsroom-cloud/analytics/internal/dates"
	"github.com/newsroom-cloud/analytics/internal/domain"
)

// histogramFormat is the key_as_string layout of histogram buckets.
const histogramFormat = "yyyy-MM-dd'T'HH:mm:ss"

// ExpandHistogram wraps an aggregation subtree in a date histogram named
// "dates" over the given source field. Bounds are the resolved absolute
// date range so empty buckets appear across the whole period, and weekly
// intervals are shifted to the configured start of week.
func ExpandHistogram(
	resolver *dates.Resolver,
	aggs map[string]any,
	dateParams *domain.DateParams,
	interval domain.HistogramInterval,
	field string,
	now time.Time,
) (map[string]any, error) {
	gte, lt, err := resolver.ResolveBounds(dateParams, now)
	if err != nil {
		return nil, err
	}

	offsetHours := 0
	if interval == domain.IntervalWeekly {
		offsetHours = resolver.WeekOffsetHours()
	}

	histogram := map[string]any{
		"field":             field,
		"calendar_interval": intervalName(interval),
		"format":            histogramFormat,
		"min_doc_count":     0,
		"offset":            fmt.Sprintf("%dh", offsetHours),
		"time_zone":         dates.OffsetString(now.In(resolver.Location)),
		"extended_bounds": map[string]any{
			"min": gte.UnixMilli(),
			"max": lt.UnixMilli(),
		},
	}

	wrapped := map[string]any{"date_histogram": histogram}
	if len(aggs) > 0 {
		wrapped["aggs"] = aggs
	}

	return map[string]any{AggDates: wrapped}, nil
}

// intervalName maps the report interval to the backend calendar interval.
func intervalName(interval domain.HistogramInterval) string {
	switch interval {
	case domain.IntervalHourly:
		return "hour"
	case domain.IntervalWeekly:
		return "week"
	default:
		return "day"
	}
}
