// Package dates resolves symbolic report date filters into concrete
// [gte, lt) ranges and backend date-math expressions.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/newsroom-cloud/analytics/internal/domain"
)

// localFormat is the timestamp layout used for concrete boundaries in the
// configured report timezone.
const localFormat = "2006-01-02T15:04:05"

// dayFormat is the layout for the start/end/date parameters.
const dayFormat = "2006-01-02"

// Range is the resolved date clause for the backend query. GTE and LT are
// either backend date-math expressions (symbolic filters) or concrete local
// timestamps (range/day). TimeZone carries the UTC offset of the reference
// time, formatted like "+1000".
type Range struct {
	GTE      string
	LT       string
	TimeZone string
}

// Empty reports whether no date clause should be emitted.
func (r Range) Empty() bool {
	return r.GTE == "" && r.LT == ""
}

// Resolver converts date filter parameters using a configured timezone and
// start of week (0=Sunday through 6=Saturday).
type Resolver struct {
	Location    *time.Location
	StartOfWeek int
}

// NewResolver creates a resolver for the given timezone and week start.
func NewResolver(loc *time.Location, startOfWeek int) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{Location: loc, StartOfWeek: startOfWeek}
}

// Resolve converts the date filter parameters into the query date range.
// An unset filter yields an empty range (no date clause, unbounded).
func (r *Resolver) Resolve(params *domain.DateParams, now time.Time) (Range, error) {
	if params == nil || params.Filter == domain.DateFilterNone {
		return Range{}, nil
	}

	now = now.In(r.Location)
	tz := OffsetString(now)

	if params.Filter.Relative() && params.Relative < 1 {
		return Range{}, domain.BadRequest("date filter %q requires a relative value", params.Filter)
	}

	switch params.Filter {
	case domain.DateFilterRange:
		if params.Start == "" || params.End == "" {
			return Range{}, domain.BadRequest("date filter \"range\" requires start and end")
		}
		if _, err := time.ParseInLocation(dayFormat, params.Start, r.Location); err != nil {
			return Range{}, domain.BadRequest("invalid start date %q", params.Start)
		}
		if _, err := time.ParseInLocation(dayFormat, params.End, r.Location); err != nil {
			return Range{}, domain.BadRequest("invalid end date %q", params.End)
		}
		return Range{
			GTE:      params.Start + "T00:00:00",
			LT:       params.End + "T23:59:59",
			TimeZone: tz,
		}, nil

	case domain.DateFilterDay:
		if params.Date == "" {
			return Range{}, domain.BadRequest("date filter \"day\" requires a date")
		}
		if _, err := time.ParseInLocation(dayFormat, params.Date, r.Location); err != nil {
			return Range{}, domain.BadRequest("invalid date %q", params.Date)
		}
		return Range{
			GTE:      params.Date + "T00:00:00",
			LT:       params.Date + "T23:59:59",
			TimeZone: tz,
		}, nil

	case domain.DateFilterYesterday:
		return Range{GTE: "now-1d/d", LT: "now/d", TimeZone: tz}, nil
	case domain.DateFilterToday:
		return Range{GTE: "now/d", LT: "now", TimeZone: tz}, nil
	case domain.DateFilterLastWeek:
		return Range{GTE: "now-1w/w", LT: "now/w", TimeZone: tz}, nil
	case domain.DateFilterThisWeek:
		return Range{GTE: "now/w", LT: "now", TimeZone: tz}, nil
	case domain.DateFilterLastMonth:
		return Range{GTE: "now-1M/M", LT: "now/M", TimeZone: tz}, nil
	case domain.DateFilterThisMonth:
		return Range{GTE: "now/M", LT: "now", TimeZone: tz}, nil
	case domain.DateFilterLastYear:
		return Range{GTE: "now-1y/y", LT: "now/y", TimeZone: tz}, nil
	case domain.DateFilterThisYear:
		return Range{GTE: "now/y", LT: "now", TimeZone: tz}, nil

	case domain.DateFilterRelativeHours:
		return Range{GTE: fmt.Sprintf("now-%dh/h", params.Relative), LT: "now", TimeZone: tz}, nil
	case domain.DateFilterRelativeDays:
		return Range{GTE: fmt.Sprintf("now-%dd/d", params.Relative), LT: "now", TimeZone: tz}, nil
	case domain.DateFilterRelativeWeeks:
		// Rounds to day, not to a week boundary.
		return Range{GTE: fmt.Sprintf("now-%dw/d", params.Relative), LT: "now", TimeZone: tz}, nil
	case domain.DateFilterRelativeMonths:
		// Rounds to day, not to a month boundary.
		return Range{GTE: fmt.Sprintf("now-%dM/d", params.Relative), LT: "now", TimeZone: tz}, nil
	}

	return Range{}, domain.BadRequest("unsupported date filter %q", params.Filter)
}

// ResolveBounds resolves the date filter to absolute timestamps in the
// configured timezone, for histogram extended bounds. Symbolic filters are
// resolved through the date-math rules of ResolveSymbol.
func (r *Resolver) ResolveBounds(params *domain.DateParams, now time.Time) (gte, lt time.Time, err error) {
	rng, err := r.Resolve(params, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if rng.Empty() {
		return time.Time{}, time.Time{}, domain.BadRequest("histogram requires a date filter")
	}

	gte, err = r.resolveBoundary(rng.GTE, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	lt, err = r.resolveBoundary(rng.LT, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return gte, lt, nil
}

// resolveBoundary resolves either a date-math expression or a concrete
// local timestamp string.
func (r *Resolver) resolveBoundary(expr string, now time.Time) (time.Time, error) {
	if t, parseErr := time.ParseInLocation(localFormat, expr, r.Location); parseErr == nil {
		return t, nil
	}
	return r.ResolveSymbol(expr, now)
}

var symbolPattern = regexp.MustCompile(`^now(?:-(\d+)([mhdwMy]))?(?:/([mhdwMy]))?$`)

// ResolveSymbol resolves a relative date-math expression ("now", "now/d",
// "now-3w/d", ...) to an absolute timestamp in the resolver's timezone.
// The offset suffix is applied before the rounding suffix. Week rounding
// shifts to the configured start of week, not to Monday.
func (r *Resolver) ResolveSymbol(expr string, now time.Time) (time.Time, error) {
	match := symbolPattern.FindStringSubmatch(expr)
	if match == nil {
		return time.Time{}, domain.BadRequest("invalid date expression %q", expr)
	}

	t := now.In(r.Location)

	if match[1] != "" {
		count, err := strconv.Atoi(match[1])
		if err != nil {
			return time.Time{}, domain.BadRequest("invalid date offset in %q", expr)
		}
		t = applyOffset(t, count, match[2])
	}

	if match[3] != "" {
		t = r.round(t, match[3])
	}

	return t, nil
}

// applyOffset subtracts count units from t.
func applyOffset(t time.Time, count int, unit string) time.Time {
	switch unit {
	case "m":
		return t.Add(-time.Duration(count) * time.Minute)
	case "h":
		return t.Add(-time.Duration(count) * time.Hour)
	case "d":
		return t.AddDate(0, 0, -count)
	case "w":
		return t.AddDate(0, 0, -7*count)
	case "M":
		return t.AddDate(0, -count, 0)
	case "y":
		return t.AddDate(-count, 0, 0)
	}
	return t
}

// round truncates t down to the given unit boundary in t's location.
func (r *Resolver) round(t time.Time, unit string) time.Time {
	loc := t.Location()
	switch unit {
	case "m":
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	case "h":
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	case "d":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	case "w":
		return r.StartOfWeekFor(t)
	case "M":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	case "y":
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, loc)
	}
	return t
}

// StartOfWeekFor returns midnight of the most recent configured week-start
// day at or before t.
func (r *Resolver) StartOfWeekFor(t time.Time) time.Time {
	delta := (int(t.Weekday()) - r.StartOfWeek + 7) % 7
	day := t.AddDate(0, 0, -delta)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}

// WeekOffsetHours is the histogram offset correction for weekly intervals.
// The backend rounds weeks to Monday, so the offset shifts buckets to the
// configured start of week. Daily and hourly intervals need no correction.
func (r *Resolver) WeekOffsetHours() int {
	// Monday is weekday 1; the configured start counts from Sunday = 0.
	return ((r.StartOfWeek - 1 + 7) % 7) * 24
}

// OffsetString formats the UTC offset of t like "+1000" or "-0430".
func OffsetString(t time.Time) string {
	_, seconds := t.Zone()
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%s%02d%02d", sign, hours, minutes)
}
