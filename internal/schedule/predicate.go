// Package schedule delivers saved reports by email on their configured
// schedule: an hourly poll evaluates each active schedule against the
// current local hour, a redis lock guarantees at-most-once delivery per
// tick, and generated charts are attached to the outgoing message.
package schedule

import "time"

// Schedule is one scheduled report delivery.
type Schedule struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	Active        bool     `json:"active"`
	SavedReportID string   `json:"saved_report"`
	MimeType      string   `json:"mimetype"`
	ReportWidth   int      `json:"report_width"`
	Recipients    []string `json:"recipients"`
	Body          string   `json:"body,omitempty"`

	// Hour restricts delivery to one hour of the day; -1 means every
	// hour. Day restricts to one day of the month; -1 means every day.
	// WeekDays restricts to the named weekdays; empty means every day.
	Hour     int      `json:"hour"`
	Day      int      `json:"day"`
	WeekDays []string `json:"week_days,omitempty"`

	// LastSent is the UTC timestamp of the previous delivery.
	LastSent *time.Time `json:"_last_sent,omitempty"`
}

// ShouldSend reports whether the schedule is due at the given instant.
// The decision is made on hour boundaries in the given location: a
// schedule fires at most once per hour, and LastSent at or after the
// current hour suppresses a repeat send.
func ShouldSend(s *Schedule, now time.Time, loc *time.Location) bool {
	nowToHour := roundToHour(now.In(loc))

	if s.Day > -1 && s.Day != nowToHour.Day() {
		return false
	}

	if len(s.WeekDays) > 0 && !containsDay(s.WeekDays, nowToHour.Weekday().String()) {
		return false
	}

	if s.Hour > -1 && s.Hour != nowToHour.Hour() {
		return false
	}

	if s.LastSent != nil {
		lastSent := roundToHour(s.LastSent.In(loc))
		if !nowToHour.After(lastSent) {
			return false
		}
	}

	return true
}

// roundToHour truncates to the start of the hour in t's location.
func roundToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func containsDay(days []string, day string) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
