// Package activity folds item lock/unlock timeline events into the closed
// editing intervals behind the user-activity report.
package activity

import "time"

// Timeline operation names.
const (
	OpItemLock   = "item_lock"
	OpItemUnlock = "item_unlock"
)

// Event is one timeline entry for an item.
type Event struct {
	Operation string
	UserID    string
	Created   time.Time
}

// Interval is one closed lock period.
type Interval struct {
	Start time.Time
	End   time.Time
}

// lockState is the tracker state while walking a timeline.
type lockState int

const (
	stateIdle lockState = iota
	stateLocked
)

// Tracker walks lock/unlock events for one user in chronological order and
// emits an interval on each locked-to-idle transition. Events for other
// users or other operations are ignored.
type Tracker struct {
	userID    string
	state     lockState
	lockStart time.Time
	intervals []Interval
}

// NewTracker creates a tracker for the given user's locks.
func NewTracker(userID string) *Tracker {
	return &Tracker{userID: userID}
}

// Observe processes one event. An unlock without a preceding lock is
// ignored, as is a second lock while already locked.
func (t *Tracker) Observe(event Event) {
	if event.UserID != t.userID {
		return
	}

	switch t.state {
	case stateIdle:
		if event.Operation == OpItemLock {
			t.state = stateLocked
			t.lockStart = event.Created
		}
	case stateLocked:
		if event.Operation == OpItemUnlock {
			t.intervals = append(t.intervals, Interval{Start: t.lockStart, End: event.Created})
			t.state = stateIdle
		}
	}
}

// Flush closes a lock still open at the end of the timeline using the
// supplied end timestamp. Without an open lock it does nothing.
func (t *Tracker) Flush(end time.Time) {
	if t.state != stateLocked {
		return
	}
	t.intervals = append(t.intervals, Interval{Start: t.lockStart, End: end})
	t.state = stateIdle
}

// Intervals returns the closed lock intervals emitted so far.
func (t *Tracker) Intervals() []Interval {
	return t.intervals
}

// Collect runs a fresh tracker over a full timeline and returns the closed
// intervals. An open trailing lock is dropped unless flushEnd is non-zero.
func Collect(userID string, events []Event, flushEnd time.Time) []Interval {
	tracker := NewTracker(userID)
	for _, event := range events {
		tracker.Observe(event)
	}
	if !flushEnd.IsZero() {
		tracker.Flush(flushEnd)
	}
	return tracker.Intervals()
}

// Bounds returns the earliest start and latest end across intervals.
func Bounds(intervals []Interval) (min, max time.Time) {
	for _, interval := range intervals {
		if min.IsZero() || interval.Start.Before(min) {
			min = interval.Start
		}
		if max.IsZero() || interval.End.After(max) {
			max = interval.End
		}
	}
	return min, max
}
