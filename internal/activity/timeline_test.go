package activity

import (
	"reflect"
	"testing"
	"time"
)

func at(minute int) time.Time {
	return time.Date(2019, 10, 20, 10, minute, 0, 0, time.UTC)
}

func TestCollect(t *testing.T) {
	testCases := []struct {
		name   string
		events []Event
		want   []Interval
	}{
		{
			name: "single closed interval",
			events: []Event{
				{Operation: OpItemLock, UserID: "u1", Created: at(0)},
				{Operation: OpItemUnlock, UserID: "u1", Created: at(5)},
			},
			want: []Interval{{Start: at(0), End: at(5)}},
		},
		{
			name: "multiple intervals",
			events: []Event{
				{Operation: OpItemLock, UserID: "u1", Created: at(0)},
				{Operation: OpItemUnlock, UserID: "u1", Created: at(5)},
				{Operation: OpItemLock, UserID: "u1", Created: at(10)},
				{Operation: OpItemUnlock, UserID: "u1", Created: at(12)},
			},
			want: []Interval{
				{Start: at(0), End: at(5)},
				{Start: at(10), End: at(12)},
			},
		},
		{
			name: "other users ignored",
			events: []Event{
				{Operation: OpItemLock, UserID: "u2", Created: at(0)},
				{Operation: OpItemLock, UserID: "u1", Created: at(1)},
				{Operation: OpItemUnlock, UserID: "u2", Created: at(2)},
				{Operation: OpItemUnlock, UserID: "u1", Created: at(3)},
			},
			want: []Interval{{Start: at(1), End: at(3)}},
		},
		{
			name: "unlock without lock ignored",
			events: []Event{
				{Operation: OpItemUnlock, UserID: "u1", Created: at(0)},
				{Operation: OpItemLock, UserID: "u1", Created: at(1)},
				{Operation: OpItemUnlock, UserID: "u1", Created: at(2)},
			},
			want: []Interval{{Start: at(1), End: at(2)}},
		},
		{
			name: "double lock keeps first start",
			events: []Event{
				{Operation: OpItemLock, UserID: "u1", Created: at(0)},
				{Operation: OpItemLock, UserID: "u1", Created: at(2)},
				{Operation: OpItemUnlock, UserID: "u1", Created: at(4)},
			},
			want: []Interval{{Start: at(0), End: at(4)}},
		},
		{
			name: "open trailing lock dropped without flush",
			events: []Event{
				{Operation: OpItemLock, UserID: "u1", Created: at(0)},
			},
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Collect("u1", tc.events, time.Time{})
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Collect() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCollect_FlushClosesOpenLock(t *testing.T) {
	events := []Event{
		{Operation: OpItemLock, UserID: "u1", Created: at(0)},
	}

	got := Collect("u1", events, at(30))
	want := []Interval{{Start: at(0), End: at(30)}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Collect() = %v, want %v", got, want)
	}
}

func TestBounds(t *testing.T) {
	intervals := []Interval{
		{Start: at(10), End: at(12)},
		{Start: at(0), End: at(5)},
		{Start: at(20), End: at(45)},
	}

	min, max := Bounds(intervals)
	if !min.Equal(at(0)) || !max.Equal(at(45)) {
		t.Errorf("Bounds() = %v, %v, want %v, %v", min, max, at(0), at(45))
	}

	min, max = Bounds(nil)
	if !min.IsZero() || !max.IsZero() {
		t.Errorf("Bounds(nil) = %v, %v, want zero times", min, max)
	}
}
