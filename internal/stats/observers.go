package stats

import (
	"context"
	"sort"
	"time"
)

// entryTime returns the operation timestamp of a timeline entry.
func entryTime(entry TimelineEntry) time.Time {
	switch v := entry["operation_created"].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// TimelineObserver orders each item's history chronologically, counts its
// operations and carries the ordered timeline into the stats document.
type TimelineObserver struct {
	BaseObserver
}

func (TimelineObserver) Name() string { return "timeline" }

func (TimelineObserver) InitTimeline(_ context.Context, item *Item) error {
	sort.SliceStable(item.Timeline, func(i, j int) bool {
		return entryTime(item.Timeline[i]).Before(entryTime(item.Timeline[j]))
	})
	return nil
}

func (TimelineObserver) Process(_ context.Context, item *Item, entry TimelineEntry) error {
	operation, _ := entry["operation"].(string)
	if operation == "" {
		return nil
	}

	counts, _ := item.Stats["operation_counts"].(map[string]int)
	if counts == nil {
		counts = map[string]int{}
		item.Stats["operation_counts"] = counts
	}
	counts[operation]++

	created := entryTime(entry)
	if created.IsZero() {
		return nil
	}
	if first, _ := item.Stats["first_operation"].(time.Time); first.IsZero() || created.Before(first) {
		item.Stats["first_operation"] = created
	}
	if last, _ := item.Stats["last_operation"].(time.Time); created.After(last) {
		item.Stats["last_operation"] = created
	}
	return nil
}

func (TimelineObserver) Complete(_ context.Context, item *Item) error {
	item.Stats["timeline"] = item.Timeline
	return nil
}

// DeskTransitionObserver records the desks an item moved through. Each stay
// carries the desk id with entry and, once the item moves on, exit times.
type DeskTransitionObserver struct {
	BaseObserver
}

func (DeskTransitionObserver) Name() string { return "desk_transitions" }

func (DeskTransitionObserver) Process(_ context.Context, item *Item, entry TimelineEntry) error {
	task, _ := entry["task"].(map[string]any)
	desk, _ := task["desk"].(string)
	if desk == "" {
		return nil
	}

	stays, _ := item.Stats["desk_transitions"].([]map[string]any)
	if n := len(stays); n > 0 {
		if stays[n-1]["desk"] == desk {
			return nil
		}
		if created := entryTime(entry); !created.IsZero() {
			stays[n-1]["exited"] = created
		}
	}

	stay := map[string]any{"desk": desk}
	if created := entryTime(entry); !created.IsZero() {
		stay["entered"] = created
	}
	item.Stats["desk_transitions"] = append(stays, stay)
	return nil
}

func (DeskTransitionObserver) Complete(_ context.Context, item *Item) error {
	stays, ok := item.Stats["desk_transitions"].([]map[string]any)
	if !ok {
		return nil
	}
	moves := len(stays) - 1
	if moves < 0 {
		moves = 0
	}
	item.Stats["num_desk_transitions"] = moves
	return nil
}
