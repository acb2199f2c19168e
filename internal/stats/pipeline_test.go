package stats

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/newsroom-cloud/analytics/internal/logger"
)

type recordingObserver struct {
	BaseObserver
	name  string
	calls *[]string
	fail  bool
}

func (o *recordingObserver) Name() string { return o.name }

func (o *recordingObserver) record(checkpoint string) error {
	*o.calls = append(*o.calls, o.name+":"+checkpoint)
	if o.fail {
		return errors.New("observer failure")
	}
	return nil
}

func (o *recordingObserver) Start(context.Context) error               { return o.record("start") }
func (o *recordingObserver) Generate(context.Context, *Item) error     { return o.record("generate") }
func (o *recordingObserver) InitTimeline(context.Context, *Item) error { return o.record("init_timeline") }
func (o *recordingObserver) Process(context.Context, *Item, TimelineEntry) error {
	return o.record("process")
}
func (o *recordingObserver) Complete(context.Context, *Item) error { return o.record("complete") }
func (o *recordingObserver) Finish(context.Context) error          { return o.record("finish") }

func TestPipeline_Run_OrderAndCheckpoints(t *testing.T) {
	var calls []string
	pipeline := NewPipeline(logger.NewNop())
	pipeline.Register(&recordingObserver{name: "first", calls: &calls})
	pipeline.Register(&recordingObserver{name: "second", calls: &calls})

	item := NewItem("item1")
	item.Timeline = []TimelineEntry{{"operation": "create"}}

	pipeline.Run(context.Background(), []*Item{item})

	want := []string{
		"first:start", "second:start",
		"first:generate", "second:generate",
		"first:init_timeline", "second:init_timeline",
		"first:process", "second:process",
		"first:complete", "second:complete",
		"first:finish", "second:finish",
	}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("Run() calls = %v, want %v", calls, want)
	}
}

func TestPipeline_Run_FailingObserverIsIsolated(t *testing.T) {
	var calls []string
	pipeline := NewPipeline(logger.NewNop())
	pipeline.Register(&recordingObserver{name: "broken", calls: &calls, fail: true})
	pipeline.Register(&recordingObserver{name: "working", calls: &calls})

	pipeline.Run(context.Background(), []*Item{NewItem("item1")})

	// The second observer still runs at every checkpoint.
	working := 0
	for _, call := range calls {
		if call == "working:start" || call == "working:finish" {
			working++
		}
	}
	if working != 2 {
		t.Errorf("working observer calls = %v", calls)
	}
}
