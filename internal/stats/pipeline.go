// Package stats runs the archive statistics generation pipeline. Extensions
// register as observers and are invoked in order at fixed checkpoints, so
// per-item stat injection needs no global signal wiring.
package stats

import (
	"context"

	"github.com/newsroom-cloud/analytics/internal/logger"
)

// TimelineEntry is one raw operation entry of an item's history.
type TimelineEntry map[string]any

// Item is the mutable accumulator for one archive item's statistics.
type Item struct {
	ID       string
	Timeline []TimelineEntry
	Stats    map[string]any
}

// NewItem creates an empty stats accumulator for an item.
func NewItem(id string) *Item {
	return &Item{ID: id, Stats: map[string]any{}}
}

// Observer is one registered stats extension. Each method corresponds to a
// pipeline checkpoint; observers embed BaseObserver and override what they
// need.
type Observer interface {
	// Name identifies the observer in logs.
	Name() string
	// Start runs once when a generation run begins.
	Start(ctx context.Context) error
	// Generate runs per item before its timeline is walked.
	Generate(ctx context.Context, item *Item) error
	// InitTimeline runs per item after its timeline has been assembled.
	InitTimeline(ctx context.Context, item *Item) error
	// Process runs per timeline entry in chronological order.
	Process(ctx context.Context, item *Item, entry TimelineEntry) error
	// Complete runs per item after all its entries were processed.
	Complete(ctx context.Context, item *Item) error
	// Finish runs once when the generation run ends.
	Finish(ctx context.Context) error
}

// BaseObserver is a no-op Observer for embedding.
type BaseObserver struct{}

func (BaseObserver) Start(context.Context) error                         { return nil }
func (BaseObserver) Generate(context.Context, *Item) error               { return nil }
func (BaseObserver) InitTimeline(context.Context, *Item) error           { return nil }
func (BaseObserver) Process(context.Context, *Item, TimelineEntry) error { return nil }
func (BaseObserver) Complete(context.Context, *Item) error               { return nil }
func (BaseObserver) Finish(context.Context) error                        { return nil }

// Pipeline invokes registered observers in registration order at each
// checkpoint. A failing observer is logged and skipped so one extension
// cannot abort the run.
type Pipeline struct {
	observers []Observer
	log       logger.Logger
}

// NewPipeline creates an empty pipeline.
func NewPipeline(log logger.Logger) *Pipeline {
	return &Pipeline{log: log}
}

// Register appends an observer. Registration order is invocation order.
func (p *Pipeline) Register(observer Observer) {
	p.observers = append(p.observers, observer)
}

func (p *Pipeline) invoke(checkpoint string, fn func(Observer) error) {
	for _, observer := range p.observers {
		if err := fn(observer); err != nil {
			p.log.Error("stats observer failed",
				logger.String("observer", observer.Name()),
				logger.String("checkpoint", checkpoint),
				logger.Error(err),
			)
		}
	}
}

// Start announces the beginning of a generation run.
func (p *Pipeline) Start(ctx context.Context) {
	p.invoke("start", func(o Observer) error { return o.Start(ctx) })
}

// Generate announces per-item stats generation.
func (p *Pipeline) Generate(ctx context.Context, item *Item) {
	p.invoke("generate", func(o Observer) error { return o.Generate(ctx, item) })
}

// InitTimeline announces the assembled timeline of an item.
func (p *Pipeline) InitTimeline(ctx context.Context, item *Item) {
	p.invoke("init_timeline", func(o Observer) error { return o.InitTimeline(ctx, item) })
}

// Process announces one timeline entry of an item.
func (p *Pipeline) Process(ctx context.Context, item *Item, entry TimelineEntry) {
	p.invoke("process", func(o Observer) error { return o.Process(ctx, item, entry) })
}

// Complete announces that an item's timeline has been fully processed.
func (p *Pipeline) Complete(ctx context.Context, item *Item) {
	p.invoke("complete", func(o Observer) error { return o.Complete(ctx, item) })
}

// Finish announces the end of a generation run.
func (p *Pipeline) Finish(ctx context.Context) {
	p.invoke("finish", func(o Observer) error { return o.Finish(ctx) })
}

// Run walks every item through the full checkpoint sequence.
func (p *Pipeline) Run(ctx context.Context, items []*Item) {
	p.Start(ctx)
	for _, item := range items {
		p.Generate(ctx, item)
		p.InitTimeline(ctx, item)
		for _, entry := range item.Timeline {
			p.Process(ctx, item, entry)
		}
		p.Complete(ctx, item)
	}
	p.Finish(ctx)
}
