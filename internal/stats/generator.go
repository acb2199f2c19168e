package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/newsroom-cloud/analytics/internal/logger"
)

// HistorySource lists items whose operation history still needs statistics.
type HistorySource interface {
	ItemHistories(ctx context.Context) ([]*Item, error)
}

// StatsSink stores finished per-item stats documents.
type StatsSink interface {
	StoreStats(ctx context.Context, items []*Item) error
}

// Generator runs the statistics pipeline over pending item histories and
// stores the resulting documents.
type Generator struct {
	source   HistorySource
	sink     StatsSink
	pipeline *Pipeline
	log      logger.Logger
}

// NewGenerator creates a generator with the default observers registered.
func NewGenerator(source HistorySource, sink StatsSink, log logger.Logger) *Generator {
	pipeline := NewPipeline(log)
	pipeline.Register(TimelineObserver{})
	pipeline.Register(DeskTransitionObserver{})

	return &Generator{
		source:   source,
		sink:     sink,
		pipeline: pipeline,
		log:      log,
	}
}

// Register appends a stats extension behind the default observers.
func (g *Generator) Register(observer Observer) {
	g.pipeline.Register(observer)
}

// GenerateOnce walks one batch of pending histories through the pipeline
// and stores the results.
func (g *Generator) GenerateOnce(ctx context.Context) error {
	items, err := g.source.ItemHistories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load item histories: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	g.pipeline.Run(ctx, items)

	if err := g.sink.StoreStats(ctx, items); err != nil {
		return fmt.Errorf("failed to store statistics: %w", err)
	}

	g.log.Info("archive statistics generated", logger.Int("items", len(items)))
	return nil
}

// Run generates statistics on the given interval until the context ends.
func (g *Generator) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	g.log.Info("statistics generator started", logger.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.log.Info("statistics generator stopping")
			return
		case <-ticker.C:
			if err := g.GenerateOnce(ctx); err != nil {
				g.log.Error("statistics generation failed", logger.Error(err))
			}
		}
	}
}
