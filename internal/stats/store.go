package stats

import (
	"context"

	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/elastic"
	"github.com/newsroom-cloud/analytics/internal/logger"
)

// Collections read and written by statistics generation.
const (
	historyRepo    = "archive_history"
	statisticsRepo = "archive_statistics"
)

// Indexer stores documents into a backend collection by id.
type Indexer interface {
	BulkIndex(ctx context.Context, index string, docs map[string]map[string]any) error
}

// ElasticStore reads item histories from the history collection and writes
// finished stats documents into the statistics collection.
type ElasticStore struct {
	search    elastic.Searcher
	indexer   Indexer
	batchSize int
	log       logger.Logger
}

// NewElasticStore creates the statistics store.
func NewElasticStore(search elastic.Searcher, indexer Indexer, batchSize int, log logger.Logger) *ElasticStore {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &ElasticStore{
		search:    search,
		indexer:   indexer,
		batchSize: batchSize,
		log:       log,
	}
}

// ItemHistories loads one batch of history entries and folds them into one
// accumulator per item. Entries without an item id are skipped.
func (s *ElasticStore) ItemHistories(ctx context.Context) ([]*Item, error) {
	query := &domain.BuiltQuery{
		Repo: historyRepo,
		Source: map[string]any{
			"query": map[string]any{"match_all": map[string]any{}},
			"sort":  []map[string]any{{"_created": map[string]any{"order": "asc"}}},
			"size":  s.batchSize,
		},
	}

	result, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	byID := map[string]*Item{}
	var items []*Item
	for _, entry := range result.Items {
		itemID, _ := entry["item_id"].(string)
		if itemID == "" {
			continue
		}
		item, ok := byID[itemID]
		if !ok {
			item = NewItem(itemID)
			byID[itemID] = item
			items = append(items, item)
		}
		item.Timeline = append(item.Timeline, TimelineEntry(entry))
	}

	s.log.Debug("loaded item histories",
		logger.Int("entries", len(result.Items)),
		logger.Int("items", len(items)))
	return items, nil
}

// StoreStats indexes one stats document per item.
func (s *ElasticStore) StoreStats(ctx context.Context, items []*Item) error {
	docs := make(map[string]map[string]any, len(items))
	for _, item := range items {
		docs[item.ID] = map[string]any{"stats": item.Stats}
	}
	return s.indexer.BulkIndex(ctx, statisticsRepo, docs)
}
