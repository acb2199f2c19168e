package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/newsroom-cloud/analytics/internal/config"
	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/logger"
)

// Searcher executes a built report query against a set of collections.
type Searcher interface {
	Search(ctx context.Context, query *domain.BuiltQuery) (*domain.SearchResult, error)
}

// Client wraps the Elasticsearch client for report queries.
type Client struct {
	esClient *es.Client
	config   *config.ElasticsearchConfig
	log      logger.Logger
}

// NewClient creates an Elasticsearch client and verifies the connection.
func NewClient(cfg *config.ElasticsearchConfig, log logger.Logger) (*Client, error) {
	addresses := []string{cfg.URL}
	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		addresses = []string{"http://" + cfg.URL}
	}

	clientConfig := es.Config{
		Addresses:  addresses,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.Username != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	esClient, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	client := &Client{
		esClient: esClient,
		config:   cfg,
		log:      log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping elasticsearch: %w", pingErr)
	}

	return client, nil
}

// Ping verifies the Elasticsearch connection.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.esClient.Ping(c.esClient.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch ping failed: %s", string(body))
	}
	return nil
}

// HealthCheck checks Elasticsearch cluster health.
func (c *Client) HealthCheck(ctx context.Context) error {
	res, err := c.esClient.Cluster.Health(
		c.esClient.Cluster.Health.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster unhealthy [%d]: %s", res.StatusCode, string(body))
	}
	return nil
}

// Search executes a built report query against its selected collections and
// parses the response.
func (c *Client) Search(ctx context.Context, query *domain.BuiltQuery) (*domain.SearchResult, error) {
	body, err := json.Marshal(query.Body())
	if err != nil {
		return nil, domain.Internal(err, "failed to encode query")
	}

	c.log.Debug("executing report query",
		logger.String("repo", query.Repo),
		logger.Int("size", query.Size),
	)

	res, err := c.esClient.Search(
		c.esClient.Search.WithContext(ctx),
		c.esClient.Search.WithIndex(strings.Split(query.Repo, ",")...),
		c.esClient.Search.WithBody(bytes.NewReader(body)),
		c.esClient.Search.WithTimeout(c.config.Timeout),
		c.esClient.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, domain.Internal(err, "search request failed")
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		errBody, _ := io.ReadAll(res.Body)
		return nil, domain.Internal(
			fmt.Errorf("status %d: %s", res.StatusCode, string(errBody)),
			"search returned error",
		)
	}

	result, err := parseResponse(res.Body)
	if err != nil {
		return nil, err
	}
	result.Page = query.Page
	result.MaxResults = query.MaxResults
	return result, nil
}

// BulkIndex indexes one document per id into the given collection.
func (c *Client) BulkIndex(ctx context.Context, index string, docs map[string]map[string]any) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for id, doc := range docs {
		action := map[string]any{"index": map[string]any{"_index": index, "_id": id}}
		if err := encoder.Encode(action); err != nil {
			return domain.Internal(err, "failed to encode bulk action")
		}
		if err := encoder.Encode(doc); err != nil {
			return domain.Internal(err, "failed to encode bulk document")
		}
	}

	c.log.Debug("bulk indexing documents",
		logger.String("index", index),
		logger.Int("count", len(docs)),
	)

	res, err := c.esClient.Bulk(bytes.NewReader(buf.Bytes()), c.esClient.Bulk.WithContext(ctx))
	if err != nil {
		return domain.Internal(err, "bulk request failed")
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		errBody, _ := io.ReadAll(res.Body)
		return domain.Internal(
			fmt.Errorf("status %d: %s", res.StatusCode, string(errBody)),
			"bulk returned error",
		)
	}
	return nil
}

// searchResponse mirrors the backend response envelope.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]domain.Aggregation `json:"aggregations"`
}

// parseResponse decodes the backend response into a search result.
func parseResponse(body io.Reader) (*domain.SearchResult, error) {
	var resp searchResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, domain.Internal(err, "failed to decode search response")
	}

	result := &domain.SearchResult{
		Total:        resp.Hits.Total.Value,
		Aggregations: resp.Aggregations,
	}
	for _, hit := range resp.Hits.Hits {
		result.Items = append(result.Items, hit.Source)
	}
	return result, nil
}
