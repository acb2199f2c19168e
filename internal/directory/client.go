package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newsroom-cloud/analytics/internal/config"
	"github.com/newsroom-cloud/analytics/internal/logger"
	"github.com/newsroom-cloud/analytics/internal/retry"
)

// Client looks up vocabularies, desks, users and stages from the CMS API.
// It implements the Vocabularies, Desks, Users and Stages interfaces.
type Client struct {
	baseURL string
	http    *http.Client
	retry   retry.Config
	log     logger.Logger
}

// NewClient creates the CMS directory client.
func NewClient(cfg *config.CMSConfig, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.URL,
		http:    &http.Client{Timeout: timeout},
		retry:   retry.DefaultConfig(),
		log:     log,
	}
}

// listResponse is the CMS collection envelope.
type listResponse[T any] struct {
	Items []T `json:"_items"`
}

// Vocabulary fetches one controlled vocabulary.
func (c *Client) Vocabulary(ctx context.Context, id string) (*Vocabulary, error) {
	var vocabulary Vocabulary
	if err := c.get(ctx, "/api/vocabularies/"+id, &vocabulary); err != nil {
		return nil, fmt.Errorf("fetch vocabulary %s: %w", id, err)
	}
	return &vocabulary, nil
}

// Desks fetches the desk roster.
func (c *Client) Desks(ctx context.Context) ([]Desk, error) {
	var resp listResponse[Desk]
	if err := c.get(ctx, "/api/desks", &resp); err != nil {
		return nil, fmt.Errorf("fetch desks: %w", err)
	}
	return resp.Items, nil
}

// Users fetches the platform users.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var resp listResponse[User]
	if err := c.get(ctx, "/api/users", &resp); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	return resp.Items, nil
}

// stage is the slice of the CMS stage document visibility depends on.
type stage struct {
	ID             string `json:"_id"`
	IsVisible      bool   `json:"is_visible"`
	LocalReadsOnly bool   `json:"local_readonly"`
}

// HiddenStageIDs lists the stages hidden from global readers.
func (c *Client) HiddenStageIDs(ctx context.Context) ([]string, error) {
	var resp listResponse[stage]
	if err := c.get(ctx, "/api/stages", &resp); err != nil {
		return nil, fmt.Errorf("fetch stages: %w", err)
	}

	var hidden []string
	for _, s := range resp.Items {
		if !s.IsVisible {
			hidden = append(hidden, s.ID)
		}
	}
	return hidden, nil
}

// get fetches one CMS endpoint into out, retrying transient failures.
func (c *Client) get(ctx context.Context, path string, out any) error {
	url := c.baseURL + path

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("cms returned %d: %s", resp.StatusCode, body)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	}

	if err := retry.Do(ctx, c.retry, attempt); err != nil {
		c.log.Error("cms lookup failed",
			logger.String("url", url),
			logger.Error(err))
		return err
	}
	return nil
}
