package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/newsroom-cloud/analytics/internal/config"
	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/logger"
	"github.com/newsroom-cloud/analytics/internal/retry"
)

// HighchartsClient renders chart configurations to images through the
// highcharts export server.
type HighchartsClient struct {
	url    string
	width  int
	http   *http.Client
	log    logger.Logger
	retry  retry.Config
}

// NewHighchartsClient creates an export server client.
func NewHighchartsClient(cfg *config.HighchartsConfig, log logger.Logger) *HighchartsClient {
	return &HighchartsClient{
		url:   cfg.URL,
		width: cfg.Width,
		http:  &http.Client{Timeout: cfg.Timeout},
		log:   log,
		retry: retry.DefaultConfig(),
	}
}

// exportRequest is the export server request body.
type exportRequest struct {
	Options map[string]any `json:"options"`
	Type    string         `json:"type"`
	Width   int            `json:"width,omitempty"`
}

// Render posts the chart options to the export server and returns the
// rendered bytes with their mimetype. Only image formats are accepted;
// CSV and HTML are rendered locally.
func (c *HighchartsClient) Render(ctx context.Context, options map[string]any, mimetype string) ([]byte, string, error) {
	format, ok := imageFormats[mimetype]
	if !ok {
		return nil, "", domain.BadRequest("unsupported render mimetype %q", mimetype)
	}
	if options == nil {
		return nil, "", domain.BadRequest("chart options are required")
	}
	if _, hasSeries := options["series"]; !hasSeries {
		if _, hasRows := options["rows"]; !hasRows {
			return nil, "", domain.BadRequest("series data not provided")
		}
	}

	body, err := json.Marshal(exportRequest{
		Options: options,
		Type:    format,
		Width:   c.width,
	})
	if err != nil {
		return nil, "", domain.Internal(err, "failed to encode chart options")
	}

	var rendered []byte
	attempt := func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		res, doErr := c.http.Do(req)
		if doErr != nil {
			return doErr
		}
		defer func() {
			_ = res.Body.Close()
		}()

		if res.StatusCode < 200 || res.StatusCode > 299 {
			payload, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
			return fmt.Errorf("export server returned %d: %s", res.StatusCode, string(payload))
		}

		rendered, doErr = io.ReadAll(res.Body)
		return doErr
	}

	if err := retry.Do(ctx, c.retry, attempt); err != nil {
		c.log.Error("chart rendering failed",
			logger.String("mimetype", mimetype),
			logger.Error(err),
		)
		return nil, "", domain.Internal(err, "failed to render chart")
	}

	return rendered, mimetype, nil
}
