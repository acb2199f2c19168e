package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newsroom-cloud/analytics/internal/config"
	"github.com/newsroom-cloud/analytics/internal/logger"
	"github.com/newsroom-cloud/analytics/internal/retry"
)

// CMSStore reads schedules and saved reports from the newsroom CMS and
// writes back delivery timestamps. It implements Store.
type CMSStore struct {
	baseURL string
	http    *http.Client
	retry   retry.Config
	log     logger.Logger
}

// NewCMSStore creates the CMS-backed schedule store.
func NewCMSStore(cfg *config.CMSConfig, log logger.Logger) *CMSStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CMSStore{
		baseURL: cfg.URL,
		http:    &http.Client{Timeout: timeout},
		retry:   retry.DefaultConfig(),
		log:     log,
	}
}

// ActiveSchedules lists the schedules with active=true.
func (s *CMSStore) ActiveSchedules(ctx context.Context) ([]*Schedule, error) {
	var resp struct {
		Items []*Schedule `json:"_items"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/scheduled_reports?active=true", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch schedules: %w", err)
	}
	return resp.Items, nil
}

// SavedReport fetches one saved report definition; a missing document
// yields nil without error.
func (s *CMSStore) SavedReport(ctx context.Context, id string) (*SavedReport, error) {
	var saved SavedReport
	err := s.do(ctx, http.MethodGet, "/api/saved_reports/"+id, nil, &saved)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch saved report %s: %w", id, err)
	}
	return &saved, nil
}

// MarkSent records the delivery timestamp on the schedule.
func (s *CMSStore) MarkSent(ctx context.Context, scheduleID string, sentAt time.Time) error {
	body := map[string]any{"_last_sent": sentAt.UTC().Format(time.RFC3339)}
	if err := s.do(ctx, http.MethodPatch, "/api/scheduled_reports/"+scheduleID, body, nil); err != nil {
		return fmt.Errorf("update schedule %s: %w", scheduleID, err)
	}
	return nil
}

// statusError carries the CMS response status.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("cms returned %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

// do performs one CMS request, retrying transient failures.
func (s *CMSStore) do(ctx context.Context, method, path string, body, out any) error {
	url := s.baseURL + path

	attempt := func() error {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return err
			}
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &statusError{status: resp.StatusCode, body: string(data)}
		}

		if out != nil {
			return json.NewDecoder(resp.Body).Decode(out)
		}
		return nil
	}

	if err := retry.Do(ctx, s.retry, attempt); err != nil {
		s.log.Error("cms request failed",
			logger.String("method", method),
			logger.String("url", url),
			logger.Error(err))
		return err
	}
	return nil
}
