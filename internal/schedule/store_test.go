package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-cloud/analytics/internal/config"
	"github.com/newsroom-cloud/analytics/internal/logger"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *CMSStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCMSStore(&config.CMSConfig{URL: server.URL}, logger.NewNop())
}

func TestActiveSchedules(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/scheduled_reports", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"_items": [
			{"_id": "s1", "name": "Daily digest", "active": true,
			 "saved_report": "r1", "mimetype": "image/png",
			 "hour": 10, "day": -1,
			 "_last_sent": "2018-06-30T09:00:00Z"}
		]}`))
	})

	schedules, err := store.ActiveSchedules(context.Background())
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	s := schedules[0]
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, 10, s.Hour)
	assert.Equal(t, -1, s.Day)
	require.NotNil(t, s.LastSent)
	assert.Equal(t, time.Date(2018, 6, 30, 9, 0, 0, 0, time.UTC), s.LastSent.UTC())
}

func TestSavedReportNotFound(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	saved, err := store.SavedReport(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestSavedReport(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/saved_reports/r1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"_id": "r1", "report": "source_category",
			"params": {"dates": {"filter": "yesterday"}}}`))
	})

	saved, err := store.SavedReport(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "source_category", saved.ReportType)
	require.NotNil(t, saved.Params)
	assert.Equal(t, "yesterday", string(saved.Params.Dates.Filter))
}

func TestMarkSent(t *testing.T) {
	var patched map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/scheduled_reports/s1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		w.WriteHeader(http.StatusOK)
	})

	sentAt := time.Date(2018, 6, 30, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkSent(context.Background(), "s1", sentAt))
	assert.Equal(t, "2018-06-30T10:00:00Z", patched["_last_sent"])
}
