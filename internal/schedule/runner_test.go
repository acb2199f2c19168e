package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/logger"
	"github.com/newsroom-cloud/analytics/internal/render"
)

type fakeStore struct {
	schedules []*Schedule
	saved     map[string]*SavedReport
	sent      map[string]time.Time
}

func (f *fakeStore) ActiveSchedules(context.Context) ([]*Schedule, error) {
	return f.schedules, nil
}

func (f *fakeStore) SavedReport(_ context.Context, id string) (*SavedReport, error) {
	return f.saved[id], nil
}

func (f *fakeStore) MarkSent(_ context.Context, scheduleID string, sentAt time.Time) error {
	if f.sent == nil {
		f.sent = map[string]time.Time{}
	}
	f.sent[scheduleID] = sentAt
	return nil
}

type fakeReports struct {
	requests []*domain.ReportRequest
	payload  map[string]any
	err      error
}

func (f *fakeReports) GetReport(_ context.Context, req *domain.ReportRequest) (map[string]any, error) {
	f.requests = append(f.requests, req)
	return f.payload, f.err
}

type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, _ map[string]any, mimetype string) ([]byte, string, error) {
	return []byte("image-bytes"), mimetype, nil
}

type fakeSender struct {
	sent []struct {
		schedule    *Schedule
		attachments []Attachment
	}
	err error
}

func (f *fakeSender) Send(_ context.Context, s *Schedule, attachments []Attachment) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, struct {
		schedule    *Schedule
		attachments []Attachment
	}{s, attachments})
	return nil
}

type fakeLocker struct {
	denied map[string]bool
}

func (f *fakeLocker) Acquire(_ context.Context, scheduleID string) (string, bool, error) {
	if f.denied[scheduleID] {
		return "", false, nil
	}
	return "token", true, nil
}

func (f *fakeLocker) Release(context.Context, string, string) error { return nil }

func newTestRunner(store *fakeStore, reports *fakeReports, sender *fakeSender, locker *fakeLocker) *Runner {
	return NewRunner(store, reports, fakeRenderer{}, sender, locker,
		time.UTC, time.Minute, logger.NewNop())
}

func TestRunOnceSendsDueSchedules(t *testing.T) {
	store := &fakeStore{
		schedules: []*Schedule{
			{ID: "s1", Name: "Daily digest", Hour: 10, Day: -1,
				SavedReportID: "r1", MimeType: render.MimePNG},
			{ID: "s2", Name: "Off hour", Hour: 15, Day: -1,
				SavedReportID: "r1", MimeType: render.MimePNG},
		},
		saved: map[string]*SavedReport{
			"r1": {ID: "r1", ReportType: "content_publishing", Params: &domain.ReportParams{}},
		},
	}
	reports := &fakeReports{payload: map[string]any{
		"highcharts": []map[string]any{{"id": "chart"}},
	}}
	sender := &fakeSender{}

	runner := newTestRunner(store, reports, sender, &fakeLocker{})
	now := time.Date(2018, 6, 30, 10, 30, 0, 0, time.UTC)
	runner.RunOnce(context.Background(), now)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "s1", sender.sent[0].schedule.ID)

	require.Len(t, sender.sent[0].attachments, 1)
	attachment := sender.sent[0].attachments[0]
	assert.Equal(t, "chart_1.png", attachment.Filename)
	assert.Equal(t, render.MimePNG, attachment.MimeType)
	assert.Equal(t, []byte("image-bytes"), attachment.Data)

	require.Len(t, reports.requests, 1)
	assert.Equal(t, domain.ReturnHighcharts, reports.requests[0].ReturnType)

	assert.Equal(t, now.UTC(), store.sent["s1"])
	_, sentS2 := store.sent["s2"]
	assert.False(t, sentS2)
}

func TestRunOnceCSVAttachment(t *testing.T) {
	store := &fakeStore{
		schedules: []*Schedule{
			{ID: "s1", Hour: -1, Day: -1, SavedReportID: "r1", MimeType: render.MimeCSV},
		},
		saved: map[string]*SavedReport{
			"r1": {ID: "r1", ReportType: "content_publishing", Params: &domain.ReportParams{}},
		},
	}
	reports := &fakeReports{payload: map[string]any{"csv": "a,b\r\n1,2\r\n"}}
	sender := &fakeSender{}

	runner := newTestRunner(store, reports, sender, &fakeLocker{})
	runner.RunOnce(context.Background(), time.Date(2018, 6, 30, 8, 0, 0, 0, time.UTC))

	require.Len(t, sender.sent, 1)
	require.Len(t, sender.sent[0].attachments, 1)
	attachment := sender.sent[0].attachments[0]
	assert.Equal(t, "chart_1.csv", attachment.Filename)
	assert.Equal(t, "a,b\r\n1,2\r\n", string(attachment.Data))

	assert.Equal(t, domain.ReturnCSV, reports.requests[0].ReturnType)
}

func TestRunOnceSkipsLockedSchedule(t *testing.T) {
	store := &fakeStore{
		schedules: []*Schedule{
			{ID: "s1", Hour: -1, Day: -1, SavedReportID: "r1", MimeType: render.MimeCSV},
		},
		saved: map[string]*SavedReport{
			"r1": {ID: "r1", ReportType: "content_publishing", Params: &domain.ReportParams{}},
		},
	}
	sender := &fakeSender{}
	locker := &fakeLocker{denied: map[string]bool{"s1": true}}

	runner := newTestRunner(store, &fakeReports{payload: map[string]any{"csv": ""}}, sender, locker)
	runner.RunOnce(context.Background(), time.Date(2018, 6, 30, 8, 0, 0, 0, time.UTC))

	assert.Empty(t, sender.sent)
	assert.Empty(t, store.sent)
}

// One failing schedule must not abort the rest of the run.
func TestRunOnceIsolatesFailures(t *testing.T) {
	store := &fakeStore{
		schedules: []*Schedule{
			{ID: "s1", Hour: -1, Day: -1, SavedReportID: "missing", MimeType: render.MimeCSV},
			{ID: "s2", Hour: -1, Day: -1, SavedReportID: "r1", MimeType: render.MimeCSV},
		},
		saved: map[string]*SavedReport{
			"r1": {ID: "r1", ReportType: "content_publishing", Params: &domain.ReportParams{}},
		},
	}
	sender := &fakeSender{}

	runner := newTestRunner(store, &fakeReports{payload: map[string]any{"csv": "x"}}, sender, &fakeLocker{})
	runner.RunOnce(context.Background(), time.Date(2018, 6, 30, 8, 0, 0, 0, time.UTC))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "s2", sender.sent[0].schedule.ID)
}

func TestReturnTypeFor(t *testing.T) {
	assert.Equal(t, domain.ReturnHighcharts, returnTypeFor(render.MimePNG))
	assert.Equal(t, domain.ReturnHighcharts, returnTypeFor(render.MimePDF))
	assert.Equal(t, domain.ReturnCSV, returnTypeFor(render.MimeCSV))
	assert.Equal(t, domain.ReturnAggregations, returnTypeFor(render.MimeHTML))
}

type fakeRedis struct {
	setNXResult bool
	setNXErr    error
	evalResult  int64
	key         string
	value       any
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	f.key = key
	f.value = value
	if f.setNXErr != nil {
		cmd := redis.NewBoolCmd(ctx)
		cmd.SetErr(f.setNXErr)
		return cmd
	}
	return redis.NewBoolResult(f.setNXResult, nil)
}

func (f *fakeRedis) Eval(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	f.key = keys[0]
	if len(args) > 0 {
		f.value = args[0]
	}
	return redis.NewCmdResult(f.evalResult, nil)
}

func TestLockAcquireRelease(t *testing.T) {
	client := &fakeRedis{setNXResult: true, evalResult: 1}
	lock := NewLock(client, time.Minute)

	token, ok, err := lock.Acquire(context.Background(), "sched1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)
	assert.Equal(t, "scheduled_reports:sched1", client.key)
	assert.Equal(t, token, client.value)

	require.NoError(t, lock.Release(context.Background(), "sched1", token))
}

func TestLockAcquireContested(t *testing.T) {
	lock := NewLock(&fakeRedis{setNXResult: false}, time.Minute)

	_, ok, err := lock.Acquire(context.Background(), "sched1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLockAcquireError(t *testing.T) {
	lock := NewLock(&fakeRedis{setNXErr: errors.New("connection refused")}, time.Minute)

	_, _, err := lock.Acquire(context.Background(), "sched1")
	require.Error(t, err)
}
