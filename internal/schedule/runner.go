package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/logger"
	"github.com/newsroom-cloud/analytics/internal/render"
)

// SavedReport is a stored report definition a schedule points at.
type SavedReport struct {
	ID         string               `json:"_id"`
	Name       string               `json:"name"`
	ReportType string               `json:"report"`
	Params     *domain.ReportParams `json:"params"`
}

// Store persists schedules and saved reports.
type Store interface {
	ActiveSchedules(ctx context.Context) ([]*Schedule, error)
	SavedReport(ctx context.Context, id string) (*SavedReport, error)
	MarkSent(ctx context.Context, scheduleID string, sentAt time.Time) error
}

// Reports generates report payloads.
type Reports interface {
	GetReport(ctx context.Context, req *domain.ReportRequest) (map[string]any, error)
}

// ImageRenderer renders chart options to image bytes.
type ImageRenderer interface {
	Render(ctx context.Context, options map[string]any, mimetype string) ([]byte, string, error)
}

// Attachment is one generated file attached to a delivery.
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// Sender delivers one scheduled report to its recipients.
type Sender interface {
	Send(ctx context.Context, s *Schedule, attachments []Attachment) error
}

// Locker serializes delivery of one schedule across runner replicas.
type Locker interface {
	Acquire(ctx context.Context, scheduleID string) (token string, ok bool, err error)
	Release(ctx context.Context, scheduleID, token string) error
}

// Runner polls active schedules and sends the due ones.
type Runner struct {
	store    Store
	reports  Reports
	renderer ImageRenderer
	sender   Sender
	locker   Locker
	location *time.Location
	interval time.Duration
	log      logger.Logger

	now func() time.Time
}

// NewRunner creates a schedule runner. The location is the timezone
// schedule hours are evaluated in.
func NewRunner(
	store Store,
	reports Reports,
	renderer ImageRenderer,
	sender Sender,
	locker Locker,
	location *time.Location,
	interval time.Duration,
	log logger.Logger,
) *Runner {
	if location == nil {
		location = time.UTC
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{
		store:    store,
		reports:  reports,
		renderer: renderer,
		sender:   sender,
		locker:   locker,
		location: location,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Run polls until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx, r.now())
		}
	}
}

// RunOnce evaluates every active schedule against the given instant and
// sends the due ones. A failing schedule is logged and skipped so the
// remaining schedules still run.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) {
	schedules, err := r.store.ActiveSchedules(ctx)
	if err != nil {
		r.log.Error("failed to load schedules", logger.Error(err))
		return
	}

	r.log.Info("sending scheduled reports",
		logger.String("now", now.UTC().Format(time.RFC3339)),
		logger.Int("schedules", len(schedules)))

	for _, s := range schedules {
		if !ShouldSend(s, now, r.location) {
			continue
		}
		if err := r.sendOne(ctx, s, now); err != nil {
			r.log.Error("failed to send scheduled report",
				logger.String("schedule_id", s.ID),
				logger.String("schedule_name", s.Name),
				logger.Error(err))
		}
	}
}

// sendOne builds and delivers one schedule under its lock.
func (r *Runner) sendOne(ctx context.Context, s *Schedule, now time.Time) error {
	token, ok, err := r.locker.Acquire(ctx, s.ID)
	if err != nil {
		return err
	}
	if !ok {
		r.log.Debug("schedule locked by another runner", logger.String("schedule_id", s.ID))
		return nil
	}
	defer func() {
		if err := r.locker.Release(ctx, s.ID, token); err != nil {
			r.log.Warn("failed to release schedule lock", logger.Error(err))
		}
	}()

	attachments, err := r.buildAttachments(ctx, s)
	if err != nil {
		return err
	}

	if err := r.sender.Send(ctx, s, attachments); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	if err := r.store.MarkSent(ctx, s.ID, now.UTC()); err != nil {
		return fmt.Errorf("update last sent: %w", err)
	}

	return nil
}

// buildAttachments generates the scheduled report and renders it into the
// schedule's mime type. Image types go through the chart export server,
// CSV is attached directly, and any other type sends the email without
// attachments.
func (r *Runner) buildAttachments(ctx context.Context, s *Schedule) ([]Attachment, error) {
	saved, err := r.store.SavedReport(ctx, s.SavedReportID)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, domain.NotFound("saved report %s not found", s.SavedReportID)
	}

	returnType := returnTypeFor(s.MimeType)
	payload, err := r.reports.GetReport(ctx, &domain.ReportRequest{
		ReportType: saved.ReportType,
		ReturnType: returnType,
		Params:     saved.Params,
	})
	if err != nil {
		return nil, err
	}

	extension, err := render.Extension(s.MimeType)
	if err != nil {
		return nil, err
	}

	var attachments []Attachment
	switch returnType {
	case domain.ReturnHighcharts:
		configs, _ := payload["highcharts"].([]map[string]any)
		for i, options := range configs {
			data, mimetype, err := r.renderer.Render(ctx, options, s.MimeType)
			if err != nil {
				return nil, err
			}
			attachments = append(attachments, Attachment{
				Filename: fmt.Sprintf("chart_%d.%s", i+1, extension),
				MimeType: mimetype,
				Data:     data,
			})
		}
	case domain.ReturnCSV:
		csv, _ := payload["csv"].(string)
		attachments = append(attachments, Attachment{
			Filename: fmt.Sprintf("chart_1.%s", extension),
			MimeType: render.MimeCSV,
			Data:     []byte(csv),
		})
	}

	return attachments, nil
}

// returnTypeFor maps the delivery mime type to the report return type that
// produces it.
func returnTypeFor(mimetype string) domain.ReturnType {
	switch mimetype {
	case render.MimePNG, render.MimeJPEG, render.MimeGIF, render.MimePDF, render.MimeSVG:
		return domain.ReturnHighcharts
	case render.MimeCSV:
		return domain.ReturnCSV
	}
	return domain.ReturnAggregations
}
