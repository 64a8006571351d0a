package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/metrics"
	"github.com/MrSnakeDoc/rollcall/internal/service"
	"github.com/MrSnakeDoc/rollcall/internal/sources/roster"
)

// ScheduleReloader periodically re-imports the schedule file
type ScheduleReloader struct {
	loader        *roster.Loader
	roster        *service.Roster
	status        *Status
	metrics       *metrics.Metrics
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewScheduleReloader creates a new schedule reloader
func NewScheduleReloader(
	scheduleFile string,
	r *service.Roster,
	status *Status,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *ScheduleReloader {
	return &ScheduleReloader{
		loader:        roster.NewLoader(scheduleFile),
		roster:        r,
		status:        status,
		metrics:       m,
		logger:        log.Named("schedule_reloader"),
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic reload process
func (sr *ScheduleReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := sr.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to reload schedule", logger.Error(err))
				}
			case <-sr.manualTrigger:
				sr.logger.Info("manual reload triggered")
				if err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to reload schedule", logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (sr *ScheduleReloader) Stop() {
	close(sr.stopCh)
}

// Reload reads the schedule file and replaces the stored schedule in one step.
// Rows the file could not map are logged and skipped. A failed read, a sheet
// without a roll number column, or a sheet whose rows were all skipped leaves
// the stored schedule untouched.
func (sr *ScheduleReloader) Reload(ctx context.Context) error {
	sr.logger.Info("reloading schedule", logger.String("file", sr.loader.Path()))

	items, rowErrs, err := sr.loader.Load()
	if err != nil {
		sr.fail(err)
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	for _, re := range rowErrs {
		sr.logger.Warn("skipped schedule row",
			logger.Int("row", re.Row),
			logger.String("reason", re.Error))
	}

	if err := sr.roster.SaveSchedule(ctx, items); err != nil {
		sr.fail(err)
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	now := time.Now()
	sr.status.recordReload(now, len(items), len(rowErrs), nil)
	sr.metrics.ScheduleLastReload.Set(float64(now.Unix()))
	sr.metrics.ScheduleReloads.WithLabelValues("ok").Inc()

	sr.logger.Info("schedule reloaded",
		logger.Int("rows", len(items)),
		logger.Int("skipped", len(rowErrs)),
		logger.Time("at", now))
	return nil
}

func (sr *ScheduleReloader) fail(err error) {
	sr.status.recordReload(time.Now(), 0, 0, err)
	sr.metrics.ScheduleReloads.WithLabelValues("error").Inc()
}
