package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/metrics"
	"github.com/MrSnakeDoc/rollcall/internal/service"
)

// OrphanSweeper finds schedule rows left behind by deleted students.
// It only reports them unless prune is set.
type OrphanSweeper struct {
	roster   *service.Roster
	status   *Status
	metrics  *metrics.Metrics
	logger   logger.Logger
	interval time.Duration
	prune    bool
	stopCh   chan struct{}
}

// NewOrphanSweeper creates a new orphan sweeper
func NewOrphanSweeper(
	r *service.Roster,
	status *Status,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
	prune bool,
) *OrphanSweeper {
	return &OrphanSweeper{
		roster:   r,
		status:   status,
		metrics:  m,
		logger:   log.Named("orphan_sweeper"),
		interval: interval,
		prune:    prune,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (sw *OrphanSweeper) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := sw.Sweep(ctx); err != nil {
		sw.logger.Warn("initial orphan sweep failed", logger.Error(err))
	}

	ticker := time.NewTicker(sw.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := sw.Sweep(ctx); err != nil {
					sw.logger.Error("orphan sweep failed", logger.Error(err))
				}
			case <-sw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (sw *OrphanSweeper) Stop() {
	close(sw.stopCh)
}

// Sweep counts orphaned schedule rows and prunes them when enabled.
// It returns the number of orphans found.
func (sw *OrphanSweeper) Sweep(ctx context.Context) (int, error) {
	orphans, err := sw.roster.Orphans(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	if sw.prune && len(orphans) > 0 {
		if err := sw.roster.PruneOrphans(ctx, orphans); err != nil {
			return len(orphans), err
		}
		pruned = len(orphans)
	}

	remaining := len(orphans) - pruned
	sw.status.recordSweep(time.Now(), len(orphans), pruned)
	sw.metrics.OrphanedSchedules.Set(float64(remaining))

	if len(orphans) > 0 {
		rollNos := make([]string, 0, len(orphans))
		for _, o := range orphans {
			rollNos = append(rollNos, o.RollNo)
		}
		sw.logger.Info("orphaned schedule rows found",
			logger.Int("count", len(orphans)),
			logger.Int("pruned", pruned),
			logger.Strings("roll_nos", rollNos))
	} else {
		sw.logger.Debug("no orphaned schedule rows")
	}

	return len(orphans), nil
}
