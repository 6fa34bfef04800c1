// internal/reconcile/scheduler.go
package reconcile

import (
	"context"
	"fmt"
	"time"

	"directory-engine/internal/common/logger"
	"directory-engine/internal/common/observability"
	"directory-engine/internal/geo"

	"github.com/robfig/cron/v3"
)

// Scheduler runs reconciliation passes on a cron spec.
type Scheduler struct {
	cron       *cron.Cron
	reconciler *Reconciler
	geoIndex   *geo.Index
	obs        *observability.Observability
	spec       string
	log        logger.Logger
}

func NewScheduler(reconciler *Reconciler, geoIndex *geo.Index, obs *observability.Observability, spec string, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cron.DefaultLogger)),
		reconciler: reconciler,
		geoIndex:   geoIndex,
		obs:        obs,
		spec:       spec,
		log:        log,
	}
}

// Start registers the job and starts the scheduler. One pass runs
// immediately so a fresh deployment repairs drift without waiting for
// the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runPass(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("reconciliation scheduler started", map[string]interface{}{
		"spec": s.spec,
	})

	go s.runPass(ctx)
	return nil
}

// Stop shuts the scheduler down. A pass already in flight finishes.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("reconciliation scheduler stopped", nil)
}

func (s *Scheduler) runPass(ctx context.Context) {
	started := time.Now()
	report, err := s.reconciler.Run(ctx)
	if err != nil {
		s.obs.RecordPass(ctx, "error")
		s.log.WithError(err).Error("reconciliation pass failed", nil)
		return
	}
	status := "ok"
	if len(report.Errors) > 0 {
		status = "partial"
	}
	s.obs.RecordPass(ctx, status)
	s.obs.RecordPassDuration(ctx, time.Since(started), status)
	s.log.Info("reconciliation pass report", map[string]interface{}{
		"category_checked": report.CategoryEntriesChecked,
		"category_pruned":  report.CategoryEntriesPruned,
		"zip_checked":      report.ZipEntriesChecked,
		"zip_pruned":       report.ZipEntriesPruned,
		"roster_pruned":    report.RosterEntriesPruned,
	})

	if err := s.reconciler.VerifyZipMetadata(ctx, s.geoIndex); err != nil {
		s.log.WithError(err).Warn("zip metadata verification failed", nil)
	}
}
