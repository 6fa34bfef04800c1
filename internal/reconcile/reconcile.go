// internal/reconcile/reconcile.go

// Package reconcile repairs drift between forward records and the
// membership indexes derived from them. Registrations and removals are
// multi-key writes with no transaction, so a crash can leave an index
// pointing at a record that no longer exists. A reconciliation pass is
// idempotent: running it twice prunes nothing the second time.
package reconcile

import (
	"context"
	"errors"
	"time"

	apperrors "directory-engine/internal/common/errors"
	"directory-engine/internal/common/logger"
	"directory-engine/internal/common/metrics"
	"directory-engine/internal/geo"
	"directory-engine/internal/store"
)

// Report summarizes one reconciliation pass.
type Report struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	DryRun     bool      `json:"dryRun"`

	CategoryEntriesChecked int      `json:"categoryEntriesChecked"`
	CategoryEntriesPruned  int      `json:"categoryEntriesPruned"`
	ZipEntriesChecked      int      `json:"zipEntriesChecked"`
	ZipEntriesPruned       int      `json:"zipEntriesPruned"`
	RosterEntriesPruned    int      `json:"rosterEntriesPruned"`
	Errors                 []string `json:"errors,omitempty"`
}

// Reconciler walks the index keyspaces and prunes stale members.
type Reconciler struct {
	store  *store.Store
	log    logger.Logger
	dryRun bool
}

func New(st *store.Store, log logger.Logger, dryRun bool) *Reconciler {
	return &Reconciler{store: st, log: log, dryRun: dryRun}
}

// Run executes a full pass. Failures on individual keys are recorded
// and the pass keeps going; only a failure to enumerate a keyspace is
// fatal for its phase.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	metrics.ReconcileRunsActive.Inc()
	defer metrics.ReconcileRunsActive.Dec()

	report := Report{StartedAt: time.Now().UTC(), DryRun: r.dryRun}

	r.reconcileCategoryIndexes(ctx, &report)
	r.reconcileZipIndexes(ctx, &report)
	r.reconcileRoster(ctx, &report)

	report.FinishedAt = time.Now().UTC()
	r.log.Info("reconciliation pass finished", map[string]interface{}{
		"category_pruned": report.CategoryEntriesPruned,
		"zip_pruned":      report.ZipEntriesPruned,
		"roster_pruned":   report.RosterEntriesPruned,
		"errors":          len(report.Errors),
		"dry_run":         report.DryRun,
	})
	return report, nil
}

// businessAlive reports whether a business record still exists and is
// not tombstoned.
func (r *Reconciler) businessAlive(ctx context.Context, businessID string) (bool, error) {
	deleted, err := r.store.Exists(ctx, store.BusinessDeletedKey(businessID))
	if err != nil {
		return false, err
	}
	if deleted {
		return false, nil
	}
	return r.store.Exists(ctx, store.BusinessKey(businessID))
}

func (r *Reconciler) recordError(report *Report, phase string, err error) {
	metrics.ReconcileErrors.WithLabelValues(phase).Inc()
	report.Errors = append(report.Errors, phase+": "+err.Error())
	r.log.WithError(err).Warn("reconciliation step failed", map[string]interface{}{
		"phase": phase,
	})
}

func (r *Reconciler) reconcileCategoryIndexes(ctx context.Context, report *Report) {
	keys, err := r.store.Keys(ctx, store.CategoryPrefix+"*:businesses")
	if err != nil {
		r.recordError(report, "category_keys", err)
		return
	}

	for _, key := range keys {
		members, err := r.store.SetMembers(ctx, key)
		if err != nil {
			r.recordError(report, "category_members", err)
			continue
		}
		for _, id := range members {
			report.CategoryEntriesChecked++
			alive, err := r.businessAlive(ctx, id)
			if err != nil {
				r.recordError(report, "category_check", err)
				continue
			}
			if alive {
				continue
			}
			if !r.dryRun {
				if err := r.store.RemoveFromSet(ctx, key, id); err != nil {
					r.recordError(report, "category_prune", err)
					continue
				}
			}
			report.CategoryEntriesPruned++
			metrics.ReconcileEntriesPruned.WithLabelValues("category").Inc()
			r.log.Info("pruned stale category membership", map[string]interface{}{
				"key":         key,
				"business_id": id,
				"dry_run":     r.dryRun,
			})
		}
	}
}

func (r *Reconciler) reconcileZipIndexes(ctx context.Context, report *Report) {
	stateKeys, err := r.store.Keys(ctx, store.ZipIndexStatePrefix+"*")
	if err != nil {
		r.recordError(report, "zip_state_keys", err)
		return
	}
	cityKeys, err := r.store.Keys(ctx, store.ZipIndexCityPrefix+"*")
	if err != nil {
		r.recordError(report, "zip_city_keys", err)
		return
	}

	for _, key := range append(stateKeys, cityKeys...) {
		members, err := r.store.SetMembers(ctx, key)
		if err != nil {
			r.recordError(report, "zip_members", err)
			continue
		}
		for _, zip := range members {
			report.ZipEntriesChecked++
			exists, err := r.store.Exists(ctx, store.ZipKey(zip))
			if err != nil {
				r.recordError(report, "zip_check", err)
				continue
			}
			if exists {
				continue
			}
			if !r.dryRun {
				if err := r.store.RemoveFromSet(ctx, key, zip); err != nil {
					r.recordError(report, "zip_prune", err)
					continue
				}
			}
			report.ZipEntriesPruned++
			metrics.ReconcileEntriesPruned.WithLabelValues("zip").Inc()
		}
	}
}

// reconcileRoster prunes the businesses roster set and cleans up the
// per-business satellite keys left behind by deleted records.
func (r *Reconciler) reconcileRoster(ctx context.Context, report *Report) {
	members, err := r.store.SetMembers(ctx, store.BusinessesSetKey)
	if err != nil {
		r.recordError(report, "roster_members", err)
		return
	}

	for _, id := range members {
		alive, err := r.businessAlive(ctx, id)
		if err != nil {
			r.recordError(report, "roster_check", err)
			continue
		}
		if alive {
			continue
		}
		if !r.dryRun {
			if err := r.store.RemoveFromSet(ctx, store.BusinessesSetKey, id); err != nil {
				r.recordError(report, "roster_prune", err)
				continue
			}
			if err := r.store.Delete(ctx,
				store.BusinessSelectedCategoriesKey(id),
				store.BusinessCategoriesKey(id),
				store.BusinessAllSubcategoriesKey(id),
				store.BusinessNationwideKey(id),
				store.BusinessZipCodesKey(id),
				store.BusinessZipCodesSetKey(id),
			); err != nil {
				r.recordError(report, "roster_cleanup", err)
				continue
			}
		}
		report.RosterEntriesPruned++
		metrics.ReconcileEntriesPruned.WithLabelValues("roster").Inc()
	}
}

// VerifyZipMetadata recomputes the ZIP record count and rewrites the
// metadata document when it has drifted.
func (r *Reconciler) VerifyZipMetadata(ctx context.Context, geoIndex *geo.Index) error {
	meta, err := geoIndex.Metadata(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	keys, err := r.store.Keys(ctx, store.ZipPrefix+"*")
	if err != nil {
		return err
	}
	count := 0
	for _, key := range keys {
		if !store.IsZipIndexKey(key) {
			count++
		}
	}
	if meta.Count == count {
		return nil
	}
	if r.dryRun {
		r.log.Info("zip metadata drift detected", map[string]interface{}{
			"recorded": meta.Count,
			"actual":   count,
		})
		return nil
	}
	return r.store.SetJSON(ctx, store.ZipMetaKey, geo.Metadata{
		Count:       count,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	})
}
