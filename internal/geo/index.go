// internal/geo/index.go
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	apperrors "directory-engine/internal/common/errors"
	"directory-engine/internal/common/logger"
	"directory-engine/internal/common/metrics"
	"directory-engine/internal/store"
)

// Metadata summarizes the state of the ZIP database.
type Metadata struct {
	Count       int    `json:"count"`
	LastUpdated string `json:"lastUpdated"`
}

// ImportStats reports the outcome of a bulk import.
type ImportStats struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// SearchParams selects ZIP records by state, city, or radius.
// Radius takes precedence over state and city when set.
type SearchParams struct {
	State  string
	City   string
	Radius *RadiusParams
	Limit  int
}

// RadiusParams is a radius search centered on a ZIP code.
type RadiusParams struct {
	Zip   string
	Miles float64
}

// Index owns the ZIP keyspace.
type Index struct {
	store     *store.Store
	log       logger.Logger
	batchSize int
}

func NewIndex(st *store.Store, log logger.Logger, batchSize int) *Index {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Index{store: st, log: log, batchSize: batchSize}
}

// Save writes one ZIP record and registers it in the state and city
// membership indexes.
func (idx *Index) Save(ctx context.Context, rec ZipRecord) error {
	if rec.Zip == "" {
		return apperrors.NewInvalidInputError("zip record has no zip code")
	}
	if err := idx.store.SetJSON(ctx, store.ZipKey(rec.Zip), rec); err != nil {
		return err
	}
	if rec.State != "" {
		if err := idx.store.AddToSet(ctx, store.ZipStateIndexKey(rec.State), rec.Zip); err != nil {
			return err
		}
	}
	if rec.City != "" && rec.State != "" {
		if err := idx.store.AddToSet(ctx, store.ZipCityIndexKey(rec.City, rec.State), rec.Zip); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the record for one ZIP code.
func (idx *Index) Get(ctx context.Context, zip string) (ZipRecord, error) {
	var rec ZipRecord
	if err := idx.store.GetJSON(ctx, store.ZipKey(zip), &rec); err != nil {
		return ZipRecord{}, err
	}
	return rec, nil
}

// Import writes records in batches and refreshes the database metadata.
// Records without a ZIP or with out-of-range coordinates are counted as
// skipped, store failures as errors, and the import keeps going.
func (idx *Index) Import(ctx context.Context, records []ZipRecord) (ImportStats, error) {
	stats := ImportStats{Total: len(records)}

	for start := 0; start < len(records); start += idx.batchSize {
		end := start + idx.batchSize
		if end > len(records) {
			end = len(records)
		}
		for _, rec := range records[start:end] {
			if rec.Zip == "" || !rec.HasValidCoordinates() {
				stats.Skipped++
				continue
			}
			if err := idx.Save(ctx, rec); err != nil {
				stats.Errors++
				idx.log.WithError(err).Warn("failed to import zip record", map[string]interface{}{
					"zip": rec.Zip,
				})
				continue
			}
			stats.Imported++
		}
	}

	if err := idx.updateMetadata(ctx); err != nil {
		idx.log.WithError(err).Warn("failed to update zip metadata", nil)
	}
	return stats, nil
}

// FindWithinRadius returns the records within radiusMiles of centralZip,
// nearest first, at most limit results. Records that fail to decode are
// skipped and counted, never fatal.
func (idx *Index) FindWithinRadius(ctx context.Context, centralZip string, radiusMiles float64, limit int) ([]ZipRecord, error) {
	started := time.Now()
	defer func() {
		metrics.GeoLookupDuration.WithLabelValues("radius").Observe(time.Since(started).Seconds())
	}()

	central, err := idx.Get(ctx, centralZip)
	if err != nil {
		metrics.GeoLookupsTotal.WithLabelValues("radius", "center_missing").Inc()
		return nil, err
	}

	keys, err := idx.store.Keys(ctx, store.ZipPrefix+"*")
	if err != nil {
		metrics.GeoLookupsTotal.WithLabelValues("radius", "error").Inc()
		return nil, err
	}

	var within []ZipRecord
	for _, key := range keys {
		if store.IsZipIndexKey(key) {
			continue
		}
		var rec ZipRecord
		if err := idx.store.GetJSON(ctx, key, &rec); err != nil {
			metrics.GeoCandidatesSkipped.Inc()
			if !errors.Is(err, apperrors.ErrNotFound) {
				idx.log.WithError(err).Debug("skipping unreadable zip record", map[string]interface{}{
					"key": key,
				})
			}
			continue
		}
		rec.Distance = HaversineDistance(central.Latitude, central.Longitude, rec.Latitude, rec.Longitude)
		if rec.Distance <= radiusMiles {
			within = append(within, rec)
		}
	}

	// Nearest first, ZIP as tie-break so equal distances order the same
	// on every run.
	sort.Slice(within, func(i, j int) bool {
		if within[i].Distance != within[j].Distance {
			return within[i].Distance < within[j].Distance
		}
		return within[i].Zip < within[j].Zip
	})

	if limit > 0 && len(within) > limit {
		within = within[:limit]
	}
	metrics.GeoLookupsTotal.WithLabelValues("radius", "ok").Inc()
	return within, nil
}

// Search resolves records by radius, state, or state plus city.
// A city without a state is not answerable from the indexes and
// returns no results.
func (idx *Index) Search(ctx context.Context, params SearchParams) ([]ZipRecord, error) {
	if params.Radius != nil {
		limit := params.Limit
		if limit <= 0 {
			limit = 100
		}
		return idx.FindWithinRadius(ctx, params.Radius.Zip, params.Radius.Miles, limit)
	}

	var zips []string
	switch {
	case params.State != "":
		stateZips, err := idx.store.SetMembers(ctx, store.ZipStateIndexKey(params.State))
		if err != nil {
			return nil, err
		}
		zips = stateZips
		if params.City != "" && len(zips) > 0 {
			cityZips, err := idx.store.SetMembers(ctx, store.ZipCityIndexKey(params.City, params.State))
			if err != nil {
				return nil, err
			}
			citySet := make(map[string]struct{}, len(cityZips))
			for _, z := range cityZips {
				citySet[z] = struct{}{}
			}
			filtered := zips[:0]
			for _, z := range zips {
				if _, ok := citySet[z]; ok {
					filtered = append(filtered, z)
				}
			}
			zips = filtered
		}
	case params.City != "":
		return nil, nil
	}

	sort.Strings(zips)
	if params.Limit > 0 && len(zips) > params.Limit {
		zips = zips[:params.Limit]
	}

	records := make([]ZipRecord, 0, len(zips))
	for _, zip := range zips {
		rec, err := idx.Get(ctx, zip)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Metadata returns the count and last-updated stamp for the ZIP database.
func (idx *Index) Metadata(ctx context.Context) (Metadata, error) {
	raw, err := idx.store.GetString(ctx, store.ZipMetaKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return Metadata{}, nil
		}
		return Metadata{}, err
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return Metadata{}, apperrors.NewMalformedRecordError(store.ZipMetaKey, err)
	}
	return meta, nil
}

func (idx *Index) updateMetadata(ctx context.Context) error {
	keys, err := idx.store.Keys(ctx, store.ZipPrefix+"*")
	if err != nil {
		return err
	}
	count := 0
	for _, key := range keys {
		if !store.IsZipIndexKey(key) {
			count++
		}
	}
	return idx.store.SetJSON(ctx, store.ZipMetaKey, Metadata{
		Count:       count,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	})
}
