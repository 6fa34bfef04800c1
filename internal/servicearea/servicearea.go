// internal/servicearea/servicearea.go

// Package servicearea resolves which ZIP codes a business serves.
// A service area is either nationwide or an explicit ZIP set, and the
// stored forms vary: a JSON array of entries, a JSON array of bare
// strings, or a legacy set of ZIP strings under a separate key.
package servicearea

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	apperrors "directory-engine/internal/common/errors"
	"directory-engine/internal/common/logger"
	"directory-engine/internal/geo"
	"directory-engine/internal/store"
)

// ZipEntry is one stored service-area member. Older records are bare
// strings, newer ones carry coordinates alongside the ZIP.
type ZipEntry struct {
	Zip       string  `json:"zip"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// UnmarshalJSON accepts both the bare-string and the object form.
func (e *ZipEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Zip = s
		return nil
	}
	type entryAlias ZipEntry
	var alias entryAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*e = ZipEntry(alias)
	return nil
}

// ServiceArea is a business's resolved coverage.
type ServiceArea struct {
	BusinessID   string   `json:"businessId"`
	IsNationwide bool     `json:"isNationwide"`
	ZipCodes     []string `json:"zipCodes"`
}

// ServesZip reports whether the area covers zip. Nationwide areas cover
// everything. An area with no ZIP entries fails open and reports true,
// so a business with a half-written service area still shows up rather
// than silently disappearing from its pages.
func (sa ServiceArea) ServesZip(zip string) bool {
	if sa.IsNationwide {
		return true
	}
	if len(sa.ZipCodes) == 0 {
		return true
	}
	for _, z := range sa.ZipCodes {
		if z == zip {
			return true
		}
	}
	return false
}

// Resolver loads and saves service areas.
type Resolver struct {
	store *store.Store
	log   logger.Logger
}

func NewResolver(st *store.Store, log logger.Logger) *Resolver {
	return &Resolver{store: st, log: log}
}

// parseNationwideFlag treats "true", "1", and non-empty JSON true as
// nationwide. Anything unreadable counts as not nationwide.
func parseNationwideFlag(val store.Value) bool {
	if val.Kind != store.KindString {
		return false
	}
	raw := strings.TrimSpace(val.Raw)
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return false
}

// Load resolves the stored service area for a business. It reads the
// nationwide flag, then the JSON ZIP document, then the legacy set as a
// fallback. Every step degrades instead of failing: missing or
// malformed pieces leave their portion empty.
func (r *Resolver) Load(ctx context.Context, businessID string) (ServiceArea, error) {
	area := ServiceArea{BusinessID: businessID}

	flagVal, err := r.store.SafeGet(ctx, store.BusinessNationwideKey(businessID))
	if err != nil {
		r.log.WithError(err).Warn("failed to read nationwide flag", map[string]interface{}{
			"business_id": businessID,
		})
	} else {
		area.IsNationwide = parseNationwideFlag(flagVal)
	}

	entries := r.loadZipEntries(ctx, businessID)
	if len(entries) == 0 {
		entries = r.loadLegacySet(ctx, businessID)
	}

	for _, e := range entries {
		if e.Zip != "" {
			area.ZipCodes = append(area.ZipCodes, e.Zip)
		}
	}
	return area, nil
}

func (r *Resolver) loadZipEntries(ctx context.Context, businessID string) []ZipEntry {
	val, err := r.store.SafeGet(ctx, store.BusinessZipCodesKey(businessID))
	if err != nil {
		r.log.WithError(err).Warn("failed to read zip codes document", map[string]interface{}{
			"business_id": businessID,
		})
		return nil
	}

	switch val.Kind {
	case store.KindString:
		var entries []ZipEntry
		if err := json.Unmarshal([]byte(val.Raw), &entries); err != nil {
			r.log.WithError(err).Warn("zip codes document is not valid JSON", map[string]interface{}{
				"business_id": businessID,
			})
			return nil
		}
		return entries
	case store.KindSet, store.KindList:
		entries := make([]ZipEntry, 0, len(val.Members))
		for _, m := range val.Members {
			entries = append(entries, ZipEntry{Zip: m})
		}
		return entries
	default:
		return nil
	}
}

func (r *Resolver) loadLegacySet(ctx context.Context, businessID string) []ZipEntry {
	members, err := r.store.SetMembers(ctx, store.BusinessZipCodesSetKey(businessID))
	if err != nil {
		r.log.WithError(err).Warn("failed to read legacy zip codes set", map[string]interface{}{
			"business_id": businessID,
		})
		return nil
	}
	entries := make([]ZipEntry, 0, len(members))
	for _, m := range members {
		entries = append(entries, ZipEntry{Zip: m})
	}
	return entries
}

// Save replaces the stored service area for a business. The JSON
// document and the legacy set are both rewritten so every reader sees
// the same coverage.
func (r *Resolver) Save(ctx context.Context, businessID string, nationwide bool, entries []ZipEntry) error {
	if err := r.store.SetString(ctx, store.BusinessNationwideKey(businessID), strconv.FormatBool(nationwide)); err != nil {
		return err
	}

	if err := r.store.SetJSON(ctx, store.BusinessZipCodesKey(businessID), entries); err != nil {
		return err
	}

	setKey := store.BusinessZipCodesSetKey(businessID)
	if err := r.store.Delete(ctx, setKey); err != nil {
		return err
	}
	zips := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Zip != "" {
			zips = append(zips, e.Zip)
		}
	}
	if len(zips) > 0 {
		if err := r.store.AddToSet(ctx, setKey, zips...); err != nil {
			return err
		}
	}
	return nil
}

// BuildFromRadius expands a center ZIP and radius into service-area
// entries using the geo index.
func (r *Resolver) BuildFromRadius(ctx context.Context, geoIndex *geo.Index, centralZip string, radiusMiles float64, limit int) ([]ZipEntry, error) {
	records, err := geoIndex.FindWithinRadius(ctx, centralZip, radiusMiles, limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewRecordNotFoundError("central zip", centralZip)
		}
		return nil, err
	}
	entries := make([]ZipEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, ZipEntry{
			Zip:       rec.Zip,
			City:      rec.City,
			State:     rec.State,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
		})
	}
	return entries, nil
}
