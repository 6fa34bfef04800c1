// internal/projection/builder.go

// Package projection builds the denormalized business cards served on
// directory pages, combining the registration record, ad design
// overrides, category selections, and the service area.
package projection

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"directory-engine/internal/category"
	apperrors "directory-engine/internal/common/errors"
	"directory-engine/internal/common/logger"
	"directory-engine/internal/common/metrics"
	"directory-engine/internal/models"
	"directory-engine/internal/servicearea"
	"directory-engine/internal/store"
)

// Query selects the businesses to project. Exactly one of PagePath,
// Category, or SubcategoryPath drives candidate resolution; ZipFilter
// optionally narrows results to businesses serving that ZIP.
type Query struct {
	PagePath        string
	Category        string
	SubcategoryPath string
	ZipFilter       string
}

// Builder assembles projections with a bounded concurrent fan-out.
type Builder struct {
	store       *store.Store
	categories  *category.Index
	matcher     *category.Matcher
	areas       *servicearea.Resolver
	log         logger.Logger
	concurrency int
}

func NewBuilder(st *store.Store, catIdx *category.Index, matcher *category.Matcher, areas *servicearea.Resolver, log logger.Logger, concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Builder{
		store:       st,
		categories:  catIdx,
		matcher:     matcher,
		areas:       areas,
		log:         log,
		concurrency: concurrency,
	}
}

// Build resolves the candidates for a query and projects each one.
// Unreadable, deleted, and blocked businesses are dropped silently.
// Results come back newest registration first.
func (b *Builder) Build(ctx context.Context, q Query) ([]models.BusinessProjection, error) {
	started := time.Now()
	source := q.querySource()
	defer func() {
		metrics.ProjectionBuildDuration.WithLabelValues(source).Observe(time.Since(started).Seconds())
	}()

	ids, err := b.ResolveCandidates(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	blocked, err := b.store.SetMembers(ctx, store.BlockedBusinessesKey)
	if err != nil {
		return nil, err
	}
	blockedSet := make(map[string]struct{}, len(blocked))
	for _, id := range blocked {
		blockedSet[id] = struct{}{}
	}

	type slot struct {
		proj models.BusinessProjection
		ok   bool
	}
	slots := make([]slot, len(ids))

	var wg sync.WaitGroup
	sem := make(chan struct{}, b.concurrency)
	for i, id := range ids {
		if _, isBlocked := blockedSet[id]; isBlocked {
			metrics.ProjectionBusinessesBuilt.WithLabelValues("blocked").Inc()
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			proj, ok := b.buildOne(ctx, id, q.ZipFilter)
			slots[i] = slot{proj: proj, ok: ok}
		}(i, id)
	}
	wg.Wait()

	projections := make([]models.BusinessProjection, 0, len(ids))
	for _, s := range slots {
		if s.ok {
			projections = append(projections, s.proj)
		}
	}

	// Newest registrations first. CreatedAt is an RFC 3339 string, so
	// string comparison orders correctly; ID breaks ties.
	sort.Slice(projections, func(i, j int) bool {
		if projections[i].CreatedAt != projections[j].CreatedAt {
			return projections[i].CreatedAt > projections[j].CreatedAt
		}
		return projections[i].ID < projections[j].ID
	})
	return projections, nil
}

func (q Query) querySource() string {
	switch {
	case q.PagePath != "":
		return "page"
	case q.SubcategoryPath != "":
		return "subcategory"
	default:
		return "category"
	}
}

// ResolveCandidates returns the deduplicated business IDs matching the
// query. Page paths resolve to a category name first; categories read
// the inverted index directly; subcategory paths scan the per-business
// path documents with tolerant matching.
func (b *Builder) ResolveCandidates(ctx context.Context, q Query) ([]string, error) {
	switch {
	case q.PagePath != "":
		name := category.CategoryForPagePath(q.PagePath)
		if name == "" {
			return nil, nil
		}
		return b.categories.BusinessesForCategory(ctx, name)
	case q.Category != "":
		return b.categories.BusinessesForCategory(ctx, q.Category)
	case q.SubcategoryPath != "":
		return b.resolveBySubcategoryPath(ctx, q.SubcategoryPath)
	default:
		return nil, apperrors.NewInvalidInputError("query selects nothing")
	}
}

func (b *Builder) resolveBySubcategoryPath(ctx context.Context, path string) ([]string, error) {
	keys, err := b.store.Keys(ctx, store.BusinessPrefix+"*:allSubcategories")
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, key := range keys {
		id := strings.TrimSuffix(strings.TrimPrefix(key, store.BusinessPrefix), ":allSubcategories")
		paths, err := b.categories.AllSubcategoryPaths(ctx, id)
		if err != nil {
			b.log.WithError(err).Debug("skipping unreadable subcategory document", map[string]interface{}{
				"business_id": id,
			})
			continue
		}
		if b.matcher.MatchesAny(paths, path) {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	// Businesses whose path documents are missing can still match via
	// their full selection objects.
	selectionKeys, err := b.store.Keys(ctx, store.BusinessPrefix+"*:categories")
	if err != nil {
		return nil, err
	}
	for _, key := range selectionKeys {
		id := strings.TrimSuffix(strings.TrimPrefix(key, store.BusinessPrefix), ":categories")
		if _, dup := seen[id]; dup {
			continue
		}
		selections, err := b.categories.Selections(ctx, id)
		if err != nil {
			continue
		}
		for _, sel := range selections {
			if sel.FullPath != "" && b.matcher.Matches(sel.FullPath, path) {
				seen[id] = struct{}{}
				ids = append(ids, id)
				break
			}
		}
	}

	sort.Strings(ids)
	return ids, nil
}

// buildOne projects a single business. A false return means the
// business should not appear: deleted, unreadable, or outside the ZIP
// filter.
func (b *Builder) buildOne(ctx context.Context, businessID, zipFilter string) (models.BusinessProjection, bool) {
	deleted, err := b.store.Exists(ctx, store.BusinessDeletedKey(businessID))
	if err == nil && deleted {
		metrics.ProjectionBusinessesBuilt.WithLabelValues("deleted").Inc()
		return models.BusinessProjection{}, false
	}

	var biz models.Business
	if err := b.store.GetJSON(ctx, store.BusinessKey(businessID), &biz); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			b.log.WithError(err).Warn("failed to load business record", map[string]interface{}{
				"business_id": businessID,
			})
		}
		metrics.ProjectionBusinessesBuilt.WithLabelValues("unreadable").Inc()
		return models.BusinessProjection{}, false
	}
	biz.ID = businessID

	adDesign := b.loadAdDesign(ctx, businessID)

	if zipFilter != "" {
		area, err := b.areas.Load(ctx, businessID)
		if err != nil || !area.ServesZip(zipFilter) {
			// Fall back to the registration ZIP before dropping the
			// business entirely.
			if biz.ZipCode != zipFilter {
				metrics.ProjectionBusinessesBuilt.WithLabelValues("out_of_area").Inc()
				return models.BusinessProjection{}, false
			}
		}
	}

	subcategories, err := b.categories.AllSubcategoryPaths(ctx, businessID)
	if err != nil {
		subcategories = nil
	}

	proj := models.BusinessProjection{
		ID:            businessID,
		ZipCode:       biz.ZipCode,
		Email:         biz.Email,
		Subcategories: subcategories,
		IsNationwide:  biz.IsNationwide,
		CreatedAt:     biz.CreatedAt,
		AdDesign:      adDesign,
	}

	var info *models.AdDesignBusinessInfo
	if adDesign != nil {
		info = adDesign.BusinessInfo
	}
	proj.DisplayName = firstNonEmpty(infoName(info), biz.BusinessName, "Unnamed Business")
	proj.DisplayCity = firstNonEmpty(infoCity(info), biz.City)
	proj.DisplayState = firstNonEmpty(infoState(info), biz.State)
	proj.DisplayPhone = firstNonEmpty(infoPhone(info), biz.Phone)
	if proj.ZipCode == "" && info != nil {
		proj.ZipCode = info.ZipCode
	}
	proj.DisplayLocation = displayLocation(proj.DisplayCity, proj.DisplayState, proj.ZipCode)

	metrics.ProjectionBusinessesBuilt.WithLabelValues("ok").Inc()
	return proj, true
}

func (b *Builder) loadAdDesign(ctx context.Context, businessID string) *models.AdDesignData {
	val, err := b.store.SafeGet(ctx, store.BusinessAdDesignInfoKey(businessID))
	if err == nil && val.Kind == store.KindString {
		var info models.AdDesignBusinessInfo
		if err := json.Unmarshal([]byte(val.Raw), &info); err == nil {
			return &models.AdDesignData{BusinessInfo: &info}
		}
	}

	val, err = b.store.SafeGet(ctx, store.BusinessAdDesignKey(businessID))
	if err == nil && val.Kind == store.KindString {
		var design models.AdDesignData
		if err := json.Unmarshal([]byte(val.Raw), &design); err == nil && design.BusinessInfo != nil {
			return &design
		}
	}
	return nil
}

func displayLocation(city, state, zip string) string {
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	case state != "":
		return state
	default:
		return "Zip: " + zip
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func infoName(info *models.AdDesignBusinessInfo) string {
	if info == nil {
		return ""
	}
	return info.BusinessName
}

func infoCity(info *models.AdDesignBusinessInfo) string {
	if info == nil {
		return ""
	}
	return info.City
}

func infoState(info *models.AdDesignBusinessInfo) string {
	if info == nil {
		return ""
	}
	return info.State
}

func infoPhone(info *models.AdDesignBusinessInfo) string {
	if info == nil {
		return ""
	}
	return info.Phone
}
