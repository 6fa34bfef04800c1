// internal/category/index.go
package category

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	apperrors "directory-engine/internal/common/errors"
	"directory-engine/internal/common/logger"
	"directory-engine/internal/models"
	"directory-engine/internal/store"
)

// Index owns the category keyspace: the per-business selection
// documents and the inverted category:{name}:businesses sets.
type Index struct {
	store *store.Store
	log   logger.Logger
}

func NewIndex(st *store.Store, log logger.Logger) *Index {
	return &Index{store: st, log: log}
}

// SelectedCategories returns the exact category names a business
// selected. Missing or malformed documents come back empty.
func (idx *Index) SelectedCategories(ctx context.Context, businessID string) ([]string, error) {
	val, err := idx.store.SafeGet(ctx, store.BusinessSelectedCategoriesKey(businessID))
	if err != nil {
		return nil, err
	}
	switch val.Kind {
	case store.KindString:
		var names []string
		if err := json.Unmarshal([]byte(val.Raw), &names); err != nil {
			idx.log.WithError(err).Warn("selected categories document is not valid JSON", map[string]interface{}{
				"business_id": businessID,
			})
			return nil, nil
		}
		return names, nil
	case store.KindSet, store.KindList:
		return val.Members, nil
	default:
		return nil, nil
	}
}

// Selections returns the full category/subcategory pairs for a
// business, falling back to synthesizing pairs from allSubcategories
// paths when the selections document is missing.
func (idx *Index) Selections(ctx context.Context, businessID string) ([]models.CategorySelection, error) {
	val, err := idx.store.SafeGet(ctx, store.BusinessCategoriesKey(businessID))
	if err != nil {
		return nil, err
	}
	if val.Kind == store.KindString {
		var selections []models.CategorySelection
		if err := json.Unmarshal([]byte(val.Raw), &selections); err == nil && len(selections) > 0 {
			return selections, nil
		}
	}

	paths, err := idx.AllSubcategoryPaths(ctx, businessID)
	if err != nil {
		return nil, err
	}
	selections := make([]models.CategorySelection, 0, len(paths))
	for _, path := range paths {
		normalized := NormalizePath(path)
		selections = append(selections, models.CategorySelection{
			Category:    categoryOfPath(normalized),
			Subcategory: ExtractTerminalSubcategory(normalized),
			FullPath:    normalized,
		})
	}
	return selections, nil
}

func categoryOfPath(normalized string) string {
	if i := strings.Index(normalized, " > "); i >= 0 {
		return normalized[:i]
	}
	return normalized
}

// AllSubcategoryPaths returns the full subcategory paths for a
// business. The stored document may be a JSON array of strings, a JSON
// array of objects with a fullPath field, or a set.
func (idx *Index) AllSubcategoryPaths(ctx context.Context, businessID string) ([]string, error) {
	val, err := idx.store.SafeGet(ctx, store.BusinessAllSubcategoriesKey(businessID))
	if err != nil {
		return nil, err
	}
	switch val.Kind {
	case store.KindString:
		return decodeSubcategoryPaths([]byte(val.Raw)), nil
	case store.KindSet, store.KindList:
		return val.Members, nil
	default:
		return nil, nil
	}
}

func decodeSubcategoryPaths(raw []byte) []string {
	var asStrings []string
	if err := json.Unmarshal(raw, &asStrings); err == nil {
		return asStrings
	}
	var asObjects []struct {
		FullPath string `json:"fullPath"`
	}
	if err := json.Unmarshal(raw, &asObjects); err == nil {
		paths := make([]string, 0, len(asObjects))
		for _, o := range asObjects {
			if o.FullPath != "" {
				paths = append(paths, o.FullPath)
			}
		}
		return paths
	}
	return nil
}

// Report records the outcome of a multi-key index mutation. Failures
// on one key never abort the rest.
type Report struct {
	BusinessID string    `json:"businessId"`
	Indexed    []string  `json:"indexed,omitempty"`
	Removed    []string  `json:"removed,omitempty"`
	Failed     []string  `json:"failed,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// IndexBusiness replaces the category registrations for a business:
// old inverted-index memberships are dropped, the selection documents
// rewritten, and the business added under each newly selected category.
func (idx *Index) IndexBusiness(ctx context.Context, businessID string, selections []models.CategorySelection) (Report, error) {
	report := Report{BusinessID: businessID, Timestamp: time.Now().UTC()}
	if businessID == "" {
		return report, apperrors.NewInvalidInputError("business id is empty")
	}

	oldNames, err := idx.SelectedCategories(ctx, businessID)
	if err != nil {
		return report, err
	}
	for _, name := range oldNames {
		key := store.CategoryBusinessesKey(name)
		if err := idx.store.RemoveFromSet(ctx, key, businessID); err != nil {
			report.Failed = append(report.Failed, key)
			idx.log.WithError(err).Warn("failed to remove stale category membership", map[string]interface{}{
				"business_id": businessID,
				"category":    name,
			})
			continue
		}
		report.Removed = append(report.Removed, key)
	}

	names := make([]string, 0, len(selections))
	seen := make(map[string]struct{}, len(selections))
	paths := make([]string, 0, len(selections))
	for _, sel := range selections {
		if sel.Category == "" {
			continue
		}
		if _, dup := seen[sel.Category]; !dup {
			seen[sel.Category] = struct{}{}
			names = append(names, sel.Category)
		}
		if sel.FullPath != "" {
			paths = append(paths, NormalizePath(sel.FullPath))
		}
	}

	if err := idx.store.SetJSON(ctx, store.BusinessSelectedCategoriesKey(businessID), names); err != nil {
		return report, err
	}
	if err := idx.store.SetJSON(ctx, store.BusinessCategoriesKey(businessID), selections); err != nil {
		return report, err
	}
	if err := idx.store.SetJSON(ctx, store.BusinessAllSubcategoriesKey(businessID), paths); err != nil {
		return report, err
	}

	for _, name := range names {
		key := store.CategoryBusinessesKey(name)
		if err := idx.store.AddToSet(ctx, key, businessID); err != nil {
			report.Failed = append(report.Failed, key)
			idx.log.WithError(err).Warn("failed to add category membership", map[string]interface{}{
				"business_id": businessID,
				"category":    name,
			})
			continue
		}
		report.Indexed = append(report.Indexed, key)
	}

	if err := idx.store.AddToSet(ctx, store.BusinessesSetKey, businessID); err != nil {
		report.Failed = append(report.Failed, store.BusinessesSetKey)
	}
	return report, nil
}

// RemoveBusiness drops a business from every category it selected and
// deletes its selection documents.
func (idx *Index) RemoveBusiness(ctx context.Context, businessID string) (Report, error) {
	report := Report{BusinessID: businessID, Timestamp: time.Now().UTC()}

	names, err := idx.SelectedCategories(ctx, businessID)
	if err != nil {
		return report, err
	}
	for _, name := range names {
		key := store.CategoryBusinessesKey(name)
		if err := idx.store.RemoveFromSet(ctx, key, businessID); err != nil {
			report.Failed = append(report.Failed, key)
			idx.log.WithError(err).Warn("failed to remove category membership", map[string]interface{}{
				"business_id": businessID,
				"category":    name,
			})
			continue
		}
		report.Removed = append(report.Removed, key)
	}

	if err := idx.store.Delete(ctx,
		store.BusinessSelectedCategoriesKey(businessID),
		store.BusinessCategoriesKey(businessID),
		store.BusinessAllSubcategoriesKey(businessID),
	); err != nil {
		return report, err
	}
	return report, nil
}

// BusinessesForCategory returns the member IDs of one inverted index set.
func (idx *Index) BusinessesForCategory(ctx context.Context, categoryName string) ([]string, error) {
	return idx.store.SetMembers(ctx, store.CategoryBusinessesKey(categoryName))
}
