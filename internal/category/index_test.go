// internal/category/index_test.go
package category

import (
	"context"
	"testing"

	"directory-engine/internal/common/database"
	"directory-engine/internal/common/logger"
	"directory-engine/internal/models"
	"directory-engine/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestCategoryIndex(t *testing.T) (*Index, *store.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	st := store.New(database.NewFromClient(client), logger.NewTestLogger(t))
	return NewIndex(st, logger.NewTestLogger(t)), st
}

func plumbingSelections() []models.CategorySelection {
	return []models.CategorySelection{
		{Category: "Home Improvement", Subcategory: "Plumbing", FullPath: "Home Improvement > Plumbing"},
		{Category: "Home Improvement", Subcategory: "Drain Cleaning", FullPath: "Home Improvement > Plumbing > Drain Cleaning"},
		{Category: "Handymen", Subcategory: "", FullPath: "Handymen"},
	}
}

// ==========================
// IndexBusiness Tests
// ==========================

func TestIndex_IndexBusiness(t *testing.T) {
	idx, st := createTestCategoryIndex(t)
	ctx := context.Background()

	report, err := idx.IndexBusiness(ctx, "biz1", plumbingSelections())
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	assert.Len(t, report.Indexed, 2)

	names, err := idx.SelectedCategories(ctx, "biz1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home Improvement", "Handymen"}, names)

	members, err := idx.BusinessesForCategory(ctx, "Home Improvement")
	require.NoError(t, err)
	assert.Contains(t, members, "biz1")

	roster, err := st.SetMembers(ctx, store.BusinessesSetKey)
	require.NoError(t, err)
	assert.Contains(t, roster, "biz1")

	paths, err := idx.AllSubcategoryPaths(ctx, "biz1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Home Improvement > Plumbing",
		"Home Improvement > Plumbing > Drain Cleaning",
		"Handymen",
	}, paths)
}

func TestIndex_IndexBusiness_EmptyID(t *testing.T) {
	idx, _ := createTestCategoryIndex(t)

	_, err := idx.IndexBusiness(context.Background(), "", plumbingSelections())
	require.Error(t, err)
}

func TestIndex_IndexBusiness_ReplacesOldMemberships(t *testing.T) {
	idx, _ := createTestCategoryIndex(t)
	ctx := context.Background()

	_, err := idx.IndexBusiness(ctx, "biz1", plumbingSelections())
	require.NoError(t, err)

	_, err = idx.IndexBusiness(ctx, "biz1", []models.CategorySelection{
		{Category: "Pet Care", Subcategory: "Grooming", FullPath: "Pet Care > Grooming"},
	})
	require.NoError(t, err)

	oldMembers, err := idx.BusinessesForCategory(ctx, "Home Improvement")
	require.NoError(t, err)
	assert.NotContains(t, oldMembers, "biz1")

	newMembers, err := idx.BusinessesForCategory(ctx, "Pet Care")
	require.NoError(t, err)
	assert.Contains(t, newMembers, "biz1")
}

func TestIndex_IndexBusiness_SkipsEmptyCategoryNames(t *testing.T) {
	idx, _ := createTestCategoryIndex(t)
	ctx := context.Background()

	report, err := idx.IndexBusiness(ctx, "biz1", []models.CategorySelection{
		{Category: "", Subcategory: "Orphan"},
		{Category: "Lawyers"},
	})
	require.NoError(t, err)
	assert.Len(t, report.Indexed, 1)

	names, err := idx.SelectedCategories(ctx, "biz1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lawyers"}, names)
}

// ==========================
// RemoveBusiness Tests
// ==========================

func TestIndex_RemoveBusiness_RoundTrip(t *testing.T) {
	idx, st := createTestCategoryIndex(t)
	ctx := context.Background()

	_, err := idx.IndexBusiness(ctx, "biz1", plumbingSelections())
	require.NoError(t, err)

	report, err := idx.RemoveBusiness(ctx, "biz1")
	require.NoError(t, err)
	assert.Len(t, report.Removed, 2)
	assert.Empty(t, report.Failed)

	members, err := idx.BusinessesForCategory(ctx, "Home Improvement")
	require.NoError(t, err)
	assert.Empty(t, members)

	ok, err := st.Exists(ctx, store.BusinessSelectedCategoriesKey("biz1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndex_RemoveBusiness_Unknown(t *testing.T) {
	idx, _ := createTestCategoryIndex(t)

	report, err := idx.RemoveBusiness(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, report.Removed)
	assert.Empty(t, report.Failed)
}

// ==========================
// Selections Decoding Tests
// ==========================

func TestIndex_Selections_FromDocument(t *testing.T) {
	idx, _ := createTestCategoryIndex(t)
	ctx := context.Background()

	_, err := idx.IndexBusiness(ctx, "biz1", plumbingSelections())
	require.NoError(t, err)

	selections, err := idx.Selections(ctx, "biz1")
	require.NoError(t, err)
	require.Len(t, selections, 3)
	assert.Equal(t, "Home Improvement", selections[0].Category)
}

func TestIndex_Selections_SynthesizedFromPaths(t *testing.T) {
	idx, st := createTestCategoryIndex(t)
	ctx := context.Background()

	require.NoError(t, st.SetJSON(ctx, store.BusinessAllSubcategoriesKey("biz1"),
		[]string{"Home Improvement > Plumbing > Drain Cleaning"}))

	selections, err := idx.Selections(ctx, "biz1")
	require.NoError(t, err)
	require.Len(t, selections, 1)
	assert.Equal(t, "Home Improvement", selections[0].Category)
	assert.Equal(t, "Drain Cleaning", selections[0].Subcategory)
	assert.Equal(t, "Home Improvement > Plumbing > Drain Cleaning", selections[0].FullPath)
}

func TestIndex_AllSubcategoryPaths_ObjectForm(t *testing.T) {
	idx, st := createTestCategoryIndex(t)
	ctx := context.Background()

	doc := `[{"fullPath":"Home Improvement > Plumbing"},{"fullPath":"Handymen"}]`
	require.NoError(t, st.SetString(ctx, store.BusinessAllSubcategoriesKey("biz1"), doc))

	paths, err := idx.AllSubcategoryPaths(ctx, "biz1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home Improvement > Plumbing", "Handymen"}, paths)
}
