// internal/reconcile/reconcile_test.go
package reconcile

import (
	"context"
	"encoding/json"
	"testing"

	"directory-engine/internal/common/database"
	"directory-engine/internal/common/logger"
	"directory-engine/internal/geo"
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

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return store.New(database.NewFromClient(client), logger.NewTestLogger(t))
}

func seedBusiness(t *testing.T, st *store.Store, id string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.SetJSON(ctx, store.BusinessKey(id), models.Business{ID: id}))
	require.NoError(t, st.AddToSet(ctx, store.BusinessesSetKey, id))
}

func seedZip(t *testing.T, st *store.Store, zip, state string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.SetJSON(ctx, store.ZipKey(zip), geo.ZipRecord{Zip: zip, State: state}))
	require.NoError(t, st.AddToSet(ctx, store.ZipStateIndexKey(state), zip))
}

// ==========================
// Category Index Tests
// ==========================

func TestReconciler_PrunesStaleCategoryEntries(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedBusiness(t, st, "alive")
	require.NoError(t, st.AddToSet(ctx, store.CategoryBusinessesKey("Plumbing"), "alive"))
	require.NoError(t, st.AddToSet(ctx, store.CategoryBusinessesKey("Plumbing"), "gone"))

	r := New(st, logger.NewTestLogger(t), false)
	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.CategoryEntriesChecked)
	assert.Equal(t, 1, report.CategoryEntriesPruned)
	assert.Empty(t, report.Errors)

	members, err := st.SetMembers(ctx, store.CategoryBusinessesKey("Plumbing"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alive"}, members)
}

func TestReconciler_TombstonedBusinessIsStale(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	// The record still exists but a tombstone marks it deleted.
	seedBusiness(t, st, "biz1")
	require.NoError(t, st.SetString(ctx, store.BusinessDeletedKey("biz1"), "1"))
	require.NoError(t, st.AddToSet(ctx, store.CategoryBusinessesKey("Plumbing"), "biz1"))

	r := New(st, logger.NewTestLogger(t), false)
	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.CategoryEntriesPruned)
	assert.Equal(t, 1, report.RosterEntriesPruned)
}

// ==========================
// ZIP Index Tests
// ==========================

func TestReconciler_PrunesStaleZipEntries(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedZip(t, st, "44107", "OH")
	// Orphaned index member with no backing record.
	require.NoError(t, st.AddToSet(ctx, store.ZipStateIndexKey("OH"), "99999"))
	require.NoError(t, st.AddToSet(ctx, store.ZipCityIndexKey("Lakewood", "OH"), "99999"))

	r := New(st, logger.NewTestLogger(t), false)
	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.ZipEntriesChecked)
	assert.Equal(t, 2, report.ZipEntriesPruned)

	members, err := st.SetMembers(ctx, store.ZipStateIndexKey("OH"))
	require.NoError(t, err)
	assert.Equal(t, []string{"44107"}, members)
}

// ==========================
// Roster Tests
// ==========================

func TestReconciler_PrunesRosterAndSatelliteKeys(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedBusiness(t, st, "alive")
	// Roster member whose forward record was deleted, satellite keys
	// left behind.
	require.NoError(t, st.AddToSet(ctx, store.BusinessesSetKey, "gone"))
	require.NoError(t, st.SetString(ctx, store.BusinessNationwideKey("gone"), "true"))
	require.NoError(t, st.SetJSON(ctx, store.BusinessAllSubcategoriesKey("gone"), []string{"Plumbing > Drains"}))

	r := New(st, logger.NewTestLogger(t), false)
	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.RosterEntriesPruned)

	members, err := st.SetMembers(ctx, store.BusinessesSetKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"alive"}, members)

	exists, err := st.Exists(ctx, store.BusinessNationwideKey("gone"))
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = st.Exists(ctx, store.BusinessAllSubcategoriesKey("gone"))
	require.NoError(t, err)
	assert.False(t, exists)
}

// ==========================
// Pass Behavior Tests
// ==========================

func TestReconciler_SecondRunPrunesNothing(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedBusiness(t, st, "alive")
	require.NoError(t, st.AddToSet(ctx, store.CategoryBusinessesKey("Plumbing"), "alive"))
	require.NoError(t, st.AddToSet(ctx, store.CategoryBusinessesKey("Plumbing"), "gone"))
	require.NoError(t, st.AddToSet(ctx, store.BusinessesSetKey, "gone"))

	r := New(st, logger.NewTestLogger(t), false)
	first, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CategoryEntriesPruned)
	assert.Equal(t, 1, first.RosterEntriesPruned)

	second, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.CategoryEntriesPruned)
	assert.Zero(t, second.ZipEntriesPruned)
	assert.Zero(t, second.RosterEntriesPruned)
}

func TestReconciler_DryRunCountsWithoutPruning(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.AddToSet(ctx, store.CategoryBusinessesKey("Plumbing"), "gone"))
	require.NoError(t, st.AddToSet(ctx, store.BusinessesSetKey, "gone"))

	r := New(st, logger.NewTestLogger(t), true)
	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.CategoryEntriesPruned)
	assert.Equal(t, 1, report.RosterEntriesPruned)

	// Nothing was actually removed.
	members, err := st.SetMembers(ctx, store.CategoryBusinessesKey("Plumbing"))
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, members)
	members, err = st.SetMembers(ctx, store.BusinessesSetKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, members)
}

func TestReconciler_EmptyKeyspace(t *testing.T) {
	st := createTestStore(t)

	r := New(st, logger.NewTestLogger(t), false)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.CategoryEntriesChecked)
	assert.Zero(t, report.ZipEntriesChecked)
	assert.Empty(t, report.Errors)
}

// ==========================
// ZIP Metadata Tests
// ==========================

func TestReconciler_VerifyZipMetadata_RewritesDrift(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedZip(t, st, "44107", "OH")
	seedZip(t, st, "44102", "OH")
	require.NoError(t, st.SetJSON(ctx, store.ZipMetaKey, geo.Metadata{Count: 10, LastUpdated: "2024-01-01T00:00:00Z"}))

	geoIndex := geo.NewIndex(st, logger.NewTestLogger(t), 100)
	r := New(st, logger.NewTestLogger(t), false)
	require.NoError(t, r.VerifyZipMetadata(ctx, geoIndex))

	raw, err := st.GetString(ctx, store.ZipMetaKey)
	require.NoError(t, err)
	var meta geo.Metadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	assert.Equal(t, 2, meta.Count)
	assert.NotEqual(t, "2024-01-01T00:00:00Z", meta.LastUpdated)
}

func TestReconciler_VerifyZipMetadata_NoDriftNoRewrite(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedZip(t, st, "44107", "OH")
	require.NoError(t, st.SetJSON(ctx, store.ZipMetaKey, geo.Metadata{Count: 1, LastUpdated: "2024-01-01T00:00:00Z"}))

	geoIndex := geo.NewIndex(st, logger.NewTestLogger(t), 100)
	r := New(st, logger.NewTestLogger(t), false)
	require.NoError(t, r.VerifyZipMetadata(ctx, geoIndex))

	raw, err := st.GetString(ctx, store.ZipMetaKey)
	require.NoError(t, err)
	var meta geo.Metadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	assert.Equal(t, "2024-01-01T00:00:00Z", meta.LastUpdated)
}

func TestReconciler_VerifyZipMetadata_DryRun(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedZip(t, st, "44107", "OH")
	require.NoError(t, st.SetJSON(ctx, store.ZipMetaKey, geo.Metadata{Count: 99, LastUpdated: "2024-01-01T00:00:00Z"}))

	geoIndex := geo.NewIndex(st, logger.NewTestLogger(t), 100)
	r := New(st, logger.NewTestLogger(t), true)
	require.NoError(t, r.VerifyZipMetadata(ctx, geoIndex))

	raw, err := st.GetString(ctx, store.ZipMetaKey)
	require.NoError(t, err)
	var meta geo.Metadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	assert.Equal(t, 99, meta.Count)
}
