// internal/projection/builder_test.go
package projection

import (
	"context"
	"testing"

	"directory-engine/internal/category"
	"directory-engine/internal/common/database"
	"directory-engine/internal/common/logger"
	"directory-engine/internal/models"
	"directory-engine/internal/servicearea"
	"directory-engine/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testEnv struct {
	builder *Builder
	store   *store.Store
	catIdx  *category.Index
	areas   *servicearea.Resolver
}

func createTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewTestLogger(t)
	st := store.New(database.NewFromClient(client), log)
	catIdx := category.NewIndex(st, log)
	matcher := category.NewMatcher(nil)
	areas := servicearea.NewResolver(st, log)

	return &testEnv{
		builder: NewBuilder(st, catIdx, matcher, areas, log, 4),
		store:   st,
		catIdx:  catIdx,
		areas:   areas,
	}
}

func (e *testEnv) addBusiness(t *testing.T, biz models.Business, selections []models.CategorySelection) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.SetJSON(ctx, store.BusinessKey(biz.ID), biz))
	_, err := e.catIdx.IndexBusiness(ctx, biz.ID, selections)
	require.NoError(t, err)
}

func petCareSelection() []models.CategorySelection {
	return []models.CategorySelection{
		{Category: "Pet Care", Subcategory: "Grooming", FullPath: "Pet Care > Grooming"},
	}
}

// ==========================
// Candidate Resolution Tests
// ==========================

func TestBuilder_ResolveCandidates_ByPagePath(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	env.addBusiness(t, models.Business{ID: "biz1", BusinessName: "Paws"}, petCareSelection())

	ids, err := env.builder.ResolveCandidates(ctx, Query{PagePath: "/pet-care"})
	require.NoError(t, err)
	assert.Equal(t, []string{"biz1"}, ids)
}

func TestBuilder_ResolveCandidates_UnknownPage(t *testing.T) {
	env := createTestEnv(t)

	ids, err := env.builder.ResolveCandidates(context.Background(), Query{PagePath: "/not-a-page"})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBuilder_ResolveCandidates_BySubcategoryPath(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	env.addBusiness(t, models.Business{ID: "biz1"}, petCareSelection())
	env.addBusiness(t, models.Business{ID: "biz2"}, []models.CategorySelection{
		{Category: "Lawyers", FullPath: "Lawyers"},
	})

	ids, err := env.builder.ResolveCandidates(ctx, Query{SubcategoryPath: "Pet Care > Grooming"})
	require.NoError(t, err)
	assert.Equal(t, []string{"biz1"}, ids)
}

func TestBuilder_ResolveCandidates_EmptyQuery(t *testing.T) {
	env := createTestEnv(t)

	_, err := env.builder.ResolveCandidates(context.Background(), Query{})
	require.Error(t, err)
}

// ==========================
// Projection Build Tests
// ==========================

func TestBuilder_Build_AdDesignOverrides(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	env.addBusiness(t, models.Business{
		ID:           "biz1",
		BusinessName: "Registered Name LLC",
		City:         "Lakewood",
		State:        "OH",
		Phone:        "216-555-0100",
		ZipCode:      "44107",
	}, petCareSelection())

	info := models.AdDesignBusinessInfo{BusinessName: "Display Name", Phone: "216-555-0199"}
	require.NoError(t, env.store.SetJSON(ctx, store.BusinessAdDesignInfoKey("biz1"), info))

	projections, err := env.builder.Build(ctx, Query{PagePath: "/pet-care"})
	require.NoError(t, err)
	require.Len(t, projections, 1)

	p := projections[0]
	assert.Equal(t, "Display Name", p.DisplayName)
	assert.Equal(t, "216-555-0199", p.DisplayPhone)
	// Fields without overrides keep registration values.
	assert.Equal(t, "Lakewood", p.DisplayCity)
	assert.Equal(t, "OH", p.DisplayState)
	assert.Equal(t, "Lakewood, OH", p.DisplayLocation)
}

func TestBuilder_Build_DisplayLocationFallbacks(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		biz  models.Business
		want string
	}{
		{"city and state", models.Business{ID: "b1", City: "Lakewood", State: "OH"}, "Lakewood, OH"},
		{"city only", models.Business{ID: "b2", City: "Lakewood"}, "Lakewood"},
		{"state only", models.Business{ID: "b3", State: "OH"}, "OH"},
		{"zip fallback", models.Business{ID: "b4", ZipCode: "44107"}, "Zip: 44107"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.addBusiness(t, tt.biz, petCareSelection())
			projections, err := env.builder.Build(ctx, Query{Category: "Pet Care"})
			require.NoError(t, err)

			var found bool
			for _, p := range projections {
				if p.ID == tt.biz.ID {
					assert.Equal(t, tt.want, p.DisplayLocation)
					found = true
				}
			}
			assert.True(t, found)
		})
	}
}

func TestBuilder_Build_UnnamedBusinessFallback(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	env.addBusiness(t, models.Business{ID: "biz1", ZipCode: "44107"}, petCareSelection())

	projections, err := env.builder.Build(ctx, Query{Category: "Pet Care"})
	require.NoError(t, err)
	require.Len(t, projections, 1)
	assert.Equal(t, "Unnamed Business", projections[0].DisplayName)
}

func TestBuilder_Build_SkipsTombstoned(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	env.addBusiness(t, models.Business{ID: "biz1", BusinessName: "Alive"}, petCareSelection())
	env.addBusiness(t, models.Business{ID: "biz2", BusinessName: "Dead"}, petCareSelection())
	require.NoError(t, env.store.SetString(ctx, store.BusinessDeletedKey("biz2"), "1"))

	projections, err := env.builder.Build(ctx, Query{Category: "Pet Care"})
	require.NoError(t, err)
	require.Len(t, projections, 1)
	assert.Equal(t, "biz1", projections[0].ID)
}

func TestBuilder_Build_SkipsBlocked(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	env.addBusiness(t, models.Business{ID: "biz1", BusinessName: "Fine"}, petCareSelection())
	env.addBusiness(t, models.Business{ID: "biz2", BusinessName: "Blocked"}, petCareSelection())
	require.NoError(t, env.store.AddToSet(ctx, store.BlockedBusinessesKey, "biz2"))

	projections, err := env.builder.Build(ctx, Query{Category: "Pet Care"})
	require.NoError(t, err)
	require.Len(t, projections, 1)
	assert.Equal(t, "biz1", projections[0].ID)
}

func TestBuilder_Build_SkipsMissingRecords(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	env.addBusiness(t, models.Business{ID: "biz1", BusinessName: "Real"}, petCareSelection())
	// Index membership without a forward record.
	require.NoError(t, env.store.AddToSet(ctx, store.CategoryBusinessesKey("Pet Care"), "ghost"))

	projections, err := env.builder.Build(ctx, Query{Category: "Pet Care"})
	require.NoError(t, err)
	require.Len(t, projections, 1)
	assert.Equal(t, "biz1", projections[0].ID)
}

func TestBuilder_Build_NewestFirst(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	env.addBusiness(t, models.Business{ID: "old", CreatedAt: "2023-01-01T00:00:00Z"}, petCareSelection())
	env.addBusiness(t, models.Business{ID: "new", CreatedAt: "2025-06-01T00:00:00Z"}, petCareSelection())
	env.addBusiness(t, models.Business{ID: "mid", CreatedAt: "2024-03-01T00:00:00Z"}, petCareSelection())

	projections, err := env.builder.Build(ctx, Query{Category: "Pet Care"})
	require.NoError(t, err)
	require.Len(t, projections, 3)
	assert.Equal(t, "new", projections[0].ID)
	assert.Equal(t, "mid", projections[1].ID)
	assert.Equal(t, "old", projections[2].ID)
}

// ==========================
// ZIP Filter Tests
// ==========================

func TestBuilder_Build_ZipFilter(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	env.addBusiness(t, models.Business{ID: "local", BusinessName: "Local"}, petCareSelection())
	require.NoError(t, env.areas.Save(ctx, "local", false, []servicearea.ZipEntry{{Zip: "44107"}}))

	env.addBusiness(t, models.Business{ID: "faraway", BusinessName: "Faraway"}, petCareSelection())
	require.NoError(t, env.areas.Save(ctx, "faraway", false, []servicearea.ZipEntry{{Zip: "10001"}}))

	env.addBusiness(t, models.Business{ID: "everywhere", BusinessName: "Everywhere"}, petCareSelection())
	require.NoError(t, env.areas.Save(ctx, "everywhere", true, nil))

	projections, err := env.builder.Build(ctx, Query{Category: "Pet Care", ZipFilter: "44107"})
	require.NoError(t, err)

	ids := make([]string, 0, len(projections))
	for _, p := range projections {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"local", "everywhere"}, ids)
}

func TestBuilder_Build_ZipFilter_FailsOpenWithoutArea(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	// No service area stored at all: the business still appears.
	env.addBusiness(t, models.Business{ID: "biz1", BusinessName: "NoArea"}, petCareSelection())

	projections, err := env.builder.Build(ctx, Query{Category: "Pet Care", ZipFilter: "44107"})
	require.NoError(t, err)
	require.Len(t, projections, 1)
	assert.Equal(t, "biz1", projections[0].ID)
}

func TestBuilder_Build_ZipFilter_RegistrationZipFallback(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	// Explicit area excludes the filter ZIP, but the business is
	// registered there.
	env.addBusiness(t, models.Business{ID: "biz1", ZipCode: "44107"}, petCareSelection())
	require.NoError(t, env.areas.Save(ctx, "biz1", false, []servicearea.ZipEntry{{Zip: "10001"}}))

	projections, err := env.builder.Build(ctx, Query{Category: "Pet Care", ZipFilter: "44107"})
	require.NoError(t, err)
	require.Len(t, projections, 1)
}
