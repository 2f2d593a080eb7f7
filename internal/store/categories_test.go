package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onepocket/internal/core"
)

func TestCategoryStoreSeedsDefaultsWhenEmpty(t *testing.T) {
	f := newFakeAPI()
	s := NewCategoryStore(f)

	require.NoError(t, s.Load(context.Background()))
	assert.False(t, s.Loading())

	names := s.Names()
	assert.Equal(t, core.DefaultCategories, names)
	assert.Equal(t, core.DefaultCategories, f.createdNames, "each default is created individually")
}

func TestCategoryStoreSkipsSeedingWhenPresent(t *testing.T) {
	f := newFakeAPI()
	f.categories = []core.Category{{ID: "c1", Name: "Custom"}}

	s := NewCategoryStore(f)
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, []string{"Custom"}, s.Names())
	assert.Empty(t, f.createdNames)
}

func TestCategoryStoreCreate(t *testing.T) {
	f := newFakeAPI()
	f.categories = []core.Category{{ID: "c1", Name: "Bills"}}
	s := NewCategoryStore(f)
	require.NoError(t, s.Load(context.Background()))

	created, err := s.Create(context.Background(), "Pets")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Contains(t, s.Names(), "Pets")
}

func TestCategoryStoreCreateRejectsDuplicateCaseInsensitive(t *testing.T) {
	f := newFakeAPI()
	f.categories = []core.Category{{ID: "c1", Name: "Bills"}}
	s := NewCategoryStore(f)
	require.NoError(t, s.Load(context.Background()))

	_, err := s.Create(context.Background(), "BILLS")
	assert.Error(t, err, "duplicate names are caught client-side before the API call")

	_, err = s.Create(context.Background(), "   ")
	assert.ErrorIs(t, err, core.ErrEmptyCategory)
}

func TestCategoryStoreDeleteInUseSurfacesGenericError(t *testing.T) {
	f := newFakeAPI()
	f.categories = []core.Category{{ID: "c1", Name: "Bills"}}
	s := NewCategoryStore(f)
	require.NoError(t, s.Load(context.Background()))

	f.categoryErr = errors.New("category may be in use")
	err := s.Delete(context.Background(), "c1")
	assert.Error(t, err)
	assert.Len(t, s.Categories(), 1, "failed delete keeps the category")

	f.categoryErr = nil
	require.NoError(t, s.Delete(context.Background(), "c1"))
	assert.Empty(t, s.Categories())
}

func TestCategoryStoreSeedContinuesPastIndividualFailures(t *testing.T) {
	f := newFakeAPI()
	failing := &flakyCategoryAPI{fakeAPI: f, failName: "Luxury"}

	s := NewCategoryStore(failing)
	require.NoError(t, s.Load(context.Background()))

	// Every default except the failing one landed.
	names := s.Names()
	assert.Len(t, names, len(core.DefaultCategories)-1)
	assert.NotContains(t, names, "Luxury")
}

// flakyCategoryAPI fails creation of exactly one category name.
type flakyCategoryAPI struct {
	*fakeAPI
	failName string
}

func (f *flakyCategoryAPI) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	if name == f.failName {
		return core.Category{}, errors.New("transient failure")
	}
	return f.fakeAPI.CreateCategory(ctx, name)
}
