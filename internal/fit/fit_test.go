package fit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"virtusize/internal/types"
)

var pantsType = types.ProductType{
	ID:   5,
	Name: "pants",
	Weights: map[string]float64{
		"waist":  1,
		"height": 0.5,
		"hip":    0.25,
	},
	CompatibleWith: []int{5, 6},
}

func storePants(sizes ...types.ProductSize) *types.Product {
	return &types.Product{ID: 7110384, ExternalID: "vs-pants", ProductType: 5, Sizes: sizes}
}

func wardrobePants(id int, name string, measurements map[string]int) types.Product {
	return types.Product{
		ID:          id,
		Name:        name,
		ProductType: 5,
		Sizes:       []types.ProductSize{{Name: "owned", Measurements: measurements}},
	}
}

func TestBestFitPicksClosestSize(t *testing.T) {
	store := storePants(
		types.ProductSize{Name: "S", Measurements: map[string]int{"waist": 600, "height": 900, "hip": 800}},
		types.ProductSize{Name: "M", Measurements: map[string]int{"waist": 700, "height": 1000, "hip": 900}},
		types.ProductSize{Name: "L", Measurements: map[string]int{"waist": 800, "height": 1100, "hip": 1000}},
	)
	owned := wardrobePants(101, "favorite jeans", map[string]int{"waist": 710, "height": 1010, "hip": 905})

	result := BestFit(store, []types.Product{owned}, []types.ProductType{pantsType})
	require.NotNil(t, result)
	assert.Equal(t, "M", result.BestSize.Name)
	assert.Equal(t, 101, result.BestUserProduct.ID)
	// waist diff 10*1 + height diff 10*0.5 + hip diff 5*0.25 = 16.25 raw
	assert.InDelta(t, 100-16.25/10, result.BestFitScore, 0.001)
	assert.True(t, result.StoreProductSmaller)
}

func TestStoreProductSmallerUsesTopWeightedMeasurement(t *testing.T) {
	// The waist is barely larger than the store's while the height is far
	// smaller. Only the highest-weighted matched measurement decides the
	// direction, so the store product counts as smaller.
	store := storePants(
		types.ProductSize{Name: "M", Measurements: map[string]int{"waist": 700, "height": 1100}},
	)
	owned := wardrobePants(101, "jeans", map[string]int{"waist": 710, "height": 1000})

	result := BestFit(store, []types.Product{owned}, []types.ProductType{pantsType})
	require.NotNil(t, result)
	assert.True(t, result.StoreProductSmaller)

	// When the wardrobe item has no waist, the next weight decides.
	owned = wardrobePants(102, "shorts", map[string]int{"height": 1000})
	result = BestFit(store, []types.Product{owned}, []types.ProductType{pantsType})
	require.NotNil(t, result)
	assert.False(t, result.StoreProductSmaller)
}

func TestBestFitScoreFloor(t *testing.T) {
	store := storePants(
		types.ProductSize{Name: "S", Measurements: map[string]int{"waist": 100}},
	)
	owned := wardrobePants(101, "oversized", map[string]int{"waist": 5000})

	result := BestFit(store, []types.Product{owned}, []types.ProductType{pantsType})
	require.NotNil(t, result)
	assert.Equal(t, 20.0, result.BestFitScore)
}

func TestBestFitSkipsIncompatibleTypes(t *testing.T) {
	store := storePants(
		types.ProductSize{Name: "M", Measurements: map[string]int{"waist": 700}},
	)
	jacket := types.Product{
		ID:          202,
		ProductType: 8,
		Sizes:       []types.ProductSize{{Name: "owned", Measurements: map[string]int{"waist": 700}}},
	}

	result := BestFit(store, []types.Product{jacket}, []types.ProductType{pantsType})
	assert.Nil(t, result)
}

func TestBestFitEmptyWardrobe(t *testing.T) {
	store := storePants(
		types.ProductSize{Name: "M", Measurements: map[string]int{"waist": 700}},
	)
	assert.Nil(t, BestFit(store, nil, []types.ProductType{pantsType}))
}

func TestBestFitUnknownProductType(t *testing.T) {
	store := &types.Product{ProductType: 99, Sizes: []types.ProductSize{{Name: "M"}}}
	owned := wardrobePants(101, "jeans", map[string]int{"waist": 700})

	assert.Nil(t, BestFit(store, []types.Product{owned}, []types.ProductType{pantsType}))
}

func TestBestFitAcrossWardrobe(t *testing.T) {
	store := storePants(
		types.ProductSize{Name: "M", Measurements: map[string]int{"waist": 700, "height": 1000}},
	)
	far := wardrobePants(101, "loose pants", map[string]int{"waist": 900, "height": 1200})
	near := wardrobePants(102, "snug pants", map[string]int{"waist": 705, "height": 1002})

	result := BestFit(store, []types.Product{far, near}, []types.ProductType{pantsType})
	require.NotNil(t, result)
	assert.Equal(t, 102, result.BestUserProduct.ID)
}

func TestBestFitIgnoresMissingMeasurements(t *testing.T) {
	store := storePants(
		types.ProductSize{Name: "M", Measurements: map[string]int{"waist": 700, "height": 1000}},
	)
	owned := wardrobePants(101, "jeans", map[string]int{"waist": 700})

	result := BestFit(store, []types.Product{owned}, []types.ProductType{pantsType})
	require.NotNil(t, result)
	// Only waist is shared, and it matches exactly.
	assert.Equal(t, 100.0, result.BestFitScore)
}

func TestSortedWeights(t *testing.T) {
	got := sortedWeights(&pantsType)
	want := []weightedMeasurement{
		{name: "waist", weight: 1},
		{name: "height", weight: 0.5},
		{name: "hip", weight: 0.25},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(weightedMeasurement{})); diff != "" {
		t.Errorf("sortedWeights mismatch (-want +got):\n%s", diff)
	}
}

func TestBestFitDoesNotMutateInputs(t *testing.T) {
	store := storePants(
		types.ProductSize{Name: "M", Measurements: map[string]int{"waist": 700}},
	)
	owned := []types.Product{wardrobePants(101, "jeans", map[string]int{"waist": 710})}
	productTypes := []types.ProductType{pantsType}

	_ = BestFit(store, owned, productTypes)
	assert.Equal(t, map[string]int{"waist": 710}, owned[0].Sizes[0].Measurements)
	assert.Equal(t, map[string]int{"waist": 700}, store.Sizes[0].Measurements)
	assert.Equal(t, map[string]float64{"waist": 1, "height": 0.5, "hip": 0.25}, productTypes[0].Weights)
}
