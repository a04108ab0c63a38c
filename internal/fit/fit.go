// Package fit scores how well a store product fits against garments the user
// already owns. Pure functions, no I/O.
package fit

import (
	"math"
	"sort"

	"virtusize/internal/types"
)

// Result describes the best size match found across the user's wardrobe.
type Result struct {
	// BestFitScore is highest when the store size's measurements are
	// closest to a garment the user owns. Bounded to [20, 100].
	BestFitScore float64

	// BestSize is the store product size that produced BestFitScore.
	BestSize *types.ProductSize

	// BestUserProduct is the wardrobe garment the comparison was made
	// against.
	BestUserProduct *types.Product

	// StoreProductSmaller reports whether the best store size measures
	// smaller than the user's garment on the most important measurement
	// for the product type.
	StoreProductSmaller bool
}

// weightedMeasurement pairs a measurement name with its importance for the
// product type.
type weightedMeasurement struct {
	name   string
	weight float64
}

// sortedWeights orders a product type's measurement weights from most to
// least important so the dominant measurements are compared first.
func sortedWeights(productType *types.ProductType) []weightedMeasurement {
	weights := make([]weightedMeasurement, 0, len(productType.Weights))
	for name, weight := range productType.Weights {
		weights = append(weights, weightedMeasurement{name: name, weight: weight})
	}
	sort.Slice(weights, func(i, j int) bool {
		if weights[i].weight != weights[j].weight {
			return weights[i].weight > weights[j].weight
		}
		return weights[i].name < weights[j].name
	})
	return weights
}

// sizeScore compares one store size against one user size. The raw distance
// accumulates the weighted absolute measurement differences; the fit score
// shrinks from 100 as the distance grows, floored at 20. Whether the store
// size runs smaller is judged by the highest-weight measurement present in
// both sizes, which is why the weights arrive sorted.
func sizeScore(weights []weightedMeasurement, userSize, storeSize *types.ProductSize) (score float64, storeSmaller bool) {
	raw := 0.0
	first := true
	for _, w := range weights {
		userMM, ok := userSize.Measurements[w.name]
		if !ok {
			continue
		}
		storeMM, ok := storeSize.Measurements[w.name]
		if !ok {
			continue
		}
		raw += math.Abs(w.weight * float64(userMM-storeMM))
		if first {
			storeSmaller = userMM > storeMM
			first = false
		}
	}
	score = 100 - raw/10
	if score < 20 {
		score = 20
	}
	return score, storeSmaller
}

// BestFit finds the store product size closest to any compatible garment in
// the user's wardrobe. Returns nil when the wardrobe holds no compatible
// garment or the product type is unknown.
func BestFit(storeProduct *types.Product, userProducts []types.Product, productTypes []types.ProductType) *Result {
	var storeType *types.ProductType
	for i := range productTypes {
		if productTypes[i].ID == storeProduct.ProductType {
			storeType = &productTypes[i]
			break
		}
	}
	if storeType == nil {
		return nil
	}

	weights := sortedWeights(storeType)

	var best *Result
	for i := range userProducts {
		userProduct := &userProducts[i]
		if !storeType.Compatible(userProduct.ProductType) {
			continue
		}
		if len(userProduct.Sizes) == 0 {
			continue
		}
		userSize := &userProduct.Sizes[0]

		for j := range storeProduct.Sizes {
			storeSize := &storeProduct.Sizes[j]
			score, smaller := sizeScore(weights, userSize, storeSize)
			if best == nil || score > best.BestFitScore {
				best = &Result{
					BestFitScore:        score,
					BestSize:            storeSize,
					BestUserProduct:     userProduct,
					StoreProductSmaller: smaller,
				}
			}
		}
	}
	return best
}
