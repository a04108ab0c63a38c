// Package recommend turns the user's wardrobe and body-profile size into the
// recommendation surfaced for a store product.
package recommend

import (
	"sync"

	"virtusize/internal/fit"
	"virtusize/internal/types"
)

// Type selects which recommendation sources feed a recomputation.
type Type int

const (
	// TypeBoth recomputes from the wardrobe and the body profile.
	TypeBoth Type = iota
	// TypeSizeComparison recomputes from the wardrobe only.
	TypeSizeComparison
	// TypeBody recomputes from the body profile only.
	TypeBody
)

// Engine holds the per-user recommendation inputs and derives the
// recommendation for a store product on demand. Safe for concurrent use.
type Engine struct {
	mu          sync.RWMutex
	wardrobe    []types.Product
	selectedID  int
	bodyFitSize string
}

// NewEngine returns an engine with no user data loaded.
func NewEngine() *Engine {
	return &Engine{}
}

// SetWardrobe replaces the user's wardrobe.
func (e *Engine) SetWardrobe(products []types.Product) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.wardrobe = products
}

// Wardrobe returns the current wardrobe.
func (e *Engine) Wardrobe() []types.Product {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.wardrobe
}

// SelectProduct pins the wardrobe comparison to one garment. A zero ID
// restores comparison against the whole wardrobe.
func (e *Engine) SelectProduct(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selectedID = id
}

// RemoveWardrobeItem drops one garment from the wardrobe and clears the
// selection if it pointed at the removed garment.
func (e *Engine) RemoveWardrobeItem(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.wardrobe[:0]
	for _, p := range e.wardrobe {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	e.wardrobe = kept
	if e.selectedID == id {
		e.selectedID = 0
	}
}

// SetBodyFitSize stores the size label recommended from the user's body
// profile, "" when none is available.
func (e *Engine) SetBodyFitSize(size string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bodyFitSize = size
}

// Clear drops all user data, as after a logout.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.wardrobe = nil
	e.selectedID = 0
	e.bodyFitSize = ""
}

// Recommend derives the recommendation for storeProduct. Returns nil when
// neither source can contribute: an empty wardrobe yields no comparison, and
// accessories never get a body-profile size.
func (e *Engine) Recommend(storeProduct *types.Product, productTypes []types.ProductType, which Type) *types.Recommendation {
	e.mu.RLock()
	wardrobe := e.wardrobe
	selectedID := e.selectedID
	bodyFitSize := e.bodyFitSize
	e.mu.RUnlock()

	rec := &types.Recommendation{}

	if which == TypeBoth || which == TypeSizeComparison {
		candidates := wardrobe
		if selectedID != 0 {
			candidates = nil
			for i := range wardrobe {
				if wardrobe[i].ID == selectedID {
					candidates = wardrobe[i : i+1]
					break
				}
			}
		}
		if result := fit.BestFit(storeProduct, candidates, productTypes); result != nil {
			rec.BestFitItem = result.BestUserProduct
			rec.BestFitSizeLabel = result.BestSize.Name
		}
	}

	if (which == TypeBoth || which == TypeBody) && !storeProduct.IsAccessory() {
		rec.BodyFitSizeLabel = bodyFitSize
	}

	if rec.BestFitItem == nil && rec.BodyFitSizeLabel == "" {
		return nil
	}
	return rec
}
