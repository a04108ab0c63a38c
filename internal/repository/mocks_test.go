package repository

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"virtusize/internal/types"
)

// fakeBackend plays the server for the repository's collaborators: it
// satisfies repository.Client, catalog.Source, and session.API.
type fakeBackend struct {
	mu           sync.Mutex
	checkData    *types.ProductCheckData
	storeProduct *types.Product
	productTypes []types.ProductType
	wardrobe     []types.Product
	profile      *types.BodyProfile
	bodySize     string

	events       []string
	imageUploads int
	orders       []*types.Order

	sessionCalls atomic.Int64
	deleteCalls  atomic.Int64
	profileCalls atomic.Int64

	userProductsErr error
	orderErr        error
	imageErr        error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		checkData: &types.ProductCheckData{
			ValidProduct:    true,
			ProductDataID:   7110384,
			StoreID:         2,
			StoreName:       "virtusize",
			ProductTypeName: "pants",
		},
		storeProduct: &types.Product{
			ID:          7110384,
			ExternalID:  "vs-pants",
			ProductType: 5,
			Sizes: []types.ProductSize{
				{Name: "M", Measurements: map[string]int{"waist": 700, "height": 1000}},
				{Name: "L", Measurements: map[string]int{"waist": 800, "height": 1100}},
			},
		},
		productTypes: []types.ProductType{{
			ID:             5,
			Name:           "pants",
			Weights:        map[string]float64{"waist": 1, "height": 0.5},
			CompatibleWith: []int{5},
		}},
	}
}

func (f *fakeBackend) ProductCheck(ctx context.Context, product *types.CatalogProduct) (*types.ProductCheck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &types.ProductCheck{ProductID: product.ExternalID, Data: f.checkData}, nil
}

func (f *fakeBackend) GetStoreProduct(ctx context.Context, id int) (*types.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storeProduct, nil
}

func (f *fakeBackend) GetProductTypes(ctx context.Context) ([]types.ProductType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.productTypes, nil
}

func (f *fakeBackend) GetUserSession(ctx context.Context) (*types.SessionInfo, error) {
	f.sessionCalls.Add(1)
	f.mu.Lock()
	hasBody := f.profile != nil
	f.mu.Unlock()
	return &types.SessionInfo{AccessToken: "access-token-1", HasBodyMeasurement: hasBody}, nil
}

func (f *fakeBackend) DeleteUser(ctx context.Context) error {
	f.deleteCalls.Add(1)
	return nil
}

func (f *fakeBackend) GetStoreInfo(ctx context.Context) (*types.Store, error) {
	return &types.Store{ID: 2, Name: "virtusize", ShortName: "vs", Region: "JP"}, nil
}

func (f *fakeBackend) GetI18n(ctx context.Context, language string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeBackend) GetStoreSpecificI18n(ctx context.Context, storeShortName string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeBackend) SendProductImage(ctx context.Context, product *types.CatalogProduct) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.imageErr != nil {
		return f.imageErr
	}
	f.imageUploads++
	return nil
}

func (f *fakeBackend) SendEvent(ctx context.Context, name string, extra map[string]any, check *types.ProductCheck) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, name)
	return nil
}

func (f *fakeBackend) SendOrder(ctx context.Context, order *types.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return f.orderErr
	}
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeBackend) GetUserProducts(ctx context.Context) ([]types.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userProductsErr != nil {
		return nil, f.userProductsErr
	}
	return f.wardrobe, nil
}

func (f *fakeBackend) GetUserBodyProfile(ctx context.Context) (*types.BodyProfile, error) {
	f.profileCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, nil
}

func (f *fakeBackend) GetBodySizeRecommendation(ctx context.Context, productTypes []types.ProductType, storeProduct *types.Product, profile *types.BodyProfile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodySize, nil
}

func (f *fakeBackend) sentEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeBackend) setWardrobe(products []types.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wardrobe = products
}

func (f *fakeBackend) setProfile(p *types.BodyProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = p
}

// recorder captures presenter callbacks.
type recorder struct {
	mu              sync.Mutex
	validChecks     []string
	recommendations []recordedRec
	errs            []error
}

type recordedRec struct {
	externalID string
	rec        *types.Recommendation
}

func (r *recorder) OnValidProductCheck(externalID string, check *types.ProductCheck) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validChecks = append(r.validChecks, externalID)
}

func (r *recorder) OnRecommendation(externalID string, rec *types.Recommendation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recommendations = append(r.recommendations, recordedRec{externalID: externalID, rec: rec})
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) lastRecommendation() *recordedRec {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.recommendations) == 0 {
		return nil
	}
	return &r.recommendations[len(r.recommendations)-1]
}

func (r *recorder) recommendationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recommendations)
}

func (r *recorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}
