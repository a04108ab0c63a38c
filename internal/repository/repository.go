// Package repository orchestrates the product-page lifecycle: validating a
// catalog product, priming session and user data, reacting to widget
// messages, and pushing recommendations to the presenter.
package repository

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"virtusize/internal/api"
	"virtusize/internal/catalog"
	"virtusize/internal/event"
	"virtusize/internal/recommend"
	"virtusize/internal/session"
	"virtusize/internal/types"
)

// Presenter receives the repository's outward-facing results. Implementations
// must tolerate calls from multiple goroutines.
type Presenter interface {
	// OnValidProductCheck fires once a loaded product passes the server
	// check.
	OnValidProductCheck(externalID string, check *types.ProductCheck)

	// OnRecommendation fires whenever the recommendation for a loaded
	// product changes. rec is nil when no recommendation can be made.
	OnRecommendation(externalID string, rec *types.Recommendation)

	// OnError fires for any failure the repository cannot recover from.
	OnError(err error)
}

// Client is the slice of the API surface the repository drives directly.
// *api.Client satisfies it.
type Client interface {
	SendProductImage(ctx context.Context, product *types.CatalogProduct) error
	SendEvent(ctx context.Context, name string, extra map[string]any, check *types.ProductCheck) error
	SendOrder(ctx context.Context, order *types.Order) error
	GetUserProducts(ctx context.Context) ([]types.Product, error)
	GetUserBodyProfile(ctx context.Context) (*types.BodyProfile, error)
	GetBodySizeRecommendation(ctx context.Context, productTypes []types.ProductType, storeProduct *types.Product, profile *types.BodyProfile) (string, error)
}

// Repository ties the API client, caches, session manager, and
// recommendation engine into one product-page workflow. Safe for concurrent
// use.
type Repository struct {
	client    Client
	catalog   *catalog.Cache
	session   *session.Manager
	engine    *recommend.Engine
	presenter Presenter
	log       *zap.Logger

	// wg tracks fire-and-forget analytics sends so Wait can drain them.
	wg sync.WaitGroup

	mu sync.RWMutex
	// currentExternalID is the most recently loaded product; results for
	// older loads are discarded.
	currentExternalID string
	// storeProducts maps a loaded product's external ID to its full store
	// record.
	storeProducts map[string]*types.Product
	checks        map[string]*types.ProductCheck
	language      string
	i18n          json.RawMessage
	storeI18n     json.RawMessage
}

// New builds a repository around its collaborators.
func New(client Client, cache *catalog.Cache, sess *session.Manager, engine *recommend.Engine, presenter Presenter, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{
		client:        client,
		catalog:       cache,
		session:       sess,
		engine:        engine,
		presenter:     presenter,
		log:           log,
		language:      "en",
		storeProducts: make(map[string]*types.Product),
		checks:        make(map[string]*types.ProductCheck),
	}
}

// SetLanguage selects the localization bundle loaded on the next Load.
func (r *Repository) SetLanguage(language string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.language = language
}

// fireEvent sends an analytics event without blocking the caller. Failures
// are logged, never surfaced.
func (r *Repository) fireEvent(ctx context.Context, name string, extra map[string]any, check *types.ProductCheck) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.client.SendEvent(ctx, name, extra, check); err != nil {
			r.log.Debug("event send failed", zap.String("event", name), zap.Error(err))
		}
	}()
}

// Wait blocks until all in-flight analytics sends have finished.
func (r *Repository) Wait() {
	r.wg.Wait()
}

// Load runs the full product-page pipeline for one catalog product: server
// check, metadata upload, session refresh, user data priming, and the first
// recommendation. Results for a product are discarded if a newer Load starts
// before they land.
func (r *Repository) Load(ctx context.Context, product *types.CatalogProduct) error {
	externalID := product.ExternalID

	r.mu.Lock()
	r.currentExternalID = externalID
	r.mu.Unlock()

	check, err := r.catalog.ProductCheck(ctx, product)
	if err != nil {
		r.presenter.OnError(err)
		return err
	}
	product.Check = check

	r.mu.Lock()
	r.checks[externalID] = check
	r.mu.Unlock()

	r.fireEvent(ctx, api.EventUserSawProduct, nil, check)

	if !check.Valid() {
		err := api.ErrInvalidProduct(externalID)
		r.presenter.OnError(err)
		return err
	}

	if check.Data.FetchMetaData {
		if product.ImageURL == "" {
			err := api.ErrImageURLNotValid()
			r.presenter.OnError(err)
			return err
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.client.SendProductImage(ctx, product); err != nil {
				r.log.Debug("product image upload failed",
					zap.String("externalId", externalID), zap.Error(err))
				r.presenter.OnError(err)
			}
		}()
	}

	r.fireEvent(ctx, api.EventUserSawWidgetButton, nil, check)
	r.presenter.OnValidProductCheck(externalID, check)

	r.mu.RLock()
	language := r.language
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.fetchStoreData(gctx, externalID, check)
	})
	g.Go(func() error {
		_, err := r.session.Refresh(gctx)
		return err
	})
	g.Go(func() error {
		bundle, err := r.session.I18n(gctx, language)
		if err != nil {
			return err
		}
		storeBundle, err := r.session.StoreI18n(gctx)
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.i18n = bundle
		r.storeI18n = storeBundle
		r.mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		r.presenter.OnError(err)
		return err
	}

	if err := r.fetchUserData(ctx, externalID); err != nil {
		r.presenter.OnError(err)
		return err
	}

	r.updateRecommendation(externalID, recommend.TypeBoth)
	return nil
}

// fetchStoreData loads the full store product and the product type list.
func (r *Repository) fetchStoreData(ctx context.Context, externalID string, check *types.ProductCheck) error {
	g, gctx := errgroup.WithContext(ctx)

	var storeProduct *types.Product
	g.Go(func() error {
		var err error
		storeProduct, err = r.catalog.StoreProduct(gctx, check.Data.ProductDataID)
		return err
	})
	g.Go(func() error {
		_, err := r.catalog.ProductTypes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	r.mu.Lock()
	r.storeProducts[externalID] = storeProduct
	r.mu.Unlock()
	return nil
}

// fetchUserData loads the wardrobe and the body-profile size for the current
// session. Absence of either is normal for anonymous users. The body profile
// is only requested when the session reports body measurements exist.
func (r *Repository) fetchUserData(ctx context.Context, externalID string) error {
	g, gctx := errgroup.WithContext(ctx)

	var userProducts []types.Product
	var profile *types.BodyProfile
	g.Go(func() error {
		var err error
		userProducts, err = r.client.GetUserProducts(gctx)
		return err
	})
	if sess := r.session.Current(); sess == nil || sess.HasBodyMeasurement {
		g.Go(func() error {
			var err error
			profile, err = r.client.GetUserBodyProfile(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.engine.SetWardrobe(userProducts)

	bodyFitSize := ""
	if profile != nil {
		storeProduct := r.storeProduct(externalID)
		productTypes, err := r.catalog.ProductTypes(ctx)
		if err != nil {
			return err
		}
		if storeProduct != nil && !storeProduct.IsAccessory() {
			size, err := r.client.GetBodySizeRecommendation(ctx, productTypes, storeProduct, profile)
			if err != nil {
				r.log.Debug("body size recommendation failed", zap.Error(err))
			} else {
				bodyFitSize = size
			}
		}
	}
	r.engine.SetBodyFitSize(bodyFitSize)
	return nil
}

func (r *Repository) storeProduct(externalID string) *types.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.storeProducts[externalID]
}

func (r *Repository) check(externalID string) *types.ProductCheck {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checks[externalID]
}

// updateRecommendation recomputes and publishes the recommendation for
// externalID, unless a newer product has been loaded since.
func (r *Repository) updateRecommendation(externalID string, which recommend.Type) {
	r.mu.RLock()
	current := r.currentExternalID
	storeProduct := r.storeProducts[externalID]
	r.mu.RUnlock()

	if current != externalID {
		r.log.Debug("discarding stale recommendation",
			zap.String("externalId", externalID), zap.String("current", current))
		return
	}
	if storeProduct == nil {
		return
	}

	productTypes, err := r.catalog.ProductTypes(context.Background())
	if err != nil {
		r.presenter.OnError(err)
		return
	}
	r.presenter.OnRecommendation(externalID, r.engine.Recommend(storeProduct, productTypes, which))
}

// HandleEvent processes one widget message for the product identified by
// externalID: the message is forwarded to the analytics endpoint and its
// side effects are applied.
func (r *Repository) HandleEvent(ctx context.Context, externalID, name string, body json.RawMessage) error {
	ev, err := event.Decode(name, body)
	if err != nil {
		r.presenter.OnError(err)
		return err
	}

	r.fireEvent(ctx, name, nil, r.check(externalID))

	switch ev.Kind {
	case event.KindOpenedWidget:
		r.mu.Lock()
		r.currentExternalID = externalID
		r.mu.Unlock()
		if err := r.fetchUserData(ctx, externalID); err != nil {
			r.presenter.OnError(err)
			return err
		}
		r.updateRecommendation(externalID, recommend.TypeBoth)

	case event.KindAuthData:
		if err := r.session.UpdateAuthData(ev.BrowserID, ev.AuthToken); err != nil {
			r.presenter.OnError(err)
			return err
		}
		return r.reprimeUserData(ctx, externalID)

	case event.KindSelectedProduct:
		r.engine.SelectProduct(ev.UserProductID)
		r.updateRecommendation(externalID, recommend.TypeSizeComparison)

	case event.KindAddedProduct:
		userProducts, err := r.client.GetUserProducts(ctx)
		if err != nil {
			r.presenter.OnError(err)
			return err
		}
		r.engine.SetWardrobe(userProducts)
		r.updateRecommendation(externalID, recommend.TypeSizeComparison)

	case event.KindDeletedProduct:
		r.engine.RemoveWardrobeItem(ev.UserProductID)
		r.updateRecommendation(externalID, recommend.TypeSizeComparison)

	case event.KindChangedRecommendationType:
		which := recommend.TypeBoth
		switch ev.Choice {
		case event.ChoiceCompareProduct:
			which = recommend.TypeSizeComparison
		case event.ChoiceBody:
			which = recommend.TypeBody
		}
		r.updateRecommendation(externalID, which)

	case event.KindUpdatedBodyMeasurements:
		r.engine.SetBodyFitSize(ev.SizeLabel)
		r.updateRecommendation(externalID, recommend.TypeBody)

	case event.KindLoggedIn:
		return r.reprimeUserData(ctx, externalID)

	case event.KindLoggedOut, event.KindDeletedData:
		if err := r.session.DeleteUser(ctx); err != nil {
			r.presenter.OnError(err)
			return err
		}
		r.engine.Clear()
		if _, err := r.session.Refresh(ctx); err != nil {
			r.presenter.OnError(err)
			return err
		}
		r.updateRecommendation(externalID, recommend.TypeBoth)
	}
	return nil
}

// reprimeUserData refreshes the session and re-fetches user data after the
// signed-in user changed, then republishes the recommendation.
func (r *Repository) reprimeUserData(ctx context.Context, externalID string) error {
	if _, err := r.session.Refresh(ctx); err != nil {
		r.presenter.OnError(err)
		return err
	}
	if err := r.fetchUserData(ctx, externalID); err != nil {
		r.presenter.OnError(err)
		return err
	}
	r.updateRecommendation(externalID, recommend.TypeBoth)
	return nil
}

// Localization returns the shared and store-specific localization bundles
// loaded by the last Load. Either may be nil.
func (r *Repository) Localization() (shared, store json.RawMessage) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.i18n, r.storeI18n
}

// SendOrder reports a purchase to the server. An order without a region picks
// up the store's region first.
func (r *Repository) SendOrder(ctx context.Context, order *types.Order) error {
	if order.Region == "" {
		info, err := r.session.StoreInfo(ctx)
		if err != nil {
			r.presenter.OnError(err)
			return err
		}
		order.Region = info.Region
	}
	if err := r.client.SendOrder(ctx, order); err != nil {
		r.presenter.OnError(err)
		return err
	}
	return nil
}
