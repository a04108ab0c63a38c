// Package catalog caches server-side catalog data (product checks, store
// products, product types) so repeated lookups do not repeat network calls.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"virtusize/internal/types"
)

// Source is the remote side of the cache. *api.Client satisfies it.
type Source interface {
	ProductCheck(ctx context.Context, product *types.CatalogProduct) (*types.ProductCheck, error)
	GetStoreProduct(ctx context.Context, id int) (*types.Product, error)
	GetProductTypes(ctx context.Context) ([]types.ProductType, error)
}

// Cache memoizes catalog lookups. Concurrent requests for the same key share
// one in-flight fetch. Safe for concurrent use.
type Cache struct {
	source Source
	log    *zap.Logger

	mu            sync.RWMutex
	checks        map[string]*types.ProductCheck
	storeProducts map[int]*types.Product
	productTypes  []types.ProductType

	group singleflight.Group
}

// NewCache builds an empty cache backed by source.
func NewCache(source Source, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		source:        source,
		log:           log,
		checks:        make(map[string]*types.ProductCheck),
		storeProducts: make(map[int]*types.Product),
	}
}

// ProductCheck returns the cached check for the product, fetching it on the
// first request.
func (c *Cache) ProductCheck(ctx context.Context, product *types.CatalogProduct) (*types.ProductCheck, error) {
	c.mu.RLock()
	check, ok := c.checks[product.ExternalID]
	c.mu.RUnlock()
	if ok {
		return check, nil
	}

	v, err, _ := c.group.Do("check:"+product.ExternalID, func() (any, error) {
		check, err := c.source.ProductCheck(ctx, product)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.checks[product.ExternalID] = check
		c.mu.Unlock()
		return check, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.ProductCheck), nil
}

// StoreProduct returns the cached store product, fetching it on the first
// request.
func (c *Cache) StoreProduct(ctx context.Context, id int) (*types.Product, error) {
	c.mu.RLock()
	product, ok := c.storeProducts[id]
	c.mu.RUnlock()
	if ok {
		return product, nil
	}

	v, err, _ := c.group.Do("store-product:"+strconv.Itoa(id), func() (any, error) {
		product, err := c.source.GetStoreProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.storeProducts[id] = product
		c.mu.Unlock()
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Product), nil
}

// ProductTypes returns the product type list, fetched once per cache
// lifetime.
func (c *Cache) ProductTypes(ctx context.Context) ([]types.ProductType, error) {
	c.mu.RLock()
	cached := c.productTypes
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := c.group.Do("product-types", func() (any, error) {
		productTypes, err := c.source.GetProductTypes(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.productTypes = productTypes
		c.mu.Unlock()
		return productTypes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.ProductType), nil
}

// ProductTypeByID looks up a cached product type. The type list must have
// been fetched first.
func (c *Cache) ProductTypeByID(id int) (*types.ProductType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.productTypes {
		if c.productTypes[i].ID == id {
			return &c.productTypes[i], nil
		}
	}
	return nil, fmt.Errorf("product type %d is not cached", id)
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = make(map[string]*types.ProductCheck)
	c.storeProducts = make(map[int]*types.Product)
	c.productTypes = nil
}
