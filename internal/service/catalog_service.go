package service

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// CatalogService serves products and categories through a read-through cache
type CatalogService struct {
	store  *store.Store
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store, cache Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

func productKey(slug string) string {
	return "catalog:product:" + slug
}

func productListKey(categorySlug string) string {
	return "catalog:products:" + categorySlug
}

// ListProducts lists products, optionally only those of one category
func (s *CatalogService) ListProducts(ctx context.Context, categorySlug string) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	key := productListKey(categorySlug)
	var products []models.Product
	if s.fromCache(ctx, key, &products) {
		return products, nil
	}

	products, err := s.store.ListProducts(ctx, categorySlug)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, products)
	return products, nil
}

// GetProduct looks a product up by slug
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	key := productKey(slug)
	var product models.Product
	if s.fromCache(ctx, key, &product) {
		return &product, nil
	}

	p, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}

	s.toCache(ctx, key, p)
	return p, nil
}

// ListCategories lists all categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListCategories")
	defer span.End()

	return s.store.ListCategories(ctx)
}

// Invalidate drops cached entries that show the given products
func (s *CatalogService) Invalidate(ctx context.Context, products ...models.Product) {
	if len(products) == 0 {
		return
	}

	keys := []string{productListKey("")}
	seen := map[string]bool{}
	for _, p := range products {
		keys = append(keys, productKey(p.Slug))
		if !seen[p.Category.Slug] {
			seen[p.Category.Slug] = true
			keys = append(keys, productListKey(p.Category.Slug))
		}
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Error("Failed to invalidate catalog cache",
			zap.Strings("keys", keys),
			zap.Error(err))
	}
}

func (s *CatalogService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.Warn("Catalog cache read failed, falling back to DB",
			zap.String("key", key),
			zap.Error(err))
		util.CatalogCacheTotal.WithLabelValues("error").Inc()
		return false
	}
	if hit {
		util.CatalogCacheTotal.WithLabelValues("hit").Inc()
	} else {
		util.CatalogCacheTotal.WithLabelValues("miss").Inc()
	}
	return hit
}

func (s *CatalogService) toCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("Catalog cache write failed",
			zap.String("key", key),
			zap.Error(err))
	}
}
