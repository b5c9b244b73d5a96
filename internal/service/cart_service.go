package service

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService manages per-user carts
type CartService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store *store.Store) *CartService {
	return &CartService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// List returns the user's cart lines with their current products
func (s *CartService) List(ctx context.Context, userID int64) ([]models.CartItem, error) {
	ctx, span := util.StartSpan(ctx, "CartService.List")
	defer span.End()

	return s.store.ListCartItems(ctx, userID)
}

// CartTotal sums the lines at current product prices
func CartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// AddOrUpdate sets the quantity of product in the user's cart. An existing
// line has its quantity replaced, not incremented.
func (s *CartService) AddOrUpdate(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddOrUpdate")
	defer span.End()

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, notFound(err)
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.store.UpsertCartItem(ctx, item); err != nil {
		return nil, notFound(fmt.Errorf("failed to save cart item: %w", err))
	}
	item.Product = *product

	util.CartOperationsTotal.WithLabelValues("upsert").Inc()
	s.logger.Debug("Cart item saved",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity))
	return item, nil
}

// Remove deletes one of the user's cart lines
func (s *CartService) Remove(ctx context.Context, userID, cartItemID int64) error {
	ctx, span := util.StartSpan(ctx, "CartService.Remove")
	defer span.End()

	if err := s.store.DeleteCartItem(ctx, userID, cartItemID); err != nil {
		return notFound(err)
	}

	util.CartOperationsTotal.WithLabelValues("remove").Inc()
	return nil
}
