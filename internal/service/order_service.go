package service

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"
)

// OrderService reads a user's order history
type OrderService struct {
	store *store.Store
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store) *OrderService {
	return &OrderService{store: store}
}

// ListForUser returns the user's orders, newest first, with their items
func (s *OrderService) ListForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListForUser")
	defer span.End()

	return s.store.ListOrdersByUser(ctx, userID)
}

// Get returns one order. Orders belonging to another user are reported as
// missing so their ids cannot be probed.
func (s *OrderService) Get(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Get")
	defer span.End()

	order, err := s.store.GetOrderForUser(ctx, userID, orderID)
	if err != nil {
		return nil, notFound(err)
	}
	return order, nil
}
