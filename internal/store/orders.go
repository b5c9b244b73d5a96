package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetOrderForUser retrieves an order with its items. Orders of other users are not found.
func (s *Store) GetOrderForUser(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		SELECT id, user_id, status, total, created_at, payment_id
		FROM orders
		WHERE id = $1 AND user_id = $2`, orderID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

// ListOrdersByUser retrieves a user's orders, newest first, with their items
func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders, `
		SELECT id, user_id, status, total, created_at, payment_id
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil || len(orders) == 0 {
		return orders, err
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	items, err := s.GetOrderItems(ctx, ids...)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[int64][]models.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return orders, nil
}

// GetOrderItems retrieves the items of the given orders joined with their products
func (s *Store) GetOrderItems(ctx context.Context, orderIDs ...int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	if len(orderIDs) == 0 {
		return items, nil
	}

	query, args, err := sqlx.In(`
		SELECT oi.id, oi.order_id, oi.product_id, oi.price, oi.quantity, `+productColumns("product.")+`
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE oi.order_id IN (?)
		ORDER BY oi.order_id, oi.id`, orderIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	err = s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}
