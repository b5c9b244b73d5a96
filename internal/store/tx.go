package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ErrStockConflict is returned when a locked stock decrement would go below zero
var ErrStockConflict = errors.New("stock decrement conflict")

// Tx exposes the checkout writes that must share one transaction
type Tx struct {
	tx *sqlx.Tx
}

// LockCartItems locks and returns the user's cart lines in ascending product id order
func (t *Tx) LockCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := t.tx.SelectContext(ctx, &items, `
		SELECT id, user_id, product_id, quantity
		FROM cart_items
		WHERE user_id = $1
		ORDER BY product_id
		FOR UPDATE`, userID)
	return items, err
}

// LockProduct reads a product under a row lock held until the transaction ends
func (t *Tx) LockProduct(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	err := t.tx.GetContext(ctx, &product, `SELECT `+productColumns("")+`
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
		FOR UPDATE OF p`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateOrder inserts an order row
func (t *Tx) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, status, total)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return t.tx.GetContext(ctx, order, query, order.UserID, order.Status, order.Total)
}

// CreateOrderItem inserts an order item
func (t *Tx) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, price, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return t.tx.GetContext(ctx, &item.ID, query,
		item.OrderID, item.ProductID, item.Price, item.Quantity)
}

// DecrementStock subtracts quantity from a product's stock
func (t *Tx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1",
		quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return fmt.Errorf("product %d: %w", productID, ErrStockConflict)
	}
	return nil
}

// SetOrderTotal persists the order total
func (t *Tx) SetOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	_, err := t.tx.ExecContext(ctx, "UPDATE orders SET total = $1 WHERE id = $2", total, orderID)
	return err
}

// ClearCart deletes every cart line of the user
func (t *Tx) ClearCart(ctx context.Context, userID int64) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	return err
}
