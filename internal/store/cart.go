package store

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

// ListCartItems retrieves a user's cart lines joined with their current products
func (s *Store) ListCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, `+productColumns("product.")+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE ci.user_id = $1
		ORDER BY ci.product_id`, userID)
	return items, err
}

// UpsertCartItem creates the (user, product) cart line or replaces its quantity
func (s *Store) UpsertCartItem(ctx context.Context, item *models.CartItem) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id`

	err := s.db.GetContext(ctx, &item.ID, query, item.UserID, item.ProductID, item.Quantity)
	if hasCode(err, pgForeignKeyViolation) {
		return fmt.Errorf("product %d: %w", item.ProductID, ErrNotFound)
	}
	return err
}

// DeleteCartItem removes a cart line owned by userID
func (s *Store) DeleteCartItem(ctx context.Context, userID, cartItemID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE id = $1 AND user_id = $2", cartItemID, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("cart item %d: %w", cartItemID, ErrNotFound)
	}
	return nil
}
