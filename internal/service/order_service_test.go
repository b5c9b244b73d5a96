package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_GetOwnedOnly(t *testing.T) {
	st, mock := newMockStore(t)
	svc := NewOrderService(st)
	ctx := context.Background()

	mock.ExpectQuery(`FROM orders WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(100), int64(7)).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(100, 7, "pending", "19.98", time.Now(), nil))
	mock.ExpectQuery(`FROM order_items oi`).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(orderItemCols).
			AddRow(500, 100, 1, "9.99", 2, 1, "Widget", "widget", "", "12.00", 3, "", 2, "Gadgets", "gadgets"))

	order, err := svc.Get(ctx, 7, 100)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	// the item keeps the price paid, not the product's current price
	assert.Equal(t, "9.99", order.Items[0].Price.StringFixed(2))
	assert.Equal(t, "12.00", order.Items[0].Product.Price.StringFixed(2))
	assert.True(t, order.Total.Equal(order.ItemsTotal()))

	mock.ExpectQuery(`FROM orders WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(100), int64(8)).
		WillReturnRows(sqlmock.NewRows(orderCols))

	_, err = svc.Get(ctx, 8, 100)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_ListForUser(t *testing.T) {
	st, mock := newMockStore(t)
	svc := NewOrderService(st)

	mock.ExpectQuery(`FROM orders WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(orderCols))

	orders, err := svc.ListForUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NotNil(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}
