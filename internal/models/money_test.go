package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyRendersTwoPlaces(t *testing.T) {
	price := decimal.RequireFromString("10.00")
	order := Order{
		ID:     1,
		Status: OrderStatusPending,
		Total:  price.Mul(decimal.NewFromInt(2)),
		Items: []OrderItem{{
			ID:       5,
			Price:    price,
			Quantity: 2,
			Product:  Product{ID: 3, Name: "Widget", Price: decimal.RequireFromString("12.5")},
		}},
	}

	b, err := json.Marshal(order)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "20.00", got["total"])
	assert.NotContains(t, got, "user_id")

	item := got["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "10.00", item["price"])
	assert.Equal(t, float64(2), item["quantity"])
	assert.Equal(t, "12.50", item["product"].(map[string]interface{})["price"])
	assert.Equal(t, "Widget", item["product"].(map[string]interface{})["name"])
}

func TestProductJSONRoundTrip(t *testing.T) {
	p := Product{ID: 1, Slug: "widget", Price: decimal.RequireFromString("9.9"), Stock: 4,
		Category: Category{ID: 2, Slug: "gadgets"}}

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"price":"9.90"`)

	var back Product
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, p.Price.Equal(back.Price))
	assert.Equal(t, p.Category, back.Category)
	assert.Equal(t, 4, back.Stock)
}

func TestOrderPlacedEventMoney(t *testing.T) {
	order := &Order{ID: 9, UserID: 7, Total: decimal.NewFromInt(20),
		Items: []OrderItem{{ProductID: 1, Price: decimal.NewFromInt(10), Quantity: 2}}}

	b, err := json.Marshal(NewOrderPlacedEvent("evt-1", order))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"total":"20.00"`)
	assert.Contains(t, string(b), `"price":"10.00"`)
	assert.Contains(t, string(b), `"event_type":"ORDER_PLACED"`)
}
