package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places amounts are stored and rendered with
const MoneyPlaces = 2

// Money renders an amount with a fixed two-place scale, e.g. "20.00"
func Money(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// MarshalJSON renders the price with two decimal places
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		Price string `json:"price"`
	}{product(p), Money(p.Price)})
}

// MarshalJSON renders the total with two decimal places
func (o Order) MarshalJSON() ([]byte, error) {
	type order Order
	return json.Marshal(struct {
		order
		Total string `json:"total"`
	}{order(o), Money(o.Total)})
}

// MarshalJSON renders the price paid with two decimal places
func (oi OrderItem) MarshalJSON() ([]byte, error) {
	type orderItem OrderItem
	return json.Marshal(struct {
		orderItem
		Price string `json:"price"`
	}{orderItem(oi), Money(oi.Price)})
}

// MarshalJSON renders the total with two decimal places
func (e OrderPlacedEvent) MarshalJSON() ([]byte, error) {
	type event OrderPlacedEvent
	return json.Marshal(struct {
		event
		Total string `json:"total"`
	}{event(e), Money(e.Total)})
}

// MarshalJSON renders the price with two decimal places
func (d OrderItemData) MarshalJSON() ([]byte, error) {
	type itemData OrderItemData
	return json.Marshal(struct {
		itemData
		Price string `json:"price"`
	}{itemData(d), Money(d.Price)})
}
