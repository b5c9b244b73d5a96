package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products for browsing
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

// Product represents a product in the catalog
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Slug        string          `db:"slug" json:"slug"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Image       string          `db:"image" json:"image"`
	Category    Category        `db:"category" json:"category"`
}

// CartItem is one line of a user's cart
type CartItem struct {
	ID        int64   `db:"id" json:"id"`
	UserID    int64   `db:"user_id" json:"-"`
	ProductID int64   `db:"product_id" json:"-"`
	Quantity  int     `db:"quantity" json:"quantity"`
	Product   Product `db:"product" json:"product"`
}

// Subtotal is the line price at the product's current price
func (ci CartItem) Subtotal() decimal.Decimal {
	return ci.Product.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// Order represents a completed checkout
type Order struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"-"`
	Status    string          `db:"status" json:"status"`
	Total     decimal.Decimal `db:"total" json:"total"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	PaymentID *string         `db:"payment_id" json:"payment_id"`
	Items     []OrderItem     `db:"-" json:"items"`
}

// OrderItem is a purchased line; Price is frozen at checkout time
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"-"`
	ProductID int64           `db:"product_id" json:"-"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Product   Product         `db:"product" json:"product"`
}

// ItemsTotal sums price × quantity over the order's items
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// User is a storefront account
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DateJoined   time.Time `db:"date_joined" json:"date_joined"`
}

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)
