package service

import (
	"errors"
	"fmt"

	"storefront/internal/store"
)

var (
	// ErrEmptyCart is returned when checkout finds no cart lines
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity is returned for a cart quantity below one
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrNotFound is returned for missing rows and rows owned by someone else
	ErrNotFound = errors.New("not found")
	// ErrCheckoutConflict is returned when concurrent checkouts kept aborting ours
	ErrCheckoutConflict = errors.New("checkout conflicted with concurrent orders")
	// ErrCheckoutInProgress is returned when the user already has a checkout running
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	// ErrInvalidCredentials is returned on a failed login or refresh
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserExists is returned when the username is taken
	ErrUserExists = errors.New("a user with that username already exists")
	// ErrInvalidSignup wraps signup validation failures
	ErrInvalidSignup = errors.New("invalid signup")
)

// InsufficientStockError aborts a checkout; it names the first product that
// could not cover its cart line.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: available=%d, requested=%d",
		e.ProductName, e.Available, e.Requested)
}

// notFound converts a store miss into the service error, keeping the context
func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
