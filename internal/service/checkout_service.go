package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutConfig tunes the checkout workflow
type CheckoutConfig struct {
	MaxAttempts    int
	LockTTL        time.Duration
	IdempotencyTTL time.Duration
}

// CheckoutService converts a cart into an order while decrementing stock
type CheckoutService struct {
	store       *store.Store
	catalog     *CatalogService
	locker      Locker
	idempotency IdempotencyStore
	events      EventPublisher
	config      CheckoutConfig
	logger      *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	store *store.Store,
	catalog *CatalogService,
	locker Locker,
	idempotency IdempotencyStore,
	events EventPublisher,
	config CheckoutConfig,
) *CheckoutService {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &CheckoutService{
		store:       store,
		catalog:     catalog,
		locker:      locker,
		idempotency: idempotency,
		events:      events,
		config:      config,
		logger:      util.GetLogger(),
	}
}

// Checkout places an order for everything in the user's cart. Either the
// order, its items, the stock decrements and the cart deletion all commit,
// or none of them do.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, idempotencyKey string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if idempotencyKey != "" {
		idempotencyKey = strconv.FormatInt(userID, 10) + ":" + idempotencyKey
		if order := s.replay(ctx, userID, idempotencyKey); order != nil {
			util.CheckoutsTotal.WithLabelValues(util.CheckoutResultReplayed).Inc()
			return order, nil
		}
	}

	release, err := s.lockCart(ctx, userID)
	if err != nil {
		util.CheckoutsTotal.WithLabelValues(util.CheckoutResultInProgress).Inc()
		return nil, err
	}
	defer release()

	// a request holding the same key may have committed while we waited for the lock
	if idempotencyKey != "" {
		if order := s.replay(ctx, userID, idempotencyKey); order != nil {
			util.CheckoutsTotal.WithLabelValues(util.CheckoutResultReplayed).Inc()
			return order, nil
		}
	}

	cart, err := s.store.ListCartItems(ctx, userID)
	if err != nil {
		util.CheckoutsTotal.WithLabelValues(util.CheckoutResultError).Inc()
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart) == 0 {
		util.CheckoutsTotal.WithLabelValues(util.CheckoutResultEmptyCart).Inc()
		return nil, ErrEmptyCart
	}

	order, err := s.placeOrderWithRetry(ctx, userID)
	if err != nil {
		s.recordFailure(userID, err)
		return nil, err
	}

	s.afterCommit(context.WithoutCancel(ctx), order, idempotencyKey)
	return order, nil
}

func (s *CheckoutService) placeOrderWithRetry(ctx context.Context, userID int64) (*models.Order, error) {
	for attempt := 1; ; attempt++ {
		order, err := s.placeOrder(ctx, userID)
		if err == nil || !store.IsRetryable(err) {
			return order, err
		}
		if attempt >= s.config.MaxAttempts {
			return nil, fmt.Errorf("%w after %d attempts: %v", ErrCheckoutConflict, attempt, err)
		}

		util.CheckoutRetriesTotal.Inc()
		s.logger.Warn("Checkout transaction conflicted, retrying",
			zap.Int64("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
}

// placeOrder runs one attempt of the checkout transaction
func (s *CheckoutService) placeOrder(ctx context.Context, userID int64) (*models.Order, error) {
	var placed *models.Order

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		lines, err := tx.LockCartItems(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		order := &models.Order{
			UserID: userID,
			Status: models.OrderStatusPending,
			Total:  decimal.Zero,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		// lines come back ordered by product id, so row locks are always
		// taken in the same order and concurrent checkouts cannot deadlock
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			product, err := tx.LockProduct(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("failed to lock product %d: %w", line.ProductID, err)
			}

			if product.Stock < line.Quantity {
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.Stock,
					Requested:   line.Quantity,
				}
			}

			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				Price:     product.Price,
				Quantity:  line.Quantity,
			}
			if err := tx.CreateOrderItem(ctx, &item); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}

			if err := tx.DecrementStock(ctx, product.ID, line.Quantity); err != nil {
				if errors.Is(err, store.ErrStockConflict) {
					return fmt.Errorf("%w: %v", ErrCheckoutConflict, err)
				}
				return err
			}
			product.Stock -= line.Quantity
			item.Product = *product

			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			items = append(items, item)
		}

		if err := tx.SetOrderTotal(ctx, order.ID, total); err != nil {
			return fmt.Errorf("failed to set order total: %w", err)
		}
		if err := tx.ClearCart(ctx, userID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		order.Total = total
		order.Items = items
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *CheckoutService) lockCart(ctx context.Context, userID int64) (func(), error) {
	key := fmt.Sprintf("checkout:%d", userID)

	token, ok, err := s.locker.AcquireLock(ctx, key, s.config.LockTTL)
	if err != nil {
		// row locks still guarantee correctness without the redis lock
		s.logger.Warn("Checkout lock unavailable, continuing without it",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, ErrCheckoutInProgress
	}

	return func() {
		if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.Error("Failed to release checkout lock",
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
	}, nil
}

// replay returns the order an earlier request with the same key produced
func (s *CheckoutService) replay(ctx context.Context, userID int64, key string) *models.Order {
	orderID, found, err := s.idempotency.GetIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}

	order, err := s.store.GetOrderForUser(ctx, userID, orderID)
	if err != nil {
		s.logger.Warn("Idempotent order could not be loaded",
			zap.String("key", key),
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return nil
	}

	s.logger.Info("Duplicate checkout request detected",
		zap.String("key", key),
		zap.Int64("order_id", order.ID))
	return order
}

// afterCommit runs side effects of a committed order; none of them can fail the checkout
func (s *CheckoutService) afterCommit(ctx context.Context, order *models.Order, idempotencyKey string) {
	util.CheckoutsTotal.WithLabelValues(util.CheckoutResultSuccess).Inc()

	products := make([]models.Product, 0, len(order.Items))
	for _, item := range order.Items {
		util.OrderItemsSoldTotal.Add(float64(item.Quantity))
		products = append(products, item.Product)
	}

	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)))

	s.catalog.Invalidate(ctx, products...)

	if idempotencyKey != "" {
		if err := s.idempotency.SetIdempotencyKey(ctx, idempotencyKey, order.ID, s.config.IdempotencyTTL); err != nil {
			s.logger.Error("Failed to store idempotency key",
				zap.String("key", idempotencyKey),
				zap.Error(err))
		}
	}

	event := models.NewOrderPlacedEvent(uuid.New().String(), order)
	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}

func (s *CheckoutService) recordFailure(userID int64, err error) {
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		util.CheckoutsTotal.WithLabelValues(util.CheckoutResultInsufficientStock).Inc()
		s.logger.Warn("Checkout rejected, insufficient stock",
			zap.Int64("user_id", userID),
			zap.Int64("product_id", stockErr.ProductID),
			zap.Int("available", stockErr.Available),
			zap.Int("requested", stockErr.Requested))
	case errors.Is(err, ErrEmptyCart):
		util.CheckoutsTotal.WithLabelValues(util.CheckoutResultEmptyCart).Inc()
	case errors.Is(err, ErrCheckoutConflict):
		util.CheckoutsTotal.WithLabelValues(util.CheckoutResultConflict).Inc()
		s.logger.Warn("Checkout gave up after conflicts", zap.Int64("user_id", userID), zap.Error(err))
	default:
		util.CheckoutsTotal.WithLabelValues(util.CheckoutResultError).Inc()
		s.logger.Error("Checkout failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
