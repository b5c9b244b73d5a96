package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Checkout results
const (
	CheckoutResultSuccess           = "success"
	CheckoutResultEmptyCart         = "empty_cart"
	CheckoutResultInsufficientStock = "insufficient_stock"
	CheckoutResultConflict          = "conflict"
	CheckoutResultInProgress        = "in_progress"
	CheckoutResultReplayed          = "replayed"
	CheckoutResultError             = "error"
)

var (
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Total number of checkout attempts by result",
	}, []string{"result"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of the checkout transaction including retries",
		Buckets: prometheus.DefBuckets,
	})

	CheckoutRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_retries_total",
		Help: "Checkout transactions retried after a serialization failure or deadlock",
	})

	OrderItemsSoldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_items_sold_total",
		Help: "Units sold across all committed orders",
	})

	CartOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations by operation",
	}, []string{"operation"})

	CatalogCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_total",
		Help: "Catalog cache lookups by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
