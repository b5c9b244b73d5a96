package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// CatalogService is the catalog read surface
type CatalogService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListProducts(ctx context.Context, categorySlug string) ([]models.Product, error)
	GetProduct(ctx context.Context, slug string) (*models.Product, error)
}

// CartService manages the authenticated user's cart
type CartService interface {
	List(ctx context.Context, userID int64) ([]models.CartItem, error)
	AddOrUpdate(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error)
	Remove(ctx context.Context, userID, cartItemID int64) error
}

// CheckoutService places orders
type CheckoutService interface {
	Checkout(ctx context.Context, userID int64, idempotencyKey string) (*models.Order, error)
}

// OrderService reads order history
type OrderService interface {
	ListForUser(ctx context.Context, userID int64) ([]models.Order, error)
	Get(ctx context.Context, userID, orderID int64) (*models.Order, error)
}

// AccountService handles registration and tokens
type AccountService interface {
	Signup(ctx context.Context, in service.SignupInput) (*models.User, error)
	Login(ctx context.Context, username, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, access *auth.Claims, refreshToken string) error
	Profile(ctx context.Context, userID int64) (*models.User, error)
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

// Services bundles the handler's dependencies
type Services struct {
	Catalog  CatalogService
	Cart     CartService
	Checkout CheckoutService
	Orders   OrderService
	Accounts AccountService
}

// ReadinessCheck is a named dependency probe for /ready
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	svc    Services
	checks []ReadinessCheck
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, checks ...ReadinessCheck) *Handler {
	return &Handler{
		svc:    svc,
		checks: checks,
		logger: util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/signup", h.signup)
		v1.POST("/auth/token", h.login)
		v1.POST("/auth/token/refresh", h.refresh)

		v1.GET("/categories", h.listCategories)
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:slug", h.getProduct)
	}

	authed := v1.Group("")
	authed.Use(AuthMiddleware(h.svc.Accounts))
	{
		authed.POST("/auth/logout", h.logout)
		authed.GET("/auth/profile", h.profile)

		authed.GET("/cart", h.listCart)
		authed.POST("/cart", h.addToCart)
		authed.DELETE("/cart/:id", h.removeFromCart)

		authed.POST("/checkout", h.checkout)

		authed.GET("/orders", h.listOrders)
		authed.GET("/orders/:id", h.getOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", check.Name), zap.Error(err))
			failed[check.Name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Inc()
	}
}
