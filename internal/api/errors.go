package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// checkoutRetryAfter is the Retry-After hint, in seconds, for a conflicted checkout
const checkoutRetryAfter = "1"

// writeError maps service errors onto {"detail": ...} responses
func (h *Handler) writeError(c *gin.Context, err error) {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Not enough stock for %s", stockErr.ProductName)})
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Cart is empty"})
	case errors.Is(err, service.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Ensure quantity is greater than or equal to 1."})
	case errors.Is(err, service.ErrInvalidSignup):
		c.JSON(http.StatusBadRequest, gin.H{"detail": strings.TrimPrefix(err.Error(), service.ErrInvalidSignup.Error()+": ")})
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "A user with that username already exists."})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"})
	case errors.Is(err, service.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, gin.H{"detail": "A checkout for this cart is already in progress"})
	case errors.Is(err, service.ErrCheckoutConflict):
		c.Header("Retry-After", checkoutRetryAfter)
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Checkout is busy, please retry"})
	default:
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
}
