package handlers

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/pkg/errors"
)

// respondError maps a service error to its HTTP status. Carrier messages are
// passed through unchanged for operator diagnosis.
func respondError(c *gin.Context, err error, logger *zap.Logger) {
	switch e := err.(type) {
	case *errors.ErrValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Error(), "code": "validation_error", "field": e.Field})
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Error(), "code": "not_found"})
	case *errors.ErrInvalidStateTransition:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error(), "code": "invalid_transition"})
	case *errors.ErrAlreadyLogged:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error(), "code": "already_logged"})
	case *errors.ErrOutOfSequence:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error(), "code": "out_of_sequence", "expected": e.Expected})
	case *errors.ErrDayLocked:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error(), "code": "day_locked"})
	case *errors.ErrCooldown:
		c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(e.Remaining.Seconds()))))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": e.Error(), "code": "cooldown"})
	case *errors.ErrConcurrencyConflict:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error(), "code": "concurrency_conflict"})
	case *errors.ErrNoEligibleOrders:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": e.Error(), "code": "no_eligible_orders"})
	case *errors.ErrCarrierValidation:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": e.Error(), "code": "carrier_validation", "carrier_message": e.Message})
	case *errors.ErrCarrierAuth:
		logger.Error("Carrier authentication failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": e.Error(), "code": "carrier_auth"})
	case *errors.ErrCarrier:
		c.JSON(http.StatusBadGateway, gin.H{"error": e.Error(), "code": "carrier_error", "carrier_message": e.Message})
	case *errors.ErrUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": e.Error(), "code": "unauthorized"})
	case *errors.ErrPersistence:
		logger.Error("Persistence failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": e.Error(), "code": "persistence_error"})
	default:
		logger.Error("Unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
	}
}
