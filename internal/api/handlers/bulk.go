package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/api/middleware"
	"github.com/jafarshop/backoffice/internal/service"
)

// HandleBulkShip handles POST /v1/bulk/ship
func HandleBulkShip(bulk BulkService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.BulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
			return
		}

		c.JSON(http.StatusOK, bulk.Ship(c.Request.Context(), req.IDs, middleware.ActorFromContext(c)))
	}
}

// HandleBulkPickup handles POST /v1/bulk/pickup
func HandleBulkPickup(bulk BulkService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.PickupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
			return
		}

		result, err := bulk.RequestPickup(c.Request.Context(), req.OrderIDs, req.PickupPointID, middleware.ActorFromContext(c))
		if err != nil {
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleBulkPrint handles POST /v1/bulk/print
func HandleBulkPrint(bulk BulkService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.BulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
			return
		}

		c.JSON(http.StatusOK, bulk.MarkPrinted(c.Request.Context(), req.IDs, middleware.ActorFromContext(c)))
	}
}

// HandleBulkReceive handles POST /v1/bulk/purchase-orders/receive
func HandleBulkReceive(bulk BulkService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.BulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
			return
		}

		c.JSON(http.StatusOK, bulk.ReceivePurchaseOrders(c.Request.Context(), req.IDs, middleware.ActorFromContext(c)))
	}
}
