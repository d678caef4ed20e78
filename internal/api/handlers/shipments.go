package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/api/middleware"
	"github.com/jafarshop/backoffice/internal/carrier"
	"github.com/jafarshop/backoffice/internal/export"
)

// HandleSyncShipment handles POST /v1/orders/:id/shipment
func HandleSyncShipment(shipments ShipmentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		order, err := shipments.SyncShipment(c.Request.Context(), orderID, middleware.ActorFromContext(c))
		if err != nil {
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleCancelShipment handles POST /v1/orders/:id/shipment/cancel
func HandleCancelShipment(shipments ShipmentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		order, err := shipments.CancelShipment(c.Request.Context(), orderID, middleware.ActorFromContext(c))
		if err != nil {
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleListCities handles GET /v1/carrier/cities, optionally filtered by ?q=
func HandleListCities(shipments ShipmentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cities, err := shipments.ListCities(c.Request.Context())
		if err != nil {
			respondError(c, err, logger)
			return
		}

		if q := c.Query("q"); q != "" {
			cities = carrier.SearchCities(cities, q)
		}

		c.JSON(http.StatusOK, gin.H{"cities": cities})
	}
}

// HandlePickupManifest handles GET /v1/exports/pickup-manifest?ids=a,b
func HandlePickupManifest(shipments ShipmentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ids []uuid.UUID
		if raw := c.Query("ids"); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				id, err := uuid.Parse(strings.TrimSpace(part))
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID: " + part, "code": "validation_error"})
					return
				}
				ids = append(ids, id)
			}
		}

		rows, err := shipments.PickupManifest(c.Request.Context(), ids)
		if err != nil {
			respondError(c, err, logger)
			return
		}

		f, filename, err := export.PickupManifest(rows, time.Now())
		if err != nil {
			respondError(c, err, logger)
			return
		}
		defer f.Close()

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
		c.Header("Content-Transfer-Encoding", "binary")

		if err := f.Write(c.Writer); err != nil {
			logger.Error("Failed to write pickup manifest", zap.Error(err))
		}
	}
}
