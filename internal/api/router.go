package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/api/handlers"
	"github.com/jafarshop/backoffice/internal/api/middleware"
	"github.com/jafarshop/backoffice/internal/config"
	reqlog "github.com/jafarshop/backoffice/internal/logger"
	"github.com/jafarshop/backoffice/internal/repository"
)

// Services groups the workflows exposed over HTTP
type Services struct {
	Orders    handlers.OrderService
	Shipments handlers.ShipmentService
	Bulk      handlers.BulkService
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, services Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(reqlog.Recovery(logger))
	router.Use(reqlog.GinMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes, all operator-authenticated
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(repos.Operator, logger))
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", handlers.HandleCreateOrder(services.Orders, logger))
			orders.GET("", handlers.HandleListOrders(services.Orders, logger))
			orders.GET("/:id", handlers.HandleGetOrder(services.Orders, logger))
			orders.POST("/:id/status", handlers.HandleUpdateStatus(services.Orders, logger))
			orders.POST("/:id/fulfillment", handlers.HandleUpdateFulfillment(services.Orders, logger))
			orders.POST("/:id/calls", handlers.HandleLogCallAttempt(services.Orders, logger))
			orders.POST("/:id/delivery-note", handlers.HandleMarkDeliveryNotePrinted(services.Orders, logger))
			orders.POST("/:id/shipment", handlers.HandleSyncShipment(services.Shipments, logger))
			orders.POST("/:id/shipment/cancel", handlers.HandleCancelShipment(services.Shipments, logger))
		}

		bulk := v1.Group("/bulk")
		{
			bulk.POST("/ship", handlers.HandleBulkShip(services.Bulk, logger))
			bulk.POST("/pickup", handlers.HandleBulkPickup(services.Bulk, logger))
			bulk.POST("/print", handlers.HandleBulkPrint(services.Bulk, logger))
			bulk.POST("/purchase-orders/receive", handlers.HandleBulkReceive(services.Bulk, logger))
		}

		v1.GET("/carrier/cities", handlers.HandleListCities(services.Shipments, logger))
		v1.GET("/exports/pickup-manifest", handlers.HandlePickupManifest(services.Shipments, logger))
	}

	return router
}
