package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/api/middleware"
	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/service"
)

// OrderResponse represents the order response
type OrderResponse struct {
	ID                  string                   `json:"id"`
	Customer            CustomerResponse         `json:"customer"`
	Note                string                   `json:"note,omitempty"`
	Status              domain.OrderStatus       `json:"status"`
	FulfillmentStatus   domain.FulfillmentStatus `json:"fulfillment_status"`
	CallResult          domain.CallResult        `json:"call_result,omitempty"`
	CancellationMotif   domain.CancellationMotif `json:"cancellation_motif,omitempty"`
	CallHistory         map[int]int              `json:"call_history"`
	ShippingID          *string                  `json:"shipping_id,omitempty"`
	ShippingStatus      string                   `json:"shipping_status,omitempty"`
	Phase               domain.Phase             `json:"phase"`
	DeliveryNotePrinted bool                     `json:"delivery_note_printed"`
	ShippingFee         string                   `json:"shipping_fee"`
	Total               string                   `json:"total"`
	Items               []OrderItemResponse      `json:"items"`
	Logs                []LogEntryResponse       `json:"logs"`
	Version             int                      `json:"version"`
	CreatedAt           string                   `json:"created_at"`
	UpdatedAt           string                   `json:"updated_at"`
}

type CustomerResponse struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	City    string `json:"city"`
	Sector  string `json:"sector,omitempty"`
	Address string `json:"address"`
}

type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

type LogEntryResponse struct {
	ID        string         `json:"id"`
	Type      domain.LogType `json:"type"`
	Message   string         `json:"message"`
	Actor     string         `json:"actor"`
	Timestamp string         `json:"timestamp"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity.String(),
			UnitPrice: item.UnitPrice.StringFixed(2),
			Amount:    item.Amount().StringFixed(2),
		}
	}

	logs := make([]LogEntryResponse, len(order.Logs))
	for i, entry := range order.Logs {
		logs[i] = LogEntryResponse{
			ID:        entry.ID.String(),
			Type:      entry.Type,
			Message:   entry.Message,
			Actor:     entry.Actor,
			Timestamp: entry.Timestamp.Format(time.RFC3339),
		}
	}

	callHistory := order.CallHistory
	if callHistory == nil {
		callHistory = map[int]int{}
	}

	return OrderResponse{
		ID: order.ID.String(),
		Customer: CustomerResponse{
			Name:    order.Customer.Name,
			Phone:   order.Customer.Phone,
			City:    order.Customer.City,
			Sector:  order.Customer.Sector,
			Address: order.Customer.Address,
		},
		Note:                order.Note,
		Status:              order.Status,
		FulfillmentStatus:   order.FulfillmentStatus,
		CallResult:          order.CallResult,
		CancellationMotif:   order.CancellationMotif,
		CallHistory:         callHistory,
		ShippingID:          order.ShippingID,
		ShippingStatus:      order.ShippingStatus,
		Phase:               order.Phase(),
		DeliveryNotePrinted: order.DeliveryNotePrinted,
		ShippingFee:         order.ShippingFee.StringFixed(2),
		Total:               order.Total().StringFixed(2),
		Items:               items,
		Logs:                logs,
		Version:             order.Version,
		CreatedAt:           order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           order.UpdatedAt.Format(time.RFC3339),
	}
}

func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID", "code": "validation_error"})
		return uuid.Nil, false
	}
	return orderID, true
}

// HandleCreateOrder handles POST /v1/orders
func HandleCreateOrder(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
			return
		}

		order, err := orders.CreateOrder(c.Request.Context(), req, middleware.ActorFromContext(c))
		if err != nil {
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusCreated, toOrderResponse(order))
	}
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		order, err := orders.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleListOrders handles GET /v1/orders
func HandleListOrders(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ListOrdersRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
			return
		}
		if req.Limit <= 0 || req.Limit > 200 {
			req.Limit = 50
		}

		list, err := orders.ListOrders(c.Request.Context(), req)
		if err != nil {
			respondError(c, err, logger)
			return
		}

		responses := make([]OrderResponse, len(list))
		for i, order := range list {
			responses[i] = toOrderResponse(order)
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": responses,
			"limit":  req.Limit,
			"offset": req.Offset,
		})
	}
}

// HandleUpdateStatus handles POST /v1/orders/:id/status
func HandleUpdateStatus(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		var req service.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
			return
		}

		order, err := orders.UpdateStatus(c.Request.Context(), orderID, req, middleware.ActorFromContext(c))
		if err != nil {
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleUpdateFulfillment handles POST /v1/orders/:id/fulfillment
func HandleUpdateFulfillment(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		var req service.UpdateFulfillmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
			return
		}

		order, err := orders.UpdateFulfillment(c.Request.Context(), orderID, req, middleware.ActorFromContext(c))
		if err != nil {
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleLogCallAttempt handles POST /v1/orders/:id/calls
func HandleLogCallAttempt(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		var req service.LogCallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
			return
		}

		order, err := orders.LogCallAttempt(c.Request.Context(), orderID, req, middleware.ActorFromContext(c))
		if err != nil {
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// HandleMarkDeliveryNotePrinted handles POST /v1/orders/:id/delivery-note
func HandleMarkDeliveryNotePrinted(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		order, err := orders.MarkDeliveryNotePrinted(c.Request.Context(), orderID, middleware.ActorFromContext(c))
		if err != nil {
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}
