package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarshop/backoffice/internal/domain"
)

// CreateOrderRequest represents an order intake payload
type CreateOrderRequest struct {
	Customer    CustomerInfo       `json:"customer" binding:"required"`
	Items       []OrderItemRequest `json:"items" binding:"required,min=1"`
	ShippingFee decimal.Decimal    `json:"shipping_fee"`
	Note        string             `json:"note"`
}

type CustomerInfo struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	City    string `json:"city" binding:"required"`
	Sector  string `json:"sector"`
	Address string `json:"address" binding:"required"`
}

// OrderItemRequest is one requested line. UnitPrice may be omitted to use
// the catalog price.
type OrderItemRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type UpdateStatusRequest struct {
	Status            domain.OrderStatus       `json:"status" binding:"required"`
	CallResult        domain.CallResult        `json:"call_result"`
	CancellationMotif domain.CancellationMotif `json:"cancellation_motif"`
}

type UpdateFulfillmentRequest struct {
	Status domain.FulfillmentStatus `json:"status" binding:"required"`
}

type LogCallRequest struct {
	Day     int `json:"day" binding:"required"`
	Attempt int `json:"attempt" binding:"required"`
}

// ListOrdersRequest filters the order listing. Phase is derived, so it is
// applied after loading.
type ListOrdersRequest struct {
	Status            domain.OrderStatus       `form:"status"`
	FulfillmentStatus domain.FulfillmentStatus `form:"fulfillment_status"`
	Phase             domain.Phase             `form:"phase"`
	Limit             int                      `form:"limit"`
	Offset            int                      `form:"offset"`
}

type BulkRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

type PickupRequest struct {
	OrderIDs      []uuid.UUID `json:"order_ids" binding:"required,min=1"`
	PickupPointID string      `json:"pickup_point_id" binding:"required"`
}

// ItemError is the failure of one item of a bulk operation
type ItemError struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

// BulkResult aggregates a bulk operation. TotalCount counts the attempted
// items; pre-filtered items are listed in Skipped only.
type BulkResult struct {
	SuccessCount int         `json:"success_count"`
	TotalCount   int         `json:"total_count"`
	Skipped      []uuid.UUID `json:"skipped"`
	Errors       []ItemError `json:"errors"`
}

func newBulkResult() *BulkResult {
	return &BulkResult{
		Skipped: []uuid.UUID{},
		Errors:  []ItemError{},
	}
}

func (r *BulkResult) fail(id uuid.UUID, err error) {
	r.Errors = append(r.Errors, ItemError{ID: id, Error: err.Error()})
}
