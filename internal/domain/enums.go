package domain

// OrderStatus represents the call-center status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusSalesOrder OrderStatus = "sales_order"
	OrderStatusNoReply    OrderStatus = "no_reply"
	OrderStatusCanceled   OrderStatus = "canceled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusSalesOrder,
		OrderStatusNoReply,
		OrderStatusCanceled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid.
// pending is the only initial status and can never be re-entered; any other
// status may be re-classified by an operator.
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	if !s.IsValid() || !newStatus.IsValid() {
		return false
	}
	if newStatus == OrderStatusPending {
		return s == OrderStatusPending
	}
	return true
}

// FulfillmentStatus represents the warehouse status of a confirmed order
type FulfillmentStatus string

const (
	FulfillmentToPick   FulfillmentStatus = "to_pick"
	FulfillmentPicked   FulfillmentStatus = "picked"
	FulfillmentReturned FulfillmentStatus = "returned"
)

// IsValid checks if the fulfillment status is valid
func (s FulfillmentStatus) IsValid() bool {
	switch s {
	case FulfillmentToPick, FulfillmentPicked, FulfillmentReturned:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a fulfillment transition is valid
func (s FulfillmentStatus) CanTransitionTo(newStatus FulfillmentStatus) bool {
	switch s {
	case FulfillmentToPick, "":
		return newStatus == FulfillmentPicked
	case FulfillmentPicked:
		return newStatus == FulfillmentReturned
	case FulfillmentReturned:
		return newStatus == FulfillmentPicked
	default:
		return false
	}
}

// CallResult classifies the outcome of the last call to the customer
type CallResult string

const (
	CallResultNoAnswer      CallResult = "no_answer"
	CallResultBusy          CallResult = "busy"
	CallResultSwitchedOff   CallResult = "switched_off"
	CallResultWrongNumber   CallResult = "wrong_number"
	CallResultCallBackLater CallResult = "call_back_later"

	// Sentinels set by the state machine, never accepted as input
	CallResultConfirmed CallResult = "Confirmed"
	CallResultCanceled  CallResult = "Canceled"
)

// IsValid reports whether the call result can be supplied by an operator
func (r CallResult) IsValid() bool {
	switch r {
	case CallResultNoAnswer,
		CallResultBusy,
		CallResultSwitchedOff,
		CallResultWrongNumber,
		CallResultCallBackLater:
		return true
	default:
		return false
	}
}

// CancellationMotif classifies why an order was canceled
type CancellationMotif string

const (
	MotifCustomerRefused CancellationMotif = "customer_refused"
	MotifDuplicate       CancellationMotif = "duplicate"
	MotifFakeOrder       CancellationMotif = "fake_order"
	MotifOutOfStock      CancellationMotif = "out_of_stock"
	MotifPriceTooHigh    CancellationMotif = "price_too_high"
	MotifUnreachable     CancellationMotif = "unreachable"
	MotifOther           CancellationMotif = "other"

	// Set when a returned parcel cancels the order
	MotifReturned CancellationMotif = "returned"

	// Set when an exported shipment is canceled locally
	MotifShipmentCanceled CancellationMotif = "shipment_canceled"
)

// IsValid reports whether the motif can be supplied by an operator
func (m CancellationMotif) IsValid() bool {
	switch m {
	case MotifCustomerRefused,
		MotifDuplicate,
		MotifFakeOrder,
		MotifOutOfStock,
		MotifPriceTooHigh,
		MotifUnreachable,
		MotifOther:
		return true
	default:
		return false
	}
}

// LogType tags an entry of the order audit trail
type LogType string

const (
	LogTypeCreated           LogType = "order_created"
	LogTypeStatusUpdate      LogType = "status_update"
	LogTypeFulfillmentUpdate LogType = "fulfillment_update"
	LogTypeCallTracking      LogType = "call_tracking"
	LogTypeShipmentSync      LogType = "shipment_sync"
	LogTypePickupRequest     LogType = "pickup_request"
	LogTypeDeliveryNote      LogType = "delivery_note"
)

// PurchaseOrderStatus represents the status of a supplier purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderDraft      PurchaseOrderStatus = "draft"
	PurchaseOrderInProgress PurchaseOrderStatus = "in_progress"
	PurchaseOrderReceived   PurchaseOrderStatus = "received"
	PurchaseOrderCanceled   PurchaseOrderStatus = "canceled"
)

// IsValid checks if the purchase order status is valid
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderDraft,
		PurchaseOrderInProgress,
		PurchaseOrderReceived,
		PurchaseOrderCanceled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a purchase order transition is valid
func (s PurchaseOrderStatus) CanTransitionTo(newStatus PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderDraft:
		return newStatus == PurchaseOrderInProgress ||
			newStatus == PurchaseOrderCanceled
	case PurchaseOrderInProgress:
		return newStatus == PurchaseOrderReceived ||
			newStatus == PurchaseOrderCanceled
	case PurchaseOrderReceived, PurchaseOrderCanceled:
		return false // Terminal states
	default:
		return false
	}
}
