package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operator represents a back-office user allowed to mutate orders
type Operator struct {
	ID         uuid.UUID
	Name       string
	APIKeyHash string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Customer holds the delivery contact of an order
type Customer struct {
	Name    string
	Phone   string
	City    string
	Sector  string
	Address string
}

// Order is the central aggregate of the back office
type Order struct {
	ID                  uuid.UUID
	Customer            Customer
	Note                string
	ShippingFee         decimal.Decimal
	Items               []OrderItem
	Status              OrderStatus
	FulfillmentStatus   FulfillmentStatus
	CallResult          CallResult
	CancellationMotif   CancellationMotif
	CallHistory         map[int]int
	ShippingID          *string
	ShippingStatus      string
	DeliveryNotePrinted bool
	Logs                []LogEntry
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OrderItem is a physical line of an order, after kit expansion
type OrderItem struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Amount returns quantity * unit price
func (i OrderItem) Amount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// LogEntry is one record of the append-only order audit trail
type LogEntry struct {
	ID        uuid.UUID
	Type      LogType
	Message   string
	Timestamp time.Time
	Actor     string
}

// NewOrder creates a pending order
func NewOrder(customer Customer, items []OrderItem, shippingFee decimal.Decimal, note, actor string, now time.Time) *Order {
	o := &Order{
		ID:                uuid.New(),
		Customer:          customer,
		Note:              note,
		ShippingFee:       shippingFee,
		Items:             items,
		Status:            OrderStatusPending,
		FulfillmentStatus: FulfillmentToPick,
		CallHistory:       map[int]int{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	o.appendLog(LogTypeCreated, "Order created", actor, now)
	return o
}

// Subtotal returns the merchandise amount
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount())
	}
	return total
}

// Total returns the amount collected on delivery
func (o *Order) Total() decimal.Decimal {
	return o.Subtotal().Add(o.ShippingFee)
}

// HasShipment reports whether the carrier has assigned an identifier
func (o *Order) HasShipment() bool {
	return o.ShippingID != nil && *o.ShippingID != ""
}

// CallCount returns the number of attempts logged for a day
func (o *Order) CallCount(day int) int {
	if o.CallHistory == nil {
		return 0
	}
	return o.CallHistory[day]
}

// LastLog returns the most recent entry of the given type
func (o *Order) LastLog(logType LogType) (LogEntry, bool) {
	for i := len(o.Logs) - 1; i >= 0; i-- {
		if o.Logs[i].Type == logType {
			return o.Logs[i], true
		}
	}
	return LogEntry{}, false
}

func (o *Order) appendLog(logType LogType, message, actor string, now time.Time) {
	o.Logs = append(o.Logs, LogEntry{
		ID:        uuid.New(),
		Type:      logType,
		Message:   message,
		Timestamp: now,
		Actor:     actor,
	})
	o.UpdatedAt = now
}

// Product is the read-only catalog entry used for pricing and summaries
type Product struct {
	ID    uuid.UUID
	Name  string
	SKU   string
	Price decimal.Decimal
}

// Kit is the recipe that turns a virtual product into physical components
type Kit struct {
	ID              uuid.UUID
	TargetProductID uuid.UUID
	OutputQuantity  decimal.Decimal
	Components      []KitComponent
	IsActive        bool
}

// KitComponent is one physical input of a kit application
type KitComponent struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// PurchaseOrder represents a supplier-facing order
type PurchaseOrder struct {
	ID           uuid.UUID
	SupplierName string
	Status       PurchaseOrderStatus
	ReceivedAt   *time.Time
	Logs         []LogEntry
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
