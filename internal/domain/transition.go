package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jafarshop/backoffice/pkg/errors"
)

// TransitionContext carries the classifiers required by some transitions
type TransitionContext struct {
	CallResult        CallResult
	CancellationMotif CancellationMotif
}

// ApplyTransition moves the order to newStatus. It returns false without
// touching the order when newStatus equals the current status.
func (o *Order) ApplyTransition(newStatus OrderStatus, ctx TransitionContext, actor string, now time.Time) (bool, error) {
	if !newStatus.IsValid() {
		return false, &errors.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown status %q", newStatus)}
	}
	if newStatus == o.Status {
		return false, nil
	}
	if !o.Status.CanTransitionTo(newStatus) {
		return false, &errors.ErrInvalidStateTransition{From: o.Status, To: newStatus}
	}

	parts := []string{fmt.Sprintf("Status: %s → %s", o.Status, newStatus)}

	switch newStatus {
	case OrderStatusNoReply:
		if !ctx.CallResult.IsValid() {
			return false, &errors.ErrValidation{Field: "call_result", Message: "a call result is required to mark an order as no reply"}
		}
		if o.CallHistory == nil {
			o.CallHistory = map[int]int{}
		}
		// the first attempt is implied; never lower an existing count
		if o.CallHistory[1] < 1 {
			o.CallHistory[1] = 1
		}
		o.CallResult = ctx.CallResult
		parts = append(parts,
			fmt.Sprintf("Call result: %s", ctx.CallResult),
			fmt.Sprintf("Call attempt Day 1 #%d", o.CallHistory[1]),
		)

	case OrderStatusCanceled:
		if !ctx.CancellationMotif.IsValid() {
			return false, &errors.ErrValidation{Field: "cancellation_motif", Message: "a cancellation motif is required to cancel an order"}
		}
		o.CallResult = CallResultCanceled
		o.CancellationMotif = ctx.CancellationMotif
		parts = append(parts, fmt.Sprintf("Motif: %s", ctx.CancellationMotif))

	case OrderStatusSalesOrder:
		o.CallResult = CallResultConfirmed
		if o.FulfillmentStatus == "" {
			o.FulfillmentStatus = FulfillmentToPick
		}
	}

	o.Status = newStatus
	o.appendLog(LogTypeStatusUpdate, strings.Join(parts, " | "), actor, now)
	return true, nil
}

// ApplyFulfillment moves the warehouse sub-status. Returning a parcel also
// cancels the order and restoring it re-confirms the order; both axes change
// together under a single log entry.
func (o *Order) ApplyFulfillment(newStatus FulfillmentStatus, actor string, now time.Time) (bool, error) {
	if !newStatus.IsValid() {
		return false, &errors.ErrValidation{Field: "fulfillment_status", Message: fmt.Sprintf("unknown fulfillment status %q", newStatus)}
	}
	current := o.FulfillmentStatus
	if current == "" {
		current = FulfillmentToPick
	}
	if newStatus == current {
		return false, nil
	}
	if !current.CanTransitionTo(newStatus) {
		return false, &errors.ErrInvalidStateTransition{From: current, To: newStatus}
	}

	message := fmt.Sprintf("Fulfillment: %s → %s", current, newStatus)

	switch {
	case current == FulfillmentToPick && newStatus == FulfillmentPicked:
		if o.Status != OrderStatusSalesOrder {
			return false, &errors.ErrInvalidStateTransition{From: o.Status, To: newStatus}
		}

	case newStatus == FulfillmentReturned:
		if o.Status != OrderStatusCanceled {
			message += fmt.Sprintf(" | Status: %s → %s", o.Status, OrderStatusCanceled)
		}
		o.Status = OrderStatusCanceled
		o.CallResult = CallResultCanceled
		o.CancellationMotif = MotifReturned

	case current == FulfillmentReturned && newStatus == FulfillmentPicked:
		if o.Status != OrderStatusSalesOrder {
			message += fmt.Sprintf(" | Status: %s → %s", o.Status, OrderStatusSalesOrder)
		}
		o.Status = OrderStatusSalesOrder
		o.CallResult = CallResultConfirmed
		o.CancellationMotif = ""
	}

	o.FulfillmentStatus = newStatus
	o.appendLog(LogTypeFulfillmentUpdate, message, actor, now)
	return true, nil
}

// MarkDeliveryNotePrinted flags the delivery note as printed
func (o *Order) MarkDeliveryNotePrinted(actor string, now time.Time) error {
	if !o.HasShipment() {
		return &errors.ErrValidation{Field: "shipping_id", Message: "order has not been exported to the carrier"}
	}
	o.DeliveryNotePrinted = true
	o.appendLog(LogTypeDeliveryNote, "Delivery note printed", actor, now)
	return nil
}

// Receive marks a purchase order as received
func (p *PurchaseOrder) Receive(actor string, now time.Time) error {
	if !p.Status.CanTransitionTo(PurchaseOrderReceived) {
		return &errors.ErrInvalidStateTransition{From: p.Status, To: PurchaseOrderReceived}
	}
	message := fmt.Sprintf("Status: %s → %s", p.Status, PurchaseOrderReceived)
	p.Status = PurchaseOrderReceived
	p.ReceivedAt = &now
	p.UpdatedAt = now
	p.Logs = append(p.Logs, LogEntry{
		ID:        uuid.New(),
		Type:      LogTypeStatusUpdate,
		Message:   message,
		Timestamp: now,
		Actor:     actor,
	})
	return nil
}
