package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jafarshop/backoffice/pkg/errors"
)

const (
	// ShippingStatusCanceled is stamped on locally canceled shipments
	ShippingStatusCanceled = "ANNULÉE"
	// PickupStatusPrefix prefixes the status stamped by a pickup request
	PickupStatusPrefix = "Pickup: "
	// DefaultPickupLabel is used when a pickup point has no known label
	DefaultPickupLabel = "Bureau"
)

// CanShip reports whether the order may be sent to the carrier
func (o *Order) CanShip() error {
	if o.Status != OrderStatusSalesOrder {
		return &errors.ErrValidation{Field: "status", Message: fmt.Sprintf("order must be a sales order to ship, got %s", o.Status)}
	}
	if o.FulfillmentStatus == FulfillmentReturned {
		return &errors.ErrValidation{Field: "fulfillment_status", Message: "returned orders cannot be shipped"}
	}
	return nil
}

// ApplyShipmentSync records a successful carrier create/update. The carrier
// identifier is only written once; later calls keep the first one.
func (o *Order) ApplyShipmentSync(carrierID, carrierStatus, actor string, now time.Time) {
	created := !o.HasShipment()
	if created {
		id := carrierID
		o.ShippingID = &id
	}
	o.ShippingStatus = carrierStatus
	o.DeliveryNotePrinted = false

	verb := "updated"
	if created {
		verb = "created"
	}
	o.appendLog(LogTypeShipmentSync,
		fmt.Sprintf("Shipment %s: %s | Carrier status: %s", verb, *o.ShippingID, carrierStatus),
		actor, now)
}

// StampPickup records that a driver pickup was requested at label
func (o *Order) StampPickup(label, actor string, now time.Time) {
	o.ShippingStatus = PickupStatusPrefix + label
	o.appendLog(LogTypePickupRequest, fmt.Sprintf("Pickup requested at %s", label), actor, now)
}

// CancelShipment cancels an exported order and its shipment locally. The
// carrier is not notified. Status, call result, motif and shipping status
// change together under one status_update entry; an order already canceled
// this way is left untouched and false is returned.
func (o *Order) CancelShipment(actor string, now time.Time) (bool, error) {
	if !o.HasShipment() {
		return false, &errors.ErrValidation{Field: "shipping_id", Message: "order has not been exported to the carrier"}
	}
	if o.Status == OrderStatusCanceled && o.ShippingStatus == ShippingStatusCanceled {
		return false, nil
	}
	if o.Status != OrderStatusCanceled && !o.Status.CanTransitionTo(OrderStatusCanceled) {
		return false, &errors.ErrInvalidStateTransition{From: o.Status, To: OrderStatusCanceled}
	}

	var parts []string
	if o.Status != OrderStatusCanceled {
		parts = append(parts, fmt.Sprintf("Status: %s → %s", o.Status, OrderStatusCanceled))
		o.CancellationMotif = MotifShipmentCanceled
	} else if o.CancellationMotif == "" {
		o.CancellationMotif = MotifShipmentCanceled
	}
	parts = append(parts,
		fmt.Sprintf("Motif: %s", o.CancellationMotif),
		fmt.Sprintf("Shipment %s canceled locally", *o.ShippingID),
	)

	o.Status = OrderStatusCanceled
	o.CallResult = CallResultCanceled
	o.ShippingStatus = ShippingStatusCanceled
	o.appendLog(LogTypeStatusUpdate, strings.Join(parts, " | "), actor, now)
	return true, nil
}

// PickupLocations maps carrier pickup point ids to human-readable labels
type PickupLocations map[string]string

var defaultPickupLocations = PickupLocations{
	"1": "Entrepôt Principal",
	"2": "Agence Centre-Ville",
}

var numericToken = regexp.MustCompile(`\d+`)

// ParsePickupLocations parses one "Label-ID" or "Label:ID" mapping per line.
// The last numeric token of a line is the id; lines without one are ignored.
func ParsePickupLocations(raw string) PickupLocations {
	locations := PickupLocations{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		matches := numericToken.FindAllStringIndex(line, -1)
		if len(matches) == 0 {
			continue
		}
		last := matches[len(matches)-1]
		id := line[last[0]:last[1]]
		label := strings.TrimSpace(strings.TrimRight(line[:last[0]], " \t-:"))
		if label == "" {
			continue
		}
		locations[id] = label
	}
	return locations
}

// Label resolves the label of a pickup point, falling back to the built-in
// points and then to DefaultPickupLabel
func (l PickupLocations) Label(pointID string) string {
	if label, ok := l[pointID]; ok {
		return label
	}
	if label, ok := defaultPickupLocations[pointID]; ok {
		return label
	}
	return DefaultPickupLabel
}
