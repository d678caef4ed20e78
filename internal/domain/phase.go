package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Phase is a coarse, non-authoritative bucket derived from the carrier's
// free-text status, used to group orders in the fulfillment view
type Phase string

const (
	PhaseAwaitingExport Phase = "awaiting_export"
	PhaseAwaitingPickup Phase = "awaiting_pickup"
	PhasePickedUp       Phase = "picked_up"
	PhaseDone           Phase = "done"
)

// IsValid checks if the phase is valid
func (p Phase) IsValid() bool {
	switch p {
	case PhaseAwaitingExport, PhaseAwaitingPickup, PhasePickedUp, PhaseDone:
		return true
	default:
		return false
	}
}

// Marker tables, compared after case and accent folding.
// The carrier does not guarantee its vocabulary; extend these when it changes.
var (
	// delivered only as a whole word: "livreur" is the driver, "livraison"
	// the delivery run
	deliveredPattern = regexp.MustCompile(`\b(livree?s?|delivered)\b`)
	// failed attempts mention delivery but the parcel is still out
	failedMarkers = []string{
		"non livr",
		"pas livr",
		"not delivered",
		"undelivered",
		"echec",
		"refus",
	}
	dispatchMarkers = []string{
		"expedi", // expédié, expédition
		"en cours de livraison",
		"livraison en cours",
		"en cours de distribution",
		"acheminement",
		"en route",
		"in transit",
		"dispatched",
		"shipped",
	}
	pickupMarkers = []string{
		"pickup:",
		"ramasse", // ramassé
		"picked up",
		"collecte",
		"livreur", // remis au livreur
	}
)

// DerivePhase classifies a shipment from its carrier identifier and last
// known status. Failed-delivery wording is checked first, then delivery
// markers win over dispatch and pickup markers.
func DerivePhase(shippingID *string, shippingStatus string) Phase {
	if shippingID == nil || *shippingID == "" {
		return PhaseAwaitingExport
	}
	status := FoldText(shippingStatus)
	switch {
	case containsAny(status, failedMarkers):
		return PhasePickedUp
	case deliveredPattern.MatchString(status):
		return PhaseDone
	case containsAny(status, dispatchMarkers), containsAny(status, pickupMarkers):
		return PhasePickedUp
	default:
		return PhaseAwaitingPickup
	}
}

// Phase returns the derived shipment phase of the order
func (o *Order) Phase() Phase {
	return DerivePhase(o.ShippingID, o.ShippingStatus)
}

// FoldText lowercases s and strips its diacritics for accent-insensitive matching
func FoldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
