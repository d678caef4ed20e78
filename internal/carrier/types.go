package carrier

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/backoffice/internal/domain"
)

// Envelope is the body shape of every carrier response. A non-zero Status
// is a domain failure even when the HTTP status is 200.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginData struct {
	Token string `json:"token"`
}

// DeliveryPayload is the body of a delivery create/update. A non-empty ID
// makes the call an update of that delivery.
type DeliveryPayload struct {
	ID           string          `json:"id,omitempty"`
	Reference    string          `json:"reference" validate:"required"`
	CustomerName string          `json:"customer_name" validate:"required"`
	Phone        string          `json:"phone" validate:"required,min=8,max=20"`
	City         string          `json:"city" validate:"required"`
	Sector       string          `json:"sector,omitempty"`
	Address      string          `json:"address" validate:"required"`
	Merchandise  string          `json:"merchandise" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
}

// DeliveryResult is the data of a successful save
type DeliveryResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type pickupRequest struct {
	IDs           []string `json:"ids" validate:"required,min=1,dive,required"`
	PickupPointID string   `json:"pickup_point_id" validate:"required"`
}

// City is a destination served by the carrier
type City struct {
	Name    string   `json:"name"`
	Sectors []string `json:"sectors"`
}

// SearchCities returns the cities whose name or one of whose sectors
// contains query, ignoring case and accents
func SearchCities(cities []City, query string) []City {
	needle := domain.FoldText(strings.TrimSpace(query))
	matches := make([]City, 0)
	for _, city := range cities {
		if strings.Contains(domain.FoldText(city.Name), needle) {
			matches = append(matches, city)
			continue
		}
		for _, sector := range city.Sectors {
			if strings.Contains(domain.FoldText(sector), needle) {
				matches = append(matches, city)
				break
			}
		}
	}
	return matches
}
