package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/service"
)

func TestPickupManifest(t *testing.T) {
	now := time.Date(2024, 5, 2, 14, 30, 0, 0, time.UTC)
	items := []domain.OrderItem{{ProductID: uuid.New(), Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(20)}}

	first := domain.NewOrder(domain.Customer{Name: "Amal", Phone: "0600000000", City: "Casablanca"}, items, decimal.NewFromInt(25), "", "agent", now)
	first.ApplyShipmentSync("CAR-1", "Nouveau colis", "agent", now)
	second := domain.NewOrder(domain.Customer{Name: "Yassine", City: "Fès"}, items, decimal.NewFromInt(10), "", "agent", now)

	f, filename, err := PickupManifest([]service.ManifestRow{
		{Order: first, Merchandise: "2 x Savon"},
		{Order: second, Merchandise: "2 x Savon"},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "ramassage_20240502_1430.xlsx", filename)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(manifestSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, manifestHeaders[0], rows[0][0])
	assert.Equal(t, "CAR-1", rows[1][0])
	assert.Equal(t, "Amal", rows[1][2])
	assert.Equal(t, "65", rows[1][8])
	assert.Equal(t, string(domain.PhaseAwaitingPickup), rows[1][10])
	assert.Equal(t, "", rows[2][0])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "2 colis", rows[3][2])
	assert.Equal(t, "115", rows[3][8])
}
