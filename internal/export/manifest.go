package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jafarshop/backoffice/internal/service"
)

const manifestSheet = "Ramassage"

var manifestHeaders = []string{
	"N° expédition", "Référence", "Client", "Téléphone", "Ville", "Secteur",
	"Adresse", "Marchandise", "Montant CRBT", "Statut transporteur", "Phase",
}

var manifestWidths = []float64{16, 38, 22, 16, 16, 16, 32, 40, 14, 24, 16}

// PickupManifest renders the driver hand-over sheet. The last row holds the
// parcel count and the total cash to collect.
func PickupManifest(rows []service.ManifestRow, generatedAt time.Time) (*excelize.File, string, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", manifestSheet); err != nil {
		f.Close()
		return nil, "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, "", err
	}

	for i, h := range manifestHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(manifestSheet, cell, h)
		f.SetCellStyle(manifestSheet, cell, cell, headerStyle)
	}

	var total float64
	for i, r := range rows {
		row := i + 2
		order := r.Order
		shippingID := ""
		if order.HasShipment() {
			shippingID = *order.ShippingID
		}
		amount, _ := order.Total().Float64()
		total += amount

		f.SetCellValue(manifestSheet, fmt.Sprintf("A%d", row), shippingID)
		f.SetCellValue(manifestSheet, fmt.Sprintf("B%d", row), order.ID.String())
		f.SetCellValue(manifestSheet, fmt.Sprintf("C%d", row), order.Customer.Name)
		f.SetCellValue(manifestSheet, fmt.Sprintf("D%d", row), order.Customer.Phone)
		f.SetCellValue(manifestSheet, fmt.Sprintf("E%d", row), order.Customer.City)
		f.SetCellValue(manifestSheet, fmt.Sprintf("F%d", row), order.Customer.Sector)
		f.SetCellValue(manifestSheet, fmt.Sprintf("G%d", row), order.Customer.Address)
		f.SetCellValue(manifestSheet, fmt.Sprintf("H%d", row), r.Merchandise)
		f.SetCellValue(manifestSheet, fmt.Sprintf("I%d", row), amount)
		f.SetCellValue(manifestSheet, fmt.Sprintf("J%d", row), order.ShippingStatus)
		f.SetCellValue(manifestSheet, fmt.Sprintf("K%d", row), string(order.Phase()))
	}

	summaryRow := len(rows) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellValue(manifestSheet, fmt.Sprintf("A%d", summaryRow), "Total")
	f.SetCellValue(manifestSheet, fmt.Sprintf("C%d", summaryRow), fmt.Sprintf("%d colis", len(rows)))
	f.SetCellValue(manifestSheet, fmt.Sprintf("I%d", summaryRow), total)
	f.SetCellStyle(manifestSheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("K%d", summaryRow), summaryStyle)

	for i, w := range manifestWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(manifestSheet, col, col, w)
	}

	filename := fmt.Sprintf("ramassage_%s.xlsx", generatedAt.Format("20060102_1504"))
	return f, filename, nil
}
