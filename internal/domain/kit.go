package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestedItem is a line as sold, before kit expansion
type RequestedItem struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// ExpandKits replaces every kit target in the requested lines by the kit's
// physical components, scaled by requested/output quantity, and merges lines
// sharing a product (first-seen position and price win).
//
// Expansion is a single pass: a component that is itself a kit target is
// emitted as-is and not expanded again.
func ExpandKits(requested []RequestedItem, kits []Kit, catalog map[uuid.UUID]Product) []OrderItem {
	byTarget := make(map[uuid.UUID]Kit, len(kits))
	for _, kit := range kits {
		if !kit.IsActive {
			continue
		}
		if _, exists := byTarget[kit.TargetProductID]; !exists {
			byTarget[kit.TargetProductID] = kit
		}
	}

	merged := make([]OrderItem, 0, len(requested))
	index := make(map[uuid.UUID]int)
	add := func(item OrderItem) {
		if pos, ok := index[item.ProductID]; ok {
			merged[pos].Quantity = merged[pos].Quantity.Add(item.Quantity)
			return
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}

	for _, req := range requested {
		kit, ok := byTarget[req.ProductID]
		if !ok {
			price := req.UnitPrice
			if price.IsZero() {
				price = catalogPrice(catalog, req.ProductID)
			}
			add(OrderItem{ProductID: req.ProductID, Quantity: req.Quantity, UnitPrice: price})
			continue
		}

		output := kit.OutputQuantity
		if output.LessThanOrEqual(decimal.Zero) {
			output = decimal.NewFromInt(1)
		}
		for _, component := range kit.Components {
			// multiply first so exact ratios stay exact
			quantity := component.Quantity.Mul(req.Quantity).Div(output)
			add(OrderItem{
				ProductID: component.ProductID,
				Quantity:  quantity,
				UnitPrice: catalogPrice(catalog, component.ProductID),
			})
		}
	}

	return merged
}

func catalogPrice(catalog map[uuid.UUID]Product, productID uuid.UUID) decimal.Decimal {
	if product, ok := catalog[productID]; ok {
		return product.Price
	}
	return decimal.Zero
}
