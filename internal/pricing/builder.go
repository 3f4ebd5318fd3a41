package pricing

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/midtrans-gateway/internal/models"
)

const maxItemNameLength = 50

// Synthetic item ids.
const (
	ShippingItemID = "shippingfee"
	TaxItemID      = "taxfee"
	DiscountItemID = "totaldiscount"
	feeItemPrefix  = "itemfee"
)

// Builder projects an order onto the flat item list Midtrans expects.
type Builder struct {
	normalizer *Normalizer
}

func NewBuilder(normalizer *Normalizer) *Builder {
	return &Builder{normalizer: normalizer}
}

// Build returns the line items of order and the gross amount computed from them.
// The order's own stored total is never used: rounding and conversion can make it
// diverge from what Midtrans recomputes out of item_details.
func (b *Builder) Build(order *models.Order) ([]models.LineItem, int64) {
	items := make([]models.LineItem, 0, len(order.Items)+3+len(order.Fees))

	for _, it := range order.Items {
		if it.Quantity <= 0 {
			continue
		}
		items = append(items, models.LineItem{
			ID:       it.ProductID,
			Name:     it.Name,
			Price:    ceil(it.Subtotal),
			Quantity: it.Quantity,
		})
	}

	if order.ShippingTotal.IsPositive() {
		items = append(items, models.LineItem{ID: ShippingItemID, Name: "Shipping Fee", Price: ceil(order.ShippingTotal), Quantity: 1})
	}
	if order.TaxTotal.IsPositive() {
		items = append(items, models.LineItem{ID: TaxItemID, Name: "Tax", Price: ceil(order.TaxTotal), Quantity: 1})
	}
	if order.DiscountTotal.IsPositive() {
		items = append(items, models.LineItem{ID: DiscountItemID, Name: "Total Discount", Price: -ceil(order.DiscountTotal), Quantity: 1})
	}

	for i, fee := range order.Fees {
		items = append(items, models.LineItem{
			ID:       feeItemPrefix + strconv.Itoa(i),
			Name:     fee.Name,
			Price:    ceil(fee.LineTotal),
			Quantity: 1,
		})
	}

	var gross int64
	for i := range items {
		items[i].Price = b.normalizer.Convert(items[i].Price)
		items[i].Name = truncate(items[i].Name, maxItemNameLength)
		gross += items[i].Price * int64(items[i].Quantity)
	}

	return items, gross
}

func ceil(d decimal.Decimal) int64 {
	return d.Ceil().IntPart()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
