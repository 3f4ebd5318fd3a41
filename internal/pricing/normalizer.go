package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Normalizer converts store-currency prices into the settlement currency.
type Normalizer struct {
	storeCurrency      string
	settlementCurrency string
	rate               decimal.Decimal
}

func NewNormalizer(storeCurrency, settlementCurrency string, rate decimal.Decimal) *Normalizer {
	return &Normalizer{
		storeCurrency:      storeCurrency,
		settlementCurrency: settlementCurrency,
		rate:               rate,
	}
}

// Applies reports whether prices need converting at all.
func (n *Normalizer) Applies() bool {
	return !strings.EqualFold(n.storeCurrency, n.settlementCurrency)
}

// Convert multiplies price by the configured rate and truncates toward zero.
func (n *Normalizer) Convert(price int64) int64 {
	if !n.Applies() {
		return price
	}
	return decimal.NewFromInt(price).Mul(n.rate).IntPart()
}
