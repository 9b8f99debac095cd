package pricing

import (
	"github.com/kalakriti/commerce-engine/internal/cart"
	"github.com/kalakriti/commerce-engine/pkg/config"
	"github.com/shopspring/decimal"
)

// Quote is the derived order pricing snapshot. It is recomputed from the live
// cart and never persisted, so it cannot drift from its inputs. Amounts are
// whole rupees.
type Quote struct {
	Subtotal int `json:"subtotal"`
	Shipping int `json:"shipping"`
	Tax      int `json:"tax"`
	Total    int `json:"total"`
}

// Engine computes quotes from resolved cart lines. It is a total function
// over already-validated non-negative inputs; there are no error states.
type Engine struct {
	freeShippingThreshold int
	flatShippingFee       int
	taxRate               decimal.Decimal
}

// NewEngine builds a pricing engine from configuration. An unparseable tax
// rate falls back to zero tax rather than failing checkout math.
func NewEngine(cfg config.PricingConfig) *Engine {
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil || rate.IsNegative() {
		rate = decimal.Zero
	}
	return &Engine{
		freeShippingThreshold: cfg.FreeShippingThreshold,
		flatShippingFee:       cfg.FlatShippingFee,
		taxRate:               rate,
	}
}

// Quote prices the given lines: subtotal, threshold-based shipping, flat-rate
// tax rounded half-up to the nearest rupee, and the grand total.
func (e *Engine) Quote(lines []cart.Line) Quote {
	var subtotal int
	for _, line := range lines {
		subtotal += line.UnitPrice * line.Quantity
	}

	// the threshold comparison is inclusive: a subtotal exactly at the
	// threshold ships free
	shipping := e.flatShippingFee
	if subtotal >= e.freeShippingThreshold {
		shipping = 0
	}

	tax := int(decimal.NewFromInt(int64(subtotal)).Mul(e.taxRate).Round(0).IntPart())

	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}
