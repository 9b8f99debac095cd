package cart

import (
	"fmt"
	"sort"
	"strings"
)

// Variant maps an axis name to the chosen option, e.g. {"Color": "Blue"}.
// A nil or empty map means the product has no variant axes.
type Variant map[string]string

// Equal reports structural equality: same keys, same values, order
// irrelevant. Nil and empty variants compare equal.
func (v Variant) Equal(other Variant) bool {
	if len(v) != len(other) {
		return false
	}
	for axis, option := range v {
		if got, ok := other[axis]; !ok || got != option {
			return false
		}
	}
	return true
}

// Key renders a canonical representation with sorted axes; used for log
// fields and error details, never for equality.
func (v Variant) Key() string {
	if len(v) == 0 {
		return ""
	}
	axes := make([]string, 0, len(v))
	for axis := range v {
		axes = append(axes, axis)
	}
	sort.Strings(axes)
	pairs := make([]string, 0, len(axes))
	for _, axis := range axes {
		pairs = append(pairs, fmt.Sprintf("%s=%s", axis, v[axis]))
	}
	return strings.Join(pairs, ";")
}

// Line is one cart entry, identified by the (ProductID, Variant) composite
// key. UnitPrice is captured at add-time for the variant actually selected.
// Amounts are whole rupees.
type Line struct {
	ProductID string  `json:"productId"`
	Variant   Variant `json:"variant,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice int     `json:"unitPrice"`
}

// SameIdentity reports whether two lines share the composite key.
func (l Line) SameIdentity(other Line) bool {
	return l.ProductID == other.ProductID && l.Variant.Equal(other.Variant)
}

// validLines is the schema predicate the cart store enforces on every read
// and write: each element carries a product id and a positive quantity.
func validLines(lines []Line) bool {
	for _, line := range lines {
		if line.ProductID == "" {
			return false
		}
		if line.Quantity <= 0 {
			return false
		}
		if line.UnitPrice < 0 {
			return false
		}
	}
	return true
}
