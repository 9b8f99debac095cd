package catalog

// Resolution is the displayed price and stock for a variant selection.
type Resolution struct {
	Price     int
	Available int
}

// Resolve returns the active price and available stock for the user's
// per-axis selection. It is pure and total: a selection matching no declared
// combination falls back to the product root, never an error.
//
// Matching rule: the first declared combination whose full option list is a
// subset of the selected options wins; ties break by declaration order. The
// match is by option membership across the whole selection, not by exact
// per-axis equality. A combination declaring no options is a vacuous subset
// and matches any non-empty selection.
func Resolve(product Product, selection map[string]string) Resolution {
	root := Resolution{
		Price:     product.BasePrice,
		Available: product.Inventory.Available,
	}
	if len(product.Variants) == 0 || len(selection) == 0 {
		return root
	}

	selected := make(map[string]struct{}, len(selection))
	for _, option := range selection {
		selected[option] = struct{}{}
	}

	for _, variant := range product.Variants {
		if !optionsSatisfied(variant.Options, selected) {
			continue
		}
		resolved := root
		if variant.Price != nil {
			resolved.Price = *variant.Price
		}
		if variant.Inventory != nil {
			resolved.Available = variant.Inventory.Available
		}
		return resolved
	}
	return root
}

func optionsSatisfied(options []string, selected map[string]struct{}) bool {
	for _, option := range options {
		if _, ok := selected[option]; !ok {
			return false
		}
	}
	return true
}
