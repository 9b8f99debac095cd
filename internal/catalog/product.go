package catalog

// Inventory is the stock snapshot carried by a product root or a variant.
type Inventory struct {
	Available int `json:"available"`
	Total     int `json:"total"`
}

// VariantOption is one purchasable combination a product declares: a display
// name, the option list identifying the combination, and optional price and
// inventory overrides. When an override is absent the product root applies.
type VariantOption struct {
	Name      string     `json:"name"`
	Options   []string   `json:"options"`
	Price     *int       `json:"price,omitempty"`
	Inventory *Inventory `json:"inventory,omitempty"`
}

// Product is the read-only catalog record consumed by the resolver. Prices
// are whole rupees.
type Product struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	BasePrice int             `json:"price"`
	Inventory Inventory       `json:"inventory"`
	Variants  []VariantOption `json:"variants,omitempty"`
}
