package cart

import (
	"context"
	"time"

	"github.com/kalakriti/commerce-engine/internal/storage"
	"github.com/kalakriti/commerce-engine/internal/store"
	pkgerrors "github.com/kalakriti/commerce-engine/pkg/errors"
	"github.com/kalakriti/commerce-engine/pkg/logger"
	"github.com/kalakriti/commerce-engine/pkg/metrics"
)

// StoreSuffix is appended to the storage namespace to form the durable key.
const StoreSuffix = "cart"

// ModelParams groups dependencies for the cart model.
type ModelParams struct {
	Backend   storage.Backend
	Namespace string
	Logger    *logger.Logger
	Metrics   *metrics.StoreMetrics
	OnError   func(error)
	Debounce  time.Duration
}

// Model is the composite-keyed line collection persisted through one store
// instance. The cart never contains two lines with equal (productId, variant).
type Model struct {
	store *store.Store[[]Line]
}

// NewModel builds a cart model backed by the provided storage.
func NewModel(params ModelParams) (*Model, error) {
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage backend is required")
	}
	if params.Namespace == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage namespace is required")
	}
	st, err := store.New(store.Options[[]Line]{
		Backend:  params.Backend,
		Key:      params.Namespace + ":" + StoreSuffix,
		Name:     StoreSuffix,
		Default:  func() []Line { return []Line{} },
		Validate: validLines,
		OnError:  params.OnError,
		Logger:   params.Logger,
		Metrics:  params.Metrics,
		Debounce: params.Debounce,
	})
	if err != nil {
		return nil, err
	}
	return &Model{store: st}, nil
}

// AddItem merges the incoming line into an existing line with the same
// composite key, summing quantities; the incoming line's other fields
// (including unit price) supersede the stored ones. Without a match the line
// is appended, preserving insertion order.
func (m *Model) AddItem(ctx context.Context, line Line) error {
	if line.ProductID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if line.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if line.UnitPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	return m.store.Update(ctx, func(lines []Line) []Line {
		for i, existing := range lines {
			if existing.SameIdentity(line) {
				merged := line
				merged.Quantity = existing.Quantity + line.Quantity
				lines[i] = merged
				return lines
			}
		}
		return append(lines, line)
	})
}

// RemoveItem removes the line with the exact composite key. A nil variant
// targets the line that has no variant, not any line with the product id.
func (m *Model) RemoveItem(ctx context.Context, productID string, variant Variant) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	target := Line{ProductID: productID, Variant: variant}
	return m.store.Update(ctx, func(lines []Line) []Line {
		kept := lines[:0]
		for _, line := range lines {
			if !line.SameIdentity(target) {
				kept = append(kept, line)
			}
		}
		return kept
	})
}

// UpdateQuantity rewrites the matching line's quantity. A quantity of zero or
// below removes the line instead.
func (m *Model) UpdateQuantity(ctx context.Context, productID string, quantity int, variant Variant) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return m.RemoveItem(ctx, productID, variant)
	}
	target := Line{ProductID: productID, Variant: variant}
	return m.store.Update(ctx, func(lines []Line) []Line {
		for i, line := range lines {
			if line.SameIdentity(target) {
				lines[i].Quantity = quantity
				break
			}
		}
		return lines
	})
}

// Clear resets the cart to the empty sequence and clears durable storage.
func (m *Model) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// Items returns the current lines in insertion order.
func (m *Model) Items(ctx context.Context) []Line {
	return m.store.Get(ctx)
}

// TotalItems is the sum of quantities, not the line count.
func (m *Model) TotalItems(ctx context.Context) int {
	var total int
	for _, line := range m.store.Get(ctx) {
		total += line.Quantity
	}
	return total
}

// TotalPrice sums unitPrice x quantity over all lines. Prices are as captured
// at add-time; live catalog drift is a collaborator's concern.
func (m *Model) TotalPrice(ctx context.Context) int {
	var total int
	for _, line := range m.store.Get(ctx) {
		total += line.UnitPrice * line.Quantity
	}
	return total
}

// Subscribe registers a listener for cart snapshots. Header badges and cart
// pages must derive from the same subscription to avoid drift.
func (m *Model) Subscribe(fn func([]Line)) func() {
	return m.store.Subscribe(fn)
}

// Flush forces any debounced write to durable storage.
func (m *Model) Flush(ctx context.Context) error {
	return m.store.Flush(ctx)
}
