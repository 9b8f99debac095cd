package wishlist

import (
	"context"

	"github.com/kalakriti/commerce-engine/internal/storage"
	"github.com/kalakriti/commerce-engine/internal/store"
	pkgerrors "github.com/kalakriti/commerce-engine/pkg/errors"
	"github.com/kalakriti/commerce-engine/pkg/logger"
	"github.com/kalakriti/commerce-engine/pkg/metrics"
)

// StoreSuffix is appended to the storage namespace to form the durable key.
const StoreSuffix = "wishlist"

// ModelParams groups dependencies for the wishlist model.
type ModelParams struct {
	Backend   storage.Backend
	Namespace string
	Logger    *logger.Logger
	Metrics   *metrics.StoreMetrics
	OnError   func(error)
}

// Model is the persisted set of liked product ids, ordered by first like.
type Model struct {
	store *store.Store[[]string]
}

func NewModel(params ModelParams) (*Model, error) {
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage backend is required")
	}
	if params.Namespace == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage namespace is required")
	}
	st, err := store.New(store.Options[[]string]{
		Backend: params.Backend,
		Key:     params.Namespace + ":" + StoreSuffix,
		Name:    StoreSuffix,
		Default: func() []string { return []string{} },
		Validate: func(ids []string) bool {
			for _, id := range ids {
				if id == "" {
					return false
				}
			}
			return true
		},
		OnError: params.OnError,
		Logger:  params.Logger,
		Metrics: params.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Model{store: st}, nil
}

// Add records the product id; adding an already-liked product is a no-op.
func (m *Model) Add(ctx context.Context, productID string) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return m.store.Update(ctx, func(ids []string) []string {
		for _, id := range ids {
			if id == productID {
				return ids
			}
		}
		return append(ids, productID)
	})
}

// Remove drops the entry regardless of prior state.
func (m *Model) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return m.store.Update(ctx, func(ids []string) []string {
		kept := ids[:0]
		for _, id := range ids {
			if id != productID {
				kept = append(kept, id)
			}
		}
		return kept
	})
}

// Toggle flips membership and reports the resulting state.
func (m *Model) Toggle(ctx context.Context, productID string) (bool, error) {
	if m.Contains(ctx, productID) {
		return false, m.Remove(ctx, productID)
	}
	return true, m.Add(ctx, productID)
}

// Contains reports whether the product is liked.
func (m *Model) Contains(ctx context.Context, productID string) bool {
	for _, id := range m.store.Get(ctx) {
		if id == productID {
			return true
		}
	}
	return false
}

// IDs returns the liked product ids in like order.
func (m *Model) IDs(ctx context.Context) []string {
	return m.store.Get(ctx)
}

// Clear empties the wishlist.
func (m *Model) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// Subscribe registers a listener for wishlist snapshots.
func (m *Model) Subscribe(fn func([]string)) func() {
	return m.store.Subscribe(fn)
}
