package address

import (
	"context"
	"time"

	"github.com/kalakriti/commerce-engine/internal/storage"
	"github.com/kalakriti/commerce-engine/internal/store"
	pkgerrors "github.com/kalakriti/commerce-engine/pkg/errors"
	"github.com/kalakriti/commerce-engine/pkg/logger"
	"github.com/kalakriti/commerce-engine/pkg/metrics"
	"github.com/kalakriti/commerce-engine/pkg/validate"
	"github.com/google/uuid"
)

// StoreSuffix is appended to the storage namespace to form the durable key.
const StoreSuffix = "addresses"

// Address types.
const (
	TypeHome  = "home"
	TypeWork  = "work"
	TypeOther = "other"
)

// Address is one saved delivery address. At most one address per book has
// IsDefault set; the book maintains that invariant structurally.
type Address struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"isDefault"`
	CreatedAt int64  `json:"createdAt"`
}

// Input is the form-boundary payload. Shape validation (pincode, phone)
// happens here, before the book is involved; the book itself assumes
// well-formed input and only enforces the default-uniqueness invariant.
type Input struct {
	Type    string `json:"type" validate:"required,oneof=home work other"`
	Name    string `json:"name" validate:"required"`
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
	Phone   string `json:"phone" validate:"required,len=10,numeric"`
	Default bool   `json:"isDefault"`
}

// ValidateInput applies the form-boundary rules to a candidate payload.
func ValidateInput(input Input) error {
	return validate.Struct(input)
}

// BookParams groups dependencies for the address book.
type BookParams struct {
	Backend   storage.Backend
	Namespace string
	Logger    *logger.Logger
	Metrics   *metrics.StoreMetrics
	OnError   func(error)
}

// Book is the persisted address list with the single-default invariant.
type Book struct {
	store *store.Store[[]Address]
	now   func() time.Time
}

func NewBook(params BookParams) (*Book, error) {
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage backend is required")
	}
	if params.Namespace == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage namespace is required")
	}
	st, err := store.New(store.Options[[]Address]{
		Backend:  params.Backend,
		Key:      params.Namespace + ":" + StoreSuffix,
		Name:     StoreSuffix,
		Default:  func() []Address { return []Address{} },
		Validate: validAddresses,
		OnError:  params.OnError,
		Logger:   params.Logger,
		Metrics:  params.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Book{store: st, now: time.Now}, nil
}

// validAddresses enforces the structural schema on reads and writes: every
// element has an id, and at most one carries the default flag.
func validAddresses(addresses []Address) bool {
	defaults := 0
	for _, addr := range addresses {
		if addr.ID == "" {
			return false
		}
		if addr.IsDefault {
			defaults++
		}
	}
	return defaults <= 1
}

// Add assigns identity and appends. The first address in the book, or an
// input requesting the flag, becomes the default; any prior default is
// cleared in the same write.
func (b *Book) Add(ctx context.Context, input Input) (Address, error) {
	addr := Address{
		ID:        uuid.NewString(),
		Type:      input.Type,
		Name:      input.Name,
		Street:    input.Street,
		City:      input.City,
		State:     input.State,
		Pincode:   input.Pincode,
		Phone:     input.Phone,
		IsDefault: input.Default,
		CreatedAt: b.now().UnixNano(),
	}

	err := b.store.Update(ctx, func(addresses []Address) []Address {
		if len(addresses) == 0 {
			addr.IsDefault = true
		}
		if addr.IsDefault {
			for i := range addresses {
				addresses[i].IsDefault = false
			}
		}
		return append(addresses, addr)
	})
	if err != nil {
		return Address{}, err
	}
	return addr, nil
}

// Update rewrites the fields of an existing address; the default flag is
// managed through SetDefault, not here.
func (b *Book) Update(ctx context.Context, id string, input Input) error {
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	found := false
	err := b.store.Update(ctx, func(addresses []Address) []Address {
		for i, addr := range addresses {
			if addr.ID == id {
				addresses[i].Type = input.Type
				addresses[i].Name = input.Name
				addresses[i].Street = input.Street
				addresses[i].City = input.City
				addresses[i].State = input.State
				addresses[i].Pincode = input.Pincode
				addresses[i].Phone = input.Phone
				found = true
				break
			}
		}
		return addresses
	})
	if err != nil {
		return err
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

// SetDefault clears every other default flag and sets the target's, as a
// single logical write; two defaults are never observable.
func (b *Book) SetDefault(ctx context.Context, id string) error {
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	found := false
	err := b.store.Update(ctx, func(addresses []Address) []Address {
		for i := range addresses {
			addresses[i].IsDefault = addresses[i].ID == id
			if addresses[i].ID == id {
				found = true
			}
		}
		return addresses
	})
	if err != nil {
		return err
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

// Delete removes the address. When the removed address was the default and
// others remain, the most-recently-added survivor is promoted; an emptied
// book carries no default.
func (b *Book) Delete(ctx context.Context, id string) error {
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	found := false
	err := b.store.Update(ctx, func(addresses []Address) []Address {
		wasDefault := false
		kept := addresses[:0]
		for _, addr := range addresses {
			if addr.ID == id {
				found = true
				wasDefault = addr.IsDefault
				continue
			}
			kept = append(kept, addr)
		}
		if wasDefault && len(kept) > 0 {
			latest := 0
			for i, addr := range kept {
				if addr.CreatedAt > kept[latest].CreatedAt {
					latest = i
				}
			}
			for i := range kept {
				kept[i].IsDefault = i == latest
			}
		}
		return kept
	})
	if err != nil {
		return err
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

// List returns the saved addresses in insertion order.
func (b *Book) List(ctx context.Context) []Address {
	return b.store.Get(ctx)
}

// Default returns the default address, if any.
func (b *Book) Default(ctx context.Context) (Address, bool) {
	for _, addr := range b.store.Get(ctx) {
		if addr.IsDefault {
			return addr, true
		}
	}
	return Address{}, false
}

// Subscribe registers a listener for address-book snapshots.
func (b *Book) Subscribe(fn func([]Address)) func() {
	return b.store.Subscribe(fn)
}
