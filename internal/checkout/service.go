package checkout

import (
	"context"

	"github.com/kalakriti/commerce-engine/internal/address"
	"github.com/kalakriti/commerce-engine/internal/cart"
	"github.com/kalakriti/commerce-engine/internal/pricing"
	pkgerrors "github.com/kalakriti/commerce-engine/pkg/errors"
	"github.com/kalakriti/commerce-engine/pkg/logger"
	"github.com/kalakriti/commerce-engine/pkg/types"
)

// OrderDraft is the payload handed to the gateway: the live cart lines, the
// quote derived from them, and the shipping address.
type OrderDraft struct {
	Lines    []cart.Line     `json:"lines"`
	Quote    pricing.Quote   `json:"quote"`
	Shipping address.Address `json:"shipping"`
}

// Receipt is the gateway's acknowledgement of a placed order.
type Receipt struct {
	OrderID string `json:"orderId"`
}

// Gateway places an order draft with the network collaborator. The engine
// treats it as a black box: a Success == false envelope is a rejection, and
// an error is a transport failure. Either way local state stays untouched.
type Gateway interface {
	PlaceOrder(ctx context.Context, draft OrderDraft) (types.APIResponse, error)
}

type cartModel interface {
	Items(ctx context.Context) []cart.Line
	Clear(ctx context.Context) error
}

type addressBook interface {
	Default(ctx context.Context) (address.Address, bool)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Cart    cartModel
	Pricing *pricing.Engine
	Book    addressBook
	Gateway Gateway
	Logger  *logger.Logger
}

// Service orchestrates order placement over the live cart.
type Service struct {
	cart    cartModel
	pricing *pricing.Engine
	book    addressBook
	gateway Gateway
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart model is required")
	}
	if params.Pricing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing engine is required")
	}
	if params.Book == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address book is required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order gateway is required")
	}
	return &Service{
		cart:    params.Cart,
		pricing: params.Pricing,
		book:    params.Book,
		gateway: params.Gateway,
		logg:    params.Logger,
	}, nil
}

// Draft assembles the order draft from the live cart, its quote, and the
// default shipping address without placing it.
func (s *Service) Draft(ctx context.Context) (OrderDraft, error) {
	lines := s.cart.Items(ctx)
	if len(lines) == 0 {
		return OrderDraft{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	shipping, ok := s.book.Default(ctx)
	if !ok {
		return OrderDraft{}, pkgerrors.New(pkgerrors.CodeStateConflict, "no shipping address on file")
	}
	return OrderDraft{
		Lines:    lines,
		Quote:    s.pricing.Quote(lines),
		Shipping: shipping,
	}, nil
}

// PlaceOrder drafts and places the order, clearing the cart only after the
// gateway accepts. Rejections and transport failures leave the cart intact.
func (s *Service) PlaceOrder(ctx context.Context) (Receipt, error) {
	draft, err := s.Draft(ctx)
	if err != nil {
		return Receipt{}, err
	}

	resp, err := s.gateway.PlaceOrder(ctx, draft)
	if err != nil {
		return Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order gateway unreachable")
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "order rejected by gateway"
		}
		return Receipt{}, pkgerrors.New(pkgerrors.CodeDependency, msg)
	}

	receipt := decodeReceipt(resp.Data)
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, receipt.OrderID), "order placed")
	}

	if err := s.cart.Clear(ctx); err != nil {
		// the order is already placed; surface the cleanup failure rather
		// than pretend the whole operation failed
		return receipt, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order placed but cart not cleared")
	}
	return receipt, nil
}

func decodeReceipt(data any) Receipt {
	m, ok := data.(map[string]any)
	if !ok {
		return Receipt{}
	}
	id, _ := m["orderId"].(string)
	return Receipt{OrderID: id}
}
