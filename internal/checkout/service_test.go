package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalakriti/commerce-engine/internal/address"
	"github.com/kalakriti/commerce-engine/internal/cart"
	"github.com/kalakriti/commerce-engine/internal/pricing"
	"github.com/kalakriti/commerce-engine/internal/storage"
	"github.com/kalakriti/commerce-engine/pkg/config"
	pkgerrors "github.com/kalakriti/commerce-engine/pkg/errors"
	"github.com/kalakriti/commerce-engine/pkg/types"
)

type fakeGateway struct {
	resp   types.APIResponse
	err    error
	drafts []OrderDraft
}

func (g *fakeGateway) PlaceOrder(_ context.Context, draft OrderDraft) (types.APIResponse, error) {
	g.drafts = append(g.drafts, draft)
	if g.err != nil {
		return types.APIResponse{}, g.err
	}
	return g.resp, nil
}

func newTestPricing() *pricing.Engine {
	return pricing.NewEngine(config.PricingConfig{
		FreeShippingThreshold: 1000,
		FlatShippingFee:       99,
		TaxRate:               "0.05",
	})
}

func newTestFixtures(t *testing.T) (*cart.Model, *address.Book) {
	t.Helper()
	backend := storage.NewMemory()

	cartModel, err := cart.NewModel(cart.ModelParams{Backend: backend, Namespace: "kalakriti"})
	require.NoError(t, err)
	book, err := address.NewBook(address.BookParams{Backend: backend, Namespace: "kalakriti"})
	require.NoError(t, err)
	return cartModel, book
}

func seedOrder(t *testing.T, cartModel *cart.Model, book *address.Book) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, cartModel.AddItem(ctx, cart.Line{
		ProductID: "p-1",
		Variant:   cart.Variant{"Color": "Indigo"},
		Quantity:  2,
		UnitPrice: 650,
	}))
	_, err := book.Add(ctx, address.Input{
		Name:    "Meera Iyer",
		Street:  "14 Temple Street",
		City:    "Madurai",
		State:   "Tamil Nadu",
		Pincode: "625001",
		Phone:   "9876543210",
		Type:    "home",
	})
	require.NoError(t, err)
}

func TestPlaceOrderClearsCartOnSuccess(t *testing.T) {
	ctx := context.Background()
	cartModel, book := newTestFixtures(t)
	seedOrder(t, cartModel, book)

	gateway := &fakeGateway{resp: types.APIResponse{
		Success: true,
		Data:    map[string]any{"orderId": "ord-42"},
	}}
	svc, err := NewService(ServiceParams{Cart: cartModel, Pricing: newTestPricing(), Book: book, Gateway: gateway})
	require.NoError(t, err)

	receipt, err := svc.PlaceOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ord-42", receipt.OrderID)
	assert.Empty(t, cartModel.Items(ctx), "cart must be cleared after a placed order")

	require.Len(t, gateway.drafts, 1)
	draft := gateway.drafts[0]
	assert.Equal(t, 1300, draft.Quote.Subtotal)
	assert.Equal(t, 0, draft.Quote.Shipping, "1300 clears the free-shipping threshold")
	assert.Equal(t, 65, draft.Quote.Tax)
	assert.Equal(t, "Madurai", draft.Shipping.City)
}

func TestPlaceOrderRejectionLeavesCart(t *testing.T) {
	ctx := context.Background()
	cartModel, book := newTestFixtures(t)
	seedOrder(t, cartModel, book)

	gateway := &fakeGateway{resp: types.APIResponse{Success: false, Message: "payment declined"}}
	svc, err := NewService(ServiceParams{Cart: cartModel, Pricing: newTestPricing(), Book: book, Gateway: gateway})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx)
	require.Error(t, err)

	var coded *pkgerrors.Error
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, pkgerrors.CodeDependency, coded.Code())
	assert.Contains(t, err.Error(), "payment declined")
	assert.Len(t, cartModel.Items(ctx), 1, "rejection must leave the cart untouched")
}

func TestPlaceOrderTransportFailureLeavesCart(t *testing.T) {
	ctx := context.Background()
	cartModel, book := newTestFixtures(t)
	seedOrder(t, cartModel, book)

	gateway := &fakeGateway{err: errors.New("connection reset")}
	svc, err := NewService(ServiceParams{Cart: cartModel, Pricing: newTestPricing(), Book: book, Gateway: gateway})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx)
	require.Error(t, err)

	var coded *pkgerrors.Error
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, pkgerrors.CodeDependency, coded.Code())
	assert.Len(t, cartModel.Items(ctx), 1)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	ctx := context.Background()
	cartModel, book := newTestFixtures(t)

	gateway := &fakeGateway{resp: types.APIResponse{Success: true}}
	svc, err := NewService(ServiceParams{Cart: cartModel, Pricing: newTestPricing(), Book: book, Gateway: gateway})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx)
	require.Error(t, err)

	var coded *pkgerrors.Error
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, pkgerrors.CodeStateConflict, coded.Code())
	assert.Empty(t, gateway.drafts, "an empty cart must never reach the gateway")
}

func TestPlaceOrderNoShippingAddress(t *testing.T) {
	ctx := context.Background()
	cartModel, book := newTestFixtures(t)
	require.NoError(t, cartModel.AddItem(ctx, cart.Line{ProductID: "p-1", Quantity: 1, UnitPrice: 100}))

	gateway := &fakeGateway{resp: types.APIResponse{Success: true}}
	svc, err := NewService(ServiceParams{Cart: cartModel, Pricing: newTestPricing(), Book: book, Gateway: gateway})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx)
	require.Error(t, err)
	assert.Empty(t, gateway.drafts)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	cartModel, book := newTestFixtures(t)

	_, err := NewService(ServiceParams{Pricing: newTestPricing(), Book: book, Gateway: &fakeGateway{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Cart: cartModel, Book: book, Gateway: &fakeGateway{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Cart: cartModel, Pricing: newTestPricing(), Gateway: &fakeGateway{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Cart: cartModel, Pricing: newTestPricing(), Book: book})
	assert.Error(t, err)
}
