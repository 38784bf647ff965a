package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/service"
	"github.com/ithalat-ops/backoffice-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newOrderService(db *gorm.DB) *service.OrderService {
	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), zap.NewNop())
	return service.NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewSupplierRepository(db),
		numbers,
		0,
		zap.NewNop(),
	)
}

func TestOrderService_ItemsKeepTotalCurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOrderService(db)
	ctx := context.Background()
	product := testutil.CreateTestProduct(t, db, "A-100", "Valve")
	supplier := testutil.CreateTestSupplier(t, db, "Acme Trading")

	order, err := svc.Create(ctx, &domain.CreateOrderRequest{
		SupplierID: &supplier.ID,
		Currency:   "usd",
		Items: []domain.OrderItemRequest{
			{ProductCode: "a-100", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(25)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, "Acme Trading", order.SupplierName)
	require.Len(t, order.Items, 1)
	require.NotNil(t, order.Items[0].ProductID)
	assert.Equal(t, product.ID, *order.Items[0].ProductID)
	assert.Equal(t, "Valve", order.Items[0].ProductName)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(100)))

	order, err = svc.AddItem(ctx, order.ID, &domain.OrderItemRequest{
		ProductCode: "FREE-1", ProductName: "Custom bracket",
		Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("7.5"),
	})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(115)))

	itemID := order.Items[0].ID
	order, err = svc.UpdateItem(ctx, order.ID, itemID, &domain.UpdateOrderItemRequest{
		Quantity: decimal.NewNullDecimal(decimal.NewFromInt(1)),
	})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(40)))

	_, err = svc.UpdateItem(ctx, order.ID, itemID, &domain.UpdateOrderItemRequest{
		UnitPrice: decimal.NewNullDecimal(decimal.NewFromInt(-1)),
	})
	assert.ErrorIs(t, err, service.ErrInvalidPrice)

	order, err = svc.RemoveItem(ctx, order.ID, itemID)
	require.NoError(t, err)
	assert.Len(t, order.Items, 1)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(15)))

	_, err = svc.RemoveItem(ctx, order.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrOrderItemNotFound)
}

func TestOrderService_CreateValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newOrderService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, &domain.CreateOrderRequest{
		Currency: "USD",
		Items:    []domain.OrderItemRequest{{ProductCode: "A", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)

	missing := uuid.New()
	_, err = svc.Create(ctx, &domain.CreateOrderRequest{Currency: "USD", SupplierID: &missing})
	assert.ErrorIs(t, err, service.ErrSupplierNotFound)

	assert.Zero(t, testutil.CountRows(t, db, &domain.Order{}))
	assert.Zero(t, testutil.CountRows(t, db, &domain.NumberSequence{}))
}

func TestShipmentService_ForwarderQuotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewShipmentService(
		repository.NewShipmentRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewOrderRepository(db),
		zap.NewNop(),
	)
	ctx := context.Background()
	fast := testutil.CreateTestForwarder(t, db, "Fast Freight")
	slow := testutil.CreateTestForwarder(t, db, "Slow Boat")
	plain := testutil.CreateTestSupplier(t, db, "Acme Trading")

	etd := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	eta := etd.AddDate(0, 0, -2)
	_, err := svc.Create(ctx, &domain.CreateShipmentRequest{Reference: "SHP-1", Etd: &etd, Eta: &eta})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	shipment, err := svc.Create(ctx, &domain.CreateShipmentRequest{Reference: " SHP-1 ", Origin: "Ningbo", Destination: "Mersin"})
	require.NoError(t, err)
	assert.Equal(t, "SHP-1", shipment.Reference)
	assert.Equal(t, domain.ShipmentStatusPlanned, shipment.Status)

	_, err = svc.AddQuote(ctx, shipment.ID, &domain.CreateForwarderQuoteRequest{ForwarderID: plain.ID, Amount: decimal.NewFromInt(100), Currency: "USD"})
	assert.ErrorIs(t, err, service.ErrNotForwarder)

	_, err = svc.AddQuote(ctx, shipment.ID, &domain.CreateForwarderQuoteRequest{ForwarderID: slow.ID, Amount: decimal.NewFromInt(900), Currency: "usd"})
	require.NoError(t, err)
	shipment, err = svc.AddQuote(ctx, shipment.ID, &domain.CreateForwarderQuoteRequest{ForwarderID: fast.ID, Amount: decimal.NewFromInt(1200), Currency: "USD"})
	require.NoError(t, err)
	require.Len(t, shipment.Quotes, 2)
	assert.Equal(t, "Slow Boat", shipment.Quotes[0].ForwarderName, "cheapest first")

	shipment, err = svc.SelectQuote(ctx, shipment.ID, shipment.Quotes[1].ID)
	require.NoError(t, err)
	assert.False(t, shipment.Quotes[0].IsSelected)
	assert.True(t, shipment.Quotes[1].IsSelected)

	_, err = svc.SelectQuote(ctx, shipment.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrForwarderQuoteNotFound)
	shipment, err = svc.GetByID(ctx, shipment.ID)
	require.NoError(t, err)
	assert.True(t, shipment.Quotes[1].IsSelected, "a bad selection leaves the current one")
}
