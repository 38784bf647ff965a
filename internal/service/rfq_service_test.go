package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
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
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newRfqService(f *importFixture) *service.RfqService {
	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(f.db), zap.NewNop())
	return service.NewRfqService(
		f.rfqRepo,
		repository.NewProductRepository(f.db),
		repository.NewSupplierRepository(f.db),
		repository.NewOrderRepository(f.db),
		numbers,
		2,
		zap.NewNop(),
	)
}

func importQuotes(t *testing.T, f *importFixture, text string) {
	t.Helper()
	out, err := f.svc.ImportText(context.Background(), f.rfq.ID, text, service.ImportOptions{})
	require.NoError(t, err)
	committed(t, out)
}

func quoteOf(t *testing.T, f *importFixture, supplierID uuid.UUID) uuid.UUID {
	t.Helper()
	quotes, err := f.rfqRepo.ListQuotes(context.Background(), f.rfq.ID)
	require.NoError(t, err)
	for _, q := range quotes {
		if q.SupplierID == supplierID {
			return q.ID
		}
	}
	t.Fatalf("no quote for supplier %s", supplierID)
	return uuid.Nil
}

func TestRfqService_CreateMergesDuplicateCodes(t *testing.T) {
	f := setupImport(t, nil)
	svc := newRfqService(f)
	sup := testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	pumpID := f.products[1].ID

	rfq, err := svc.Create(context.Background(), &domain.CreateRfqRequest{
		Title:    "Spring restock",
		Currency: "eur",
		Items: []domain.CreateRfqItemRequest{
			{ProductCode: "a-100", Quantity: decimal.NewFromInt(3)},
			{ProductCode: "A-100 ", Quantity: decimal.NewFromInt(4)},
			{ProductID: &pumpID},
			{ProductCode: "FREE-1", Quantity: decimal.NewFromInt(2), Notes: "no catalog entry"},
		},
		SupplierIDs: []uuid.UUID{sup.ID, sup.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("RFQ-%d-001", time.Now().UTC().Year()), rfq.Code)
	assert.Equal(t, "EUR", rfq.Currency)
	assert.Equal(t, domain.RfqStatusDraft, rfq.Status)
	require.Len(t, rfq.Items, 3)
	assert.Len(t, rfq.Suppliers, 1)

	byCode := map[string]domain.RfqItemDTO{}
	for _, item := range rfq.Items {
		byCode[item.ProductCode] = item
	}
	assert.True(t, byCode["A-100"].Quantity.Equal(decimal.NewFromInt(7)))
	require.NotNil(t, byCode["A-100"].ProductID)
	assert.True(t, byCode["B-200"].Quantity.Equal(decimal.NewFromInt(1)), "zero quantity defaults to one")
	assert.Nil(t, byCode["FREE-1"].ProductID)
	assert.Equal(t, "no catalog entry", byCode["FREE-1"].Notes)
}

func TestRfqService_CreateValidation(t *testing.T) {
	f := setupImport(t, nil)
	svc := newRfqService(f)
	ctx := context.Background()

	_, err := svc.Create(ctx, &domain.CreateRfqRequest{
		Currency: "USD",
		Items:    []domain.CreateRfqItemRequest{{ProductCode: "A-100", Quantity: decimal.NewFromInt(-1)}},
	})
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)

	missing := uuid.New()
	_, err = svc.Create(ctx, &domain.CreateRfqRequest{
		Currency: "USD",
		Items:    []domain.CreateRfqItemRequest{{ProductID: &missing}},
	})
	assert.ErrorIs(t, err, service.ErrProductNotFound)

	_, err = svc.Create(ctx, &domain.CreateRfqRequest{Currency: "USD", SupplierIDs: []uuid.UUID{uuid.New()}})
	assert.ErrorIs(t, err, service.ErrSupplierNotFound)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRfqService_UpdateStatus(t *testing.T) {
	f := setupImport(t, nil)
	svc := newRfqService(f)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, f.rfq.ID, domain.RfqStatusConverted)
	assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)

	_, err = svc.UpdateStatus(ctx, f.rfq.ID, domain.RfqStatusDraft)
	assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	dto, err := svc.UpdateStatus(ctx, f.rfq.ID, domain.RfqStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.RfqStatusCancelled, dto.Status)

	_, err = svc.UpdateStatus(ctx, uuid.New(), domain.RfqStatusSent)
	assert.ErrorIs(t, err, service.ErrRfqNotFound)
}

func TestRfqService_ConvertRejectsCurrencyMismatch(t *testing.T) {
	f := setupImport(t, nil)
	svc := newRfqService(f)
	euro := testutil.CreateTestSupplier(t, f.db, "Euro Parts")
	importQuotes(t, f, "A-100;Euro Parts;10;EUR\nB-200;Euro Parts;5;EUR")

	_, err := svc.Convert(context.Background(), f.rfq.ID, quoteOf(t, f, euro.ID))
	assert.ErrorIs(t, err, service.ErrCurrencyMismatch)

	assert.Zero(t, testutil.CountRows(t, f.db, &domain.Order{}))
	assert.Zero(t, testutil.CountRows(t, f.db, &domain.NumberSequence{}), "no order number consumed")
	rfq, err := f.rfqRepo.GetByID(context.Background(), f.rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RfqStatusQuoting, rfq.Status)
}

func TestRfqService_ConvertRejectsMissingPrices(t *testing.T) {
	f := setupImport(t, nil)
	svc := newRfqService(f)
	partial := testutil.CreateTestSupplier(t, f.db, "Partial Supply")
	importQuotes(t, f, "A-100;Partial Supply;10")

	_, err := svc.Convert(context.Background(), f.rfq.ID, quoteOf(t, f, partial.ID))
	require.Error(t, err)

	var missing *service.MissingPricesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"B-200"}, missing.ProductCodes)
	assert.ErrorIs(t, err, service.ErrMissingQuotePrices)
	assert.Zero(t, testutil.CountRows(t, f.db, &domain.Order{}))
	assert.Zero(t, testutil.CountRows(t, f.db, &domain.NumberSequence{}))
}

func TestRfqService_Convert(t *testing.T) {
	f := setupImport(t, nil)
	svc := newRfqService(f)
	acme := testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	importQuotes(t, f, "A-100;Acme Trading;12,5\nB-200;Acme Trading;7")
	ctx := context.Background()
	quoteID := quoteOf(t, f, acme.ID)

	order, err := svc.Convert(ctx, f.rfq.ID, quoteID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PO-%d-001", time.Now().UTC().Year()), order.Code)
	assert.Equal(t, "USD", order.Currency)
	require.NotNil(t, order.RfqID)
	assert.Equal(t, f.rfq.ID, *order.RfqID)
	require.Len(t, order.Items, 2)
	// 10 x 12.5 + 10 x 7
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(195)), order.TotalAmount.String())

	rfq, err := f.rfqRepo.GetByID(ctx, f.rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RfqStatusConverted, rfq.Status)
	require.NotNil(t, rfq.OrderID)
	assert.Equal(t, order.ID, *rfq.OrderID)

	quote, err := f.rfqRepo.GetQuote(ctx, f.rfq.ID, quoteID)
	require.NoError(t, err)
	assert.True(t, quote.IsSelected)

	_, err = svc.Convert(ctx, f.rfq.ID, quoteID)
	assert.ErrorIs(t, err, service.ErrRfqClosed)
	assert.ErrorIs(t, svc.Delete(ctx, f.rfq.ID), service.ErrRfqClosed)
}

func TestRfqService_ConvertRequiresQuotingStatus(t *testing.T) {
	f := setupImport(t, nil)
	svc := newRfqService(f)
	acme := testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	importQuotes(t, f, "A-100;Acme Trading;1\nB-200;Acme Trading;1")
	ctx := context.Background()
	require.NoError(t, f.rfqRepo.UpdateStatus(ctx, f.rfq.ID, domain.RfqStatusDraft))

	_, err := svc.Convert(ctx, f.rfq.ID, quoteOf(t, f, acme.ID))
	assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)

	_, err = svc.Convert(ctx, f.rfq.ID, uuid.New())
	assert.Error(t, err)
}

func TestRfqService_Comparison(t *testing.T) {
	f := setupImport(t, nil)
	svc := newRfqService(f)
	ctx := context.Background()

	gtip := testutil.CreateTestGtip(t, f.db, "8481.80", 10)
	require.NoError(t, f.db.Model(f.products[0]).Update("gtip_id", gtip.ID).Error)

	testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	testutil.CreateTestSupplier(t, f.db, "Budget Supply")
	testutil.CreateTestSupplier(t, f.db, "Euro Parts")
	importQuotes(t, f, "A-100;Acme Trading;10\nB-200;Acme Trading;7\nA-100;Budget Supply;9\nA-100;Euro Parts;5;EUR")

	cmp, err := svc.Comparison(ctx, f.rfq.ID)
	require.NoError(t, err)
	require.Len(t, cmp.Suppliers, 3)
	require.Len(t, cmp.Rows, 2)
	assert.Equal(t, "Acme Trading", cmp.Suppliers[0].SupplierName)

	valve := cmp.Rows[0]
	assert.Equal(t, "A-100", valve.ProductCode)
	require.True(t, valve.MinUnitPrice.Valid)
	assert.True(t, valve.MinUnitPrice.Decimal.Equal(decimal.NewFromInt(9)), "foreign currency quotes are not compared")
	assert.False(t, valve.Cells[0].IsMinPrice)
	assert.True(t, valve.Cells[1].IsMinPrice)
	assert.False(t, valve.Cells[2].IsMinPrice)
	assert.True(t, valve.Cells[0].NetCost.Valid)
	assert.True(t, valve.Cells[0].NetCost.Decimal.GreaterThan(decimal.NewFromInt(10)))

	pump := cmp.Rows[1]
	assert.False(t, pump.Cells[0].NetCost.Valid, "no gtip, no net cost")
	assert.False(t, pump.Cells[1].UnitPrice.Valid)
	assert.True(t, pump.Cells[0].IsMinPrice)

	name, data, err := svc.ExportComparison(ctx, f.rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, "RFQ-FIXTURE-1-comparison.xlsx", name)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Comparison")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Product Code", rows[0][0])
	assert.Equal(t, "Acme Trading (USD) Price", rows[0][3])
	assert.Equal(t, "A-100", rows[1][0])
	assert.Equal(t, "-", rows[2][6])
}
