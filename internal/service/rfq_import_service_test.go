package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/service"
	"github.com/ithalat-ops/backoffice-api/internal/storage"
	"github.com/ithalat-ops/backoffice-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type importFixture struct {
	db       *gorm.DB
	svc      *service.RfqImportService
	rfqRepo  *repository.RfqRepository
	rfq      *domain.Rfq
	products []*domain.Product
}

func setupImport(t *testing.T, archive storage.Archive) *importFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	p1 := testutil.CreateTestProduct(t, db, "A-100", "Valve")
	p2 := testutil.CreateTestProduct(t, db, "B-200", "Pump")
	rfq := testutil.CreateTestRfq(t, db, "RFQ-FIXTURE-1", "USD", p1, p2)

	rfqRepo := repository.NewRfqRepository(db)
	svc := service.NewRfqImportService(
		rfqRepo,
		repository.NewProductRepository(db),
		repository.NewSupplierRepository(db),
		archive,
		2,
		zap.NewNop(),
	)
	return &importFixture{db: db, svc: svc, rfqRepo: rfqRepo, rfq: rfq, products: []*domain.Product{p1, p2}}
}

func committed(t *testing.T, outcome service.ImportOutcome) domain.RfqImportSummary {
	t.Helper()
	c, ok := outcome.(*service.ImportCommitted)
	require.True(t, ok, "expected committed outcome, got %s", outcome.Status())
	return c.Summary
}

func TestRfqImport_CommitIsIdempotent(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	ctx := context.Background()
	text := "A-100;Acme Trading;12,50;USD;10\nB-200;acme trading;7;USD;5\n"

	out, err := f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{})
	require.NoError(t, err)
	first := committed(t, out)
	assert.Equal(t, 2, first.Rows)
	assert.Equal(t, 1, first.QuotesCreated)
	assert.Equal(t, 1, first.SuppliersInvited)
	assert.Equal(t, 2, first.QuoteItemsCreated)
	assert.Zero(t, first.ItemsCreated)

	out, err = f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{})
	require.NoError(t, err)
	second := committed(t, out)
	assert.Zero(t, second.QuotesCreated)
	assert.Zero(t, second.SuppliersInvited)
	assert.Zero(t, second.QuoteItemsCreated)
	assert.Equal(t, 2, second.QuoteItemsUpdated)

	assert.Equal(t, int64(1), testutil.CountRows(t, f.db, &domain.RfqQuote{}))
	assert.Equal(t, int64(2), testutil.CountRows(t, f.db, &domain.RfqQuoteItem{}))
	assert.Equal(t, int64(1), testutil.CountRows(t, f.db, &domain.RfqSupplier{}))

	quotes, err := f.rfqRepo.ListQuotes(ctx, f.rfq.ID)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "USD", quotes[0].Currency)
	prices := map[uuid.UUID]decimal.Decimal{}
	for _, qi := range quotes[0].Items {
		prices[qi.RfqItemID] = qi.UnitPrice
	}
	assert.True(t, prices[f.rfq.Items[0].ID].Equal(decimal.RequireFromString("12.5")))
	assert.True(t, prices[f.rfq.Items[1].ID].Equal(decimal.NewFromInt(7)))
}

func TestRfqImport_EmptyCurrencyUsesRfqCurrency(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")

	out, err := f.svc.ImportText(context.Background(), f.rfq.ID, "A-100;Acme Trading;3;;", service.ImportOptions{})
	require.NoError(t, err)
	committed(t, out)

	quotes, err := f.rfqRepo.ListQuotes(context.Background(), f.rfq.ID)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "USD", quotes[0].Currency)
}

func TestRfqImport_MissingProductsNeedConfirmation(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	ctx := context.Background()
	text := "A-100;Acme Trading;1\nZ-999;Acme Trading;2;;4\nZ-999;Acme Trading;2;;9\n"

	out, err := f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{})
	require.NoError(t, err)
	need, ok := out.(*service.ImportNeedsConfirmation)
	require.True(t, ok)
	require.Len(t, need.Missing, 1)
	assert.Equal(t, "Z-999", need.Missing[0].ProductCode)
	assert.Equal(t, []int{2, 3}, need.Missing[0].Lines)

	// nothing written before confirmation
	assert.Zero(t, testutil.CountRows(t, f.db, &domain.RfqQuote{}))
	assert.Zero(t, testutil.CountRows(t, f.db, &domain.RfqQuoteItem{}))
	assert.Equal(t, int64(2), testutil.CountRows(t, f.db, &domain.RfqItem{}))

	out, err = f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{AddMissingProducts: true})
	require.NoError(t, err)
	summary := committed(t, out)
	assert.Equal(t, 1, summary.ItemsCreated)
	assert.Equal(t, 2, summary.QuoteItemsCreated)

	items, err := f.rfqRepo.ListItems(ctx, f.rfq.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		if item.ProductCode == "Z-999" {
			assert.Nil(t, item.ProductID)
			assert.True(t, item.Quantity.Equal(decimal.NewFromInt(9)), "largest row quantity wins")
		}
	}
}

func TestRfqImport_NewItemLinksCatalogProduct(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	extra := testutil.CreateTestProduct(t, f.db, "C-300", "Filter")

	out, err := f.svc.ImportText(context.Background(), f.rfq.ID, "c-300;Acme Trading;5", service.ImportOptions{})
	require.NoError(t, err)
	need, ok := out.(*service.ImportNeedsConfirmation)
	require.True(t, ok)
	require.Len(t, need.Missing, 1)
	assert.Equal(t, "C-300", need.Missing[0].ProductCode)
	assert.Equal(t, "Filter", need.Missing[0].ProductName)

	out, err = f.svc.ImportText(context.Background(), f.rfq.ID, "c-300;Acme Trading;5", service.ImportOptions{AddMissingProducts: true})
	require.NoError(t, err)
	committed(t, out)

	items, err := f.rfqRepo.ListItems(context.Background(), f.rfq.ID)
	require.NoError(t, err)
	var linked *domain.RfqItem
	for i := range items {
		if items[i].ProductCode == "C-300" {
			linked = &items[i]
		}
	}
	require.NotNil(t, linked)
	require.NotNil(t, linked.ProductID)
	assert.Equal(t, extra.ID, *linked.ProductID)
	assert.True(t, linked.Quantity.Equal(decimal.NewFromInt(1)))
}

func TestRfqImport_ProductNameFallback(t *testing.T) {
	const header = "product_code;product_name;supplier_name;unit_price;currency\n"
	ctx := context.Background()

	t.Run("name of an rfq product prices its item", func(t *testing.T) {
		f := setupImport(t, nil)
		testutil.CreateTestSupplier(t, f.db, "Acme Trading")

		out, err := f.svc.ImportText(ctx, f.rfq.ID, header+";pump;Acme Trading;7;USD\n", service.ImportOptions{})
		require.NoError(t, err)
		summary := committed(t, out)
		assert.Zero(t, summary.ItemsCreated)
		assert.Equal(t, 1, summary.QuoteItemsCreated)

		quotes, err := f.rfqRepo.ListQuotes(ctx, f.rfq.ID)
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		require.Len(t, quotes[0].Items, 1)
		items, err := f.rfqRepo.ListItems(ctx, f.rfq.ID)
		require.NoError(t, err)
		for _, item := range items {
			if item.ProductCode == "B-200" {
				assert.Equal(t, item.ID, quotes[0].Items[0].RfqItemID)
			}
		}
	})

	t.Run("name of a catalog product outside the rfq", func(t *testing.T) {
		f := setupImport(t, nil)
		testutil.CreateTestSupplier(t, f.db, "Acme Trading")
		filter := testutil.CreateTestProduct(t, f.db, "C-300", "Oil Filter")
		text := header + ";OIL FILTER;Acme Trading;3;USD\n"

		out, err := f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{})
		require.NoError(t, err)
		need, ok := out.(*service.ImportNeedsConfirmation)
		require.True(t, ok)
		require.Len(t, need.Missing, 1)
		assert.Equal(t, "C-300", need.Missing[0].ProductCode)
		assert.Empty(t, need.Missing[0].Reason)

		out, err = f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{AddMissingProducts: true})
		require.NoError(t, err)
		assert.Equal(t, 1, committed(t, out).ItemsCreated)

		items, err := f.rfqRepo.ListItems(ctx, f.rfq.ID)
		require.NoError(t, err)
		require.Len(t, items, 3)
		for _, item := range items {
			if item.ProductCode == "C-300" {
				require.NotNil(t, item.ProductID)
				assert.Equal(t, filter.ID, *item.ProductID)
			}
		}
	})

	t.Run("code outside the catalog falls back to the name", func(t *testing.T) {
		f := setupImport(t, nil)
		testutil.CreateTestSupplier(t, f.db, "Acme Trading")

		out, err := f.svc.ImportText(ctx, f.rfq.ID, header+"VLV-OLD;Valve;Acme Trading;4;USD\n", service.ImportOptions{})
		require.NoError(t, err)
		summary := committed(t, out)
		assert.Zero(t, summary.ItemsCreated)
		assert.Equal(t, 1, summary.QuoteItemsCreated)
	})

	t.Run("ambiguous and unknown names are reported missing", func(t *testing.T) {
		f := setupImport(t, nil)
		testutil.CreateTestSupplier(t, f.db, "Acme Trading")
		testutil.CreateTestProduct(t, f.db, "G-1", "Gasket")
		testutil.CreateTestProduct(t, f.db, "G-2", "gasket")
		text := header + ";Gasket;Acme Trading;1;USD\n;Widget;Acme Trading;2;USD\nA-100;;Acme Trading;3;USD\n"

		out, err := f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{})
		require.NoError(t, err)
		need, ok := out.(*service.ImportNeedsConfirmation)
		require.True(t, ok)
		require.Len(t, need.Missing, 2)
		assert.Equal(t, "Gasket", need.Missing[0].ProductName)
		assert.Empty(t, need.Missing[0].ProductCode)
		assert.Equal(t, domain.MissingReasonAmbiguousName, need.Missing[0].Reason)
		assert.Equal(t, []int{2}, need.Missing[0].Lines)
		assert.Equal(t, "Widget", need.Missing[1].ProductName)
		assert.Equal(t, domain.MissingReasonUnknownName, need.Missing[1].Reason)

		_, err = f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{AddMissingProducts: true})
		assert.ErrorIs(t, err, service.ErrUnresolvedProductName)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		assert.Zero(t, testutil.CountRows(t, f.db, &domain.RfqQuote{}))
	})
}

func TestRfqImport_UnknownSuppliers(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")

	_, err := f.svc.ImportText(context.Background(), f.rfq.ID, "A-100;Nobody;1\nB-200;Ghost Co;1\nZ-1;Acme Trading;1", service.ImportOptions{})
	require.Error(t, err)

	var unknown *service.UnknownSuppliersError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"Ghost Co", "Nobody"}, unknown.Names)
	assert.ErrorIs(t, err, service.ErrUnknownSuppliers)
}

func TestRfqImport_AmbiguousSupplierNeedsChoice(t *testing.T) {
	f := setupImport(t, nil)
	trading := testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	logistics := testutil.CreateTestSupplier(t, f.db, "Acme Logistics")
	ctx := context.Background()
	text := "A-100;Acme;4"

	out, err := f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{})
	require.NoError(t, err)
	need, ok := out.(*service.ImportNeedsSupplierChoice)
	require.True(t, ok)
	require.Len(t, need.Choices, 1)
	assert.Equal(t, "Acme", need.Choices[0].Input)
	require.Len(t, need.Choices[0].Candidates, 2)
	assert.Equal(t, "Acme Logistics", need.Choices[0].Candidates[0].Name)
	assert.Zero(t, testutil.CountRows(t, f.db, &domain.RfqQuote{}))

	_, err = f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{
		SupplierChoices: map[string]uuid.UUID{"acme": uuid.New()},
	})
	assert.ErrorIs(t, err, service.ErrInvalidSupplierChoice)

	out, err = f.svc.ImportText(ctx, f.rfq.ID, text, service.ImportOptions{
		SupplierChoices: map[string]uuid.UUID{"Acme": trading.ID},
	})
	require.NoError(t, err)
	committed(t, out)

	quotes, err := f.rfqRepo.ListQuotes(ctx, f.rfq.ID)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, trading.ID, quotes[0].SupplierID)
	assert.NotEqual(t, logistics.ID, quotes[0].SupplierID)
}

func TestRfqImport_MissingProductsCheckedBeforeSupplierChoice(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	testutil.CreateTestSupplier(t, f.db, "Acme Logistics")

	out, err := f.svc.ImportText(context.Background(), f.rfq.ID, "NEW-1;Acme;4", service.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusNeedsConfirmation, out.Status())

	out, err = f.svc.ImportText(context.Background(), f.rfq.ID, "NEW-1;Acme;4", service.ImportOptions{AddMissingProducts: true})
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusNeedsSupplierChoice, out.Status())
	assert.Equal(t, int64(2), testutil.CountRows(t, f.db, &domain.RfqItem{}))
}

func TestRfqImport_LowestConflictingPriceKept(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")

	out, err := f.svc.ImportText(context.Background(), f.rfq.ID, "A-100;Acme Trading;10\nA-100;Acme Trading;8\nA-100;Acme Trading;10", service.ImportOptions{})
	require.NoError(t, err)
	summary := committed(t, out)
	require.Len(t, summary.PriceConflicts, 1)
	conflict := summary.PriceConflicts[0]
	assert.Equal(t, "A-100", conflict.ProductCode)
	assert.True(t, conflict.Kept.Equal(decimal.NewFromInt(8)))
	assert.Len(t, conflict.Prices, 2)
	assert.Equal(t, 1, summary.QuoteItemsCreated)

	quotes, err := f.rfqRepo.ListQuotes(context.Background(), f.rfq.ID)
	require.NoError(t, err)
	require.Len(t, quotes[0].Items, 1)
	assert.True(t, quotes[0].Items[0].UnitPrice.Equal(decimal.NewFromInt(8)))
}

func TestRfqImport_MixedCurrencyRejected(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")

	_, err := f.svc.ImportText(context.Background(), f.rfq.ID, "A-100;Acme Trading;10;USD\nB-200;Acme Trading;8;EUR", service.ImportOptions{})
	assert.ErrorIs(t, err, service.ErrMixedQuoteCurrency)
	assert.Zero(t, testutil.CountRows(t, f.db, &domain.RfqQuote{}))
}

func TestRfqImport_InvalidRowsRejected(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")

	_, err := f.svc.ImportText(context.Background(), f.rfq.ID, "A-100;Acme Trading;abc", service.ImportOptions{})
	require.Error(t, err)
	assert.Zero(t, testutil.CountRows(t, f.db, &domain.RfqQuote{}))
}

func TestRfqImport_ClosedRfq(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	require.NoError(t, f.rfqRepo.UpdateStatus(context.Background(), f.rfq.ID, domain.RfqStatusCancelled))

	_, err := f.svc.ImportText(context.Background(), f.rfq.ID, "A-100;Acme Trading;1", service.ImportOptions{})
	assert.ErrorIs(t, err, service.ErrRfqClosed)
}

func TestRfqImport_SentAdvancesToQuoting(t *testing.T) {
	f := setupImport(t, nil)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	ctx := context.Background()
	require.NoError(t, f.rfqRepo.UpdateStatus(ctx, f.rfq.ID, domain.RfqStatusSent))

	out, err := f.svc.ImportText(ctx, f.rfq.ID, "A-100;Acme Trading;1", service.ImportOptions{})
	require.NoError(t, err)
	committed(t, out)

	rfq, err := f.rfqRepo.GetByID(ctx, f.rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RfqStatusQuoting, rfq.Status)
}

func TestRfqImport_FileArchivedOnCommit(t *testing.T) {
	archive, err := storage.NewLocalArchive(t.TempDir())
	require.NoError(t, err)
	f := setupImport(t, archive)
	testutil.CreateTestSupplier(t, f.db, "Acme Trading")
	ctx := context.Background()
	data := []byte("Product Code;Supplier;Unit Price;Currency\nA-100;Acme Trading;4,25;USD\n")

	out, err := f.svc.ImportFile(ctx, f.rfq.ID, "acme.csv", data, service.ImportOptions{})
	require.NoError(t, err)
	summary := committed(t, out)
	require.NotEmpty(t, summary.SourcePath)

	rc, err := archive.Open(ctx, summary.SourcePath)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	quotes, err := f.rfqRepo.ListQuotes(ctx, f.rfq.ID)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, summary.SourcePath, quotes[0].SourcePath)
	assert.True(t, quotes[0].Items[0].UnitPrice.Equal(decimal.RequireFromString("4.25")))
}

func TestImportResponse(t *testing.T) {
	resp := service.ImportResponse(&service.ImportNeedsConfirmation{
		Missing: []domain.MissingProductDTO{{ProductCode: "X", Lines: []int{1}}},
	})
	assert.Equal(t, domain.ImportStatusNeedsConfirmation, resp.Status)
	assert.Len(t, resp.Missing, 1)
	assert.Nil(t, resp.Summary)

	resp = service.ImportResponse(&service.ImportCommitted{Summary: domain.RfqImportSummary{Rows: 3}})
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 3, resp.Summary.Rows)
}
