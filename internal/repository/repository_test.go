package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrderClause(t *testing.T) {
	fields := map[string]string{"name": "name", "createdAt": "created_at"}

	assert.Equal(t, "name ASC", repository.BuildOrderClause(repository.SortConfig{Field: "name", Order: repository.SortOrderAsc}, fields, "updated_at"))
	assert.Equal(t, "updated_at DESC", repository.BuildOrderClause(repository.SortConfig{Field: "name; DROP TABLE", Order: "desc"}, fields, "updated_at"))
	assert.Equal(t, repository.SortOrderDesc, repository.ParseSortOrder("sideways"))
	assert.Equal(t, repository.SortOrderAsc, repository.ParseSortOrder("ASC"))
}

func TestNormalizePage(t *testing.T) {
	page, size := repository.NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	_, size = repository.NormalizePage(3, 5000)
	assert.Equal(t, repository.MaxPageSize, size)
}

func TestChunk(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}
	chunks := repository.Chunk(in, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []int{5}, chunks[2])
	assert.Empty(t, repository.Chunk([]int{}, 2))
}

func TestNumberSequence_GetNextNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := repo.GetNextNumber(ctx, "RFQ", 2026)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// independent counters per prefix and year
	got, err := repo.GetNextNumber(ctx, "PO", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	got, err = repo.GetNextNumber(ctx, "RFQ", 2027)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestProductRepository_UpsertByCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewProductRepository(db)
	ctx := context.Background()

	testutil.CreateTestProduct(t, db, "A-1", "Old name")

	written, err := repo.UpsertByCode(ctx, []domain.Product{
		{Code: "A-1", Name: "New name", NetsisStokKodu: "N1"},
		{Code: "B-2", Name: "Fresh"},
		{Code: "C-3"},
	}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, written)
	assert.Equal(t, int64(3), testutil.CountRows(t, db, &domain.Product{}))

	a, err := repo.GetByCode(ctx, "A-1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "New name", a.Name)
	assert.Equal(t, "N1", a.StockCode())

	missing, err := repo.GetByCode(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepository_MissingNamesAndFill(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewProductRepository(db)
	ctx := context.Background()

	testutil.CreateTestProduct(t, db, "AB-1", "")
	b := testutil.CreateTestProduct(t, db, "AB-2", "")
	testutil.CreateTestProduct(t, db, "CD-1", "")
	testutil.CreateTestProduct(t, db, "AB-3", "Named")

	page, err := repo.ListMissingNames(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "AB-1", page[0].Code)
	assert.Equal(t, "AB-2", page[1].Code)

	page, err = repo.ListMissingNames(ctx, "AB-2", 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "CD-1", page[0].Code)

	byPrefix, err := repo.ListMissingNamesByPrefix(ctx, "AB")
	require.NoError(t, err)
	assert.Len(t, byPrefix, 2)

	changed, err := repo.FillName(ctx, b.ID, "Bolt")
	require.NoError(t, err)
	assert.True(t, changed)

	// names are never overwritten
	changed, err = repo.FillName(ctx, b.ID, "Other")
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bolt", got.Name)
}

func TestProductRepository_CountReferences(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewProductRepository(db)
	p := testutil.CreateTestProduct(t, db, "P-1", "Pump")
	testutil.CreateTestRfq(t, db, "RFQ-FIXTURE-1", "USD", p)

	n, err := repo.CountReferences(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRfqRepository_SelectQuoteAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewRfqRepository(db)
	ctx := context.Background()

	p := testutil.CreateTestProduct(t, db, "P-1", "Pump")
	rfq := testutil.CreateTestRfq(t, db, "RFQ-FIXTURE-1", "USD", p)
	s1 := testutil.CreateTestSupplier(t, db, "Acme Trading Ltd")
	s2 := testutil.CreateTestSupplier(t, db, "Acme Foods Ltd")

	q1 := &domain.RfqQuote{RfqID: rfq.ID, SupplierID: s1.ID, SupplierName: s1.Name, Currency: "USD"}
	q2 := &domain.RfqQuote{RfqID: rfq.ID, SupplierID: s2.ID, SupplierName: s2.Name, Currency: "USD"}
	require.NoError(t, repo.CreateQuote(ctx, q1))
	require.NoError(t, repo.CreateQuote(ctx, q2))
	require.NoError(t, repo.CreateQuoteItems(ctx, []domain.RfqQuoteItem{
		{QuoteID: q1.ID, RfqItemID: rfq.Items[0].ID, UnitPrice: decimal.NewFromInt(12)},
	}, 10))

	require.NoError(t, repo.SelectQuote(ctx, rfq.ID, q1.ID))
	require.NoError(t, repo.SelectQuote(ctx, rfq.ID, q2.ID))

	quotes, err := repo.ListQuotes(ctx, rfq.ID)
	require.NoError(t, err)
	selected := 0
	for _, q := range quotes {
		if q.IsSelected {
			selected++
			assert.Equal(t, q2.ID, q.ID)
		}
	}
	assert.Equal(t, 1, selected)

	require.NoError(t, repo.Delete(ctx, rfq.ID))
	assert.Zero(t, testutil.CountRows(t, db, &domain.RfqQuoteItem{}))
	assert.Zero(t, testutil.CountRows(t, db, &domain.RfqQuote{}))
	assert.Zero(t, testutil.CountRows(t, db, &domain.RfqItem{}))
	assert.Equal(t, int64(1), testutil.CountRows(t, db, &domain.Product{}))
}

func TestOrderRepository_RecalculateTotal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	order := &domain.Order{Code: "PO-FIXTURE-1", Currency: "EUR", Status: domain.OrderStatusDraft}
	require.NoError(t, repo.Create(ctx, order))
	require.NoError(t, repo.CreateItems(ctx, []domain.OrderItem{
		{OrderID: order.ID, ProductCode: "A", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("2.5")},
		{OrderID: order.ID, ProductCode: "B", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10)},
	}, 100))

	total, err := repo.RecalculateTotal(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("27.5").Equal(total), total.String())

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(got.TotalAmount))
	assert.Len(t, got.Items, 2)
}

func TestShipmentRepository_SelectQuote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewShipmentRepository(db)
	ctx := context.Background()

	fwd := testutil.CreateTestForwarder(t, db, "Fast Freight")
	shipment := &domain.Shipment{Reference: "SHP-1", Status: domain.ShipmentStatusPlanned}
	require.NoError(t, repo.Create(ctx, shipment))

	a := &domain.ForwarderQuote{ShipmentID: shipment.ID, ForwarderID: fwd.ID, Amount: decimal.NewFromInt(900), Currency: "USD"}
	b := &domain.ForwarderQuote{ShipmentID: shipment.ID, ForwarderID: fwd.ID, Amount: decimal.NewFromInt(800), Currency: "USD"}
	require.NoError(t, repo.CreateQuote(ctx, a))
	require.NoError(t, repo.CreateQuote(ctx, b))

	ok, err := repo.SelectQuote(ctx, shipment.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.SelectQuote(ctx, shipment.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SelectQuote(ctx, shipment.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, shipment.ID)
	require.NoError(t, err)
	for _, q := range got.Quotes {
		assert.False(t, q.IsSelected)
	}
}
