package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/database"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// Each call gets its own database so tests can run in parallel.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.Options())
	require.NoError(t, err, "failed to open sqlite test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a shared-cache memory database lives as long as one connection is open
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateTestProduct creates a product with the given code and name
func CreateTestProduct(t *testing.T, db *gorm.DB, code, name string) *domain.Product {
	t.Helper()
	product := &domain.Product{Code: code, Name: name}
	require.NoError(t, db.Create(product).Error)
	return product
}

// CreateTestSupplier creates a supplier with the given name
func CreateTestSupplier(t *testing.T, db *gorm.DB, name string) *domain.Supplier {
	t.Helper()
	supplier := &domain.Supplier{Name: name}
	require.NoError(t, db.Create(supplier).Error)
	return supplier
}

// CreateTestForwarder creates a supplier flagged as forwarder
func CreateTestForwarder(t *testing.T, db *gorm.DB, name string) *domain.Supplier {
	t.Helper()
	supplier := &domain.Supplier{Name: name, IsForwarder: true}
	require.NoError(t, db.Create(supplier).Error)
	return supplier
}

// CreateTestGtip creates a GTIP with the given customs duty rate and no other duties
func CreateTestGtip(t *testing.T, db *gorm.DB, code string, customsRate int64) *domain.Gtip {
	t.Helper()
	gtip := &domain.Gtip{
		Code:            code,
		CustomsDutyRate: decimal.NewFromInt(customsRate),
		VatRate:         decimal.NewFromInt(20),
	}
	require.NoError(t, db.Create(gtip).Error)
	return gtip
}

// CreateTestRfq creates an RFQ in quoting state with one item per product
func CreateTestRfq(t *testing.T, db *gorm.DB, code, currency string, products ...*domain.Product) *domain.Rfq {
	t.Helper()
	rfq := &domain.Rfq{Code: code, Status: domain.RfqStatusQuoting, Currency: currency}
	require.NoError(t, db.Omit("Items", "Suppliers", "Quotes").Create(rfq).Error)

	for _, p := range products {
		id := p.ID
		item := domain.RfqItem{
			RfqID:       rfq.ID,
			ProductID:   &id,
			ProductCode: p.Code,
			ProductName: p.Name,
			Quantity:    decimal.NewFromInt(10),
		}
		require.NoError(t, db.Create(&item).Error)
		rfq.Items = append(rfq.Items, item)
	}
	return rfq
}

// CountRows counts rows of a model
func CountRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
