package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"gorm.io/gorm"
)

// SupplierFilters defines filter options for supplier listing
type SupplierFilters struct {
	Search      string
	IsForwarder *bool
	Country     string
}

var supplierSortableFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"country":   "country",
}

// SupplierRepository handles supplier and forwarder data access
type SupplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository creates a new supplier repository instance
func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// Create creates a new supplier
func (r *SupplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

// GetByID retrieves a supplier by ID
func (r *SupplierRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// ListAll returns every supplier. Used to build the per-request name directory.
func (r *SupplierRepository) ListAll(ctx context.Context) ([]domain.Supplier, error) {
	var suppliers []domain.Supplier
	err := r.db.WithContext(ctx).Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

// Update saves a supplier
func (r *SupplierRepository) Update(ctx context.Context, supplier *domain.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

// Delete removes a supplier
func (r *SupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Supplier{}, "id = ?", id).Error
}

// CountReferences counts invitations, quotes, orders and forwarder quotes pointing at the supplier
func (r *SupplierRepository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	checks := []struct {
		model  interface{}
		column string
	}{
		{&domain.RfqSupplier{}, "supplier_id"},
		{&domain.RfqQuote{}, "supplier_id"},
		{&domain.Order{}, "supplier_id"},
		{&domain.ForwarderQuote{}, "forwarder_id"},
	}

	var total int64
	for _, c := range checks {
		var n int64
		if err := r.db.WithContext(ctx).Model(c.model).Where(c.column+" = ?", id).Count(&n).Error; err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// ListWithSortConfig returns a paginated list of suppliers
func (r *SupplierRepository) ListWithSortConfig(ctx context.Context, page, pageSize int, filters *SupplierFilters, sort SortConfig) ([]domain.Supplier, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	query := r.db.WithContext(ctx).Model(&domain.Supplier{})

	if filters != nil {
		if filters.Search != "" {
			pattern := likePattern(filters.Search)
			query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
		}
		if filters.IsForwarder != nil {
			query = query.Where("is_forwarder = ?", *filters.IsForwarder)
		}
		if filters.Country != "" {
			query = query.Where("country = ?", filters.Country)
		}
	}

	var suppliers []domain.Supplier
	total, err := paginate(query, page, pageSize, BuildOrderClause(sort, supplierSortableFields, "updated_at"), &suppliers)
	return suppliers, total, err
}

// ListByIDs loads suppliers by id
func (r *SupplierRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Supplier, error) {
	out := make(map[uuid.UUID]domain.Supplier, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var suppliers []domain.Supplier
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&suppliers).Error; err != nil {
		return nil, err
	}
	for _, s := range suppliers {
		out[s.ID] = s
	}
	return out, nil
}
