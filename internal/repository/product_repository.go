package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFilters defines filter options for product listing
type ProductFilters struct {
	Search  string
	GtipID  *uuid.UUID
	NoName  bool
	HasGtip *bool
}

var productSortableFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"code":      "code",
	"name":      "name",
}

// ProductRepository handles product data access operations
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

// GetByID retrieves a product with its GTIP and country rates
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).
		Preload("Gtip").
		Preload("Gtip.CountryRates").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByCode finds a product by code ignoring case, returning nil when absent
func (r *ProductRepository) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).Where("UPPER(code) = UPPER(?)", code).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs loads products with GTIP data, chunked
func (r *ProductRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	var products []domain.Product
	for _, chunk := range Chunk(ids, DefaultChunkSize) {
		var batch []domain.Product
		err := r.db.WithContext(ctx).
			Preload("Gtip").
			Preload("Gtip.CountryRates").
			Where("id IN ?", chunk).
			Find(&batch).Error
		if err != nil {
			return nil, err
		}
		products = append(products, batch...)
	}
	return products, nil
}

// ListAll returns the whole catalog with only the columns matching needs
func (r *ProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Select("id", "code", "name").
		Order("code ASC").
		Find(&products).Error
	return products, err
}

// Update saves all product columns
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Product{}, "id = ?", id).Error
}

// CountReferences counts RFQ and order lines pointing at the product
func (r *ProductRepository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var rfqItems, orderItems int64
	if err := r.db.WithContext(ctx).Model(&domain.RfqItem{}).Where("product_id = ?", id).Count(&rfqItems).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&domain.OrderItem{}).Where("product_id = ?", id).Count(&orderItems).Error; err != nil {
		return 0, err
	}
	return rfqItems + orderItems, nil
}

// ListWithSortConfig returns a paginated, filtered product list
func (r *ProductRepository) ListWithSortConfig(ctx context.Context, page, pageSize int, filters *ProductFilters, sort SortConfig) ([]domain.Product, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	query := r.db.WithContext(ctx).Model(&domain.Product{}).Preload("Gtip")

	if filters != nil {
		if filters.Search != "" {
			pattern := likePattern(filters.Search)
			query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ? OR LOWER(netsis_stok_kodu) LIKE ?", pattern, pattern, pattern)
		}
		if filters.GtipID != nil {
			query = query.Where("gtip_id = ?", *filters.GtipID)
		}
		if filters.NoName {
			query = query.Where("name = '' OR name IS NULL")
		}
		if filters.HasGtip != nil {
			if *filters.HasGtip {
				query = query.Where("gtip_id IS NOT NULL")
			} else {
				query = query.Where("gtip_id IS NULL")
			}
		}
	}

	var products []domain.Product
	total, err := paginate(query, page, pageSize, BuildOrderClause(sort, productSortableFields, "updated_at"), &products)
	return products, total, err
}

// UpsertByCode inserts products or updates the existing row with the same code.
// Rows are written in chunks; the return value is the number of rows written.
func (r *ProductRepository) UpsertByCode(ctx context.Context, products []domain.Product, chunkSize int) (int, error) {
	written := 0
	for _, chunk := range Chunk(products, chunkSize) {
		err := r.db.WithContext(ctx).
			Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "netsis_stok_kodu", "gtip_id", "domestic_cost_percent", "weight_kg", "updated_at"}),
			}).
			Create(&chunk).Error
		if err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}

// ListMissingNames returns products with an empty name ordered by code, starting after cursor
func (r *ProductRepository) ListMissingNames(ctx context.Context, cursor string, limit int) ([]domain.Product, error) {
	var products []domain.Product
	query := r.db.WithContext(ctx).
		Where("name = '' OR name IS NULL")
	if cursor != "" {
		query = query.Where("code > ?", cursor)
	}
	err := query.Order("code ASC").Limit(limit).Find(&products).Error
	return products, err
}

// ListMissingNamesByPrefix returns products with an empty name whose stock code starts with prefix
func (r *ProductRepository) ListMissingNamesByPrefix(ctx context.Context, prefix string) ([]domain.Product, error) {
	var products []domain.Product
	pattern := prefix + "%"
	err := r.db.WithContext(ctx).
		Where("name = '' OR name IS NULL").
		Where("code LIKE ? OR netsis_stok_kodu LIKE ?", pattern, pattern).
		Order("code ASC").
		Find(&products).Error
	return products, err
}

// FillName sets the name only while it is still empty. Returns whether a row changed.
func (r *ProductRepository) FillName(ctx context.Context, id uuid.UUID, name string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND (name = '' OR name IS NULL)", id).
		Updates(map[string]interface{}{"name": name})
	return result.RowsAffected > 0, result.Error
}

// ListByCodes loads products by exact code, chunked
func (r *ProductRepository) ListByCodes(ctx context.Context, codes []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(codes))
	for _, chunk := range Chunk(codes, DefaultChunkSize) {
		var batch []domain.Product
		if err := r.db.WithContext(ctx).Where("code IN ?", chunk).Find(&batch).Error; err != nil {
			return nil, err
		}
		for _, p := range batch {
			out[p.Code] = p
		}
	}
	return out, nil
}
