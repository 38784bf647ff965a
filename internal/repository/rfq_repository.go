package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RfqFilters defines filter options for RFQ listing
type RfqFilters struct {
	Search string
	Status *domain.RfqStatus
}

var rfqSortableFields = map[string]string{
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
	"code":            "code",
	"status":          "status",
	"responseDueDate": "response_due_date",
}

// RfqRepository handles RFQs and everything they own: items, invitations, quotes and quote items.
// Multi-row writes are chunked; callers compensate failed sequences themselves.
type RfqRepository struct {
	db *gorm.DB
}

// NewRfqRepository creates a new RFQ repository instance
func NewRfqRepository(db *gorm.DB) *RfqRepository {
	return &RfqRepository{db: db}
}

// Create inserts the RFQ header only
func (r *RfqRepository) Create(ctx context.Context, rfq *domain.Rfq) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(rfq).Error
}

// GetByID retrieves the RFQ header
func (r *RfqRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rfq, error) {
	var rfq domain.Rfq
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rfq).Error; err != nil {
		return nil, err
	}
	return &rfq, nil
}

// GetDetail retrieves the RFQ with items, invitations and quotes including quote items
func (r *RfqRepository) GetDetail(ctx context.Context, id uuid.UUID) (*domain.Rfq, error) {
	var rfq domain.Rfq
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_code ASC") }).
		Preload("Suppliers", func(db *gorm.DB) *gorm.DB { return db.Order("supplier_name ASC") }).
		Preload("Quotes", func(db *gorm.DB) *gorm.DB { return db.Order("supplier_name ASC") }).
		Preload("Quotes.Items").
		Where("id = ?", id).
		First(&rfq).Error
	if err != nil {
		return nil, err
	}
	return &rfq, nil
}

// List returns a paginated list of RFQ headers
func (r *RfqRepository) List(ctx context.Context, page, pageSize int, filters *RfqFilters, sort SortConfig) ([]domain.Rfq, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	query := r.db.WithContext(ctx).Model(&domain.Rfq{})

	if filters != nil {
		if filters.Search != "" {
			pattern := likePattern(filters.Search)
			query = query.Where("LOWER(code) LIKE ? OR LOWER(title) LIKE ?", pattern, pattern)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
	}

	var rfqs []domain.Rfq
	total, err := paginate(query, page, pageSize, BuildOrderClause(sort, rfqSortableFields, "updated_at"), &rfqs)
	return rfqs, total, err
}

// UpdateStatus sets the status column
func (r *RfqRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RfqStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Rfq{}).Where("id = ?", id).Update("status", status).Error
}

// MarkConverted records the order created from the RFQ
func (r *RfqRepository) MarkConverted(ctx context.Context, id, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.Rfq{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":   domain.RfqStatusConverted,
		"order_id": orderID,
	}).Error
}

// Delete removes the RFQ and all owned rows, children first
func (r *RfqRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quoteIDs := tx.Model(&domain.RfqQuote{}).Select("id").Where("rfq_id = ?", id)
		if err := tx.Where("quote_id IN (?)", quoteIDs).Delete(&domain.RfqQuoteItem{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{&domain.RfqQuote{}, &domain.RfqSupplier{}, &domain.RfqItem{}} {
			if err := tx.Where("rfq_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&domain.Rfq{}, "id = ?", id).Error
	})
}

// Items

// ListItems returns the RFQ items ordered by product code
func (r *RfqRepository) ListItems(ctx context.Context, rfqID uuid.UUID) ([]domain.RfqItem, error) {
	var items []domain.RfqItem
	err := r.db.WithContext(ctx).Where("rfq_id = ?", rfqID).Order("product_code ASC").Find(&items).Error
	return items, err
}

// CreateItems inserts items in chunks
func (r *RfqRepository) CreateItems(ctx context.Context, items []domain.RfqItem, chunkSize int) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&items, chunkSize).Error
}

// DeleteItems removes items by id
func (r *RfqRepository) DeleteItems(ctx context.Context, ids []uuid.UUID) error {
	for _, chunk := range Chunk(ids, DefaultChunkSize) {
		if err := r.db.WithContext(ctx).Where("id IN ?", chunk).Delete(&domain.RfqItem{}).Error; err != nil {
			return err
		}
	}
	return nil
}

// Invitations

// ListSuppliers returns the invitations of an RFQ
func (r *RfqRepository) ListSuppliers(ctx context.Context, rfqID uuid.UUID) ([]domain.RfqSupplier, error) {
	var rows []domain.RfqSupplier
	err := r.db.WithContext(ctx).Where("rfq_id = ?", rfqID).Find(&rows).Error
	return rows, err
}

// CreateSuppliers inserts invitations
func (r *RfqRepository) CreateSuppliers(ctx context.Context, rows []domain.RfqSupplier) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&rows, DefaultChunkSize).Error
}

// DeleteSuppliers removes invitations by id
func (r *RfqRepository) DeleteSuppliers(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.RfqSupplier{}).Error
}

// Quotes

// ListQuotes returns the quotes of an RFQ with their items
func (r *RfqRepository) ListQuotes(ctx context.Context, rfqID uuid.UUID) ([]domain.RfqQuote, error) {
	var quotes []domain.RfqQuote
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("rfq_id = ?", rfqID).
		Order("supplier_name ASC").
		Find(&quotes).Error
	return quotes, err
}

// GetQuote retrieves one quote with its items
func (r *RfqRepository) GetQuote(ctx context.Context, rfqID, quoteID uuid.UUID) (*domain.RfqQuote, error) {
	var quote domain.RfqQuote
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND rfq_id = ?", quoteID, rfqID).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// CreateQuote inserts the quote header
func (r *RfqRepository) CreateQuote(ctx context.Context, quote *domain.RfqQuote) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(quote).Error
}

// DeleteQuote removes a quote and its items
func (r *RfqRepository) DeleteQuote(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&domain.RfqQuoteItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.RfqQuote{}, "id = ?", id).Error
	})
}

// SelectQuote clears is_selected on every quote of the RFQ, then sets it on quoteID.
// Two concurrent selections may interleave and leave zero or two quotes selected.
func (r *RfqRepository) SelectQuote(ctx context.Context, rfqID, quoteID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.RfqQuote{}).Where("rfq_id = ?", rfqID).Update("is_selected", false).Error; err != nil {
		return err
	}
	return db.Model(&domain.RfqQuote{}).Where("id = ? AND rfq_id = ?", quoteID, rfqID).Update("is_selected", true).Error
}

// ClearQuoteSelection unselects every quote of the RFQ
func (r *RfqRepository) ClearQuoteSelection(ctx context.Context, rfqID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.RfqQuote{}).Where("rfq_id = ?", rfqID).Update("is_selected", false).Error
}

// Quote items

// ListQuoteItems returns the items of the given quotes
func (r *RfqRepository) ListQuoteItems(ctx context.Context, quoteIDs []uuid.UUID) ([]domain.RfqQuoteItem, error) {
	var items []domain.RfqQuoteItem
	for _, chunk := range Chunk(quoteIDs, DefaultChunkSize) {
		var batch []domain.RfqQuoteItem
		if err := r.db.WithContext(ctx).Where("quote_id IN ?", chunk).Find(&batch).Error; err != nil {
			return nil, err
		}
		items = append(items, batch...)
	}
	return items, nil
}

// CreateQuoteItems inserts quote items in chunks
func (r *RfqRepository) CreateQuoteItems(ctx context.Context, items []domain.RfqQuoteItem, chunkSize int) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&items, chunkSize).Error
}

// UpdateQuoteItems writes the price fields of existing quote items
func (r *RfqRepository) UpdateQuoteItems(ctx context.Context, items []domain.RfqQuoteItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			err := tx.Model(&items[i]).
				Select("unit_price", "quantity", "transit_days", "min_order", "delivery_time", "validity_date", "notes", "source").
				Updates(&items[i]).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteQuoteItems removes quote items by id
func (r *RfqRepository) DeleteQuoteItems(ctx context.Context, ids []uuid.UUID) error {
	for _, chunk := range Chunk(ids, DefaultChunkSize) {
		if err := r.db.WithContext(ctx).Where("id IN ?", chunk).Delete(&domain.RfqQuoteItem{}).Error; err != nil {
			return err
		}
	}
	return nil
}
