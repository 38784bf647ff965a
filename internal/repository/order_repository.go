package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilters defines filter options for order listing
type OrderFilters struct {
	Search     string
	Status     *domain.OrderStatus
	SupplierID *uuid.UUID
}

var orderSortableFields = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"code":        "code",
	"totalAmount": "total_amount",
}

// OrderRepository handles purchase orders and their items
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order header
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

// GetByID retrieves an order with its items
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_code ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns a paginated list of order headers
func (r *OrderRepository) List(ctx context.Context, page, pageSize int, filters *OrderFilters, sort SortConfig) ([]domain.Order, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	query := r.db.WithContext(ctx).Model(&domain.Order{})

	if filters != nil {
		if filters.Search != "" {
			pattern := likePattern(filters.Search)
			query = query.Where("LOWER(code) LIKE ? OR LOWER(supplier_name) LIKE ?", pattern, pattern)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.SupplierID != nil {
			query = query.Where("supplier_id = ?", *filters.SupplierID)
		}
	}

	var orders []domain.Order
	total, err := paginate(query, page, pageSize, BuildOrderClause(sort, orderSortableFields, "updated_at"), &orders)
	return orders, total, err
}

// Delete removes an order and its items
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Order{}, "id = ?", id).Error
	})
}

// CreateItems inserts order items in chunks
func (r *OrderRepository) CreateItems(ctx context.Context, items []domain.OrderItem, chunkSize int) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&items, chunkSize).Error
}

// GetItem retrieves one item of an order
func (r *OrderRepository) GetItem(ctx context.Context, orderID, itemID uuid.UUID) (*domain.OrderItem, error) {
	var item domain.OrderItem
	err := r.db.WithContext(ctx).Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem writes quantity and unit price
func (r *OrderRepository) UpdateItem(ctx context.Context, item *domain.OrderItem) error {
	return r.db.WithContext(ctx).Model(item).Select("quantity", "unit_price").Updates(item).Error
}

// DeleteItem removes one item
func (r *OrderRepository) DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ? AND order_id = ?", itemID, orderID).Delete(&domain.OrderItem{}).Error
}

// RecalculateTotal recomputes total_amount from the persisted items and stores it
func (r *OrderRepository) RecalculateTotal(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var items []domain.OrderItem
	if err := r.db.WithContext(ctx).Select("quantity", "unit_price").Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}

	err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", orderID).Update("total_amount", total).Error
	return total, err
}
