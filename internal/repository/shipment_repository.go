package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var shipmentSortableFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"reference": "reference",
	"eta":       "eta",
}

// ShipmentRepository handles shipments and forwarder quotes
type ShipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository creates a new shipment repository instance
func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// Create inserts a shipment
func (r *ShipmentRepository) Create(ctx context.Context, shipment *domain.Shipment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(shipment).Error
}

// GetByID retrieves a shipment with its forwarder quotes
func (r *ShipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	var shipment domain.Shipment
	err := r.db.WithContext(ctx).
		Preload("Quotes", func(db *gorm.DB) *gorm.DB { return db.Order("amount ASC") }).
		Where("id = ?", id).
		First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// List returns a paginated list of shipments
func (r *ShipmentRepository) List(ctx context.Context, page, pageSize int, status *domain.ShipmentStatus, sort SortConfig) ([]domain.Shipment, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	query := r.db.WithContext(ctx).Model(&domain.Shipment{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var shipments []domain.Shipment
	total, err := paginate(query, page, pageSize, BuildOrderClause(sort, shipmentSortableFields, "updated_at"), &shipments)
	return shipments, total, err
}

// CreateQuote inserts a forwarder quote
func (r *ShipmentRepository) CreateQuote(ctx context.Context, quote *domain.ForwarderQuote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

// SelectQuote clears is_selected on every quote of the shipment, then sets it on quoteID.
// Between the two statements no quote is selected. Concurrent selections are not serialized.
func (r *ShipmentRepository) SelectQuote(ctx context.Context, shipmentID, quoteID uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.ForwarderQuote{}).Where("shipment_id = ?", shipmentID).Update("is_selected", false).Error; err != nil {
		return false, err
	}
	result := db.Model(&domain.ForwarderQuote{}).Where("id = ? AND shipment_id = ?", quoteID, shipmentID).Update("is_selected", true)
	return result.RowsAffected > 0, result.Error
}
