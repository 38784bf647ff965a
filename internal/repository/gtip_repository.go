package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var gtipSortableFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"code":      "code",
}

// GtipRepository handles GTIP tariff codes and their country overrides
type GtipRepository struct {
	db *gorm.DB
}

// NewGtipRepository creates a new GTIP repository instance
func NewGtipRepository(db *gorm.DB) *GtipRepository {
	return &GtipRepository{db: db}
}

// Create creates a GTIP without its country rows
func (r *GtipRepository) Create(ctx context.Context, gtip *domain.Gtip) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(gtip).Error
}

// GetByID retrieves a GTIP with its country overrides
func (r *GtipRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Gtip, error) {
	var gtip domain.Gtip
	err := r.db.WithContext(ctx).
		Preload("CountryRates", func(db *gorm.DB) *gorm.DB { return db.Order("country ASC") }).
		Where("id = ?", id).
		First(&gtip).Error
	if err != nil {
		return nil, err
	}
	return &gtip, nil
}

// GetByCode finds a GTIP by code, returning nil when absent
func (r *GtipRepository) GetByCode(ctx context.Context, code string) (*domain.Gtip, error) {
	var gtip domain.Gtip
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&gtip).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gtip, nil
}

// ListByCodes maps GTIP codes to records. Used by the product import.
func (r *GtipRepository) ListByCodes(ctx context.Context, codes []string) (map[string]domain.Gtip, error) {
	out := make(map[string]domain.Gtip, len(codes))
	for _, chunk := range Chunk(codes, DefaultChunkSize) {
		var batch []domain.Gtip
		if err := r.db.WithContext(ctx).Where("code IN ?", chunk).Find(&batch).Error; err != nil {
			return nil, err
		}
		for _, g := range batch {
			out[g.Code] = g
		}
	}
	return out, nil
}

// List returns a paginated list of GTIPs
func (r *GtipRepository) List(ctx context.Context, page, pageSize int, search string, sort SortConfig) ([]domain.Gtip, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	query := r.db.WithContext(ctx).Model(&domain.Gtip{}).Preload("CountryRates")
	if search != "" {
		pattern := likePattern(search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var gtips []domain.Gtip
	total, err := paginate(query, page, pageSize, BuildOrderClause(sort, gtipSortableFields, "code"), &gtips)
	return gtips, total, err
}

// Update saves the base rate fields
func (r *GtipRepository) Update(ctx context.Context, gtip *domain.Gtip) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(gtip).Error
}

// Delete removes a GTIP and its country rows
func (r *GtipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gtip_id = ?", id).Delete(&domain.GtipCountryRate{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Gtip{}, "id = ?", id).Error
	})
}

// CountProducts counts products classified under the GTIP
func (r *GtipRepository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("gtip_id = ?", id).Count(&n).Error
	return n, err
}

// UpsertCountryRate inserts or replaces the override for (gtip, country)
func (r *GtipRepository) UpsertCountryRate(ctx context.Context, rate *domain.GtipCountryRate) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "gtip_id"}, {Name: "country"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"customs_duty_rate", "additional_duty_rate", "vat_rate",
				"anti_dumping_applicable", "anti_dumping_rate",
				"surveillance_applicable", "surveillance_unit_value", "updated_at",
			}),
		}).
		Create(rate).Error
}

// DeleteCountryRate removes one override. Returns false when none existed.
func (r *GtipRepository) DeleteCountryRate(ctx context.Context, gtipID uuid.UUID, country string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("gtip_id = ? AND country = ?", gtipID, country).
		Delete(&domain.GtipCountryRate{})
	return result.RowsAffected > 0, result.Error
}
