package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DiscrepancyRepository persists discrepancy runs
type DiscrepancyRepository struct {
	db *gorm.DB
}

// NewDiscrepancyRepository creates a new discrepancy repository instance
func NewDiscrepancyRepository(db *gorm.DB) *DiscrepancyRepository {
	return &DiscrepancyRepository{db: db}
}

// CreateRun inserts the run header
func (r *DiscrepancyRepository) CreateRun(ctx context.Context, run *domain.DiscrepancyRun) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(run).Error
}

// CreateRows inserts run rows in chunks
func (r *DiscrepancyRepository) CreateRows(ctx context.Context, rows []domain.DiscrepancyRow, chunkSize int) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&rows, chunkSize).Error
}

// DeleteRun removes a run and its rows
func (r *DiscrepancyRepository) DeleteRun(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&domain.DiscrepancyRow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.DiscrepancyRun{}, "id = ?", id).Error
	})
}

// GetRun retrieves a run with its rows ordered by product code
func (r *DiscrepancyRepository) GetRun(ctx context.Context, id uuid.UUID) (*domain.DiscrepancyRun, error) {
	var run domain.DiscrepancyRun
	err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("product_code ASC") }).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns a page of run headers, newest first
func (r *DiscrepancyRepository) ListRuns(ctx context.Context, page, pageSize int) ([]domain.DiscrepancyRun, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	var runs []domain.DiscrepancyRun
	total, err := paginate(r.db.WithContext(ctx).Model(&domain.DiscrepancyRun{}), page, pageSize, "created_at DESC", &runs)
	return runs, total, err
}
