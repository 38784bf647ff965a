package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/mapper"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"go.uber.org/zap"
)

// SupplierService handles business logic for suppliers and forwarders
type SupplierService struct {
	supplierRepo *repository.SupplierRepository
	logger       *zap.Logger
}

// NewSupplierService creates a new supplier service instance
func NewSupplierService(supplierRepo *repository.SupplierRepository, logger *zap.Logger) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
		logger:       logger,
	}
}

// Create creates a new supplier
func (s *SupplierService) Create(ctx context.Context, req *domain.CreateSupplierRequest) (*domain.SupplierDTO, error) {
	supplier := &domain.Supplier{}
	if err := applySupplier(supplier, req); err != nil {
		return nil, err
	}

	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, mapper.FormatError("supplier", "create", err)
	}

	s.logger.Info("supplier created",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("name", supplier.Name),
		zap.Bool("forwarder", supplier.IsForwarder))

	dto := mapper.ToSupplierDTO(supplier)
	return &dto, nil
}

// GetByID retrieves a supplier by ID
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupplierDTO, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrSupplierNotFound, "supplier")
	}
	dto := mapper.ToSupplierDTO(supplier)
	return &dto, nil
}

// List returns a paginated supplier list
func (s *SupplierService) List(ctx context.Context, page, pageSize int, filters *repository.SupplierFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	suppliers, total, err := s.supplierRepo.ListWithSortConfig(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, mapper.FormatError("suppliers", "list", err)
	}

	dtos := make([]domain.SupplierDTO, len(suppliers))
	for i := range suppliers {
		dtos[i] = mapper.ToSupplierDTO(&suppliers[i])
	}
	resp := domain.NewPaginatedResponse(dtos, total, page, pageSize)
	return &resp, nil
}

// Update replaces the editable supplier fields
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateSupplierRequest) (*domain.SupplierDTO, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrSupplierNotFound, "supplier")
	}
	if err := applySupplier(supplier, req); err != nil {
		return nil, err
	}

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, mapper.FormatError("supplier", "update", err)
	}

	s.logger.Info("supplier updated", zap.String("supplier_id", id.String()))
	dto := mapper.ToSupplierDTO(supplier)
	return &dto, nil
}

// Delete removes a supplier that is not referenced by RFQs, orders or freight quotes
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.supplierRepo.GetByID(ctx, id); err != nil {
		return lookupError(err, ErrSupplierNotFound, "supplier")
	}

	refs, err := s.supplierRepo.CountReferences(ctx, id)
	if err != nil {
		return mapper.FormatError("supplier", "count references of", err)
	}
	if refs > 0 {
		return ErrSupplierInUse
	}

	if err := s.supplierRepo.Delete(ctx, id); err != nil {
		return writeError(err, ErrSupplierInUse, "supplier", "delete")
	}

	s.logger.Info("supplier deleted", zap.String("supplier_id", id.String()))
	return nil
}

func applySupplier(supplier *domain.Supplier, req *domain.CreateSupplierRequest) error {
	name := strings.Join(strings.Fields(req.Name), " ")
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	supplier.Name = name
	supplier.Country = strings.ToUpper(strings.TrimSpace(req.Country))
	supplier.Email = strings.TrimSpace(req.Email)
	supplier.Phone = strings.TrimSpace(req.Phone)
	supplier.IsForwarder = req.IsForwarder
	supplier.Notes = req.Notes
	return nil
}
