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

// ShipmentService handles shipments and the freight quotes forwarders give for them
type ShipmentService struct {
	shipmentRepo *repository.ShipmentRepository
	supplierRepo *repository.SupplierRepository
	orderRepo    *repository.OrderRepository
	logger       *zap.Logger
}

// NewShipmentService creates a new shipment service instance
func NewShipmentService(
	shipmentRepo *repository.ShipmentRepository,
	supplierRepo *repository.SupplierRepository,
	orderRepo *repository.OrderRepository,
	logger *zap.Logger,
) *ShipmentService {
	return &ShipmentService{
		shipmentRepo: shipmentRepo,
		supplierRepo: supplierRepo,
		orderRepo:    orderRepo,
		logger:       logger,
	}
}

// Create creates a planned shipment, optionally for an order
func (s *ShipmentService) Create(ctx context.Context, req *domain.CreateShipmentRequest) (*domain.ShipmentDTO, error) {
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}
	if req.Etd != nil && req.Eta != nil && req.Eta.Before(*req.Etd) {
		return nil, fmt.Errorf("%w: eta is before etd", ErrInvalidInput)
	}
	if req.OrderID != nil {
		if _, err := s.orderRepo.GetByID(ctx, *req.OrderID); err != nil {
			return nil, lookupError(err, ErrOrderNotFound, "order")
		}
	}

	shipment := &domain.Shipment{
		Reference:   reference,
		OrderID:     req.OrderID,
		Origin:      strings.TrimSpace(req.Origin),
		Destination: strings.TrimSpace(req.Destination),
		Status:      domain.ShipmentStatusPlanned,
		Etd:         req.Etd,
		Eta:         req.Eta,
	}
	if err := s.shipmentRepo.Create(ctx, shipment); err != nil {
		return nil, mapper.FormatError("shipment", "create", err)
	}

	s.logger.Info("shipment created", zap.String("shipment_id", shipment.ID.String()), zap.String("reference", reference))
	return s.GetByID(ctx, shipment.ID)
}

// GetByID retrieves a shipment with its quotes, cheapest first
func (s *ShipmentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ShipmentDTO, error) {
	shipment, err := s.shipmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrShipmentNotFound, "shipment")
	}
	dto := mapper.ToShipmentDTO(shipment)
	return &dto, nil
}

// List returns a paginated shipment list
func (s *ShipmentService) List(ctx context.Context, page, pageSize int, status *domain.ShipmentStatus, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	shipments, total, err := s.shipmentRepo.List(ctx, page, pageSize, status, sort)
	if err != nil {
		return nil, mapper.FormatError("shipments", "list", err)
	}

	dtos := make([]domain.ShipmentDTO, len(shipments))
	for i := range shipments {
		dtos[i] = mapper.ToShipmentDTO(&shipments[i])
	}
	resp := domain.NewPaginatedResponse(dtos, total, page, pageSize)
	return &resp, nil
}

// AddQuote records a freight offer. The supplier must be a forwarder.
func (s *ShipmentService) AddQuote(ctx context.Context, shipmentID uuid.UUID, req *domain.CreateForwarderQuoteRequest) (*domain.ShipmentDTO, error) {
	if _, err := s.shipmentRepo.GetByID(ctx, shipmentID); err != nil {
		return nil, lookupError(err, ErrShipmentNotFound, "shipment")
	}
	forwarder, err := s.supplierRepo.GetByID(ctx, req.ForwarderID)
	if err != nil {
		return nil, lookupError(err, ErrSupplierNotFound, "supplier")
	}
	if !forwarder.IsForwarder {
		return nil, ErrNotForwarder
	}
	if req.Amount.IsNegative() {
		return nil, ErrInvalidPrice
	}

	quote := &domain.ForwarderQuote{
		ShipmentID:    shipmentID,
		ForwarderID:   forwarder.ID,
		ForwarderName: forwarder.Name,
		Amount:        req.Amount,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
		TransitDays:   req.TransitDays,
		Notes:         req.Notes,
	}
	if err := s.shipmentRepo.CreateQuote(ctx, quote); err != nil {
		return nil, mapper.FormatError("forwarder quote", "create", err)
	}

	s.logger.Info("forwarder quote added",
		zap.String("shipment_id", shipmentID.String()),
		zap.String("forwarder", forwarder.Name),
		zap.String("amount", quote.Amount.String()))
	return s.GetByID(ctx, shipmentID)
}

// SelectQuote marks one quote selected and clears the others
func (s *ShipmentService) SelectQuote(ctx context.Context, shipmentID, quoteID uuid.UUID) (*domain.ShipmentDTO, error) {
	shipment, err := s.shipmentRepo.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, lookupError(err, ErrShipmentNotFound, "shipment")
	}
	found := false
	for _, q := range shipment.Quotes {
		if q.ID == quoteID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrForwarderQuoteNotFound
	}

	ok, err := s.shipmentRepo.SelectQuote(ctx, shipmentID, quoteID)
	if err != nil {
		return nil, mapper.FormatError("forwarder quote", "select", err)
	}
	if !ok {
		return nil, ErrForwarderQuoteNotFound
	}

	s.logger.Info("forwarder quote selected", zap.String("shipment_id", shipmentID.String()), zap.String("quote_id", quoteID.String()))
	return s.GetByID(ctx, shipmentID)
}
