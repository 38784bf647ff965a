package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/aggregate"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/mapper"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RfqService handles RFQ lifecycle, comparison and conversion to purchase orders
type RfqService struct {
	rfqRepo      *repository.RfqRepository
	productRepo  *repository.ProductRepository
	supplierRepo *repository.SupplierRepository
	orderRepo    *repository.OrderRepository
	numbers      *NumberSequenceService
	chunkSize    int
	logger       *zap.Logger
}

// NewRfqService creates a new RFQ service instance
func NewRfqService(
	rfqRepo *repository.RfqRepository,
	productRepo *repository.ProductRepository,
	supplierRepo *repository.SupplierRepository,
	orderRepo *repository.OrderRepository,
	numbers *NumberSequenceService,
	chunkSize int,
	logger *zap.Logger,
) *RfqService {
	if chunkSize <= 0 {
		chunkSize = repository.DefaultChunkSize
	}
	return &RfqService{
		rfqRepo:      rfqRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		orderRepo:    orderRepo,
		numbers:      numbers,
		chunkSize:    chunkSize,
		logger:       logger,
	}
}

// Create creates an RFQ with its items and supplier invitations. Items naming the same
// product code are merged and their quantities summed.
func (s *RfqService) Create(ctx context.Context, req *domain.CreateRfqRequest) (*domain.RfqDetailDTO, error) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrInvalidInput)
	}

	lines := make([]aggregate.Line, 0, len(req.Items))
	productIDs := make(map[string]uuid.UUID)
	notes := make(map[string]string)
	for i, item := range req.Items {
		qty := item.Quantity
		if qty.IsNegative() {
			return nil, ErrInvalidQuantity
		}
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}

		product, err := s.resolveProduct(ctx, item.ProductID, item.ProductCode)
		if err != nil {
			return nil, err
		}
		line := aggregate.Line{Index: i, Code: item.ProductCode, Quantity: decimal.NewNullDecimal(qty)}
		if product != nil {
			line.Code = product.Code
			line.Name = product.Name
		}
		if textnorm.NormalizeCode(line.Code) == "" {
			return nil, fmt.Errorf("%w: item %d has no product code", ErrInvalidInput, i+1)
		}
		key := textnorm.LookupKey(line.Code)
		if product != nil {
			productIDs[key] = product.ID
		}
		if item.Notes != "" && notes[key] == "" {
			notes[key] = item.Notes
		}
		lines = append(lines, line)
	}

	suppliers, err := s.supplierRepo.ListByIDs(ctx, req.SupplierIDs)
	if err != nil {
		return nil, mapper.FormatError("suppliers", "load", err)
	}
	for _, id := range req.SupplierIDs {
		if _, ok := suppliers[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrSupplierNotFound, id)
		}
	}

	code, err := s.numbers.Next(ctx, PrefixRfq)
	if err != nil {
		return nil, err
	}

	rfq := &domain.Rfq{
		Code:            code,
		Title:           strings.TrimSpace(req.Title),
		Status:          domain.RfqStatusDraft,
		Currency:        currency,
		Incoterm:        strings.ToUpper(strings.TrimSpace(req.Incoterm)),
		ResponseDueDate: req.ResponseDueDate,
		Notes:           req.Notes,
	}

	comp := NewCompensator(s.logger)
	if err := s.rfqRepo.Create(ctx, rfq); err != nil {
		return nil, mapper.FormatError("rfq", "create", err)
	}
	comp.Add("delete rfq", func(ctx context.Context) error { return s.rfqRepo.Delete(ctx, rfq.ID) })

	entries := aggregate.ByCode(lines)
	items := make([]domain.RfqItem, 0, len(entries))
	for _, key := range aggregate.SortedKeys(entries) {
		e := entries[key]
		item := domain.RfqItem{
			RfqID:       rfq.ID,
			ProductCode: e.Code,
			ProductName: e.Name,
			Quantity:    e.Quantity,
			Notes:       notes[key],
		}
		if id, ok := productIDs[key]; ok {
			item.ProductID = &id
		}
		items = append(items, item)
	}
	if err := s.rfqRepo.CreateItems(ctx, items, s.chunkSize); err != nil {
		return nil, comp.Fail(ctx, mapper.FormatError("rfq items", "create", err))
	}

	now := time.Now().UTC()
	invitations := make([]domain.RfqSupplier, 0, len(suppliers))
	seen := make(map[uuid.UUID]struct{})
	for _, id := range req.SupplierIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		invitations = append(invitations, domain.RfqSupplier{
			RfqID:        rfq.ID,
			SupplierID:   id,
			SupplierName: suppliers[id].Name,
			InvitedAt:    now,
		})
	}
	if err := s.rfqRepo.CreateSuppliers(ctx, invitations); err != nil {
		return nil, comp.Fail(ctx, mapper.FormatError("rfq suppliers", "create", err))
	}
	comp.Commit()

	s.logger.Info("rfq created",
		zap.String("rfq_id", rfq.ID.String()),
		zap.String("code", rfq.Code),
		zap.Int("items", len(items)),
		zap.Int("suppliers", len(invitations)))
	return s.GetByID(ctx, rfq.ID)
}

// GetByID retrieves an RFQ with items, invitations and quotes
func (s *RfqService) GetByID(ctx context.Context, id uuid.UUID) (*domain.RfqDetailDTO, error) {
	rfq, err := s.rfqRepo.GetDetail(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrRfqNotFound, "rfq")
	}
	dto := mapper.ToRfqDetailDTO(rfq)
	return &dto, nil
}

// List returns a paginated RFQ list
func (s *RfqService) List(ctx context.Context, page, pageSize int, filters *repository.RfqFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	rfqs, total, err := s.rfqRepo.List(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, mapper.FormatError("rfqs", "list", err)
	}

	dtos := make([]domain.RfqDTO, len(rfqs))
	for i := range rfqs {
		dtos[i] = mapper.ToRfqDTO(&rfqs[i])
	}
	resp := domain.NewPaginatedResponse(dtos, total, page, pageSize)
	return &resp, nil
}

// UpdateStatus moves the RFQ along its lifecycle. Conversion only happens through Convert.
func (s *RfqService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RfqStatus) (*domain.RfqDTO, error) {
	rfq, err := s.rfqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrRfqNotFound, "rfq")
	}

	if !status.IsValid() || status == domain.RfqStatusConverted || !rfq.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, rfq.Status, status)
	}

	if err := s.rfqRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, mapper.FormatError("rfq", "update status of", err)
	}

	s.logger.Info("rfq status changed",
		zap.String("rfq_id", id.String()),
		zap.String("from", string(rfq.Status)),
		zap.String("to", string(status)))

	rfq.Status = status
	dto := mapper.ToRfqDTO(rfq)
	return &dto, nil
}

// Delete removes an RFQ that has not been converted
func (s *RfqService) Delete(ctx context.Context, id uuid.UUID) error {
	rfq, err := s.rfqRepo.GetByID(ctx, id)
	if err != nil {
		return lookupError(err, ErrRfqNotFound, "rfq")
	}
	if rfq.Status == domain.RfqStatusConverted {
		return ErrRfqClosed
	}
	if err := s.rfqRepo.Delete(ctx, id); err != nil {
		return mapper.FormatError("rfq", "delete", err)
	}
	s.logger.Info("rfq deleted", zap.String("rfq_id", id.String()), zap.String("code", rfq.Code))
	return nil
}

// Convert turns the chosen quote into a purchase order. Every check runs before the first
// write, so a rejected conversion leaves no trace, not even a consumed order number.
func (s *RfqService) Convert(ctx context.Context, rfqID, quoteID uuid.UUID) (*domain.OrderDTO, error) {
	rfq, err := s.rfqRepo.GetByID(ctx, rfqID)
	if err != nil {
		return nil, lookupError(err, ErrRfqNotFound, "rfq")
	}
	if rfq.Status.IsClosed() {
		return nil, ErrRfqClosed
	}
	if !rfq.Status.CanTransitionTo(domain.RfqStatusConverted) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, rfq.Status, domain.RfqStatusConverted)
	}

	quote, err := s.rfqRepo.GetQuote(ctx, rfqID, quoteID)
	if err != nil {
		return nil, lookupError(err, ErrQuoteNotFound, "quote")
	}
	if !strings.EqualFold(quote.Currency, rfq.Currency) {
		s.logger.Warn("rfq conversion rejected: currency mismatch",
			zap.String("rfq_id", rfqID.String()),
			zap.String("rfq_currency", rfq.Currency),
			zap.String("quote_currency", quote.Currency))
		return nil, fmt.Errorf("%w: rfq %s, quote %s", ErrCurrencyMismatch, rfq.Currency, quote.Currency)
	}

	items, err := s.rfqRepo.ListItems(ctx, rfqID)
	if err != nil {
		return nil, mapper.FormatError("rfq items", "list", err)
	}
	prices := make(map[uuid.UUID]decimal.Decimal, len(quote.Items))
	for _, qi := range quote.Items {
		prices[qi.RfqItemID] = qi.UnitPrice
	}
	var missing []string
	for _, item := range items {
		if _, ok := prices[item.ID]; !ok {
			missing = append(missing, item.ProductCode)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		s.logger.Warn("rfq conversion rejected: missing prices",
			zap.String("rfq_id", rfqID.String()),
			zap.Strings("product_codes", missing))
		return nil, &MissingPricesError{ProductCodes: missing}
	}

	code, err := s.numbers.Next(ctx, PrefixOrder)
	if err != nil {
		return nil, err
	}

	comp := NewCompensator(s.logger)
	supplierID := quote.SupplierID
	order := &domain.Order{
		Code:         code,
		SupplierID:   &supplierID,
		SupplierName: quote.SupplierName,
		RfqID:        &rfq.ID,
		Currency:     rfq.Currency,
		Status:       domain.OrderStatusDraft,
		Notes:        fmt.Sprintf("Converted from %s", rfq.Code),
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, mapper.FormatError("order", "create", err)
	}
	comp.Add("delete order", func(ctx context.Context) error { return s.orderRepo.Delete(ctx, order.ID) })

	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, domain.OrderItem{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   prices[item.ID],
		})
	}
	if err := s.orderRepo.CreateItems(ctx, orderItems, s.chunkSize); err != nil {
		return nil, comp.Fail(ctx, mapper.FormatError("order items", "create", err))
	}
	if _, err := s.orderRepo.RecalculateTotal(ctx, order.ID); err != nil {
		return nil, comp.Fail(ctx, mapper.FormatError("order", "total", err))
	}

	previous := s.selectedQuote(ctx, rfqID)
	if err := s.rfqRepo.SelectQuote(ctx, rfqID, quote.ID); err != nil {
		return nil, comp.Fail(ctx, mapper.FormatError("quote", "select", err))
	}
	comp.Add("restore quote selection", func(ctx context.Context) error {
		if previous == nil {
			return s.rfqRepo.ClearQuoteSelection(ctx, rfqID)
		}
		return s.rfqRepo.SelectQuote(ctx, rfqID, *previous)
	})

	if err := s.rfqRepo.MarkConverted(ctx, rfqID, order.ID); err != nil {
		return nil, comp.Fail(ctx, mapper.FormatError("rfq", "mark converted", err))
	}
	comp.Commit()

	s.logger.Info("rfq converted to order",
		zap.String("rfq_id", rfqID.String()),
		zap.String("quote_id", quote.ID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("order_code", order.Code))

	created, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, mapper.FormatError("order", "get", err)
	}
	dto := mapper.ToOrderDTO(created)
	return &dto, nil
}

func (s *RfqService) selectedQuote(ctx context.Context, rfqID uuid.UUID) *uuid.UUID {
	quotes, err := s.rfqRepo.ListQuotes(ctx, rfqID)
	if err != nil {
		return nil
	}
	for _, q := range quotes {
		if q.IsSelected {
			id := q.ID
			return &id
		}
	}
	return nil
}

// resolveProduct loads the product an RFQ or order line points at. A line given only by
// code that matches no product is kept as a free-text line.
func (s *RfqService) resolveProduct(ctx context.Context, id *uuid.UUID, code string) (*domain.Product, error) {
	return resolveLineProduct(ctx, s.productRepo, id, code)
}

func resolveLineProduct(ctx context.Context, repo *repository.ProductRepository, id *uuid.UUID, code string) (*domain.Product, error) {
	if id != nil {
		p, err := repo.GetByID(ctx, *id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, mapper.FormatError("product", "get", err)
		}
		return p, nil
	}
	code = textnorm.NormalizeCode(code)
	if code == "" {
		return nil, nil
	}
	p, err := repo.GetByCode(ctx, code)
	if err != nil {
		return nil, mapper.FormatError("product", "get", err)
	}
	return p, nil
}
