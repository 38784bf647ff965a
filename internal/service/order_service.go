package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/mapper"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"go.uber.org/zap"
)

// OrderService handles purchase orders. total_amount is recomputed after every item change.
type OrderService struct {
	orderRepo    *repository.OrderRepository
	productRepo  *repository.ProductRepository
	supplierRepo *repository.SupplierRepository
	numbers      *NumberSequenceService
	chunkSize    int
	logger       *zap.Logger
}

// NewOrderService creates a new order service instance
func NewOrderService(
	orderRepo *repository.OrderRepository,
	productRepo *repository.ProductRepository,
	supplierRepo *repository.SupplierRepository,
	numbers *NumberSequenceService,
	chunkSize int,
	logger *zap.Logger,
) *OrderService {
	if chunkSize <= 0 {
		chunkSize = repository.DefaultChunkSize
	}
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		numbers:      numbers,
		chunkSize:    chunkSize,
		logger:       logger,
	}
}

// Create creates a standalone order with its items
func (s *OrderService) Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.OrderDTO, error) {
	order := &domain.Order{
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
		Status:   domain.OrderStatusDraft,
		Notes:    req.Notes,
	}
	if order.Currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrInvalidInput)
	}
	if req.SupplierID != nil {
		supplier, err := s.supplierRepo.GetByID(ctx, *req.SupplierID)
		if err != nil {
			return nil, lookupError(err, ErrSupplierNotFound, "supplier")
		}
		order.SupplierID = &supplier.ID
		order.SupplierName = supplier.Name
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for i := range req.Items {
		item, err := s.buildItem(ctx, &req.Items[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	code, err := s.numbers.Next(ctx, PrefixOrder)
	if err != nil {
		return nil, err
	}
	order.Code = code

	comp := NewCompensator(s.logger)
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, mapper.FormatError("order", "create", err)
	}
	comp.Add("delete order", func(ctx context.Context) error { return s.orderRepo.Delete(ctx, order.ID) })

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := s.orderRepo.CreateItems(ctx, items, s.chunkSize); err != nil {
		return nil, comp.Fail(ctx, mapper.FormatError("order items", "create", err))
	}
	if _, err := s.orderRepo.RecalculateTotal(ctx, order.ID); err != nil {
		return nil, comp.Fail(ctx, mapper.FormatError("order", "total", err))
	}
	comp.Commit()

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("code", order.Code),
		zap.Int("items", len(items)))
	return s.GetByID(ctx, order.ID)
}

// GetByID retrieves an order with its items
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrOrderNotFound, "order")
	}
	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

// List returns a paginated order list without items
func (s *OrderService) List(ctx context.Context, page, pageSize int, filters *repository.OrderFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	orders, total, err := s.orderRepo.List(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, mapper.FormatError("orders", "list", err)
	}

	dtos := make([]domain.OrderDTO, len(orders))
	for i := range orders {
		dtos[i] = mapper.ToOrderDTO(&orders[i])
	}
	resp := domain.NewPaginatedResponse(dtos, total, page, pageSize)
	return &resp, nil
}

// AddItem appends one line to an order
func (s *OrderService) AddItem(ctx context.Context, orderID uuid.UUID, req *domain.OrderItemRequest) (*domain.OrderDTO, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, lookupError(err, ErrOrderNotFound, "order")
	}
	item, err := s.buildItem(ctx, req)
	if err != nil {
		return nil, err
	}
	item.OrderID = orderID

	if err := s.orderRepo.CreateItems(ctx, []domain.OrderItem{*item}, s.chunkSize); err != nil {
		return nil, mapper.FormatError("order item", "create", err)
	}
	return s.recalculate(ctx, orderID, "order item added")
}

// UpdateItem changes quantity and/or unit price of one line
func (s *OrderService) UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, req *domain.UpdateOrderItemRequest) (*domain.OrderDTO, error) {
	item, err := s.orderRepo.GetItem(ctx, orderID, itemID)
	if err != nil {
		return nil, lookupError(err, ErrOrderItemNotFound, "order item")
	}
	if req.Quantity.Valid {
		if !req.Quantity.Decimal.IsPositive() {
			return nil, ErrInvalidQuantity
		}
		item.Quantity = req.Quantity.Decimal
	}
	if req.UnitPrice.Valid {
		if req.UnitPrice.Decimal.IsNegative() {
			return nil, ErrInvalidPrice
		}
		item.UnitPrice = req.UnitPrice.Decimal
	}

	if err := s.orderRepo.UpdateItem(ctx, item); err != nil {
		return nil, mapper.FormatError("order item", "update", err)
	}
	return s.recalculate(ctx, orderID, "order item updated")
}

// RemoveItem deletes one line
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*domain.OrderDTO, error) {
	if _, err := s.orderRepo.GetItem(ctx, orderID, itemID); err != nil {
		return nil, lookupError(err, ErrOrderItemNotFound, "order item")
	}
	if err := s.orderRepo.DeleteItem(ctx, orderID, itemID); err != nil {
		return nil, mapper.FormatError("order item", "delete", err)
	}
	return s.recalculate(ctx, orderID, "order item removed")
}

func (s *OrderService) recalculate(ctx context.Context, orderID uuid.UUID, event string) (*domain.OrderDTO, error) {
	total, err := s.orderRepo.RecalculateTotal(ctx, orderID)
	if err != nil {
		return nil, mapper.FormatError("order", "total", err)
	}
	s.logger.Info(event, zap.String("order_id", orderID.String()), zap.String("total_amount", total.String()))
	return s.GetByID(ctx, orderID)
}

func (s *OrderService) buildItem(ctx context.Context, req *domain.OrderItemRequest) (*domain.OrderItem, error) {
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if req.UnitPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}

	product, err := resolveLineProduct(ctx, s.productRepo, req.ProductID, req.ProductCode)
	if err != nil {
		return nil, err
	}
	item := &domain.OrderItem{
		ProductCode: textnorm.NormalizeCode(req.ProductCode),
		ProductName: textnorm.NormalizeCode(req.ProductName),
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
	}
	if product != nil {
		item.ProductID = &product.ID
		item.ProductCode = product.Code
		if item.ProductName == "" {
			item.ProductName = product.Name
		}
	}
	if item.ProductCode == "" {
		return nil, fmt.Errorf("%w: product code is required", ErrInvalidInput)
	}
	return item, nil
}
