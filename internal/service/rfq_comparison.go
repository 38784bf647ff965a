package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/costing"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/mapper"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Comparison lays the quotes of an RFQ side by side per item. The net cost of a cell is the
// landed cost without VAT of one unit at the quoted price, using the GTIP rates for the
// supplier's country. The minimum price is flagged among quotes in the RFQ currency.
func (s *RfqService) Comparison(ctx context.Context, rfqID uuid.UUID) (*domain.RfqComparisonDTO, error) {
	rfq, err := s.rfqRepo.GetDetail(ctx, rfqID)
	if err != nil {
		return nil, lookupError(err, ErrRfqNotFound, "rfq")
	}

	var productIDs []uuid.UUID
	for _, item := range rfq.Items {
		if item.ProductID != nil {
			productIDs = append(productIDs, *item.ProductID)
		}
	}
	products, err := s.productRepo.ListByIDs(ctx, productIDs)
	if err != nil {
		return nil, mapper.FormatError("products", "load", err)
	}
	productByID := make(map[uuid.UUID]*domain.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}

	supplierIDs := make([]uuid.UUID, 0, len(rfq.Quotes))
	for _, q := range rfq.Quotes {
		supplierIDs = append(supplierIDs, q.SupplierID)
	}
	suppliers, err := s.supplierRepo.ListByIDs(ctx, supplierIDs)
	if err != nil {
		return nil, mapper.FormatError("suppliers", "load", err)
	}

	out := &domain.RfqComparisonDTO{
		RfqID:     rfq.ID,
		Code:      rfq.Code,
		Currency:  rfq.Currency,
		Suppliers: make([]domain.ComparisonSupplierDTO, 0, len(rfq.Quotes)),
		Rows:      make([]domain.ComparisonRowDTO, 0, len(rfq.Items)),
	}

	quoteItems := make([]map[uuid.UUID]domain.RfqQuoteItem, len(rfq.Quotes))
	for i, q := range rfq.Quotes {
		out.Suppliers = append(out.Suppliers, domain.ComparisonSupplierDTO{
			SupplierID:   q.SupplierID,
			SupplierName: q.SupplierName,
			QuoteID:      q.ID,
			Currency:     q.Currency,
			IsSelected:   q.IsSelected,
		})
		byItem := make(map[uuid.UUID]domain.RfqQuoteItem, len(q.Items))
		for _, qi := range q.Items {
			byItem[qi.RfqItemID] = qi
		}
		quoteItems[i] = byItem
	}

	for _, item := range rfq.Items {
		var product *domain.Product
		if item.ProductID != nil {
			product = productByID[*item.ProductID]
		}

		row := domain.ComparisonRowDTO{
			RfqItemID:   item.ID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Cells:       make([]domain.ComparisonCellDTO, 0, len(rfq.Quotes)),
		}

		for i, q := range rfq.Quotes {
			cell := domain.ComparisonCellDTO{SupplierID: q.SupplierID}
			qi, ok := quoteItems[i][item.ID]
			if ok {
				cell.UnitPrice = decimal.NewNullDecimal(qi.UnitPrice)
				cell.LineTotal = decimal.NewNullDecimal(qi.UnitPrice.Mul(item.Quantity))
				cell.TransitDays = qi.TransitDays
				cell.DeliveryTime = qi.DeliveryTime
				cell.NetCost = netCost(product, suppliers[q.SupplierID].Country, qi.UnitPrice)

				if strings.EqualFold(q.Currency, rfq.Currency) &&
					(!row.MinUnitPrice.Valid || qi.UnitPrice.LessThan(row.MinUnitPrice.Decimal)) {
					row.MinUnitPrice = decimal.NewNullDecimal(qi.UnitPrice)
				}
			}
			row.Cells = append(row.Cells, cell)
		}

		if row.MinUnitPrice.Valid {
			for i := range row.Cells {
				c := &row.Cells[i]
				c.IsMinPrice = c.UnitPrice.Valid &&
					strings.EqualFold(rfq.Quotes[i].Currency, rfq.Currency) &&
					c.UnitPrice.Decimal.Equal(row.MinUnitPrice.Decimal)
			}
		}
		out.Rows = append(out.Rows, row)
	}

	s.logger.Debug("rfq comparison built",
		zap.String("rfq_id", rfqID.String()),
		zap.Int("rows", len(out.Rows)),
		zap.Int("suppliers", len(out.Suppliers)))
	return out, nil
}

// netCost is null when the item has no catalog product or the product has no GTIP
func netCost(product *domain.Product, country string, price decimal.Decimal) decimal.NullDecimal {
	rates, ok := productRates(product, country)
	if !ok {
		return decimal.NullDecimal{}
	}
	b := costing.Compute(costing.CostInput{
		BasePrice:           decimal.NewNullDecimal(price),
		DomesticCostPercent: product.DomesticCostPercent,
		WeightKg:            product.WeightKg,
		Rates:               rates,
	})
	return b.KdvSizMaliyet
}
