package mapper

import (
	"fmt"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/costing"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// ToProductDTO converts Product to ProductDTO
func ToProductDTO(p *domain.Product) domain.ProductDTO {
	dto := domain.ProductDTO{
		ID:                  p.ID,
		Code:                p.Code,
		Name:                p.Name,
		NetsisStokKodu:      p.NetsisStokKodu,
		GtipID:              p.GtipID,
		DomesticCostPercent: p.DomesticCostPercent,
		WeightKg:            p.WeightKg,
		CreatedAt:           formatTime(p.CreatedAt),
		UpdatedAt:           formatTime(p.UpdatedAt),
	}
	if p.Gtip != nil {
		dto.GtipCode = p.Gtip.Code
	}
	return dto
}

// ToSupplierDTO converts Supplier to SupplierDTO
func ToSupplierDTO(s *domain.Supplier) domain.SupplierDTO {
	return domain.SupplierDTO{
		ID:          s.ID,
		Name:        s.Name,
		Country:     s.Country,
		Email:       s.Email,
		Phone:       s.Phone,
		IsForwarder: s.IsForwarder,
		Notes:       s.Notes,
		CreatedAt:   formatTime(s.CreatedAt),
		UpdatedAt:   formatTime(s.UpdatedAt),
	}
}

// GtipRates extracts the cascade parameters of a GTIP
func GtipRates(g *domain.Gtip) costing.Rates {
	return costing.Rates{
		CustomsDutyRate:        g.CustomsDutyRate,
		AdditionalDutyRate:     g.AdditionalDutyRate,
		VatRate:                g.VatRate,
		AntiDumpingApplicable:  g.AntiDumpingApplicable,
		AntiDumpingRate:        g.AntiDumpingRate,
		SurveillanceApplicable: g.SurveillanceApplicable,
		SurveillanceUnitValue:  g.SurveillanceUnitValue,
	}
}

// CountryOverrides converts the stored country rows for EffectiveRates
func CountryOverrides(rows []domain.GtipCountryRate) []costing.CountryRate {
	out := make([]costing.CountryRate, 0, len(rows))
	for _, r := range rows {
		out = append(out, costing.CountryRate{
			Country:                r.Country,
			CustomsDutyRate:        r.CustomsDutyRate,
			AdditionalDutyRate:     r.AdditionalDutyRate,
			VatRate:                r.VatRate,
			AntiDumpingApplicable:  r.AntiDumpingApplicable,
			AntiDumpingRate:        r.AntiDumpingRate,
			SurveillanceApplicable: r.SurveillanceApplicable,
			SurveillanceUnitValue:  r.SurveillanceUnitValue,
		})
	}
	return out
}

// ToGtipDTO converts Gtip with its country rates to GtipDTO
func ToGtipDTO(g *domain.Gtip) domain.GtipDTO {
	rates := make([]domain.GtipCountryRateDTO, 0, len(g.CountryRates))
	for _, r := range g.CountryRates {
		rates = append(rates, domain.GtipCountryRateDTO{
			ID:                     r.ID,
			Country:                r.Country,
			CustomsDutyRate:        r.CustomsDutyRate,
			AdditionalDutyRate:     r.AdditionalDutyRate,
			VatRate:                r.VatRate,
			AntiDumpingApplicable:  r.AntiDumpingApplicable,
			AntiDumpingRate:        r.AntiDumpingRate,
			SurveillanceApplicable: r.SurveillanceApplicable,
			SurveillanceUnitValue:  r.SurveillanceUnitValue,
		})
	}
	return domain.GtipDTO{
		ID:           g.ID,
		Code:         g.Code,
		Description:  g.Description,
		Rates:        GtipRates(g),
		CountryRates: rates,
		CreatedAt:    formatTime(g.CreatedAt),
		UpdatedAt:    formatTime(g.UpdatedAt),
	}
}

// ToRfqDTO converts Rfq to its list form
func ToRfqDTO(r *domain.Rfq) domain.RfqDTO {
	return domain.RfqDTO{
		ID:              r.ID,
		Code:            r.Code,
		Title:           r.Title,
		Status:          r.Status,
		Currency:        r.Currency,
		Incoterm:        r.Incoterm,
		ResponseDueDate: r.ResponseDueDate,
		OrderID:         r.OrderID,
		CreatedAt:       formatTime(r.CreatedAt),
		UpdatedAt:       formatTime(r.UpdatedAt),
	}
}

// ToRfqQuoteDTO converts RfqQuote with its items
func ToRfqQuoteDTO(q *domain.RfqQuote) domain.RfqQuoteDTO {
	items := make([]domain.RfqQuoteItemDTO, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, domain.RfqQuoteItemDTO{
			ID:           it.ID,
			RfqItemID:    it.RfqItemID,
			UnitPrice:    it.UnitPrice,
			Quantity:     it.Quantity,
			TransitDays:  it.TransitDays,
			MinOrder:     it.MinOrder,
			DeliveryTime: it.DeliveryTime,
			ValidityDate: it.ValidityDate,
			Notes:        it.Notes,
			Source:       it.Source,
		})
	}
	return domain.RfqQuoteDTO{
		ID:           q.ID,
		SupplierID:   q.SupplierID,
		SupplierName: q.SupplierName,
		Currency:     q.Currency,
		IsSelected:   q.IsSelected,
		SourcePath:   q.SourcePath,
		Items:        items,
	}
}

// ToRfqDetailDTO converts a fully loaded Rfq
func ToRfqDetailDTO(r *domain.Rfq) domain.RfqDetailDTO {
	items := make([]domain.RfqItemDTO, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.RfqItemDTO{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Notes:       it.Notes,
		})
	}
	suppliers := make([]domain.RfqSupplierDTO, 0, len(r.Suppliers))
	for _, s := range r.Suppliers {
		suppliers = append(suppliers, domain.RfqSupplierDTO{
			SupplierID:   s.SupplierID,
			SupplierName: s.SupplierName,
			InvitedAt:    formatTime(s.InvitedAt),
		})
	}
	quotes := make([]domain.RfqQuoteDTO, 0, len(r.Quotes))
	for i := range r.Quotes {
		quotes = append(quotes, ToRfqQuoteDTO(&r.Quotes[i]))
	}
	return domain.RfqDetailDTO{
		RfqDTO:    ToRfqDTO(r),
		Notes:     r.Notes,
		Items:     items,
		Suppliers: suppliers,
		Quotes:    quotes,
	}
}

// ToOrderDTO converts Order with its items
func ToOrderDTO(o *domain.Order) domain.OrderDTO {
	items := make([]domain.OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, domain.OrderItemDTO{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal(),
		})
	}
	return domain.OrderDTO{
		ID:           o.ID,
		Code:         o.Code,
		SupplierID:   o.SupplierID,
		SupplierName: o.SupplierName,
		RfqID:        o.RfqID,
		Currency:     o.Currency,
		Status:       o.Status,
		TotalAmount:  o.TotalAmount,
		Notes:        o.Notes,
		Items:        items,
		CreatedAt:    formatTime(o.CreatedAt),
		UpdatedAt:    formatTime(o.UpdatedAt),
	}
}

// ToShipmentDTO converts Shipment with its forwarder quotes
func ToShipmentDTO(s *domain.Shipment) domain.ShipmentDTO {
	quotes := make([]domain.ForwarderQuoteDTO, 0, len(s.Quotes))
	for _, q := range s.Quotes {
		quotes = append(quotes, ToForwarderQuoteDTO(&q))
	}
	return domain.ShipmentDTO{
		ID:          s.ID,
		Reference:   s.Reference,
		OrderID:     s.OrderID,
		Origin:      s.Origin,
		Destination: s.Destination,
		Status:      s.Status,
		Etd:         s.Etd,
		Eta:         s.Eta,
		Quotes:      quotes,
		CreatedAt:   formatTime(s.CreatedAt),
		UpdatedAt:   formatTime(s.UpdatedAt),
	}
}

// ToForwarderQuoteDTO converts ForwarderQuote to ForwarderQuoteDTO
func ToForwarderQuoteDTO(q *domain.ForwarderQuote) domain.ForwarderQuoteDTO {
	return domain.ForwarderQuoteDTO{
		ID:            q.ID,
		ForwarderID:   q.ForwarderID,
		ForwarderName: q.ForwarderName,
		Amount:        q.Amount,
		Currency:      q.Currency,
		TransitDays:   q.TransitDays,
		IsSelected:    q.IsSelected,
		Notes:         q.Notes,
	}
}

// ToDiscrepancyRunDTO converts a run and its rows
func ToDiscrepancyRunDTO(run *domain.DiscrepancyRun) domain.DiscrepancyRunDTO {
	rows := make([]domain.DiscrepancyRowDTO, 0, len(run.Rows))
	for _, r := range run.Rows {
		rows = append(rows, domain.DiscrepancyRowDTO{
			ProductCode: r.ProductCode,
			ProductName: r.ProductName,
			Ordered:     r.Ordered,
			Packed:      r.Packed,
			Diff:        r.Diff,
			Boxes:       r.Boxes,
			Sources:     []string(r.Sources),
		})
	}
	return domain.DiscrepancyRunDTO{
		ID:           run.ID,
		Title:        run.Title,
		OrderedTotal: run.OrderedTotal,
		PackedTotal:  run.PackedTotal,
		Rows:         rows,
		CreatedAt:    formatTime(run.CreatedAt),
	}
}

// FormatError creates a formatted error message
func FormatError(entity, operation string, err error) error {
	return fmt.Errorf("failed to %s %s: %w", operation, entity, err)
}
