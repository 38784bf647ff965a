// Package costing computes the GTIP landed-cost cascade for one unit of a product.
//
// The cascade runs two tracks. The ara track starts from the invoice price inflated by the
// domestic cost percentage. The surveillance (gözetimli) track starts from the surveillance
// unit value times the weight and exists only when that basis is higher than the ara amount.
// Duties are computed on each track, the gross VAT base is the higher matrah, and the VAT
// credit always comes from the ara track.
package costing

import (
	"github.com/shopspring/decimal"
)

// StatutoryVatRate is the VAT percentage applied by the cascade. GTIP rows carry a vat_rate
// column but it is not used here.
var StatutoryVatRate = decimal.NewFromInt(20)

var hundred = decimal.NewFromInt(100)

// CostInput holds the optional inputs of one computation.
type CostInput struct {
	BasePrice           decimal.NullDecimal
	DomesticCostPercent decimal.NullDecimal
	WeightKg            decimal.NullDecimal
	Rates               Rates
}

// CostBreakdown holds every stage of the cascade. A field is null when an input it depends
// on is missing or, for the surveillance fields, when the track does not apply.
type CostBreakdown struct {
	AraTutar decimal.NullDecimal `json:"araTutar"`
	Gozetim  decimal.NullDecimal `json:"gozetim"`

	Customs    decimal.NullDecimal `json:"customs"`
	Additional decimal.NullDecimal `json:"additional"`
	Dumping    decimal.NullDecimal `json:"dumping"`

	GozetimliCustoms    decimal.NullDecimal `json:"gozetimliCustoms"`
	GozetimliAdditional decimal.NullDecimal `json:"gozetimliAdditional"`

	GozetimliMatrah  decimal.NullDecimal `json:"gozetimliMatrah"`
	GozetimsizMatrah decimal.NullDecimal `json:"gozetimsizMatrah"`
	KdvMatrah        decimal.NullDecimal `json:"kdvMatrah"`

	GrossVat  decimal.NullDecimal `json:"grossVat"`
	VatCredit decimal.NullDecimal `json:"vatCredit"`
	NetVat    decimal.NullDecimal `json:"netVat"`

	KdvSizMaliyet decimal.NullDecimal `json:"kdvSizMaliyet"`
	KdvliMaliyet  decimal.NullDecimal `json:"kdvliMaliyet"`
}

// HasSurveillanceTrack reports whether the surveillance basis exceeded the ara amount.
func (b CostBreakdown) HasSurveillanceTrack() bool {
	return b.GozetimliMatrah.Valid
}

func some(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

func percent(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

// Compute runs the cascade. It never fails; missing inputs produce null outputs.
func Compute(in CostInput) CostBreakdown {
	var out CostBreakdown
	r := in.Rates

	if in.BasePrice.Valid {
		domestic := decimal.Zero
		if in.DomesticCostPercent.Valid {
			domestic = in.DomesticCostPercent.Decimal
		}
		out.AraTutar = some(in.BasePrice.Decimal.Mul(decimal.NewFromInt(1).Add(domestic.Div(hundred))))
	}

	// Weight-based anti-dumping. Applicable without a weight leaves it unknown.
	switch {
	case !r.AntiDumpingApplicable:
		out.Dumping = some(decimal.Zero)
	case in.WeightKg.Valid:
		out.Dumping = some(r.AntiDumpingRate.Mul(in.WeightKg.Decimal))
	}

	if r.SurveillanceApplicable && in.WeightKg.Valid {
		out.Gozetim = some(r.SurveillanceUnitValue.Mul(in.WeightKg.Decimal))
	}

	if !out.AraTutar.Valid {
		return out
	}
	ara := out.AraTutar.Decimal
	out.Customs = some(percent(ara, r.CustomsDutyRate))
	out.Additional = some(percent(ara, r.AdditionalDutyRate))
	vat := StatutoryVatRate
	out.VatCredit = some(percent(ara.Add(out.Customs.Decimal), vat))

	if !out.Dumping.Valid {
		return out
	}
	dumping := out.Dumping.Decimal
	araTotal := ara.Add(out.Customs.Decimal).Add(out.Additional.Decimal).Add(dumping)
	out.GozetimsizMatrah = some(araTotal)
	kdvMatrah := araTotal

	if out.Gozetim.Valid && out.Gozetim.Decimal.GreaterThan(ara) {
		base := out.Gozetim.Decimal
		out.GozetimliCustoms = some(percent(base, r.CustomsDutyRate))
		out.GozetimliAdditional = some(percent(base, r.AdditionalDutyRate))
		gozetimli := base.Add(out.GozetimliCustoms.Decimal).Add(out.GozetimliAdditional.Decimal).Add(dumping)
		out.GozetimliMatrah = some(gozetimli)
		kdvMatrah = decimal.Max(kdvMatrah, gozetimli)
	}

	out.KdvMatrah = some(kdvMatrah)
	out.GrossVat = some(percent(kdvMatrah, vat))
	out.NetVat = some(decimal.Max(out.GrossVat.Decimal.Sub(out.VatCredit.Decimal), decimal.Zero))

	net := decimal.Max(out.GozetimsizMatrah.Decimal, araTotal)
	if r.AdditionalDutyRate.IsPositive() || r.SurveillanceApplicable {
		net = net.Add(out.NetVat.Decimal)
	}
	out.KdvSizMaliyet = some(net)
	out.KdvliMaliyet = some(net.Add(out.VatCredit.Decimal))
	return out
}
