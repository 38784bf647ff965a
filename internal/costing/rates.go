package costing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rates are the GTIP tariff parameters the cascade runs on. Percentages are expressed as
// whole numbers (10 means 10%). Anti-dumping and surveillance values are per kilogram.
type Rates struct {
	CustomsDutyRate        decimal.Decimal `json:"customsDutyRate"`
	AdditionalDutyRate     decimal.Decimal `json:"additionalDutyRate"`
	VatRate                decimal.Decimal `json:"vatRate"`
	AntiDumpingApplicable  bool            `json:"antiDumpingApplicable"`
	AntiDumpingRate        decimal.Decimal `json:"antiDumpingRate"`
	SurveillanceApplicable bool            `json:"surveillanceApplicable"`
	SurveillanceUnitValue  decimal.Decimal `json:"surveillanceUnitValue"`
}

// CountryRate shadows base rates for one country. Nil/invalid fields fall back to the base.
type CountryRate struct {
	Country                string
	CustomsDutyRate        decimal.NullDecimal
	AdditionalDutyRate     decimal.NullDecimal
	VatRate                decimal.NullDecimal
	AntiDumpingApplicable  *bool
	AntiDumpingRate        decimal.NullDecimal
	SurveillanceApplicable *bool
	SurveillanceUnitValue  decimal.NullDecimal
}

// EffectiveRates applies the override for country, if one exists, field by field.
// Country comparison is case-insensitive; an empty country returns the base rates.
func EffectiveRates(base Rates, overrides []CountryRate, country string) Rates {
	country = strings.TrimSpace(country)
	if country == "" {
		return base
	}
	for _, o := range overrides {
		if !strings.EqualFold(strings.TrimSpace(o.Country), country) {
			continue
		}
		r := base
		r.CustomsDutyRate = pick(o.CustomsDutyRate, base.CustomsDutyRate)
		r.AdditionalDutyRate = pick(o.AdditionalDutyRate, base.AdditionalDutyRate)
		r.VatRate = pick(o.VatRate, base.VatRate)
		r.AntiDumpingRate = pick(o.AntiDumpingRate, base.AntiDumpingRate)
		r.SurveillanceUnitValue = pick(o.SurveillanceUnitValue, base.SurveillanceUnitValue)
		if o.AntiDumpingApplicable != nil {
			r.AntiDumpingApplicable = *o.AntiDumpingApplicable
		}
		if o.SurveillanceApplicable != nil {
			r.SurveillanceApplicable = *o.SurveillanceApplicable
		}
		return r
	}
	return base
}

func pick(v decimal.NullDecimal, fallback decimal.Decimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return fallback
}
