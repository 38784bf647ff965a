package aggregate

import (
	"strings"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
)

// PriceKey groups price-bearing rows. Distinct prices for the same product stay separate
// lines; averaging would hide real price tiers.
type PriceKey struct {
	SupplierID uuid.UUID
	Code       string
	Currency   string
	UnitPrice  string
}

// PricedLine is one row of an RFQ or proforma import after supplier resolution.
type PricedLine struct {
	Index      int
	SupplierID uuid.UUID
	Code       string
	Name       string
	Currency   string
	UnitPrice  decimal.Decimal
	Quantity   decimal.NullDecimal
	Source     string
}

// PricedEntry is the total of one (supplier, code, currency, price) group.
type PricedEntry struct {
	meta
	SupplierID uuid.UUID       `json:"supplierId"`
	Currency   string          `json:"currency"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   decimal.Decimal `json:"quantity"`
	// HasQuantity is false when no contributing row carried a quantity.
	HasQuantity bool `json:"hasQuantity"`
	// FirstIndex is the lowest source index in the group.
	FirstIndex int `json:"firstIndex"`
}

// PriceAggregator groups lines by PriceKey.
type PriceAggregator struct {
	entries map[PriceKey]*PricedEntry
}

// NewPriceAggregator creates an empty aggregator.
func NewPriceAggregator() *PriceAggregator {
	return &PriceAggregator{entries: make(map[PriceKey]*PricedEntry)}
}

// KeyOf builds the group key of a line.
func KeyOf(l PricedLine) PriceKey {
	return PriceKey{
		SupplierID: l.SupplierID,
		Code:       textnorm.LookupKey(l.Code),
		Currency:   strings.ToUpper(strings.TrimSpace(l.Currency)),
		UnitPrice:  l.UnitPrice.String(),
	}
}

// Add folds one line into its group. Lines without a code are skipped.
func (a *PriceAggregator) Add(l PricedLine) bool {
	key := KeyOf(l)
	if key.Code == "" {
		return false
	}
	e, ok := a.entries[key]
	if !ok {
		e = &PricedEntry{
			meta:       newMeta(key.Code),
			SupplierID: key.SupplierID,
			Currency:   key.Currency,
			UnitPrice:  l.UnitPrice,
			FirstIndex: l.Index,
		}
		a.entries[key] = e
	}
	e.absorb(l.Code, l.Name, l.Source, l.Index)
	if l.Quantity.Valid {
		e.Quantity = e.Quantity.Add(l.Quantity.Decimal)
		e.HasQuantity = true
	}
	if l.Index < e.FirstIndex {
		e.FirstIndex = l.Index
	}
	return true
}

// Result returns the groups.
func (a *PriceAggregator) Result() map[PriceKey]*PricedEntry {
	for _, e := range a.entries {
		e.finish()
	}
	return a.entries
}

// ByPrice is the one-shot form of PriceAggregator.
func ByPrice(lines []PricedLine) map[PriceKey]*PricedEntry {
	a := NewPriceAggregator()
	for _, l := range lines {
		a.Add(l)
	}
	return a.Result()
}
