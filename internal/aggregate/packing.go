package aggregate

import (
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
)

// PackingLine is one packing-list row. Quantity and weights are per box when BoxCount > 0.
type PackingLine struct {
	Index       int
	Code        string
	Name        string
	Quantity    decimal.NullDecimal
	BoxCount    decimal.NullDecimal
	NetWeight   decimal.NullDecimal
	GrossWeight decimal.NullDecimal
	Source      string
}

// PackingEntry is the per-code total of a packing list.
type PackingEntry struct {
	meta
	Quantity    decimal.Decimal `json:"quantity"`
	Boxes       decimal.Decimal `json:"boxes"`
	NetWeight   decimal.Decimal `json:"netWeight"`
	GrossWeight decimal.Decimal `json:"grossWeight"`
}

// Multiplier returns the box multiplier of a row and its contribution to the box total.
// A row without a positive box count counts once and adds no boxes.
func Multiplier(boxCount decimal.NullDecimal) (mult decimal.Decimal, boxes decimal.Decimal) {
	if boxCount.Valid && boxCount.Decimal.IsPositive() {
		return boxCount.Decimal, boxCount.Decimal
	}
	return decimal.NewFromInt(1), decimal.Zero
}

// PackingAggregator groups packing rows by product code applying the box multiplier.
type PackingAggregator struct {
	entries map[string]*PackingEntry
}

// NewPackingAggregator creates an empty aggregator.
func NewPackingAggregator() *PackingAggregator {
	return &PackingAggregator{entries: make(map[string]*PackingEntry)}
}

// Add folds one row into its group. Rows without a code are skipped.
func (a *PackingAggregator) Add(l PackingLine) bool {
	key := textnorm.LookupKey(l.Code)
	if key == "" {
		return false
	}
	e, ok := a.entries[key]
	if !ok {
		e = &PackingEntry{meta: newMeta(key)}
		a.entries[key] = e
	}
	e.absorb(l.Code, l.Name, l.Source, l.Index)

	mult, boxes := Multiplier(l.BoxCount)
	e.Boxes = e.Boxes.Add(boxes)
	if l.Quantity.Valid {
		e.Quantity = e.Quantity.Add(l.Quantity.Decimal.Mul(mult))
	}
	if l.NetWeight.Valid {
		e.NetWeight = e.NetWeight.Add(l.NetWeight.Decimal.Mul(mult))
	}
	if l.GrossWeight.Valid {
		e.GrossWeight = e.GrossWeight.Add(l.GrossWeight.Decimal.Mul(mult))
	}
	return true
}

// Result returns the groups keyed by lookup key.
func (a *PackingAggregator) Result() map[string]*PackingEntry {
	for _, e := range a.entries {
		e.finish()
	}
	return a.entries
}

// PackingList is the one-shot form of PackingAggregator.
func PackingList(lines []PackingLine) map[string]*PackingEntry {
	a := NewPackingAggregator()
	for _, l := range lines {
		a.Add(l)
	}
	return a.Result()
}
