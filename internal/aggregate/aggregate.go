// Package aggregate groups parsed import rows by a normalized key and sums their numeric
// fields. Sums use exact decimal arithmetic, so the result does not depend on row order or
// on how the rows were split into pages.
package aggregate

import (
	"sort"

	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
)

// meta is the non-numeric part every aggregate keeps: display code, first non-empty name
// and provenance.
type meta struct {
	Key     string   `json:"key"`
	Code    string   `json:"code"`
	Name    string   `json:"name,omitempty"`
	Lines   int      `json:"lines"`
	Sources []string `json:"sources,omitempty"`

	codeIdx int
	nameIdx int
	sources map[string]struct{}
}

func newMeta(key string) meta {
	return meta{Key: key, codeIdx: -1, nameIdx: -1, sources: make(map[string]struct{})}
}

// absorb records one contributing row. Code and name come from the row with the lowest
// source index, so "first" means first in the original document regardless of the order
// rows are fed in.
func (m *meta) absorb(code, name, source string, index int) {
	m.Lines++
	if code = textnorm.NormalizeCode(code); code != "" && (m.codeIdx < 0 || index < m.codeIdx) {
		m.Code = code
		m.codeIdx = index
	}
	if name = textnorm.NormalizeCode(name); name != "" && (m.nameIdx < 0 || index < m.nameIdx) {
		m.Name = name
		m.nameIdx = index
	}
	if source != "" {
		m.sources[source] = struct{}{}
	}
}

func (m *meta) finish() {
	m.Sources = make([]string, 0, len(m.sources))
	for s := range m.sources {
		m.Sources = append(m.Sources, s)
	}
	sort.Strings(m.Sources)
}

func addNull(sum decimal.Decimal, v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return sum
	}
	return sum.Add(v.Decimal)
}

// Line is one row for quantity reconciliation (orders, proformas, invoices).
type Line struct {
	Index    int
	Code     string
	Name     string
	Quantity decimal.NullDecimal
	Amount   decimal.NullDecimal
	Source   string
}

// Entry is the per-code total of a QuantityAggregator.
type Entry struct {
	meta
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

// QuantityAggregator groups lines by product code alone.
type QuantityAggregator struct {
	entries map[string]*Entry
}

// NewQuantityAggregator creates an empty aggregator.
func NewQuantityAggregator() *QuantityAggregator {
	return &QuantityAggregator{entries: make(map[string]*Entry)}
}

// Add folds one line into its group. Lines without a code are skipped and reported false.
func (a *QuantityAggregator) Add(l Line) bool {
	key := textnorm.LookupKey(l.Code)
	if key == "" {
		return false
	}
	e, ok := a.entries[key]
	if !ok {
		e = &Entry{meta: newMeta(key)}
		a.entries[key] = e
	}
	e.absorb(l.Code, l.Name, l.Source, l.Index)
	e.Quantity = addNull(e.Quantity, l.Quantity)
	e.Amount = addNull(e.Amount, l.Amount)
	return true
}

// Result returns the groups keyed by lookup key.
func (a *QuantityAggregator) Result() map[string]*Entry {
	for _, e := range a.entries {
		e.finish()
	}
	return a.entries
}

// ByCode is the one-shot form of QuantityAggregator.
func ByCode(lines []Line) map[string]*Entry {
	a := NewQuantityAggregator()
	for _, l := range lines {
		a.Add(l)
	}
	return a.Result()
}

// SortedKeys returns map keys in ascending order, for stable output.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
