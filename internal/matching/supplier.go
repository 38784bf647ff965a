package matching

import (
	"strings"

	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
)

type supplierEntry struct {
	key string
	c   Candidate
}

// SupplierDirectory resolves supplier names: exact case-insensitive match first, then a
// token-subset match where every input token must occur inside the supplier name.
type SupplierDirectory struct {
	entries []supplierEntry
	exact   map[string][]Candidate
}

// NewSupplierDirectory builds the directory from the known suppliers.
func NewSupplierDirectory(suppliers []Candidate) *SupplierDirectory {
	d := &SupplierDirectory{exact: make(map[string][]Candidate)}
	for _, s := range suppliers {
		key := textnorm.LookupKey(s.Name)
		if key == "" {
			continue
		}
		d.entries = append(d.entries, supplierEntry{key: key, c: s})
		d.exact[key] = append(d.exact[key], s)
	}
	return d
}

// Resolve matches one input name.
func (d *SupplierDirectory) Resolve(input string) Result {
	key := textnorm.LookupKey(input)
	if key == "" {
		return Result{Kind: Missing}
	}
	if hits := d.exact[key]; len(hits) == 1 {
		return matched(hits[0])
	} else if len(hits) > 1 {
		return ambiguous(hits)
	}

	tokens := strings.Fields(key)
	var hits []Candidate
	for _, e := range d.entries {
		if containsAll(e.key, tokens) {
			hits = append(hits, e.c)
		}
	}
	switch len(hits) {
	case 0:
		return Result{Kind: Missing}
	case 1:
		return matched(hits[0])
	default:
		return ambiguous(hits)
	}
}

func containsAll(s string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}
