package matching

import (
	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
)

// ProductCatalog indexes products by normalized code and name.
type ProductCatalog struct {
	byCode map[string]Candidate
	byName map[string][]Candidate
}

// NewProductCatalog builds the indexes. Entries without a code are ignored.
func NewProductCatalog(products []Candidate) *ProductCatalog {
	c := &ProductCatalog{
		byCode: make(map[string]Candidate, len(products)),
		byName: make(map[string][]Candidate),
	}
	for _, p := range products {
		code := textnorm.LookupKey(p.Code)
		if code == "" {
			continue
		}
		c.byCode[code] = p
		if name := textnorm.LookupKey(p.Name); name != "" {
			c.byName[name] = append(c.byName[name], p)
		}
	}
	return c
}

// Resolve looks up a product by code, then by name. A name shared by several product codes
// is ambiguous and never picks one.
func (c *ProductCatalog) Resolve(code, name string) Result {
	if key := textnorm.LookupKey(code); key != "" {
		if p, ok := c.byCode[key]; ok {
			return matched(p)
		}
	}
	key := textnorm.LookupKey(name)
	if key == "" {
		return Result{Kind: Missing}
	}
	switch hits := c.byName[key]; len(hits) {
	case 0:
		return Result{Kind: Missing}
	case 1:
		return matched(hits[0])
	default:
		return ambiguous(hits)
	}
}
