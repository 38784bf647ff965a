package service

import (
	"errors"
	"sort"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/costing"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/ithalat-ops/backoffice-api/internal/mapper"
	"gorm.io/gorm"
)

// lookupError maps a not-found repository error to the entity sentinel
func lookupError(err error, notFound error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return mapper.FormatError(entity, "get", err)
}

// writeError maps translated constraint violations to conflict
func writeError(err error, conflict error, entity, operation string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return conflict
	}
	return mapper.FormatError(entity, operation, err)
}

// productRates returns the effective GTIP rates of a product for an origin country.
// ok is false when the product has no GTIP.
func productRates(p *domain.Product, country string) (costing.Rates, bool) {
	if p == nil || p.Gtip == nil {
		return costing.Rates{}, false
	}
	return costing.EffectiveRates(mapper.GtipRates(p.Gtip), mapper.CountryOverrides(p.Gtip.CountryRates), country), true
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
