package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
)

// LocalizedNumber accepts a JSON number or a localized numeric string such as "1.234,5".
// Empty and non-numeric strings decode as absent, never as zero.
type LocalizedNumber struct {
	decimal.NullDecimal
}

// NewLocalizedNumber wraps a present value
func NewLocalizedNumber(d decimal.Decimal) LocalizedNumber {
	return LocalizedNumber{decimal.NewNullDecimal(d)}
}

// UnmarshalJSON implements json.Unmarshaler
func (n *LocalizedNumber) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		n.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n.NullDecimal = textnorm.ParseLocalizedNumberNull(s)
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", raw, err)
	}
	n.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}

// MarshalJSON implements json.Marshaler
func (n LocalizedNumber) MarshalJSON() ([]byte, error) {
	return n.NullDecimal.MarshalJSON()
}
