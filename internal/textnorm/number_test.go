package textnorm_test

import (
	"testing"

	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseLocalizedNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"turkish thousands and decimal", "1.234,56", "1234.56", true},
		{"english thousands and decimal", "1,234.56", "1234.56", true},
		{"comma decimal", "12,5", "12.5", true},
		{"plain integer", "42", "42", true},
		{"dot decimal", "3.75", "3.75", true},
		{"repeated dots keep the last", "1.234.567", "1234.567", true},
		{"repeated commas keep the last", "1,234,5", "1234.5", true},
		{"mixed with repeated thousands", "1.234.567,89", "1234567.89", true},
		{"surrounding and inner spaces", "  1 234,5 ", "1234.5", true},
		{"non-breaking space thousands", "1\u00a0234,50", "1234.5", true},
		{"negative", "-7,25", "-7.25", true},
		{"zero is present", "0", "0", true},
		{"empty is absent", "", "", false},
		{"blank is absent", "   ", "", false},
		{"letters", "abc", "", false},
		{"trailing unit", "12 kg", "", false},
		{"lone separator", ",", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := textnorm.ParseLocalizedNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestParseLocalizedNumberNull(t *testing.T) {
	t.Run("absent stays null", func(t *testing.T) {
		assert.False(t, textnorm.ParseLocalizedNumberNull("").Valid)
	})

	t.Run("zero stays valid", func(t *testing.T) {
		v := textnorm.ParseLocalizedNumberNull("0,00")
		assert.True(t, v.Valid)
		assert.True(t, v.Decimal.IsZero())
	})
}
