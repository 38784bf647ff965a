package textnorm_test

import (
	"testing"

	"github.com/ithalat-ops/backoffice-api/internal/textnorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims", "  ABC-01 ", "ABC-01"},
		{"collapses whitespace", "ABC \t  01\n02", "ABC 01 02"},
		{"drops zero width and bom", "\ufeffAB\u200bC\u200d", "ABC"},
		{"composes decomposed letters", "C\u0327ELI\u0307K", "\u00c7EL\u0130K"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textnorm.NormalizeCode(tt.input))
		})
	}
}

func TestLookupKey(t *testing.T) {
	assert.Equal(t, textnorm.LookupKey("abc 01"), textnorm.LookupKey(" ABC  01\u200b"))
	assert.Equal(t, textnorm.LookupKey("KIRMIZI-1"), textnorm.LookupKey("kırmızı-1"))
	assert.Equal(t, textnorm.LookupKey("İZMİR VALF"), textnorm.LookupKey("izmir valf"))
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', textnorm.DetectDelimiter("\n\ncode;qty\nA;1"))
	assert.Equal(t, '\t', textnorm.DetectDelimiter("code\tqty\nA\t1"))
	assert.Equal(t, ',', textnorm.DetectDelimiter("code,qty\nA,1"))
	assert.Equal(t, ',', textnorm.DetectDelimiter(""))
}

func TestReadDelimited(t *testing.T) {
	t.Run("quoted fields keep delimiters and doubled quotes", func(t *testing.T) {
		rows, err := textnorm.ReadDelimited("A;\"Bolt; 10\"\"\";5\n\nB;Nut;7\n", ';')
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"A", "Bolt; 10\"", "5"}, rows[0])
		assert.Equal(t, "Nut", rows[1][1])
	})

	t.Run("ragged rows are allowed", func(t *testing.T) {
		rows, err := textnorm.ReadDelimited("a,b,c\nd\n", ',')
		require.NoError(t, err)
		assert.Len(t, rows[0], 3)
		assert.Len(t, rows[1], 1)
	})

	t.Run("cell out of range", func(t *testing.T) {
		assert.Equal(t, "", textnorm.Cell([]string{"x"}, 3))
		assert.Equal(t, "x", textnorm.Cell([]string{" x "}, 0))
	})
}

func TestDecodeText(t *testing.T) {
	t.Run("utf8 with bom", func(t *testing.T) {
		s, err := textnorm.DecodeText([]byte("\xef\xbb\xbfkod;adet"))
		require.NoError(t, err)
		assert.Equal(t, "kod;adet", s)
	})

	t.Run("windows-1254 fallback", func(t *testing.T) {
		// "ŞEKER" with 0xDE for Ş
		s, err := textnorm.DecodeText([]byte{0xDE, 'E', 'K', 'E', 'R'})
		require.NoError(t, err)
		assert.Equal(t, "ŞEKER", s)
	})
}
