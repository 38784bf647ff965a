package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// invisible are characters that sneak into spreadsheet exports and break code equality.
var invisible = map[rune]bool{
	'\u200b': true, // zero width space
	'\u200c': true, // zero width non-joiner
	'\u200d': true, // zero width joiner
	'\u2060': true, // word joiner
	'\ufeff': true, // BOM / zero width no-break space
	'\u00ad': true, // soft hyphen
}

// NormalizeCode returns the canonical comparison form of a product code or name:
// NFC composed, invisible characters removed, whitespace runs collapsed, trimmed.
func NormalizeCode(raw string) string {
	if raw == "" {
		return ""
	}
	s := norm.NFC.String(raw)

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if invisible[r] {
			continue
		}
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

var turkishIFolder = strings.NewReplacer("ı", "i", "İ", "i", "I", "i")

// LookupKey is the case-insensitive map key for codes, names and supplier names. Dotted
// and dotless i compare equal in either case.
func LookupKey(raw string) string {
	return strings.ToLower(turkishIFolder.Replace(NormalizeCode(raw)))
}

// DecodeText converts uploaded bytes to a string. A UTF-8 BOM is dropped; input that is
// not valid UTF-8 is assumed to be a Windows-1254 (Turkish ANSI) export.
func DecodeText(data []byte) (string, error) {
	data = trimBOM(data)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1254.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
