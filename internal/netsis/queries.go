package netsis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// table returns a three-part name. Database names are validated at connect time.
func table(database, name string) string {
	return fmt.Sprintf("[%s].dbo.%s", database, name)
}

// inList builds "@p1, @p2, ..." for the codes, starting at @p{offset+1}
func inList(codes []string, offset int) (string, []interface{}) {
	placeholders := make([]string, len(codes))
	args := make([]interface{}, len(codes))
	for i, code := range codes {
		placeholders[i] = "@p" + strconv.Itoa(offset+i+1)
		args[i] = code
	}
	return strings.Join(placeholders, ", "), args
}

func stockNamesQuery(database string, codes []string) (string, []interface{}) {
	in, args := inList(codes, 0)
	return fmt.Sprintf(
		"SELECT RTRIM(STOK_KODU), RTRIM(STOK_ADI) FROM %s WITH (NOLOCK) WHERE STOK_KODU IN (%s)",
		table(database, "TBLSTSABIT"), in,
	), args
}

func stockNamesByPrefixQuery(database, prefix string) (string, []interface{}) {
	return fmt.Sprintf(
		"SELECT RTRIM(STOK_KODU), RTRIM(STOK_ADI) FROM %s WITH (NOLOCK) WHERE STOK_KODU LIKE @p1 ESCAPE '\\'",
		table(database, "TBLSTSABIT"),
	), []interface{}{escapeLike(prefix) + "%"}
}

// STHAR_GCKOD is 'G' for inbound and 'C' for outbound movements
func stockQuantityQuery(database string, codes []string) (string, []interface{}) {
	in, args := inList(codes, 0)
	return fmt.Sprintf(
		"SELECT RTRIM(STOK_KODU), SUM(CASE WHEN STHAR_GCKOD = 'G' THEN STHAR_GCMIK ELSE -STHAR_GCMIK END) "+
			"FROM %s WITH (NOLOCK) WHERE STOK_KODU IN (%s) GROUP BY STOK_KODU",
		table(database, "TBLSTHAR"), in,
	), args
}

func salesQuery(database string, codes []string) (string, []interface{}) {
	in, args := inList(codes, 0)
	return fmt.Sprintf(
		"SELECT RTRIM(STOK_KODU), SUM(STHAR_GCMIK) FROM %s WITH (NOLOCK) "+
			"WHERE STHAR_GCKOD = 'C' AND STOK_KODU IN (%s) GROUP BY STOK_KODU",
		table(database, "TBLSTHAR"), in,
	), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `[`, `\[`).Replace(s)
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// toDecimal converts a driver value to decimal. SQL Server numeric columns arrive as []byte.
func toDecimal(v interface{}) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case int64:
		return decimal.NewFromInt(t)
	case float64:
		return decimal.NewFromFloat(t)
	case []byte:
		d, err := decimal.NewFromString(string(t))
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		d, err := decimal.NewFromString(fmt.Sprint(t))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
}
