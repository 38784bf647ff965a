package textnorm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is a logical import column, independent of how a given export spells it.
type Field string

const (
	FieldProductCode  Field = "product_code"
	FieldProductName  Field = "product_name"
	FieldSupplierName Field = "supplier_name"
	FieldQuantity     Field = "quantity"
	FieldBoxCount     Field = "box_count"
	FieldNetWeight    Field = "net_weight"
	FieldGrossWeight  Field = "gross_weight"
	FieldUnitPrice    Field = "unit_price"
	FieldCurrency     Field = "currency"
	FieldDocument     Field = "document"
	FieldNetsisCode   Field = "netsis_stok_kodu"
	FieldGtipCode     Field = "gtip_code"
	FieldDomesticCost Field = "domestic_cost_percent"
	FieldWeightKg     Field = "weight_kg"
	FieldTransitDays  Field = "transit_days"
	FieldMinOrder     Field = "min_order"
	FieldDeliveryTime Field = "delivery_time"
	FieldValidityDate Field = "validity_date"
	FieldNotes        Field = "notes"
)

// HeaderAliases lists every known spelling per logical field, in priority order.
// Keys are compared after NormalizeHeader, so "Qty (pc)" and "qty_pc" are the same alias.
// New export formats must be added here; an unlisted header is silently ignored.
var HeaderAliases = map[Field][]string{
	FieldProductCode:  {"product_code", "code", "item_code", "part_no", "urun_kodu", "stok_kodu", "malzeme_kodu", "kod"},
	FieldProductName:  {"product_name", "name", "description", "item_name", "urun_adi", "stok_adi", "aciklama"},
	FieldSupplierName: {"supplier_name", "supplier", "vendor", "tedarikci", "firma"},
	FieldQuantity:     {"qty_pc", "quantity", "qty", "pcs", "adet", "miktar"},
	FieldBoxCount:     {"box_count", "boxes", "ctn", "cartons", "carton_qty", "koli", "koli_adedi", "koli_sayisi"},
	FieldNetWeight:    {"net_weight", "nw", "n_w", "net_kg", "net_agirlik"},
	FieldGrossWeight:  {"gross_weight", "gw", "g_w", "gross_kg", "brut_agirlik", "brut_kg"},
	FieldUnitPrice:    {"unit_price", "price", "birim_fiyat", "fiyat"},
	FieldCurrency:     {"currency", "cur", "doviz", "para_birimi"},
	FieldDocument:     {"document", "invoice_no", "pi_no", "proforma_no", "fatura_no", "belge_no"},
	FieldNetsisCode:   {"netsis_stok_kodu", "netsis_kodu", "netsis", "netsis_code", "erp_code"},
	FieldGtipCode:     {"gtip_code", "gtip", "gtip_kodu", "hs_code"},
	FieldDomesticCost: {"domestic_cost_percent", "domestic_cost", "yurtici_maliyet", "yurtici_maliyet_yuzde"},
	FieldWeightKg:     {"weight_kg", "weight", "agirlik", "birim_agirlik"},
	FieldTransitDays:  {"transit_days", "transit", "transit_gun"},
	FieldMinOrder:     {"min_order", "moq", "minimum_siparis"},
	FieldDeliveryTime: {"delivery_time", "lead_time", "teslim_suresi"},
	FieldValidityDate: {"validity_date", "valid_until", "gecerlilik_tarihi"},
	FieldNotes:        {"notes", "note", "not", "notlar"},
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader folds a header or JSON key to its alias-table form: lowercase, diacritics
// removed (Turkish dotless i included), separators collapsed to '_'.
func NormalizeHeader(raw string) string {
	s := LookupKey(raw)
	if folded, _, err := transform.String(diacriticFolder, s); err == nil {
		s = folded
	}

	var b strings.Builder
	underscore := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if underscore && b.Len() > 0 {
				b.WriteByte('_')
			}
			underscore = false
			b.WriteRune(r)
			continue
		}
		underscore = true
	}
	return b.String()
}

type aliasEntry struct {
	field    Field
	priority int
}

// aliasIndex maps a normalized alias to its field and priority.
type aliasIndex map[string]aliasEntry

var headerIndex = buildAliasIndex()

func buildAliasIndex() aliasIndex {
	idx := make(aliasIndex)
	for field, aliases := range HeaderAliases {
		for i, a := range aliases {
			key := NormalizeHeader(a)
			if _, taken := idx[key]; taken {
				continue
			}
			idx[key] = aliasEntry{field: field, priority: i}
		}
	}
	return idx
}

// MapHeaders returns the column index for every recognised field. When two columns spell
// the same field, the higher-priority alias wins.
func MapHeaders(headers []string) map[Field]int {
	cols := make(map[Field]int)
	prio := make(map[Field]int)
	for i, h := range headers {
		e, ok := headerIndex[NormalizeHeader(h)]
		if !ok {
			continue
		}
		if p, seen := prio[e.field]; seen && p <= e.priority {
			continue
		}
		cols[e.field] = i
		prio[e.field] = e.priority
	}
	return cols
}

// ResolveField picks the value for field from a free-form JSON object, trying each alias
// in priority order. Non-string scalars are formatted; empty strings count as absent.
// When several keys spell the same alias, a key already in normalized form wins, then the
// lexically smallest key.
func ResolveField(obj map[string]any, field Field) (string, bool) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ei, ej := keys[i] == NormalizeHeader(keys[i]), keys[j] == NormalizeHeader(keys[j])
		if ei != ej {
			return ei
		}
		return keys[i] < keys[j]
	})

	normalized := make(map[string][]any, len(obj))
	for _, k := range keys {
		nk := NormalizeHeader(k)
		normalized[nk] = append(normalized[nk], obj[k])
	}
	for _, alias := range HeaderAliases[field] {
		for _, v := range normalized[NormalizeHeader(alias)] {
			if v == nil {
				continue
			}
			if s := strings.TrimSpace(stringify(v)); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
