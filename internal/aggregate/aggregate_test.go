package aggregate_test

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/aggregate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestByCode_SumsAndProvenance(t *testing.T) {
	lines := []aggregate.Line{
		{Index: 0, Code: "AB-100", Name: "", Quantity: dec("10"), Source: "proforma-2.xlsx"},
		{Index: 1, Code: " ab-100 ", Name: "Bolt M8", Quantity: dec("2.5"), Source: "proforma-1.xlsx"},
		{Index: 2, Code: "AB-100", Name: "Bolt M8 long", Quantity: decimal.NullDecimal{}, Source: "proforma-1.xlsx"},
		{Index: 3, Code: "", Name: "no code", Quantity: dec("99")},
	}

	result := aggregate.ByCode(lines)

	require.Len(t, result, 1)
	e := result["ab-100"]
	require.NotNil(t, e)
	assert.True(t, decimal.RequireFromString("12.5").Equal(e.Quantity))
	assert.Equal(t, "AB-100", e.Code)
	assert.Equal(t, "Bolt M8", e.Name)
	assert.Equal(t, 3, e.Lines)
	assert.Equal(t, []string{"proforma-1.xlsx", "proforma-2.xlsx"}, e.Sources)
}

func TestByPrice_KeepsPriceTiersSeparate(t *testing.T) {
	supplier := uuid.New()
	lines := []aggregate.PricedLine{
		{Index: 0, SupplierID: supplier, Code: "X1", Currency: "usd", UnitPrice: decimal.RequireFromString("1.50"), Quantity: dec("100")},
		{Index: 1, SupplierID: supplier, Code: "x1", Currency: "USD", UnitPrice: decimal.RequireFromString("1.5"), Quantity: dec("50")},
		{Index: 2, SupplierID: supplier, Code: "X1", Currency: "USD", UnitPrice: decimal.RequireFromString("1.40"), Quantity: dec("500")},
		{Index: 3, SupplierID: supplier, Code: "X1", Currency: "EUR", UnitPrice: decimal.RequireFromString("1.5")},
	}

	result := aggregate.ByPrice(lines)

	require.Len(t, result, 3)
	key := aggregate.KeyOf(lines[0])
	e := result[key]
	require.NotNil(t, e)
	assert.True(t, decimal.NewFromInt(150).Equal(e.Quantity))
	assert.True(t, e.HasQuantity)
	assert.Equal(t, 0, e.FirstIndex)

	eur := result[aggregate.KeyOf(lines[3])]
	require.NotNil(t, eur)
	assert.False(t, eur.HasQuantity)
	assert.Equal(t, "EUR", eur.Currency)
}

func TestPackingList_BoxMultiplier(t *testing.T) {
	tests := []struct {
		name      string
		boxCount  decimal.NullDecimal
		wantQty   string
		wantBoxes string
		wantNet   string
	}{
		{name: "zero boxes counts once", boxCount: dec("0"), wantQty: "12", wantBoxes: "0", wantNet: "3"},
		{name: "absent boxes counts once", boxCount: decimal.NullDecimal{}, wantQty: "12", wantBoxes: "0", wantNet: "3"},
		{name: "negative boxes counts once", boxCount: dec("-2"), wantQty: "12", wantBoxes: "0", wantNet: "3"},
		{name: "five boxes", boxCount: dec("5"), wantQty: "60", wantBoxes: "5", wantNet: "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := aggregate.PackingList([]aggregate.PackingLine{
				{Code: "P-1", Quantity: dec("12"), BoxCount: tt.boxCount, NetWeight: dec("3")},
			})
			e := result["p-1"]
			require.NotNil(t, e)
			assert.True(t, decimal.RequireFromString(tt.wantQty).Equal(e.Quantity), "quantity %s", e.Quantity)
			assert.True(t, decimal.RequireFromString(tt.wantBoxes).Equal(e.Boxes), "boxes %s", e.Boxes)
			assert.True(t, decimal.RequireFromString(tt.wantNet).Equal(e.NetWeight), "net %s", e.NetWeight)
			assert.True(t, e.GrossWeight.IsZero())
		})
	}
}

type packingSnapshot struct {
	Code, Name      string
	Qty, Boxes, Net string
	Lines           int
	Sources         []string
}

func snapshot(m map[string]*aggregate.PackingEntry) map[string]packingSnapshot {
	out := make(map[string]packingSnapshot, len(m))
	for k, e := range m {
		out[k] = packingSnapshot{
			Code:    e.Code,
			Name:    e.Name,
			Qty:     e.Quantity.String(),
			Boxes:   e.Boxes.String(),
			Net:     e.NetWeight.String(),
			Lines:   e.Lines,
			Sources: e.Sources,
		}
	}
	return out
}

func TestPackingList_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	codes := []string{"A-1", "a-1", "B-2", "C-3", "c-3 "}
	names := []string{"", "Widget", "Gadget", ""}
	sources := []string{"pl-1.csv", "pl-2.csv", "pl-3.xlsx"}

	var lines []aggregate.PackingLine
	for i := 0; i < 200; i++ {
		line := aggregate.PackingLine{
			Index:     i,
			Code:      codes[rng.Intn(len(codes))],
			Name:      names[rng.Intn(len(names))],
			Quantity:  decimal.NewNullDecimal(decimal.New(int64(rng.Intn(10000)), -2)),
			NetWeight: decimal.NewNullDecimal(decimal.New(int64(rng.Intn(5000)), -3)),
			Source:    sources[rng.Intn(len(sources))],
		}
		if rng.Intn(3) > 0 {
			line.BoxCount = decimal.NewNullDecimal(decimal.NewFromInt(int64(rng.Intn(8))))
		}
		lines = append(lines, line)
	}

	want := snapshot(aggregate.PackingList(lines))

	for round := 0; round < 20; round++ {
		shuffled := append([]aggregate.PackingLine(nil), lines...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, snapshot(aggregate.PackingList(shuffled)), "round %d", round)
	}
}

type entrySnapshot struct {
	Code, Name  string
	Qty, Amount string
	Lines       int
	Sources     []string
}

func TestByCode_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	codes := []string{"K-1", "k-1 ", "K-2", "kırmızı-3", "KIRMIZI-3"}
	names := []string{"", "Valve", "Pump"}

	var lines []aggregate.Line
	for i := 0; i < 200; i++ {
		lines = append(lines, aggregate.Line{
			Index:    i,
			Code:     codes[rng.Intn(len(codes))],
			Name:     names[rng.Intn(len(names))],
			Quantity: decimal.NewNullDecimal(decimal.New(int64(rng.Intn(10000)), -2)),
			Amount:   decimal.NewNullDecimal(decimal.New(int64(rng.Intn(90000)), -3)),
			Source:   []string{"po.csv", "pi.xlsx"}[rng.Intn(2)],
		})
	}

	snap := func(m map[string]*aggregate.Entry) map[string]entrySnapshot {
		out := make(map[string]entrySnapshot, len(m))
		for k, e := range m {
			out[k] = entrySnapshot{Code: e.Code, Name: e.Name, Qty: e.Quantity.String(), Amount: e.Amount.String(), Lines: e.Lines, Sources: e.Sources}
		}
		return out
	}
	want := snap(aggregate.ByCode(lines))
	require.Len(t, want, 3)

	for round := 0; round < 20; round++ {
		shuffled := append([]aggregate.Line(nil), lines...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, snap(aggregate.ByCode(shuffled)), "round %d", round)
	}
}

type pricedSnapshot struct {
	Code, Name, Currency, Price, Qty string
	HasQuantity                      bool
	FirstIndex, Lines                int
	Sources                          []string
}

func TestByPrice_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	suppliers := []uuid.UUID{uuid.New(), uuid.New()}
	codes := []string{"X1", "x1", "Y2"}
	prices := []string{"1.50", "1.5", "2", "2.000"}

	var lines []aggregate.PricedLine
	for i := 0; i < 200; i++ {
		line := aggregate.PricedLine{
			Index:      i,
			SupplierID: suppliers[rng.Intn(len(suppliers))],
			Code:       codes[rng.Intn(len(codes))],
			Name:       []string{"", "Bolt"}[rng.Intn(2)],
			Currency:   []string{"usd", "USD", "EUR"}[rng.Intn(3)],
			UnitPrice:  decimal.RequireFromString(prices[rng.Intn(len(prices))]),
			Source:     "quote.csv",
		}
		if rng.Intn(4) > 0 {
			line.Quantity = decimal.NewNullDecimal(decimal.NewFromInt(int64(rng.Intn(500))))
		}
		lines = append(lines, line)
	}

	snap := func(m map[aggregate.PriceKey]*aggregate.PricedEntry) map[aggregate.PriceKey]pricedSnapshot {
		out := make(map[aggregate.PriceKey]pricedSnapshot, len(m))
		for k, e := range m {
			out[k] = pricedSnapshot{
				Code:        e.Code,
				Name:        e.Name,
				Currency:    e.Currency,
				Price:       e.UnitPrice.String(),
				Qty:         e.Quantity.String(),
				HasQuantity: e.HasQuantity,
				FirstIndex:  e.FirstIndex,
				Lines:       e.Lines,
				Sources:     e.Sources,
			}
		}
		return out
	}
	want := snap(aggregate.ByPrice(lines))

	for round := 0; round < 20; round++ {
		shuffled := append([]aggregate.PricedLine(nil), lines...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, snap(aggregate.ByPrice(shuffled)), "round %d", round)
	}
}

func TestQuantityAggregator_ChunkedFeedMatchesOneShot(t *testing.T) {
	var lines []aggregate.Line
	for i := 0; i < 1000; i++ {
		lines = append(lines, aggregate.Line{
			Index:    i,
			Code:     []string{"K1", "K2", "K3"}[i%3],
			Quantity: decimal.NewNullDecimal(decimal.New(int64(i), -1)),
			Source:   "orders.csv",
		})
	}

	want := aggregate.ByCode(lines)

	agg := aggregate.NewQuantityAggregator()
	for start := 0; start < len(lines); start += 200 {
		for _, l := range lines[start : start+200] {
			agg.Add(l)
		}
	}
	got := agg.Result()

	require.Equal(t, aggregate.SortedKeys(want), aggregate.SortedKeys(got))
	for k, e := range want {
		assert.True(t, e.Quantity.Equal(got[k].Quantity), k)
		assert.Equal(t, e.Lines, got[k].Lines)
	}
}
