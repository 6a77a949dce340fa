package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "integer", raw: "100000", want: "100000"},
		{name: "fraction with spaces", raw: " 12.5 ", want: "12.5"},
		{name: "negative credit", raw: "-250", want: "-250"},
		{name: "empty", raw: "", wantErr: true},
		{name: "not numeric", raw: "12k", wantErr: true},
		{name: "four places", raw: "0.0001", want: "0.0001"},
		{name: "trailing zeros beyond scale", raw: "1.500000", want: "1.5"},
		{name: "five places", raw: "0.00001", wantErr: true},
		{name: "largest storable", raw: "99999999999999.9999", want: "99999999999999.9999"},
		{name: "column overflow", raw: "100000000000000", wantErr: true},
		{name: "exponent overflow", raw: "1e30", wantErr: true},
		{name: "negative overflow", raw: "-1e14", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestPercent_ZeroDenominatorIsNil(t *testing.T) {
	assert.Nil(t, Percent(dec("10"), decimal.Zero))

	pct := Percent(dec("1"), dec("3"))
	require.NotNil(t, pct)
	assert.Equal(t, "33.33", pct.StringFixed(2))
}

func TestNewFigures(t *testing.T) {
	f := NewFigures(dec("100000"), dec("35000"))
	assert.True(t, f.Margin.Equal(dec("65000")))
	require.NotNil(t, f.MarginPct)
	assert.True(t, f.MarginPct.Equal(dec("65")))

	zero := NewFigures(decimal.Zero, dec("500"))
	assert.True(t, zero.Margin.Equal(dec("-500")))
	assert.Nil(t, zero.MarginPct)

	negative := NewFigures(dec("-10"), decimal.Zero)
	assert.Nil(t, negative.MarginPct)
}

func TestErosionPct(t *testing.T) {
	pct := ErosionPct(dec("1000"), dec("700"), dec("500"))
	require.NotNil(t, pct)
	assert.True(t, pct.Equal(dec("20")))

	assert.Nil(t, ErosionPct(decimal.Zero, dec("700"), dec("500")))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-03")
	require.NoError(t, err)
	assert.Equal(t, Period("2025-03"), p)

	for _, bad := range []string{"", "2025-3", "2025-13", "03-2025", "2025-03-01"} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, bad)
	}
}

func TestPeriod_Bounds(t *testing.T) {
	p := Period("2025-12")
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.End())

	assert.True(t, p.Contains(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, 11, 30, 23, 59, 0, 0, time.UTC)))
}

func TestPeriod_Window(t *testing.T) {
	got := Period("2025-02").Window(4)
	assert.Equal(t, []Period{"2024-11", "2024-12", "2025-01", "2025-02"}, got)
	assert.Empty(t, Period("2025-02").Window(0))
}

func TestPeriodOf_UsesUTC(t *testing.T) {
	loc := time.FixedZone("east", 10*3600)
	local := time.Date(2025, 4, 1, 5, 0, 0, 0, loc)
	assert.Equal(t, Period("2025-03"), PeriodOf(local))
}

func TestResolveCostKey(t *testing.T) {
	assert.Equal(t, CostKey("01-100"), ResolveCostKey("01-100", "Groundworks"))
	assert.Equal(t, CostKey("Groundworks"), ResolveCostKey("  ", "Groundworks"))
	assert.Equal(t, Uncoded, ResolveCostKey("", ""))
	assert.Equal(t, Uncoded, ResolveCostKey())
	assert.True(t, CostKey("Preliminaries").Matches(" preliminaries"))
}
