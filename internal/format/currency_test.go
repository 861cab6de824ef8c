package format

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrency_Defaults(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"integer", 1234, "Rp\u00a01.234"},
		{"zero is not absent", 0, "Rp\u00a00"},
		{"negative", -1234, "-Rp\u00a01.234"},
		{"millions", int64(15000000), "Rp\u00a015.000.000"},
		{"small", 7, "Rp\u00a07"},
		{"float rounds down", 1234.4, "Rp\u00a01.234"},
		{"float rounds half up", 1234.5, "Rp\u00a01.235"},
		{"negative half rounds away from zero", -1234.5, "-Rp\u00a01.235"},
		{"tiny negative rounds to unsigned zero", -0.4, "Rp\u00a00"},
		{"numeric string", "2500000", "Rp\u00a02.500.000"},
		{"fractional string", "99.99", "Rp\u00a0100"},
		{"signed string", "-42", "-Rp\u00a042"},
		{"plus sign string", "+42", "Rp\u00a042"},
		{"padded string", "  42  ", "Rp\u00a042"},
		{"exponent string", "1e3", "Rp\u00a01.000"},
		{"decimal value", decimal.RequireFromString("1000.49"), "Rp\u00a01.000"},
		{"unsigned", uint32(5000), "Rp\u00a05.000"},
		{"float32", float32(12.0), "Rp\u00a012"},
		{"beyond int64", "123456789012345678901234", "Rp\u00a0123.456.789.012.345.678.901.234"},
		{"negligible exponent", "5e-2147483647", "Rp\u00a00"},
		{"zero with huge exponent", "0e2147483647", "Rp\u00a00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatCurrency(tc.in))
		})
	}
}

func TestFormatCurrency_NotApplicable(t *testing.T) {
	var nilDecimal *decimal.Decimal
	var nilString *string

	inputs := map[string]any{
		"nil":                nil,
		"nil decimal":        nilDecimal,
		"nil string pointer": nilString,
		"not a number":       "not-a-number",
		"empty":              "",
		"blank":              "   ",
		"locale grouped":     "1.234,5",
		"trailing garbage":   "12abc",
		"NaN":                math.NaN(),
		"positive infinity":  math.Inf(1),
		"negative infinity":  math.Inf(-1),
		"invalid null":       decimal.NullDecimal{},
		"boolean":            true,
		"struct":             struct{}{},
		"huge exponent":      "1e2147483647",
		"large exponent":     "1e2000000",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, NotApplicable, FormatCurrency(in))
		})
	}

	assert.Equal(t, FormatCurrency(nil), FormatCurrency("not-a-number"))
}

func TestFormatCurrency_RoundingIsLossy(t *testing.T) {
	formatted := FormatCurrency("1234.56")
	assert.Equal(t, "Rp\u00a01.235", formatted)
	assert.NotContains(t, formatted, ",56")
}

func TestFormatCurrencyIn(t *testing.T) {
	cases := []struct {
		amount       any
		code, locale string
		want         string
	}{
		{1234, "USD", "en-US", "$1,234"},
		{-1234, "USD", "en-US", "-$1,234"},
		{1234, "usd", "id-ID", "US$1.234"},
		{1234, "EUR", "de-DE", "1.234\u00a0€"},
		{-1234, "EUR", "it-IT", "-1.234\u00a0€"},
		{1234, "IDR", "en-US", "Rp\u00a01,234"},
		{1234, "SGD", "id-ID", "SGD\u00a01.234"},
		{1234, "", "", "Rp\u00a01.234"},
		{1234, "IDR", "id", "Rp\u00a01.234"},
	}
	for _, tc := range cases {
		t.Run(tc.code+"_"+tc.locale, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatCurrencyIn(tc.amount, tc.code, tc.locale))
		})
	}
}

func TestFormatCurrency_MagnitudeBound(t *testing.T) {
	largest := "1" + strings.Repeat("0", maxIntegerDigits-1)
	got := FormatCurrency(largest)
	assert.True(t, strings.HasPrefix(got, "Rp\u00a01.000."), got)

	assert.Equal(t, NotApplicable, FormatCurrency(largest+"0"))
	assert.Equal(t, NotApplicable, FormatCurrency(decimal.New(1, 1<<30)))

	f, err := NewCurrencyFormatter("IDR", "id-ID")
	require.NoError(t, err)
	assert.Equal(t, NotApplicable, f.FormatDecimal(decimal.New(-7, 5000)))
	assert.NotEqual(t, NotApplicable, FormatCurrency(math.MaxFloat64))
}

func TestFormatCurrencyIn_UnsupportedLocaleUsesIndonesianRules(t *testing.T) {
	assert.Equal(t, "€1.234", FormatCurrencyIn(1234, "EUR", "fr-FR"))
	assert.Equal(t, "-US$1.234", FormatCurrencyIn(-1234, "USD", "sw-KE"))
}

func TestFormatCurrencyIn_InvalidSettings(t *testing.T) {
	assert.Equal(t, NotApplicable, FormatCurrencyIn(1234, "RUPIAH", "id-ID"))
	assert.Equal(t, NotApplicable, FormatCurrencyIn(1234, "IDR", "%%"))
}

func TestNewCurrencyFormatter(t *testing.T) {
	f, err := NewCurrencyFormatter("", "")
	require.NoError(t, err)
	assert.Equal(t, "IDR", f.Currency())
	assert.Equal(t, "id-ID", f.Locale())

	f, err = NewCurrencyFormatter(" eur ", "de-DE")
	require.NoError(t, err)
	assert.Equal(t, "EUR", f.Currency())
	assert.Equal(t, "1.000.000\u00a0€", f.Format(999999.5))

	_, err = NewCurrencyFormatter("12", "id-ID")
	assert.Error(t, err)

	_, err = NewCurrencyFormatter("IDR", "%%")
	assert.Error(t, err)
}

func TestCurrencyFormatter_UnknownLocaleFallsBack(t *testing.T) {
	f, err := NewCurrencyFormatter("IDR", "sw-KE")
	require.NoError(t, err)
	assert.Equal(t, "Rp\u00a01.234", f.Format(1234))
}

func TestFormatCurrency_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]string, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				results[i] = FormatCurrency(1234)
			} else {
				results[i] = FormatCurrencyIn(1234, "USD", "en-US")
			}
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if i%2 == 0 {
			assert.Equal(t, "Rp\u00a01.234", got)
		} else {
			assert.Equal(t, "$1,234", got)
		}
	}
}

func TestParseAmount(t *testing.T) {
	d, ok := ParseAmount(" -12.75 ")
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("-12.75")))

	d, ok = ParseAmount(0)
	require.True(t, ok)
	assert.True(t, d.IsZero())

	_, ok = ParseAmount("twelve")
	assert.False(t, ok)
}

func TestGroupDigits(t *testing.T) {
	cases := map[string]string{
		"":          "",
		"7":         "7",
		"123":       "123",
		"1234":      "1.234",
		"123456":    "123.456",
		"1234567":   "1.234.567",
		"100000000": "100.000.000",
	}
	for in, want := range cases {
		assert.Equal(t, want, groupDigits(in, "."), in)
	}
	assert.True(t, strings.Contains(groupDigits("1234567", ","), ","))
}
