package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), "05 Januari 2024"},
		{time.Date(1999, time.December, 31, 23, 59, 0, 0, time.UTC), "31 Desember 1999"},
		{time.Date(2025, time.May, 17, 8, 0, 0, 0, time.UTC), "17 Mei 2025"},
		{time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), "29 Februari 2024"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDate(tc.in))
	}
}

func TestFormatDate_UsesOwnLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 20:00 UTC on the 31st is already the 1st in Jakarta
	utc := time.Date(2023, time.December, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "31 Desember 2023", FormatDate(utc))
	assert.Equal(t, "01 Januari 2024", FormatDate(utc.In(jakarta)))
}

func TestFormatDateParts_AllMonths(t *testing.T) {
	want := []string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	}
	for i, name := range want {
		got, err := FormatDateParts(2024, i, 1)
		require.NoError(t, err)
		assert.Equal(t, "01 "+name+" 2024", got)
	}
}

func TestFormatDateParts(t *testing.T) {
	got, err := FormatDateParts(2024, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, "05 Januari 2024", got)

	got, err = FormatDateParts(1999, 11, 31)
	require.NoError(t, err)
	assert.Equal(t, "31 Desember 1999", got)
}

// Month indices outside 0-11 and impossible days are rejected, not clamped.
func TestFormatDateParts_Rejects(t *testing.T) {
	cases := []struct {
		name             string
		year, month, day int
		err              error
	}{
		{"month too large", 2024, 12, 1, ErrInvalidMonth},
		{"negative month", 2024, -1, 1, ErrInvalidMonth},
		{"day zero", 2024, 0, 0, ErrInvalidDay},
		{"thirty first of april", 2024, 3, 31, ErrInvalidDay},
		{"non leap february", 2023, 1, 29, ErrInvalidDay},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FormatDateParts(tc.year, tc.month, tc.day)
			assert.ErrorIs(t, err, tc.err)
			assert.Empty(t, got)
		})
	}
}

func TestMonthName(t *testing.T) {
	name, err := MonthName(7)
	require.NoError(t, err)
	assert.Equal(t, "Agustus", name)

	_, err = MonthName(12)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestFormatCountAndPercent(t *testing.T) {
	assert.Equal(t, "1.250", FormatCount(1250, "id-ID"))
	assert.Equal(t, "1,250", FormatCount(1250, "en-US"))
	assert.Equal(t, "42", FormatCount(42, ""))
	assert.Equal(t, "12,5%", FormatPercent(decimal.RequireFromString("12.5"), "id-ID"))
	assert.Equal(t, "12.5%", FormatPercent(decimal.RequireFromString("12.5"), "en"))
	assert.Equal(t, "3,0%", FormatPercent(decimal.NewFromInt(3), "id-ID"))
}
