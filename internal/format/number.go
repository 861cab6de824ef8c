package format

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatCount groups an integer the way locale writes it ("1.250" for id).
func FormatCount(n int64, locale string) string {
	return humanize.FormatInteger(conventionFor(locale).integerPattern, int(n))
}

// FormatPercent renders a percentage with one decimal ("12,5%" for id).
// The value is already in percent units.
func FormatPercent(v decimal.Decimal, locale string) string {
	return humanize.FormatFloat(conventionFor(locale).percentPattern, v.Round(1).InexactFloat64()) + "%"
}
