// Package format provides locale-aware display helpers for money, dates
// and plain numbers.
//
// Currency formatting never fails: any amount that cannot be read as a
// finite number renders as NotApplicable. Callers put the result straight
// into a template.
package format

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotApplicable is shown in place of an amount that is missing or not a number.
const NotApplicable = "N/A"

const (
	DefaultCurrency = "IDR"
	DefaultLocale   = "id-ID"
)

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// CurrencyFormatter renders amounts in one currency for one locale, rounded
// to whole units. It is safe for concurrent use.
type CurrencyFormatter struct {
	code    string
	locale  string
	symbol  string
	conv    convention
	printer *message.Printer
}

// NewCurrencyFormatter validates an ISO 4217 code and a BCP 47 locale tag.
// Empty arguments select DefaultCurrency and DefaultLocale.
func NewCurrencyFormatter(code, locale string) (*CurrencyFormatter, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		code = DefaultCurrency
	}
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = DefaultLocale
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parse currency code %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale tag %q: %w", locale, err)
	}

	conv := lookupConvention(tag)
	return &CurrencyFormatter{
		code:    unit.String(),
		locale:  tag.String(),
		symbol:  conv.symbol(unit.String()),
		conv:    conv,
		printer: message.NewPrinter(conv.tag),
	}, nil
}

// Currency returns the ISO 4217 code.
func (f *CurrencyFormatter) Currency() string { return f.code }

// Locale returns the canonical locale tag.
func (f *CurrencyFormatter) Locale() string { return f.locale }

// Format renders amount, or NotApplicable when ParseAmount rejects it.
func (f *CurrencyFormatter) Format(amount any) string {
	value, ok := ParseAmount(amount)
	if !ok {
		return NotApplicable
	}
	return f.FormatDecimal(value)
}

// FormatDecimal rounds value half away from zero and renders it. A value
// that rounds to zero carries no minus sign. Values rejected by Bounded
// render as NotApplicable.
func (f *CurrencyFormatter) FormatDecimal(value decimal.Decimal) string {
	value, ok := Bounded(value)
	if !ok {
		return NotApplicable
	}
	rounded := value.Round(0)
	abs := rounded.Abs()

	var digits string
	if abs.LessThanOrEqual(maxInt64) {
		digits = f.printer.Sprintf("%d", abs.IntPart())
	} else {
		digits = groupDigits(abs.String(), f.conv.group)
	}
	return f.conv.decorate(f.symbol, digits, rounded.IsNegative())
}

var (
	defaultFormatter = mustCurrencyFormatter(DefaultCurrency, DefaultLocale)
	formatters       sync.Map // "CODE|locale" -> *CurrencyFormatter
)

func mustCurrencyFormatter(code, locale string) *CurrencyFormatter {
	f, err := NewCurrencyFormatter(code, locale)
	if err != nil {
		panic(err)
	}
	return f
}

// FormatCurrency renders amount in Indonesian Rupiah for the id-ID locale.
func FormatCurrency(amount any) string {
	return defaultFormatter.Format(amount)
}

// FormatCurrencyIn renders amount with an explicit currency and locale. An
// invalid code or tag yields NotApplicable like any other unusable input.
func FormatCurrencyIn(amount any, code, locale string) string {
	key := strings.ToUpper(strings.TrimSpace(code)) + "|" + strings.TrimSpace(locale)
	if f, ok := formatters.Load(key); ok {
		return f.(*CurrencyFormatter).Format(amount)
	}
	f, err := NewCurrencyFormatter(code, locale)
	if err != nil {
		return NotApplicable
	}
	actual, _ := formatters.LoadOrStore(key, f)
	return actual.(*CurrencyFormatter).Format(amount)
}
