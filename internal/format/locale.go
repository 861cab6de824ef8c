package format

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
)

// nbsp separates an alphabetic currency symbol from the digits ("Rp 1.234").
const nbsp = "\u00a0"

// convention holds the display rules of one supported language.
type convention struct {
	tag    language.Tag
	group  string
	suffix bool // symbol after the digits ("1.234 €")

	// go-humanize format patterns
	integerPattern string
	percentPattern string

	symbols map[string]string
}

// Symbols shared by every locale unless the convention overrides them.
var currencySymbols = map[string]string{
	"IDR": "Rp",
	"EUR": "€",
	"GBP": "£",
	"USD": "US$",
	"JPY": "JP¥",
	"AUD": "AU$",
	"SGD": "SGD",
	"MYR": "MYR",
}

// conventions is ordered: the first entry is the fallback for unmatched tags.
var conventions = []convention{
	{
		tag:            language.Indonesian,
		group:          ".",
		integerPattern: "#.###,",
		percentPattern: "#.###,#",
	},
	{
		tag:            language.English,
		group:          ",",
		integerPattern: "#,###.",
		percentPattern: "#,###.#",
		symbols:        map[string]string{"USD": "$", "JPY": "¥", "AUD": "A$"},
	},
	{
		tag:            language.German,
		group:          ".",
		suffix:         true,
		integerPattern: "#.###,",
		percentPattern: "#.###,#",
		symbols:        map[string]string{"USD": "$", "JPY": "¥"},
	},
	{
		tag:            language.Italian,
		group:          ".",
		suffix:         true,
		integerPattern: "#.###,",
		percentPattern: "#.###,#",
		symbols:        map[string]string{"USD": "USD", "JPY": "JPY"},
	},
	{
		tag:            language.Japanese,
		group:          ",",
		integerPattern: "#,###.",
		percentPattern: "#,###.#",
		symbols:        map[string]string{"USD": "$", "JPY": "￥"},
	},
}

var matcher = newMatcher()

func newMatcher() language.Matcher {
	tags := make([]language.Tag, len(conventions))
	for i, c := range conventions {
		tags[i] = c.tag
	}
	return language.NewMatcher(tags)
}

// lookupConvention picks the closest supported convention for tag. Tags
// with no reasonable match get the Indonesian rules.
func lookupConvention(tag language.Tag) convention {
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No || idx < 0 || idx >= len(conventions) {
		return conventions[0]
	}
	return conventions[idx]
}

// conventionFor parses a locale string, falling back to the default rules
// when it is empty or malformed.
func conventionFor(locale string) convention {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return conventions[0]
	}
	return lookupConvention(tag)
}

func (c convention) symbol(code string) string {
	if s, ok := c.symbols[code]; ok {
		return s
	}
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code
}

// decorate places the symbol around already grouped digits.
func (c convention) decorate(symbol, digits string, negative bool) string {
	var b strings.Builder
	if negative {
		b.WriteString("-")
	}
	if c.suffix {
		b.WriteString(digits)
		b.WriteString(nbsp)
		b.WriteString(symbol)
		return b.String()
	}
	b.WriteString(symbol)
	if endsWithLetter(symbol) {
		b.WriteString(nbsp)
	}
	b.WriteString(digits)
	return b.String()
}

func endsWithLetter(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r != utf8.RuneError && unicode.IsLetter(r)
}

// groupDigits inserts sep every three digits of an unsigned integer string.
func groupDigits(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
