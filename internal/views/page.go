package views

import (
	"time"

	"github.com/shopspring/decimal"
)

// PageData is what every page template receives.
type PageData struct {
	Page     Page
	Nav      []Page
	Sections []SectionCards
	Settings []Setting
	Currency string
	Locale   string
	Today    time.Time

	// RefreshEnabled shows the manual refresh button on the settings page.
	RefreshEnabled bool
	Preview        *FormatPreview
}

// Setting is one read-only row on the settings page.
type Setting struct {
	Label string
	Value string
}

// FormatPreview holds sample values rendered with the active currency and
// locale on the settings page.
type FormatPreview struct {
	Amount   decimal.Decimal
	Negative decimal.Decimal
	Missing  *decimal.Decimal
	Count    int64
	Percent  decimal.Decimal
	Date     time.Time
}

func NewFormatPreview(today time.Time) *FormatPreview {
	return &FormatPreview{
		Amount:   decimal.RequireFromString("1234567.5"),
		Negative: decimal.NewFromInt(-250000),
		Count:    1250,
		Percent:  decimal.RequireFromString("12.5"),
		Date:     today,
	}
}

// NewPageData fills the fields shared by all pages.
func NewPageData(p Page, r *Renderer, now time.Time) PageData {
	return PageData{
		Page:     p,
		Nav:      Pages,
		Currency: r.Currency().Currency(),
		Locale:   r.Currency().Locale(),
		Today:    now,
	}
}

// IsActive reports whether nav entry p is the current page.
func (d PageData) IsActive(p Page) bool {
	return d.Page.Path == p.Path
}
