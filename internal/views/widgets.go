package views

import (
	"time"

	"github.com/shopspring/decimal"

	"backoffice/internal/core"
	"backoffice/internal/format"
)

// StatCard is the display form of one figure.
type StatCard struct {
	Key     string
	Title   string
	Value   string
	Caption string
	Trend   core.Trend
	Change  string
}

// SectionCards is the card grid of one section.
type SectionCards struct {
	Section core.Section
	Title   string
	Path    string
	Cards   []StatCard
	AsOf    time.Time
	// Unavailable is set when the figure source failed; the grid renders
	// a placeholder instead.
	Unavailable bool
}

// BuildStatCards formats figures for display. Currency values go through
// cf; counts and percentages use cf's locale.
func BuildStatCards(figs []core.Figure, cf *format.CurrencyFormatter) []StatCard {
	cards := make([]StatCard, 0, len(figs))
	for _, f := range figs {
		card := StatCard{
			Key:   f.Key,
			Title: f.Label,
			Value: formatValue(f.Kind, f.Value, cf),
			Trend: f.Trend(),
		}
		if !f.AsOf.IsZero() {
			card.Caption = "Per " + format.FormatDate(f.AsOf)
		}
		if change, ok := f.Change(); ok && !change.IsZero() {
			card.Change = signed(change, formatValue(f.Kind, change.Abs(), cf))
		}
		cards = append(cards, card)
	}
	return cards
}

// NewSectionCards builds the grid for one section's figures.
func NewSectionCards(section core.Section, figs []core.Figure, cf *format.CurrencyFormatter) SectionCards {
	sc := SectionCards{
		Section: section,
		Cards:   BuildStatCards(figs, cf),
		AsOf:    core.SectionFigures{Section: section, Figures: figs}.LatestAsOf(),
	}
	if p, ok := PageFor(section); ok {
		sc.Title, sc.Path = p.Title, p.Path
	}
	return sc
}

func formatValue(kind core.FigureKind, v decimal.Decimal, cf *format.CurrencyFormatter) string {
	switch kind {
	case core.KindCurrency:
		return cf.FormatDecimal(v)
	case core.KindCount:
		return format.FormatCount(v.Round(0).IntPart(), cf.Locale())
	case core.KindPercent:
		return format.FormatPercent(v, cf.Locale())
	default:
		return format.NotApplicable
	}
}

func signed(change decimal.Decimal, magnitude string) string {
	if change.IsNegative() {
		return "-" + magnitude
	}
	return "+" + magnitude
}
