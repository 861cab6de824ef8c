package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SectionDashboard       Section = "dashboard"
	SectionBudgeting       Section = "budgeting"
	SectionFinancialReport Section = "financial_report"
	SectionPayroll         Section = "payroll"
	SectionTurnover        Section = "turnover"
	SectionSettings        Section = "settings"
)

const (
	KindCurrency FigureKind = "currency"
	KindCount    FigureKind = "count"
	KindPercent  FigureKind = "percent"
)

const (
	TrendNone Trend = ""
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

type (
	// Section groups the figures shown on one back-office page.
	Section string

	// FigureKind selects how a figure value is displayed.
	FigureKind string

	// Trend compares a figure with its previous value.
	Trend string

	// Figure is one display value produced by an upstream system. The
	// back-office only shows figures; it never derives them.
	Figure struct {
		Section  Section
		Key      string // unique within the section, e.g. "budget.allocated"
		Label    string
		Kind     FigureKind
		Value    decimal.Decimal
		Previous *decimal.Decimal // optional, drives the trend marker
		AsOf     time.Time
	}
)

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrUnknownKind    = errors.New("unknown figure kind")
	ErrEmptyKey       = errors.New("empty figure key")
	ErrEmptyLabel     = errors.New("empty figure label")
)

// Sections lists every section in navigation order.
var Sections = []Section{
	SectionDashboard,
	SectionBudgeting,
	SectionFinancialReport,
	SectionPayroll,
	SectionTurnover,
	SectionSettings,
}

func ParseSection(s string) (Section, error) {
	sec := Section(strings.ToLower(strings.TrimSpace(s)))
	if !sec.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, s)
	}
	return sec, nil
}

func (s Section) IsValid() bool {
	for _, known := range Sections {
		if s == known {
			return true
		}
	}
	return false
}

func (s Section) String() string { return string(s) }

func ParseKind(s string) (FigureKind, error) {
	k := FigureKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindCurrency, KindCount, KindPercent:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (f Figure) Validate() error {
	if !f.Section.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownSection, f.Section)
	}
	if strings.TrimSpace(f.Key) == "" {
		return ErrEmptyKey
	}
	if strings.TrimSpace(f.Label) == "" {
		return ErrEmptyLabel
	}
	if _, err := ParseKind(string(f.Kind)); err != nil {
		return err
	}
	return nil
}

// Trend reports the direction of Value against Previous.
func (f Figure) Trend() Trend {
	if f.Previous == nil {
		return TrendNone
	}
	switch f.Value.Cmp(*f.Previous) {
	case 1:
		return TrendUp
	case -1:
		return TrendDown
	default:
		return TrendFlat
	}
}

// Change returns Value minus Previous, and false when there is no previous value.
func (f Figure) Change() (decimal.Decimal, bool) {
	if f.Previous == nil {
		return decimal.Zero, false
	}
	return f.Value.Sub(*f.Previous), true
}
