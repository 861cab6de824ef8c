package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseSection(t *testing.T) {
	cases := []struct {
		in   string
		want Section
		ok   bool
	}{
		{"budgeting", SectionBudgeting, true},
		{" Payroll ", SectionPayroll, true},
		{"financial_report", SectionFinancialReport, true},
		{"marketing", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseSection(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
		} else if !errors.Is(err, ErrUnknownSection) {
			t.Fatalf("%q expected ErrUnknownSection, got %v", tc.in, err)
		}
	}
}

func TestFigureValidate(t *testing.T) {
	good := Figure{
		Section: SectionBudgeting,
		Key:     "budget.allocated",
		Label:   "Anggaran",
		Kind:    KindCurrency,
		Value:   decimal.NewFromInt(1000),
		AsOf:    time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		mutate func(*Figure)
		err    error
	}{
		{func(f *Figure) { f.Section = "nope" }, ErrUnknownSection},
		{func(f *Figure) { f.Key = " " }, ErrEmptyKey},
		{func(f *Figure) { f.Label = "" }, ErrEmptyLabel},
		{func(f *Figure) { f.Kind = "ratio" }, ErrUnknownKind},
	}
	for i, tc := range bads {
		f := good
		tc.mutate(&f)
		if err := f.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestFigureTrend(t *testing.T) {
	prev := decimal.NewFromInt(100)
	cases := []struct {
		value    int64
		previous *decimal.Decimal
		want     Trend
	}{
		{120, &prev, TrendUp},
		{80, &prev, TrendDown},
		{100, &prev, TrendFlat},
		{100, nil, TrendNone},
	}
	for _, tc := range cases {
		f := Figure{Value: decimal.NewFromInt(tc.value), Previous: tc.previous}
		if got := f.Trend(); got != tc.want {
			t.Fatalf("value %d: expected %q, got %q", tc.value, tc.want, got)
		}
	}

	change, ok := Figure{Value: decimal.NewFromInt(80), Previous: &prev}.Change()
	if !ok || !change.Equal(decimal.NewFromInt(-20)) {
		t.Fatalf("unexpected change %s (ok=%v)", change, ok)
	}
	if _, ok := (Figure{Value: decimal.NewFromInt(1)}).Change(); ok {
		t.Fatalf("expected no change without previous value")
	}
}

func TestSortFiguresAndLatest(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	figs := []Figure{
		{Section: SectionPayroll, Key: "b", AsOf: d1},
		{Section: SectionBudgeting, Key: "z", AsOf: d2},
		{Section: SectionPayroll, Key: "a", AsOf: d1},
	}
	SortFigures(figs)
	if figs[0].Key != "z" || figs[1].Key != "a" || figs[2].Key != "b" {
		t.Fatalf("unexpected order: %+v", figs)
	}
	if got := (SectionFigures{Figures: figs}).LatestAsOf(); !got.Equal(d2) {
		t.Fatalf("latest as-of: got %v", got)
	}
}
