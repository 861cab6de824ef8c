package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"backoffice/internal/core"
	"backoffice/internal/format"
	ports "backoffice/internal/sheets"
)

var _ ports.FigureStore = (*Store)(nil)

type Store struct {
	mu   sync.RWMutex
	figs map[core.Section]map[string]core.Figure
}

// New builds a store holding figs. Invalid figures are skipped.
func New(figs []core.Figure) *Store {
	s := &Store{figs: make(map[core.Section]map[string]core.Figure)}
	for _, f := range figs {
		if f.Validate() != nil {
			continue
		}
		s.put(f)
	}
	return s
}

// seedFile is the YAML layout read by NewFromFile.
type seedFile struct {
	Figures []seedFigure `yaml:"figures"`
}

type seedFigure struct {
	Section  string `yaml:"section"`
	Key      string `yaml:"key"`
	Label    string `yaml:"label"`
	Kind     string `yaml:"kind"`
	Value    string `yaml:"value"`
	Previous string `yaml:"previous"`
	AsOf     string `yaml:"as_of"`
}

// NewFromFile seeds a store from a YAML file. A missing file yields the
// built-in demo figures; a malformed one is an error.
func NewFromFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(DefaultFigures(time.Now())), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	figs, err := parseSeed(raw)
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return New(figs), nil
}

func parseSeed(raw []byte) ([]core.Figure, error) {
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, err
	}
	out := make([]core.Figure, 0, len(seed.Figures))
	for i, sf := range seed.Figures {
		f, err := sf.figure()
		if err != nil {
			return nil, fmt.Errorf("figure %d (%s): %w", i, sf.Key, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func (sf seedFigure) figure() (core.Figure, error) {
	section, err := core.ParseSection(sf.Section)
	if err != nil {
		return core.Figure{}, err
	}
	kind, err := core.ParseKind(sf.Kind)
	if err != nil {
		return core.Figure{}, err
	}
	value, err := seedDecimal(sf.Value)
	if err != nil {
		return core.Figure{}, fmt.Errorf("value: %w", err)
	}
	f := core.Figure{
		Section: section,
		Key:     strings.TrimSpace(sf.Key),
		Label:   strings.TrimSpace(sf.Label),
		Kind:    kind,
		Value:   value,
	}
	if p := strings.TrimSpace(sf.Previous); p != "" {
		prev, err := seedDecimal(p)
		if err != nil {
			return core.Figure{}, fmt.Errorf("previous: %w", err)
		}
		f.Previous = &prev
	}
	if a := strings.TrimSpace(sf.AsOf); a != "" {
		asOf, err := time.Parse("2006-01-02", a)
		if err != nil {
			return core.Figure{}, fmt.Errorf("as_of: %w", err)
		}
		f.AsOf = asOf
	}
	return f, f.Validate()
}

func seedDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	d, ok := format.Bounded(d)
	if !ok {
		return decimal.Zero, fmt.Errorf("%q is out of range", s)
	}
	return d, nil
}

// ListFigures returns the section's figures ordered by key.
func (s *Store) ListFigures(_ context.Context, section core.Section) ([]core.Figure, error) {
	if !section.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSection, section)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.figs[section]
	out := make([]core.Figure, 0, len(bucket))
	for _, f := range bucket {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// UpsertFigures validates every figure before storing any of them.
func (s *Store) UpsertFigures(_ context.Context, figs []core.Figure) error {
	for _, f := range figs {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("figure %q: %w", f.Key, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range figs {
		s.put(f)
	}
	return nil
}

// ReplaceSections swaps the contents of whole sections under one lock.
func (s *Store) ReplaceSections(_ context.Context, sections []core.Section, figs []core.Figure) error {
	if err := ports.CheckReplaceBatch(sections, figs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sec := range sections {
		delete(s.figs, sec)
	}
	for _, f := range figs {
		s.put(f)
	}
	return nil
}

func (s *Store) put(f core.Figure) {
	bucket, ok := s.figs[f.Section]
	if !ok {
		bucket = make(map[string]core.Figure)
		s.figs[f.Section] = bucket
	}
	bucket[f.Key] = f
}

// DefaultFigures returns demo figures dated asOf, used when no seed file exists.
func DefaultFigures(asOf time.Time) []core.Figure {
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	fig := func(sec core.Section, key, label string, kind core.FigureKind, value, previous string) core.Figure {
		f := core.Figure{
			Section: sec,
			Key:     key,
			Label:   label,
			Kind:    kind,
			Value:   decimal.RequireFromString(value),
			AsOf:    day,
		}
		if previous != "" {
			p := decimal.RequireFromString(previous)
			f.Previous = &p
		}
		return f
	}
	return []core.Figure{
		fig(core.SectionBudgeting, "budget.allocated", "Total Anggaran", core.KindCurrency, "2500000000", "2400000000"),
		fig(core.SectionBudgeting, "budget.realized", "Realisasi Anggaran", core.KindCurrency, "1875000000", "1650000000"),
		fig(core.SectionBudgeting, "budget.absorption", "Penyerapan Anggaran", core.KindPercent, "75", "68.75"),
		fig(core.SectionFinancialReport, "report.revenue", "Pendapatan", core.KindCurrency, "3120000000", "2980000000"),
		fig(core.SectionFinancialReport, "report.expenses", "Beban Operasional", core.KindCurrency, "2210000000", "2250000000"),
		fig(core.SectionFinancialReport, "report.net_income", "Laba Bersih", core.KindCurrency, "910000000", "730000000"),
		fig(core.SectionPayroll, "payroll.gross", "Total Gaji Bruto", core.KindCurrency, "1364000000", "1351500000"),
		fig(core.SectionPayroll, "payroll.pending_batches", "Batch Menunggu Persetujuan", core.KindCount, "3", ""),
		fig(core.SectionPayroll, "payroll.employees", "Karyawan Dibayar", core.KindCount, "248", "245"),
		fig(core.SectionTurnover, "turnover.rate", "Tingkat Turnover", core.KindPercent, "4.2", "5.1"),
		fig(core.SectionTurnover, "turnover.leavers", "Karyawan Keluar", core.KindCount, "11", "13"),
		fig(core.SectionTurnover, "turnover.hires", "Karyawan Baru", core.KindCount, "15", "9"),
	}
}
