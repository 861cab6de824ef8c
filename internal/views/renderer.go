package views

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/shopspring/decimal"

	"backoffice/internal/format"
)

var ErrUnknownView = errors.New("unknown view")

// StatCardsPartial is the template rendering one SectionCards grid.
const StatCardsPartial = "stat_cards"

// Renderer executes views parsed from templates/*.html in an fs.FS.
type Renderer struct {
	tmpl     *template.Template
	currency *format.CurrencyFormatter
}

func NewRenderer(fsys fs.FS, cf *format.CurrencyFormatter) (*Renderer, error) {
	if cf == nil {
		f, err := format.NewCurrencyFormatter("", "")
		if err != nil {
			return nil, err
		}
		cf = f
	}
	r := &Renderer{currency: cf}
	t, err := template.New("views").Funcs(r.funcs()).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.tmpl = t
	return r, nil
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"currency": func(amount any) string { return r.currency.Format(amount) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return format.FormatDate(t)
		},
		"count": func(n int64) string { return format.FormatCount(n, r.currency.Locale()) },
		"percent": func(v decimal.Decimal) string {
			return format.FormatPercent(v, r.currency.Locale())
		},
	}
}

// Currency returns the formatter used by the currency template func.
func (r *Renderer) Currency() *format.CurrencyFormatter { return r.currency }

// Has reports whether a template named v exists.
func (r *Renderer) Has(v View) bool {
	return r.tmpl.Lookup(string(v)) != nil
}

// Render executes view v. Output is buffered so a failing template never
// leaves a half-written page.
func (r *Renderer) Render(w io.Writer, v View, data any) error {
	return r.execute(w, string(v), data)
}

// RenderPartial executes a named fragment such as StatCardsPartial.
func (r *Renderer) RenderPartial(w io.Writer, name string, data any) error {
	return r.execute(w, name, data)
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	if r.tmpl.Lookup(name) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
