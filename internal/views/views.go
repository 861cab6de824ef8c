// Package views maps back-office routes to view identifiers and renders
// them from embedded templates.
package views

import (
	"strings"

	"backoffice/internal/core"
)

// View identifies a page template. Controllers return one; the renderer
// selects the template defined under the same name.
type View string

const (
	ViewDashboard       View = "dashboard/index"
	ViewBudgeting       View = "budgeting/index"
	ViewFinancialReport View = "reports/financial"
	ViewPayrollApproval View = "payroll/approval"
	ViewSettings        View = "settings/index"
	ViewTurnover        View = "hr/turnover"
)

func (v View) String() string { return string(v) }

// Page ties a route to its view, title and figure section.
type Page struct {
	Path    string
	View    View
	Title   string
	Section core.Section
}

// Pages lists every page in navigation order.
var Pages = []Page{
	{Path: "/", View: ViewDashboard, Title: "Dasbor", Section: core.SectionDashboard},
	{Path: "/budgeting", View: ViewBudgeting, Title: "Anggaran", Section: core.SectionBudgeting},
	{Path: "/reports/financial", View: ViewFinancialReport, Title: "Laporan Keuangan", Section: core.SectionFinancialReport},
	{Path: "/payroll/approval", View: ViewPayrollApproval, Title: "Persetujuan Penggajian", Section: core.SectionPayroll},
	{Path: "/hr/turnover", View: ViewTurnover, Title: "Turnover Karyawan", Section: core.SectionTurnover},
	{Path: "/settings", View: ViewSettings, Title: "Pengaturan", Section: core.SectionSettings},
}

// Lookup resolves a request path; a trailing slash is ignored.
func Lookup(path string) (Page, bool) {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	for _, p := range Pages {
		if p.Path == path {
			return p, true
		}
	}
	return Page{}, false
}

// PageFor returns the page showing section.
func PageFor(section core.Section) (Page, bool) {
	for _, p := range Pages {
		if p.Section == section {
			return p, true
		}
	}
	return Page{}, false
}

// FigureSections are the sections whose figures the dashboard summarizes.
func FigureSections() []core.Section {
	var out []core.Section
	for _, p := range Pages {
		if p.Section == core.SectionDashboard || p.Section == core.SectionSettings {
			continue
		}
		out = append(out, p.Section)
	}
	return out
}
