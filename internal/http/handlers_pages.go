package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"backoffice/internal/core"
	"backoffice/internal/log"
	"backoffice/internal/views"
)

// handlePage is the controller of a figure page: the dashboard summarizes
// every section, the other pages show their own.
func (s *Server) handlePage(p views.Page) http.HandlerFunc {
	sections := []core.Section{p.Section}
	if p.Section == core.SectionDashboard {
		sections = views.FigureSections()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
		defer cancel()

		data := views.NewPageData(p, s.renderer, s.now())
		data.Sections = s.loadSections(ctx, sections)
		s.render(w, r, p.View, data)
	}
}

// handleStatsPartial re-renders one section's card grid for htmx.
func (s *Server) handleStatsPartial(w http.ResponseWriter, r *http.Request) {
	section, err := core.ParseSection(chi.URLParam(r, "section"))
	if err != nil || !hasFigures(section) {
		NotFoundError("Bagian tidak ditemukan").Write(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	sc := s.loadSections(ctx, []core.Section{section})[0]
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderPartial(w, views.StatCardsPartial, sc); err != nil {
		s.renderFailed(w, r, views.StatCardsPartial, err)
	}
}

// loadSections reads sections concurrently. A failed section is marked
// unavailable instead of failing the page.
func (s *Server) loadSections(ctx context.Context, sections []core.Section) []views.SectionCards {
	out := make([]views.SectionCards, len(sections))
	var g errgroup.Group
	g.SetLimit(maxParallelLoad)
	for i, section := range sections {
		g.Go(func() error {
			figs, cached, err := s.figures.Load(ctx, section)
			s.recordLoad(cached, err)
			if err != nil {
				log.FromContext(ctx).WarnContext(ctx, "Figure load failed",
					log.FieldSection, section.String(),
					log.FieldError, err.Error())
				sc := views.NewSectionCards(section, nil, s.renderer.Currency())
				sc.Unavailable = true
				out[i] = sc
				return nil
			}
			s.events.LogSectionLoaded(ctx, section.String(), len(figs), cached)
			out[i] = views.NewSectionCards(section, figs, s.renderer.Currency())
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, v views.View, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, v, data); err != nil {
		s.renderFailed(w, r, v.String(), err)
	}
}

func (s *Server) renderFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	s.events.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
		log.NewFields().WithView(name))
	InternalServerError("Gagal menampilkan halaman").Write(w)
}

func hasFigures(section core.Section) bool {
	for _, s := range views.FigureSections() {
		if s == section {
			return true
		}
	}
	return false
}
