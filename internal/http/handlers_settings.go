package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"backoffice/internal/amqp"
	"backoffice/internal/core"
	"backoffice/internal/log"
	"backoffice/internal/views"
)

// handleSettings shows the display and data settings in effect.
func (s *Server) handleSettings(p views.Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := views.NewPageData(p, s.renderer, s.now())
		data.Settings = s.settingRows()
		data.RefreshEnabled = true
		data.Preview = views.NewFormatPreview(s.now())
		s.render(w, r, p.View, data)
	}
}

func (s *Server) settingRows() []views.Setting {
	backendName := s.backendName
	if backendName == "" {
		backendName = "-"
	}
	queue := "Tidak dikonfigurasi"
	if s.publisher != nil {
		queue = "Aktif"
	}
	ttl := "Nonaktif"
	if s.cacheTTL > 0 {
		ttl = s.cacheTTL.String()
	}
	cf := s.renderer.Currency()
	return []views.Setting{
		{Label: "Mata uang", Value: cf.Currency()},
		{Label: "Lokal", Value: cf.Locale()},
		{Label: "Sumber data", Value: backendName},
		{Label: "Antrian pembaruan", Value: queue},
		{Label: "Masa simpan cache", Value: ttl},
	}
}

// handleRefresh asks for fresh figures. Without a queue the cache is dropped
// and the grids reload at once. With a queue the worker resyncs first; the
// cache is dropped when its completion message arrives (HandleSynced) and the
// response polls handleRefreshStatus until then. An optional "section" form
// value narrows the refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	atomic.AddInt64(&s.metrics.refreshes, 1)

	sections := views.FigureSections()
	if v := r.FormValue("section"); v != "" {
		section, err := core.ParseSection(v)
		if err != nil || !hasFigures(section) {
			ErrorResponse(http.StatusBadRequest, "Bagian tidak dikenal").Write(w)
			return
		}
		sections = []core.Section{section}
	}

	if s.publisher == nil {
		s.figures.Invalidate(sections...)
		NewHTMXResponse().
			TriggerFiguresRefreshed(sections).
			TriggerSuccessNotification("Angka dimuat ulang dari sumber data").
			Message("ok", "Cache dikosongkan").
			Write(w)
		return
	}

	id, err := s.publisher.PublishRefresh(ctx, sections...)
	if err != nil {
		s.events.LogError(ctx, "Refresh publish failed", err, log.ComponentAMQP, log.OpPublish, nil)
		NewHTMXResponse().
			Status(http.StatusServiceUnavailable).
			TriggerErrorNotification("Permintaan sinkronisasi gagal dikirim").
			Message("error", "Sinkronisasi tidak tersedia, coba lagi nanti").
			Write(w)
		return
	}
	logger.InfoContext(ctx, "Refresh requested",
		log.FieldMessageID, id.String(),
		log.FieldFigureCount, len(sections))
	NewHTMXResponse().
		Status(http.StatusAccepted).
		Header("X-Refresh-ID", id.String()).
		TriggerSuccessNotification("Permintaan sinkronisasi dikirim").
		BodyHTML(`<p class="ok">Sinkronisasi dijadwalkan</p>` + refreshPoller(id)).
		Write(w)
}

// handleRefreshStatus answers the poller left by handleRefresh. Once the
// worker reported completion it tells the grids to reload.
func (s *Server) handleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		ErrorResponse(http.StatusBadRequest, "Permintaan tidak dikenal").Write(w)
		return
	}
	done, ok := s.completed.Get(id.String())
	if !ok {
		NewHTMXResponse().BodyHTML(refreshPoller(id)).Write(w)
		return
	}
	NewHTMXResponse().
		TriggerFiguresRefreshed(done.sections).
		TriggerSuccessNotification("Angka diperbarui").
		Message("ok", fmt.Sprintf("Sinkronisasi selesai, %d angka dimuat", done.figures)).
		Write(w)
}

func refreshPoller(id uuid.UUID) string {
	return fmt.Sprintf(`<p class="pending" hx-get="/settings/refresh/%s" hx-trigger="every %s" hx-swap="outerHTML">Menunggu sinkronisasi</p>`,
		id, refreshPollInterval)
}

// HandleSynced consumes worker completion messages: the synced sections are
// dropped from the cache and a pending refresh is marked done.
func (s *Server) HandleSynced(ctx context.Context, msg *amqp.FigureSyncedMessage) error {
	s.figures.Invalidate(msg.Sections...)
	atomic.AddInt64(&s.metrics.syncNotices, 1)
	if msg.RefreshID != uuid.Nil {
		s.completed.Set(msg.RefreshID.String(), syncResult{sections: msg.Sections, figures: msg.Figures})
	}
	s.logger.InfoContext(ctx, "Figures synced by worker",
		log.FieldMessageID, msg.ID.String(),
		"refresh_id", msg.RefreshID.String(),
		log.FieldFigureCount, msg.Figures)
	return nil
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Refresh rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r))
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification("Terlalu banyak permintaan, coba lagi nanti").
		Message("error", "Terlalu banyak permintaan").
		Write(w)
}
