package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"backoffice/internal/cache"
	"backoffice/internal/core"
	"backoffice/internal/log"
	"backoffice/internal/middleware/ratelimit"
	"backoffice/internal/middleware/security"
	"backoffice/internal/middleware/trace"
	"backoffice/internal/views"
	appweb "backoffice/web"
)

const (
	// loadTimeout bounds figure reads for one page.
	loadTimeout     = 7 * time.Second
	readyTimeout    = 5 * time.Second
	staticMaxAge    = 3600
	maxParallelLoad = 4

	refreshPollInterval = "2s"

	// Completed refreshes are remembered long enough for slow pollers.
	completedRefreshes  = 256
	completedRefreshTTL = 15 * time.Minute
)

// FigureSource is the cached read path used by the controllers.
type FigureSource interface {
	Load(ctx context.Context, section core.Section) ([]core.Figure, bool, error)
	Invalidate(sections ...core.Section)
}

// Publisher asks the worker to resync sections.
type Publisher interface {
	PublishRefresh(ctx context.Context, sections ...core.Section) (uuid.UUID, error)
}

// Dependencies wires the server. Publisher and Probe may be nil.
type Dependencies struct {
	Figures   FigureSource
	Renderer  *views.Renderer
	Publisher Publisher
	Logger    *log.Logger

	// Probe reports whether the figure backend can serve reads.
	Probe func(ctx context.Context) error

	BackendName        string
	CacheTTL           time.Duration
	CORSAllowedOrigins []string

	// RefreshPerMinute caps POST /settings/refresh per client.
	RefreshPerMinute int
	Now              func() time.Time
}

type Server struct {
	http.Server

	figures   FigureSource
	renderer  *views.Renderer
	publisher Publisher
	probe     func(ctx context.Context) error
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time

	backendName string
	cacheTTL    time.Duration

	trace     *trace.Middleware
	detector  *security.Detector
	limiter   *ratelimit.Limiter
	completed *cache.LRUCache[syncResult]
	metrics   appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	started     time.Time
	cacheHits   int64
	cacheMisses int64
	loadErrors  int64
	refreshes   int64
	syncNotices int64
}

type syncResult struct {
	sections []core.Section
	figures  int
}

// NewServer builds the chi router and returns a server ready for
// ListenAndServe.
func NewServer(addr string, deps Dependencies) (*Server, error) {
	if deps.Figures == nil {
		return nil, errors.New("figure source is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	perMinute := deps.RefreshPerMinute
	if perMinute <= 0 {
		perMinute = 6
	}

	s := &Server{
		figures:     deps.Figures,
		renderer:    deps.Renderer,
		publisher:   deps.Publisher,
		probe:       deps.Probe,
		logger:      logger.WithComponent(log.ComponentHTTP),
		events:      log.NewStructuredLogger(logger),
		now:         now,
		backendName: deps.BackendName,
		cacheTTL:    deps.CacheTTL,
		detector:    security.NewDetector(),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{Requests: perMinute, Window: time.Minute}),
		completed:   cache.NewLRUCache[syncResult](completedRefreshes, completedRefreshTTL),
	}
	s.metrics.started = now()
	s.trace = trace.NewMiddleware(s.events, s.detector.ClientIP)

	r := chi.NewRouter()
	r.Use(s.trace.Handler)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(chimw.Recoverer)
	r.Use(s.detector.Middleware(logger))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	if len(deps.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"Accept", "Content-Type", "HX-Request", "HX-Target", "HX-Trigger", "HX-Current-URL"},
			ExposedHeaders:   []string{"HX-Trigger", trace.HeaderRequestID},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.Use(chimw.StripSlashes)

	for _, p := range views.Pages {
		if p.Section == core.SectionSettings {
			r.Get(p.Path, s.handleSettings(p))
			continue
		}
		r.Get(p.Path, s.handlePage(p))
	}
	r.With(s.limiter.Middleware(s.detector.ClientIP, s.rateLimited)).
		Post("/settings/refresh", s.handleRefresh)
	r.Get("/settings/refresh/{id}", s.handleRefreshStatus)
	r.Get("/ui/stats/{section}", s.handleStatsPartial)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	static := http.StripPrefix("/static/", http.FileServer(http.FS(appweb.Static())))
	r.With(security.StaticAssetMiddleware(staticMaxAge)).Handle("/static/*", static)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Halaman tidak ditemukan").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError("GET, POST").Write(w)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops background goroutines and drains the listener once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) recordLoad(cached bool, err error) {
	switch {
	case err != nil:
		atomic.AddInt64(&s.metrics.loadErrors, 1)
	case cached:
		atomic.AddInt64(&s.metrics.cacheHits, 1)
	default:
		atomic.AddInt64(&s.metrics.cacheMisses, 1)
	}
}
