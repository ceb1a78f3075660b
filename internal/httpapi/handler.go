package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"floorwatch/core-go/internal/db"
	"floorwatch/core-go/internal/floorstore"
	"floorwatch/core-go/internal/metrics"
	"floorwatch/core-go/internal/refresher"
	"floorwatch/core-go/internal/view"
)

type Options struct {
	// View is the template every mounted session starts from; the mount
	// request supplies the viewports.
	View            view.Options
	MinPollInterval time.Duration
	MaxViews        int
	Metrics         *metrics.Metrics
}

type mountedView struct {
	id        uuid.UUID
	session   *view.Session
	pollEvery time.Duration
	stopPoll  context.CancelFunc
}

// Handler hosts floor-plan view sessions for a remote render layer.
type Handler struct {
	log     zerolog.Logger
	fetcher floorstore.Fetcher
	pool    *db.Pool
	opts    Options
	metrics *metrics.Metrics

	baseCtx context.Context
	cancel  context.CancelFunc

	mu    sync.Mutex
	views map[uuid.UUID]*mountedView
}

func NewHandler(log zerolog.Logger, fetcher floorstore.Fetcher, pool *db.Pool, opts Options) *Handler {
	if opts.MaxViews <= 0 {
		opts.MaxViews = 256
	}
	if opts.MinPollInterval <= 0 {
		opts.MinPollInterval = 2 * time.Second
	}
	if opts.View.Observer == nil && opts.Metrics != nil {
		opts.View.Observer = opts.Metrics
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		log:     log,
		fetcher: fetcher,
		pool:    pool,
		opts:    opts,
		metrics: opts.Metrics,
		baseCtx: ctx,
		cancel:  cancel,
		views:   make(map[uuid.UUID]*mountedView),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/views", func(r chi.Router) {
				r.Post("/", h.handleMountView)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.handleGetView)
					r.Delete("/", h.handleUnmountView)
					r.Post("/refresh", h.handleRefreshView)
					r.Put("/floor", h.handleSelectFloor)
					r.Put("/viewport", h.handleSetViewport)
					r.Get("/markers", h.handleMarkers)
					r.Get("/summary", h.handleSummary)
					r.Post("/taps", h.handleTap)
					r.Get("/tooltip", h.handleGetTooltip)
					r.Delete("/tooltip", h.handleDismissTooltip)
					r.Get("/blink", h.handleBlink)
				})
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		h.metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), time.Since(start))

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.fetcher == nil {
		h.writeError(w, http.StatusServiceUnavailable, "source_unavailable", "floor data source not configured", nil)
		return
	}

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not ready", map[string]any{"error": err.Error()})
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

// RefreshBuilding asks every view mounted on buildingID to refresh and
// returns how many were asked. Refreshes run in the background.
func (h *Handler) RefreshBuilding(buildingID string) int {
	h.mu.Lock()
	var targets []*mountedView
	for _, mv := range h.views {
		if mv.session.BuildingID() == buildingID {
			targets = append(targets, mv)
		}
	}
	h.mu.Unlock()

	for _, mv := range targets {
		h.refreshAsync(mv)
	}
	return len(targets)
}

// Close unmounts every view and stops background work.
func (h *Handler) Close() {
	h.cancel()

	h.mu.Lock()
	views := h.views
	h.views = make(map[uuid.UUID]*mountedView)
	h.mu.Unlock()

	for _, mv := range views {
		h.teardown(mv)
	}
}

func (h *Handler) lookup(id uuid.UUID) (*mountedView, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mv, ok := h.views[id]
	return mv, ok
}

func (h *Handler) viewFromRequest(w http.ResponseWriter, r *http.Request) (*mountedView, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "invalid view id", nil)
		return nil, false
	}
	mv, ok := h.lookup(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "not_found", "view not found", nil)
		return nil, false
	}
	return mv, true
}

// loadAsync binds the building before returning so a refresh sent right
// after mount finds it; only the fetch runs in the background.
func (h *Handler) loadAsync(mv *mountedView, buildingID string) {
	run, err := mv.session.BeginLoad(buildingID)
	if err != nil {
		h.log.Debug().Err(err).Str("view_id", mv.id.String()).Msg("initial load not started")
		return
	}
	go func() {
		if err := run(h.baseCtx); err != nil && !errors.Is(err, floorstore.ErrClosed) {
			h.log.Debug().Err(err).Str("view_id", mv.id.String()).Msg("initial load failed")
		}
	}()
}

func (h *Handler) refreshAsync(mv *mountedView) {
	go func() {
		if err := mv.session.Refresh(h.baseCtx); err != nil && !errors.Is(err, floorstore.ErrClosed) {
			h.log.Debug().Err(err).Str("view_id", mv.id.String()).Msg("refresh failed")
		}
	}()
}

func (h *Handler) startPolling(ctx context.Context, mv *mountedView) {
	w := refresher.New(h.log.With().Str("view_id", mv.id.String()).Logger(), mv.session, refresher.Options{Interval: mv.pollEvery}, h.metrics)
	go w.Run(ctx)
}

func (h *Handler) teardown(mv *mountedView) {
	if mv.stopPoll != nil {
		mv.stopPoll()
	}
	mv.session.Unmount()
	h.metrics.ViewUnmounted()
}
