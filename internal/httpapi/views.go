package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"floorwatch/core-go/internal/floorplan"
	"floorwatch/core-go/internal/geometry"
	"floorwatch/core-go/internal/layout"
	"floorwatch/core-go/internal/tooltip"
	"floorwatch/core-go/internal/view"
)

type mountRequest struct {
	BuildingID     string             `json:"building_id"`
	Container      *geometry.Viewport `json:"container,omitempty"`
	Window         *geometry.Viewport `json:"window,omitempty"`
	PollIntervalMS int64              `json:"poll_interval_ms,omitempty"`
	// Wait makes the mount block until the first load finishes.
	Wait bool `json:"wait,omitempty"`
}

type floorRequest struct {
	FloorNumber *int `json:"floor_number"`
}

type viewportRequest struct {
	Container *geometry.Viewport `json:"container,omitempty"`
	Window    *geometry.Viewport `json:"window,omitempty"`
}

type tapRequest struct {
	JacketID *string `json:"jacket_id,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type floorRef struct {
	FloorNumber int    `json:"floor_number"`
	ImageRef    string `json:"image_ref"`
}

type viewResponse struct {
	ID             string            `json:"id"`
	BuildingID     string            `json:"building_id"`
	State          string            `json:"state"`
	Refreshing     bool              `json:"refreshing"`
	Error          *string           `json:"error,omitempty"`
	LoadedAt       *time.Time        `json:"loaded_at,omitempty"`
	Floors         []floorRef        `json:"floors"`
	SelectedFloor  int               `json:"selected_floor"`
	Floor          *floorplan.Floor  `json:"floor,omitempty"`
	Container      geometry.Viewport `json:"container"`
	Window         geometry.Viewport `json:"window"`
	PollIntervalMS int64             `json:"poll_interval_ms,omitempty"`
	Tooltip        tooltipResponse   `json:"tooltip"`
	MountedAt      time.Time         `json:"mounted_at"`
}

type tooltipResponse struct {
	Visible bool              `json:"visible"`
	Anchor  tooltip.Anchor    `json:"anchor"`
	Jacket  *floorplan.Jacket `json:"jacket,omitempty"`
	Lines   []string          `json:"lines,omitempty"`
}

type markerResponse struct {
	JacketID   string           `json:"jacket_id"`
	RoomNumber string           `json:"room_number"`
	Hotspot    geometry.Point   `json:"hotspot"`
	Offset     geometry.Offset  `json:"offset"`
	Position   geometry.Point   `json:"position"`
	Color      string           `json:"color"`
	Blinking   bool             `json:"blinking"`
	Opacity    float64          `json:"opacity"`
	Jacket     floorplan.Jacket `json:"jacket"`
}

type markersResponse struct {
	FloorNumber *int              `json:"floor_number,omitempty"`
	Container   geometry.Viewport `json:"container"`
	IconSize    float64           `json:"icon_size"`
	Markers     []markerResponse  `json:"markers"`
}

type tapResponse struct {
	Hit     bool            `json:"hit"`
	Tooltip tooltipResponse `json:"tooltip"`
}

func toTooltip(st tooltip.State) tooltipResponse {
	out := tooltipResponse{Visible: st.Visible, Anchor: st.Anchor, Jacket: st.Jacket}
	if st.Jacket != nil {
		out.Lines = tooltip.Lines(*st.Jacket)
	}
	return out
}

func toMarker(m layout.Marker) markerResponse {
	return markerResponse{
		JacketID:   m.JacketID,
		RoomNumber: m.RoomNumber,
		Hotspot:    m.Hotspot,
		Offset:     m.Offset,
		Position:   m.Position,
		Color:      m.Style.Color,
		Blinking:   m.Style.Blinking,
		Opacity:    m.Opacity(),
		Jacket:     m.Jacket,
	}
}

func (h *Handler) toView(mv *mountedView) viewResponse {
	snap := mv.session.Snapshot()
	st := snap.Store

	out := viewResponse{
		ID:            mv.id.String(),
		BuildingID:    st.BuildingID,
		State:         string(st.State),
		Refreshing:    st.Refreshing,
		Floors:        make([]floorRef, 0, len(st.Floors)),
		SelectedFloor: st.SelectedFloor,
		Container:     snap.Container,
		Window:        snap.Window,
		Tooltip:       toTooltip(snap.Tooltip),
		MountedAt:     snap.MountedAt.UTC(),
	}
	if mv.pollEvery > 0 {
		out.PollIntervalMS = mv.pollEvery.Milliseconds()
	}
	if st.Err != nil {
		msg := st.Err.Error()
		out.Error = &msg
	}
	if !st.LoadedAt.IsZero() {
		t := st.LoadedAt.UTC()
		out.LoadedAt = &t
	}
	for _, f := range st.Floors {
		out.Floors = append(out.Floors, floorRef{FloorNumber: f.FloorNumber, ImageRef: f.ImageRef})
	}
	if f, ok := floorplan.FindFloor(st.Floors, st.SelectedFloor); ok {
		out.Floor = &f
	}
	return out
}

func validViewport(v *geometry.Viewport) bool {
	return v == nil || v.Valid()
}

func (h *Handler) handleMountView(w http.ResponseWriter, r *http.Request) {
	if h.fetcher == nil {
		h.writeError(w, http.StatusServiceUnavailable, "source_unavailable", "floor data source not configured", nil)
		return
	}

	var req mountRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}
	req.BuildingID = strings.TrimSpace(req.BuildingID)
	if req.BuildingID == "" {
		h.writeError(w, http.StatusBadRequest, "validation_error", "building_id is required", nil)
		return
	}
	if !validViewport(req.Container) || !validViewport(req.Window) {
		h.writeError(w, http.StatusBadRequest, "validation_error", "viewports must have positive width and height", nil)
		return
	}
	if req.PollIntervalMS < 0 {
		h.writeError(w, http.StatusBadRequest, "validation_error", "poll_interval_ms must not be negative", nil)
		return
	}

	opts := h.opts.View
	if req.Container != nil {
		opts.Container = *req.Container
	}
	if req.Window != nil {
		opts.Window = *req.Window
	}

	mv := &mountedView{id: uuid.New()}
	if req.PollIntervalMS > 0 {
		mv.pollEvery = time.Duration(req.PollIntervalMS) * time.Millisecond
		if mv.pollEvery < h.opts.MinPollInterval {
			mv.pollEvery = h.opts.MinPollInterval
		}
	}

	h.mu.Lock()
	if len(h.views) >= h.opts.MaxViews {
		h.mu.Unlock()
		h.writeError(w, http.StatusTooManyRequests, "view_limit", "too many mounted views", map[string]any{"max_views": h.opts.MaxViews})
		return
	}
	mv.session = view.Mount(h.log.With().Str("view_id", mv.id.String()).Logger(), h.fetcher, opts)
	var pollCtx context.Context
	if mv.pollEvery > 0 {
		pollCtx, mv.stopPoll = context.WithCancel(h.baseCtx)
	}
	h.views[mv.id] = mv
	h.mu.Unlock()
	h.metrics.ViewMounted()

	if req.Wait {
		// Failures are reported through the view state.
		_ = mv.session.Load(r.Context(), req.BuildingID)
	} else {
		h.loadAsync(mv, req.BuildingID)
	}
	if pollCtx != nil {
		h.startPolling(pollCtx, mv)
	}

	h.writeJSON(w, http.StatusCreated, h.toView(mv))
}

func (h *Handler) handleGetView(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.toView(mv))
}

func (h *Handler) handleUnmountView(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	h.mu.Lock()
	delete(h.views, mv.id)
	h.mu.Unlock()

	h.teardown(mv)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRefreshView(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	h.metrics.IncRefreshTrigger("api")
	h.refreshAsync(mv)
	h.writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

func (h *Handler) handleSelectFloor(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	var req floorRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}
	if req.FloorNumber == nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "floor_number is required", nil)
		return
	}
	if !mv.session.SelectFloor(*req.FloorNumber) {
		h.writeError(w, http.StatusNotFound, "floor_not_found", "floor not found", map[string]any{"floor_number": *req.FloorNumber})
		return
	}
	h.writeJSON(w, http.StatusOK, h.toView(mv))
}

func (h *Handler) handleSetViewport(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	var req viewportRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}
	if req.Container == nil && req.Window == nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "container or window is required", nil)
		return
	}
	if !validViewport(req.Container) || !validViewport(req.Window) {
		h.writeError(w, http.StatusBadRequest, "validation_error", "viewports must have positive width and height", nil)
		return
	}

	var container, window geometry.Viewport
	if req.Container != nil {
		container = *req.Container
	}
	if req.Window != nil {
		window = *req.Window
	}
	if err := mv.session.SetViewports(container, window); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	h.writeJSON(w, http.StatusOK, h.toView(mv))
}

func (h *Handler) handleMarkers(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	markers := mv.session.Markers()
	container, _ := mv.session.Viewports()

	resp := markersResponse{
		Container: container,
		IconSize:  h.iconSize(),
		Markers:   make([]markerResponse, 0, len(markers)),
	}
	snap := mv.session.Snapshot()
	if _, ok := floorplan.FindFloor(snap.Store.Floors, snap.Store.SelectedFloor); ok {
		n := snap.Store.SelectedFloor
		resp.FloorNumber = &n
	}
	for _, m := range markers {
		resp.Markers = append(resp.Markers, toMarker(m))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) iconSize() float64 {
	if h.opts.View.Layout.IconSize > 0 {
		return h.opts.View.Layout.IconSize
	}
	return layout.DefaultIconSize
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, mv.session.Summary())
}

func (h *Handler) handleTap(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	var req tapRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}

	if req.JacketID != nil {
		st, err := mv.session.TapJacket(strings.TrimSpace(*req.JacketID), req.X, req.Y)
		switch {
		case errors.Is(err, view.ErrJacketNotFound):
			h.writeError(w, http.StatusNotFound, "jacket_not_found", "jacket not on the selected floor", map[string]any{"jacket_id": *req.JacketID})
			return
		case errors.Is(err, view.ErrNoFloor):
			h.writeError(w, http.StatusConflict, "no_floor", "no floor loaded", nil)
			return
		case err != nil:
			h.writeError(w, http.StatusConflict, "view_unmounted", err.Error(), nil)
			return
		}
		h.writeJSON(w, http.StatusOK, tapResponse{Hit: true, Tooltip: toTooltip(st)})
		return
	}

	st, hit, err := mv.session.TapPoint(req.X, req.Y)
	if err != nil {
		h.writeError(w, http.StatusConflict, "view_unmounted", err.Error(), nil)
		return
	}
	h.writeJSON(w, http.StatusOK, tapResponse{Hit: hit, Tooltip: toTooltip(st)})
}

func (h *Handler) handleGetTooltip(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toTooltip(mv.session.Tooltip()))
}

func (h *Handler) handleDismissTooltip(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	mv.session.TapBackground()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBlink(w http.ResponseWriter, r *http.Request) {
	mv, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"value": mv.session.BlinkValue()})
}
