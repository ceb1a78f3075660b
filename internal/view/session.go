package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"floorwatch/core-go/internal/blink"
	"floorwatch/core-go/internal/floorplan"
	"floorwatch/core-go/internal/floorstore"
	"floorwatch/core-go/internal/geometry"
	"floorwatch/core-go/internal/layout"
	"floorwatch/core-go/internal/tooltip"
)

var (
	ErrUnmounted       = errors.New("view unmounted")
	ErrNoFloor         = errors.New("no floor selected")
	ErrJacketNotFound  = errors.New("jacket not on the selected floor")
	ErrInvalidViewport = errors.New("viewport must have positive width and height")
)

type Options struct {
	InitialFloor  int
	FetchTimeout  time.Duration
	Blink         blink.Options
	Layout        layout.Options
	TooltipWidth  float64
	TooltipHeight float64
	Container     geometry.Viewport
	Window        geometry.Viewport
	Observer      floorstore.Observer
}

// Session is the state of one mounted floor-plan view. It is created by
// Mount and torn down by Unmount; nothing outlives it.
type Session struct {
	log     zerolog.Logger
	store   *floorstore.Store
	tooltip *tooltip.Controller
	blink   *blink.Oscillator
	engine  *layout.Engine

	mu        sync.Mutex
	container geometry.Viewport
	window    geometry.Viewport
	mountedAt time.Time
	unmounted bool
}

// Mount wires a store, tooltip, running blink oscillator and layout engine
// for one view.
func Mount(log zerolog.Logger, fetcher floorstore.Fetcher, opts Options) *Session {
	tip := tooltip.New(tooltip.Options{
		Viewport: opts.Window,
		Width:    opts.TooltipWidth,
		Height:   opts.TooltipHeight,
	})
	osc := blink.New(log, opts.Blink)
	osc.Start()

	store := floorstore.New(log, fetcher, floorstore.Options{
		InitialFloor: opts.InitialFloor,
		FetchTimeout: opts.FetchTimeout,
		Tooltip:      tip,
		Observer:     opts.Observer,
	})

	return &Session{
		log:       log,
		store:     store,
		tooltip:   tip,
		blink:     osc,
		engine:    layout.New(osc, opts.Layout),
		container: opts.Container,
		window:    opts.Window,
		mountedAt: time.Now(),
	}
}

func (s *Session) Load(ctx context.Context, buildingID string) error {
	return s.store.Load(ctx, buildingID)
}

// BeginLoad binds the view to buildingID immediately and returns the fetch
// for the caller to run.
func (s *Session) BeginLoad(buildingID string) (func(context.Context) error, error) {
	return s.store.Begin(buildingID)
}

func (s *Session) Refresh(ctx context.Context) error {
	return s.store.Refresh(ctx)
}

// SelectFloor reports false for a floor the building does not have.
func (s *Session) SelectFloor(floorNumber int) bool {
	return s.store.SelectFloor(floorNumber)
}

func (s *Session) BuildingID() string {
	return s.store.BuildingID()
}

// SetViewports records new container and window extents, e.g. after a
// rotation. A zero extent leaves the current value in place.
func (s *Session) SetViewports(container, window geometry.Viewport) error {
	if (container != geometry.Viewport{}) && !container.Valid() {
		return ErrInvalidViewport
	}
	if (window != geometry.Viewport{}) && !window.Valid() {
		return ErrInvalidViewport
	}

	s.mu.Lock()
	if container.Valid() {
		s.container = container
	}
	if window.Valid() {
		s.window = window
	}
	w := s.window
	s.mu.Unlock()

	s.tooltip.SetViewport(w)
	return nil
}

func (s *Session) Viewports() (container, window geometry.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.container, s.window
}

// Markers lays out the selected floor in the current container. It returns
// nothing until both a floor and a container size are known.
func (s *Session) Markers() []layout.Marker {
	floor, ok := s.store.SelectedFloor()
	if !ok {
		return nil
	}
	s.mu.Lock()
	container := s.container
	s.mu.Unlock()
	if !container.Valid() {
		return nil
	}
	return s.engine.Layout(floor, container)
}

// TapJacket opens the tooltip for jacketID at the tap point.
func (s *Session) TapJacket(jacketID string, x, y float64) (tooltip.State, error) {
	if s.isUnmounted() {
		return tooltip.State{}, ErrUnmounted
	}
	floor, ok := s.store.SelectedFloor()
	if !ok {
		return tooltip.State{}, ErrNoFloor
	}
	j, ok := floorplan.FindJacket(floor, jacketID)
	if !ok {
		return tooltip.State{}, ErrJacketNotFound
	}
	return s.tooltip.Tap(j, x, y), nil
}

// TapPoint resolves a tap at (x, y) against the marker icons. The container
// is assumed to sit at the window origin, so the same point drives both the
// hit test and the tooltip anchor. A miss counts as a background tap.
func (s *Session) TapPoint(x, y float64) (tooltip.State, bool, error) {
	if s.isUnmounted() {
		return tooltip.State{}, false, ErrUnmounted
	}
	m, hit := layout.HitTest(s.Markers(), geometry.Point{X: x, Y: y}, s.engine.IconSize())
	if !hit {
		s.tooltip.Dismiss()
		return s.tooltip.State(), false, nil
	}
	return s.tooltip.Tap(m.Jacket, x, y), true, nil
}

func (s *Session) TapBackground() {
	s.tooltip.Dismiss()
}

func (s *Session) Tooltip() tooltip.State {
	return s.tooltip.State()
}

// BlinkValue is the shared opacity every blinking marker renders with.
func (s *Session) BlinkValue() float64 {
	return s.blink.Value()
}

func (s *Session) Summary() floorplan.Summary {
	return floorplan.Summarize(s.store.Floors())
}

type Snapshot struct {
	Store      floorstore.Snapshot
	Tooltip    tooltip.State
	Container  geometry.Viewport
	Window     geometry.Viewport
	BlinkValue float64
	MountedAt  time.Time
	Unmounted  bool
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	container, window := s.container, s.window
	mountedAt, unmounted := s.mountedAt, s.unmounted
	s.mu.Unlock()

	return Snapshot{
		Store:      s.store.Snapshot(),
		Tooltip:    s.tooltip.State(),
		Container:  container,
		Window:     window,
		BlinkValue: s.blink.Value(),
		MountedAt:  mountedAt,
		Unmounted:  unmounted,
	}
}

// Unmount stops the blink loop and closes the store. A fetch still in flight
// is not cancelled; its result is dropped when it lands.
func (s *Session) Unmount() {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return
	}
	s.unmounted = true
	s.mu.Unlock()

	s.blink.Stop()
	s.store.Close()
	s.tooltip.Dismiss()
	s.log.Debug().Str("building_id", s.store.BuildingID()).Msg("view unmounted")
}

func (s *Session) isUnmounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unmounted
}
