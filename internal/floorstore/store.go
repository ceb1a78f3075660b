package floorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"floorwatch/core-go/internal/floorplan"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

const DefaultInitialFloor = 1

var (
	ErrClosed     = errors.New("floor store closed")
	ErrNoBuilding = errors.New("no building loaded")
)

// Fetcher is the data collaborator that returns every floor of a building.
type Fetcher interface {
	FetchFloors(ctx context.Context, buildingID string) ([]floorplan.Floor, error)
}

type FetcherFunc func(ctx context.Context, buildingID string) ([]floorplan.Floor, error)

func (f FetcherFunc) FetchFloors(ctx context.Context, buildingID string) ([]floorplan.Floor, error) {
	return f(ctx, buildingID)
}

// TooltipResetter is closed whenever the selected floor changes.
type TooltipResetter interface {
	Dismiss()
}

// Observer receives fetch telemetry. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveFetch(outcome string, duration time.Duration)
}

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

type Options struct {
	InitialFloor int
	FetchTimeout time.Duration
	Tooltip      TooltipResetter
	Observer     Observer
}

// Store holds the fetched floors of one building plus the selection and
// loading flags the view renders from.
//
// Every Load takes a sequence number. A response older than the last one
// applied is dropped, so the most recently issued request always wins even
// when responses arrive out of order.
type Store struct {
	log          zerolog.Logger
	fetcher      Fetcher
	tooltip      TooltipResetter
	observer     Observer
	fetchTimeout time.Duration
	now          func() time.Time

	mu         sync.Mutex
	state      State
	buildingID string
	floors     []floorplan.Floor
	selected   int
	refreshing bool
	refreshSeq uint64
	lastErr    error
	issued     uint64
	applied    uint64
	loadedAt   time.Time
	closed     bool
}

func New(log zerolog.Logger, fetcher Fetcher, opts Options) *Store {
	initial := opts.InitialFloor
	if initial == 0 {
		initial = DefaultInitialFloor
	}
	return &Store{
		log:          log,
		fetcher:      fetcher,
		tooltip:      opts.Tooltip,
		observer:     opts.Observer,
		fetchTimeout: opts.FetchTimeout,
		now:          time.Now,
		state:        StateIdle,
		selected:     initial,
	}
}

// Load fetches the floors of buildingID. On failure the previous floors stay
// in place and the store moves to StateFailed; the fetch error is returned
// for the caller to log and is also available from Snapshot.
func (s *Store) Load(ctx context.Context, buildingID string) error {
	run, err := s.Begin(buildingID)
	if err != nil {
		return err
	}
	return run(ctx)
}

// Begin records buildingID as the current building and issues its load
// before returning. The returned func performs the fetch, so callers can run
// it on another goroutine while Refresh already sees the building.
func (s *Store) Begin(buildingID string) (func(context.Context) error, error) {
	seq, err := s.begin(buildingID, false)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		return s.fetch(ctx, seq, buildingID)
	}, nil
}

// Refresh re-issues Load for the current building with the refreshing flag
// set. The flag is cleared once the load completes, whatever the outcome.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	buildingID := s.buildingID
	s.mu.Unlock()
	if buildingID == "" {
		return ErrNoBuilding
	}

	seq, err := s.begin(buildingID, true)
	if err != nil {
		return err
	}
	return s.fetch(ctx, seq, buildingID)
}

func (s *Store) begin(buildingID string, refresh bool) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	s.issued++
	seq := s.issued
	s.buildingID = buildingID
	s.state = StateLoading
	if refresh {
		s.refreshing = true
		s.refreshSeq = seq
	}
	return seq, nil
}

func (s *Store) fetch(ctx context.Context, seq uint64, buildingID string) error {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	floors, err := s.fetcher.FetchFloors(ctx, buildingID)
	dur := time.Since(start)
	if err != nil {
		err = fmt.Errorf("fetch floors for building %s: %w", buildingID, err)
	}

	dismiss := s.complete(seq, buildingID, floors, err, dur)
	if dismiss && s.tooltip != nil {
		s.tooltip.Dismiss()
	}
	return err
}

// complete applies a finished fetch and reports whether the selection moved.
func (s *Store) complete(seq uint64, buildingID string, floors []floorplan.Floor, fetchErr error, dur time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.log.Debug().Uint64("seq", seq).Str("building_id", buildingID).Msg("floor fetch finished after close; discarded")
		return false
	}

	if s.refreshing && seq >= s.refreshSeq {
		s.refreshing = false
	}

	if seq <= s.applied {
		s.observe(OutcomeStale, dur)
		s.log.Debug().
			Uint64("seq", seq).
			Uint64("applied_seq", s.applied).
			Str("building_id", buildingID).
			Msg("stale floor fetch discarded")
		return false
	}
	s.applied = seq
	latest := seq == s.issued

	if fetchErr != nil {
		s.observe(OutcomeError, dur)
		s.lastErr = fetchErr
		if latest {
			s.state = StateFailed
		}
		s.log.Error().
			Err(fetchErr).
			Uint64("seq", seq).
			Str("building_id", buildingID).
			Int("kept_floors", len(s.floors)).
			Msg("floor fetch failed; keeping last known floors")
		return false
	}

	s.observe(OutcomeOK, dur)
	s.floors = floorplan.SortFloors(floors)
	s.lastErr = nil
	s.loadedAt = s.now()
	if latest {
		s.state = StateReady
	}

	moved := false
	if _, ok := floorplan.FindFloor(s.floors, s.selected); !ok && len(s.floors) > 0 {
		s.selected = s.floors[0].FloorNumber
		moved = true
	}

	s.log.Debug().
		Uint64("seq", seq).
		Str("building_id", buildingID).
		Int("floors", len(s.floors)).
		Int64("duration_ms", dur.Milliseconds()).
		Msg("floor fetch applied")
	return moved
}

func (s *Store) observe(outcome string, dur time.Duration) {
	if s.observer != nil {
		s.observer.ObserveFetch(outcome, dur)
	}
}

// SelectFloor switches the visible floor and closes any open tooltip. It
// reports false, and changes nothing, when the floor does not exist.
func (s *Store) SelectFloor(floorNumber int) bool {
	s.mu.Lock()
	if _, ok := floorplan.FindFloor(s.floors, floorNumber); !ok {
		s.mu.Unlock()
		return false
	}
	s.selected = floorNumber
	s.mu.Unlock()

	if s.tooltip != nil {
		s.tooltip.Dismiss()
	}
	return true
}

// SelectedFloor returns the floor currently on screen.
func (s *Store) SelectedFloor() (floorplan.Floor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return floorplan.FindFloor(s.floors, s.selected)
}

func (s *Store) Floors() []floorplan.Floor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]floorplan.Floor(nil), s.floors...)
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}

func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) BuildingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildingID
}

// Close tears the store down. Fetches still in flight complete into the void.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.refreshing = false
}

func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot is a consistent read of the store.
type Snapshot struct {
	State         State
	BuildingID    string
	Floors        []floorplan.Floor
	SelectedFloor int
	Refreshing    bool
	Err           error
	LoadedAt      time.Time
	IssuedSeq     uint64
	AppliedSeq    uint64
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:         s.state,
		BuildingID:    s.buildingID,
		Floors:        append([]floorplan.Floor(nil), s.floors...),
		SelectedFloor: s.selected,
		Refreshing:    s.refreshing,
		Err:           s.lastErr,
		LoadedAt:      s.loadedAt,
		IssuedSeq:     s.issued,
		AppliedSeq:    s.applied,
	}
}
