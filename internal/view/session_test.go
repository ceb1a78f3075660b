package view

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"floorwatch/core-go/internal/floorplan"
	"floorwatch/core-go/internal/floorstore"
	"floorwatch/core-go/internal/geometry"
	"floorwatch/core-go/internal/tooltip"
)

func fixtureFloors() []floorplan.Floor {
	return []floorplan.Floor{
		{
			FloorNumber: 1,
			Rooms: []floorplan.Room{{
				RoomNumber: "101",
				XPercent:   50,
				YPercent:   50,
				Jackets: []floorplan.Jacket{{
					ID:          "j1",
					Temperature: 38.5,
					HeartRate:   120,
					UserStatus:  floorplan.StatusCritical,
				}},
			}},
		},
		{
			FloorNumber: 2,
			Rooms: []floorplan.Room{{
				RoomNumber: "201",
				XPercent:   10,
				YPercent:   10,
				Jackets:    []floorplan.Jacket{{ID: "j2", UserStatus: floorplan.StatusWarning}},
			}},
		},
	}
}

func mountLoaded(t *testing.T) *Session {
	t.Helper()
	fetcher := floorstore.FetcherFunc(func(ctx context.Context, buildingID string) ([]floorplan.Floor, error) {
		return fixtureFloors(), nil
	})
	s := Mount(zerolog.Nop(), fetcher, Options{
		Container: geometry.Viewport{Width: 400, Height: 400},
		Window:    geometry.Viewport{Width: 1000, Height: 1000},
	})
	t.Cleanup(s.Unmount)
	if err := s.Load(context.Background(), "b1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestSession_EndToEndCriticalMarker(t *testing.T) {
	s := mountLoaded(t)

	markers := s.Markers()
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker on floor 1, got %d", len(markers))
	}
	m := markers[0]
	if m.Hotspot != (geometry.Point{X: 200, Y: 200}) {
		t.Fatalf("expected hotspot (200,200), got %+v", m.Hotspot)
	}
	if m.Style.Color != floorplan.ColorRed || !m.Style.Blinking {
		t.Fatalf("expected red blinking marker, got %+v", m.Style)
	}
	if o := m.Opacity(); o < 0 || o > 1 {
		t.Fatalf("expected opacity in [0,1], got %v", o)
	}
}

func TestSession_MarkersEmptyWithoutContainer(t *testing.T) {
	fetcher := floorstore.FetcherFunc(func(ctx context.Context, buildingID string) ([]floorplan.Floor, error) {
		return fixtureFloors(), nil
	})
	s := Mount(zerolog.Nop(), fetcher, Options{})
	defer s.Unmount()
	_ = s.Load(context.Background(), "b1")

	if got := s.Markers(); len(got) != 0 {
		t.Fatalf("expected no markers before the container is measured, got %d", len(got))
	}
	if err := s.SetViewports(geometry.Viewport{Width: 400, Height: 400}, geometry.Viewport{}); err != nil {
		t.Fatalf("set viewports: %v", err)
	}
	if got := s.Markers(); len(got) != 1 {
		t.Fatalf("expected markers once measured, got %d", len(got))
	}
}

func TestSession_SetViewportsRejectsDegenerate(t *testing.T) {
	s := mountLoaded(t)
	err := s.SetViewports(geometry.Viewport{Width: -1, Height: 10}, geometry.Viewport{})
	if !errors.Is(err, ErrInvalidViewport) {
		t.Fatalf("expected ErrInvalidViewport, got %v", err)
	}
	c, _ := s.Viewports()
	if c.Width != 400 {
		t.Fatalf("expected container unchanged, got %+v", c)
	}
}

func TestSession_TapPointHitsMarker(t *testing.T) {
	s := mountLoaded(t)

	st, hit, err := s.TapPoint(200, 200)
	if err != nil || !hit {
		t.Fatalf("expected a hit, got hit=%v err=%v", hit, err)
	}
	if !st.Visible || st.Jacket.ID != "j1" {
		t.Fatalf("expected tooltip for j1, got %+v", st)
	}
	if st.Anchor != (tooltip.Anchor{Left: 150, Top: 130}) {
		t.Fatalf("expected anchor (150,130), got %+v", st.Anchor)
	}

	st, hit, _ = s.TapPoint(5, 5)
	if hit || st.Visible {
		t.Fatalf("expected background tap to dismiss, got hit=%v %+v", hit, st)
	}
}

func TestSession_TapJacketAndFloorChangeDismisses(t *testing.T) {
	s := mountLoaded(t)

	st, err := s.TapJacket("j1", 300, 300)
	if err != nil {
		t.Fatalf("tap: %v", err)
	}
	if st.Anchor != (tooltip.Anchor{Left: 250, Top: 230}) {
		t.Fatalf("expected anchor (250,230), got %+v", st.Anchor)
	}

	if _, err := s.TapJacket("j2", 10, 10); !errors.Is(err, ErrJacketNotFound) {
		t.Fatalf("expected ErrJacketNotFound for a jacket on another floor, got %v", err)
	}

	if !s.SelectFloor(2) {
		t.Fatalf("expected floor 2 to be selectable")
	}
	if s.Tooltip().Visible {
		t.Fatalf("expected floor change to hide the tooltip")
	}
	markers := s.Markers()
	if len(markers) != 1 || markers[0].JacketID != "j2" {
		t.Fatalf("expected floor 2 markers, got %+v", markers)
	}
}

func TestSession_TooltipFollowsWindowResize(t *testing.T) {
	s := mountLoaded(t)
	if _, err := s.TapJacket("j1", 300, 300); err != nil {
		t.Fatalf("tap: %v", err)
	}
	if err := s.SetViewports(geometry.Viewport{}, geometry.Viewport{Width: 300, Height: 280}); err != nil {
		t.Fatalf("set viewports: %v", err)
	}
	if a := s.Tooltip().Anchor; a != (tooltip.Anchor{Left: 140, Top: 170}) {
		t.Fatalf("expected re-clamped anchor (140,170), got %+v", a)
	}
}

func TestSession_Summary(t *testing.T) {
	s := mountLoaded(t)
	sum := s.Summary()
	if sum.Floors != 2 || sum.ActiveJackets != 2 || sum.Critical != 1 || sum.Warning != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestSession_Unmount(t *testing.T) {
	s := mountLoaded(t)
	s.Unmount()
	s.Unmount()

	if err := s.Load(context.Background(), "b1"); !errors.Is(err, floorstore.ErrClosed) {
		t.Fatalf("expected ErrClosed after unmount, got %v", err)
	}
	if _, err := s.TapJacket("j1", 1, 1); !errors.Is(err, ErrUnmounted) {
		t.Fatalf("expected ErrUnmounted, got %v", err)
	}
	if v := s.BlinkValue(); v != 1 {
		t.Fatalf("expected stopped oscillator to rest at 1, got %v", v)
	}
	if !s.Snapshot().Unmounted {
		t.Fatalf("expected snapshot to report unmounted")
	}
}
