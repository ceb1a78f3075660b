package layout

import (
	"floorwatch/core-go/internal/floorplan"
	"floorwatch/core-go/internal/geometry"
)

const (
	DefaultSpread   = 15
	DefaultIconSize = 30
)

// OpacitySource supplies a marker's current opacity. The blink oscillator is
// one; non-blinking markers use a constant.
type OpacitySource interface {
	Opacity() float64
}

type constantOpacity float64

func (c constantOpacity) Opacity() float64 { return float64(c) }

// Marker is one positioned, styled jacket on the current floor view.
type Marker struct {
	JacketID   string
	RoomNumber string
	Jacket     floorplan.Jacket
	// Hotspot is the room anchor in container pixels.
	Hotspot geometry.Point
	// Offset is the collision-ring delta relative to Hotspot.
	Offset geometry.Offset
	// Position is the clamped top-left of the icon.
	Position geometry.Point
	Style    floorplan.Style

	opacity OpacitySource
}

// Opacity samples the marker's opacity source.
func (m Marker) Opacity() float64 {
	if m.opacity == nil {
		return 1
	}
	return m.opacity.Opacity()
}

type Options struct {
	Spread   float64
	IconSize float64
}

type Engine struct {
	spread   float64
	iconSize float64
	blink    OpacitySource
}

// New returns an engine whose blinking markers read opacity from blink. A nil
// blink source leaves critical markers fully opaque.
func New(blink OpacitySource, opts Options) *Engine {
	spread := opts.Spread
	if spread <= 0 {
		spread = DefaultSpread
	}
	icon := opts.IconSize
	if icon <= 0 {
		icon = DefaultIconSize
	}
	return &Engine{spread: spread, iconSize: icon, blink: blink}
}

func (e *Engine) Spread() float64   { return e.spread }
func (e *Engine) IconSize() float64 { return e.iconSize }

// Layout places every jacket on the floor inside the container. Output is in
// room order then jacket order; the same floor and container always give the
// same positions.
func (e *Engine) Layout(floor floorplan.Floor, container geometry.Viewport) []Marker {
	out := make([]Marker, 0)
	for _, room := range floor.Rooms {
		if len(room.Jackets) == 0 {
			continue
		}

		hotspot := geometry.Point{
			X: geometry.PercentToPixel(room.XPercent, container.Width),
			Y: geometry.PercentToPixel(room.YPercent, container.Height),
		}

		for i, j := range room.Jackets {
			off := geometry.CollisionOffset(i, e.spread)
			pos := geometry.ClampPosition(geometry.Point{
				X: hotspot.X + off.Left,
				Y: hotspot.Y + off.Top,
			}, container.Width, container.Height, e.iconSize)

			style := floorplan.StyleFor(j.UserStatus)
			var src OpacitySource = constantOpacity(1)
			if style.Blinking && e.blink != nil {
				src = e.blink
			}

			out = append(out, Marker{
				JacketID:   j.ID,
				RoomNumber: room.RoomNumber,
				Jacket:     j,
				Hotspot:    hotspot,
				Offset:     off,
				Position:   pos,
				Style:      style,
				opacity:    src,
			})
		}
	}
	return out
}

// HitTest returns the marker whose icon contains p. Later markers are drawn
// on top, so the search runs back to front.
func HitTest(markers []Marker, p geometry.Point, iconSize float64) (Marker, bool) {
	for i := len(markers) - 1; i >= 0; i-- {
		m := markers[i]
		if p.X >= m.Position.X && p.X <= m.Position.X+iconSize &&
			p.Y >= m.Position.Y && p.Y <= m.Position.Y+iconSize {
			return m, true
		}
	}
	return Marker{}, false
}
