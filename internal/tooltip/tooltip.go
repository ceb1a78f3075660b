package tooltip

import (
	"fmt"
	"strconv"
	"sync"

	"floorwatch/core-go/internal/floorplan"
	"floorwatch/core-go/internal/geometry"
)

const (
	// Offsets place the tooltip above and to the left of the finger.
	AnchorOffsetX = 50
	AnchorOffsetY = 70

	DefaultWidth  = 160
	DefaultHeight = 110
)

// Anchor is the screen-space top-left of the tooltip.
type Anchor struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// State is what the render layer paints. Anchor is already clamped to the
// window viewport.
type State struct {
	Visible bool              `json:"visible"`
	Anchor  Anchor            `json:"anchor"`
	Jacket  *floorplan.Jacket `json:"jacket"`
}

type Options struct {
	Viewport geometry.Viewport
	Width    float64
	Height   float64
}

// Controller owns the single inspected-jacket tooltip.
type Controller struct {
	mu       sync.Mutex
	viewport geometry.Viewport
	width    float64
	height   float64

	visible bool
	raw     Anchor
	jacket  *floorplan.Jacket
}

func New(opts Options) *Controller {
	w := opts.Width
	if w <= 0 {
		w = DefaultWidth
	}
	h := opts.Height
	if h <= 0 {
		h = DefaultHeight
	}
	return &Controller{viewport: opts.Viewport, width: w, height: h}
}

// SetViewport updates the window bounds used for clamping, e.g. after a
// rotation. An open tooltip stays open and is re-clamped on the next read.
func (c *Controller) SetViewport(v geometry.Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = v
}

// Tap opens the tooltip for j at the raw tap point, replacing whatever was
// shown before.
func (c *Controller) Tap(j floorplan.Jacket, tapX, tapY float64) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	jc := j
	c.jacket = &jc
	c.raw = Anchor{Left: tapX - AnchorOffsetX, Top: tapY - AnchorOffsetY}
	c.visible = true
	return c.stateLocked()
}

// Dismiss hides the tooltip. Used for background taps and floor changes.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = false
	c.jacket = nil
	c.raw = Anchor{}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// RawAnchor is the unclamped anchor of the last tap.
func (c *Controller) RawAnchor() Anchor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw
}

func (c *Controller) stateLocked() State {
	if !c.visible || c.jacket == nil {
		return State{}
	}
	p := geometry.ClampRect(
		geometry.Point{X: c.raw.Left, Y: c.raw.Top},
		c.viewport.Width, c.viewport.Height,
		c.width, c.height,
	)
	jc := *c.jacket
	return State{
		Visible: true,
		Anchor:  Anchor{Left: p.X, Top: p.Y},
		Jacket:  &jc,
	}
}

// Lines renders the tooltip body for a jacket.
func Lines(j floorplan.Jacket) []string {
	return []string{
		fmt.Sprintf("Temp: %s°C", formatFloat(j.Temperature)),
		fmt.Sprintf("Heart Rate: %d bpm", j.HeartRate),
		fmt.Sprintf("Gas: %s %%", formatFloat(j.GasConcentration)),
		"Status: " + j.UserStatus.String(),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
