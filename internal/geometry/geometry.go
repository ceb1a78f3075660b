package geometry

// Point is a screen-space position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Offset is a pixel delta applied to a room hotspot.
type Offset struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Viewport is a rendered extent supplied by the render layer.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// ClampPosition keeps a square icon of iconSize inside the container.
func ClampPosition(p Point, containerWidth, containerHeight, iconSize float64) Point {
	return ClampRect(p, containerWidth, containerHeight, iconSize, iconSize)
}

// ClampRect keeps an itemWidth x itemHeight box anchored at p inside the
// container. When the item is larger than the container the upper bound
// collapses to zero.
func ClampRect(p Point, containerWidth, containerHeight, itemWidth, itemHeight float64) Point {
	return Point{
		X: clamp(p.X, 0, containerWidth-itemWidth),
		Y: clamp(p.Y, 0, containerHeight-itemHeight),
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	// NaN fails every comparison; pin it to the lower bound.
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PercentToPixel maps a 0-100 percentage onto a pixel extent.
func PercentToPixel(percent, extent float64) float64 {
	return percent / 100 * extent
}

// RingSlots is the number of distinct collision offsets.
const RingSlots = 8

// CollisionOffset returns the offset for the index-th marker sharing a room
// hotspot. Slots repeat every RingSlots markers, so a ninth marker overlaps
// the first.
func CollisionOffset(index int, spread float64) Offset {
	ring := [RingSlots]Offset{
		{Top: -spread, Left: -spread},
		{Top: -spread, Left: spread},
		{Top: spread, Left: -spread},
		{Top: spread, Left: spread},
		{Top: 0, Left: -spread},
		{Top: 0, Left: spread},
		{Top: -spread, Left: 0},
		{Top: spread, Left: 0},
	}
	slot := index % RingSlots
	if slot < 0 {
		slot += RingSlots
	}
	return ring[slot]
}
