package geometry

import (
	"math"
	"testing"
)

func TestClampPosition_StaysInBounds(t *testing.T) {
	const w, h, icon = 400.0, 300.0, 30.0
	inputs := []Point{
		{X: -50, Y: -50},
		{X: 0, Y: 0},
		{X: 185, Y: 120},
		{X: 399, Y: 299},
		{X: 1e9, Y: -1e9},
		{X: math.Inf(1), Y: math.Inf(-1)},
		{X: math.NaN(), Y: 10},
	}
	for _, in := range inputs {
		got := ClampPosition(in, w, h, icon)
		if got.X < 0 || got.X > w-icon || got.Y < 0 || got.Y > h-icon {
			t.Fatalf("ClampPosition(%+v) = %+v, outside [0,%v]x[0,%v]", in, got, w-icon, h-icon)
		}
	}
}

func TestClampPosition_PassesThroughInRange(t *testing.T) {
	got := ClampPosition(Point{X: 185, Y: 120}, 400, 300, 30)
	if got != (Point{X: 185, Y: 120}) {
		t.Fatalf("expected unchanged point, got %+v", got)
	}
}

func TestClampPosition_ContainerSmallerThanIcon(t *testing.T) {
	got := ClampPosition(Point{X: 10, Y: 10}, 20, 20, 30)
	if got != (Point{}) {
		t.Fatalf("expected origin, got %+v", got)
	}
}

func TestClampRect_UsesItemSize(t *testing.T) {
	got := ClampRect(Point{X: 250, Y: 230}, 300, 800, 160, 110)
	if got.X != 140 || got.Y != 230 {
		t.Fatalf("expected (140,230), got %+v", got)
	}
}

func TestPercentToPixel(t *testing.T) {
	if got := PercentToPixel(50, 400); got != 200 {
		t.Fatalf("expected 200, got %v", got)
	}
	if got := PercentToPixel(25, 640); got != 160 {
		t.Fatalf("expected 160, got %v", got)
	}
	if got := PercentToPixel(150, 100); got != 150 {
		t.Fatalf("expected out-of-range percentages to pass through unclamped, got %v", got)
	}
}

func TestCollisionOffset_IsPureOverIndexMod8(t *testing.T) {
	for i := -16; i < 32; i++ {
		a := CollisionOffset(i, 15)
		b := CollisionOffset(i, 15)
		if a != b {
			t.Fatalf("index %d not deterministic: %+v vs %+v", i, a, b)
		}
		if c := CollisionOffset(i+RingSlots, 15); c != a {
			t.Fatalf("index %d and %d differ: %+v vs %+v", i, i+RingSlots, a, c)
		}
	}
}

func TestCollisionOffset_RingSlotsAreDistinct(t *testing.T) {
	seen := make(map[Offset]int)
	for i := 0; i < RingSlots; i++ {
		o := CollisionOffset(i, 15)
		if prev, ok := seen[o]; ok {
			t.Fatalf("slots %d and %d share offset %+v", prev, i, o)
		}
		seen[o] = i
		if math.Abs(o.Top) > 15 || math.Abs(o.Left) > 15 {
			t.Fatalf("slot %d exceeds spread: %+v", i, o)
		}
	}
	if first := CollisionOffset(0, 15); first != (Offset{Top: -15, Left: -15}) {
		t.Fatalf("expected first slot to be top-left, got %+v", first)
	}
}
