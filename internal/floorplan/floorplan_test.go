package floorplan

import "testing"

func TestStyleFor_KnownStatuses(t *testing.T) {
	cases := []struct {
		status Status
		want   Style
	}{
		{StatusNormal, Style{Color: "green"}},
		{StatusWarning, Style{Color: "yellow"}},
		{StatusCritical, Style{Color: "red", Blinking: true}},
	}
	for _, tc := range cases {
		if got := StyleFor(tc.status); got != tc.want {
			t.Fatalf("StyleFor(%d): expected %+v, got %+v", tc.status, tc.want, got)
		}
	}
}

func TestStyleFor_UnknownStatusIsInert(t *testing.T) {
	for _, s := range []Status{-1, 3, 7, 1 << 20} {
		got := StyleFor(s)
		if got != DefaultStyle {
			t.Fatalf("StyleFor(%d): expected default style, got %+v", s, got)
		}
		if got.Blinking {
			t.Fatalf("StyleFor(%d): default style must not blink", s)
		}
	}
}

func TestStatusString(t *testing.T) {
	if StatusCritical.String() != "Critical" || Status(9).String() != "Unknown" {
		t.Fatalf("unexpected labels: %q %q", StatusCritical.String(), Status(9).String())
	}
}

func TestSortFloors_OrdersAndDedupes(t *testing.T) {
	got := SortFloors([]Floor{
		{FloorNumber: 3, ImageRef: "a"},
		{FloorNumber: 1, ImageRef: "b"},
		{FloorNumber: 3, ImageRef: "dup"},
		{FloorNumber: 2, ImageRef: "c"},
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 floors, got %d", len(got))
	}
	for i, want := range []int{1, 2, 3} {
		if got[i].FloorNumber != want {
			t.Fatalf("expected floor %d at %d, got %d", want, i, got[i].FloorNumber)
		}
	}
	if got[2].ImageRef != "a" {
		t.Fatalf("expected first occurrence of floor 3 to win, got %q", got[2].ImageRef)
	}
}

func TestFindJacket(t *testing.T) {
	f := Floor{Rooms: []Room{
		{RoomNumber: "101"},
		{RoomNumber: "102", Jackets: []Jacket{{ID: "j1"}, {ID: "j2", HeartRate: 90}}},
	}}
	j, ok := FindJacket(f, "j2")
	if !ok || j.HeartRate != 90 {
		t.Fatalf("expected j2, got %+v ok=%v", j, ok)
	}
	if _, ok := FindJacket(f, "nope"); ok {
		t.Fatalf("expected miss")
	}
}

func TestSummarize(t *testing.T) {
	floors := []Floor{
		{FloorNumber: 1, Rooms: []Room{
			{RoomNumber: "101", Jackets: []Jacket{{ID: "a"}, {ID: "b", UserStatus: StatusCritical}}},
			{RoomNumber: "102"},
		}},
		{FloorNumber: 2, Rooms: []Room{
			{RoomNumber: "201", Jackets: []Jacket{{ID: "c", UserStatus: StatusWarning}}},
		}},
	}
	got := Summarize(floors)
	want := Summary{Floors: 2, ActiveRooms: 2, ActiveJackets: 3, Warning: 1, Critical: 1}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
