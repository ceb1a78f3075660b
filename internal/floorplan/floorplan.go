// Package floorplan holds the per-floor building data the visualization
// renders: floors, rooms and the jacket readings placed in them.
package floorplan

import "sort"

// Status is the wearer status reported by a jacket.
type Status int

const (
	StatusNormal   Status = 0
	StatusWarning  Status = 1
	StatusCritical Status = 2

	// StatusUnknown stands in for a reading that carried no usable code.
	StatusUnknown Status = -1
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "Normal"
	case StatusWarning:
		return "Warning"
	case StatusCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Jacket is a single device reading. The engine never mutates one.
type Jacket struct {
	ID               string  `json:"id" yaml:"id"`
	Temperature      float64 `json:"temperature" yaml:"temperature"`
	HeartRate        int     `json:"heart_rate" yaml:"heart_rate"`
	GasConcentration float64 `json:"gas_concentration" yaml:"gas_concentration"`
	UserStatus       Status  `json:"user_status" yaml:"user_status"`
}

// Room is a hotspot on the floor image. XPercent/YPercent are relative to the
// rendered image and nominally within [0,100].
type Room struct {
	RoomNumber string   `json:"room_number" yaml:"room_number"`
	XPercent   float64  `json:"x_percent" yaml:"x_percent"`
	YPercent   float64  `json:"y_percent" yaml:"y_percent"`
	Jackets    []Jacket `json:"jackets" yaml:"jackets"`
}

// Floor is one level of the building. ImageRef is an opaque handle owned by
// the render layer.
type Floor struct {
	FloorNumber int    `json:"floor_number" yaml:"floor_number"`
	ImageRef    string `json:"image_ref" yaml:"image_ref"`
	Rooms       []Room `json:"rooms" yaml:"rooms"`
}

// SortFloors returns a copy of floors in display order (ascending floor
// number). Duplicate floor numbers keep their first occurrence.
func SortFloors(floors []Floor) []Floor {
	out := make([]Floor, 0, len(floors))
	seen := make(map[int]struct{}, len(floors))
	for _, f := range floors {
		if _, ok := seen[f.FloorNumber]; ok {
			continue
		}
		seen[f.FloorNumber] = struct{}{}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FloorNumber < out[j].FloorNumber
	})
	return out
}

// FindFloor returns the floor with the given number.
func FindFloor(floors []Floor, floorNumber int) (Floor, bool) {
	for _, f := range floors {
		if f.FloorNumber == floorNumber {
			return f, true
		}
	}
	return Floor{}, false
}

// FindJacket looks a jacket up by id on a single floor.
func FindJacket(floor Floor, jacketID string) (Jacket, bool) {
	for _, room := range floor.Rooms {
		for _, j := range room.Jackets {
			if j.ID == jacketID {
				return j, true
			}
		}
	}
	return Jacket{}, false
}

// Summary is the dashboard roll-up across every floor of a building.
type Summary struct {
	Floors        int `json:"floors"`
	ActiveRooms   int `json:"active_rooms"`
	ActiveJackets int `json:"active_jackets"`
	Warning       int `json:"warning"`
	Critical      int `json:"critical"`
}

// Summarize counts rooms that currently hold jackets, the jackets themselves
// and how many of them are in warning or critical state.
func Summarize(floors []Floor) Summary {
	s := Summary{Floors: len(floors)}
	for _, f := range floors {
		for _, room := range f.Rooms {
			if len(room.Jackets) == 0 {
				continue
			}
			s.ActiveRooms++
			for _, j := range room.Jackets {
				s.ActiveJackets++
				switch j.UserStatus {
				case StatusWarning:
					s.Warning++
				case StatusCritical:
					s.Critical++
				}
			}
		}
	}
	return s
}
