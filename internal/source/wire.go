package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"floorwatch/core-go/internal/floorplan"
)

// The building API is loosely typed: ids and coordinates arrive as numbers
// or as strings depending on the backend that produced them.

type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = flexString(n.String())
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		v = strings.TrimSpace(v)
		if v == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse %q as number: %w", v, err)
		}
		*f = flexFloat(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// whole reports f as an int when it is a finite whole number that fits in
// 32 bits.
func (f flexFloat) whole() (int, bool) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

// finite drops NaN and infinities, which cannot be rendered or re-encoded.
func (f flexFloat) finite() float64 {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (f flexFloat) rounded() int {
	n, _ := flexFloat(math.Round(f.finite())).whole()
	return n
}

// status maps anything but a whole number to StatusUnknown so it renders
// with the default style.
func (f flexFloat) status() floorplan.Status {
	n, ok := f.whole()
	if !ok {
		return floorplan.StatusUnknown
	}
	return floorplan.Status(n)
}

type wireJacket struct {
	ID               flexString `json:"id"`
	Temperature      flexFloat  `json:"temperature"`
	HeartRate        flexFloat  `json:"heart_rate"`
	GasConcentration flexFloat  `json:"gas_concentration"`
	UserStatus       flexFloat  `json:"user_status"`
}

type wireRoom struct {
	RoomNumber  flexString   `json:"room_number"`
	XCoordinate flexFloat    `json:"x_coordinate"`
	YCoordinate flexFloat    `json:"y_coordinate"`
	Jackets     []wireJacket `json:"jackets"`
}

type wireFloor struct {
	FloorNumber flexFloat  `json:"floor_number"`
	URLImage    string     `json:"url_image"`
	Rooms       []wireRoom `json:"rooms"`
}

// decodeFloors converts the details payload. Floors whose number is not a
// whole number are skipped and logged.
func decodeFloors(log zerolog.Logger, body []byte) ([]floorplan.Floor, error) {
	var wire []wireFloor
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode floors: %w", err)
	}

	floors := make([]floorplan.Floor, 0, len(wire))
	for _, wf := range wire {
		number, ok := wf.FloorNumber.whole()
		if !ok {
			log.Warn().Float64("floor_number", float64(wf.FloorNumber)).Msg("skipping floor with non-integer number")
			continue
		}
		f := floorplan.Floor{
			FloorNumber: number,
			ImageRef:    wf.URLImage,
			Rooms:       make([]floorplan.Room, 0, len(wf.Rooms)),
		}
		for _, wr := range wf.Rooms {
			r := floorplan.Room{
				RoomNumber: string(wr.RoomNumber),
				XPercent:   wr.XCoordinate.finite(),
				YPercent:   wr.YCoordinate.finite(),
				Jackets:    make([]floorplan.Jacket, 0, len(wr.Jackets)),
			}
			for _, wj := range wr.Jackets {
				r.Jackets = append(r.Jackets, floorplan.Jacket{
					ID:               string(wj.ID),
					Temperature:      wj.Temperature.finite(),
					HeartRate:        wj.HeartRate.rounded(),
					GasConcentration: wj.GasConcentration.finite(),
					UserStatus:       wj.UserStatus.status(),
				})
			}
			f.Rooms = append(f.Rooms, r)
		}
		floors = append(floors, f)
	}
	return floors, nil
}
