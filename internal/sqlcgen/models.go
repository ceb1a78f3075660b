package sqlcgen

import "time"

type Building struct {
	ID        string
	Name      *string
	UpdatedAt time.Time
}

// FloorPlanRow is one row of the floors/rooms/jackets left join. Room and
// jacket columns are nil for floors without rooms and rooms without jackets.
type FloorPlanRow struct {
	FloorNumber      int32
	ImageRef         *string
	RoomNumber       *string
	XPercent         *float64
	YPercent         *float64
	JacketID         *string
	Temperature      *float64
	HeartRate        *int32
	GasConcentration *float64
	UserStatus       *int32
}
