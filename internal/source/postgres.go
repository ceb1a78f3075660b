package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"floorwatch/core-go/internal/floorplan"
	"floorwatch/core-go/internal/sqlcgen"
)

// FloorPlanQueries is the subset of sqlcgen.Queries the Postgres fetcher uses.
type FloorPlanQueries interface {
	GetBuilding(ctx context.Context, id string) (sqlcgen.Building, error)
	ListFloorPlanRows(ctx context.Context, buildingID string) ([]sqlcgen.FloorPlanRow, error)
}

// PostgresFetcher reads floors from the floors/rooms/jackets tables.
type PostgresFetcher struct {
	queries FloorPlanQueries
}

func NewPostgresFetcher(q FloorPlanQueries) *PostgresFetcher {
	return &PostgresFetcher{queries: q}
}

func (f *PostgresFetcher) FetchFloors(ctx context.Context, buildingID string) ([]floorplan.Floor, error) {
	rows, err := f.queries.ListFloorPlanRows(ctx, buildingID)
	if err != nil {
		return nil, fmt.Errorf("list floor plan rows: %w", err)
	}
	if len(rows) == 0 {
		if _, err := f.queries.GetBuilding(ctx, buildingID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrBuildingNotFound
			}
			return nil, fmt.Errorf("get building: %w", err)
		}
		return []floorplan.Floor{}, nil
	}
	return groupRows(rows), nil
}

// groupRows folds the join back into floors. Rows arrive ordered by floor,
// then room, then jacket.
func groupRows(rows []sqlcgen.FloorPlanRow) []floorplan.Floor {
	var floors []floorplan.Floor
	for _, row := range rows {
		n := int(row.FloorNumber)
		if len(floors) == 0 || floors[len(floors)-1].FloorNumber != n {
			floors = append(floors, floorplan.Floor{
				FloorNumber: n,
				ImageRef:    deref(row.ImageRef),
				Rooms:       []floorplan.Room{},
			})
		}
		floor := &floors[len(floors)-1]

		if row.RoomNumber == nil {
			continue
		}
		if len(floor.Rooms) == 0 || floor.Rooms[len(floor.Rooms)-1].RoomNumber != *row.RoomNumber {
			floor.Rooms = append(floor.Rooms, floorplan.Room{
				RoomNumber: *row.RoomNumber,
				XPercent:   deref(row.XPercent),
				YPercent:   deref(row.YPercent),
				Jackets:    []floorplan.Jacket{},
			})
		}
		room := &floor.Rooms[len(floor.Rooms)-1]

		if row.JacketID == nil {
			continue
		}
		room.Jackets = append(room.Jackets, floorplan.Jacket{
			ID:               *row.JacketID,
			Temperature:      deref(row.Temperature),
			HeartRate:        int(deref(row.HeartRate)),
			GasConcentration: deref(row.GasConcentration),
			UserStatus:       floorplan.Status(deref(row.UserStatus)),
		})
	}
	return floors
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
