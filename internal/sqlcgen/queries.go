package sqlcgen

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX matches the minimal interface needed from pgxpool.Pool or pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const getBuilding = `-- name: GetBuilding :one
SELECT id::text,
       name,
       updated_at
FROM buildings
WHERE id = $1;
`

func (q *Queries) GetBuilding(ctx context.Context, id string) (Building, error) {
	row := q.db.QueryRow(ctx, getBuilding, id)
	var b Building
	err := row.Scan(&b.ID, &b.Name, &b.UpdatedAt)
	return b, err
}

const listFloorPlanRows = `-- name: ListFloorPlanRows :many
SELECT f.floor_number,
       f.image_ref,
       r.room_number,
       r.x_percent,
       r.y_percent,
       j.id,
       j.temperature,
       j.heart_rate,
       j.gas_concentration,
       j.user_status
FROM floors f
LEFT JOIN rooms r ON r.floor_id = f.id
LEFT JOIN jackets j ON j.room_id = r.id
WHERE f.building_id = $1
ORDER BY f.floor_number ASC, r.position ASC NULLS LAST, r.room_number ASC, j.position ASC NULLS LAST, j.id ASC;
`

func (q *Queries) ListFloorPlanRows(ctx context.Context, buildingID string) ([]FloorPlanRow, error) {
	rows, err := q.db.Query(ctx, listFloorPlanRows, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []FloorPlanRow
	for rows.Next() {
		var i FloorPlanRow
		if err := rows.Scan(
			&i.FloorNumber,
			&i.ImageRef,
			&i.RoomNumber,
			&i.XPercent,
			&i.YPercent,
			&i.JacketID,
			&i.Temperature,
			&i.HeartRate,
			&i.GasConcentration,
			&i.UserStatus,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
