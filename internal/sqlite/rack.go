package sqlite

import (
	"context"
	"fmt"

	"github.com/castral/stocktake/internal/domain/stock"
)

// RackRepository implements rack lookups for SQLite
type RackRepository struct {
	db *DB
}

// NewRackRepository creates a new RackRepository
func NewRackRepository(db *DB) *RackRepository {
	return &RackRepository{db: db}
}

// ActiveAtLocation returns the active racks at a location, ordered by name
func (r *RackRepository) ActiveAtLocation(ctx context.Context, locationID int64) ([]stock.Rack, error) {
	query := `
		SELECT rk.id, rk.name, rk.location_id, l.name, rk.note
		FROM racks rk
		JOIN locations l ON l.id = rk.location_id
		WHERE rk.location_id = ? AND rk.active = 1
		ORDER BY rk.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list racks: %w", err)
	}
	defer rows.Close()

	var racks []stock.Rack
	for rows.Next() {
		var rack stock.Rack
		err := rows.Scan(&rack.ID, &rack.Name, &rack.LocationID, &rack.LocationName, &rack.Note)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rack: %w", err)
		}
		racks = append(racks, rack)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rack rows: %w", err)
	}

	return racks, nil
}
