package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/repository"
)

// LocationRepository implements location lookups for SQLite
type LocationRepository struct {
	db *DB
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db *DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Get retrieves a location by ID
func (r *LocationRepository) Get(ctx context.Context, id int64) (*stock.Location, error) {
	var loc stock.Location
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM locations WHERE id = ?`, id).Scan(&loc.ID, &loc.Name)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return &loc, nil
}
