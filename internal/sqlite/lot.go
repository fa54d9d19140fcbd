package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/repository"
)

// LotRepository implements lot lookups for SQLite
type LotRepository struct {
	db *DB
}

// NewLotRepository creates a new LotRepository
func NewLotRepository(db *DB) *LotRepository {
	return &LotRepository{db: db}
}

const lotQuery = `
	SELECT lt.id, lt.name, lt.product_id, p.name, p.default_code, p.uom
	FROM lots lt
	JOIN products p ON p.id = lt.product_id
`

func scanLot(row *sql.Row) (*stock.Lot, error) {
	var lot stock.Lot
	err := row.Scan(
		&lot.ID,
		&lot.Name,
		&lot.ProductID,
		&lot.ProductName,
		&lot.ProductCode,
		&lot.UOM,
	)
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// GetByID retrieves a lot by ID
func (r *LotRepository) GetByID(ctx context.Context, id int64) (*stock.Lot, error) {
	lot, err := scanLot(r.db.QueryRowContext(ctx, lotQuery+` WHERE lt.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}

	return lot, nil
}

// GetByName retrieves a lot by its unique name
func (r *LotRepository) GetByName(ctx context.Context, name string) (*stock.Lot, error) {
	lot, err := scanLot(r.db.QueryRowContext(ctx, lotQuery+` WHERE lt.name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot by name: %w", err)
	}

	return lot, nil
}
