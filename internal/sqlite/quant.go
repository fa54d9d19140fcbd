package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/castral/stocktake/internal/domain/stock"
)

// QuantRepository reads the stock ledger for SQLite. Quantities are stored as
// TEXT and summed in Go with exact decimal arithmetic; missing rows report
// zero.
type QuantRepository struct {
	db *DB
}

// NewQuantRepository creates a new QuantRepository
func NewQuantRepository(db *DB) *QuantRepository {
	return &QuantRepository{db: db}
}

func (r *QuantRepository) sumQuantities(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query quants: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var qty decimal.Decimal
		if err := rows.Scan(&qty); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan quant: %w", err)
		}
		total = total.Add(qty)
	}

	if err = rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating quant rows: %w", err)
	}

	return total, nil
}

// LotQuantity returns the ledger quantity of a lot at a location
func (r *QuantRepository) LotQuantity(ctx context.Context, productID, lotID, locationID int64) (decimal.Decimal, error) {
	return r.sumQuantities(ctx, `
		SELECT quantity FROM stock_quants
		WHERE product_id = ? AND lot_id = ? AND location_id = ?
	`, productID, lotID, locationID)
}

// ProductQuantity returns the total ledger quantity of a product at a location
func (r *QuantRepository) ProductQuantity(ctx context.Context, productID, locationID int64) (decimal.Decimal, error) {
	return r.sumQuantities(ctx, `
		SELECT quantity FROM stock_quants
		WHERE product_id = ? AND location_id = ?
	`, productID, locationID)
}

// ProductLots returns the per-lot ledger quantities of a product at a
// location. Rows without a lot are skipped, and lots whose net quantity is
// not positive are dropped after collapsing.
func (r *QuantRepository) ProductLots(ctx context.Context, productID, locationID int64) ([]stock.LotQuantity, error) {
	query := `
		SELECT q.lot_id, lt.name, q.quantity
		FROM stock_quants q
		JOIN lots lt ON lt.id = q.lot_id
		WHERE q.product_id = ? AND q.location_id = ? AND q.lot_id IS NOT NULL
		ORDER BY lt.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product lots: %w", err)
	}
	defer rows.Close()

	// Quants may hold several rows per lot; collapse them
	byLot := make(map[int64]int)
	var result []stock.LotQuantity
	for rows.Next() {
		var lq stock.LotQuantity
		if err := rows.Scan(&lq.LotID, &lq.LotName, &lq.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan product lot: %w", err)
		}
		if idx, ok := byLot[lq.LotID]; ok {
			result[idx].Quantity = result[idx].Quantity.Add(lq.Quantity)
			continue
		}
		byLot[lq.LotID] = len(result)
		result = append(result, lq)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product lot rows: %w", err)
	}

	// A lot can net out to zero or negative across its quant rows; only
	// positive stock belongs in the breakdown.
	filtered := result[:0]
	for _, lq := range result {
		if lq.Quantity.IsPositive() {
			filtered = append(filtered, lq)
		}
	}

	return filtered, nil
}
