package stock

import (
	"context"

	"github.com/shopspring/decimal"
)

// LotRepository provides lot master-data lookups.
type LotRepository interface {
	GetByID(ctx context.Context, id int64) (*Lot, error)
	GetByName(ctx context.Context, name string) (*Lot, error)
}

// LocationRepository provides location master-data lookups.
type LocationRepository interface {
	Get(ctx context.Context, id int64) (*Location, error)
}

// QuantRepository reads the authoritative stock ledger. Quantities are summed
// with null-as-zero: a lot absent from the ledger reports zero stock.
type QuantRepository interface {
	LotQuantity(ctx context.Context, productID, lotID, locationID int64) (decimal.Decimal, error)
	ProductQuantity(ctx context.Context, productID, locationID int64) (decimal.Decimal, error)
	ProductLots(ctx context.Context, productID, locationID int64) ([]LotQuantity, error)
}

// CountedQuantityRepository reports how much of a lot has already been
// confirmed by validated scan lines, irrespective of location.
type CountedQuantityRepository interface {
	ValidatedQuantityForLot(ctx context.Context, lotID int64) (decimal.Decimal, error)
}
