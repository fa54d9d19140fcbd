package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/castral/stocktake/internal/repository"
)

// Service computes the reconciliation view surfaced to agents before and
// after scanning: theoretical ledger stock vs. counted-so-far stock.
type Service struct {
	lots      LotRepository
	locations LocationRepository
	quants    QuantRepository
	counted   CountedQuantityRepository
	logger    *slog.Logger
}

// NewService creates a new stock reconciliation service.
func NewService(
	lots LotRepository,
	locations LocationRepository,
	quants QuantRepository,
	counted CountedQuantityRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		lots:      lots,
		locations: locations,
		quants:    quants,
		counted:   counted,
		logger:    logger,
	}
}

// LotInfo reconciles a lot at a location: the lot's physical stock there, the
// quantity already confirmed by validated scan lines, the product's total at
// the location, and the per-lot breakdown for every lot of the product with
// quantity > 0.
func (s *Service) LotInfo(ctx context.Context, lotName string, locationID int64) (*LotInfo, error) {
	lot, err := s.lots.GetByName(ctx, lotName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, fmt.Errorf("resolving lot: %w", err)
	}

	if _, err := s.locations.Get(ctx, locationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("resolving location: %w", err)
	}

	lotQty, err := s.quants.LotQuantity(ctx, lot.ProductID, lot.ID, locationID)
	if err != nil {
		return nil, fmt.Errorf("reading lot stock: %w", err)
	}

	countedQty, err := s.counted.ValidatedQuantityForLot(ctx, lot.ID)
	if err != nil {
		return nil, fmt.Errorf("reading counted stock: %w", err)
	}

	productQty, err := s.quants.ProductQuantity(ctx, lot.ProductID, locationID)
	if err != nil {
		return nil, fmt.Errorf("reading product stock: %w", err)
	}

	lotQuantities, err := s.quants.ProductLots(ctx, lot.ProductID, locationID)
	if err != nil {
		return nil, fmt.Errorf("listing product lots: %w", err)
	}

	productLots := make([]ProductLotStock, 0, len(lotQuantities))
	for _, lq := range lotQuantities {
		inv, err := s.counted.ValidatedQuantityForLot(ctx, lq.LotID)
		if err != nil {
			return nil, fmt.Errorf("reading counted stock for lot %d: %w", lq.LotID, err)
		}
		productLots = append(productLots, ProductLotStock{
			LotID:               lq.LotID,
			LotName:             lq.LotName,
			ProductID:           lot.ProductID,
			LotInventoriedStock: inv,
			LotStock:            lq.Quantity,
			ProductStock:        productQty,
		})
	}

	return &LotInfo{
		LotID:               lot.ID,
		ProductID:           lot.ProductID,
		LotInventoriedStock: countedQty,
		LotStock:            lotQty,
		ProductStock:        productQty,
		ProductLots:         productLots,
	}, nil
}
