package stock_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/repository"
	"github.com/castral/stocktake/internal/repository/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLotInfo(t *testing.T) {
	ctx := context.Background()
	locationID := int64(5)

	lots := &mocks.LotRepository{}
	lots.On("GetByName", ctx, "LOT-001").Return(&stock.Lot{
		ID:          10,
		Name:        "LOT-001",
		ProductID:   3,
		ProductName: "Widget",
	}, nil)

	locations := &mocks.LocationRepository{}
	locations.On("Get", ctx, locationID).Return(&stock.Location{ID: locationID, Name: "Main Store"}, nil)

	quants := &mocks.QuantRepository{}
	quants.On("LotQuantity", ctx, int64(3), int64(10), locationID).Return(decimal.NewFromInt(8), nil)
	quants.On("ProductQuantity", ctx, int64(3), locationID).Return(decimal.NewFromInt(20), nil)
	quants.On("ProductLots", ctx, int64(3), locationID).Return([]stock.LotQuantity{
		{LotID: 10, LotName: "LOT-001", Quantity: decimal.NewFromInt(8)},
		{LotID: 11, LotName: "LOT-002", Quantity: decimal.NewFromInt(12)},
	}, nil)

	counted := &mocks.CountedQuantityRepository{}
	counted.On("ValidatedQuantityForLot", ctx, int64(10)).Return(decimal.NewFromInt(5), nil)
	counted.On("ValidatedQuantityForLot", ctx, int64(11)).Return(decimal.Zero, nil)

	svc := stock.NewService(lots, locations, quants, counted, testLogger())
	info, err := svc.LotInfo(ctx, "LOT-001", locationID)
	require.NoError(t, err)

	require.Equal(t, int64(10), info.LotID)
	require.Equal(t, int64(3), info.ProductID)
	require.True(t, info.LotStock.Equal(decimal.NewFromInt(8)))
	require.True(t, info.LotInventoriedStock.Equal(decimal.NewFromInt(5)))
	require.True(t, info.ProductStock.Equal(decimal.NewFromInt(20)))

	require.Len(t, info.ProductLots, 2)
	require.Equal(t, int64(10), info.ProductLots[0].LotID)
	require.True(t, info.ProductLots[0].LotInventoriedStock.Equal(decimal.NewFromInt(5)))
	require.True(t, info.ProductLots[1].LotStock.Equal(decimal.NewFromInt(12)))
	require.True(t, info.ProductLots[1].LotInventoriedStock.Equal(decimal.Zero))
	require.True(t, info.ProductLots[1].ProductStock.Equal(decimal.NewFromInt(20)))
}

func TestLotInfo_LotNotFound(t *testing.T) {
	ctx := context.Background()

	lots := &mocks.LotRepository{}
	lots.On("GetByName", ctx, "GHOST").Return((*stock.Lot)(nil), repository.ErrNotFound)

	svc := stock.NewService(lots, &mocks.LocationRepository{}, &mocks.QuantRepository{}, &mocks.CountedQuantityRepository{}, testLogger())
	_, err := svc.LotInfo(ctx, "GHOST", 5)
	require.ErrorIs(t, err, stock.ErrLotNotFound)
}

func TestLotInfo_LocationNotFound(t *testing.T) {
	ctx := context.Background()

	lots := &mocks.LotRepository{}
	lots.On("GetByName", ctx, "LOT-001").Return(&stock.Lot{ID: 10, ProductID: 3}, nil)

	locations := &mocks.LocationRepository{}
	locations.On("Get", ctx, int64(99)).Return((*stock.Location)(nil), repository.ErrNotFound)

	svc := stock.NewService(lots, locations, &mocks.QuantRepository{}, &mocks.CountedQuantityRepository{}, testLogger())
	_, err := svc.LotInfo(ctx, "LOT-001", 99)
	require.ErrorIs(t, err, stock.ErrLocationNotFound)
}

// A lot absent from the ledger still reconciles, reporting zero stock.
func TestLotInfo_ZeroStock(t *testing.T) {
	ctx := context.Background()
	locationID := int64(5)

	lots := &mocks.LotRepository{}
	lots.On("GetByName", ctx, "LOT-001").Return(&stock.Lot{ID: 10, ProductID: 3}, nil)

	locations := &mocks.LocationRepository{}
	locations.On("Get", ctx, locationID).Return(&stock.Location{ID: locationID}, nil)

	quants := &mocks.QuantRepository{}
	quants.On("LotQuantity", ctx, int64(3), int64(10), locationID).Return(decimal.Zero, nil)
	quants.On("ProductQuantity", ctx, int64(3), locationID).Return(decimal.Zero, nil)
	quants.On("ProductLots", ctx, int64(3), locationID).Return([]stock.LotQuantity{}, nil)

	counted := &mocks.CountedQuantityRepository{}
	counted.On("ValidatedQuantityForLot", ctx, int64(10)).Return(decimal.Zero, nil)

	svc := stock.NewService(lots, locations, quants, counted, testLogger())
	info, err := svc.LotInfo(ctx, "LOT-001", locationID)
	require.NoError(t, err)
	require.True(t, info.LotStock.IsZero())
	require.True(t, info.ProductStock.IsZero())
	require.Empty(t, info.ProductLots)
}
