package stock

import "github.com/shopspring/decimal"

// Lot is an identified stock unit of a product. Immutable master data.
type Lot struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	ProductCode string `json:"product_code,omitempty"`
	UOM         string `json:"uom,omitempty"`
}

// Rack is a physical storage rack within a location.
type Rack struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	LocationID   int64  `json:"location_id"`
	LocationName string `json:"location_name"`
	Note         string `json:"note"`
}

// Location is a stock location. Master data.
type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LotQuantity is one lot's physical quantity from the stock ledger.
type LotQuantity struct {
	LotID    int64
	LotName  string
	Quantity decimal.Decimal
}

// ProductLotStock is the per-lot breakdown of a product's stock at a location,
// each annotated with its inventoried-so-far total.
type ProductLotStock struct {
	LotID               int64           `json:"lot_id"`
	LotName             string          `json:"lot_name"`
	ProductID           int64           `json:"product_id"`
	LotInventoriedStock decimal.Decimal `json:"lot_inventoried_stock"`
	LotStock            decimal.Decimal `json:"lot_stock"`
	ProductStock        decimal.Decimal `json:"product_stock"`
}

// LotInfo is the reconciliation view for a lot at a location: what the ledger
// says should be there vs. what validated counts have already confirmed.
type LotInfo struct {
	LotID               int64             `json:"lot_id"`
	ProductID           int64             `json:"product_id"`
	LotInventoriedStock decimal.Decimal   `json:"lot_inventoried_stock"`
	LotStock            decimal.Decimal   `json:"lot_stock"`
	ProductStock        decimal.Decimal   `json:"product_stock"`
	ProductLots         []ProductLotStock `json:"product_lots"`
}
