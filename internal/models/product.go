package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product: stock is a cached running total of the product's StockMovement rows
// and may go negative when a product is oversold.
type Product struct {
	ID           uint            `gorm:"primaryKey"`
	Name         string          `gorm:"size:150;not null"`
	Unit         string          `gorm:"size:20;not null"` // pcs, kg, box ...
	BuyingPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Stock        int             `gorm:"not null;default:0"`
	MinStock     int             `gorm:"not null;default:0"` // reorder threshold
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
