package models

import "time"

type MovementKind string

const (
	MovementPurchase         MovementKind = "purchase"
	MovementPurchaseEdit     MovementKind = "purchase_edit"
	MovementPurchaseReversal MovementKind = "purchase_reversal"
	MovementSale             MovementKind = "sale"
	MovementSaleReversal     MovementKind = "sale_reversal"
	MovementAdjustment       MovementKind = "adjustment"
)

// StockMovement: every change to Product.Stock is recorded here.
// Quantity is signed: positive for stock in, negative for stock out.
type StockMovement struct {
	ID            uint         `gorm:"primaryKey"`
	ProductID     uint         `gorm:"index;not null"`
	Kind          MovementKind `gorm:"size:30;index;not null"`
	Quantity      int          `gorm:"not null"`
	StockBefore   int          `gorm:"not null"`
	StockAfter    int          `gorm:"not null"`
	ReferenceType string       `gorm:"size:50"` // purchase_invoice, sale_invoice, product
	ReferenceID   *uint
	Note          string `gorm:"size:255"`
	CreatedAt     time.Time
}
