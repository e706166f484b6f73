package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleInvoice: Date is set once at creation and never edited.
type SaleInvoice struct {
	ID           uint            `gorm:"primaryKey"`
	CustomerName string          `gorm:"size:255;not null"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"` // sum(lines) - discount
	Discount     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Date         time.Time       `gorm:"index;not null"`
	UpdatedAt    time.Time

	Items []SaleItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

type SaleItem struct {
	ID        uint `gorm:"primaryKey"`
	InvoiceID uint `gorm:"index;not null"`
	ProductID uint `gorm:"index;not null"`
	Product   Product
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"` // selling price snapshot
}
