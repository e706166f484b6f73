package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseInvoice: supplier_name is free text, not a reference to Supplier.
type PurchaseInvoice struct {
	ID           uint            `gorm:"primaryKey"`
	SupplierName string          `gorm:"size:150;not null"`
	Date         time.Time       `gorm:"index;not null"` // calendar day, stored at local midnight
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []PurchaseItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

type PurchaseItem struct {
	ID           uint `gorm:"primaryKey"`
	InvoiceID    uint `gorm:"index;not null"`
	ProductID    uint `gorm:"index;not null"`
	Product      Product
	Quantity     int             `gorm:"not null"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"` // buying price at purchase time
	SellingPrice decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
}
