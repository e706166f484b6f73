package invoices

import (
	"errors"
	"strings"
	"time"

	"stock-backend/internal/apperr"
	"stock-backend/internal/models"
	"stock-backend/internal/money"
	"stock-backend/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const saleRef = "sale_invoice"

// SaleItemInput: any price sent by the client is ignored; the product's
// current selling price is used.
type SaleItemInput struct {
	Product  *uint `json:"product"`
	Quantity *int  `json:"quantity"`
}

type SaleInput struct {
	CustomerName *string          `json:"customer_name"`
	Discount     *decimal.Decimal `json:"discount"`
	Items        *[]SaleItemInput `json:"items"`
}

func checkDiscount(discount, subtotal decimal.Decimal) (decimal.Decimal, error) {
	d, err := money.Check("discount", discount, money.PriceDigits)
	if err != nil {
		return d, err
	}
	if d.GreaterThan(subtotal) {
		return d, apperr.Validation("discount (%s) cannot exceed the invoice subtotal (%s).",
			money.String(d), money.String(subtotal))
	}
	return d, nil
}

// CreateSale snapshots each product's selling price, lowers stock (no floor,
// overselling is recorded as negative stock) and stores the invoice with
// total_amount = sum(quantity*price) - discount, in one transaction.
func CreateSale(db *gorm.DB, in SaleInput) (*models.SaleInvoice, error) {
	customer := strings.TrimSpace(valueOr(in.CustomerName, ""))
	if customer == "" {
		return nil, apperr.Validation("customer_name is required.")
	}
	if in.Items == nil {
		return nil, apperr.Validation("items is required.")
	}
	if len(*in.Items) == 0 {
		return nil, apperr.Validation("items must contain at least one item.")
	}
	for i, it := range *in.Items {
		if it.Product == nil || *it.Product == 0 {
			return nil, apperr.Validation("items[%d].product is required.", i)
		}
		if it.Quantity == nil {
			return nil, apperr.Validation("items[%d].quantity is required.", i)
		}
		if *it.Quantity < 1 {
			return nil, apperr.Validation("items[%d].quantity must be a positive integer.", i)
		}
	}

	invoice := models.SaleInvoice{
		CustomerName: customer,
		Date:         time.Now().UTC(),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(&invoice).Error; err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, it := range *in.Items {
			var product models.Product
			if err := tx.First(&product, "id = ?", *it.Product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Validation("Invalid product %d - object does not exist.", *it.Product)
				}
				return err
			}

			item := models.SaleItem{
				InvoiceID: invoice.ID,
				ProductID: product.ID,
				Quantity:  *it.Quantity,
				Price:     product.SellingPrice,
			}
			if err := tx.Omit("Product").Create(&item).Error; err != nil {
				return err
			}

			if _, err := stock.Apply(tx, product.ID, -item.Quantity, models.MovementSale, stock.Ref{
				Type: saleRef,
				ID:   invoice.ID,
			}); err != nil {
				return err
			}

			subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		subtotal = money.Round(subtotal)
		// the discount can be edited later, so the undiscounted amount must fit too
		if err := checkInvoiceTotal(subtotal, money.PriceDigits); err != nil {
			return err
		}

		discount, err := checkDiscount(valueOr(in.Discount, decimal.Zero), subtotal)
		if err != nil {
			return err
		}
		return tx.Model(&invoice).Updates(map[string]any{
			"discount":     discount,
			"total_amount": subtotal.Sub(discount),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return GetSale(db, invoice.ID)
}

func GetSale(db *gorm.DB, id uint) (*models.SaleInvoice, error) {
	var invoice models.SaleInvoice
	err := db.Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id asc") }).
		Preload("Items.Product").
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Sale invoice not found.")
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func ListSales(db *gorm.DB) ([]models.SaleInvoice, error) {
	var invoices []models.SaleInvoice
	err := db.Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id asc") }).
		Preload("Items.Product").
		Order("date DESC, id DESC").
		Find(&invoices).Error
	return invoices, err
}

// UpdateSale edits the customer and the discount only; the date and the items
// are fixed once the sale is recorded.
func UpdateSale(db *gorm.DB, id uint, in SaleInput, partial bool) (*models.SaleInvoice, error) {
	invoice, err := GetSale(db, id)
	if err != nil {
		return nil, err
	}
	if in.Items != nil {
		return nil, apperr.Validation("items of a recorded sale cannot be changed.")
	}

	if in.CustomerName != nil || !partial {
		customer := strings.TrimSpace(valueOr(in.CustomerName, ""))
		if customer == "" {
			return nil, apperr.Validation("customer_name is required.")
		}
		invoice.CustomerName = customer
	}

	subtotal := decimal.Zero
	for _, it := range invoice.Items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	subtotal = money.Round(subtotal)

	discount := invoice.Discount
	if in.Discount != nil {
		discount = *in.Discount
	}
	discount, err = checkDiscount(discount, subtotal)
	if err != nil {
		return nil, err
	}
	total := subtotal.Sub(discount)
	if err := checkInvoiceTotal(total, money.PriceDigits); err != nil {
		return nil, err
	}

	err = db.Model(&models.SaleInvoice{}).Where("id = ?", invoice.ID).Updates(map[string]any{
		"customer_name": invoice.CustomerName,
		"discount":      discount,
		"total_amount":  total,
	}).Error
	if err != nil {
		return nil, err
	}

	return GetSale(db, invoice.ID)
}

// DeleteSale removes the invoice and its items, returning the sold quantities
// to stock when ReverseStockOnDelete is set.
func DeleteSale(db *gorm.DB, opts Options, id uint) (*models.SaleInvoice, error) {
	invoice, err := GetSale(db, id)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if opts.ReverseStockOnDelete {
			for _, it := range invoice.Items {
				if _, err := stock.Apply(tx, it.ProductID, it.Quantity, models.MovementSaleReversal, stock.Ref{
					Type: saleRef,
					ID:   invoice.ID,
					Note: "invoice deleted",
				}); err != nil {
					return err
				}
			}
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SaleInvoice{}, invoice.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}
