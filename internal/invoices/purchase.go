package invoices

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-backend/internal/apperr"
	"stock-backend/internal/models"
	"stock-backend/internal/money"
	"stock-backend/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const purchaseRef = "purchase_invoice"

// Options carries the settings invoice writes depend on.
type Options struct {
	Location             *time.Location
	ReverseStockOnDelete bool
}

type PurchaseItemInput struct {
	ID           *uint            `json:"id"` // set only when editing an existing item
	Product      *uint            `json:"product"`
	Quantity     *int             `json:"quantity"`
	Price        *decimal.Decimal `json:"price"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
}

type PurchaseInput struct {
	SupplierName *string              `json:"supplier_name"`
	Date         *string              `json:"date"`
	Items        *[]PurchaseItemInput `json:"items"`
}

// validateNewPurchaseItem checks an item that is about to be created.
func validateNewPurchaseItem(i int, in PurchaseItemInput) (models.PurchaseItem, error) {
	if in.Product == nil || *in.Product == 0 {
		return models.PurchaseItem{}, apperr.Validation("items[%d].product is required.", i)
	}
	if in.Quantity == nil {
		return models.PurchaseItem{}, apperr.Validation("items[%d].quantity is required.", i)
	}
	if in.Price == nil {
		return models.PurchaseItem{}, apperr.Validation("items[%d].price is required.", i)
	}
	item := models.PurchaseItem{ProductID: *in.Product}
	if err := setPurchaseItemFields(i, &item, in); err != nil {
		return models.PurchaseItem{}, err
	}
	return item, nil
}

// setPurchaseItemFields copies the quantity and price fields present in in onto item.
func setPurchaseItemFields(i int, item *models.PurchaseItem, in PurchaseItemInput) error {
	if in.Quantity != nil {
		if *in.Quantity < 1 {
			return apperr.Validation("items[%d].quantity must be a positive integer.", i)
		}
		item.Quantity = *in.Quantity
	}
	if in.Price != nil {
		p, err := money.Check(fmt.Sprintf("items[%d].price", i), *in.Price, money.PriceDigits)
		if err != nil {
			return err
		}
		item.Price = p
	}
	if in.SellingPrice != nil {
		sp, err := money.Check(fmt.Sprintf("items[%d].selling_price", i), *in.SellingPrice, money.PriceDigits)
		if err != nil {
			return err
		}
		item.SellingPrice = sp
	}
	return nil
}

// applyPurchaseItem books the stock delta of a saved item and overwrites the
// product's buying price, plus its selling price when a positive override is given.
func applyPurchaseItem(tx *gorm.DB, item models.PurchaseItem, previousQty int, kind models.MovementKind) error {
	if _, err := stock.Apply(tx, item.ProductID, item.Quantity-previousQty, kind, stock.Ref{
		Type: purchaseRef,
		ID:   item.InvoiceID,
	}); err != nil {
		if errors.Is(err, stock.ErrProductNotFound) {
			return apperr.Validation("Invalid product %d - object does not exist.", item.ProductID)
		}
		return err
	}

	prices := map[string]any{"buying_price": item.Price}
	if item.SellingPrice.IsPositive() {
		prices["selling_price"] = item.SellingPrice
	}
	return tx.Model(&models.Product{}).Where("id = ?", item.ProductID).Updates(prices).Error
}

func purchaseTotal(items []models.PurchaseItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return money.Round(total)
}

func productExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.Validation("Invalid product %d - object does not exist.", id)
	}
	return nil
}

func checkInvoiceTotal(total decimal.Decimal, digits int) error {
	limit := decimal.New(1, int32(digits-money.Places))
	if total.Abs().GreaterThanOrEqual(limit) {
		return apperr.Validation("total_amount must have no more than %d digits in total.", digits)
	}
	return nil
}

// CreatePurchase stores the invoice and its items, raises stock, updates
// product prices and sets the total, all in one transaction.
func CreatePurchase(db *gorm.DB, opts Options, in PurchaseInput) (*models.PurchaseInvoice, error) {
	supplier := strings.TrimSpace(valueOr(in.SupplierName, ""))
	if supplier == "" {
		return nil, apperr.Validation("supplier_name is required.")
	}
	if in.Items == nil {
		return nil, apperr.Validation("items is required.")
	}
	if len(*in.Items) == 0 {
		return nil, apperr.Validation("items must contain at least one item.")
	}

	date, err := parseDay(valueOr(in.Date, ""), opts.Location)
	if err != nil {
		return nil, err
	}

	items := make([]models.PurchaseItem, 0, len(*in.Items))
	for i, itemIn := range *in.Items {
		if itemIn.ID != nil {
			return nil, apperr.Validation("items[%d].id cannot be set on a new invoice.", i)
		}
		item, err := validateNewPurchaseItem(i, itemIn)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	total := purchaseTotal(items)
	if err := checkInvoiceTotal(total, money.TotalDigits); err != nil {
		return nil, err
	}

	invoice := models.PurchaseInvoice{
		SupplierName: supplier,
		Date:         date,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(&invoice).Error; err != nil {
			return err
		}

		for i := range items {
			if err := productExists(tx, items[i].ProductID); err != nil {
				return err
			}
			items[i].InvoiceID = invoice.ID
			if err := tx.Omit("Product").Create(&items[i]).Error; err != nil {
				return err
			}
			if err := applyPurchaseItem(tx, items[i], 0, models.MovementPurchase); err != nil {
				return err
			}
		}

		invoice.TotalAmount = total
		return tx.Model(&invoice).Update("total_amount", total).Error
	})
	if err != nil {
		return nil, err
	}

	return GetPurchase(db, invoice.ID)
}

func GetPurchase(db *gorm.DB, id uint) (*models.PurchaseInvoice, error) {
	var invoice models.PurchaseInvoice
	err := db.Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id asc") }).
		Preload("Items.Product").
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Purchase invoice not found.")
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func ListPurchases(db *gorm.DB) ([]models.PurchaseInvoice, error) {
	var invoices []models.PurchaseInvoice
	err := db.Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id asc") }).
		Preload("Items.Product").
		Order("date DESC, id DESC").
		Find(&invoices).Error
	return invoices, err
}

// UpdatePurchase edits the header and, when items are given, edits existing
// items (by id) or appends new ones. Stock moves by the difference between the
// new and the stored quantity, never by the absolute value.
func UpdatePurchase(db *gorm.DB, opts Options, id uint, in PurchaseInput, partial bool) (*models.PurchaseInvoice, error) {
	invoice, err := GetPurchase(db, id)
	if err != nil {
		return nil, err
	}

	if in.SupplierName != nil || !partial {
		supplier := strings.TrimSpace(valueOr(in.SupplierName, ""))
		if supplier == "" {
			return nil, apperr.Validation("supplier_name is required.")
		}
		invoice.SupplierName = supplier
	}
	if in.Date != nil {
		date, err := parseDay(*in.Date, opts.Location)
		if err != nil {
			return nil, err
		}
		invoice.Date = date
	}

	existing := make(map[uint]models.PurchaseItem, len(invoice.Items))
	for _, it := range invoice.Items {
		existing[it.ID] = it
	}

	type edit struct {
		item        models.PurchaseItem
		previousQty int
		isNew       bool
	}
	var edits []edit
	if in.Items != nil {
		for i, itemIn := range *in.Items {
			if itemIn.ID == nil {
				item, err := validateNewPurchaseItem(i, itemIn)
				if err != nil {
					return nil, err
				}
				item.InvoiceID = invoice.ID
				edits = append(edits, edit{item: item, isNew: true})
				continue
			}

			item, ok := existing[*itemIn.ID]
			if !ok {
				return nil, apperr.Validation("items[%d].id %d does not belong to this invoice.", i, *itemIn.ID)
			}
			if itemIn.Product != nil && *itemIn.Product != item.ProductID {
				return nil, apperr.Validation("items[%d].product cannot be changed.", i)
			}
			previousQty := item.Quantity
			if err := setPurchaseItemFields(i, &item, itemIn); err != nil {
				return nil, err
			}
			existing[item.ID] = item
			edits = append(edits, edit{item: item, previousQty: previousQty})
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PurchaseInvoice{}).Where("id = ?", invoice.ID).
			Updates(map[string]any{"supplier_name": invoice.SupplierName, "date": invoice.Date}).Error; err != nil {
			return err
		}

		for _, e := range edits {
			item := e.item
			kind := models.MovementPurchaseEdit
			if e.isNew {
				kind = models.MovementPurchase
				if err := productExists(tx, item.ProductID); err != nil {
					return err
				}
				if err := tx.Omit("Product").Create(&item).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Model(&models.PurchaseItem{}).Where("id = ?", item.ID).Updates(map[string]any{
					"quantity":      item.Quantity,
					"price":         item.Price,
					"selling_price": item.SellingPrice,
				}).Error; err != nil {
					return err
				}
			}
			if err := applyPurchaseItem(tx, item, e.previousQty, kind); err != nil {
				return err
			}
		}

		var items []models.PurchaseItem
		if err := tx.Where("invoice_id = ?", invoice.ID).Find(&items).Error; err != nil {
			return err
		}
		total := purchaseTotal(items)
		if err := checkInvoiceTotal(total, money.TotalDigits); err != nil {
			return err
		}
		return tx.Model(&models.PurchaseInvoice{}).Where("id = ?", invoice.ID).Update("total_amount", total).Error
	})
	if err != nil {
		return nil, err
	}

	return GetPurchase(db, invoice.ID)
}

// DeletePurchase removes the invoice and its items. With ReverseStockOnDelete
// the received quantities are taken back out of stock; prices are left as is.
func DeletePurchase(db *gorm.DB, opts Options, id uint) (*models.PurchaseInvoice, error) {
	invoice, err := GetPurchase(db, id)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if opts.ReverseStockOnDelete {
			for _, it := range invoice.Items {
				if _, err := stock.Apply(tx, it.ProductID, -it.Quantity, models.MovementPurchaseReversal, stock.Ref{
					Type: purchaseRef,
					ID:   invoice.ID,
					Note: "invoice deleted",
				}); err != nil {
					return err
				}
			}
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.PurchaseItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PurchaseInvoice{}, invoice.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
