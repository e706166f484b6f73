package products

import (
	"fmt"
	"strings"

	"stock-backend/internal/apperr"
	"stock-backend/internal/audit"
	"stock-backend/internal/database"
	"stock-backend/internal/models"
	"stock-backend/internal/money"
	"stock-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	BuyingPrice  string `json:"buying_price"`
	SellingPrice string `json:"selling_price"`
	Stock        int    `json:"stock"`
	MinStock     int    `json:"min_stock"`
	CreatedAt    string `json:"created_at"`
}

type CreateProductRequest struct {
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	BuyingPrice  decimal.Decimal `json:"buying_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Stock        int             `json:"stock"` // opening balance
	MinStock     int             `json:"min_stock"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	Unit         *string          `json:"unit"`
	BuyingPrice  *decimal.Decimal `json:"buying_price"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	Stock        *int             `json:"stock"`
	MinStock     *int             `json:"min_stock"`
}

func toResponse(p models.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Unit:         p.Unit,
		BuyingPrice:  money.String(p.BuyingPrice),
		SellingPrice: money.String(p.SellingPrice),
		Stock:        p.Stock,
		MinStock:     p.MinStock,
		CreatedAt:    p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// GET /api/products/
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Order("name asc, id asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Products could not be listed.")
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, toResponse(p))
		}
		return c.JSON(res)
	}
}

// POST /api/products/
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)
		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and unit are required.")
		}
		if body.MinStock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "min_stock cannot be negative.")
		}

		buying, err := money.Check("buying_price", body.BuyingPrice, money.PriceDigits)
		if err != nil {
			return apperr.ToFiber(err, "Product could not be created.")
		}
		selling, err := money.Check("selling_price", body.SellingPrice, money.PriceDigits)
		if err != nil {
			return apperr.ToFiber(err, "Product could not be created.")
		}

		p := models.Product{
			Name:         body.Name,
			Unit:         body.Unit,
			BuyingPrice:  buying,
			SellingPrice: selling,
			MinStock:     body.MinStock,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			if _, err := stock.Apply(tx, p.ID, body.Stock, models.MovementAdjustment, stock.Ref{
				Type: "product",
				ID:   p.ID,
				Note: "opening balance",
			}); err != nil {
				return err
			}
			return tx.First(&p, p.ID).Error
		})
		if err != nil {
			return apperr.ToFiber(err, "Product could not be created.")
		}

		audit.Record(audit.LogOptions{
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Product created: %s", p.Name),
			After:       toResponse(p),
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(p))
	}
}

// GET /api/products/:id/
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p models.Product
		if err := database.DB.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.ToFiber(apperr.Lookup(err, "Product not found."), "Product could not be loaded.")
		}
		return c.JSON(toResponse(p))
	}
}

// PUT/PATCH /api/products/:id/
// PUT requires name and unit; PATCH accepts any subset of fields.
// A changed stock value is booked as an adjustment movement of the difference.
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p models.Product
		if err := database.DB.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.ToFiber(apperr.Lookup(err, "Product not found."), "Product could not be loaded.")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
		}

		if c.Method() == fiber.MethodPut && (body.Name == nil || body.Unit == nil) {
			return fiber.NewError(fiber.StatusBadRequest, "name and unit are required.")
		}

		before := toResponse(p)

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name cannot be blank.")
			}
			p.Name = name
		}

		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "unit cannot be blank.")
			}
			p.Unit = unit
		}

		if body.BuyingPrice != nil {
			v, err := money.Check("buying_price", *body.BuyingPrice, money.PriceDigits)
			if err != nil {
				return apperr.ToFiber(err, "Product could not be updated.")
			}
			p.BuyingPrice = v
		}

		if body.SellingPrice != nil {
			v, err := money.Check("selling_price", *body.SellingPrice, money.PriceDigits)
			if err != nil {
				return apperr.ToFiber(err, "Product could not be updated.")
			}
			p.SellingPrice = v
		}

		if body.MinStock != nil {
			if *body.MinStock < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "min_stock cannot be negative.")
			}
			p.MinStock = *body.MinStock
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&p).Select("name", "unit", "buying_price", "selling_price", "min_stock").Updates(&p).Error; err != nil {
				return err
			}
			if body.Stock != nil {
				if _, err := stock.Apply(tx, p.ID, *body.Stock-before.Stock, models.MovementAdjustment, stock.Ref{
					Type: "product",
					ID:   p.ID,
					Note: "manual stock correction",
				}); err != nil {
					return err
				}
			}
			return tx.First(&p, p.ID).Error
		})
		if err != nil {
			return apperr.ToFiber(err, "Product could not be updated.")
		}

		after := toResponse(p)
		audit.Record(audit.LogOptions{
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Product updated: %s", p.Name),
			Before:      before,
			After:       after,
		})

		return c.JSON(after)
	}
}

// DELETE /api/products/:id/
// Products referenced by invoice items cannot be deleted.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p models.Product
		if err := database.DB.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.ToFiber(apperr.Lookup(err, "Product not found."), "Product could not be loaded.")
		}

		var purchaseRefs, saleRefs int64
		if err := database.DB.Model(&models.PurchaseItem{}).Where("product_id = ?", p.ID).Count(&purchaseRefs).Error; err != nil {
			return apperr.ToFiber(err, "Product could not be deleted.")
		}
		if err := database.DB.Model(&models.SaleItem{}).Where("product_id = ?", p.ID).Count(&saleRefs).Error; err != nil {
			return apperr.ToFiber(err, "Product could not be deleted.")
		}
		if purchaseRefs+saleRefs > 0 {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf(
				"Product is used by %d purchase item(s) and %d sale item(s) and cannot be deleted.",
				purchaseRefs, saleRefs))
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("product_id = ?", p.ID).Delete(&models.StockMovement{}).Error; err != nil {
				return err
			}
			return tx.Delete(&p).Error
		})
		if err != nil {
			return apperr.ToFiber(err, "Product could not be deleted.")
		}

		audit.Record(audit.LogOptions{
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Product deleted: %s", p.Name),
			Before:      toResponse(p),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
