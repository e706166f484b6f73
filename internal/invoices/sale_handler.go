package invoices

import (
	"fmt"

	"stock-backend/internal/apperr"
	"stock-backend/internal/audit"
	"stock-backend/internal/config"
	"stock-backend/internal/database"
	"stock-backend/internal/models"
	"stock-backend/internal/money"

	"github.com/gofiber/fiber/v2"
)

type SaleItemResponse struct {
	ID          uint   `json:"id"`
	Product     uint   `json:"product"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
}

type SaleInvoiceResponse struct {
	ID           uint               `json:"id"`
	CustomerName string             `json:"customer_name"`
	TotalAmount  string             `json:"total_amount"`
	Discount     string             `json:"discount"`
	Date         string             `json:"date"`
	Items        []SaleItemResponse `json:"items"`
}

func toSaleResponse(inv models.SaleInvoice, opts Options) SaleInvoiceResponse {
	items := make([]SaleItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, SaleItemResponse{
			ID:          it.ID,
			Product:     it.ProductID,
			ProductName: it.Product.Name,
			Quantity:    it.Quantity,
			Price:       money.String(it.Price),
		})
	}
	return SaleInvoiceResponse{
		ID:           inv.ID,
		CustomerName: inv.CustomerName,
		TotalAmount:  money.String(inv.TotalAmount),
		Discount:     money.String(inv.Discount),
		Date:         inv.Date.In(opts.Location).Format("2006-01-02T15:04:05.000000Z07:00"),
		Items:        items,
	}
}

// GET /api/invoices/sales/
func ListSalesHandler(cfg *config.Config) fiber.Handler {
	opts := OptionsFrom(cfg)
	return func(c *fiber.Ctx) error {
		invoices, err := ListSales(database.DB)
		if err != nil {
			return apperr.ToFiber(err, "Sale invoices could not be listed.")
		}

		resp := make([]SaleInvoiceResponse, 0, len(invoices))
		for _, inv := range invoices {
			resp = append(resp, toSaleResponse(inv, opts))
		}
		return c.JSON(resp)
	}
}

// POST /api/invoices/sales/
func CreateSaleHandler(cfg *config.Config) fiber.Handler {
	opts := OptionsFrom(cfg)
	return func(c *fiber.Ctx) error {
		var body SaleInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
		}

		inv, err := CreateSale(database.DB, body)
		if err != nil {
			return apperr.ToFiber(err, "Sale invoice could not be created.")
		}

		resp := toSaleResponse(*inv, opts)
		audit.Record(audit.LogOptions{
			EntityType:  saleRef,
			EntityID:    inv.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Sale to %s: %d item(s), total %s", inv.CustomerName, len(inv.Items), resp.TotalAmount),
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/invoices/sales/:id/
func GetSaleHandler(cfg *config.Config) fiber.Handler {
	opts := OptionsFrom(cfg)
	return func(c *fiber.Ctx) error {
		id, err := invoiceID(c)
		if err != nil {
			return err
		}
		inv, err := GetSale(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err, "Sale invoice could not be loaded.")
		}
		return c.JSON(toSaleResponse(*inv, opts))
	}
}

// PUT/PATCH /api/invoices/sales/:id/
func UpdateSaleHandler(cfg *config.Config) fiber.Handler {
	opts := OptionsFrom(cfg)
	return func(c *fiber.Ctx) error {
		id, err := invoiceID(c)
		if err != nil {
			return err
		}

		var body SaleInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
		}

		before, err := GetSale(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err, "Sale invoice could not be loaded.")
		}
		beforeResp := toSaleResponse(*before, opts)

		inv, err := UpdateSale(database.DB, id, body, c.Method() == fiber.MethodPatch)
		if err != nil {
			return apperr.ToFiber(err, "Sale invoice could not be updated.")
		}

		resp := toSaleResponse(*inv, opts)
		audit.Record(audit.LogOptions{
			EntityType:  saleRef,
			EntityID:    inv.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Sale #%d updated, total %s", inv.ID, resp.TotalAmount),
			Before:      beforeResp,
			After:       resp,
		})

		return c.JSON(resp)
	}
}

// DELETE /api/invoices/sales/:id/
func DeleteSaleHandler(cfg *config.Config) fiber.Handler {
	opts := OptionsFrom(cfg)
	return func(c *fiber.Ctx) error {
		id, err := invoiceID(c)
		if err != nil {
			return err
		}

		inv, err := DeleteSale(database.DB, opts, id)
		if err != nil {
			return apperr.ToFiber(err, "Sale invoice could not be deleted.")
		}

		desc := fmt.Sprintf("Sale #%d deleted", inv.ID)
		if !opts.ReverseStockOnDelete {
			desc += " (stock not reversed)"
		}
		audit.Record(audit.LogOptions{
			EntityType:  saleRef,
			EntityID:    inv.ID,
			Action:      models.AuditActionDelete,
			Description: desc,
			Before:      toSaleResponse(*inv, opts),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
