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

type PurchaseItemResponse struct {
	ID           uint   `json:"id"`
	Product      uint   `json:"product"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	SellingPrice string `json:"selling_price"`
}

type PurchaseInvoiceResponse struct {
	ID           uint                   `json:"id"`
	SupplierName string                 `json:"supplier_name"`
	Date         string                 `json:"date"`
	TotalAmount  string                 `json:"total_amount"`
	Items        []PurchaseItemResponse `json:"items"`
}

func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Location:             cfg.Location,
		ReverseStockOnDelete: cfg.ReverseStockOnDelete,
	}
}

func toPurchaseResponse(inv models.PurchaseInvoice, opts Options) PurchaseInvoiceResponse {
	items := make([]PurchaseItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, PurchaseItemResponse{
			ID:           it.ID,
			Product:      it.ProductID,
			ProductName:  it.Product.Name,
			Quantity:     it.Quantity,
			Price:        money.String(it.Price),
			SellingPrice: money.String(it.SellingPrice),
		})
	}
	return PurchaseInvoiceResponse{
		ID:           inv.ID,
		SupplierName: inv.SupplierName,
		Date:         formatDay(inv.Date, opts.Location),
		TotalAmount:  money.String(inv.TotalAmount),
		Items:        items,
	}
}

func invoiceID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "Not found.")
	}
	return uint(id), nil
}

// GET /api/invoices/purchases/
func ListPurchasesHandler(cfg *config.Config) fiber.Handler {
	opts := OptionsFrom(cfg)
	return func(c *fiber.Ctx) error {
		invoices, err := ListPurchases(database.DB)
		if err != nil {
			return apperr.ToFiber(err, "Purchase invoices could not be listed.")
		}

		resp := make([]PurchaseInvoiceResponse, 0, len(invoices))
		for _, inv := range invoices {
			resp = append(resp, toPurchaseResponse(inv, opts))
		}
		return c.JSON(resp)
	}
}

// POST /api/invoices/purchases/
func CreatePurchaseHandler(cfg *config.Config) fiber.Handler {
	opts := OptionsFrom(cfg)
	return func(c *fiber.Ctx) error {
		var body PurchaseInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
		}

		inv, err := CreatePurchase(database.DB, opts, body)
		if err != nil {
			return apperr.ToFiber(err, "Purchase invoice could not be created.")
		}

		resp := toPurchaseResponse(*inv, opts)
		audit.Record(audit.LogOptions{
			EntityType:  purchaseRef,
			EntityID:    inv.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Purchase from %s: %d item(s), total %s", inv.SupplierName, len(inv.Items), resp.TotalAmount),
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/invoices/purchases/:id/
func GetPurchaseHandler(cfg *config.Config) fiber.Handler {
	opts := OptionsFrom(cfg)
	return func(c *fiber.Ctx) error {
		id, err := invoiceID(c)
		if err != nil {
			return err
		}
		inv, err := GetPurchase(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err, "Purchase invoice could not be loaded.")
		}
		return c.JSON(toPurchaseResponse(*inv, opts))
	}
}

// PUT/PATCH /api/invoices/purchases/:id/
func UpdatePurchaseHandler(cfg *config.Config) fiber.Handler {
	opts := OptionsFrom(cfg)
	return func(c *fiber.Ctx) error {
		id, err := invoiceID(c)
		if err != nil {
			return err
		}

		var body PurchaseInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
		}

		before, err := GetPurchase(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err, "Purchase invoice could not be loaded.")
		}
		beforeResp := toPurchaseResponse(*before, opts)

		inv, err := UpdatePurchase(database.DB, opts, id, body, c.Method() == fiber.MethodPatch)
		if err != nil {
			return apperr.ToFiber(err, "Purchase invoice could not be updated.")
		}

		resp := toPurchaseResponse(*inv, opts)
		audit.Record(audit.LogOptions{
			EntityType:  purchaseRef,
			EntityID:    inv.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Purchase #%d updated, total %s", inv.ID, resp.TotalAmount),
			Before:      beforeResp,
			After:       resp,
		})

		return c.JSON(resp)
	}
}

// DELETE /api/invoices/purchases/:id/
func DeletePurchaseHandler(cfg *config.Config) fiber.Handler {
	opts := OptionsFrom(cfg)
	return func(c *fiber.Ctx) error {
		id, err := invoiceID(c)
		if err != nil {
			return err
		}

		inv, err := DeletePurchase(database.DB, opts, id)
		if err != nil {
			return apperr.ToFiber(err, "Purchase invoice could not be deleted.")
		}

		desc := fmt.Sprintf("Purchase #%d deleted", inv.ID)
		if !opts.ReverseStockOnDelete {
			desc += " (stock not reversed)"
		}
		audit.Record(audit.LogOptions{
			EntityType:  purchaseRef,
			EntityID:    inv.ID,
			Action:      models.AuditActionDelete,
			Description: desc,
			Before:      toPurchaseResponse(*inv, opts),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
