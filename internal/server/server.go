package server

import (
	"log"
	"strings"

	"stock-backend/internal/accounts"
	"stock-backend/internal/audit"
	"stock-backend/internal/config"
	"stock-backend/internal/invoices"
	"stock-backend/internal/products"
	"stock-backend/internal/reports"
	"stock-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// ErrorHandler renders every error as {"detail": "..."}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"detail": e.Message,
		})
	}
	log.Println("[ERROR] unexpected error:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"detail": "Unexpected server error.",
	})
}

// New builds the app with middleware and the full route table. quiet turns
// off the request logger.
func New(cfg *config.Config, quiet bool) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if !quiet {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Product catalog
	api.Get("/products", products.ListProductsHandler())
	api.Post("/products", products.CreateProductHandler())
	api.Get("/products/low-stock", products.LowStockHandler(cfg))
	api.Get("/products/:id", products.GetProductHandler())
	api.Put("/products/:id", products.UpdateProductHandler())
	api.Patch("/products/:id", products.UpdateProductHandler())
	api.Delete("/products/:id", products.DeleteProductHandler())
	api.Get("/products/:id/movements", stock.ProductMovementsHandler())

	// Suppliers & customers
	accountRoutes := api.Group("/accounts")
	accountRoutes.Get("/suppliers", accounts.ListSuppliersHandler())
	accountRoutes.Post("/suppliers", accounts.CreateSupplierHandler())
	accountRoutes.Get("/suppliers/:id", accounts.GetSupplierHandler())
	accountRoutes.Put("/suppliers/:id", accounts.UpdateSupplierHandler())
	accountRoutes.Patch("/suppliers/:id", accounts.UpdateSupplierHandler())
	accountRoutes.Delete("/suppliers/:id", accounts.DeleteSupplierHandler())

	accountRoutes.Get("/customers", accounts.ListCustomersHandler())
	accountRoutes.Post("/customers", accounts.CreateCustomerHandler())
	accountRoutes.Get("/customers/:id", accounts.GetCustomerHandler())
	accountRoutes.Put("/customers/:id", accounts.UpdateCustomerHandler())
	accountRoutes.Patch("/customers/:id", accounts.UpdateCustomerHandler())
	accountRoutes.Delete("/customers/:id", accounts.DeleteCustomerHandler())

	// Purchase & sale invoices
	invoiceRoutes := api.Group("/invoices")
	invoiceRoutes.Get("/purchases", invoices.ListPurchasesHandler(cfg))
	invoiceRoutes.Post("/purchases", invoices.CreatePurchaseHandler(cfg))
	invoiceRoutes.Get("/purchases/:id", invoices.GetPurchaseHandler(cfg))
	invoiceRoutes.Put("/purchases/:id", invoices.UpdatePurchaseHandler(cfg))
	invoiceRoutes.Patch("/purchases/:id", invoices.UpdatePurchaseHandler(cfg))
	invoiceRoutes.Delete("/purchases/:id", invoices.DeletePurchaseHandler(cfg))

	invoiceRoutes.Get("/sales", invoices.ListSalesHandler(cfg))
	invoiceRoutes.Post("/sales", invoices.CreateSaleHandler(cfg))
	invoiceRoutes.Get("/sales/:id", invoices.GetSaleHandler(cfg))
	invoiceRoutes.Put("/sales/:id", invoices.UpdateSaleHandler(cfg))
	invoiceRoutes.Patch("/sales/:id", invoices.UpdateSaleHandler(cfg))
	invoiceRoutes.Delete("/sales/:id", invoices.DeleteSaleHandler(cfg))

	// Reports (read only)
	reportRoutes := api.Group("/reports")
	reportRoutes.Get("/day", reports.DayReportHandler(cfg))
	reportRoutes.Get("/period", reports.PeriodReportHandler(cfg))
	reportRoutes.Get("/period/export", reports.ExportPeriodReportHandler(cfg))
	reportRoutes.Get("/summary", reports.SummaryReportHandler(cfg))

	// Stock ledger & audit trail
	api.Get("/stock/movements", stock.ListMovementsHandler())
	api.Get("/audit-logs", audit.ListAuditLogsHandler())

	return app
}
