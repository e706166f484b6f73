package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stock-backend/internal/accounts"
	"stock-backend/internal/audit"
	"stock-backend/internal/invoices"
	"stock-backend/internal/models"
	"stock-backend/internal/products"
	"stock-backend/internal/reports"
	"stock-backend/internal/stock"
	"stock-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type detail struct {
	Detail string `json:"detail"`
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	app, _ := newAppWithDB(t)
	return app
}

func newAppWithDB(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.SetupDB(t)
	return New(testutil.Config(), true), db
}

func createProduct(t *testing.T, app *fiber.App, body fiber.Map) products.ProductResponse {
	t.Helper()
	status, raw := testutil.Do(t, app, http.MethodPost, "/api/products/", body)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	return testutil.DecodeJSON[products.ProductResponse](t, raw)
}

func TestHealth(t *testing.T) {
	app := newApp(t)
	status, raw := testutil.Do(t, app, http.MethodGet, "/api/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}

func TestProductLifecycle(t *testing.T) {
	app := newApp(t)

	p := createProduct(t, app, fiber.Map{
		"name": "Rice", "unit": "kg", "buying_price": "1.2", "selling_price": 2, "stock": 5, "min_stock": 2,
	})
	assert.Equal(t, "1.20", p.BuyingPrice)
	assert.Equal(t, "2.00", p.SellingPrice)
	assert.Equal(t, 5, p.Stock)

	status, raw := testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/products/%d/", p.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Rice", testutil.DecodeJSON[products.ProductResponse](t, raw).Name)

	status, raw = testutil.Do(t, app, http.MethodPatch, fmt.Sprintf("/api/products/%d", p.ID), fiber.Map{"stock": 9})
	require.Equal(t, fiber.StatusOK, status, string(raw))
	assert.Equal(t, 9, testutil.DecodeJSON[products.ProductResponse](t, raw).Stock)

	status, raw = testutil.Do(t, app, http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID), fiber.Map{"unit": "kg"})
	assert.Equal(t, fiber.StatusBadRequest, status, string(raw))

	status, raw = testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/products/%d/movements", p.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	ledger := testutil.DecodeJSON[stock.ProductMovementsResponse](t, raw)
	assert.Equal(t, 9, ledger.Stock)
	assert.Equal(t, 9, ledger.OnHand)
	assert.Len(t, ledger.Movements, 2)

	status, _ = testutil.Do(t, app, http.MethodGet, "/api/products/", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = testutil.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/products/%d/", p.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, raw = testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/products/%d/", p.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Product not found.", testutil.DecodeJSON[detail](t, raw).Detail)
}

func TestCreateProductValidation(t *testing.T) {
	app := newApp(t)

	status, _ := testutil.Do(t, app, http.MethodPost, "/api/products/", fiber.Map{"unit": "kg"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = testutil.Do(t, app, http.MethodPost, "/api/products/", fiber.Map{"name": "X", "unit": "kg", "buying_price": -1})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = testutil.Do(t, app, http.MethodPost, "/api/products/", fiber.Map{"name": "X", "unit": "kg", "selling_price": "123456789.00"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestDeleteProductInUseConflicts(t *testing.T) {
	app := newApp(t)
	p := createProduct(t, app, fiber.Map{"name": "Oil", "unit": "l", "buying_price": 1, "selling_price": 2})

	status, raw := testutil.Do(t, app, http.MethodPost, "/api/invoices/sales/", fiber.Map{
		"customer_name": "C",
		"items":         []fiber.Map{{"product": p.ID, "quantity": 1}},
	})
	require.Equal(t, fiber.StatusCreated, status, string(raw))

	status, _ = testutil.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/products/%d", p.ID), nil)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestLowStock(t *testing.T) {
	app := newApp(t)
	createProduct(t, app, fiber.Map{"name": "Plenty", "unit": "pcs", "stock": 50, "min_stock": 10})
	createProduct(t, app, fiber.Map{"name": "Half", "unit": "pcs", "stock": 5, "min_stock": 10})
	createProduct(t, app, fiber.Map{"name": "Empty", "unit": "pcs", "stock": 0, "min_stock": 10})
	createProduct(t, app, fiber.Map{"name": "NoThreshold", "unit": "pcs", "stock": 0})

	status, raw := testutil.Do(t, app, http.MethodGet, "/api/products/low-stock/", nil)
	require.Equal(t, fiber.StatusOK, status)

	low := testutil.DecodeJSON[[]products.LowStockResponse](t, raw)
	require.Len(t, low, 2)
	assert.Equal(t, "Empty", low[0].Name)
	assert.True(t, low[0].Critical)
	assert.Equal(t, "Half", low[1].Name)
	assert.Equal(t, 50.0, low[1].StockPercentage)
	assert.False(t, low[1].Critical)
}

func TestSupplierEndpoints(t *testing.T) {
	app := newApp(t)

	status, raw := testutil.Do(t, app, http.MethodPost, "/api/accounts/suppliers/", fiber.Map{
		"name": "Acme", "company_name": "Acme Ltd", "phone": "555-0101",
	})
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	s := testutil.DecodeJSON[accounts.SupplierResponse](t, raw)
	assert.Nil(t, s.Address)

	status, raw = testutil.Do(t, app, http.MethodPost, "/api/accounts/suppliers/", fiber.Map{
		"name": "Other", "phone": "555-0101",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "supplier with this phone already exists.", testutil.DecodeJSON[detail](t, raw).Detail)

	status, raw = testutil.Do(t, app, http.MethodPatch, fmt.Sprintf("/api/accounts/suppliers/%d/", s.ID), fiber.Map{"address": "Main St 1"})
	require.Equal(t, fiber.StatusOK, status, string(raw))
	updated := testutil.DecodeJSON[accounts.SupplierResponse](t, raw)
	require.NotNil(t, updated.Address)
	assert.Equal(t, "Main St 1", *updated.Address)
	assert.Equal(t, "Acme", updated.Name)

	status, raw = testutil.Do(t, app, http.MethodGet, "/api/accounts/suppliers", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, testutil.DecodeJSON[[]accounts.SupplierResponse](t, raw), 1)

	status, _ = testutil.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/accounts/suppliers/%d", s.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/accounts/suppliers/%d", s.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCustomerEndpoints(t *testing.T) {
	app := newApp(t)

	status, raw := testutil.Do(t, app, http.MethodPost, "/api/accounts/customers/", fiber.Map{"name": "Dana", "phone": "555-0199"})
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	c := testutil.DecodeJSON[accounts.CustomerResponse](t, raw)

	status, _ = testutil.Do(t, app, http.MethodPost, "/api/accounts/customers/", fiber.Map{"name": "Dup", "phone": "555-0199"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = testutil.Do(t, app, http.MethodPost, "/api/accounts/customers/", fiber.Map{"phone": "555-0200"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, raw = testutil.Do(t, app, http.MethodPut, fmt.Sprintf("/api/accounts/customers/%d", c.ID), fiber.Map{"name": "Dana K", "phone": "555-0199"})
	require.Equal(t, fiber.StatusOK, status, string(raw))
	assert.Equal(t, "Dana K", testutil.DecodeJSON[accounts.CustomerResponse](t, raw).Name)
}

func TestPurchaseAndSaleFlow(t *testing.T) {
	app := newApp(t)
	p := createProduct(t, app, fiber.Map{"name": "Flour", "unit": "kg", "buying_price": 1, "selling_price": 2})

	status, raw := testutil.Do(t, app, http.MethodPost, "/api/invoices/purchases/", fiber.Map{
		"supplier_name": "Mill",
		"date":          "2024-01-10",
		"items":         []fiber.Map{{"product": p.ID, "quantity": 20, "price": "1.50", "selling_price": "2.75"}},
	})
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	pur := testutil.DecodeJSON[invoices.PurchaseInvoiceResponse](t, raw)
	assert.Equal(t, "30.00", pur.TotalAmount)
	assert.Equal(t, "2024-01-10", pur.Date)

	status, raw = testutil.Do(t, app, http.MethodPost, "/api/invoices/sales/", fiber.Map{
		"customer_name": "Bakery",
		"discount":      "0.50",
		"items":         []fiber.Map{{"product": p.ID, "quantity": 4, "price": "0.01"}},
	})
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	sale := testutil.DecodeJSON[invoices.SaleInvoiceResponse](t, raw)
	assert.Equal(t, "10.50", sale.TotalAmount)
	assert.Equal(t, "2.75", sale.Items[0].Price)

	status, raw = testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	prod := testutil.DecodeJSON[products.ProductResponse](t, raw)
	assert.Equal(t, 16, prod.Stock)
	assert.Equal(t, "1.50", prod.BuyingPrice)

	status, raw = testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/invoices/sales/%d/", sale.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Bakery", testutil.DecodeJSON[invoices.SaleInvoiceResponse](t, raw).CustomerName)

	status, _ = testutil.Do(t, app, http.MethodGet, "/api/invoices/sales/abc", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, raw = testutil.Do(t, app, http.MethodGet, "/api/invoices/purchases", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, testutil.DecodeJSON[[]invoices.PurchaseInvoiceResponse](t, raw), 1)

	status, raw = testutil.Do(t, app, http.MethodGet, "/api/stock/movements?kind=sale", nil)
	require.Equal(t, fiber.StatusOK, status)
	moves := testutil.DecodeJSON[[]stock.MovementResponse](t, raw)
	require.Len(t, moves, 1)
	assert.Equal(t, -4, moves[0].Quantity)

	status, _ = testutil.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/invoices/purchases/%d", pur.ID), nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, raw = testutil.Do(t, app, http.MethodGet, "/api/audit-logs?entity_type=purchase_invoice", nil)
	require.Equal(t, fiber.StatusOK, status)
	logs := testutil.DecodeJSON[[]audit.AuditLogResponse](t, raw)
	assert.Len(t, logs, 2)
}

func TestInvalidPurchaseReturnsDetail(t *testing.T) {
	app := newApp(t)

	status, raw := testutil.Do(t, app, http.MethodPost, "/api/invoices/purchases/", fiber.Map{
		"supplier_name": "Mill",
		"date":          "10-01-2024",
		"items":         []fiber.Map{{"product": 1, "quantity": 1, "price": 1}},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, testutil.DecodeJSON[detail](t, raw).Detail, "YYYY-MM-DD")
}

func TestReportEndpoints(t *testing.T) {
	app := newApp(t)
	today := time.Now().UTC().Format("2006-01-02")

	status, raw := testutil.Do(t, app, http.MethodGet, "/api/reports/day/", nil)
	require.Equal(t, fiber.StatusOK, status)
	dayReport := testutil.DecodeJSON[reports.DayReportResponse](t, raw)
	assert.Equal(t, today, dayReport.Date)
	assert.Zero(t, dayReport.SalesTotal)

	status, raw = testutil.Do(t, app, http.MethodGet, "/api/reports/day?date=2024/01/01", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD.", testutil.DecodeJSON[detail](t, raw).Detail)

	status, raw = testutil.Do(t, app, http.MethodGet, "/api/reports/period?start=2024-01-01&end=2024-01-03", nil)
	require.Equal(t, fiber.StatusOK, status)
	period := testutil.DecodeJSON[reports.PeriodReportResponse](t, raw)
	assert.Len(t, period.DailyBreakdown, 3)

	status, raw = testutil.Do(t, app, http.MethodGet, "/api/reports/period?start=2024-01-05&end=2024-01-01", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "end must be >= start.", testutil.DecodeJSON[detail](t, raw).Detail)

	status, _ = testutil.Do(t, app, http.MethodGet, "/api/reports/period?start=nope&end=2024-01-01", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, raw = testutil.Do(t, app, http.MethodGet, "/api/reports/summary?type=week&date=2024-01-10", nil)
	require.Equal(t, fiber.StatusOK, status)
	summary := testutil.DecodeJSON[reports.SummaryReportResponse](t, raw)
	assert.Equal(t, "2024-01-04", summary.Start)
	assert.Equal(t, "2024-01-10", summary.End)
	assert.Len(t, summary.DailyBreakdown, 7)

	status, raw = testutil.Do(t, app, http.MethodGet, "/api/reports/summary?type=decade", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid type. Use day, week, month, or year.", testutil.DecodeJSON[detail](t, raw).Detail)

	status, _ = testutil.Do(t, app, http.MethodGet, "/api/reports/summary?type=year&date=bad", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestExportPeriodReport(t *testing.T) {
	app := newApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/period/export?start=2024-01-01&end=2024-01-31", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "report_2024-01-01_2024-01-31.xlsx")
}

func TestUnknownRoute(t *testing.T) {
	app := newApp(t)
	status, _ := testutil.Do(t, app, http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestLookupFailureIsNotReportedAsNotFound(t *testing.T) {
	app, db := newAppWithDB(t)
	p := createProduct(t, app, fiber.Map{"name": "Rice", "unit": "kg"})
	status, raw := testutil.Do(t, app, http.MethodPost, "/api/accounts/suppliers/", fiber.Map{"name": "Acme", "phone": "555-0101"})
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	s := testutil.DecodeJSON[accounts.SupplierResponse](t, raw)

	require.NoError(t, db.Migrator().DropTable(&models.Supplier{}))

	status, raw = testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/accounts/suppliers/%d", s.ID), nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Supplier could not be loaded.", testutil.DecodeJSON[detail](t, raw).Detail)

	status, _ = testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = testutil.Do(t, app, http.MethodGet, "/api/products/4242", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestDeleteProductKeepsMovementsWhenReferenceCheckFails(t *testing.T) {
	app, db := newAppWithDB(t)
	p := createProduct(t, app, fiber.Map{"name": "Rice", "unit": "kg", "stock": 3})

	require.NoError(t, db.Migrator().DropTable(&models.SaleItem{}))

	status, _ := testutil.Do(t, app, http.MethodDelete, fmt.Sprintf("/api/products/%d", p.ID), nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)

	var movements int64
	require.NoError(t, db.Model(&models.StockMovement{}).Where("product_id = ?", p.ID).Count(&movements).Error)
	assert.Equal(t, int64(1), movements)
	assert.Equal(t, 3, testutil.ReloadProduct(t, db, p.ID).Stock)
}

func TestIntegerFiltersRejectTrailingGarbage(t *testing.T) {
	app := newApp(t)
	p := createProduct(t, app, fiber.Map{"name": "Rice", "unit": "kg", "stock": 3})

	status, _ := testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/stock/movements?product_id=%dabc", p.ID), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = testutil.Do(t, app, http.MethodGet, "/api/stock/movements?product_id=-1", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, raw := testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/stock/movements?product_id=%d", p.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, testutil.DecodeJSON[[]stock.MovementResponse](t, raw), 1)

	status, _ = testutil.Do(t, app, http.MethodGet, "/api/audit-logs?entity_id=1x", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, raw = testutil.Do(t, app, http.MethodGet, fmt.Sprintf("/api/audit-logs?entity_type=product&entity_id=%d", p.ID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, testutil.DecodeJSON[[]audit.AuditLogResponse](t, raw), 1)
}
