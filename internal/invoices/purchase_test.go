package invoices

import (
	"testing"
	"time"

	"stock-backend/internal/apperr"
	"stock-backend/internal/models"
	"stock-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testOptions() Options {
	return Options{Location: time.UTC, ReverseStockOnDelete: true}
}

func TestCreatePurchaseTotalsStockAndPrices(t *testing.T) {
	db := testutil.SetupDB(t)
	rice := testutil.Product(t, db, "Rice", "1.00", "2.00", 5)
	oil := testutil.Product(t, db, "Oil", "3.00", "4.00", 0)

	inv, err := CreatePurchase(db, testOptions(), PurchaseInput{
		SupplierName: ptr("Acme Foods"),
		Date:         ptr("2024-01-10"),
		Items: &[]PurchaseItemInput{
			{Product: ptr(rice.ID), Quantity: ptr(10), Price: dec("1.25")},
			{Product: ptr(oil.ID), Quantity: ptr(3), Price: dec("3.40"), SellingPrice: dec("5.00")},
		},
	})
	require.NoError(t, err)

	// 10*1.25 + 3*3.40
	assert.Equal(t, "22.70", inv.TotalAmount.StringFixed(2))
	assert.Equal(t, "2024-01-10", formatDay(inv.Date, time.UTC))
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Rice", inv.Items[0].Product.Name)

	r := testutil.ReloadProduct(t, db, rice.ID)
	assert.Equal(t, 15, r.Stock)
	assert.Equal(t, "1.25", r.BuyingPrice.StringFixed(2))
	assert.Equal(t, "2.00", r.SellingPrice.StringFixed(2), "no override keeps selling price")

	o := testutil.ReloadProduct(t, db, oil.ID)
	assert.Equal(t, 3, o.Stock)
	assert.Equal(t, "3.40", o.BuyingPrice.StringFixed(2))
	assert.Equal(t, "5.00", o.SellingPrice.StringFixed(2))

	var movements []models.StockMovement
	require.NoError(t, db.Where("kind = ?", models.MovementPurchase).Find(&movements).Error)
	assert.Len(t, movements, 2)
}

func TestCreatePurchaseDefaultsDateToToday(t *testing.T) {
	db := testutil.SetupDB(t)
	p := testutil.Product(t, db, "Tea", "1.00", "2.00", 0)

	inv, err := CreatePurchase(db, testOptions(), PurchaseInput{
		SupplierName: ptr("Leafy"),
		Items:        &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(1), Price: dec("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Format(dateLayout), formatDay(inv.Date, time.UTC))
}

func TestCreatePurchaseValidation(t *testing.T) {
	db := testutil.SetupDB(t)
	p := testutil.Product(t, db, "Tea", "1.00", "2.00", 0)

	tests := []struct {
		name string
		in   PurchaseInput
	}{
		{"missing items", PurchaseInput{SupplierName: ptr("S")}},
		{"empty items", PurchaseInput{SupplierName: ptr("S"), Items: &[]PurchaseItemInput{}}},
		{"missing supplier", PurchaseInput{Items: &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(1), Price: dec("1")}}}},
		{"missing product", PurchaseInput{SupplierName: ptr("S"), Items: &[]PurchaseItemInput{{Quantity: ptr(1), Price: dec("1")}}}},
		{"missing quantity", PurchaseInput{SupplierName: ptr("S"), Items: &[]PurchaseItemInput{{Product: ptr(p.ID), Price: dec("1")}}}},
		{"zero quantity", PurchaseInput{SupplierName: ptr("S"), Items: &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(0), Price: dec("1")}}}},
		{"missing price", PurchaseInput{SupplierName: ptr("S"), Items: &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(1)}}}},
		{"negative price", PurchaseInput{SupplierName: ptr("S"), Items: &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(1), Price: dec("-1")}}}},
		{"bad date", PurchaseInput{SupplierName: ptr("S"), Date: ptr("10/01/2024"), Items: &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(1), Price: dec("1")}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreatePurchase(db, testOptions(), tt.in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	var count int64
	db.Model(&models.PurchaseInvoice{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreatePurchaseUnknownProductRollsBack(t *testing.T) {
	db := testutil.SetupDB(t)
	p := testutil.Product(t, db, "Tea", "1.00", "2.00", 4)

	_, err := CreatePurchase(db, testOptions(), PurchaseInput{
		SupplierName: ptr("S"),
		Items: &[]PurchaseItemInput{
			{Product: ptr(p.ID), Quantity: ptr(5), Price: dec("9.99")},
			{Product: ptr(uint(4242)), Quantity: ptr(1), Price: dec("1")},
		},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	var invoices, items int64
	db.Model(&models.PurchaseInvoice{}).Count(&invoices)
	db.Model(&models.PurchaseItem{}).Count(&items)
	assert.Zero(t, invoices)
	assert.Zero(t, items)

	after := testutil.ReloadProduct(t, db, p.ID)
	assert.Equal(t, 4, after.Stock)
	assert.Equal(t, "1.00", after.BuyingPrice.StringFixed(2))
}

func TestUpdatePurchaseAppliesQuantityDelta(t *testing.T) {
	db := testutil.SetupDB(t)
	p := testutil.Product(t, db, "Beans", "1.00", "2.00", 0)

	inv, err := CreatePurchase(db, testOptions(), PurchaseInput{
		SupplierName: ptr("S"),
		Items:        &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(10), Price: dec("2.00")}},
	})
	require.NoError(t, err)
	itemID := inv.Items[0].ID
	require.Equal(t, 10, testutil.ReloadProduct(t, db, p.ID).Stock)

	// 10 -> 7 lowers stock by 3, not to 7 on top of 10
	inv, err = UpdatePurchase(db, testOptions(), inv.ID, PurchaseInput{
		Items: &[]PurchaseItemInput{{ID: ptr(itemID), Quantity: ptr(7)}},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 7, testutil.ReloadProduct(t, db, p.ID).Stock)
	assert.Equal(t, "14.00", inv.TotalAmount.StringFixed(2))

	// repeated edits stay consistent
	inv, err = UpdatePurchase(db, testOptions(), inv.ID, PurchaseInput{
		Items: &[]PurchaseItemInput{{ID: ptr(itemID), Quantity: ptr(12), Price: dec("2.50")}},
	}, true)
	require.NoError(t, err)
	after := testutil.ReloadProduct(t, db, p.ID)
	assert.Equal(t, 12, after.Stock)
	assert.Equal(t, "2.50", after.BuyingPrice.StringFixed(2))
	assert.Equal(t, "30.00", inv.TotalAmount.StringFixed(2))

	var edits []models.StockMovement
	require.NoError(t, db.Where("kind = ?", models.MovementPurchaseEdit).Order("id").Find(&edits).Error)
	require.Len(t, edits, 2)
	assert.Equal(t, -3, edits[0].Quantity)
	assert.Equal(t, 5, edits[1].Quantity)
}

func TestUpdatePurchaseAddsItemAndEditsHeader(t *testing.T) {
	db := testutil.SetupDB(t)
	a := testutil.Product(t, db, "A", "1.00", "2.00", 0)
	b := testutil.Product(t, db, "B", "1.00", "2.00", 1)

	inv, err := CreatePurchase(db, testOptions(), PurchaseInput{
		SupplierName: ptr("Old"),
		Date:         ptr("2024-03-01"),
		Items:        &[]PurchaseItemInput{{Product: ptr(a.ID), Quantity: ptr(1), Price: dec("1.00")}},
	})
	require.NoError(t, err)

	inv, err = UpdatePurchase(db, testOptions(), inv.ID, PurchaseInput{
		SupplierName: ptr("New"),
		Date:         ptr("2024-03-02"),
		Items:        &[]PurchaseItemInput{{Product: ptr(b.ID), Quantity: ptr(4), Price: dec("0.50")}},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "New", inv.SupplierName)
	assert.Equal(t, "2024-03-02", formatDay(inv.Date, time.UTC))
	assert.Len(t, inv.Items, 2)
	assert.Equal(t, "3.00", inv.TotalAmount.StringFixed(2))
	assert.Equal(t, 5, testutil.ReloadProduct(t, db, b.ID).Stock)
}

func TestUpdatePurchaseRejectsForeignItem(t *testing.T) {
	db := testutil.SetupDB(t)
	p := testutil.Product(t, db, "A", "1.00", "2.00", 0)

	first, err := CreatePurchase(db, testOptions(), PurchaseInput{
		SupplierName: ptr("S"),
		Items:        &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(1), Price: dec("1")}},
	})
	require.NoError(t, err)
	second, err := CreatePurchase(db, testOptions(), PurchaseInput{
		SupplierName: ptr("S"),
		Items:        &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(1), Price: dec("1")}},
	})
	require.NoError(t, err)

	_, err = UpdatePurchase(db, testOptions(), second.ID, PurchaseInput{
		Items: &[]PurchaseItemInput{{ID: ptr(first.Items[0].ID), Quantity: ptr(9)}},
	}, true)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 2, testutil.ReloadProduct(t, db, p.ID).Stock)
}

func TestUpdatePurchaseNotFound(t *testing.T) {
	db := testutil.SetupDB(t)
	_, err := UpdatePurchase(db, testOptions(), 99, PurchaseInput{}, true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeletePurchaseReversesStock(t *testing.T) {
	db := testutil.SetupDB(t)
	p := testutil.Product(t, db, "A", "1.00", "2.00", 2)

	inv, err := CreatePurchase(db, testOptions(), PurchaseInput{
		SupplierName: ptr("S"),
		Items:        &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(6), Price: dec("1.10")}},
	})
	require.NoError(t, err)
	require.Equal(t, 8, testutil.ReloadProduct(t, db, p.ID).Stock)

	_, err = DeletePurchase(db, testOptions(), inv.ID)
	require.NoError(t, err)

	after := testutil.ReloadProduct(t, db, p.ID)
	assert.Equal(t, 2, after.Stock)
	assert.Equal(t, "1.10", after.BuyingPrice.StringFixed(2), "prices are not reverted")

	var items int64
	db.Model(&models.PurchaseItem{}).Where("invoice_id = ?", inv.ID).Count(&items)
	assert.Zero(t, items)

	_, err = GetPurchase(db, inv.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeletePurchaseWithoutReversal(t *testing.T) {
	db := testutil.SetupDB(t)
	p := testutil.Product(t, db, "A", "1.00", "2.00", 0)
	opts := testOptions()
	opts.ReverseStockOnDelete = false

	inv, err := CreatePurchase(db, opts, PurchaseInput{
		SupplierName: ptr("S"),
		Items:        &[]PurchaseItemInput{{Product: ptr(p.ID), Quantity: ptr(6), Price: dec("1")}},
	})
	require.NoError(t, err)

	_, err = DeletePurchase(db, opts, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, testutil.ReloadProduct(t, db, p.ID).Stock)
}
