// Package testutil sets up an in-memory database and app config for tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"stock-backend/internal/config"
	"stock-backend/internal/database"
	"stock-backend/internal/models"
	"stock-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupDB opens a fresh in-memory SQLite database, migrates it and installs
// it as database.DB for the duration of the test.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open("sqlite", "file::memory:", false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func Config() *config.Config {
	return &config.Config{
		HTTPPort:             "0",
		DatabaseDriver:       "sqlite",
		CORSOrigins:          "*",
		ReverseStockOnDelete: true,
		LowStockRatio:        0.10,
		Location:             time.UTC,
	}
}

// Product inserts a product with an opening stock movement.
func Product(t *testing.T, db *gorm.DB, name, buying, selling string, stockQty int) models.Product {
	t.Helper()

	p := models.Product{
		Name:         name,
		Unit:         "pcs",
		BuyingPrice:  decimal.RequireFromString(buying),
		SellingPrice: decimal.RequireFromString(selling),
	}
	require.NoError(t, db.Create(&p).Error)
	_, err := stock.Apply(db, p.ID, stockQty, models.MovementAdjustment, stock.Ref{Type: "product", ID: p.ID})
	require.NoError(t, err)
	require.NoError(t, db.First(&p, p.ID).Error)
	return p
}

// ReloadProduct fetches the current row for p.
func ReloadProduct(t *testing.T, db *gorm.DB, id uint) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p
}

// Do sends a JSON request through app and returns the status and raw body.
func Do(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

// DecodeJSON unmarshals body into a value of type T.
func DecodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}
