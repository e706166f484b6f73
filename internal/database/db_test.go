package database_test

import (
	"testing"

	"stock-backend/internal/database"
	"stock-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := database.Open("oracle", "", false)
	assert.Error(t, err)
}

func TestMigrateCreatesTables(t *testing.T) {
	db, err := database.Open("sqlite", "file::memory:", false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	for _, m := range []any{
		&models.Product{}, &models.Supplier{}, &models.Customer{},
		&models.PurchaseInvoice{}, &models.PurchaseItem{},
		&models.SaleInvoice{}, &models.SaleItem{},
		&models.StockMovement{}, &models.AuditLog{},
	} {
		assert.True(t, db.Migrator().HasTable(m))
	}
}
