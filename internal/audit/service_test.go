package audit_test

import (
	"testing"

	"stock-backend/internal/audit"
	"stock-backend/internal/models"
	"stock-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLogStoresSnapshots(t *testing.T) {
	db := testutil.SetupDB(t)

	entry, err := audit.WriteLog(db, audit.LogOptions{
		EntityType:  "product",
		EntityID:    7,
		Action:      models.AuditActionUpdate,
		Description: "Product updated: Rice",
		Before:      map[string]int{"stock": 1},
		After:       map[string]int{"stock": 4},
	})
	require.NoError(t, err)

	var stored models.AuditLog
	require.NoError(t, db.First(&stored, entry.ID).Error)
	assert.JSONEq(t, `{"stock":1}`, stored.BeforeData)
	assert.JSONEq(t, `{"stock":4}`, stored.AfterData)
}

func TestRecordWithoutSnapshots(t *testing.T) {
	db := testutil.SetupDB(t)

	audit.Record(audit.LogOptions{EntityType: "customer", EntityID: 3, Action: models.AuditActionDelete})

	var logs []models.AuditLog
	require.NoError(t, db.Where("entity_type = ?", "customer").Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "null", logs[0].BeforeData)
	assert.Equal(t, "null", logs[0].AfterData)
}
