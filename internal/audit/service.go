// Package audit keeps a trail of changes to catalog entries, accounts and invoices.
package audit

import (
	"encoding/json"
	"fmt"
	"log"

	"stock-backend/internal/database"
	"stock-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// snapshot encodes v as JSON text; a nil or unencodable value is stored as "null".
func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// WriteLog inserts one entry through db, so it can join a caller's transaction.
func WriteLog(db *gorm.DB, opts LogOptions) (*models.AuditLog, error) {
	entry := models.AuditLog{
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}
	if err := db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("audit log %s/%d: %w", opts.EntityType, opts.EntityID, err)
	}
	return &entry, nil
}

// Record writes to database.DB after the change has been committed. A failure
// is logged and never surfaces to the client.
func Record(opts LogOptions) {
	if _, err := WriteLog(database.DB, opts); err != nil {
		log.Printf("[WARN] %v", err)
	}
}
