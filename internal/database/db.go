package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"stock-backend/internal/config"
	"stock-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = Open(cfg.DatabaseDriver, cfg.DatabaseDSN, cfg.LogSQL)
	if err != nil {
		log.Fatalf("[FATAL] could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("[FATAL] AutoMigrate failed: %v", err)
	}

	log.Printf("Database connection (%s) ready. Migration complete.", cfg.DatabaseDriver)
}

// Open connects with the given driver. SQLite is limited to a single
// connection so that ":memory:" databases survive across queries.
func Open(driver, dsn string, logSQL bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	level := logger.Warn
	if logSQL {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.Supplier{},
		&models.Customer{},
		&models.PurchaseInvoice{},
		&models.PurchaseItem{},
		&models.SaleInvoice{},
		&models.SaleItem{},
		&models.StockMovement{},
		&models.AuditLog{},
	)
}
