package stock

import (
	"errors"
	"fmt"

	"stock-backend/internal/models"

	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

// Ref points a movement at the document that caused it.
type Ref struct {
	Type string
	ID   uint
	Note string
}

// Apply adds delta to the product's stock and appends a StockMovement, both on tx.
// The increment is done in SQL so concurrent writers never overwrite each
// other's changes. A zero delta records nothing.
func Apply(tx *gorm.DB, productID uint, delta int, kind models.MovementKind, ref Ref) (*models.StockMovement, error) {
	if delta == 0 {
		return nil, nil
	}

	res := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return nil, fmt.Errorf("stock update for product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}

	var after int
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Select("stock").Scan(&after).Error; err != nil {
		return nil, fmt.Errorf("stock read for product %d: %w", productID, err)
	}

	m := models.StockMovement{
		ProductID:     productID,
		Kind:          kind,
		Quantity:      delta,
		StockBefore:   after - delta,
		StockAfter:    after,
		ReferenceType: ref.Type,
		Note:          ref.Note,
	}
	if ref.ID != 0 {
		id := ref.ID
		m.ReferenceID = &id
	}
	if err := tx.Create(&m).Error; err != nil {
		return nil, fmt.Errorf("stock movement for product %d: %w", productID, err)
	}
	return &m, nil
}

// OnHand recomputes a product's stock from its movements.
func OnHand(db *gorm.DB, productID uint) (int, error) {
	var total int
	err := db.Model(&models.StockMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}
