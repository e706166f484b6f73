package stock

import (
	"strconv"

	"stock-backend/internal/apperr"
	"stock-backend/internal/database"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type MovementResponse struct {
	ID            uint                `json:"id"`
	ProductID     uint                `json:"product_id"`
	Kind          models.MovementKind `json:"kind"`
	Quantity      int                 `json:"quantity"`
	StockBefore   int                 `json:"stock_before"`
	StockAfter    int                 `json:"stock_after"`
	ReferenceType string              `json:"reference_type"`
	ReferenceID   *uint               `json:"reference_id"`
	Note          string              `json:"note"`
	CreatedAt     string              `json:"created_at"`
}

type ProductMovementsResponse struct {
	ProductID uint               `json:"product_id"`
	Stock     int                `json:"stock"`
	OnHand    int                `json:"on_hand"` // sum of movements
	Movements []MovementResponse `json:"movements"`
}

func toMovementResponses(ms []models.StockMovement) []MovementResponse {
	res := make([]MovementResponse, 0, len(ms))
	for _, m := range ms {
		res = append(res, MovementResponse{
			ID:            m.ID,
			ProductID:     m.ProductID,
			Kind:          m.Kind,
			Quantity:      m.Quantity,
			StockBefore:   m.StockBefore,
			StockAfter:    m.StockAfter,
			ReferenceType: m.ReferenceType,
			ReferenceID:   m.ReferenceID,
			Note:          m.Note,
			CreatedAt:     m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return res
}

// GET /api/stock/movements/?product_id=1&kind=sale
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.StockMovement{})

		if pidStr := c.Query("product_id"); pidStr != "" {
			pid, err := strconv.ParseUint(pidStr, 10, 32)
			if err != nil || pid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "product_id must be a positive integer.")
			}
			dbq = dbq.Where("product_id = ?", pid)
		}
		if kind := c.Query("kind"); kind != "" {
			dbq = dbq.Where("kind = ?", kind)
		}

		var movements []models.StockMovement
		if err := dbq.Order("id DESC").Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stock movements could not be listed.")
		}
		return c.JSON(toMovementResponses(movements))
	}
}

// GET /api/products/:id/movements/
func ProductMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p models.Product
		if err := database.DB.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.ToFiber(apperr.Lookup(err, "Product not found."), "Product could not be loaded.")
		}

		var movements []models.StockMovement
		if err := database.DB.Where("product_id = ?", p.ID).Order("id DESC").Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stock movements could not be listed.")
		}

		onHand, err := OnHand(database.DB, p.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stock could not be computed.")
		}

		return c.JSON(ProductMovementsResponse{
			ProductID: p.ID,
			Stock:     p.Stock,
			OnHand:    onHand,
			Movements: toMovementResponses(movements),
		})
	}
}
