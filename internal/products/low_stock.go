package products

import (
	"math"
	"sort"

	"stock-backend/internal/config"
	"stock-backend/internal/database"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LowStockResponse struct {
	ProductResponse
	StockPercentage float64 `json:"stock_percentage"` // stock / min_stock * 100
	Critical        bool    `json:"critical"`
}

// IsCritical reports whether stock has fallen to ratio*min_stock or below.
// Products without a reorder threshold are never critical.
func IsCritical(stock, minStock int, ratio float64) bool {
	if minStock <= 0 {
		return false
	}
	return float64(stock) <= ratio*float64(minStock)
}

// GET /api/products/low-stock/
// Products at or below their reorder threshold, most depleted first.
func LowStockHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.
			Where("min_stock > 0 AND stock <= min_stock").
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Low stock products could not be listed.")
		}

		res := make([]LowStockResponse, 0, len(products))
		for _, p := range products {
			pct := math.Round(float64(p.Stock)/float64(p.MinStock)*10000) / 100
			res = append(res, LowStockResponse{
				ProductResponse: toResponse(p),
				StockPercentage: pct,
				Critical:        IsCritical(p.Stock, p.MinStock, cfg.LowStockRatio),
			})
		}

		sort.SliceStable(res, func(i, j int) bool {
			if res[i].StockPercentage != res[j].StockPercentage {
				return res[i].StockPercentage < res[j].StockPercentage
			}
			return res[i].Name < res[j].Name
		})
		return c.JSON(res)
	}
}
