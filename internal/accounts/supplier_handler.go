package accounts

import (
	"errors"
	"fmt"
	"strings"

	"stock-backend/internal/apperr"
	"stock-backend/internal/audit"
	"stock-backend/internal/database"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type SupplierRequest struct {
	Name        *string `json:"name"`
	CompanyName *string `json:"company_name"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
}

type SupplierResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	CompanyName *string `json:"company_name"`
	Phone       string  `json:"phone"`
	Address     *string `json:"address"`
	CreatedAt   string  `json:"created_at"`
}

func toSupplierResponse(s models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:          s.ID,
		Name:        s.Name,
		CompanyName: s.CompanyName,
		Phone:       s.Phone,
		Address:     s.Address,
		CreatedAt:   s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// applySupplier copies body onto s. partial allows missing required fields (PATCH).
func applySupplier(s *models.Supplier, body SupplierRequest, partial bool) error {
	if body.Name != nil || !partial {
		name := strings.TrimSpace(deref(body.Name))
		if name == "" {
			return apperr.Validation("name is required.")
		}
		s.Name = name
	}
	if body.Phone != nil || !partial {
		phone := strings.TrimSpace(deref(body.Phone))
		if phone == "" {
			return apperr.Validation("phone is required.")
		}
		if len(phone) > maxPhoneLen {
			return apperr.Validation("phone must be at most %d characters.", maxPhoneLen)
		}
		s.Phone = phone
	}
	if body.CompanyName != nil || !partial {
		s.CompanyName = optional(body.CompanyName)
	}
	if body.Address != nil || !partial {
		s.Address = optional(body.Address)
	}
	return nil
}

func checkSupplierPhone(phone string, exceptID uint) error {
	var count int64
	if err := database.DB.Model(&models.Supplier{}).
		Where("phone = ? AND id <> ?", phone, exceptID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validation("supplier with this phone already exists.")
	}
	return nil
}

func saveErr(err error, duplicateMsg, fallback string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fiber.NewError(fiber.StatusBadRequest, duplicateMsg)
	}
	return apperr.ToFiber(err, fallback)
}

// -------------------------
// Supplier CRUD
// -------------------------

// GET /api/accounts/suppliers/
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var suppliers []models.Supplier
		if err := database.DB.Order("name asc, id asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Suppliers could not be listed.")
		}

		resp := make([]SupplierResponse, 0, len(suppliers))
		for _, s := range suppliers {
			resp = append(resp, toSupplierResponse(s))
		}
		return c.JSON(resp)
	}
}

// POST /api/accounts/suppliers/
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
		}

		var supplier models.Supplier
		if err := applySupplier(&supplier, body, false); err != nil {
			return apperr.ToFiber(err, "Supplier could not be saved.")
		}
		if err := checkSupplierPhone(supplier.Phone, 0); err != nil {
			return apperr.ToFiber(err, "Supplier could not be saved.")
		}

		if err := database.DB.Create(&supplier).Error; err != nil {
			return saveErr(err, "supplier with this phone already exists.", "Supplier could not be saved.")
		}

		resp := toSupplierResponse(supplier)
		audit.Record(audit.LogOptions{
			EntityType:  "supplier",
			EntityID:    supplier.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Supplier created: %s", supplier.Name),
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/accounts/suppliers/:id/
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.ToFiber(apperr.Lookup(err, "Supplier not found."), "Supplier could not be loaded.")
		}
		return c.JSON(toSupplierResponse(supplier))
	}
}

// PUT/PATCH /api/accounts/suppliers/:id/
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.ToFiber(apperr.Lookup(err, "Supplier not found."), "Supplier could not be loaded.")
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
		}

		before := toSupplierResponse(supplier)
		if err := applySupplier(&supplier, body, c.Method() == fiber.MethodPatch); err != nil {
			return apperr.ToFiber(err, "Supplier could not be updated.")
		}
		if err := checkSupplierPhone(supplier.Phone, supplier.ID); err != nil {
			return apperr.ToFiber(err, "Supplier could not be updated.")
		}

		if err := database.DB.Save(&supplier).Error; err != nil {
			return saveErr(err, "supplier with this phone already exists.", "Supplier could not be updated.")
		}

		after := toSupplierResponse(supplier)
		audit.Record(audit.LogOptions{
			EntityType:  "supplier",
			EntityID:    supplier.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Supplier updated: %s", supplier.Name),
			Before:      before,
			After:       after,
		})

		return c.JSON(after)
	}
}

// DELETE /api/accounts/suppliers/:id/
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.ToFiber(apperr.Lookup(err, "Supplier not found."), "Supplier could not be loaded.")
		}

		if err := database.DB.Delete(&supplier).Error; err != nil {
			return apperr.ToFiber(err, "Supplier could not be deleted.")
		}

		audit.Record(audit.LogOptions{
			EntityType:  "supplier",
			EntityID:    supplier.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Supplier deleted: %s", supplier.Name),
			Before:      toSupplierResponse(supplier),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
