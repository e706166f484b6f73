package accounts

import (
	"fmt"
	"strings"

	"stock-backend/internal/apperr"
	"stock-backend/internal/audit"
	"stock-backend/internal/database"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CustomerRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type CustomerResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Address   *string `json:"address"`
	CreatedAt string  `json:"created_at"`
}

func toCustomerResponse(cu models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        cu.ID,
		Name:      cu.Name,
		Phone:     cu.Phone,
		Address:   cu.Address,
		CreatedAt: cu.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func applyCustomer(cu *models.Customer, body CustomerRequest, partial bool) error {
	if body.Name != nil || !partial {
		name := strings.TrimSpace(deref(body.Name))
		if name == "" {
			return apperr.Validation("name is required.")
		}
		cu.Name = name
	}
	if body.Phone != nil || !partial {
		phone := strings.TrimSpace(deref(body.Phone))
		if phone == "" {
			return apperr.Validation("phone is required.")
		}
		if len(phone) > maxPhoneLen {
			return apperr.Validation("phone must be at most %d characters.", maxPhoneLen)
		}
		cu.Phone = phone
	}
	if body.Address != nil || !partial {
		cu.Address = optional(body.Address)
	}
	return nil
}

func checkCustomerPhone(phone string, exceptID uint) error {
	var count int64
	if err := database.DB.Model(&models.Customer{}).
		Where("phone = ? AND id <> ?", phone, exceptID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validation("customer with this phone already exists.")
	}
	return nil
}

// GET /api/accounts/customers/
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customers []models.Customer
		if err := database.DB.Order("name asc, id asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Customers could not be listed.")
		}

		resp := make([]CustomerResponse, 0, len(customers))
		for _, cu := range customers {
			resp = append(resp, toCustomerResponse(cu))
		}
		return c.JSON(resp)
	}
}

// POST /api/accounts/customers/
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
		}

		var customer models.Customer
		if err := applyCustomer(&customer, body, false); err != nil {
			return apperr.ToFiber(err, "Customer could not be saved.")
		}
		if err := checkCustomerPhone(customer.Phone, 0); err != nil {
			return apperr.ToFiber(err, "Customer could not be saved.")
		}

		if err := database.DB.Create(&customer).Error; err != nil {
			return saveErr(err, "customer with this phone already exists.", "Customer could not be saved.")
		}

		resp := toCustomerResponse(customer)
		audit.Record(audit.LogOptions{
			EntityType:  "customer",
			EntityID:    customer.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Customer created: %s", customer.Name),
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/accounts/customers/:id/
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.ToFiber(apperr.Lookup(err, "Customer not found."), "Customer could not be loaded.")
		}
		return c.JSON(toCustomerResponse(customer))
	}
}

// PUT/PATCH /api/accounts/customers/:id/
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.ToFiber(apperr.Lookup(err, "Customer not found."), "Customer could not be loaded.")
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
		}

		before := toCustomerResponse(customer)
		if err := applyCustomer(&customer, body, c.Method() == fiber.MethodPatch); err != nil {
			return apperr.ToFiber(err, "Customer could not be updated.")
		}
		if err := checkCustomerPhone(customer.Phone, customer.ID); err != nil {
			return apperr.ToFiber(err, "Customer could not be updated.")
		}

		if err := database.DB.Save(&customer).Error; err != nil {
			return saveErr(err, "customer with this phone already exists.", "Customer could not be updated.")
		}

		after := toCustomerResponse(customer)
		audit.Record(audit.LogOptions{
			EntityType:  "customer",
			EntityID:    customer.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Customer updated: %s", customer.Name),
			Before:      before,
			After:       after,
		})

		return c.JSON(after)
	}
}

// DELETE /api/accounts/customers/:id/
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return apperr.ToFiber(apperr.Lookup(err, "Customer not found."), "Customer could not be loaded.")
		}

		if err := database.DB.Delete(&customer).Error; err != nil {
			return apperr.ToFiber(err, "Customer could not be deleted.")
		}

		audit.Record(audit.LogOptions{
			EntityType:  "customer",
			EntityID:    customer.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Customer deleted: %s", customer.Name),
			Before:      toCustomerResponse(customer),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
