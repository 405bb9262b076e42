package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// CustomersHandler exposes the customer directory to staff.
type CustomersHandler struct {
	directory *service.DirectoryService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(directory *service.DirectoryService) *CustomersHandler {
	return &CustomersHandler{directory: directory}
}

// List GET /api/customers.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	customers, err := h.directory.ListCustomers(c.Context(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(customers))
	for i := range customers {
		items = append(items, userResponse(&customers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/customers/:id.
func (h *CustomersHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	customer, err := h.directory.GetCustomer(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(customer)})
}
