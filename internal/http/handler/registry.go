package handler

import (
	"github.com/gofiber/fiber/v2"

	"docmgmt/internal/model"
	"docmgmt/internal/service"
)

type activeBody struct {
	Active *bool `json:"active"`
}

// parseActive reads the {"active": bool} body shared by the lifecycle routes.
func parseActive(c *fiber.Ctx) (bool, error) {
	var body activeBody
	if err := c.BodyParser(&body); err != nil {
		return false, model.NewValidationError("active", "type", "must be a boolean")
	}
	if body.Active == nil {
		return false, model.NewValidationError("active", "required", "is required")
	}
	return *body.Active, nil
}

type resolveBody struct {
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
}

// ListDepartments returns departments ordered by name.
//
// @Summary List departments
// @Tags registry
// @Produce json
// @Param active_only query bool false "Only active records"
// @Success 200 {array} model.Department
// @Router /departments [get]
func ListDepartments(svc service.RegistryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListDepartments(c.UserContext(), c.QueryBool("active_only"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	}
}

// CreateDepartment registers a department.
//
// @Summary Create a department
// @Tags registry
// @Accept json
// @Produce json
// @Param body body service.DepartmentInput true "Department"
// @Success 201 {object} model.Department
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /departments [post]
func CreateDepartment(svc service.RegistryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.DepartmentInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		d, err := svc.CreateDepartment(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	}
}

// @Summary Get a department
// @Tags registry
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} model.Department
// @Failure 404 {object} errorPayload
// @Router /departments/{id} [get]
func GetDepartment(svc service.RegistryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := svc.GetDepartment(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(d)
	}
}

// SetDepartmentActive activates or deactivates a department.
//
// @Summary Toggle a department
// @Tags registry
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param body body activeBody true "New state"
// @Success 200 {object} model.Department
// @Failure 404 {object} errorPayload
// @Router /departments/{id}/active [patch]
func SetDepartmentActive(svc service.RegistryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		active, err := parseActive(c)
		if err != nil {
			return fail(c, err)
		}
		d, err := svc.SetDepartmentActive(c.UserContext(), c.Params("id"), active)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(d)
	}
}

// ListCategories returns the categories of one department, or of all of them.
//
// @Summary List categories
// @Tags registry
// @Produce json
// @Param department_id query string false "Department ID"
// @Param active_only query bool false "Only active records"
// @Success 200 {array} model.Category
// @Router /categories [get]
func ListCategories(svc service.RegistryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListCategories(c.UserContext(), c.Query("department_id"), c.QueryBool("active_only"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	}
}

// @Summary Create a category
// @Tags registry
// @Accept json
// @Produce json
// @Param body body service.CategoryInput true "Category"
// @Success 201 {object} model.Category
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /categories [post]
func CreateCategory(svc service.RegistryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CategoryInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		cat, err := svc.CreateCategory(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

// ResolveCategory finds a category by name within a department, creating it when absent.
//
// @Summary Get or create a category by name
// @Tags registry
// @Accept json
// @Produce json
// @Param body body resolveBody true "Name and department"
// @Success 200 {object} model.Category
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /categories/resolve [post]
func ResolveCategory(resolver service.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body resolveBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		cat, err := resolver.ResolveCategory(c.UserContext(), body.Name, body.DepartmentID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(cat)
	}
}

// @Summary Toggle a category
// @Tags registry
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param body body activeBody true "New state"
// @Success 200 {object} model.Category
// @Failure 404 {object} errorPayload
// @Router /categories/{id}/active [patch]
func SetCategoryActive(svc service.RegistryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		active, err := parseActive(c)
		if err != nil {
			return fail(c, err)
		}
		cat, err := svc.SetCategoryActive(c.UserContext(), c.Params("id"), active)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(cat)
	}
}

// ListTypes returns document types. With department_id only the types already used
// by that department's documents are listed.
//
// @Summary List document types
// @Tags registry
// @Produce json
// @Param department_id query string false "Department ID"
// @Param active_only query bool false "Only active records"
// @Success 200 {array} model.DocumentType
// @Router /types [get]
func ListTypes(svc service.RegistryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListTypes(c.UserContext(), c.Query("department_id"), c.QueryBool("active_only"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	}
}

// @Summary Create a document type
// @Tags registry
// @Accept json
// @Produce json
// @Param body body service.TypeInput true "Type"
// @Success 201 {object} model.DocumentType
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /types [post]
func CreateType(svc service.RegistryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.TypeInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		t, err := svc.CreateType(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}

// @Summary Get or create a document type by name
// @Tags registry
// @Accept json
// @Produce json
// @Param body body resolveBody true "Name"
// @Success 200 {object} model.DocumentType
// @Failure 400 {object} errorPayload
// @Router /types/resolve [post]
func ResolveType(resolver service.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body resolveBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		t, err := resolver.ResolveType(c.UserContext(), body.Name)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(t)
	}
}

// @Summary Toggle a document type
// @Tags registry
// @Accept json
// @Produce json
// @Param id path string true "Type ID"
// @Param body body activeBody true "New state"
// @Success 200 {object} model.DocumentType
// @Failure 404 {object} errorPayload
// @Router /types/{id}/active [patch]
func SetTypeActive(svc service.RegistryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		active, err := parseActive(c)
		if err != nil {
			return fail(c, err)
		}
		t, err := svc.SetTypeActive(c.UserContext(), c.Params("id"), active)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(t)
	}
}
