package grade

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// GradeHandler handles grade level requests
type GradeHandler struct {
	gradeService *services.GradeService
}

func NewGradeHandler(gradeService *services.GradeService) *GradeHandler {
	return &GradeHandler{gradeService: gradeService}
}

// ListGrades handles GET /api/v1/grades. Inactive grades show up only
// with ?all=true.
func (h *GradeHandler) ListGrades(c *fiber.Ctx) error {
	activeOnly := c.Query("all", "") != "true"

	grades, err := h.gradeService.List(c.Context(), activeOnly)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, grades)
}

// GetGrade handles GET /api/v1/grades/:id
func (h *GradeHandler) GetGrade(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid grade ID")
	}

	grade, err := h.gradeService.Get(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, grade)
}

// CreateGrade handles POST /api/v1/grades
func (h *GradeHandler) CreateGrade(c *fiber.Ctx) error {
	var input services.GradeInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	grade, err := h.gradeService.Create(c.Context(), input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Created(c, grade)
}

// UpdateGrade handles PUT /api/v1/grades/:id
func (h *GradeHandler) UpdateGrade(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid grade ID")
	}

	var input services.GradeInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	grade, err := h.gradeService.Update(c.Context(), id, input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, grade)
}

// DeleteGrade handles DELETE /api/v1/grades/:id
func (h *GradeHandler) DeleteGrade(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid grade ID")
	}

	if err := h.gradeService.Delete(c.Context(), id); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Grade deleted successfully", nil)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
