package result

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// ResultHandler handles student test result requests
type ResultHandler struct {
	resultService *services.ResultService
}

func NewResultHandler(resultService *services.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// StudentResults handles GET /api/v1/students/:student_id/results
func (h *ResultHandler) StudentResults(c *fiber.Ctx) error {
	studentID, err := parseID(c, "student_id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	results, err := h.resultService.ResultsForStudent(c.Context(), studentID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, results)
}

// CreateResult handles POST /api/v1/results. A duplicate (student, test)
// pair is a conflict; the upsert endpoint is the overwrite path.
func (h *ResultHandler) CreateResult(c *fiber.Ctx) error {
	var input services.ResultInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.resultService.CreateResult(c.Context(), input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Created(c, result)
}

// UpsertResult handles PUT /api/v1/results
func (h *ResultHandler) UpsertResult(c *fiber.Ctx) error {
	var input services.ResultInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, created, err := h.resultService.UpsertResult(c.Context(), input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	if created {
		return response.Created(c, result)
	}
	return response.Success(c, result)
}

// UpdateResult handles PUT /api/v1/students/:student_id/results/:id
func (h *ResultHandler) UpdateResult(c *fiber.Ctx) error {
	studentID, err := parseID(c, "student_id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}
	resultID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid result ID")
	}

	var input services.UpdateResultInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.resultService.UpdateResult(c.Context(), studentID, resultID, input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, result)
}

// DeleteResult handles DELETE /api/v1/students/:student_id/results/:id
func (h *ResultHandler) DeleteResult(c *fiber.Ctx) error {
	studentID, err := parseID(c, "student_id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}
	resultID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid result ID")
	}

	if err := h.resultService.DeleteResult(c.Context(), studentID, resultID); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Result deleted successfully", nil)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
