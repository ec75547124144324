package test

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// TestHandler handles test and exam requests
type TestHandler struct {
	testService   *services.TestService
	resultService *services.ResultService
}

func NewTestHandler(testService *services.TestService, resultService *services.ResultService) *TestHandler {
	return &TestHandler{testService: testService, resultService: resultService}
}

// ListTests handles GET /api/v1/tests
func (h *TestHandler) ListTests(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "15"))

	filter := services.TestFilter{}
	if typeStr := c.Query("type", ""); typeStr != "" {
		typeInt, err := strconv.Atoi(typeStr)
		if err != nil || !model.TestType(typeInt).Valid() {
			return response.BadRequest(c, "Invalid test type filter")
		}
		t := model.TestType(typeInt)
		filter.Type = &t
	}
	if subjectStr := c.Query("subject_id", ""); subjectStr != "" {
		subjectID, err := strconv.ParseUint(subjectStr, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid subject ID filter")
		}
		id := uint(subjectID)
		filter.SubjectID = &id
	}
	if from := c.Query("from", ""); from != "" {
		filter.From = &from
	}
	if to := c.Query("to", ""); to != "" {
		filter.To = &to
	}

	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	tests, total, err := h.testService.ListTests(c.Context(), filter, offset, pagination.PerPage)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	pagination = response.CalculatePagination(page, limit, total)
	return response.Paginated(c, tests, pagination)
}

// GetTest handles GET /api/v1/tests/:id
func (h *TestHandler) GetTest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid test ID")
	}

	test, err := h.testService.GetTest(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, test)
}

// CreateTest handles POST /api/v1/tests
func (h *TestHandler) CreateTest(c *fiber.Ctx) error {
	var input services.CreateTestInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	test, err := h.testService.CreateTest(c.Context(), input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Created(c, test)
}

// UpdateTest handles PUT /api/v1/tests/:id
func (h *TestHandler) UpdateTest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid test ID")
	}

	var input services.UpdateTestInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	test, err := h.testService.UpdateTest(c.Context(), id, input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, test)
}

// DeleteTest handles DELETE /api/v1/tests/:id
func (h *TestHandler) DeleteTest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid test ID")
	}

	if err := h.testService.DeleteTest(c.Context(), id); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Test deleted successfully", nil)
}

// TestResults handles GET /api/v1/tests/:id/results
func (h *TestHandler) TestResults(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid test ID")
	}

	results, err := h.resultService.ResultsForTest(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, results)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
