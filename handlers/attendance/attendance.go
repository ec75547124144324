package attendance

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// AttendanceHandler handles attendance requests
type AttendanceHandler struct {
	attendanceService *services.AttendanceService
}

func NewAttendanceHandler(attendanceService *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// ListAttendance handles GET /api/v1/attendance
func (h *AttendanceHandler) ListAttendance(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "15"))

	filter := services.AttendanceFilter{}
	if v := c.Query("student_id", ""); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid student ID filter")
		}
		u := uint(id)
		filter.StudentID = &u
	}
	if v := c.Query("subject_id", ""); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid subject ID filter")
		}
		u := uint(id)
		filter.SubjectID = &u
	}
	if v := c.Query("status", ""); v != "" {
		filter.Status = &v
	}
	if v := c.Query("month", ""); v != "" {
		filter.Month = &v
	}
	if v := c.Query("from", ""); v != "" {
		filter.From = &v
	}
	if v := c.Query("to", ""); v != "" {
		filter.To = &v
	}

	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	rows, total, err := h.attendanceService.List(c.Context(), filter, offset, pagination.PerPage)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	pagination = response.CalculatePagination(page, limit, total)
	return response.Paginated(c, rows, pagination)
}

// MarkAttendance handles POST /api/v1/attendance. Re-marking an existing
// (student, subject, date) overwrites the previous status.
func (h *AttendanceHandler) MarkAttendance(c *fiber.Ctx) error {
	var input services.AttendanceInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	row, created, err := h.attendanceService.Upsert(c.Context(), input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	if created {
		return response.Created(c, row)
	}
	return response.Success(c, row)
}

// BulkMarkAttendance handles POST /api/v1/attendance/bulk
func (h *AttendanceHandler) BulkMarkAttendance(c *fiber.Ctx) error {
	var input services.BulkAttendanceInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	created, updated, err := h.attendanceService.BulkUpsert(c.Context(), input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, fiber.Map{
		"created": created,
		"updated": updated,
	})
}

// ByDate handles GET /api/v1/attendance/by-date/:date
func (h *AttendanceHandler) ByDate(c *fiber.Ctx) error {
	date := c.Params("date")

	var subjectID *uint
	if v := c.Query("subject_id", ""); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid subject ID filter")
		}
		u := uint(id)
		subjectID = &u
	}

	rows, stats, err := h.attendanceService.ByDate(c.Context(), date, subjectID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, fiber.Map{
		"records":    rows,
		"statistics": stats,
	})
}

// Statistics handles GET /api/v1/attendance/statistics/:student_id
func (h *AttendanceHandler) Statistics(c *fiber.Ctx) error {
	studentID, err := parseID(c, "student_id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var subjectID *uint
	if v := c.Query("subject_id", ""); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid subject ID filter")
		}
		u := uint(id)
		subjectID = &u
	}
	var month *string
	if v := c.Query("month", ""); v != "" {
		month = &v
	}

	stats, err := h.attendanceService.Statistics(c.Context(), studentID, subjectID, month)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, stats)
}

// AvailableMonths handles GET /api/v1/attendance/months/:student_id
func (h *AttendanceHandler) AvailableMonths(c *fiber.Ctx) error {
	studentID, err := parseID(c, "student_id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	months, err := h.attendanceService.AvailableMonths(c.Context(), studentID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, months)
}

// UpdateAttendance handles PUT /api/v1/attendance/:id
func (h *AttendanceHandler) UpdateAttendance(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid attendance ID")
	}

	var input services.UpdateAttendanceInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	row, err := h.attendanceService.Update(c.Context(), id, input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, row)
}

// DeleteAttendance handles DELETE /api/v1/attendance/:id
func (h *AttendanceHandler) DeleteAttendance(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid attendance ID")
	}

	if err := h.attendanceService.Delete(c.Context(), id); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Attendance record deleted", nil)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
