package report

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// ReportHandler handles performance report requests
type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// OverallPerformance handles GET /api/v1/reports/performance
func (h *ReportHandler) OverallPerformance(c *fiber.Ctx) error {
	var minAverage *float64
	if v := c.Query("min_average", ""); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return response.BadRequest(c, "Invalid minimum average")
		}
		minAverage = &parsed
	}

	rows, err := h.reportService.OverallPerformance(c.Context(), minAverage)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, rows)
}

// SubjectPerformance handles GET /api/v1/reports/subjects/:subject_id
func (h *ReportHandler) SubjectPerformance(c *fiber.Ctx) error {
	subjectID, err := parseID(c, "subject_id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	rows, err := h.reportService.SubjectPerformance(c.Context(), subjectID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, rows)
}

// AttendanceReport handles GET /api/v1/reports/attendance
func (h *ReportHandler) AttendanceReport(c *fiber.Ctx) error {
	var from, to *string
	if v := c.Query("from", ""); v != "" {
		from = &v
	}
	if v := c.Query("to", ""); v != "" {
		to = &v
	}

	rows, err := h.reportService.AttendanceReport(c.Context(), from, to)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, rows)
}

// ClassReport handles GET /api/v1/reports/class/:class
func (h *ReportHandler) ClassReport(c *fiber.Ctx) error {
	class, err := strconv.Atoi(c.Params("class"))
	if err != nil || class < 1 {
		return response.BadRequest(c, "Invalid class")
	}

	report, err := h.reportService.ClassReportFor(c.Context(), class)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, report)
}

// TopPerformers handles GET /api/v1/reports/top-performers
func (h *ReportHandler) TopPerformers(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	rows, err := h.reportService.TopPerformers(c.Context(), limit)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, rows)
}

// StrugglingStudents handles GET /api/v1/reports/struggling
func (h *ReportHandler) StrugglingStudents(c *fiber.Ctx) error {
	threshold := 40.0
	if v := c.Query("threshold", ""); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return response.BadRequest(c, "Invalid threshold")
		}
		threshold = parsed
	}

	rows, err := h.reportService.StrugglingStudents(c.Context(), threshold)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, rows)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
