package student

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// StudentHandler handles student directory and report requests
type StudentHandler struct {
	db             *gorm.DB
	accountService *services.AccountService
	reportService  *services.ReportService
}

func NewStudentHandler(db *gorm.DB, accountService *services.AccountService,
	reportService *services.ReportService) *StudentHandler {
	return &StudentHandler{
		db:             db,
		accountService: accountService,
		reportService:  reportService,
	}
}

// ListStudents handles GET /api/v1/students
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "15"))
	search := c.Query("search", "")

	query := h.db.Model(&model.Student{}).
		Joins("JOIN users ON users.id = students.user_id")

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("users.name LIKE ? OR students.student_number LIKE ?", pattern, pattern)
	}
	if grade := c.Query("grade", ""); grade != "" {
		query = query.Where("students.grade_label = ?", grade)
	}
	if section := c.Query("section", ""); section != "" {
		query = query.Where("students.section = ?", section)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count students")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var students []model.Student
	err := query.
		Preload("User").
		Preload("GradeLevel").
		Order("students.id").
		Limit(pagination.PerPage).Offset(offset).
		Find(&students).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch students")
	}
	return response.Paginated(c, students, pagination)
}

// StudentsWithoutParent handles GET /api/v1/students/without-parents
func (h *StudentHandler) StudentsWithoutParent(c *fiber.Ctx) error {
	students, err := h.accountService.StudentsWithoutParent(c.Context())
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, students)
}

// GetStudent handles GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var student model.Student
	err = h.db.
		Preload("User").
		Preload("Parent").
		Preload("GradeLevel").
		First(&student, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to fetch student")
	}
	return response.Success(c, student)
}

// UpdateStudent handles PUT /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var student model.Student
	if err := h.db.First(&student, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to fetch student")
	}

	var input services.UpdateAccountInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.accountService.UpdateAccount(c.Context(), student.UserID, input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, user)
}

// UpdateParentRequest carries the new parent link.
type UpdateParentRequest struct {
	ParentID uint `json:"parentId" validate:"required"`
}

// UpdateParent handles PUT /api/v1/students/:id/parent
func (h *StudentHandler) UpdateParent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var req UpdateParentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ParentID == 0 {
		return response.BadRequest(c, "Parent ID is required")
	}

	if err := h.accountService.LinkStudentToParent(c.Context(), id, req.ParentID); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Parent updated successfully", nil)
}

// RemoveParent handles DELETE /api/v1/students/:id/parent
func (h *StudentHandler) RemoveParent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	if err := h.accountService.UnlinkStudentFromParent(c.Context(), id); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Parent link removed", nil)
}

// Performance handles GET /api/v1/students/:id/performance
func (h *StudentHandler) Performance(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	perf, err := h.reportService.StudentPerformanceFor(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, perf)
}

// Report handles GET /api/v1/students/:id/report
func (h *StudentHandler) Report(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	report, err := h.reportService.ComprehensiveReportFor(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, report)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
