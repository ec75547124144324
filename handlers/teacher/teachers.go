package teacher

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// TeacherHandler handles teacher directory requests
type TeacherHandler struct {
	db             *gorm.DB
	subjectService *services.SubjectService
	testService    *services.TestService
}

func NewTeacherHandler(db *gorm.DB, subjectService *services.SubjectService,
	testService *services.TestService) *TeacherHandler {
	return &TeacherHandler{
		db:             db,
		subjectService: subjectService,
		testService:    testService,
	}
}

// ListTeachers handles GET /api/v1/teachers
func (h *TeacherHandler) ListTeachers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "15"))
	search := c.Query("search", "")

	query := h.db.Model(&model.Teacher{}).
		Joins("JOIN users ON users.id = teachers.user_id")

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("users.name LIKE ? OR teachers.employee_number LIKE ?", pattern, pattern)
	}
	if department := c.Query("department", ""); department != "" {
		query = query.Where("teachers.department = ?", department)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count teachers")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var teachers []model.Teacher
	err := query.
		Preload("User").
		Order("teachers.id").
		Limit(pagination.PerPage).Offset(offset).
		Find(&teachers).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch teachers")
	}
	return response.Paginated(c, teachers, pagination)
}

// GetTeacher handles GET /api/v1/teachers/:id
func (h *TeacherHandler) GetTeacher(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid teacher ID")
	}

	var teacher model.Teacher
	err = h.db.Preload("User").First(&teacher, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Teacher not found")
		}
		return response.InternalServerError(c, "Failed to fetch teacher")
	}
	return response.Success(c, teacher)
}

// TeacherSubjects handles GET /api/v1/teachers/:id/subjects
func (h *TeacherHandler) TeacherSubjects(c *fiber.Ctx) error {
	teacher, err := h.loadTeacher(c)
	if err != nil {
		return response.FromServiceError(c, err)
	}

	subjects, err := h.subjectService.SubjectsOfTeacher(c.Context(), teacher.UserID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, subjects)
}

// TeacherTests handles GET /api/v1/teachers/:id/tests
func (h *TeacherHandler) TeacherTests(c *fiber.Ctx) error {
	teacher, err := h.loadTeacher(c)
	if err != nil {
		return response.FromServiceError(c, err)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "15"))
	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	tests, total, err := h.testService.ListTests(c.Context(),
		services.TestFilter{TeacherID: &teacher.UserID}, offset, pagination.PerPage)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	pagination = response.CalculatePagination(page, limit, total)
	return response.Paginated(c, tests, pagination)
}

func (h *TeacherHandler) loadTeacher(c *fiber.Ctx) (*model.Teacher, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, services.FieldErrors{"id": "invalid teacher ID"}
	}

	var teacher model.Teacher
	if err := h.db.First(&teacher, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: teacher %d", services.ErrNotFound, id)
		}
		return nil, err
	}
	return &teacher, nil
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
