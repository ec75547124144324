package subject

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// SubjectHandler handles subject requests
type SubjectHandler struct {
	db             *gorm.DB
	subjectService *services.SubjectService
}

func NewSubjectHandler(db *gorm.DB, subjectService *services.SubjectService) *SubjectHandler {
	return &SubjectHandler{db: db, subjectService: subjectService}
}

// ListSubjects handles GET /api/v1/subjects
func (h *SubjectHandler) ListSubjects(c *fiber.Ctx) error {
	var subjectType *model.SubjectType
	if typeStr := c.Query("type", ""); typeStr != "" {
		typeInt, err := strconv.Atoi(typeStr)
		if err != nil || !model.SubjectType(typeInt).Valid() {
			return response.BadRequest(c, "Invalid subject type filter")
		}
		t := model.SubjectType(typeInt)
		subjectType = &t
	}

	subjects, err := h.subjectService.List(c.Context(), subjectType)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, subjects)
}

// GetSubject handles GET /api/v1/subjects/:id
func (h *SubjectHandler) GetSubject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	subject, err := h.subjectService.Get(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, subject)
}

// CreateSubject handles POST /api/v1/subjects
func (h *SubjectHandler) CreateSubject(c *fiber.Ctx) error {
	var input services.SubjectInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	subject, err := h.subjectService.Create(c.Context(), input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Created(c, subject)
}

// UpdateSubject handles PUT /api/v1/subjects/:id
func (h *SubjectHandler) UpdateSubject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	var input services.UpdateSubjectInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	subject, err := h.subjectService.Update(c.Context(), id, input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, subject)
}

// DeleteSubject handles DELETE /api/v1/subjects/:id
func (h *SubjectHandler) DeleteSubject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	if err := h.subjectService.Delete(c.Context(), id); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Subject deleted successfully", nil)
}

// AssignTeacherRequest carries the teacher user to link.
type AssignTeacherRequest struct {
	TeacherID uint `json:"teacherId" validate:"required"`
}

// AssignTeacher handles POST /api/v1/subjects/:id/teachers
func (h *SubjectHandler) AssignTeacher(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	var req AssignTeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.TeacherID == 0 {
		return response.BadRequest(c, "Teacher ID is required")
	}

	assignment, created, err := h.subjectService.AssignTeacher(c.Context(), id, req.TeacherID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	if !created {
		return response.SuccessWithMessage(c, "Teacher already assigned", assignment)
	}
	return response.Created(c, assignment)
}

// RemoveTeacher handles DELETE /api/v1/subjects/:id/teachers/:teacher_id
func (h *SubjectHandler) RemoveTeacher(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}
	teacherID, err := parseID(c, "teacher_id")
	if err != nil {
		return response.BadRequest(c, "Invalid teacher ID")
	}

	if err := h.subjectService.RemoveTeacher(c.Context(), id, teacherID); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Teacher removed from subject", nil)
}

// SubjectTeachers handles GET /api/v1/subjects/:id/teachers
func (h *SubjectHandler) SubjectTeachers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	var assignments []model.TeacherSubject
	err = h.db.
		Preload("Teacher").
		Where("subject_id = ?", id).
		Order("id").
		Find(&assignments).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch subject teachers")
	}
	return response.Success(c, assignments)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
