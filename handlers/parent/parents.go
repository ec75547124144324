package parent

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// ParentHandler handles parent directory requests
type ParentHandler struct {
	db             *gorm.DB
	accountService *services.AccountService
}

func NewParentHandler(db *gorm.DB, accountService *services.AccountService) *ParentHandler {
	return &ParentHandler{db: db, accountService: accountService}
}

// ListParents handles GET /api/v1/parents
func (h *ParentHandler) ListParents(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "15"))
	search := c.Query("search", "")

	query := h.db.Model(&model.Parent{}).
		Joins("JOIN users ON users.id = parents.user_id")

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("users.name LIKE ? OR users.email LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count parents")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var parents []model.Parent
	err := query.
		Preload("User").
		Order("parents.id").
		Limit(pagination.PerPage).Offset(offset).
		Find(&parents).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch parents")
	}
	return response.Paginated(c, parents, pagination)
}

// GetParent handles GET /api/v1/parents/:id
func (h *ParentHandler) GetParent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid parent ID")
	}

	var parent model.Parent
	if err := h.db.Preload("User").First(&parent, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Parent not found")
		}
		return response.InternalServerError(c, "Failed to fetch parent")
	}
	return response.Success(c, parent)
}

// Children handles GET /api/v1/parents/:id/children. Children are
// resolved through students.parent_id, never stored on the parent.
func (h *ParentHandler) Children(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid parent ID")
	}

	var parent model.Parent
	if err := h.db.First(&parent, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Parent not found")
		}
		return response.InternalServerError(c, "Failed to fetch parent")
	}

	students, err := h.accountService.StudentsOfParent(c.Context(), parent.UserID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, students)
}

// DeleteParent handles DELETE /api/v1/parents/:id. Linked students are
// detached before the account goes away.
func (h *ParentHandler) DeleteParent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid parent ID")
	}

	var parent model.Parent
	if err := h.db.First(&parent, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Parent not found")
		}
		return response.InternalServerError(c, "Failed to fetch parent")
	}

	if err := h.accountService.DeleteUser(c.Context(), parent.UserID); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Parent deleted successfully", nil)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
