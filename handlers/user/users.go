package user

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// UserHandler handles user account requests
type UserHandler struct {
	db             *gorm.DB
	accountService *services.AccountService
}

func NewUserHandler(db *gorm.DB, accountService *services.AccountService) *UserHandler {
	return &UserHandler{db: db, accountService: accountService}
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "15"))
	search := c.Query("search", "")

	query := h.db.Model(&model.User{})

	if roleStr := c.Query("role", ""); roleStr != "" {
		roleInt, err := strconv.Atoi(roleStr)
		if err != nil || !model.Role(roleInt).Valid() {
			return response.BadRequest(c, "Invalid role filter")
		}
		query = query.Where("role = ?", roleInt)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var users []model.User
	if err := query.Order("id").Limit(pagination.PerPage).Offset(offset).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}
	return response.Paginated(c, users, pagination)
}

// SearchUsers handles GET /api/v1/users/search
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	term := c.Query("q", "")
	if term == "" {
		return response.BadRequest(c, "Search term is required")
	}

	pattern := "%" + term + "%"
	var users []model.User
	err := h.db.Where("name LIKE ? OR email LIKE ?", pattern, pattern).
		Order("name").
		Limit(25).
		Find(&users).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to search users")
	}
	return response.Success(c, users)
}

// GetUser handles GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.accountService.GetUser(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, user)
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var input services.CreateAccountInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.accountService.CreateAccount(c.Context(), input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Created(c, user)
}

// UpdateUser handles PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var input services.UpdateAccountInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.accountService.UpdateAccount(c.Context(), id, input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, user)
}

// DeleteUser handles DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.accountService.DeleteUser(c.Context(), id); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "User deleted successfully", nil)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
