package notification

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

// NotificationHandler handles notification requests
type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications handles GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "15"))

	filter := services.NotificationFilter{}
	if v := c.Query("student_id", ""); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid student ID filter")
		}
		u := uint(id)
		filter.StudentID = &u
	}
	if v := c.Query("type", ""); v != "" {
		typeInt, err := strconv.Atoi(v)
		if err != nil || !model.NotificationType(typeInt).Valid() {
			return response.BadRequest(c, "Invalid notification type filter")
		}
		t := model.NotificationType(typeInt)
		filter.Type = &t
	}
	if v := c.Query("is_read", ""); v != "" {
		isRead := v == "true"
		filter.IsRead = &isRead
	}

	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	notifications, total, err := h.notificationService.List(c.Context(), filter, offset, pagination.PerPage)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	pagination = response.CalculatePagination(page, limit, total)
	return response.Paginated(c, notifications, pagination)
}

// GetNotification handles GET /api/v1/notifications/:id
func (h *NotificationHandler) GetNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	notification, err := h.notificationService.Get(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, notification)
}

// CreateNotification handles POST /api/v1/notifications
func (h *NotificationHandler) CreateNotification(c *fiber.Ctx) error {
	var input services.CreateNotificationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	notification, err := h.notificationService.Create(c.Context(), input)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Created(c, notification)
}

// MarkRead handles PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	notification, err := h.notificationService.MarkRead(c.Context(), id)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, notification)
}

// MarkAllRead handles PUT /api/v1/notifications/read-all/:student_id
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	studentID, err := parseID(c, "student_id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	count, err := h.notificationService.MarkAllRead(c.Context(), studentID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, fiber.Map{"marked": count})
}

// UnreadCount handles GET /api/v1/notifications/unread-count/:student_id
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	studentID, err := parseID(c, "student_id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	count, err := h.notificationService.UnreadCount(c.Context(), studentID)
	if err != nil {
		return response.FromServiceError(c, err)
	}
	return response.Success(c, fiber.Map{"unread": count})
}

// DeleteNotification handles DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.notificationService.Delete(c.Context(), id); err != nil {
		return response.FromServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Notification deleted successfully", nil)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
