package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/notification"
	"github.com/samudra-paket/erp/backend/pkg/logger"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	inbox      *notification.Inbox
	dispatcher *notification.Dispatcher
	errs       errorResponder
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(inbox *notification.Inbox, dispatcher *notification.Dispatcher, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, dispatcher: dispatcher, errs: errorResponder{log: log}}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/:id/archive", h.Archive)
	g.DELETE("/notifications/:id", h.Delete)
	g.POST("/notifications/generate", h.Generate)
}

// GetNotifications returns paginated notifications for the current user
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter := models.NotificationFilter{
		Status: models.NotificationStatus(c.QueryParam("status")),
		Type:   c.QueryParam("type"),
	}

	result, err := h.inbox.List(c.Request().Context(), userID, filter, page, limit)
	if err != nil {
		return h.errs.respond(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": result.Notifications,
		},
		"meta": echo.Map{
			"currentPage":     result.CurrentPage,
			"totalPages":      result.TotalPages,
			"totalItems":      result.TotalItems,
			"itemsPerPage":    result.ItemsPerPage,
			"hasNextPage":     result.HasNextPage(),
			"hasPreviousPage": result.HasPreviousPage(),
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	count, err := h.inbox.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks a notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	n, err := h.inbox.MarkRead(c.Request().Context(), id, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"notification": n})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	updated, err := h.inbox.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"updated": updated})
}

func (h *NotificationHandler) Archive(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	n, err := h.inbox.Archive(c.Request().Context(), id, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"notification": n})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	if err := h.inbox.Delete(c.Request().Context(), id, userID); err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"deleted": true})
}

// Generate builds a notification from a template for a user. A null notification
// means the user's preferences suppressed it.
func (h *NotificationHandler) Generate(c echo.Context) error {
	if _, err := requireUser(c); err != nil {
		return err
	}
	var req models.GenerateNotificationRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return h.errs.respond(c, err)
	}
	n, err := h.dispatcher.GenerateFromTemplate(c.Request().Context(), req.TemplateCode, req.UserID, req.Data, req.Entity)
	if err != nil {
		return h.errs.respond(c, err)
	}
	if n == nil {
		return success(c, http.StatusOK, echo.Map{"notification": nil, "skipped": true})
	}
	return success(c, http.StatusCreated, echo.Map{"notification": n, "skipped": false})
}
