package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/notification"
	"github.com/samudra-paket/erp/backend/pkg/logger"
)

// TemplateHandler handles notification template administration
type TemplateHandler struct {
	templates *notification.Templates
	errs      errorResponder
}

func NewTemplateHandler(templates *notification.Templates, log *logger.Logger) *TemplateHandler {
	return &TemplateHandler{templates: templates, errs: errorResponder{log: log}}
}

func (h *TemplateHandler) RegisterTemplateRoutes(g *echo.Group) {
	g.POST("/notification-templates", h.Create)
	g.GET("/notification-templates/:code", h.Get)
	g.PUT("/notification-templates/:code", h.Update)
}

func (h *TemplateHandler) Create(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.CreateTemplateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	tpl, err := h.templates.Create(c.Request().Context(), req, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{"template": tpl})
}

func (h *TemplateHandler) Get(c echo.Context) error {
	tpl, err := h.templates.Get(c.Request().Context(), c.Param("code"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"template": tpl})
}

func (h *TemplateHandler) Update(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.UpdateTemplateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	tpl, err := h.templates.Update(c.Request().Context(), c.Param("code"), req, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"template": tpl})
}
