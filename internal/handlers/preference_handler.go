package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/notification"
	"github.com/samudra-paket/erp/backend/pkg/logger"
)

// PreferenceHandler exposes the current user's notification preference
type PreferenceHandler struct {
	preferences *notification.Preferences
	errs        errorResponder
}

func NewPreferenceHandler(preferences *notification.Preferences, log *logger.Logger) *PreferenceHandler {
	return &PreferenceHandler{preferences: preferences, errs: errorResponder{log: log}}
}

func (h *PreferenceHandler) RegisterPreferenceRoutes(g *echo.Group) {
	g.GET("/notification-preferences", h.Get)
	g.PUT("/notification-preferences", h.Update)
	g.POST("/notification-preferences/push-tokens", h.RegisterPushToken)
}

func (h *PreferenceHandler) Get(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	pref, err := h.preferences.Get(c.Request().Context(), userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"preference": pref})
}

func (h *PreferenceHandler) Update(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.UpdatePreferenceRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	pref, err := h.preferences.Update(c.Request().Context(), userID, req)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"preference": pref})
}

func (h *PreferenceHandler) RegisterPushToken(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.RegisterPushTokenRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	pref, err := h.preferences.RegisterPushToken(c.Request().Context(), userID, req)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"preference": pref})
}
