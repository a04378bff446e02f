package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samudra-paket/erp/backend/internal/middleware"
	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func failure(c echo.Context, status int, code, message string, extra echo.Map) error {
	body := echo.Map{"code": code, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, echo.Map{"success": false, "error": body})
}

// errorResponder maps domain errors to HTTP statuses in the {success, error} envelope
type errorResponder struct {
	log *logger.Logger
}

func (r errorResponder) respond(c echo.Context, err error) error {
	var verr *models.ValidationError
	var pse *models.ParentSyncError
	switch {
	case errors.As(err, &verr):
		return failure(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", echo.Map{"fields": verr.Fields})
	case errors.As(err, &pse):
		r.log.WithFields(logger.Fields{"error": err.Error()}).Error("pickup request out of sync")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"data":    pse.Item,
			"error": echo.Map{
				"code":      "PARENT_SYNC_FAILED",
				"message":   err.Error(),
				"committed": pse.Committed,
				"requestId": pse.RequestID.Hex(),
			},
		})
	case errors.Is(err, models.ErrNotFound):
		return failure(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidTransition):
		return failure(c, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, models.ErrConflict):
		return failure(c, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, models.ErrDuplicateCode):
		return failure(c, http.StatusConflict, "DUPLICATE_CODE", err.Error(), nil)
	case errors.Is(err, models.ErrUnauthorizedAccess):
		return failure(c, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	}
	r.log.WithFields(logger.Fields{
		"method": c.Request().Method,
		"path":   c.Path(),
		"error":  err.Error(),
	}).Error("unhandled error")
	return failure(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

// getUserIDFromContext returns the authenticated user id, or "" when the request is anonymous.
func getUserIDFromContext(c echo.Context) string {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.UserID
}

func requireUser(c echo.Context) (string, error) {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return userID, nil
}

func paramID(c echo.Context, name string) (primitive.ObjectID, error) {
	return models.ParseID(name, c.Param(name))
}

func bindBody(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return nil
}
