package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/pickup"
	"github.com/samudra-paket/erp/backend/pkg/logger"
)

// PickupItemHandler handles HTTP requests for pickup items
type PickupItemHandler struct {
	workflow *pickup.Workflow
	errs     errorResponder
}

// NewPickupItemHandler creates a new PickupItemHandler
func NewPickupItemHandler(workflow *pickup.Workflow, log *logger.Logger) *PickupItemHandler {
	return &PickupItemHandler{workflow: workflow, errs: errorResponder{log: log}}
}

// RegisterPickupItemRoutes registers pickup item routes
func (h *PickupItemHandler) RegisterPickupItemRoutes(g *echo.Group) {
	g.POST("/pickup-items", h.CreateItem)
	g.GET("/pickup-items/:id", h.GetItem)
	g.PATCH("/pickup-items/:id/status", h.UpdateStatus)
	g.PATCH("/pickup-items/:id/measurements", h.UpdateMeasurements)
	g.POST("/pickup-items/:id/images", h.AddImage)
	g.DELETE("/pickup-items/:id/images/:imageId", h.RemoveImage)
	g.PUT("/pickup-items/:id/signature", h.SetSignature)
	g.GET("/pickup-items/:id/rates", h.QuoteRates)
	g.GET("/pickup-requests/:id/items", h.ListItems)
	g.POST("/pickup-requests/:id/reconcile", h.Reconcile)
}

// CreateItem registers an item on a pickup request
func (h *PickupItemHandler) CreateItem(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.CreatePickupItemRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	item, err := h.workflow.CreateItem(c.Request().Context(), req, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{"item": item})
}

func (h *PickupItemHandler) GetItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	item, err := h.workflow.GetItem(c.Request().Context(), id)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"item": item})
}

// ListItems returns every item of a pickup request
func (h *PickupItemHandler) ListItems(c echo.Context) error {
	requestID, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	items, err := h.workflow.ListItems(c.Request().Context(), requestID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// UpdateStatus moves an item through the verification workflow
func (h *PickupItemHandler) UpdateStatus(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	var req models.UpdateItemStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return h.errs.respond(c, err)
	}
	item, err := h.workflow.UpdateItemStatus(c.Request().Context(), id, req.Status, userID, req.Notes)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"item": item})
}

func (h *PickupItemHandler) UpdateMeasurements(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	var req models.UpdateMeasurementsRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	item, err := h.workflow.UpdateMeasurements(c.Request().Context(), id, req, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"item": item})
}

func (h *PickupItemHandler) AddImage(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	var req models.AddImageRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	item, err := h.workflow.AddImage(c.Request().Context(), id, req, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{"item": item})
}

func (h *PickupItemHandler) RemoveImage(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	item, err := h.workflow.RemoveImage(c.Request().Context(), id, c.Param("imageId"), userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"item": item})
}

func (h *PickupItemHandler) SetSignature(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	var req models.SignatureRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	item, err := h.workflow.SetSignature(c.Request().Context(), id, req, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"item": item})
}

// QuoteRates prices forwarder rates for the item.
// Query: forwarderId, originProvince, originCity, destinationProvince, destinationCity.
func (h *PickupItemHandler) QuoteRates(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	origin, destination, err := routeFromQuery(c)
	if err != nil {
		return h.errs.respond(c, err)
	}
	quotes, err := h.workflow.QuoteRates(c.Request().Context(), id, c.QueryParam("forwarderId"), origin, destination)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"quotes": quotes})
}

// Reconcile re-derives a pickup request's status from its items
func (h *PickupItemHandler) Reconcile(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return h.errs.respond(c, err)
	}
	req, err := h.workflow.ReconcileRequestStatus(c.Request().Context(), requestID, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"pickupRequest": req})
}

func routeFromQuery(c echo.Context) (models.Area, models.Area, error) {
	origin := models.Area{Province: c.QueryParam("originProvince"), City: c.QueryParam("originCity")}
	destination := models.Area{Province: c.QueryParam("destinationProvince"), City: c.QueryParam("destinationCity")}
	fields := map[string]string{}
	if origin.Province == "" {
		fields["originProvince"] = "is required"
	}
	if destination.Province == "" {
		fields["destinationProvince"] = "is required"
	}
	if len(fields) > 0 {
		return origin, destination, &models.ValidationError{Fields: fields}
	}
	return origin, destination, nil
}
