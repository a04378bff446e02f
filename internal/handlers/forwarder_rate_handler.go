package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samudra-paket/erp/backend/internal/repositories"
	"github.com/samudra-paket/erp/backend/pkg/logger"
)

// ForwarderRateHandler lists forwarder tariffs for a route
type ForwarderRateHandler struct {
	rates repositories.ForwarderRateRepository
	errs  errorResponder
}

func NewForwarderRateHandler(rates repositories.ForwarderRateRepository, log *logger.Logger) *ForwarderRateHandler {
	return &ForwarderRateHandler{rates: rates, errs: errorResponder{log: log}}
}

func (h *ForwarderRateHandler) RegisterForwarderRateRoutes(g *echo.Group) {
	g.GET("/forwarders/:id/rates", h.GetRates)
}

// GetRates returns the active rates of one forwarder, cheapest first
func (h *ForwarderRateHandler) GetRates(c echo.Context) error {
	origin, destination, err := routeFromQuery(c)
	if err != nil {
		return h.errs.respond(c, err)
	}
	rates, err := h.rates.FindRatesForRoute(c.Request().Context(), c.Param("id"), origin, destination)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"rates": rates})
}
