package rates

import (
	"errors"
	"net/http"

	"courier-broker/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler exposes rate shopping and rate card administration.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the customer quote endpoint.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/rates/quote", h.GetQuotes)
}

// RegisterAdminRoutes mounts rate card administration.
func (h *Handler) RegisterAdminRoutes(g *echo.Group) {
	g.PUT("/ratecards", h.UpsertRateCard)
}

// GetQuotes validates the request and fans it out across partners. Partners
// that fail are silently omitted; the request only errors on bad input.
func (h *Handler) GetQuotes(c echo.Context) error {
	var req models.QuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "validation failed: " + err.Error()})
	}

	quotes, err := h.svc.QuoteAll(c.Request().Context(), req)
	if err != nil {
		c.Logger().Error("Handler.GetQuotes: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to fetch quotes"})
	}
	return c.JSON(http.StatusOK, quotes)
}

// UpsertRateCard replaces one slab table.
func (h *Handler) UpsertRateCard(c echo.Context) error {
	var req models.RateCardUpsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "validation failed: " + err.Error()})
	}

	entry, err := h.svc.UpsertRateCard(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrUnknownCarrier) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "unknown carrier"})
		}
		c.Logger().Error("Handler.UpsertRateCard: ", err)
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, entry)
}
