package bookings

import (
	"errors"
	"net/http"

	"courier-broker/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler exposes booking creation and shipment lookup.
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

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/bookings", h.CreateBooking)
	g.GET("/shipments/:awb", h.GetShipment)
}

// CreateBooking settles a selected quote. The response is always a success
// envelope: either an automated carrier AWB or a manual placeholder. The only
// user-visible failures are bad input, an expired quote and insufficient funds.
func (h *Handler) CreateBooking(c echo.Context) error {
	userID := c.Get("userID").(string)

	var req models.BookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "validation failed: " + err.Error()})
	}

	result, err := h.svc.Book(c.Request().Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "quote not found or expired"})
		case errors.Is(err, models.ErrInsufficientBalance):
			return c.JSON(http.StatusPaymentRequired, models.ErrorResponse{Message: "insufficient wallet balance"})
		}
		c.Logger().Error("Handler.CreateBooking: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to settle booking"})
	}
	return c.JSON(http.StatusCreated, result)
}

// GetShipment returns a shipment with its event history.
func (h *Handler) GetShipment(c echo.Context) error {
	shipment, err := h.svc.GetShipment(c.Request().Context(), c.Param("awb"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "shipment not found"})
		}
		c.Logger().Error("Handler.GetShipment: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to load shipment"})
	}
	return c.JSON(http.StatusOK, shipment)
}
