package tracking

import (
	"errors"
	"net/http"

	"courier-broker/internal/models"

	"github.com/labstack/echo/v4"
)

// Handler exposes live tracking.
type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/shipments/:awb/track", h.TrackShipment)
}

// TrackShipment returns the synchronized tracking snapshot for an AWB.
func (h *Handler) TrackShipment(c echo.Context) error {
	snap, err := h.svc.Track(c.Request().Context(), c.Param("awb"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "shipment not found"})
		}
		c.Logger().Error("Handler.TrackShipment: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to track shipment"})
	}
	return c.JSON(http.StatusOK, snap)
}
