package partners

import (
	"net/http"

	"courier-broker/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler exposes partner configuration administration.
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

// RegisterRoutes mounts the admin partner endpoints.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/partners", h.ListPartners)
	g.GET("/partners/:carrier", h.GetPartner)
	g.PUT("/partners/:carrier", h.UpdatePartner)
}

// ListPartners returns every active partner configuration.
func (h *Handler) ListPartners(c echo.Context) error {
	configs, err := h.svc.ListActive(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.ListPartners: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to list partners"})
	}
	return c.JSON(http.StatusOK, configs)
}

// GetPartner resolves one partner, including the static-default tier.
func (h *Handler) GetPartner(c echo.Context) error {
	code, ok := models.ParseCarrierCode(c.Param("carrier"))
	if !ok {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "unknown carrier"})
	}

	cfg, err := h.svc.Resolve(c.Request().Context(), code)
	if err != nil {
		c.Logger().Error("Handler.GetPartner: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to resolve partner"})
	}
	return c.JSON(http.StatusOK, cfg)
}

// UpdatePartner applies an admin change and invalidates the registry cache.
func (h *Handler) UpdatePartner(c echo.Context) error {
	code, ok := models.ParseCarrierCode(c.Param("carrier"))
	if !ok {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "unknown carrier"})
	}

	var req models.PartnerUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "validation failed: " + err.Error()})
	}

	cfg, err := h.svc.Update(c.Request().Context(), code, req)
	if err != nil {
		c.Logger().Error("Handler.UpdatePartner: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to update partner"})
	}
	return c.JSON(http.StatusOK, cfg)
}
