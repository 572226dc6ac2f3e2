package wallet

import (
	"net/http"
	"strconv"

	"courier-broker/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler exposes wallet balance, recharge and history.
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
	g.GET("/wallet/balance", h.GetBalance)
	g.POST("/wallet/recharge", h.Recharge)
	g.GET("/wallet/history", h.GetHistory)
}

func (h *Handler) GetBalance(c echo.Context) error {
	userID := c.Get("userID").(string)

	balance, err := h.svc.CheckBalance(c.Request().Context(), userID)
	if err != nil {
		c.Logger().Error("Handler.GetBalance: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to fetch balance"})
	}
	return c.JSON(http.StatusOK, map[string]float64{"balance": balance})
}

func (h *Handler) Recharge(c echo.Context) error {
	userID := c.Get("userID").(string)

	var req models.RechargeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "validation failed: " + err.Error()})
	}

	entry, err := h.svc.Recharge(c.Request().Context(), userID, req)
	if err != nil {
		c.Logger().Error("Handler.Recharge: ", err)
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{Message: "recharge failed"})
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) GetHistory(c echo.Context) error {
	userID := c.Get("userID").(string)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, total, err := h.svc.History(c.Request().Context(), userID, page, limit)
	if err != nil {
		c.Logger().Error("Handler.GetHistory: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "failed to fetch history"})
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": entries, "total": total})
}
