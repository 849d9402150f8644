package inventory

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/pharmacy/internal/platform/auth"
)

type Handler struct {
	svc              *Service
	expiryWindowDays int
}

func NewHandler(svc *Service, expiryWindowDays int) *Handler {
	return &Handler{svc: svc, expiryWindowDays: expiryWindowDays}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "doctor", "pharmacist"))
	readGroup.GET("/medicines/:id/batches", h.ListBatches)
	readGroup.GET("/medicines/:id/stock", h.StockOnHand)
	readGroup.GET("/inventory/expiring", h.Expiring)
	readGroup.GET("/inventory/reorder-list", h.ReorderList)

	writeGroup := api.Group("", auth.RequireRole("admin", "pharmacist"))
	writeGroup.POST("/batches", h.ReceiveBatch)
}

func (h *Handler) ReceiveBatch(c echo.Context) error {
	var b Batch
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ReceiveBatch(c.Request().Context(), &b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) ListBatches(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if c.QueryParam("active") == "true" {
		batches, err := h.svc.ActiveBatches(c.Request().Context(), id, time.Now().UTC())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, batches)
	}
	batches, err := h.svc.Snapshot(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, batches)
}

func (h *Handler) StockOnHand(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	onHand, err := h.svc.StockOnHand(c.Request().Context(), id, time.Now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"medicine_id": id,
		"on_hand":     onHand,
	})
}

func (h *Handler) Expiring(c echo.Context) error {
	days := h.expiryWindowDays
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		days = parsed
	}
	batches, err := h.svc.ExpiringBatches(c.Request().Context(), time.Now().UTC(), days)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"within_days": days,
		"batches":     batches,
	})
}

func (h *Handler) ReorderList(c echo.Context) error {
	signals, err := h.svc.ReorderList(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if signals == nil {
		signals = []*ReorderSignal{}
	}
	return c.JSON(http.StatusOK, signals)
}
