package dispense

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/pharmacy/internal/domain/inventory"
	"github.com/clinicore/pharmacy/internal/platform/auth"
	"github.com/clinicore/pharmacy/pkg/pagination"
)

type Handler struct {
	coord *Coordinator
}

func NewHandler(coord *Coordinator) *Handler {
	return &Handler{coord: coord}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "doctor", "pharmacist"))
	readGroup.GET("/dispense/transactions/:id", h.GetTransaction)
	readGroup.GET("/patients/:id/dispense-transactions", h.ListByPatient)

	writeGroup := api.Group("", auth.RequireRole("admin", "pharmacist"))
	writeGroup.POST("/dispense", h.Dispense)

	adminGroup := api.Group("", auth.RequireRole("admin"))
	adminGroup.GET("/quarantine", h.ListQuarantined)
	adminGroup.DELETE("/quarantine/:medicineId", h.ClearQuarantine)
}

func (h *Handler) Dispense(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Actor == "" {
		req.Actor = auth.UserIDFromContext(c.Request().Context())
	}

	tx, err := h.coord.Dispense(c.Request().Context(), &req)
	if err != nil {
		return mapDispenseError(err)
	}
	return c.JSON(http.StatusCreated, tx)
}

// mapDispenseError translates coordinator failures into HTTP statuses. The
// conflict-class errors carry enough detail for the caller to decide how to
// resubmit.
func mapDispenseError(err error) error {
	var blocking *BlockingFindingsError
	if errors.As(err, &blocking) {
		return echo.NewHTTPError(http.StatusConflict, map[string]interface{}{
			"error":    "blocking safety findings",
			"findings": blocking.Findings,
		})
	}
	var insufficient *inventory.InsufficientStockError
	if errors.As(err, &insufficient) {
		return echo.NewHTTPError(http.StatusConflict, map[string]interface{}{
			"error":     "insufficient stock",
			"requested": insufficient.Requested,
			"available": insufficient.Available,
			"shortfall": insufficient.Shortfall(),
		})
	}
	var quarantined *QuarantinedError
	if errors.As(err, &quarantined) {
		return echo.NewHTTPError(http.StatusLocked, map[string]interface{}{
			"error":       "medicine quarantined",
			"medicine_id": quarantined.MedicineID,
			"reason":      quarantined.Reason,
		})
	}
	var invalid *inventory.InvalidBatchStateError
	if errors.As(err, &invalid) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	var contention *ContentionError
	if errors.As(err, &contention) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	if errors.Is(err, ErrLockTimeout) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	if errors.Is(err, ErrOverrideReasonRequired) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) GetTransaction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	tx, err := h.coord.GetTransaction(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "transaction not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tx)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	params := pagination.FromContext(c)
	items, total, err := h.coord.ListTransactionsByPatient(c.Request().Context(), patientID, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Transaction{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) ListQuarantined(c echo.Context) error {
	quarantined := h.coord.Quarantined()
	out := make([]map[string]interface{}, 0, len(quarantined))
	for id, reason := range quarantined {
		out = append(out, map[string]interface{}{
			"medicine_id": id,
			"reason":      reason,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ClearQuarantine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("medicineId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	h.coord.ClearQuarantine(id)
	return c.NoContent(http.StatusNoContent)
}
