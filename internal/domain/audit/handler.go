package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/pharmacy/internal/platform/auth"
	"github.com/clinicore/pharmacy/pkg/pagination"
)

type Handler struct {
	store *PGEmitter
}

func NewHandler(store *PGEmitter) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin"))
	g.GET("/audit-events", h.List)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.store.List(c.Request().Context(), c.QueryParam("kind"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
