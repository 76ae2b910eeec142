package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nchikhaoui/gestistock/internal/stats"
)

type StatsHandler struct {
	Agg *stats.Aggregator
}

func (h *StatsHandler) Overview(c echo.Context) error {
	overview, err := h.Agg.Overview(c.Request().Context(), c.QueryParam("period"), time.Now())
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, overview)
}
