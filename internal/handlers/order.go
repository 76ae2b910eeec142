package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nchikhaoui/gestistock/internal/events"
	"github.com/nchikhaoui/gestistock/internal/order"
	"github.com/nchikhaoui/gestistock/internal/token"
	"github.com/nchikhaoui/gestistock/pkg/logging"
)

type OrderHandler struct {
	Svc      *order.Service
	Producer *events.Producer
}

func orderErrorStatus(err error) int {
	switch {
	case errors.Is(err, order.ErrValidation), errors.Is(err, order.ErrConflict):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	default:
		// Transaction failures, stock shortfall included, surface as a
		// plain-text reason the UI shows verbatim.
		return http.StatusInternalServerError
	}
}

func (h *OrderHandler) Index(c echo.Context) error {
	orders, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Show(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	ord, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, orderErrorStatus(err), err)
	}
	return c.JSON(http.StatusOK, ord)
}

func (h *OrderHandler) Store(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.store")

	var req order.CreateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("order rejected", "reason", "invalid body", "error", err)
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var callerID *uint
	if id, ok := token.UserID(c); ok {
		callerID = &id
	}

	ord, err := h.Svc.Create(ctx, req, callerID)
	if err != nil {
		l.Warn("order rejected", "name", req.Name, "error", err)
		return errorResponse(c, orderErrorStatus(err), err)
	}

	l.Info("order created", "order_id", ord.ID, "name", ord.Name, "total", ord.Total)
	publish(c, h.Producer, events.TopicOrders, ord.Name, map[string]any{
		"type":        "order_created",
		"Id_Commande": ord.ID,
		"Total_TTC":   ord.Total,
	})
	return c.JSON(http.StatusCreated, ord)
}

func (h *OrderHandler) Update(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req order.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	ord, err := h.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return errorResponse(c, orderErrorStatus(err), err)
	}
	return c.JSON(http.StatusOK, ord)
}

func (h *OrderHandler) Destroy(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(c, orderErrorStatus(err), err)
	}
	return c.NoContent(http.StatusNoContent)
}
