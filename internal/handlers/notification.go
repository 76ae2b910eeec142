package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nchikhaoui/gestistock/internal/notify"
	"github.com/nchikhaoui/gestistock/internal/token"
)

type NotificationHandler struct {
	Emitter *notify.Emitter
}

func (h *NotificationHandler) Index(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	notifications, err := h.Emitter.ListFor(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	n, err := h.Emitter.MarkRead(c.Request().Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrNotFound):
			return errorResponse(c, http.StatusNotFound, err)
		case errors.Is(err, notify.ErrForbidden):
			return errorResponse(c, http.StatusForbidden, err)
		default:
			return errorResponse(c, http.StatusInternalServerError, err)
		}
	}
	return c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	if err := h.Emitter.MarkAllRead(c.Request().Context(), userID); err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
