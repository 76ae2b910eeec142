package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/hash"
	"github.com/nchikhaoui/gestistock/internal/models"
	"github.com/nchikhaoui/gestistock/internal/token"
)

type AuthHandler struct {
	DB     *gorm.DB
	Tokens *token.Service
}

func userPayload(u *models.User) echo.Map {
	return echo.Map{
		"id":               u.ID,
		"name":             u.Name,
		"email":            u.Email,
		"Nom_Utilisateur":  u.Name,
		"Type_Utilisateur": u.Role,
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "email and password are required")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid credentials")
	}

	signed, err := h.Tokens.Issue(&user, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create token")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "login successful",
		"token":   signed,
		"user":    userPayload(&user),
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := token.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": userPayload(&user)})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	raw, _ := c.Get("token").(string)
	if raw != "" {
		if err := h.Tokens.Revoke(raw); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
