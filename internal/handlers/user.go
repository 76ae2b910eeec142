package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/hash"
	"github.com/nchikhaoui/gestistock/internal/models"
)

type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) Index(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Store(c echo.Context) error {
	var req struct {
		Name     string `json:"Nom_Utilisateur"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"Type_Utilisateur"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Nom_Utilisateur, email and password are required"))
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if count > 0 {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("email already exists"))
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	role := req.Role
	if role == "" {
		role = "vendeur"
	}
	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Destroy(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var referenced int64
	if err := h.DB.Model(&models.Order{}).Where("user_id = ?", id).Count(&referenced).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if referenced > 0 {
		return errorResponse(c, http.StatusConflict, errors.New("user is referenced by existing orders"))
	}

	if err := h.DB.Delete(&user).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
