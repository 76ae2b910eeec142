package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
)

type CategoryHandler struct {
	DB *gorm.DB
}

type categoryRequest struct {
	Label *string `json:"Libelle_Cat"`
}

func (h *CategoryHandler) Index(c echo.Context) error {
	var categories []models.Category
	if err := h.DB.Order("id ASC").Find(&categories).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Show(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var category models.Category
	if err := h.DB.Preload("Products").First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Store(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Label == nil || *req.Label == "" {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Libelle_Cat required"))
	}
	category := models.Category{Label: *req.Label}
	if err := h.DB.Create(&category).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Label != nil {
		if *req.Label == "" {
			return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Libelle_Cat required"))
		}
		category.Label = *req.Label
	}
	if err := h.DB.Save(&category).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Destroy(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var referenced int64
	if err := h.DB.Model(&models.Product{}).Where("category_id = ?", id).Count(&referenced).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if referenced > 0 {
		return errorResponse(c, http.StatusConflict, errors.New("category still has products"))
	}

	if err := h.DB.Delete(&category).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
