package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
)

type SupplierHandler struct {
	DB *gorm.DB
}

type supplierRequest struct {
	Company *string `json:"Nom_Societe"`
	Phone   *string `json:"Telephone"`
	Email   *string `json:"Email"`
}

func (h *SupplierHandler) Index(c echo.Context) error {
	var suppliers []models.Supplier
	if err := h.DB.Order("id ASC").Find(&suppliers).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, suppliers)
}

func (h *SupplierHandler) Show(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var supplier models.Supplier
	if err := h.DB.Preload("Products").First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, supplier)
}

func (h *SupplierHandler) Store(c echo.Context) error {
	var req supplierRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Company == nil || *req.Company == "" {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Nom_Societe required"))
	}
	supplier := models.Supplier{Company: *req.Company}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Email != nil {
		supplier.Email = *req.Email
	}
	if err := h.DB.Create(&supplier).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, supplier)
}

func (h *SupplierHandler) Update(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var supplier models.Supplier
	if err := h.DB.First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var req supplierRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Company != nil {
		if *req.Company == "" {
			return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Nom_Societe required"))
		}
		supplier.Company = *req.Company
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Email != nil {
		supplier.Email = *req.Email
	}
	if err := h.DB.Save(&supplier).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, supplier)
}

func (h *SupplierHandler) Destroy(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var supplier models.Supplier
	if err := h.DB.First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if err := h.DB.Select("Products").Delete(&supplier).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
