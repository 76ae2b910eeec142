package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
)

type ClientHandler struct {
	DB *gorm.DB
}

type clientRequest struct {
	LastName  *string `json:"Nom"`
	FirstName *string `json:"Prenom"`
	Phone     *string `json:"Telephone"`
	Email     *string `json:"Email"`
	Address   *string `json:"Adresse"`
}

func (h *ClientHandler) Index(c echo.Context) error {
	var clients []models.Client
	if err := h.DB.Preload("Cards").Order("id ASC").Find(&clients).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, clients)
}

func (h *ClientHandler) Show(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var client models.Client
	if err := h.DB.Preload("Cards").Preload("Orders").First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) Store(c echo.Context) error {
	var req clientRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.LastName == nil || *req.LastName == "" || req.FirstName == nil || *req.FirstName == "" {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Nom and Prenom are required"))
	}
	client := models.Client{LastName: *req.LastName, FirstName: *req.FirstName}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if err := h.DB.Create(&client).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) Update(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var client models.Client
	if err := h.DB.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var req clientRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.LastName != nil {
		client.LastName = *req.LastName
	}
	if req.FirstName != nil {
		client.FirstName = *req.FirstName
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if err := h.DB.Save(&client).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, client)
}

// Destroy removes the client; their orders stay behind with a null client
// reference.
func (h *ClientHandler) Destroy(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var client models.Client
	if err := h.DB.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("client_id = ?", id).
			Update("client_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", id).Delete(&models.LoyaltyCard{}).Error; err != nil {
			return err
		}
		return tx.Delete(&client).Error
	})
	if txErr != nil {
		return errorResponse(c, http.StatusInternalServerError, txErr)
	}
	return c.NoContent(http.StatusNoContent)
}
