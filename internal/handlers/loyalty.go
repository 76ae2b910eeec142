package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
)

type LoyaltyHandler struct {
	DB *gorm.DB
}

type loyaltyRequest struct {
	Number   string  `json:"Num_Carte"`
	Points   *int    `json:"Points_Cumules"`
	IssuedOn *string `json:"Date_Creation"`
	ClientID *uint   `json:"Id_Client"`
}

func (h *LoyaltyHandler) Index(c echo.Context) error {
	var cards []models.LoyaltyCard
	if err := h.DB.Preload("Client").Order("number ASC").Find(&cards).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, cards)
}

func (h *LoyaltyHandler) Show(c echo.Context) error {
	var card models.LoyaltyCard
	if err := h.DB.Preload("Client").First(&card, "number = ?", c.Param("number")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, card)
}

func (h *LoyaltyHandler) Store(c echo.Context) error {
	var req loyaltyRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Number == "" || req.IssuedOn == nil || req.ClientID == nil {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Num_Carte, Date_Creation and Id_Client are required"))
	}
	issuedOn, err := time.Parse("2006-01-02", *req.IssuedOn)
	if err != nil {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Date_Creation must be 2006-01-02"))
	}
	points := 0
	if req.Points != nil {
		if *req.Points < 0 {
			return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Points_Cumules must be >= 0"))
		}
		points = *req.Points
	}

	var count int64
	if err := h.DB.Model(&models.Client{}).Where("id = ?", *req.ClientID).Count(&count).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if count == 0 {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("unknown client"))
	}
	if err := h.DB.Model(&models.LoyaltyCard{}).Where("number = ?", req.Number).Count(&count).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if count > 0 {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Num_Carte already exists"))
	}

	card := models.LoyaltyCard{
		Number:   req.Number,
		Points:   points,
		IssuedOn: issuedOn,
		ClientID: *req.ClientID,
	}
	if err := h.DB.Create(&card).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if err := h.DB.Preload("Client").First(&card, "number = ?", card.Number).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, card)
}

func (h *LoyaltyHandler) Update(c echo.Context) error {
	var card models.LoyaltyCard
	if err := h.DB.First(&card, "number = ?", c.Param("number")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var req loyaltyRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Points != nil {
		if *req.Points < 0 {
			return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Points_Cumules must be >= 0"))
		}
		card.Points = *req.Points
	}
	if req.IssuedOn != nil {
		issuedOn, err := time.Parse("2006-01-02", *req.IssuedOn)
		if err != nil {
			return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Date_Creation must be 2006-01-02"))
		}
		card.IssuedOn = issuedOn
	}
	if req.ClientID != nil {
		var count int64
		if err := h.DB.Model(&models.Client{}).Where("id = ?", *req.ClientID).Count(&count).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		if count == 0 {
			return errorResponse(c, http.StatusUnprocessableEntity, errors.New("unknown client"))
		}
		card.ClientID = *req.ClientID
	}

	if err := h.DB.Save(&card).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if err := h.DB.Preload("Client").First(&card, "number = ?", card.Number).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, card)
}

func (h *LoyaltyHandler) Destroy(c echo.Context) error {
	number := c.Param("number")
	var card models.LoyaltyCard
	if err := h.DB.First(&card, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if err := h.DB.Delete(&card).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
