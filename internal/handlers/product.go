package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/events"
	"github.com/nchikhaoui/gestistock/internal/models"
	"github.com/nchikhaoui/gestistock/internal/notify"
	"github.com/nchikhaoui/gestistock/internal/token"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	Notifier *notify.Emitter
}

type productRequest struct {
	Ref            string   `json:"Ref_Produit"`
	Designation    *string  `json:"Designation"`
	PurchasePrice  *float64 `json:"Prix_Achat"`
	SalePrice      *float64 `json:"Prix_Vente"`
	Stock          *int     `json:"Qt_Stock"`
	AlertThreshold *int     `json:"Seuil_Alerte"`
	VATRate        *float64 `json:"Taux_TVA"`
	CategoryID     *uint    `json:"Id_Categorie"`
	SupplierIDs    []uint   `json:"fournisseurs"`
}

func (r *productRequest) validateRanges() error {
	if r.PurchasePrice != nil && *r.PurchasePrice < 0 {
		return errors.New("Prix_Achat must be >= 0")
	}
	if r.SalePrice != nil && *r.SalePrice < 0 {
		return errors.New("Prix_Vente must be >= 0")
	}
	if r.Stock != nil && *r.Stock < 0 {
		return errors.New("Qt_Stock must be >= 0")
	}
	if r.AlertThreshold != nil && *r.AlertThreshold < 0 {
		return errors.New("Seuil_Alerte must be >= 0")
	}
	if r.VATRate != nil && (*r.VATRate < 0 || *r.VATRate > 100) {
		return errors.New("Taux_TVA must be between 0 and 100")
	}
	return nil
}

func (h *ProductHandler) loadSuppliers(ids []uint) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if len(ids) == 0 {
		return suppliers, nil
	}
	if err := h.DB.Find(&suppliers, ids).Error; err != nil {
		return nil, err
	}
	if len(suppliers) != len(ids) {
		return nil, errors.New("unknown supplier id")
	}
	return suppliers, nil
}

func (h *ProductHandler) List(c echo.Context) error {
	var products []models.Product
	if err := h.DB.Preload("Category").Preload("Suppliers").Order("ref ASC").Find(&products).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	for i := range products {
		products[i].ComputeLowStock()
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c echo.Context) error {
	var product models.Product
	err := h.DB.Preload("Category").Preload("Suppliers").
		First(&product, "ref = ?", c.Param("ref")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	product.ComputeLowStock()
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Ref == "" || req.Designation == nil || req.PurchasePrice == nil ||
		req.SalePrice == nil || req.Stock == nil || req.AlertThreshold == nil ||
		req.VATRate == nil || req.CategoryID == nil {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("missing required fields"))
	}
	if err := req.validateRanges(); err != nil {
		return errorResponse(c, http.StatusUnprocessableEntity, err)
	}

	var count int64
	if err := h.DB.Model(&models.Category{}).Where("id = ?", *req.CategoryID).Count(&count).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if count == 0 {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("unknown category"))
	}
	if err := h.DB.Model(&models.Product{}).Where("ref = ?", req.Ref).Count(&count).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if count > 0 {
		return errorResponse(c, http.StatusUnprocessableEntity, errors.New("Ref_Produit already exists"))
	}

	suppliers, err := h.loadSuppliers(req.SupplierIDs)
	if err != nil {
		return errorResponse(c, http.StatusUnprocessableEntity, err)
	}

	product := models.Product{
		Ref:            req.Ref,
		Designation:    *req.Designation,
		PurchasePrice:  *req.PurchasePrice,
		SalePrice:      *req.SalePrice,
		Stock:          *req.Stock,
		AlertThreshold: *req.AlertThreshold,
		VATRate:        *req.VATRate,
		CategoryID:     *req.CategoryID,
		Suppliers:      suppliers,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var callerID *uint
	if id, ok := token.UserID(c); ok {
		callerID = &id
	}
	ctx := c.Request().Context()
	if _, err := h.Notifier.Emit(ctx, callerID,
		"Produit créé",
		fmt.Sprintf("%s (%s) a été ajouté", product.Designation, product.Ref),
		"product_created",
		map[string]any{
			"Ref_Produit":  product.Ref,
			"Id_Categorie": product.CategoryID,
		}); err != nil {
		c.Logger().Errorf("product notification error: %v", err)
	}

	publish(c, h.Producer, events.TopicProducts, product.Ref, map[string]any{
		"type":        "product_created",
		"Ref_Produit": product.Ref,
		"Designation": product.Designation,
	})

	if err := h.DB.Preload("Category").Preload("Suppliers").First(&product, "ref = ?", product.Ref).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	product.ComputeLowStock()
	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c echo.Context) error {
	var product models.Product
	if err := h.DB.First(&product, "ref = ?", c.Param("ref")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := req.validateRanges(); err != nil {
		return errorResponse(c, http.StatusUnprocessableEntity, err)
	}

	if req.Designation != nil {
		product.Designation = *req.Designation
	}
	if req.PurchasePrice != nil {
		product.PurchasePrice = *req.PurchasePrice
	}
	if req.SalePrice != nil {
		product.SalePrice = *req.SalePrice
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.AlertThreshold != nil {
		product.AlertThreshold = *req.AlertThreshold
	}
	if req.VATRate != nil {
		product.VATRate = *req.VATRate
	}
	if req.CategoryID != nil {
		var count int64
		if err := h.DB.Model(&models.Category{}).Where("id = ?", *req.CategoryID).Count(&count).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		if count == 0 {
			return errorResponse(c, http.StatusUnprocessableEntity, errors.New("unknown category"))
		}
		product.CategoryID = *req.CategoryID
	}

	if err := h.DB.Save(&product).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if req.SupplierIDs != nil {
		suppliers, err := h.loadSuppliers(req.SupplierIDs)
		if err != nil {
			return errorResponse(c, http.StatusUnprocessableEntity, err)
		}
		if err := h.DB.Model(&product).Association("Suppliers").Replace(suppliers); err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
	}

	publish(c, h.Producer, events.TopicProducts, product.Ref, map[string]any{
		"type":        "product_updated",
		"Ref_Produit": product.Ref,
	})

	if err := h.DB.Preload("Category").Preload("Suppliers").First(&product, "ref = ?", product.Ref).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	product.ComputeLowStock()
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ref := c.Param("ref")

	var product models.Product
	if err := h.DB.First(&product, "ref = ?", ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	// Products referenced by order lines are history and must stay.
	var referenced int64
	if err := h.DB.Model(&models.OrderLine{}).Where("product_ref = ?", ref).Count(&referenced).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if referenced > 0 {
		return errorResponse(c, http.StatusConflict, errors.New("product is referenced by existing orders"))
	}

	if err := h.DB.Select("Suppliers").Delete(&product).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	publish(c, h.Producer, events.TopicProducts, ref, map[string]any{
		"type":        "product_deleted",
		"Ref_Produit": ref,
	})
	return c.NoContent(http.StatusNoContent)
}
