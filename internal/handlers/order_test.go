package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
	"github.com/nchikhaoui/gestistock/internal/notify"
	"github.com/nchikhaoui/gestistock/internal/order"
)

func newOrderHandler(t *testing.T, db *gorm.DB) *OrderHandler {
	t.Helper()
	return &OrderHandler{
		Svc: &order.Service{DB: db, Notifier: &notify.Emitter{DB: db}},
	}
}

func seedCatalogue(t *testing.T, db *gorm.DB) (models.User, models.Client) {
	t.Helper()

	category := models.Category{Label: "Epicerie"}
	require.NoError(t, db.Create(&category).Error)

	product := models.Product{
		Ref:            "P-001",
		Designation:    "Cafe moulu",
		PurchasePrice:  3,
		SalePrice:      6,
		Stock:          10,
		AlertThreshold: 2,
		CategoryID:     category.ID,
	}
	require.NoError(t, db.Create(&product).Error)

	user := seedUser(t, db, "vendeur@test.local", "secret123")

	client := models.Client{LastName: "Durand", FirstName: "Alice"}
	require.NoError(t, db.Create(&client).Error)

	return user, client
}

func TestOrderStore_CreatedWithComposedBody(t *testing.T) {
	db := initTestDB(t)
	user, client := seedCatalogue(t, db)
	h := newOrderHandler(t, db)

	c, rec := jsonContext(t, http.MethodPost, "/api/commandes", echo.Map{
		"Nom_Commande":   "CMD-001",
		"date_Commande":  "2026-03-10",
		"Heure_Cmd":      "14:30:00",
		"Total_TTC":      18.0,
		"Mode_Paiement":  "especes",
		"Id_Client":      client.ID,
		"Id_Utilisateur": user.ID,
		"produits": []echo.Map{
			{"Ref_Produit": "P-001", "Quantite": 3, "Prix_Unitaire": 6.0},
		},
	})
	c.Set("userID", user.ID)

	require.NoError(t, h.Store(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "CMD-001", body["Nom_Commande"])

	utilisateur, ok := body["utilisateur"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Vendeur Test", utilisateur["Nom_Utilisateur"])

	clientBody, ok := body["client"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Durand", clientBody["Nom"])

	contient, ok := body["contient"].([]any)
	require.True(t, ok)
	require.Len(t, contient, 1)
	line := contient[0].(map[string]any)
	assert.Equal(t, "P-001", line["Ref_Produit"])
	assert.Equal(t, 3.0, line["Quantite"])

	var product models.Product
	require.NoError(t, db.First(&product, "ref = ?", "P-001").Error)
	assert.Equal(t, 7, product.Stock)
}

func TestOrderStore_ShortfallReturnsErrorBody(t *testing.T) {
	db := initTestDB(t)
	user, client := seedCatalogue(t, db)
	h := newOrderHandler(t, db)

	c, rec := jsonContext(t, http.MethodPost, "/api/commandes", echo.Map{
		"Nom_Commande":   "CMD-001",
		"date_Commande":  "2026-03-10",
		"Heure_Cmd":      "14:30:00",
		"Total_TTC":      18.0,
		"Mode_Paiement":  "especes",
		"Id_Client":      client.ID,
		"Id_Utilisateur": user.ID,
		"produits": []echo.Map{
			{"Ref_Produit": "P-001", "Quantite": 99, "Prix_Unitaire": 6.0},
		},
	})
	c.Set("userID", user.ID)

	require.NoError(t, h.Store(c))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "Cafe moulu")

	// nothing persisted
	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.EqualValues(t, 0, orders)
}

func TestOrderStore_ValidationReturns422(t *testing.T) {
	db := initTestDB(t)
	user, _ := seedCatalogue(t, db)
	h := newOrderHandler(t, db)

	c, rec := jsonContext(t, http.MethodPost, "/api/commandes", echo.Map{
		"Nom_Commande":   "",
		"date_Commande":  "2026-03-10",
		"Heure_Cmd":      "14:30:00",
		"Total_TTC":      18.0,
		"Mode_Paiement":  "especes",
		"Id_Utilisateur": user.ID,
		"produits": []echo.Map{
			{"Ref_Produit": "P-001", "Quantite": 1, "Prix_Unitaire": 6.0},
		},
	})
	c.Set("userID", user.ID)

	require.NoError(t, h.Store(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrderShow_NotFound(t *testing.T) {
	db := initTestDB(t)
	h := newOrderHandler(t, db)

	c, rec := jsonContext(t, http.MethodGet, "/api/commandes/999", nil)
	c.SetParamNames("id")
	c.SetParamValues("999")

	require.NoError(t, h.Show(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderDestroy_NoContent(t *testing.T) {
	db := initTestDB(t)
	user, client := seedCatalogue(t, db)
	h := newOrderHandler(t, db)

	ord, err := h.Svc.Create(context.Background(), order.CreateRequest{
		Name:        "CMD-001",
		Date:        "2026-03-10",
		TimeOfDay:   "14:30:00",
		Total:       6,
		PaymentMode: "especes",
		ClientID:    &client.ID,
		UserID:      user.ID,
		Lines:       []order.LineRequest{{ProductRef: "P-001", Quantity: 1, UnitPrice: 6}},
	}, &user.ID)
	require.NoError(t, err)

	c, rec := jsonContext(t, http.MethodDelete, "/api/commandes/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Destroy(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", ord.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
