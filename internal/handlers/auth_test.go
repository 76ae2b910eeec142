package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nchikhaoui/gestistock/internal/models"
	"github.com/nchikhaoui/gestistock/internal/token"
)

func TestLogin_Success(t *testing.T) {
	db := initTestDB(t)
	user := seedUser(t, db, "vendeur@test.local", "secret123")

	h := &AuthHandler{DB: db, Tokens: &token.Service{DB: db, Secret: []byte("test-secret")}}

	c, rec := jsonContext(t, http.MethodPost, "/api/auth/login", echo.Map{
		"email":    "vendeur@test.local",
		"password": "secret123",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "login successful", body["message"])
	assert.NotEmpty(t, body["token"])

	payload, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Vendeur Test", payload["Nom_Utilisateur"])
	assert.Equal(t, "vendeur", payload["Type_Utilisateur"])

	// the issued token is recorded for later revocation
	var count int64
	require.NoError(t, db.Model(&models.APIToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLogin_WrongPassword(t *testing.T) {
	db := initTestDB(t)
	seedUser(t, db, "vendeur@test.local", "secret123")

	h := &AuthHandler{DB: db, Tokens: &token.Service{DB: db, Secret: []byte("test-secret")}}

	c, _ := jsonContext(t, http.MethodPost, "/api/auth/login", echo.Map{
		"email":    "vendeur@test.local",
		"password": "wrong",
	})
	err := h.Login(c)
	require.Error(t, err)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	db := initTestDB(t)

	h := &AuthHandler{DB: db, Tokens: &token.Service{DB: db, Secret: []byte("test-secret")}}

	c, _ := jsonContext(t, http.MethodPost, "/api/auth/login", echo.Map{
		"email":    "nobody@test.local",
		"password": "secret123",
	})
	err := h.Login(c)
	require.Error(t, err)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	db := initTestDB(t)
	h := &AuthHandler{DB: db, Tokens: &token.Service{DB: db, Secret: []byte("test-secret")}}

	c, _ := jsonContext(t, http.MethodPost, "/api/auth/login", echo.Map{"email": "vendeur@test.local"})
	err := h.Login(c)
	require.Error(t, err)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	db := initTestDB(t)
	user := seedUser(t, db, "vendeur@test.local", "secret123")

	tokens := &token.Service{DB: db, Secret: []byte("test-secret")}
	h := &AuthHandler{DB: db, Tokens: tokens}

	signed, err := tokens.Issue(&user, time.Now())
	require.NoError(t, err)

	c, rec := jsonContext(t, http.MethodPost, "/api/auth/logout", nil)
	c.Set("token", signed)
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var record models.APIToken
	require.NoError(t, db.First(&record, "token = ?", signed).Error)
	assert.True(t, record.Revoked)
}

func TestMe_ReturnsAuthenticatedUser(t *testing.T) {
	db := initTestDB(t)
	user := seedUser(t, db, "vendeur@test.local", "secret123")

	h := &AuthHandler{DB: db, Tokens: &token.Service{DB: db, Secret: []byte("test-secret")}}

	c, rec := jsonContext(t, http.MethodGet, "/api/auth/me", nil)
	c.Set("userID", user.ID)
	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	payload, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "vendeur@test.local", payload["email"])
}
