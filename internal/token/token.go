package token

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
)

const accessTTL = 24 * time.Hour

// Service issues HS256 bearer tokens and records them so logout can revoke
// server-side, the way the original session tokens behaved.
type Service struct {
	DB     *gorm.DB
	Secret []byte
}

func (s *Service) Issue(user *models.User, now time.Time) (string, error) {
	exp := now.Add(accessTTL)
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  exp.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.Secret)
	if err != nil {
		return "", err
	}

	record := models.APIToken{
		Token:     signed,
		UserID:    user.ID,
		ExpiresAt: exp,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		return "", err
	}
	return signed, nil
}

func (s *Service) Revoke(raw string) error {
	return s.DB.Model(&models.APIToken{}).
		Where("token = ?", raw).
		Update("revoked", true).Error
}

func (s *Service) parse(raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Middleware authenticates the Authorization: Bearer header, rejects revoked
// tokens, and places the user identity into the echo context.
func (s *Service) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := s.parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token: "+err.Error())
		}

		var record models.APIToken
		if err := s.DB.Where("token = ?", raw).First(&record).Error; err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unknown token")
		}
		if record.Revoked {
			return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
		}

		sub, ok := claims["sub"].(float64)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
		}
		role, _ := claims["role"].(string)

		c.Set("userID", uint(sub))
		c.Set("role", role)
		c.Set("token", raw)
		return next(c)
	}
}

// UserID returns the authenticated user id placed by Middleware.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get("userID").(uint)
	return id, ok
}
