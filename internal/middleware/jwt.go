package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWT validates the Authorization bearer token and stores user_id and role
// in the request context. The payout core trusts this attribution and does
// no further credential checks.
func JWT(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, role, err := parseToken(c.Request().Header.Get("Authorization"), secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set("user_id", userID)
			c.Set("role", role)
			return next(c)
		}
	}
}

func parseToken(header string, secret []byte) (userID, role string, err error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", "", errors.New("missing bearer token")
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token claims")
	}
	userID, _ = claims["id"].(string)
	if userID == "" {
		return "", "", errors.New("token has no user id")
	}
	role, _ = claims["role"].(string)
	return userID, role, nil
}
