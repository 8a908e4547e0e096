// Package shared
package shared

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// ExtractAPIKey pulls the caller credential from either a bearer token or
// the X-API-Key header.
func ExtractAPIKey(c echo.Context) (string, error) {
	if key := c.Request().Header.Get("X-API-Key"); key != "" {
		return key, nil
	}

	auth := c.Request().Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingAuth
	}
	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", ErrInvalidFormat
	}
	if parts[1] == "" {
		return "", ErrMissingAuth
	}
	return parts[1], nil
}
