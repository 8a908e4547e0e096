package middleware

import (
	"errors"

	"ai-service/internal/auth"
	"ai-service/internal/ctx"
	"ai-service/internal/shared"

	"github.com/labstack/echo/v4"
)

type UserMiddleware struct {
	auth *auth.Client
}

func NewUserMiddleware(authClient *auth.Client) *UserMiddleware {
	return &UserMiddleware{auth: authClient}
}

// ExtractUser resolves the caller's credential into c.User when present.
// It never rejects on its own; RequireUser does that.
func (m *UserMiddleware) ExtractUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(cc echo.Context) error {
		c := cc.(*ctx.Context)
		c.User = nil

		apiKey, err := shared.ExtractAPIKey(c)
		if err != nil {
			return next(c)
		}
		user, err := m.auth.ValidateAPIKey(c.Request().Context(), apiKey)
		if err != nil {
			return next(c)
		}
		c.User = user
		c.Log = c.Log.With("user_id", user.ID)
		return next(c)
	}
}

func (m *UserMiddleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(cc echo.Context) error {
		c := cc.(*ctx.Context)
		if c.User != nil {
			return next(c)
		}

		// Re-run validation so the caller sees why the key was rejected.
		apiKey, err := shared.ExtractAPIKey(c)
		if err == nil {
			_, err = m.auth.ValidateAPIKey(c.Request().Context(), apiKey)
		}
		var reqErr *shared.RequestError
		if errors.As(err, &reqErr) {
			return c.JSON(reqErr.StatusCode, shared.ErrorBody{
				Message: reqErr.Err.Error(),
				Object:  "error",
				Type:    "AuthError",
				Code:    reqErr.StatusCode,
			})
		}
		return c.JSON(401, shared.ErrorBody{
			Message: shared.ErrUnauthorized.Err.Error(),
			Object:  "error",
			Type:    "AuthError",
			Code:    401,
		})
	}
}
