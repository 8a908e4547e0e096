// Package ctx
package ctx

import (
	"ai-service/internal/shared"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Context wraps the echo context with the per-request logger, request id and
// the user resolved by the auth middleware (nil until then).
type Context struct {
	echo.Context
	Log   *zap.SugaredLogger
	Reqid string
	User  *shared.User
}
