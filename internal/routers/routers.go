// Package routers wires the HTTP surface onto the dispatch, relay,
// accounting and vector-store layers and translates the error taxonomy onto
// status codes at the boundary.
package routers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ai-service/internal/accounting"
	"ai-service/internal/auth"
	"ai-service/internal/ctx"
	"ai-service/internal/dispatch"
	"ai-service/internal/metrics"
	"ai-service/internal/middleware"
	"ai-service/internal/providers"
	"ai-service/internal/shared"
	"ai-service/internal/vectorstore"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AIRouter struct {
	dispatcher *dispatch.Router
	store      *vectorstore.Qdrant
	tracker    *accounting.Tracker
	log        *zap.SugaredLogger
}

type Config struct {
	Dispatcher *dispatch.Router
	Store      *vectorstore.Qdrant
	Tracker    *accounting.Tracker
	Auth       *auth.Client
	Log        *zap.SugaredLogger
}

func RegisterRoutes(e *echo.Group, cfg Config) error {
	if cfg.Dispatcher == nil || cfg.Store == nil || cfg.Tracker == nil || cfg.Auth == nil {
		return errors.New("missing router dependency")
	}
	r := &AIRouter{
		dispatcher: cfg.Dispatcher,
		store:      cfg.Store,
		tracker:    cfg.Tracker,
		log:        cfg.Log,
	}
	umw := middleware.NewUserMiddleware(cfg.Auth)

	v1 := e.Group("/api/v1")
	requireUser := v1.Group("", umw.ExtractUser, umw.RequireUser)

	requireUser.POST("/completions", r.Completion)
	requireUser.POST("/completions/stream", r.CompletionStream)
	requireUser.POST("/embeddings", r.CreateEmbedding)
	requireUser.GET("/embeddings/:id", r.GetEmbedding)
	requireUser.DELETE("/embeddings/:id", r.DeleteEmbedding)
	requireUser.POST("/similarity", r.Similarity)
	requireUser.POST("/images", r.AnalyzeImage)
	requireUser.POST("/images/generate", r.GenerateImage)
	requireUser.POST("/audio/transcribe", r.Transcribe)
	requireUser.POST("/tts/synthesize", r.Synthesize)
	requireUser.POST("/tts/clone-voice", r.CloneVoice)
	requireUser.POST("/tts/emotion", r.SynthesizeEmotion)
	return nil
}

// selectProvider validates the request's provider field, defaulting when
// absent.
func selectProvider(meta shared.RequestMeta, fallback providers.Name) (providers.Name, error) {
	if meta.Provider == "" {
		return fallback, nil
	}
	name, ok := providers.ParseName(meta.Provider)
	if !ok {
		return "", &shared.RequestError{StatusCode: 400, Err: fmt.Errorf("unknown provider %q", meta.Provider)}
	}
	return name, nil
}

// accountID prefers the authenticated user for analytics attribution, then
// the request's declared user_id.
func accountID(c *ctx.Context, declared string) string {
	if c.User != nil {
		return strconv.FormatUint(c.User.ID, 10)
	}
	if declared != "" {
		return declared
	}
	return "anonymous"
}

func validationError(msg string) error {
	return &shared.RequestError{StatusCode: 400, Err: errors.New(msg)}
}

// sendError maps the error taxonomy onto status codes. Validation and auth
// failures arrive as RequestError, capability gaps as UnsupportedError,
// vendor failures as APIError; anything else is logged with context and
// returned as an opaque 500.
func (r *AIRouter) sendError(c *ctx.Context, provider providers.Name, endpoint string, err error) error {
	var reqErr *shared.RequestError
	if errors.As(err, &reqErr) {
		metrics.ErrorCount.WithLabelValues(string(provider), endpoint, "request").Inc()
		errType := "ValidationError"
		switch {
		case reqErr.StatusCode == http.StatusUnauthorized || reqErr.StatusCode == http.StatusForbidden:
			errType = "AuthError"
		case reqErr.StatusCode == http.StatusNotFound:
			errType = "NotFoundError"
		case reqErr.StatusCode >= http.StatusInternalServerError:
			errType = "InternalError"
		}
		return c.JSON(reqErr.StatusCode, shared.ErrorBody{
			Message: reqErr.Err.Error(),
			Object:  "error",
			Type:    errType,
			Code:    reqErr.StatusCode,
		})
	}

	var unsupported *providers.UnsupportedError
	if errors.As(err, &unsupported) {
		metrics.ErrorCount.WithLabelValues(string(provider), endpoint, "unsupported").Inc()
		return c.JSON(http.StatusBadRequest, shared.ErrorBody{
			Message: unsupported.Error(),
			Object:  "error",
			Type:    "UnsupportedError",
			Code:    http.StatusBadRequest,
		})
	}

	var apiError *providers.APIError
	if errors.As(err, &apiError) {
		c.Log.Errorw("Provider call failed",
			"endpoint", endpoint,
			"provider", apiError.Provider,
			"operation", apiError.Operation,
			"error", apiError.Err)
		metrics.ErrorCount.WithLabelValues(string(provider), endpoint, "provider").Inc()
		return c.JSON(http.StatusBadGateway, shared.ErrorBody{
			Message: apiError.Error(),
			Object:  "error",
			Type:    "ProviderError",
			Code:    http.StatusBadGateway,
		})
	}

	c.Log.Errorw("Unhandled error", "endpoint", endpoint, "provider", provider, "error", err)
	metrics.ErrorCount.WithLabelValues(string(provider), endpoint, "internal").Inc()
	return c.JSON(http.StatusInternalServerError, shared.ErrorBody{
		Message: shared.ErrInternalServerError.Err.Error(),
		Object:  "error",
		Type:    "InternalError",
		Code:    http.StatusInternalServerError,
	})
}
