package routers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ai-service/internal/ctx"
	"ai-service/internal/providers"
	"ai-service/internal/shared"

	"github.com/labstack/echo/v4"
)

// embedModelLabel attributes the call to the model that actually produced
// the vector, which differs from the requested one after a fallback.
func embedModelLabel(requested string, selected, used providers.Name) string {
	if used != selected || requested == "" {
		return providers.DefaultEmbeddingModel
	}
	return requested
}

func (r *AIRouter) CreateEmbedding(cc echo.Context) error {
	c := cc.(*ctx.Context)

	var req shared.EmbeddingRequest
	if err := c.Bind(&req); err != nil {
		return r.sendError(c, "", "embeddings", shared.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Input) == "" {
		return r.sendError(c, "", "embeddings", validationError("input is required"))
	}
	name, err := selectProvider(req.RequestMeta, providers.OpenAI)
	if err != nil {
		return r.sendError(c, "", "embeddings", err)
	}

	call := r.tracker.Start(accountID(c, req.UserID), string(name), "embedding")
	tctx, cancel := context.WithTimeout(c.Request().Context(), providers.DefaultCallTimeout)
	defer cancel()

	vector, used, err := r.dispatcher.Embed(tctx, name, req.Credentials(), req.Input, req.Model)
	if err != nil {
		call.Finish(req.Model, false, err.Error(), req.Input)
		return r.sendError(c, used, "embeddings", err)
	}

	record, err := r.store.Store(tctx, req.Input, vector)
	if err != nil {
		call.Finish(embedModelLabel(req.Model, name, used), false, err.Error(), req.Input)
		return r.sendError(c, used, "embeddings", err)
	}

	call.Finish(embedModelLabel(req.Model, name, used), true, "", req.Input)
	return c.JSON(http.StatusCreated, record)
}

func embeddingID(c *ctx.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, validationError("invalid embedding id")
	}
	return id, nil
}

func (r *AIRouter) GetEmbedding(cc echo.Context) error {
	c := cc.(*ctx.Context)

	id, err := embeddingID(c)
	if err != nil {
		return r.sendError(c, "", "embeddings", err)
	}
	tctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	record, err := r.store.Get(tctx, id)
	if err != nil {
		return r.sendError(c, "", "embeddings", err)
	}
	if record == nil {
		return r.sendError(c, "", "embeddings", shared.ErrEmbeddingNotFound)
	}
	return c.JSON(http.StatusOK, record)
}

func (r *AIRouter) DeleteEmbedding(cc echo.Context) error {
	c := cc.(*ctx.Context)

	id, err := embeddingID(c)
	if err != nil {
		return r.sendError(c, "", "embeddings", err)
	}
	tctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	deleted, err := r.store.Delete(tctx, id)
	if err != nil {
		return r.sendError(c, "", "embeddings", err)
	}
	if !deleted {
		return r.sendError(c, "", "embeddings", shared.ErrEmbeddingNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

func (r *AIRouter) Similarity(cc echo.Context) error {
	c := cc.(*ctx.Context)

	var req shared.SimilarityRequest
	if err := c.Bind(&req); err != nil {
		return r.sendError(c, "", "similarity", shared.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Query) == "" {
		return r.sendError(c, "", "similarity", validationError("query is required"))
	}
	name, err := selectProvider(req.RequestMeta, providers.OpenAI)
	if err != nil {
		return r.sendError(c, "", "similarity", err)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = shared.DefaultSimLimit
	}
	threshold := shared.DefaultSimScore
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	call := r.tracker.Start(accountID(c, req.UserID), string(name), "similarity")
	tctx, cancel := context.WithTimeout(c.Request().Context(), providers.DefaultCallTimeout)
	defer cancel()

	vector, used, err := r.dispatcher.Embed(tctx, name, req.Credentials(), req.Query, req.Model)
	if err != nil {
		call.Finish(req.Model, false, err.Error(), req.Query)
		return r.sendError(c, used, "similarity", err)
	}

	hits, err := r.store.Search(tctx, vector, limit, threshold)
	if err != nil {
		call.Finish(embedModelLabel(req.Model, name, used), false, err.Error(), req.Query)
		return r.sendError(c, used, "similarity", err)
	}

	resp := shared.SimilarityResponse{Results: make([]shared.SimilarityResult, 0, len(hits))}
	for _, hit := range hits {
		resp.Results = append(resp.Results, shared.SimilarityResult{
			Text:      hit.Text,
			Score:     hit.Score,
			CreatedAt: hit.CreatedAt.Format(time.RFC3339),
		})
	}
	call.Finish(embedModelLabel(req.Model, name, used), true, "", req.Query)
	return c.JSON(http.StatusOK, resp)
}
