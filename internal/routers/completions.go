package routers

import (
	"context"
	"net/http"
	"strings"

	"ai-service/internal/ctx"
	"ai-service/internal/providers"
	"ai-service/internal/relay"
	"ai-service/internal/shared"

	"github.com/labstack/echo/v4"
)

func completionOptions(req shared.CompletionRequest, name providers.Name) providers.CompletionOptions {
	opts := providers.CompletionOptions{
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
		Extra:       providers.ExtractParams(req.ProviderParams, name),
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = shared.DefaultMaxTokens
	}
	if opts.Temperature == nil {
		t := float32(shared.DefaultTemperature)
		opts.Temperature = &t
	}
	return opts
}

func (r *AIRouter) Completion(cc echo.Context) error {
	c := cc.(*ctx.Context)

	var req shared.CompletionRequest
	if err := c.Bind(&req); err != nil {
		return r.sendError(c, "", "completions", shared.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return r.sendError(c, "", "completions", validationError("prompt is required"))
	}
	name, err := selectProvider(req.RequestMeta, providers.OpenAI)
	if err != nil {
		return r.sendError(c, "", "completions", err)
	}
	client, err := r.dispatcher.Select(name, req.Credentials())
	if err != nil {
		return r.sendError(c, name, "completions", shared.ErrUnknownProvider)
	}

	call := r.tracker.Start(accountID(c, req.UserID), string(name), "completion")
	tctx, cancel := context.WithTimeout(c.Request().Context(), providers.DefaultCallTimeout)
	defer cancel()

	completion, err := client.Complete(tctx, req.Prompt, req.Model, completionOptions(req, name))
	if err != nil {
		call.Finish(req.Model, false, err.Error(), req.Prompt)
		return r.sendError(c, name, "completions", err)
	}

	texts := []string{req.Prompt}
	for _, choice := range completion.Choices {
		texts = append(texts, choice.Text)
	}
	call.Finish(completion.Model, true, "", texts...)
	return c.JSON(http.StatusOK, completion)
}

func setupSSEHeaders(c *ctx.Context) {
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
}

// recordingStream captures the streamed text and model echo for accounting
// as the relay pulls chunks through it.
type recordingStream struct {
	providers.Stream
	model string
	text  strings.Builder
}

func (s *recordingStream) Recv() (providers.CompletionChunk, error) {
	chunk, err := s.Stream.Recv()
	if err == nil {
		if chunk.Model != "" {
			s.model = chunk.Model
		}
		for _, choice := range chunk.Choices {
			s.text.WriteString(choice.Text)
		}
	}
	return chunk, err
}

func (r *AIRouter) CompletionStream(cc echo.Context) error {
	c := cc.(*ctx.Context)

	var req shared.CompletionRequest
	if err := c.Bind(&req); err != nil {
		return r.sendError(c, "", "completions_stream", shared.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return r.sendError(c, "", "completions_stream", validationError("prompt is required"))
	}
	name, err := selectProvider(req.RequestMeta, providers.OpenAI)
	if err != nil {
		return r.sendError(c, "", "completions_stream", err)
	}
	client, err := r.dispatcher.Select(name, req.Credentials())
	if err != nil {
		return r.sendError(c, name, "completions_stream", shared.ErrUnknownProvider)
	}

	call := r.tracker.Start(accountID(c, req.UserID), string(name), "completion_stream")
	sctx, cancel := context.WithTimeout(c.Request().Context(), providers.DefaultStreamTimeout)
	defer cancel()

	stream, err := client.CompleteStream(sctx, req.Prompt, req.Model, completionOptions(req, name))
	if err != nil {
		call.Finish(req.Model, false, err.Error(), req.Prompt)
		return r.sendError(c, name, "completions_stream", err)
	}

	setupSSEHeaders(c)
	rec := &recordingStream{Stream: stream}
	relayErr := relay.Stream(sctx, c.Response(), rec)

	model := rec.model
	if model == "" {
		model = req.Model
	}
	if relayErr != nil {
		call.Finish(model, false, relayErr.Error(), req.Prompt, rec.text.String())
		c.Log.Errorw("Streaming aborted",
			"endpoint", "completions_stream",
			"provider", name,
			"error", relayErr)
		// Headers are already committed. Sever the connection so the client
		// cannot mistake the truncated stream for a clean end; a plain return
		// would let the chunked body terminate normally.
		panic(http.ErrAbortHandler)
	}
	call.Finish(model, true, "", req.Prompt, rec.text.String())
	return nil
}
