package routers

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ai-service/internal/ctx"
	"ai-service/internal/providers"
	"ai-service/internal/shared"

	"github.com/labstack/echo/v4"
)

// bindTranscribe accepts either a multipart upload (field "file" plus form
// fields) or a JSON body with base64 audio.
func bindTranscribe(c *ctx.Context) (shared.TranscribeRequest, []byte, error) {
	var req shared.TranscribeRequest

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return req, nil, validationError("audio file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return req, nil, validationError("failed to read audio file")
		}
		defer f.Close()
		audio, err := io.ReadAll(f)
		if err != nil {
			return req, nil, validationError("failed to read audio file")
		}

		req.Provider = c.FormValue("provider")
		req.Model = c.FormValue("model")
		req.UserID = c.FormValue("user_id")
		req.Language = c.FormValue("language")
		req.Prompt = c.FormValue("prompt")
		if raw := c.FormValue("temperature"); raw != "" {
			t, err := strconv.ParseFloat(raw, 32)
			if err != nil {
				return req, nil, validationError("invalid temperature")
			}
			req.Temperature = float32(t)
		}
		return req, audio, nil
	}

	if err := c.Bind(&req); err != nil {
		return req, nil, shared.ErrInvalidRequest
	}
	if req.AudioBase64 == "" {
		return req, nil, validationError("audio_base64 is required")
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return req, nil, validationError("audio_base64 is not valid base64")
	}
	return req, audio, nil
}

func (r *AIRouter) Transcribe(cc echo.Context) error {
	c := cc.(*ctx.Context)

	req, audio, err := bindTranscribe(c)
	if err != nil {
		return r.sendError(c, "", "audio_transcribe", err)
	}
	if len(audio) == 0 {
		return r.sendError(c, "", "audio_transcribe", validationError("audio is empty"))
	}
	name, err := selectProvider(req.RequestMeta, providers.Groq)
	if err != nil {
		return r.sendError(c, "", "audio_transcribe", err)
	}
	client, err := r.dispatcher.Select(name, req.Credentials())
	if err != nil {
		return r.sendError(c, name, "audio_transcribe", shared.ErrUnknownProvider)
	}

	call := r.tracker.Start(accountID(c, req.UserID), string(name), "transcription")
	tctx, cancel := context.WithTimeout(c.Request().Context(), providers.DefaultCallTimeout)
	defer cancel()

	// No fallback here: transcription substitution is out of scope, a
	// capability gap goes straight back to the caller.
	transcription, err := client.Transcribe(tctx, audio, req.Model, providers.TranscribeOptions{
		Language:    req.Language,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
	})
	if err != nil {
		call.Finish(req.Model, false, err.Error())
		return r.sendError(c, name, "audio_transcribe", err)
	}
	call.Finish(req.Model, true, "", transcription.Text)
	return c.JSON(http.StatusOK, transcription)
}
