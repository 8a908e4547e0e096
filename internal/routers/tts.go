package routers

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"ai-service/internal/ctx"
	"ai-service/internal/providers"
	"ai-service/internal/shared"

	"github.com/labstack/echo/v4"
)

const defaultAudioMime = "audio/webm"

// synthesizeOptions merges explicit request fields with the provider's
// typed knob bag; explicit fields win.
func synthesizeOptions(req shared.SynthesizeRequest, name providers.Name) providers.SynthesizeOptions {
	opts := providers.SynthesizeOptions{
		SpeakingRate:    req.SpeakingRate,
		LanguageISOCode: req.LanguageISOCode,
		MimeType:        req.MimeType,
		Emotion:         req.Emotion,
		VQScore:         req.VQScore,
		SpeakerNoised:   req.SpeakerNoised,
		SpeakerAudio:    req.SpeakerAudio,
	}
	params := providers.ExtractParams(req.ProviderParams, name)
	if opts.SpeakingRate == 0 {
		if rate, ok := params["speaking_rate"].(float64); ok {
			opts.SpeakingRate = rate
		}
	}
	if opts.LanguageISOCode == "" {
		if code, ok := params["language_iso_code"].(string); ok {
			opts.LanguageISOCode = code
		}
	}
	if opts.MimeType == "" {
		if mime, ok := params["mime_type"].(string); ok {
			opts.MimeType = mime
		}
	}
	if opts.VQScore == nil {
		if score, ok := params["vqscore"].(float64); ok {
			opts.VQScore = &score
		}
	}
	if opts.SpeakerNoised == nil {
		if noised, ok := params["speaker_noised"].(bool); ok {
			opts.SpeakerNoised = &noised
		}
	}
	return opts
}

func (r *AIRouter) synthesize(c *ctx.Context, endpoint, callType string, validate func(*shared.SynthesizeRequest) error) error {
	var req shared.SynthesizeRequest
	if err := c.Bind(&req); err != nil {
		return r.sendError(c, "", endpoint, shared.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Text) == "" {
		return r.sendError(c, "", endpoint, validationError("text is required"))
	}
	if req.SpeakerAudio != "" {
		if _, err := base64.StdEncoding.DecodeString(req.SpeakerAudio); err != nil {
			return r.sendError(c, "", endpoint, validationError("speaker_audio is not valid base64"))
		}
	}
	if validate != nil {
		if err := validate(&req); err != nil {
			return r.sendError(c, "", endpoint, err)
		}
	}
	name, err := selectProvider(req.RequestMeta, providers.Zyphra)
	if err != nil {
		return r.sendError(c, "", endpoint, err)
	}
	client, err := r.dispatcher.Select(name, req.Credentials())
	if err != nil {
		return r.sendError(c, name, endpoint, shared.ErrUnknownProvider)
	}

	call := r.tracker.Start(accountID(c, req.UserID), string(name), callType)
	tctx, cancel := context.WithTimeout(c.Request().Context(), providers.DefaultCallTimeout)
	defer cancel()

	audio, err := client.Synthesize(tctx, req.Text, req.Model, synthesizeOptions(req, name))
	if err != nil {
		call.Finish(req.Model, false, err.Error(), req.Text)
		return r.sendError(c, name, endpoint, err)
	}
	call.Finish(req.Model, true, "", req.Text)

	mime := req.MimeType
	if mime == "" {
		mime = defaultAudioMime
	}
	return c.Blob(http.StatusOK, mime, audio)
}

func (r *AIRouter) Synthesize(cc echo.Context) error {
	return r.synthesize(cc.(*ctx.Context), "tts_synthesize", "speech_synthesis", nil)
}

func (r *AIRouter) CloneVoice(cc echo.Context) error {
	return r.synthesize(cc.(*ctx.Context), "tts_clone_voice", "voice_clone", func(req *shared.SynthesizeRequest) error {
		if req.SpeakerAudio == "" {
			return validationError("speaker_audio is required for voice cloning")
		}
		return nil
	})
}

func (r *AIRouter) SynthesizeEmotion(cc echo.Context) error {
	return r.synthesize(cc.(*ctx.Context), "tts_emotion", "speech_emotion", func(req *shared.SynthesizeRequest) error {
		if req.Emotion == nil {
			return validationError("emotion weights are required")
		}
		return nil
	})
}
