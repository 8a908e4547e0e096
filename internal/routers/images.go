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

func imageSource(req shared.ImageAnalyzeRequest) (providers.ImageSource, error) {
	switch {
	case req.ImageURL != "" && req.ImageBase64 != "":
		return providers.ImageSource{}, validationError("provide either image_url or image_base64, not both")
	case req.ImageURL != "":
		return providers.ImageSource{URL: req.ImageURL}, nil
	case req.ImageBase64 != "":
		data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			return providers.ImageSource{}, validationError("image_base64 is not valid base64")
		}
		return providers.ImageSource{Data: data, Mime: req.ImageMime}, nil
	default:
		return providers.ImageSource{}, validationError("image_url or image_base64 is required")
	}
}

func (r *AIRouter) AnalyzeImage(cc echo.Context) error {
	c := cc.(*ctx.Context)

	var req shared.ImageAnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return r.sendError(c, "", "images", shared.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return r.sendError(c, "", "images", validationError("prompt is required"))
	}
	src, err := imageSource(req)
	if err != nil {
		return r.sendError(c, "", "images", err)
	}
	name, err := selectProvider(req.RequestMeta, providers.OpenAI)
	if err != nil {
		return r.sendError(c, "", "images", err)
	}
	client, err := r.dispatcher.Select(name, req.Credentials())
	if err != nil {
		return r.sendError(c, name, "images", shared.ErrUnknownProvider)
	}

	call := r.tracker.Start(accountID(c, req.UserID), string(name), "image_analysis")
	tctx, cancel := context.WithTimeout(c.Request().Context(), providers.DefaultCallTimeout)
	defer cancel()

	analysis, err := client.AnalyzeImage(tctx, req.Prompt, src, req.Model)
	if err != nil {
		call.Finish(req.Model, false, err.Error(), req.Prompt)
		return r.sendError(c, name, "images", err)
	}
	call.Finish(analysis.Model, true, "", req.Prompt, analysis.Text)
	return c.JSON(http.StatusOK, analysis)
}

type imagesResponse struct {
	Images []providers.GeneratedImage `json:"images"`
}

func (r *AIRouter) GenerateImage(cc echo.Context) error {
	c := cc.(*ctx.Context)

	var req shared.ImageGenerateRequest
	if err := c.Bind(&req); err != nil {
		return r.sendError(c, "", "images_generate", shared.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return r.sendError(c, "", "images_generate", validationError("prompt is required"))
	}
	name, err := selectProvider(req.RequestMeta, providers.Replicate)
	if err != nil {
		return r.sendError(c, "", "images_generate", err)
	}
	client, err := r.dispatcher.Select(name, req.Credentials())
	if err != nil {
		return r.sendError(c, name, "images_generate", shared.ErrUnknownProvider)
	}

	call := r.tracker.Start(accountID(c, req.UserID), string(name), "image_generation")
	tctx, cancel := context.WithTimeout(c.Request().Context(), providers.DefaultStreamTimeout)
	defer cancel()

	images, err := client.GenerateImage(tctx, req.Prompt, req.Model, providers.GenerateOptions{
		NumOutputs: req.NumOutputs,
		Size:       req.Size,
		Extra:      providers.ExtractParams(req.ProviderParams, name),
	})
	if err != nil {
		call.Finish(req.Model, false, err.Error(), req.Prompt)
		return r.sendError(c, name, "images_generate", err)
	}
	call.Finish(req.Model, true, "", req.Prompt)
	return c.JSON(http.StatusOK, imagesResponse{Images: images})
}
