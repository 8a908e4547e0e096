package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultZyphraBaseURL = "https://api.zyphra.com/v1"
	DefaultZyphraModel   = "zonos-v0.1-transformer"
	ZyphraHybridModel    = "zonos-v0.1-hybrid"

	defaultSpeakingRate = 15.0

	// vqscore is only honored by the hybrid model and must stay in this band.
	vqScoreMin = 0.6
	vqScoreMax = 0.8
)

// ZyphraClient speaks the Zyphra TTS REST API directly; there is no Go SDK.
// It only implements speech synthesis, including voice cloning from a base64
// speaker sample and the eight-dimensional emotion weights.
type ZyphraClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

func NewZyphraClient(apiKey, baseURL string, log *zap.SugaredLogger) *ZyphraClient {
	if baseURL == "" {
		baseURL = DefaultZyphraBaseURL
	}
	if apiKey == "" {
		log.Warn("Zyphra API key not provided, API calls will fail")
	}
	return &ZyphraClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultCallTimeout},
		log:        log,
	}
}

func (c *ZyphraClient) Name() Name { return Zyphra }

func (c *ZyphraClient) Synthesize(ctx context.Context, text, model string, opts SynthesizeOptions) ([]byte, error) {
	if model == "" {
		model = DefaultZyphraModel
	}
	rate := opts.SpeakingRate
	if rate == 0 {
		rate = defaultSpeakingRate
	}

	payload := map[string]any{
		"text":          text,
		"model":         model,
		"speaking_rate": rate,
	}
	if opts.LanguageISOCode != "" {
		payload["language_iso_code"] = opts.LanguageISOCode
	}
	if opts.MimeType != "" {
		payload["mime_type"] = opts.MimeType
	}
	if opts.Emotion != nil {
		payload["emotion"] = opts.Emotion.Clamped()
	}
	if opts.VQScore != nil && model == ZyphraHybridModel {
		payload["vqscore"] = min(max(*opts.VQScore, vqScoreMin), vqScoreMax)
	}
	if opts.SpeakerNoised != nil && model == ZyphraHybridModel {
		payload["speaker_noised"] = *opts.SpeakerNoised
	}
	if opts.SpeakerAudio != "" {
		payload["speaker_audio"] = opts.SpeakerAudio
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apiErr(Zyphra, "speech_synthesis", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/text-to-speech", bytes.NewReader(body))
	if err != nil {
		return nil, apiErr(Zyphra, "speech_synthesis", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apiErr(Zyphra, "speech_synthesis", err)
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			c.log.Warnw("Failed to close Zyphra response body", "error", closeErr)
		}
	}()

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apiErr(Zyphra, "speech_synthesis", err)
	}
	if res.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(audio))
		if msg == "" {
			msg = res.Status
		}
		return nil, apiErr(Zyphra, "speech_synthesis", fmt.Errorf("status %d: %s", res.StatusCode, msg))
	}
	if len(audio) == 0 {
		return nil, apiErr(Zyphra, "speech_synthesis", errors.New("empty audio response"))
	}
	return audio, nil
}

func (c *ZyphraClient) Complete(ctx context.Context, prompt, model string, opts CompletionOptions) (*Completion, error) {
	return nil, &UnsupportedError{Provider: Zyphra, Operation: "completion"}
}

func (c *ZyphraClient) CompleteStream(ctx context.Context, prompt, model string, opts CompletionOptions) (Stream, error) {
	return nil, &UnsupportedError{Provider: Zyphra, Operation: "completion"}
}

func (c *ZyphraClient) Embed(ctx context.Context, text, model string) ([]float32, error) {
	return nil, &UnsupportedError{Provider: Zyphra, Operation: "embedding"}
}

func (c *ZyphraClient) AnalyzeImage(ctx context.Context, prompt string, src ImageSource, model string) (*ImageAnalysis, error) {
	return nil, &UnsupportedError{Provider: Zyphra, Operation: "image analysis"}
}

func (c *ZyphraClient) GenerateImage(ctx context.Context, prompt, model string, opts GenerateOptions) ([]GeneratedImage, error) {
	return nil, &UnsupportedError{Provider: Zyphra, Operation: "image generation"}
}

func (c *ZyphraClient) Transcribe(ctx context.Context, audio []byte, model string, opts TranscribeOptions) (*Transcription, error) {
	return nil, &UnsupportedError{Provider: Zyphra, Operation: "transcription"}
}
