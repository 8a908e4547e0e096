package shared

import (
	"ai-service/internal/providers"
)

// User is the identity returned by the external auth service for a valid
// API key. This service only consumes the contract.
type User struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	IsActive bool   `json:"is_active"`
}

// ErrorBody is the JSON error envelope returned by every route.
type ErrorBody struct {
	Message string `json:"message"`
	Object  string `json:"object"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// Common fields shared by every request envelope. Provider selects the
// backend; APIKey/BaseURL are optional per-call credential overrides; UserID
// attributes the call in analytics when no authenticated user is present.
type RequestMeta struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

func (m RequestMeta) Credentials() providers.Credentials {
	return providers.Credentials{APIKey: m.APIKey, BaseURL: m.BaseURL}
}

type CompletionRequest struct {
	RequestMeta
	providers.ProviderParams

	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type EmbeddingRequest struct {
	RequestMeta

	Input string `json:"input"`
}

type SimilarityRequest struct {
	RequestMeta

	Query     string   `json:"query"`
	Limit     int      `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

type SimilarityResult struct {
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	CreatedAt string  `json:"created_at"`
}

type SimilarityResponse struct {
	Results []SimilarityResult `json:"results"`
}

type ImageAnalyzeRequest struct {
	RequestMeta

	Prompt      string `json:"prompt"`
	ImageURL    string `json:"image_url,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	ImageMime   string `json:"image_mime,omitempty"`
}

type ImageGenerateRequest struct {
	RequestMeta
	providers.ProviderParams

	Prompt     string `json:"prompt"`
	NumOutputs int    `json:"num_outputs,omitempty"`
	Size       string `json:"size,omitempty"`
}

type TranscribeRequest struct {
	RequestMeta

	AudioBase64 string  `json:"audio_base64"`
	Language    string  `json:"language,omitempty"`
	Prompt      string  `json:"prompt,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

type SynthesizeRequest struct {
	RequestMeta
	providers.ProviderParams

	Text            string                    `json:"text"`
	SpeakingRate    float64                   `json:"speaking_rate,omitempty"`
	LanguageISOCode string                    `json:"language_iso_code,omitempty"`
	MimeType        string                    `json:"mime_type,omitempty"`
	Emotion         *providers.EmotionWeights `json:"emotion,omitempty"`
	VQScore         *float64                  `json:"vqscore,omitempty"`
	SpeakerNoised   *bool                     `json:"speaker_noised,omitempty"`
	SpeakerAudio    string                    `json:"speaker_audio,omitempty"`
}
