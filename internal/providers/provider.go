// Package providers exposes one uniform client surface over the third-party
// AI vendors the gateway fronts. Each concrete client adapts a vendor's
// calling convention and response shape to this interface; capability gaps
// surface as UnsupportedError so the dispatcher can decide whether to fall
// back.
package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

type Name string

const (
	OpenAI    Name = "openai"
	Groq      Name = "groq"
	Zyphra    Name = "zyphra"
	Replicate Name = "replicate"
)

// ParseName maps a request's provider field onto a known vendor.
func ParseName(s string) (Name, bool) {
	switch Name(s) {
	case OpenAI, Groq, Zyphra, Replicate:
		return Name(s), true
	}
	return "", false
}

// Vendor call timeouts. The upstream services give no policy; these are
// hardening bounds so a stuck vendor cannot hold a request forever.
const (
	DefaultCallTimeout   = 120 * time.Second
	DefaultStreamTimeout = 10 * time.Minute
)

// Credentials is an optional per-call override of the key and endpoint a
// client was constructed with.
type Credentials struct {
	APIKey  string
	BaseURL string
}

func (c Credentials) Empty() bool {
	return c.APIKey == "" && c.BaseURL == ""
}

type CompletionOptions struct {
	MaxTokens   int
	Temperature *float32
	TopP        *float32
	Stop        []string

	// Extra carries the provider-specific knobs selected by ExtractParams.
	Extra map[string]any
}

type Completion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionChunk is one partial completion from a streaming call. Chunks
// arrive in strict generation order; the terminal chunk carries a non-empty
// finish reason.
type CompletionChunk struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Stream is a pull-based sequence of completion chunks. Recv returns io.EOF
// after the vendor's final chunk. Close releases the vendor connection and
// must be called on every exit path.
type Stream interface {
	Recv() (CompletionChunk, error)
	Close() error
}

// ImageSource is either a fetchable URL or raw bytes. Raw bytes are inlined
// as a base64 data URI for vendors that require inline images.
type ImageSource struct {
	URL  string
	Data []byte
	Mime string
}

func (s ImageSource) URI() string {
	if s.URL != "" {
		return s.URL
	}
	mime := s.Mime
	if mime == "" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(s.Data))
}

type ImageAnalysis struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	FinishReason string `json:"finish_reason"`
}

type GenerateOptions struct {
	NumOutputs int
	Size       string
	Extra      map[string]any
}

type GeneratedImage struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}

type TranscribeOptions struct {
	Language    string
	Prompt      string
	Temperature float32
}

type Transcription struct {
	Text string `json:"text"`
}

// EmotionWeights are the eight Zyphra emotion dimensions. Each weight is
// clamped to [0, 1] before transmission.
type EmotionWeights struct {
	Happiness float64 `json:"happiness"`
	Neutral   float64 `json:"neutral"`
	Sadness   float64 `json:"sadness"`
	Disgust   float64 `json:"disgust"`
	Fear      float64 `json:"fear"`
	Surprise  float64 `json:"surprise"`
	Anger     float64 `json:"anger"`
	Other     float64 `json:"other"`
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

func (w EmotionWeights) Clamped() EmotionWeights {
	return EmotionWeights{
		Happiness: clamp01(w.Happiness),
		Neutral:   clamp01(w.Neutral),
		Sadness:   clamp01(w.Sadness),
		Disgust:   clamp01(w.Disgust),
		Fear:      clamp01(w.Fear),
		Surprise:  clamp01(w.Surprise),
		Anger:     clamp01(w.Anger),
		Other:     clamp01(w.Other),
	}
}

type SynthesizeOptions struct {
	SpeakingRate    float64
	LanguageISOCode string
	MimeType        string
	Emotion         *EmotionWeights
	VQScore         *float64
	SpeakerNoised   *bool

	// SpeakerAudio is a base64 voice-clone reference sample.
	SpeakerAudio string
}

// Client is the uniform operation surface. Implementations perform only
// network I/O against their vendor; no state is mutated beyond the request
// scope. Vendor failures come back as *APIError, capability gaps as
// *UnsupportedError.
type Client interface {
	Name() Name

	Complete(ctx context.Context, prompt, model string, opts CompletionOptions) (*Completion, error)
	CompleteStream(ctx context.Context, prompt, model string, opts CompletionOptions) (Stream, error)
	Embed(ctx context.Context, text, model string) ([]float32, error)
	AnalyzeImage(ctx context.Context, prompt string, src ImageSource, model string) (*ImageAnalysis, error)
	GenerateImage(ctx context.Context, prompt, model string, opts GenerateOptions) ([]GeneratedImage, error)
	Transcribe(ctx context.Context, audio []byte, model string, opts TranscribeOptions) (*Transcription, error)
	Synthesize(ctx context.Context, text, model string, opts SynthesizeOptions) ([]byte, error)
}
