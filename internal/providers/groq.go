package providers

import (
	"bytes"
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultGroqBaseURL            = "https://api.groq.com/openai/v1"
	DefaultGroqModel              = "llama-3.3-70b-versatile"
	DefaultGroqTranscriptionModel = "whisper-large-v3"
)

// GroqClient speaks Groq's OpenAI-compatible API. Groq only exposes chat
// completions, so plain completions are mapped onto a single user message
// and the chat response is reshaped into the text_completion format the
// gateway returns everywhere. Groq has no embedding endpoint; Embed reports
// the gap so the dispatcher can substitute the fallback provider.
type GroqClient struct {
	client *openai.Client
	log    *zap.SugaredLogger
}

func NewGroqClient(apiKey, baseURL string, log *zap.SugaredLogger) *GroqClient {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	if apiKey == "" {
		log.Warn("Groq API key not provided, API calls will fail")
	}
	return &GroqClient{client: openai.NewClientWithConfig(cfg), log: log}
}

func (c *GroqClient) Name() Name { return Groq }

func (c *GroqClient) chatRequest(prompt, model string, opts CompletionOptions) openai.ChatCompletionRequest {
	if model == "" {
		model = DefaultGroqModel
	}
	req := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens: opts.MaxTokens,
		Stop:      opts.Stop,
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.TopP != nil {
		req.TopP = *opts.TopP
	}
	if seed, ok := opts.Extra["seed"].(int); ok {
		req.Seed = &seed
	}
	if tier, ok := opts.Extra["service_tier"].(string); ok {
		req.ServiceTier = openai.ServiceTier(tier)
	}
	if effort, ok := opts.Extra["reasoning_effort"].(string); ok {
		req.ReasoningEffort = effort
	}
	return req
}

func (c *GroqClient) Complete(ctx context.Context, prompt, model string, opts CompletionOptions) (*Completion, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.chatRequest(prompt, model, opts))
	if err != nil {
		return nil, apiErr(Groq, "completion", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apiErr(Groq, "completion", errors.New("no choices returned"))
	}
	return &Completion{
		ID:      resp.ID,
		Object:  "text_completion",
		Created: resp.Created,
		Model:   resp.Model,
		Choices: []Choice{{
			Text:         resp.Choices[0].Message.Content,
			Index:        0,
			FinishReason: string(resp.Choices[0].FinishReason),
		}},
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

type groqStream struct {
	inner *openai.ChatCompletionStream
}

func (s *groqStream) Recv() (CompletionChunk, error) {
	// Skip keep-alive chunks carrying neither content nor a finish reason.
	for {
		resp, err := s.inner.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return CompletionChunk{}, io.EOF
			}
			return CompletionChunk{}, apiErr(Groq, "completion_stream", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0]
		if delta.Delta.Content == "" && delta.FinishReason == "" {
			continue
		}
		return CompletionChunk{
			ID:      resp.ID,
			Object:  "text_completion",
			Created: resp.Created,
			Model:   resp.Model,
			Choices: []Choice{{
				Text:         delta.Delta.Content,
				Index:        0,
				FinishReason: string(delta.FinishReason),
			}},
		}, nil
	}
}

func (s *groqStream) Close() error {
	s.inner.Close()
	return nil
}

func (c *GroqClient) CompleteStream(ctx context.Context, prompt, model string, opts CompletionOptions) (Stream, error) {
	req := c.chatRequest(prompt, model, opts)
	req.Stream = true
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, apiErr(Groq, "completion_stream", err)
	}
	return &groqStream{inner: stream}, nil
}

func (c *GroqClient) Embed(ctx context.Context, text, model string) ([]float32, error) {
	return nil, &UnsupportedError{Provider: Groq, Operation: "embedding"}
}

func (c *GroqClient) AnalyzeImage(ctx context.Context, prompt string, src ImageSource, model string) (*ImageAnalysis, error) {
	return nil, &UnsupportedError{Provider: Groq, Operation: "image analysis"}
}

func (c *GroqClient) GenerateImage(ctx context.Context, prompt, model string, opts GenerateOptions) ([]GeneratedImage, error) {
	return nil, &UnsupportedError{Provider: Groq, Operation: "image generation"}
}

func (c *GroqClient) Transcribe(ctx context.Context, audio []byte, model string, opts TranscribeOptions) (*Transcription, error) {
	if model == "" {
		model = DefaultGroqTranscriptionModel
	}
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       model,
		FilePath:    "audio.mp3",
		Reader:      bytes.NewReader(audio),
		Prompt:      opts.Prompt,
		Language:    opts.Language,
		Temperature: opts.Temperature,
		Format:      openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, apiErr(Groq, "transcription", err)
	}
	return &Transcription{Text: resp.Text}, nil
}

func (c *GroqClient) Synthesize(ctx context.Context, text, model string, opts SynthesizeOptions) ([]byte, error) {
	return nil, &UnsupportedError{Provider: Groq, Operation: "speech synthesis"}
}
