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
	DefaultCompletionModel    = "gpt-3.5-turbo-instruct"
	DefaultEmbeddingModel     = "text-embedding-ada-002"
	DefaultVisionModel        = "gpt-4o-mini"
	DefaultImageModel         = "dall-e-3"
	DefaultTranscriptionModel = "whisper-1"
)

// OpenAIClient adapts the OpenAI SDK to the gateway facade. It is also the
// designated embedding fallback for vendors without embedding support.
type OpenAIClient struct {
	client *openai.Client
	apiKey string
	log    *zap.SugaredLogger
}

func NewOpenAIClient(apiKey, baseURL string, log *zap.SugaredLogger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if apiKey == "" {
		log.Warn("OpenAI API key not provided, API calls will fail")
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), apiKey: apiKey, log: log}
}

func (c *OpenAIClient) Name() Name { return OpenAI }

func (c *OpenAIClient) completionRequest(prompt, model string, opts CompletionOptions) openai.CompletionRequest {
	if model == "" {
		model = DefaultCompletionModel
	}
	req := openai.CompletionRequest{
		Model:     model,
		Prompt:    prompt,
		MaxTokens: opts.MaxTokens,
		Stop:      opts.Stop,
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.TopP != nil {
		req.TopP = *opts.TopP
	}
	if n, ok := opts.Extra["n"].(int); ok {
		req.N = n
	}
	if pp, ok := opts.Extra["presence_penalty"].(float32); ok {
		req.PresencePenalty = pp
	}
	if fp, ok := opts.Extra["frequency_penalty"].(float32); ok {
		req.FrequencyPenalty = fp
	}
	if u, ok := opts.Extra["user"].(string); ok {
		req.User = u
	}
	return req
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt, model string, opts CompletionOptions) (*Completion, error) {
	resp, err := c.client.CreateCompletion(ctx, c.completionRequest(prompt, model, opts))
	if err != nil {
		return nil, apiErr(OpenAI, "completion", err)
	}
	out := &Completion{
		ID:      resp.ID,
		Object:  "text_completion",
		Created: resp.Created,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, ch := range resp.Choices {
		out.Choices = append(out.Choices, Choice{
			Text:         ch.Text,
			Index:        ch.Index,
			FinishReason: ch.FinishReason,
		})
	}
	return out, nil
}

type openaiStream struct {
	inner *openai.CompletionStream
}

func (s *openaiStream) Recv() (CompletionChunk, error) {
	resp, err := s.inner.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return CompletionChunk{}, io.EOF
		}
		return CompletionChunk{}, apiErr(OpenAI, "completion_stream", err)
	}
	chunk := CompletionChunk{
		ID:      resp.ID,
		Object:  "text_completion",
		Created: resp.Created,
		Model:   resp.Model,
	}
	for _, ch := range resp.Choices {
		chunk.Choices = append(chunk.Choices, Choice{
			Text:         ch.Text,
			Index:        ch.Index,
			FinishReason: ch.FinishReason,
		})
	}
	return chunk, nil
}

func (s *openaiStream) Close() error {
	s.inner.Close()
	return nil
}

func (c *OpenAIClient) CompleteStream(ctx context.Context, prompt, model string, opts CompletionOptions) (Stream, error) {
	stream, err := c.client.CreateCompletionStream(ctx, c.completionRequest(prompt, model, opts))
	if err != nil {
		return nil, apiErr(OpenAI, "completion_stream", err)
	}
	return &openaiStream{inner: stream}, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, apiErr(OpenAI, "embedding", err)
	}
	if len(resp.Data) == 0 {
		return nil, apiErr(OpenAI, "embedding", errors.New("no embedding data returned"))
	}
	return resp.Data[0].Embedding, nil
}

func (c *OpenAIClient) AnalyzeImage(ctx context.Context, prompt string, src ImageSource, model string) (*ImageAnalysis, error) {
	if model == "" {
		model = DefaultVisionModel
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: src.URI()}},
			},
		}},
	})
	if err != nil {
		return nil, apiErr(OpenAI, "image_analysis", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apiErr(OpenAI, "image_analysis", errors.New("no choices returned"))
	}
	return &ImageAnalysis{
		Text:         resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt, model string, opts GenerateOptions) ([]GeneratedImage, error) {
	if model == "" {
		model = DefaultImageModel
	}
	req := openai.ImageRequest{
		Prompt: prompt,
		Model:  model,
		N:      max(opts.NumOutputs, 1),
	}
	if opts.Size != "" {
		req.Size = opts.Size
	}
	resp, err := c.client.CreateImage(ctx, req)
	if err != nil {
		return nil, apiErr(OpenAI, "image_generation", err)
	}
	images := make([]GeneratedImage, 0, len(resp.Data))
	for _, d := range resp.Data {
		images = append(images, GeneratedImage{URL: d.URL, B64JSON: d.B64JSON})
	}
	return images, nil
}

func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, model string, opts TranscribeOptions) (*Transcription, error) {
	if model == "" {
		model = DefaultTranscriptionModel
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
		return nil, apiErr(OpenAI, "transcription", err)
	}
	return &Transcription{Text: resp.Text}, nil
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text, model string, opts SynthesizeOptions) ([]byte, error) {
	return nil, &UnsupportedError{Provider: OpenAI, Operation: "speech synthesis"}
}
