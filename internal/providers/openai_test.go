package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenAICompletionRequest(t *testing.T) {
	c := NewOpenAIClient("k", "", zap.NewNop().Sugar())

	t.Run("defaults", func(t *testing.T) {
		req := c.completionRequest("once upon a time", "", CompletionOptions{MaxTokens: 150})
		assert.Equal(t, DefaultCompletionModel, req.Model)
		assert.Equal(t, "once upon a time", req.Prompt)
		assert.Equal(t, 150, req.MaxTokens)
		assert.Zero(t, req.N)
	})

	t.Run("explicit model wins", func(t *testing.T) {
		req := c.completionRequest("p", "davinci-002", CompletionOptions{})
		assert.Equal(t, "davinci-002", req.Model)
	})

	t.Run("vendor knobs from the typed bag", func(t *testing.T) {
		temp := float32(0.9)
		topP := float32(0.5)
		req := c.completionRequest("p", "", CompletionOptions{
			Temperature: &temp,
			TopP:        &topP,
			Stop:        []string{"END"},
			Extra: map[string]any{
				"n":                3,
				"presence_penalty": float32(0.25),
				"user":             "caller-7",
			},
		})
		assert.Equal(t, temp, req.Temperature)
		assert.Equal(t, topP, req.TopP)
		assert.Equal(t, []string{"END"}, req.Stop)
		assert.Equal(t, 3, req.N)
		assert.Equal(t, float32(0.25), req.PresencePenalty)
		assert.Equal(t, "caller-7", req.User)
	})

	t.Run("mistyped knobs are ignored", func(t *testing.T) {
		req := c.completionRequest("p", "", CompletionOptions{
			Extra: map[string]any{"n": "three"},
		})
		assert.Zero(t, req.N)
	})
}

func TestOpenAISynthesizeUnsupported(t *testing.T) {
	c := NewOpenAIClient("k", "", zap.NewNop().Sugar())
	_, err := c.Synthesize(context.Background(), "text", "", SynthesizeOptions{})
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
}
