package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractParams(t *testing.T) {
	seed := 42
	rate := 22.5
	n := 3

	params := ProviderParams{
		OpenAI: &OpenAIParams{N: &n},
		Groq:   &GroqParams{Seed: &seed},
		Zyphra: &ZyphraParams{SpeakingRate: &rate},
	}

	t.Run("returns only the matching provider's fields", func(t *testing.T) {
		out := ExtractParams(params, Groq)
		assert.Equal(t, map[string]any{"seed": 42}, out)
	})

	t.Run("no leakage from other providers", func(t *testing.T) {
		out := ExtractParams(params, OpenAI)
		assert.Equal(t, map[string]any{"n": 3}, out)
		assert.NotContains(t, out, "seed")
		assert.NotContains(t, out, "speaking_rate")
	})

	t.Run("absent sub-object yields empty map", func(t *testing.T) {
		out := ExtractParams(params, Replicate)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("zero params yields empty map for every provider", func(t *testing.T) {
		for _, name := range []Name{OpenAI, Groq, Zyphra, Replicate} {
			out := ExtractParams(ProviderParams{}, name)
			assert.NotNil(t, out)
			assert.Empty(t, out)
		}
	})

	t.Run("nil fields inside a sub-object are skipped", func(t *testing.T) {
		out := ExtractParams(ProviderParams{Zyphra: &ZyphraParams{SpeakingRate: &rate}}, Zyphra)
		assert.Equal(t, map[string]any{"speaking_rate": 22.5}, out)
	})
}
