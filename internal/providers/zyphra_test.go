package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func zyphraServer(t *testing.T, captured *map[string]any, status int, audio []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/audio/text-to-speech", r.URL.Path)
		require.Equal(t, "secret-key", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		w.WriteHeader(status)
		_, _ = w.Write(audio)
	}))
}

func TestZyphraSynthesizeDefaults(t *testing.T) {
	var got map[string]any
	srv := zyphraServer(t, &got, http.StatusOK, []byte("RIFFaudio"))
	defer srv.Close()

	c := NewZyphraClient("secret-key", srv.URL, zap.NewNop().Sugar())
	audio, err := c.Synthesize(context.Background(), "hello", "", SynthesizeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFaudio"), audio)

	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, DefaultZyphraModel, got["model"])
	assert.Equal(t, defaultSpeakingRate, got["speaking_rate"])
	assert.NotContains(t, got, "vqscore")
	assert.NotContains(t, got, "speaker_noised")
	assert.NotContains(t, got, "emotion")
	assert.NotContains(t, got, "speaker_audio")
}

func TestZyphraHybridOnlyKnobs(t *testing.T) {
	score := 0.95
	noised := true

	t.Run("hybrid model clamps vqscore into its band", func(t *testing.T) {
		var got map[string]any
		srv := zyphraServer(t, &got, http.StatusOK, []byte("x"))
		defer srv.Close()

		c := NewZyphraClient("secret-key", srv.URL, zap.NewNop().Sugar())
		_, err := c.Synthesize(context.Background(), "hi", ZyphraHybridModel, SynthesizeOptions{
			VQScore:       &score,
			SpeakerNoised: &noised,
		})
		require.NoError(t, err)
		assert.Equal(t, vqScoreMax, got["vqscore"])
		assert.Equal(t, true, got["speaker_noised"])
	})

	t.Run("transformer model drops them", func(t *testing.T) {
		var got map[string]any
		srv := zyphraServer(t, &got, http.StatusOK, []byte("x"))
		defer srv.Close()

		c := NewZyphraClient("secret-key", srv.URL, zap.NewNop().Sugar())
		_, err := c.Synthesize(context.Background(), "hi", DefaultZyphraModel, SynthesizeOptions{
			VQScore:       &score,
			SpeakerNoised: &noised,
		})
		require.NoError(t, err)
		assert.NotContains(t, got, "vqscore")
		assert.NotContains(t, got, "speaker_noised")
	})

	t.Run("low vqscore is raised to the floor", func(t *testing.T) {
		var got map[string]any
		srv := zyphraServer(t, &got, http.StatusOK, []byte("x"))
		defer srv.Close()

		low := 0.1
		c := NewZyphraClient("secret-key", srv.URL, zap.NewNop().Sugar())
		_, err := c.Synthesize(context.Background(), "hi", ZyphraHybridModel, SynthesizeOptions{VQScore: &low})
		require.NoError(t, err)
		assert.Equal(t, vqScoreMin, got["vqscore"])
	})
}

func TestZyphraEmotionWeightsAreClamped(t *testing.T) {
	var got map[string]any
	srv := zyphraServer(t, &got, http.StatusOK, []byte("x"))
	defer srv.Close()

	c := NewZyphraClient("secret-key", srv.URL, zap.NewNop().Sugar())
	_, err := c.Synthesize(context.Background(), "hi", "", SynthesizeOptions{
		Emotion: &EmotionWeights{Happiness: 2.5, Sadness: -1},
	})
	require.NoError(t, err)

	emotion, ok := got["emotion"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, emotion["happiness"])
	assert.Equal(t, 0.0, emotion["sadness"])
}

func TestZyphraVoiceCloneSendsSpeakerAudio(t *testing.T) {
	var got map[string]any
	srv := zyphraServer(t, &got, http.StatusOK, []byte("x"))
	defer srv.Close()

	c := NewZyphraClient("secret-key", srv.URL, zap.NewNop().Sugar())
	_, err := c.Synthesize(context.Background(), "hi", "", SynthesizeOptions{SpeakerAudio: "QUJD"})
	require.NoError(t, err)
	assert.Equal(t, "QUJD", got["speaker_audio"])
}

func TestZyphraErrorResponses(t *testing.T) {
	t.Run("non-200 surfaces as an api error", func(t *testing.T) {
		var got map[string]any
		srv := zyphraServer(t, &got, http.StatusUnauthorized, []byte("bad key"))
		defer srv.Close()

		c := NewZyphraClient("secret-key", srv.URL, zap.NewNop().Sugar())
		_, err := c.Synthesize(context.Background(), "hi", "", SynthesizeOptions{})
		require.Error(t, err)
		var apiError *APIError
		require.ErrorAs(t, err, &apiError)
		assert.Equal(t, Zyphra, apiError.Provider)
		assert.Contains(t, err.Error(), "bad key")
	})

	t.Run("empty audio body is an error", func(t *testing.T) {
		var got map[string]any
		srv := zyphraServer(t, &got, http.StatusOK, nil)
		defer srv.Close()

		c := NewZyphraClient("secret-key", srv.URL, zap.NewNop().Sugar())
		_, err := c.Synthesize(context.Background(), "hi", "", SynthesizeOptions{})
		require.Error(t, err)
	})
}

func TestZyphraUnsupportedOperations(t *testing.T) {
	c := NewZyphraClient("k", "http://localhost", zap.NewNop().Sugar())
	ctx := context.Background()

	_, err := c.Complete(ctx, "p", "", CompletionOptions{})
	assert.True(t, IsUnsupported(err))
	_, err = c.Embed(ctx, "t", "")
	assert.True(t, IsUnsupported(err))
	_, err = c.GenerateImage(ctx, "p", "", GenerateOptions{})
	assert.True(t, IsUnsupported(err))
	_, err = c.Transcribe(ctx, nil, "", TranscribeOptions{})
	assert.True(t, IsUnsupported(err))
}
