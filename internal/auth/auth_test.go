package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-service/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func authService(t *testing.T, users map[string]shared.User) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/validate-key", r.URL.Path)

		var body struct {
			APIKey string `json:"api_key"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		user, ok := users[body.APIKey]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"user": user})
	}))
}

func TestValidateAPIKey(t *testing.T) {
	srv := authService(t, map[string]shared.User{
		"sk-good":     {ID: 42, Username: "ada", IsActive: true},
		"sk-inactive": {ID: 7, Username: "bob", IsActive: false},
	})
	defer srv.Close()

	client := NewClient(srv.URL, nil, zap.NewNop().Sugar())
	ctx := context.Background()

	t.Run("valid key resolves the user", func(t *testing.T) {
		user, err := client.ValidateAPIKey(ctx, "sk-good")
		require.NoError(t, err)
		assert.EqualValues(t, 42, user.ID)
		assert.Equal(t, "ada", user.Username)
	})

	t.Run("unknown key is unauthorized", func(t *testing.T) {
		_, err := client.ValidateAPIKey(ctx, "sk-bad")
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("inactive user is rejected with its own error", func(t *testing.T) {
		_, err := client.ValidateAPIKey(ctx, "sk-inactive")
		assert.ErrorIs(t, err, shared.ErrInactiveUser)
	})

	t.Run("empty key never leaves the process", func(t *testing.T) {
		_, err := client.ValidateAPIKey(ctx, "  ")
		assert.ErrorIs(t, err, shared.ErrMissingAuth)
	})
}

func TestValidateAPIKeyServiceDown(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil, zap.NewNop().Sugar())
	_, err := client.ValidateAPIKey(context.Background(), "sk-good")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestValidateAPIKeyGarbledResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zap.NewNop().Sugar())
	_, err := client.ValidateAPIKey(context.Background(), "sk-good")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
