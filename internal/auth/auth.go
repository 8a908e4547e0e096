// Package auth consumes the external auth service's validate-key contract.
// The gateway never issues or stores credentials itself; it asks the
// collaborator whether a key is valid and caches the answer briefly.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ai-service/internal/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	endpoint   string
	httpClient *http.Client
	redis      *redis.Client
	log        *zap.SugaredLogger
}

// NewClient points at the auth collaborator. redisClient may be nil; the
// metadata cache is then skipped and every key hits the auth service.
func NewClient(authURL string, redisClient *redis.Client, log *zap.SugaredLogger) *Client {
	return &Client{
		endpoint:   strings.TrimSuffix(authURL, "/") + "/validate-key",
		httpClient: &http.Client{Timeout: shared.AuthRequestTimeout},
		redis:      redisClient,
		log:        log,
	}
}

type validateResponse struct {
	User *shared.User `json:"user"`
}

// ValidateAPIKey resolves an API key to a user, from cache when possible.
// Invalid and inactive keys come back as RequestError so the middleware can
// reject before dispatch.
func (c *Client) ValidateAPIKey(ctx context.Context, apiKey string) (*shared.User, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, shared.ErrMissingAuth
	}

	cacheKey := fmt.Sprintf("v1:user:apikey:%s", apiKey)
	if c.redis != nil {
		cached, err := c.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var user shared.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				return &user, nil
			}
			c.log.Errorw("Error unmarshalling user info cache", "error", err)
		} else if err != redis.Nil {
			c.log.Warnw("User cache read failed", "error", err)
		}
	}

	user, err := c.validateRemote(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		go func() {
			payload, err := json.Marshal(user)
			if err != nil {
				c.log.Errorw("Error marshalling user info", "error", err)
				return
			}
			bg, cancel := context.WithTimeout(context.Background(), shared.AuthRequestTimeout)
			defer cancel()
			c.redis.Set(bg, cacheKey, payload, shared.UserInfoCacheTTL)
		}()
	}
	return user, nil
}

func (c *Client) validateRemote(ctx context.Context, apiKey string) (*shared.User, error) {
	body, err := json.Marshal(map[string]string{"api_key": apiKey})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Errorw("Error validating API key", "error", err)
		return nil, shared.ErrUnauthorized
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		c.log.Warnw("API key validation failed", "status", res.StatusCode)
		return nil, shared.ErrUnauthorized
	}

	var parsed validateResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil || parsed.User == nil {
		c.log.Errorw("Invalid validation response", "error", err)
		return nil, shared.ErrUnauthorized
	}
	if !parsed.User.IsActive {
		return nil, shared.ErrInactiveUser
	}
	return parsed.User, nil
}
