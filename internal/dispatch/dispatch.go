// Package dispatch selects a concrete provider client for each request and
// applies the single deterministic embedding fallback for providers that
// lack the capability.
package dispatch

import (
	"context"
	"fmt"

	"ai-service/internal/metrics"
	"ai-service/internal/providers"

	"go.uber.org/zap"
)

type ProviderConfig struct {
	APIKey  string
	BaseURL string
}

type Config struct {
	OpenAI    ProviderConfig
	Groq      ProviderConfig
	Zyphra    ProviderConfig
	Replicate ProviderConfig

	// Fallback is the vendor substituted when the selected one lacks
	// embedding support. Defaults to OpenAI, the one vendor here with a
	// real embeddings endpoint.
	Fallback providers.Name
}

// Router holds one pre-built client per provider plus the construction
// config so per-call credential overrides can get a fresh client. It is
// immutable after construction and safe for concurrent use.
type Router struct {
	cfg      Config
	defaults map[providers.Name]providers.Client
	fallback providers.Name
	log      *zap.SugaredLogger
}

func NewRouter(cfg Config, log *zap.SugaredLogger) *Router {
	if cfg.Fallback == "" {
		cfg.Fallback = providers.OpenAI
	}
	r := &Router{cfg: cfg, fallback: cfg.Fallback, log: log}
	r.defaults = map[providers.Name]providers.Client{
		providers.OpenAI:    r.build(providers.OpenAI, providers.Credentials{}),
		providers.Groq:      r.build(providers.Groq, providers.Credentials{}),
		providers.Zyphra:    r.build(providers.Zyphra, providers.Credentials{}),
		providers.Replicate: r.build(providers.Replicate, providers.Credentials{}),
	}
	return r
}

func (r *Router) Fallback() providers.Name { return r.fallback }

func (r *Router) build(name providers.Name, creds providers.Credentials) providers.Client {
	pick := func(cfg ProviderConfig) (string, string) {
		key, base := cfg.APIKey, cfg.BaseURL
		if creds.APIKey != "" {
			key = creds.APIKey
		}
		if creds.BaseURL != "" {
			base = creds.BaseURL
		}
		return key, base
	}
	switch name {
	case providers.Groq:
		key, base := pick(r.cfg.Groq)
		return providers.NewGroqClient(key, base, r.log)
	case providers.Zyphra:
		key, base := pick(r.cfg.Zyphra)
		return providers.NewZyphraClient(key, base, r.log)
	case providers.Replicate:
		key, base := pick(r.cfg.Replicate)
		return providers.NewReplicateClient(key, base, r.log)
	default:
		key, base := pick(r.cfg.OpenAI)
		return providers.NewOpenAIClient(key, base, r.log)
	}
}

// Select returns the client for the named provider, constructing a fresh
// one when the caller supplied a per-call credential override.
func (r *Router) Select(name providers.Name, creds providers.Credentials) (providers.Client, error) {
	client, ok := r.defaults[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	if creds.Empty() {
		return client, nil
	}
	return r.build(name, creds), nil
}

// Embed runs the embedding through the selected provider and, when that
// provider reports the capability as unsupported, substitutes the fallback
// provider exactly once. The fallback uses its own credentials and default
// model since the primary's are vendor-specific. Any other error kind
// propagates unchanged. Returns the provider that actually produced the
// vector so accounting can attribute it correctly.
func (r *Router) Embed(ctx context.Context, name providers.Name, creds providers.Credentials, text, model string) ([]float32, providers.Name, error) {
	client, err := r.Select(name, creds)
	if err != nil {
		return nil, name, err
	}
	vector, err := client.Embed(ctx, text, model)
	if err == nil {
		return vector, name, nil
	}
	if !providers.IsUnsupported(err) || name == r.fallback {
		return nil, name, err
	}

	r.log.Warnw("Provider lacks embedding support, substituting fallback",
		"provider", name,
		"fallback", r.fallback)
	metrics.EmbeddingFallbacks.WithLabelValues(string(name), string(r.fallback)).Inc()

	vector, err = r.defaults[r.fallback].Embed(ctx, text, "")
	if err != nil {
		return nil, r.fallback, err
	}
	return vector, r.fallback, nil
}
