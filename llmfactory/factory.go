// Package llmfactory creates LLM clients from configuration.
package llmfactory

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"

	"github.com/flightdeck-ai/flightdeck/pkg/llms"
	"github.com/flightdeck-ai/flightdeck/pkg/llms/googleai"
	"github.com/flightdeck-ai/flightdeck/pkg/llms/openai"
)

var logger = xlog.NewPackageLogger("github.com/flightdeck-ai/flightdeck", "llmfactory")

type Factory interface {
	DefaultModel(ctx context.Context) (llms.Model, error)
	ModelByType(ctx context.Context, typ string) (llms.Model, error)
	ModelByName(ctx context.Context, name string) (llms.Model, error)
}

// Load returns a factory from the config file
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	byType map[string]llms.Model
	byName map[string]llms.Model
	lock   sync.Mutex
}

// New creates a new LLM factory
func New(cfg *Config) Factory {
	f := &factory{
		cfg:    cfg,
		byType: make(map[string]llms.Model),
		byName: make(map[string]llms.Model),
	}
	return f
}

// NewLLM creates an LLM client for the provider config.
func NewLLM(ctx context.Context, cfg *ProviderConfig) (llms.Model, error) {
	switch strings.ToUpper(cfg.Provider) {
	case "GOOGLEAI":
		var opts []googleai.Option
		if cfg.Token != "" {
			opts = append(opts, googleai.WithAPIKey(cfg.Token))
		}
		if cfg.DefaultModel != "" {
			opts = append(opts, googleai.WithDefaultModel(cfg.DefaultModel))
		}
		return googleai.New(ctx, opts...)
	case "OPENAI":
		var opts []openai.Option
		if cfg.Token != "" {
			opts = append(opts, openai.WithToken(cfg.Token))
		}
		if cfg.DefaultModel != "" {
			opts = append(opts, openai.WithDefaultModel(cfg.DefaultModel))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	default:
		return nil, errors.Newf("unsupported provider: %s", cfg.Provider)
	}
}

// DefaultModel returns a client for the first configured provider.
func (f *factory) DefaultModel(ctx context.Context) (llms.Model, error) {
	if len(f.cfg.Providers) == 0 {
		return nil, errors.New("no providers configured")
	}
	return f.ModelByName(ctx, f.cfg.Providers[0].Name)
}

func (f *factory) ModelByType(ctx context.Context, typ string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byType[typ]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if strings.EqualFold(cfg.Provider, typ) {
			model, err := NewLLM(ctx, cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"provider", cfg.Provider,
				"model", cfg.DefaultModel,
				"name", cfg.Name)

			f.byType[typ] = model
			return model, nil
		}
	}
	return nil, errors.Newf("provider not found for type: %s", typ)
}

func (f *factory) ModelByName(ctx context.Context, name string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byName[name]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.Name == name {
			model, err := NewLLM(ctx, cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"provider", cfg.Provider,
				"model", cfg.DefaultModel,
				"name", cfg.Name)

			f.byName[name] = model
			return model, nil
		}
	}
	return nil, errors.Newf("provider not found for name: %s", name)
}
