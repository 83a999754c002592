package llmfactory

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config describes the configured LLM providers.
type Config struct {
	Providers []*ProviderConfig `json:"providers" yaml:"providers"`
}

// ProviderConfig describes a single LLM provider.
type ProviderConfig struct {
	// Name is a unique name of the provider entry.
	Name string `json:"name" yaml:"name" validate:"required"`
	// Provider specifies the provider type: GOOGLEAI|OPENAI
	Provider string `json:"provider" yaml:"provider" validate:"required,oneof=GOOGLEAI OPENAI"`
	// Token is the API key. Values in the form ${ENV_NAME} are expanded
	// from the environment on load.
	Token        string `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel string `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	// BaseURL overrides the API endpoint, for OpenAI-compatible providers.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if err := validate.Struct(p); err != nil {
			return errors.WithMessagef(err, "provider [%d]", i)
		}
		if seen[p.Name] {
			return errors.Newf("provider [%d]: duplicate name: %s", i, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// LoadConfig from file
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
