package agents

import (
	"github.com/flightdeck-ai/flightdeck/pkg/llms"
	"github.com/flightdeck-ai/flightdeck/store"
)

// Option is a function that can be used to modify the Agent Config.
type Option func(*Config)

// Config holds the agent and per-call configuration.
type Config struct {
	// Model overrides the model identifier for an LLM call.
	Model string

	// MaxTokens is the maximum number of tokens to generate in an LLM call.
	MaxTokens int

	// Temperature is the temperature for sampling in an LLM call, between 0 and 1.
	Temperature    float64
	temperatureSet bool

	// Tools is a list of tool definitions to pass to an LLM call.
	Tools []llms.Tool

	// CallbackHandler receives agent, LLM and tool events.
	CallbackHandler Callback

	// Store keeps the conversation history between calls.
	Store store.MessageStore

	// MaxToolCalls limits the tool invocations in a single run.
	MaxToolCalls int

	// MaxMessages limits the messages accumulated in a single run.
	MaxMessages int

	// MaxLength limits the total content bytes sent to the LLM.
	MaxLength int

	// SkipMessageHistory skips adding the run messages to the Store.
	SkipMessageHistory bool
}

// NewConfig creates a Config from options.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply returns a copy of the Config with the options applied.
func (c *Config) Apply(opts ...Option) *Config {
	cfg := *c
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// GetCallOptions converts the Config into LLM call options.
func (c *Config) GetCallOptions(extra ...Option) []llms.CallOption {
	cfg := c.Apply(extra...)

	var callOpts []llms.CallOption
	if cfg.Model != "" {
		callOpts = append(callOpts, llms.WithModel(cfg.Model))
	}
	if cfg.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.temperatureSet {
		callOpts = append(callOpts, llms.WithTemperature(cfg.Temperature))
	}
	if len(cfg.Tools) > 0 {
		callOpts = append(callOpts, llms.WithTools(cfg.Tools))
	}
	return callOpts
}

// WithModel overrides the model identifier for LLM calls.
func WithModel(model string) Option {
	return func(o *Config) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Config) {
		o.MaxTokens = maxTokens
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(o *Config) {
		o.Temperature = temperature
		o.temperatureSet = true
	}
}

// WithTools sets the tool definitions to pass to LLM calls.
func WithTools(tools []llms.Tool) Option {
	return func(o *Config) {
		o.Tools = tools
	}
}

// WithCallback sets the callback handler.
func WithCallback(callback Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callback
	}
}

// WithMessageStore sets the conversation history store.
func WithMessageStore(s store.MessageStore) Option {
	return func(o *Config) {
		o.Store = s
	}
}

// WithMaxToolCalls limits the tool invocations in a single run.
func WithMaxToolCalls(n int) Option {
	return func(o *Config) {
		o.MaxToolCalls = n
	}
}

// WithMaxMessages limits the messages accumulated in a single run.
func WithMaxMessages(n int) Option {
	return func(o *Config) {
		o.MaxMessages = n
	}
}

// WithMaxLength limits the total content bytes sent to the LLM.
func WithMaxLength(n int) Option {
	return func(o *Config) {
		o.MaxLength = n
	}
}

// WithSkipMessageHistory skips adding the run messages to the Store.
func WithSkipMessageHistory(skip bool) Option {
	return func(o *Config) {
		o.SkipMessageHistory = skip
	}
}
