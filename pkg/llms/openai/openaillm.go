// Package openai implements an llms provider using the official OpenAI Go SDK.
package openai

import (
	"context"
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/flightdeck-ai/flightdeck/pkg/llms"
)

// ErrEmptyResponse is returned when the API returns no choices.
var ErrEmptyResponse = errors.New("no response choices returned")

// LLM is an OpenAI chat completions client.
type LLM struct {
	client openai.Client
	opts   Options
}

// Options is a set of options for the OpenAI client.
type Options struct {
	Token        string
	BaseURL      string
	DefaultModel string
}

type Option func(*Options)

// WithToken passes the API token to the client.
func WithToken(token string) Option {
	return func(opts *Options) {
		opts.Token = token
	}
}

// WithBaseURL sets an alternative endpoint, for OpenAI-compatible providers.
func WithBaseURL(baseURL string) Option {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

// WithDefaultModel passes a default model name to the client.
func WithDefaultModel(model string) Option {
	return func(opts *Options) {
		opts.DefaultModel = model
	}
}

var _ llms.Model = (*LLM)(nil)

// New creates a new OpenAI client.
func New(opts ...Option) (*LLM, error) {
	clientOptions := Options{
		DefaultModel: "gpt-4o-mini",
	}
	for _, opt := range opts {
		opt(&clientOptions)
	}
	if clientOptions.Token == "" {
		clientOptions.Token = os.Getenv("OPENAI_API_KEY")
	}

	var reqOpts []option.RequestOption
	if clientOptions.Token != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(clientOptions.Token))
	}
	if clientOptions.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(clientOptions.BaseURL))
	}

	return &LLM{
		client: openai.NewClient(reqOpts...),
		opts:   clientOptions,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.opts.DefaultModel
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderOpenAI
}

// GenerateContent implements the [llms.Model] interface.
func (o *LLM) GenerateContent(
	ctx context.Context,
	messages []llms.Message,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{
		Model: o.opts.DefaultModel,
	}
	for _, opt := range options {
		opt(&opts)
	}

	chatMsgs, err := convertMessages(messages)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    values.StringsCoalesce(opts.Model, o.opts.DefaultModel),
		Messages: chatMsgs,
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if len(opts.StopWords) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: opts.StopWords,
		}
	}
	if opts.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	if len(opts.Tools) > 0 {
		params.Tools, err = convertTools(opts.Tools)
		if err != nil {
			return nil, err
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "openai completion failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}

	result := &llms.ContentResponse{}
	for _, choice := range resp.Choices {
		cc := &llms.ContentChoice{
			Content:    choice.Message.Content,
			StopReason: string(choice.FinishReason),
			GenerationInfo: map[string]any{
				"InputTokens":  resp.Usage.PromptTokens,
				"OutputTokens": resp.Usage.CompletionTokens,
				"TotalTokens":  resp.Usage.TotalTokens,
			},
		}
		for _, tc := range choice.Message.ToolCalls {
			cc.ToolCalls = append(cc.ToolCalls, llms.ToolCall{
				ID:   tc.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		result.Choices = append(result.Choices, cc)
	}
	return result, nil
}

func convertMessages(messages []llms.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llms.RoleSystem:
			result = append(result, openai.SystemMessage(msg.GetContent()))
		case llms.RoleHuman:
			result = append(result, openai.UserMessage(msg.GetContent()))
		case llms.RoleAI:
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if content := msg.GetContent(); content != "" {
				assistant.Content.OfString = openai.String(content)
			}
			for _, part := range msg.Parts {
				if tc, ok := part.(llms.ToolCall); ok {
					assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
						OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
							ID: tc.ID,
							Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
								Name:      tc.FunctionCall.Name,
								Arguments: tc.FunctionCall.Arguments,
							},
						},
					})
				}
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case llms.RoleTool:
			for _, part := range msg.Parts {
				if tr, ok := part.(llms.ToolCallResponse); ok {
					result = append(result, openai.ToolMessage(tr.Content, tr.ToolCallID))
				}
			}
		default:
			return nil, errors.Wrapf(llms.ErrUnexpectedRole, "role %v not supported", msg.Role)
		}
	}
	return result, nil
}

func convertTools(tools []llms.Tool) ([]openai.ChatCompletionToolUnionParam, error) {
	result := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for i, tool := range tools {
		if tool.Type != "function" {
			return nil, errors.Newf("tool [%d]: unsupported type %q, want 'function'", i, tool.Type)
		}

		params, err := convertFunctionParameters(tool.Function.Parameters)
		if err != nil {
			return nil, errors.Wrapf(err, "tool [%d] %s", i, tool.Function.Name)
		}

		result = append(result, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        tool.Function.Name,
					Description: openai.String(tool.Function.Description),
					Parameters:  params,
				},
			},
		})
	}
	return result, nil
}

// convertFunctionParameters normalizes a parameters definition into the
// map form the SDK expects, via a JSON round trip.
func convertFunctionParameters(params any) (shared.FunctionParameters, error) {
	if params == nil {
		return nil, nil
	}
	if m, ok := params.(map[string]any); ok {
		return shared.FunctionParameters(m), nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal function parameters")
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal function parameters")
	}
	return shared.FunctionParameters(m), nil
}
