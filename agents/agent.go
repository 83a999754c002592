// Package agents implements LLM-driven agents that answer free-text
// requests by calling tools and delegating to sub-agents.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"

	"github.com/flightdeck-ai/flightdeck/chatmodel"
	"github.com/flightdeck-ai/flightdeck/pkg/llms"
	"github.com/flightdeck-ai/flightdeck/tools"
)

var logger = xlog.NewPackageLogger("github.com/flightdeck-ai/flightdeck", "agents")

const (
	// DefaultMaxToolCalls limits the tool invocations in a single run.
	DefaultMaxToolCalls = 16
	// DefaultMaxMessages limits the messages accumulated in a single run.
	DefaultMaxMessages = 100
	// DefaultMaxContentSize limits the total content bytes sent to the LLM.
	DefaultMaxContentSize = 1 << 20

	maxConsecutiveNotFound = 3
)

// IAgent is the interface of a named agent.
type IAgent interface {
	Name() string
	Description() string
	Call(ctx context.Context, input *CallInput) (*Response, error)
}

// CallInput is a single request to an agent.
type CallInput struct {
	// Input is the user request text.
	Input string
	// Options override the agent configuration for this call.
	Options []Option
}

// Response is the final result of an agent run.
type Response struct {
	// Content is the final textual answer.
	Content string
	// Messages is the full transcript of the run, including tool traffic.
	Messages []llms.Message
}

// Agent answers requests with an LLM, executing tool calls the model
// asks for until the model produces a final text answer.
type Agent struct {
	LLM llms.Model

	cfg         *Config
	name        string
	description string
	instruction string

	toolsByName map[string]tools.ITool
	toolsNames  []string
	tools       []tools.ITool
	llmToolDefs []llms.Tool
}

var _ IAgent = (*Agent)(nil)

// NewAgent creates an Agent with the given model and instruction text.
func NewAgent(llmModel llms.Model, instruction string, options ...Option) *Agent {
	return &Agent{
		LLM:         llmModel,
		cfg:         NewConfig(options...),
		instruction: instruction,
		name:        "generic_agent",
		description: "An AI agent that can perform various tasks.",
	}
}

// WithName sets the name of the agent, used in delegation prompts.
func (a *Agent) WithName(name string) *Agent {
	a.name = name
	return a
}

// WithDescription sets the description of the agent, used in delegation prompts.
func (a *Agent) WithDescription(description string) *Agent {
	a.description = description
	return a
}

// Name returns the name of the agent.
func (a *Agent) Name() string {
	return a.name
}

// Description returns the description of the agent.
func (a *Agent) Description() string {
	return a.description
}

// Instruction returns the instruction text of the agent.
func (a *Agent) Instruction() string {
	return a.instruction
}

// GetTools returns the registered tools.
func (a *Agent) GetTools() []tools.ITool {
	return a.tools
}

// WithTools adds new tools to the agent; existing tools are not replaced.
func (a *Agent) WithTools(list ...tools.ITool) *Agent {
	if a.toolsByName == nil {
		a.toolsByName = make(map[string]tools.ITool)
	}
	for _, tool := range list {
		name := tool.Name()
		// use lowercase for the key
		nameLowerCase := strings.ToLower(name)
		if a.toolsByName[nameLowerCase] == nil {
			a.toolsByName[nameLowerCase] = tool
			a.toolsNames = append(a.toolsNames, name)
			a.tools = append(a.tools, tool)
			a.llmToolDefs = append(a.llmToolDefs, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        name,
					Description: tool.Description(),
					Parameters:  tool.Parameters(),
				},
			})
		}
	}
	return a
}

// WithSubAgents registers sub-agents as delegation tools. The model
// decides from the instruction text which sub-agent handles a request.
func (a *Agent) WithSubAgents(subAgents ...IAgent) *Agent {
	for _, sub := range subAgents {
		tool, err := NewAgentTool(sub)
		if err != nil {
			logger.KV(xlog.ERROR,
				"agent", a.name,
				"sub_agent", sub.Name(),
				"status", "failed_to_create_agent_tool",
				"err", err.Error(),
			)
			continue
		}
		a.WithTools(tool)
	}
	return a
}

// GetCallConfig returns the per-call configuration.
func (a *Agent) GetCallConfig(opts ...Option) *Config {
	return a.cfg.Apply(opts...)
}

// Call runs the agent on the given input and returns the final answer.
func (a *Agent) Call(ctx context.Context, input *CallInput) (*Response, error) {
	cfg := a.GetCallConfig(input.Options...)

	callback := cfg.CallbackHandler
	if callback != nil {
		callback.OnAgentStart(ctx, a, input.Input)
	}

	resp, err := a.run(ctx, cfg, input)
	if err != nil {
		if callback != nil {
			callback.OnAgentError(ctx, a, input.Input, err)
		}
		return nil, err
	}
	if callback != nil {
		callback.OnAgentEnd(ctx, a, input.Input, resp)
	}
	return resp, nil
}

func (a *Agent) run(ctx context.Context, cfg *Config, input *CallInput) (*Response, error) {
	chatID, err := chatmodel.GetChatID(ctx)
	if err != nil {
		return nil, errors.WithStack(chatmodel.ErrInvalidChatContext)
	}

	messageHistory := []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, a.instruction),
	}
	if cfg.Store != nil {
		prevMessages := cfg.Store.Messages(ctx)
		logger.ContextKV(ctx, xlog.DEBUG,
			"agent", a.name,
			"chat_id", chatID,
			"message_history", len(prevMessages),
		)
		messageHistory = append(messageHistory, prevMessages...)
	}

	var runMessages []llms.Message
	if input.Input != "" {
		userMessage := llms.MessageFromTextParts(llms.RoleHuman, input.Input)
		messageHistory = append(messageHistory, userMessage)
		runMessages = append(runMessages, userMessage)
	}

	var extraOptions []Option
	if len(a.llmToolDefs) > 0 {
		prov := a.LLM.GetProviderType()
		if !prov.Supports(llms.CapabilityFunctionCalling) {
			return nil, errors.Newf("agent %s: the LLM does not support function calling", a.name)
		}
		extraOptions = append(extraOptions, WithTools(a.llmToolDefs))
	}
	callOpts := cfg.GetCallOptions(extraOptions...)

	bytesLimit := uint64(values.NumbersCoalesce(cfg.MaxLength, DefaultMaxContentSize))
	toolsLimit := values.NumbersCoalesce(cfg.MaxToolCalls, DefaultMaxToolCalls)
	messagesLimit := values.NumbersCoalesce(cfg.MaxMessages, DefaultMaxMessages)

	var resp *llms.ContentResponse
	var totalToolExecuted int
	consecutiveNotFound := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(messageHistory) >= messagesLimit {
			return nil, errors.Newf("agent %s: the messages count exceeded limit", a.name)
		}
		if llms.CountMessagesContentSize(messageHistory) > bytesLimit {
			return nil, errors.Newf("agent %s: the content size exceeded limit", a.name)
		}

		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnAgentLLMCallStart(ctx, a, a.LLM, messageHistory)
		}

		resp, err = a.LLM.GenerateContent(ctx, messageHistory, callOpts...)
		if err != nil {
			return nil, errors.Wrapf(err, "agent %s: failed to generate content from LLM", a.name)
		}
		if len(resp.Choices) == 0 {
			return nil, errors.Newf("agent %s: LLM returned empty response", a.name)
		}

		if cfg.CallbackHandler != nil {
			cfg.CallbackHandler.OnAgentLLMCallEnd(ctx, a, a.LLM, resp)
		}

		var toolExecuted, notFound int
		toolExecuted, notFound, messageHistory, runMessages, err = a.executeToolCalls(ctx, cfg, messageHistory, runMessages, resp)
		if err != nil {
			return nil, err
		}
		if toolExecuted == 0 {
			break
		}

		totalToolExecuted += toolExecuted
		if totalToolExecuted >= toolsLimit {
			return nil, errors.Newf("agent %s: the tool calls limit is exceeded", a.name)
		}
		if notFound > 0 {
			consecutiveNotFound += notFound
			if consecutiveNotFound > maxConsecutiveNotFound {
				return nil, errors.Newf("agent %s: the number of not found tools is exceeded", a.name)
			}
		} else {
			consecutiveNotFound = 0
		}
	}

	result := resp.Choices[0].Content
	if len(resp.Choices) > 1 {
		var combined strings.Builder
		for i, choice := range resp.Choices {
			if i > 0 {
				combined.WriteString("\n\n")
			}
			combined.WriteString(choice.Content)
		}
		result = combined.String()
	}

	runMessages = append(runMessages, llms.MessageFromTextParts(llms.RoleAI, result))

	if cfg.Store != nil && !cfg.SkipMessageHistory {
		if err := cfg.Store.Add(ctx, runMessages...); err != nil {
			logger.ContextKV(ctx, xlog.WARNING,
				"agent", a.name,
				"chat_id", chatID,
				"status", "failed_to_store_messages",
				"err", err.Error(),
			)
		}
		logger.ContextKV(ctx, xlog.DEBUG,
			"agent", a.name,
			"chat_id", chatID,
			"status", "added_message_history",
			"messages", len(runMessages),
			"human", slices.StringUpto(input.Input, 64),
			"ai", slices.StringUpto(result, 64),
		)
	}

	return &Response{
		Content:  result,
		Messages: runMessages,
	}, nil
}

// executeToolCalls executes the tool calls in the response one at a
// time, in the order the model requested them, and returns the updated
// histories.
func (a *Agent) executeToolCalls(
	ctx context.Context,
	cfg *Config,
	messageHistory, runMessages []llms.Message,
	resp *llms.ContentResponse,
) (int, int, []llms.Message, []llms.Message, error) {
	var toolCalls []llms.ToolCall
	for _, choice := range resp.Choices {
		var choiceToolCalls []llms.ToolCall
		for i, toolCall := range choice.ToolCalls {
			if toolCall.ID == "" {
				toolCall.ID = fmt.Sprintf("%s_%d", toolCall.FunctionCall.Name, i)
			}
			toolCall.Type = values.StringsCoalesce(toolCall.Type, "function")
			choiceToolCalls = append(choiceToolCalls, toolCall)
		}
		if len(choiceToolCalls) == 0 {
			continue
		}
		toolCalls = append(toolCalls, choiceToolCalls...)
		assistantMessage := llms.MessageFromToolCalls(llms.RoleAI, choiceToolCalls...)
		messageHistory = append(messageHistory, assistantMessage)
		if !cfg.SkipMessageHistory {
			runMessages = append(runMessages, assistantMessage)
		}
	}

	if len(toolCalls) == 0 {
		return 0, 0, messageHistory, runMessages, nil
	}

	notFoundCount := 0
	for _, tc := range toolCalls {
		toolName := tc.FunctionCall.Name
		toolArgs := tc.FunctionCall.Arguments

		var content string
		// use lowercase for the key
		tool := a.toolsByName[strings.ToLower(toolName)]
		if tool == nil {
			notFoundCount++
			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnToolNotFound(ctx, a, toolName)
			}
			availableTools := strings.Join(a.toolsNames, ", ")
			logger.ContextKV(ctx, xlog.WARNING,
				"agent", a.name,
				"status", "tool_not_found",
				"tool_name", toolName,
				"available_tools", availableTools,
			)
			content = fmt.Sprintf("Tool `%s` not found. Please check the tool name and try again with exact match. Available tools: %s", toolName, availableTools)
		} else {
			if cfg.CallbackHandler != nil {
				cfg.CallbackHandler.OnToolStart(ctx, tool, a.name, toolArgs)
			}
			res, err := tool.Call(ctx, toolArgs)
			if err != nil {
				if cfg.CallbackHandler != nil {
					cfg.CallbackHandler.OnToolError(ctx, tool, a.name, toolArgs, err)
				}
				logger.ContextKV(ctx, xlog.WARNING,
					"agent", a.name,
					"status", "tool_call_failed",
					"tool", toolName,
					"err", err.Error(),
				)
				content = fmt.Sprintf("Tool call failed: %s", err.Error())
			} else {
				if cfg.CallbackHandler != nil {
					cfg.CallbackHandler.OnToolEnd(ctx, tool, a.name, toolArgs, res)
				}
				content = res
			}
		}

		toolResponse := llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
			ToolCallID: tc.ID,
			Name:       toolName,
			Content:    content,
		})
		messageHistory = append(messageHistory, toolResponse)
		if !cfg.SkipMessageHistory {
			runMessages = append(runMessages, toolResponse)
		}
	}

	return len(toolCalls), notFoundCount, messageHistory, runMessages, nil
}
