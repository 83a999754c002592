package agents

import (
	"context"

	"github.com/flightdeck-ai/flightdeck/pkg/llms"
	"github.com/flightdeck-ai/flightdeck/tools"
)

// Callback receives the events of an agent run: the run itself, the
// LLM calls it makes, and the tools it executes.
type Callback interface {
	OnAgentStart(ctx context.Context, agent IAgent, input string)
	OnAgentEnd(ctx context.Context, agent IAgent, input string, resp *Response)
	OnAgentError(ctx context.Context, agent IAgent, input string, err error)

	OnAgentLLMCallStart(ctx context.Context, agent IAgent, llm llms.Model, messages []llms.Message)
	OnAgentLLMCallEnd(ctx context.Context, agent IAgent, llm llms.Model, resp *llms.ContentResponse)

	OnToolStart(ctx context.Context, tool tools.ITool, agentName, input string)
	OnToolEnd(ctx context.Context, tool tools.ITool, agentName, input, output string)
	OnToolError(ctx context.Context, tool tools.ITool, agentName, input string, err error)
	OnToolNotFound(ctx context.Context, agent IAgent, tool string)
}
