package agents

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/flightdeck-ai/flightdeck/pkg/llmutils"
	"github.com/flightdeck-ai/flightdeck/schema"
	"github.com/flightdeck-ai/flightdeck/tools"
)

// DelegateRequest is the input of an agent exposed as a tool.
type DelegateRequest struct {
	Request string `json:"request" yaml:"request" jsonschema:"title=request,description=The user request to forward to this agent."`
}

// AgentTool exposes an agent as a tool of another agent. The parent
// model delegates by calling the tool with the request text.
type AgentTool struct {
	agent       IAgent
	name        string
	description string
	funcParams  any
}

var _ tools.ITool = (*AgentTool)(nil)

// NewAgentTool wraps an agent as a tool.
func NewAgentTool(agent IAgent) (*AgentTool, error) {
	sc, err := schema.New(reflect.TypeOf(DelegateRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &AgentTool{
		agent:       agent,
		name:        agent.Name(),
		description: agent.Description(),
		funcParams:  sc.Parameters,
	}, nil
}

// WithName overrides the tool name.
func (t *AgentTool) WithName(name string) *AgentTool {
	t.name = name
	return t
}

// WithDescription overrides the tool description.
func (t *AgentTool) WithDescription(description string) *AgentTool {
	t.description = description
	return t
}

func (t *AgentTool) Name() string {
	return t.name
}

func (t *AgentTool) Description() string {
	return t.description
}

func (t *AgentTool) Parameters() any {
	return t.funcParams
}

func (t *AgentTool) Call(ctx context.Context, input string) (string, error) {
	var req DelegateRequest
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		// some models pass the request as a bare string
		req.Request = input
	}

	resp, err := t.agent.Call(ctx, &CallInput{
		Input: req.Request,
	})
	if err != nil {
		return "", errors.WithMessagef(err, "failed to call agent %s", t.agent.Name())
	}
	return resp.Content, nil
}
