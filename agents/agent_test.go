package agents_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdeck-ai/flightdeck/agents"
	"github.com/flightdeck-ai/flightdeck/chatmodel"
	"github.com/flightdeck-ai/flightdeck/pkg/llms"
	"github.com/flightdeck-ai/flightdeck/store"
)

// fakeModel returns scripted responses in order.
type fakeModel struct {
	responses []*llms.ContentResponse
	calls     [][]llms.Message
	err       error
}

var _ llms.Model = (*fakeModel)(nil)

func (m *fakeModel) GetName() string                    { return "fake-model" }
func (m *fakeModel) GetProviderType() llms.ProviderType { return llms.ProviderGoogleAI }
func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls = append(m.calls, messages)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return nil, errors.New("no scripted response")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

// fakeTool records its inputs and returns a fixed output.
type fakeTool struct {
	name   string
	output string
	err    error
	inputs []string
}

func (t *fakeTool) Name() string        { return t.name }
func (t *fakeTool) Description() string { return "a test tool" }
func (t *fakeTool) Parameters() any {
	return map[string]any{"type": "object"}
}
func (t *fakeTool) Call(_ context.Context, input string) (string, error) {
	t.inputs = append(t.inputs, input)
	if t.err != nil {
		return "", t.err
	}
	return t.output, nil
}

func textResponse(text string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: text},
		},
	}
}

func toolCallResponse(name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				ToolCalls: []llms.ToolCall{
					{
						FunctionCall: &llms.FunctionCall{
							Name:      name,
							Arguments: args,
						},
					},
				},
			},
		},
	}
}

func chatCtx(t *testing.T) context.Context {
	t.Helper()
	return chatmodel.WithChatContext(context.Background(),
		chatmodel.NewChatContext("test_app", "user_1", ""))
}

func Test_Agent_BuilderMethods(t *testing.T) {
	model := &fakeModel{}
	agent := agents.NewAgent(model, "You are a test agent.").
		WithName("test_agent").
		WithDescription("A test agent.")

	assert.Equal(t, "test_agent", agent.Name())
	assert.Equal(t, "A test agent.", agent.Description())
	assert.Equal(t, "You are a test agent.", agent.Instruction())
	assert.Empty(t, agent.GetTools())

	tool := &fakeTool{name: "test_tool"}
	agent.WithTools(tool)
	require.Len(t, agent.GetTools(), 1)

	// adding a tool with the same name is a no-op
	agent.WithTools(&fakeTool{name: "TEST_TOOL"})
	assert.Len(t, agent.GetTools(), 1)
}

func Test_Agent_RequiresChatContext(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{textResponse("hi")}}
	agent := agents.NewAgent(model, "instruction")

	_, err := agent.Call(context.Background(), &agents.CallInput{Input: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, chatmodel.ErrInvalidChatContext))
}

func Test_Agent_TextAnswer(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{textResponse("Hello!")}}
	hist := store.NewMemoryStore()
	agent := agents.NewAgent(model, "You greet.",
		agents.WithMessageStore(hist),
	).WithName("greeter")

	ctx := chatCtx(t)
	resp, err := agent.Call(ctx, &agents.CallInput{Input: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Content)

	// user message and answer are persisted
	stored := hist.Messages(ctx)
	require.Len(t, stored, 2)
	assert.Equal(t, llms.RoleHuman, stored[0].Role)
	assert.Equal(t, llms.RoleAI, stored[1].Role)

	// the system instruction leads the LLM request
	require.Len(t, model.calls, 1)
	require.NotEmpty(t, model.calls[0])
	assert.Equal(t, llms.RoleSystem, model.calls[0][0].Role)
	assert.Equal(t, "You greet.", model.calls[0][0].GetContent())
}

func Test_Agent_ToolCallLoop(t *testing.T) {
	tool := &fakeTool{name: "get_weather", output: `{"status":"success"}`}
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("get_weather", `{"city":"new york"}`),
		textResponse("It is sunny."),
	}}
	agent := agents.NewAgent(model, "You report weather.").
		WithName("weather_agent").
		WithTools(tool)

	resp, err := agent.Call(chatCtx(t), &agents.CallInput{Input: "weather in new york?"})
	require.NoError(t, err)
	assert.Equal(t, "It is sunny.", resp.Content)

	require.Len(t, tool.inputs, 1)
	assert.Equal(t, `{"city":"new york"}`, tool.inputs[0])

	// transcript: user, assistant tool call, tool response, final answer
	require.Len(t, resp.Messages, 4)
	assert.Equal(t, llms.RoleHuman, resp.Messages[0].Role)
	assert.Equal(t, llms.RoleAI, resp.Messages[1].Role)
	assert.Equal(t, llms.RoleTool, resp.Messages[2].Role)
	assert.Equal(t, llms.RoleAI, resp.Messages[3].Role)

	// empty tool call IDs are synthesized from the name
	tr, ok := resp.Messages[2].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "get_weather_0", tr.ToolCallID)
}

func Test_Agent_ToolNameCaseInsensitive(t *testing.T) {
	tool := &fakeTool{name: "say_hello", output: "Hello, there!"}
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("Say_Hello", `{}`),
		textResponse("done"),
	}}
	agent := agents.NewAgent(model, "instruction").WithTools(tool)

	_, err := agent.Call(chatCtx(t), &agents.CallInput{Input: "hi"})
	require.NoError(t, err)
	assert.Len(t, tool.inputs, 1)
}

func Test_Agent_ToolError(t *testing.T) {
	tool := &fakeTool{name: "broken", err: errors.New("boom")}
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("broken", `{}`),
		textResponse("recovered"),
	}}
	agent := agents.NewAgent(model, "instruction").WithTools(tool)

	// a tool failure is reported back to the model, not to the caller
	resp, err := agent.Call(chatCtx(t), &agents.CallInput{Input: "go"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)

	tr, ok := resp.Messages[2].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Contains(t, tr.Content, "Tool call failed")
}

func Test_Agent_ToolNotFound(t *testing.T) {
	tool := &fakeTool{name: "known", output: "ok"}
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("unknown", `{}`),
		textResponse("sorry"),
	}}
	agent := agents.NewAgent(model, "instruction").WithTools(tool)

	resp, err := agent.Call(chatCtx(t), &agents.CallInput{Input: "go"})
	require.NoError(t, err)
	assert.Equal(t, "sorry", resp.Content)

	// the corrective message lists the available tools
	tr, ok := resp.Messages[2].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Contains(t, tr.Content, "not found")
	assert.Contains(t, tr.Content, "known")
}

func Test_Agent_ToolNotFoundLimit(t *testing.T) {
	tool := &fakeTool{name: "known", output: "ok"}
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("unknown", `{}`),
		toolCallResponse("unknown", `{}`),
		toolCallResponse("unknown", `{}`),
		toolCallResponse("unknown", `{}`),
		textResponse("never reached"),
	}}
	agent := agents.NewAgent(model, "instruction").WithTools(tool)

	_, err := agent.Call(chatCtx(t), &agents.CallInput{Input: "go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found tools")
}

func Test_Agent_ToolCallsLimit(t *testing.T) {
	tool := &fakeTool{name: "loop", output: "again"}
	var responses []*llms.ContentResponse
	for range 5 {
		responses = append(responses, toolCallResponse("loop", `{}`))
	}
	model := &fakeModel{responses: responses}
	agent := agents.NewAgent(model, "instruction",
		agents.WithMaxToolCalls(3),
	).WithTools(tool)

	_, err := agent.Call(chatCtx(t), &agents.CallInput{Input: "go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool calls limit")
}

func Test_Agent_MessagesLimit(t *testing.T) {
	tool := &fakeTool{name: "loop", output: "again"}
	var responses []*llms.ContentResponse
	for range 10 {
		responses = append(responses, toolCallResponse("loop", `{}`))
	}
	model := &fakeModel{responses: responses}
	// system + user + one tool round grows the history by 2 per iteration
	agent := agents.NewAgent(model, "instruction",
		agents.WithMaxMessages(5),
	).WithTools(tool)

	_, err := agent.Call(chatCtx(t), &agents.CallInput{Input: "go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messages count exceeded")
}

func Test_Agent_ContentSizeLimit(t *testing.T) {
	tool := &fakeTool{name: "loop", output: strings.Repeat("x", 512)}
	var responses []*llms.ContentResponse
	for range 10 {
		responses = append(responses, toolCallResponse("loop", `{}`))
	}
	model := &fakeModel{responses: responses}
	agent := agents.NewAgent(model, "instruction",
		agents.WithMaxLength(1024),
	).WithTools(tool)

	_, err := agent.Call(chatCtx(t), &agents.CallInput{Input: "go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content size exceeded")
}

func Test_Agent_LLMError(t *testing.T) {
	model := &fakeModel{err: errors.New("unavailable")}
	agent := agents.NewAgent(model, "instruction")

	_, err := agent.Call(chatCtx(t), &agents.CallInput{Input: "go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate content")
}

func Test_Agent_SubAgentDelegation(t *testing.T) {
	subModel := &fakeModel{responses: []*llms.ContentResponse{
		textResponse("Hello from the greeter!"),
	}}
	subAgent := agents.NewAgent(subModel, "You greet.").
		WithName("greeting_agent").
		WithDescription("Provides greetings.")

	rootModel := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("greeting_agent", `{"request": "say hi"}`),
		textResponse("Hello from the greeter!"),
	}}
	rootAgent := agents.NewAgent(rootModel, "You coordinate.").
		WithName("root_agent").
		WithSubAgents(subAgent)

	require.Len(t, rootAgent.GetTools(), 1)
	assert.Equal(t, "greeting_agent", rootAgent.GetTools()[0].Name())

	resp, err := rootAgent.Call(chatCtx(t), &agents.CallInput{Input: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello from the greeter!", resp.Content)

	// the sub-agent received the delegated request text
	require.Len(t, subModel.calls, 1)
	last := subModel.calls[0][len(subModel.calls[0])-1]
	assert.Equal(t, "say hi", last.GetContent())
}

func Test_AgentTool_BareStringRequest(t *testing.T) {
	subModel := &fakeModel{responses: []*llms.ContentResponse{
		textResponse("done"),
	}}
	subAgent := agents.NewAgent(subModel, "instruction").WithName("helper")

	tool, err := agents.NewAgentTool(subAgent)
	require.NoError(t, err)
	assert.Equal(t, "helper", tool.Name())

	// some models pass the request as a bare string instead of JSON
	out, err := tool.Call(chatCtx(t), "just do it")
	require.NoError(t, err)
	assert.Equal(t, "done", out)

	last := subModel.calls[0][len(subModel.calls[0])-1]
	assert.Equal(t, "just do it", last.GetContent())
}
