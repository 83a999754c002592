package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdeck-ai/flightdeck/agents"
	"github.com/flightdeck-ai/flightdeck/callbacks"
)

type scriptedAgent struct {
	replies map[string]string
	err     error
	inputs  []string
}

func (a *scriptedAgent) Name() string        { return "root_agent" }
func (a *scriptedAgent) Description() string { return "test agent" }
func (a *scriptedAgent) Call(_ context.Context, input *agents.CallInput) (*agents.Response, error) {
	a.inputs = append(a.inputs, input.Input)
	if a.err != nil {
		return nil, a.err
	}
	return &agents.Response{Content: a.replies[input.Input]}, nil
}

func Test_REPL_Exit(t *testing.T) {
	for _, cmd := range []string{"exit", "quit", "EXIT", " Quit "} {
		agent := &scriptedAgent{}
		var out bytes.Buffer
		repl(context.Background(), strings.NewReader(cmd+"\n"), &out, agent, callbacks.NewNoop())
		assert.Empty(t, agent.inputs, "command: %q", cmd)
	}
}

func Test_REPL_EOF(t *testing.T) {
	agent := &scriptedAgent{}
	var out bytes.Buffer
	repl(context.Background(), strings.NewReader(""), &out, agent, callbacks.NewNoop())
	assert.Empty(t, agent.inputs)
}

func Test_REPL_Conversation(t *testing.T) {
	agent := &scriptedAgent{
		replies: map[string]string{"hi": "Hello, there!"},
	}
	var out bytes.Buffer
	in := strings.NewReader("hi\n\nexit\n")

	repl(context.Background(), in, &out, agent, callbacks.NewNoop())

	// blank lines are skipped
	require.Equal(t, []string{"hi"}, agent.inputs)
	assert.Contains(t, out.String(), "Bot: Hello, there!")
	assert.Contains(t, out.String(), "User: ")
}

func Test_REPL_SurvivesAgentErrors(t *testing.T) {
	agent := &scriptedAgent{err: errors.New("model unavailable")}
	var out bytes.Buffer
	in := strings.NewReader("hi\nagain\nexit\n")

	repl(context.Background(), in, &out, agent, callbacks.NewNoop())

	// the loop keeps prompting after a failure
	require.Equal(t, []string{"hi", "again"}, agent.inputs)
	assert.Contains(t, out.String(), "Error: model unavailable")
}

func Test_REPL_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agent := &scriptedAgent{}
	var out bytes.Buffer
	repl(ctx, strings.NewReader("hi\n"), &out, agent, callbacks.NewNoop())
	assert.Empty(t, agent.inputs)
}

func Test_LoadFactory_Defaults(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GEMINI_API_KEY", "test-key")

	factory, err := loadFactory("")
	require.NoError(t, err)

	model, err := factory.ModelByName(context.Background(), "flight")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro-exp-03-25", model.GetName())
}

func Test_LoadFactory_GeminiModelOverride(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("GEMINI_API_KEY", "test-key")

	factory, err := loadFactory("")
	require.NoError(t, err)

	model, err := factory.ModelByName(context.Background(), "flight")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", model.GetName())
}
