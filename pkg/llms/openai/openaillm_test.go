package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdeck-ai/flightdeck/pkg/llms"
)

func Test_New(t *testing.T) {
	llm, err := New(WithToken("test-key"), WithDefaultModel("gpt-4o"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", llm.GetName())
	assert.Equal(t, llms.ProviderOpenAI, llm.GetProviderType())
}

func Test_ConvertMessages(t *testing.T) {
	out, err := convertMessages([]llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "You are helpful."),
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
		llms.MessageFromTextParts(llms.RoleAI, "hello"),
		llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
			ToolCallID: "tc_1",
			Name:       "get_weather",
			Content:    "sunny",
		}),
	})
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.NotNil(t, out[0].OfSystem)
	assert.NotNil(t, out[1].OfUser)
	assert.NotNil(t, out[2].OfAssistant)
	require.NotNil(t, out[3].OfTool)
	assert.Equal(t, "tc_1", out[3].OfTool.ToolCallID)

	_, err = convertMessages([]llms.Message{
		llms.MessageFromTextParts(llms.Role("bogus"), "x"),
	})
	assert.Error(t, err)
}

func Test_ConvertMessages_AssistantToolCalls(t *testing.T) {
	out, err := convertMessages([]llms.Message{
		llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
			ID:   "tc_1",
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      "get_weather",
				Arguments: `{"city":"new york"}`,
			},
		}),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].OfAssistant)
	require.Len(t, out[0].OfAssistant.ToolCalls, 1)

	tc := out[0].OfAssistant.ToolCalls[0]
	require.NotNil(t, tc.OfFunction)
	assert.Equal(t, "tc_1", tc.OfFunction.ID)
	assert.Equal(t, "get_weather", tc.OfFunction.Function.Name)
	assert.Equal(t, `{"city":"new york"}`, tc.OfFunction.Function.Arguments)
}

func Test_ConvertTools(t *testing.T) {
	out, err := convertTools([]llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "get_weather",
				Description: "Returns the weather.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city": map[string]any{"type": "string"},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].OfFunction)
	assert.Equal(t, "get_weather", out[0].OfFunction.Function.Name)
	assert.Contains(t, out[0].OfFunction.Function.Parameters, "properties")

	_, err = convertTools([]llms.Tool{{Type: "retrieval"}})
	assert.Error(t, err)
}

func Test_ConvertFunctionParameters(t *testing.T) {
	params, err := convertFunctionParameters(nil)
	require.NoError(t, err)
	assert.Nil(t, params)

	// maps pass through without a round trip
	params, err = convertFunctionParameters(map[string]any{"type": "object"})
	require.NoError(t, err)
	assert.Equal(t, "object", params["type"])

	// structs are normalized through JSON
	type args struct {
		City string `json:"city"`
	}
	params, err = convertFunctionParameters(struct {
		Type       string `json:"type"`
		Properties args   `json:"properties"`
	}{Type: "object"})
	require.NoError(t, err)
	assert.Equal(t, "object", params["type"])
}
