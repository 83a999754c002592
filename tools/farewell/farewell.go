// Package farewell provides the say_goodbye tool.
package farewell

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/flightdeck-ai/flightdeck/schema"
	"github.com/flightdeck-ai/flightdeck/tools"
)

const ToolName = "say_goodbye"

// Message is the fixed farewell returned by the tool.
const Message = "Goodbye! Have a great day."

// GoodbyeRequest represents the tool input. The tool takes no arguments.
type GoodbyeRequest struct{}

// GoodbyeResult represents the tool output.
type GoodbyeResult struct {
	Farewell string `json:"farewell" yaml:"farewell" jsonschema:"title=farewell,description=The farewell message."`
}

// Tool says goodbye.
type Tool struct {
	name        string
	description string
	funcParams  any
}

var _ tools.Tool[GoodbyeRequest, GoodbyeResult] = (*Tool)(nil)

func New() (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(GoodbyeRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &Tool{
		name:        ToolName,
		description: "Says goodbye to the user.",
		funcParams:  sc.Parameters,
	}, nil
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.funcParams
}

func (t *Tool) Run(_ context.Context, _ *GoodbyeRequest) (*GoodbyeResult, error) {
	return &GoodbyeResult{
		Farewell: Message,
	}, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req GoodbyeRequest
	if input != "" {
		// ignore arguments the model may invent; the tool takes none
		_ = json.Unmarshal([]byte(input), &req)
	}
	res, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return res.Farewell, nil
}
