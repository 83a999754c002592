// Package greeting provides the say_hello tool.
package greeting

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/flightdeck-ai/flightdeck/pkg/llmutils"
	"github.com/flightdeck-ai/flightdeck/schema"
	"github.com/flightdeck-ai/flightdeck/tools"
)

const ToolName = "say_hello"

// HelloRequest represents the tool input.
type HelloRequest struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty" jsonschema:"title=name,description=The name of the person to greet."`
}

// HelloResult represents the tool output.
type HelloResult struct {
	Greeting string `json:"greeting" yaml:"greeting" jsonschema:"title=greeting,description=The greeting message."`
}

// Tool greets a person by name.
type Tool struct {
	name        string
	description string
	funcParams  any
}

var _ tools.Tool[HelloRequest, HelloResult] = (*Tool)(nil)

func New() (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(HelloRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &Tool{
		name:        ToolName,
		description: "Greets the user by name.",
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

func (t *Tool) Run(_ context.Context, req *HelloRequest) (*HelloResult, error) {
	name := req.Name
	if name == "" {
		name = "there"
	}
	return &HelloResult{
		Greeting: fmt.Sprintf("Hello, %s!", name),
	}, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req HelloRequest
	if input != "" {
		if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
			return "", errors.Wrap(err, "failed to unmarshal input")
		}
	}
	res, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return res.Greeting, nil
}
