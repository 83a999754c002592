// Package weather provides the get_weather tool.
//
// The lookup is canned: only New York has a report. Anything else
// returns an error-status payload naming the unavailable city, so the
// model can relay the failure instead of the call erroring out.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/flightdeck-ai/flightdeck/pkg/llmutils"
	"github.com/flightdeck-ai/flightdeck/schema"
	"github.com/flightdeck-ai/flightdeck/tools"
)

const ToolName = "get_weather"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const newYorkReport = "The weather in New York is sunny at 25°C."

// WeatherRequest represents the tool input.
type WeatherRequest struct {
	City string `json:"city" yaml:"city" jsonschema:"title=city,description=The city to get the weather report for."`
}

// WeatherResult represents the tool output.
type WeatherResult struct {
	Status       string `json:"status" yaml:"status" jsonschema:"title=status,description=success or error."`
	Report       string `json:"report,omitempty" yaml:"report,omitempty" jsonschema:"title=report,description=The weather report."`
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty" jsonschema:"title=error_message,description=The error message when the city is not available."`
}

// Tool returns a canned weather report.
type Tool struct {
	name        string
	description string
	funcParams  any
}

var _ tools.Tool[WeatherRequest, WeatherResult] = (*Tool)(nil)

func New() (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(WeatherRequest{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &Tool{
		name:        ToolName,
		description: "Returns the current weather report for a city.",
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

func (t *Tool) Run(_ context.Context, req *WeatherRequest) (*WeatherResult, error) {
	if strings.EqualFold(strings.TrimSpace(req.City), "new york") {
		return &WeatherResult{
			Status: StatusSuccess,
			Report: newYorkReport,
		}, nil
	}
	return &WeatherResult{
		Status:       StatusError,
		ErrorMessage: fmt.Sprintf("Weather for '%s' not available.", req.City),
	}, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req WeatherRequest
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal input")
	}
	res, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(res), nil
}
