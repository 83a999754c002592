// Package mcptool exposes the tools of an MCP server as agent tools.
package mcptool

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flightdeck-ai/flightdeck/pkg/llmutils"
	"github.com/flightdeck-ai/flightdeck/tools"
)

var logger = xlog.NewPackageLogger("github.com/flightdeck-ai/flightdeck", "mcptool")

// clientName identifies this client in the MCP handshake.
const clientName = "flightdeck"

// Toolset is a connected MCP session and the tools it serves.
type Toolset struct {
	session *mcpsdk.ClientSession
	tools   []tools.ITool

	closeOnce sync.Once
	closeErr  error
}

// NewStdioToolset spawns the command as an MCP server subprocess and
// lists its tools. The env entries are appended to the current process
// environment. Close must be called to terminate the subprocess.
func NewStdioToolset(ctx context.Context, command string, args []string, env map[string]string) (*Toolset, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stderr = os.Stderr

	return connect(ctx, &mcpsdk.CommandTransport{Command: cmd})
}

// NewToolset connects over the provided transport and lists the
// server's tools. Used with in-memory transports in tests.
func NewToolset(ctx context.Context, transport mcpsdk.Transport) (*Toolset, error) {
	return connect(ctx, transport)
}

func connect(ctx context.Context, transport mcpsdk.Transport) (*Toolset, error) {
	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    clientName,
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to MCP server")
	}

	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		_ = session.Close()
		return nil, errors.Wrap(err, "failed to list MCP tools")
	}

	ts := &Toolset{
		session: session,
	}
	for _, t := range listed.Tools {
		ts.tools = append(ts.tools, &remoteTool{
			session:     session,
			name:        t.Name,
			description: t.Description,
			inputSchema: t.InputSchema,
		})
		logger.KV(xlog.DEBUG,
			"status", "discovered_tool",
			"tool", t.Name,
		)
	}
	return ts, nil
}

// Tools returns the server's tools.
func (ts *Toolset) Tools() []tools.ITool {
	return ts.tools
}

// Close terminates the MCP session and the server subprocess. Safe to
// call more than once.
func (ts *Toolset) Close() error {
	ts.closeOnce.Do(func() {
		ts.closeErr = ts.session.Close()
	})
	return ts.closeErr
}

// remoteTool is a single MCP server tool.
type remoteTool struct {
	session     *mcpsdk.ClientSession
	name        string
	description string
	inputSchema any
}

var _ tools.ITool = (*remoteTool)(nil)

func (t *remoteTool) Name() string {
	return t.name
}

func (t *remoteTool) Description() string {
	return t.description
}

func (t *remoteTool) Parameters() any {
	return t.inputSchema
}

func (t *remoteTool) Call(ctx context.Context, input string) (string, error) {
	var args map[string]any
	if input != "" {
		if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &args); err != nil {
			return "", errors.Wrapf(err, "tool %s: invalid arguments", t.name)
		}
	}

	result, err := t.session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      t.name,
		Arguments: args,
	})
	if err != nil {
		return "", errors.Wrapf(err, "tool %s: call failed", t.name)
	}

	var sb strings.Builder
	for _, item := range result.Content {
		if tc, ok := item.(*mcpsdk.TextContent); ok {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(tc.Text)
		}
	}
	if result.IsError {
		return "", errors.Newf("tool %s: %s", t.name, sb.String())
	}
	return sb.String(), nil
}
