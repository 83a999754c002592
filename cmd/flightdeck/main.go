// flightdeck is a console multi-agent flight search assistant.
//
// A root agent coordinates greeting, farewell and flight search
// sub-agents. Flight search tools are served by the mcp-flight-search
// MCP server, spawned as a subprocess.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/flightdeck-ai/flightdeck/agents"
	"github.com/flightdeck-ai/flightdeck/callbacks"
	"github.com/flightdeck-ai/flightdeck/chatmodel"
	"github.com/flightdeck-ai/flightdeck/llmfactory"
	"github.com/flightdeck-ai/flightdeck/store"
	"github.com/flightdeck-ai/flightdeck/tools/farewell"
	"github.com/flightdeck-ai/flightdeck/tools/greeting"
	"github.com/flightdeck-ai/flightdeck/tools/mcptool"
	"github.com/flightdeck-ai/flightdeck/tools/weather"
)

var logger = xlog.NewPackageLogger("github.com/flightdeck-ai/flightdeck", "cli")

const (
	appName = "multi_agent_app"
	userID  = "user_1"

	flightSearchCommand = "mcp-flight-search"

	greetingInstruction = "You are the Greeting Agent. Use say_hello tool to greet."
	farewellInstruction = "You are the Farewell Agent. Use say_goodbye tool to say goodbye."
	flightInstruction   = "Help the user search for flights using the available tools. " +
		"If no return date is specified, treat it as a one-way trip."
	rootInstruction = "You are the Root Agent orchestrating sub-agents. " +
		"- Delegate greetings (Hi, Hello) to greeting_agent. " +
		"- Delegate farewells (Bye, See you) to farewell_agent. " +
		"- Delegate flight search queries (e.g. 'find flights', 'search for flights') to flight_search_agent. " +
		"- Handle weather requests using get_weather tool. " +
		"- If unable to handle, respond that you cannot handle the request."
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("flightdeck", flag.ContinueOnError)
	cfgFile := fs.String("cfg", "", "LLM providers configuration file")
	redisAddr := fs.String("redis", os.Getenv("REDIS_ADDR"), "Redis address for persistent chat history")
	verbose := fs.Bool("verbose", false, "print agent inputs and outputs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// .env is optional
	_ = godotenv.Load()

	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	if *verbose {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		xlog.SetGlobalLogLevel(xlog.ERROR)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, err := loadFactory(*cfgFile)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Multi-Agent Flight Search App Type 'exit' to quit.")

	flightTools, err := mcptool.NewStdioToolset(ctx,
		flightSearchCommand,
		[]string{"--connection_type", "stdio"},
		map[string]string{"SERP_API_KEY": os.Getenv("SERP_API_KEY")},
	)
	if err != nil {
		return err
	}
	defer func() {
		fmt.Fprintln(out, "Shutting down MCP connection...")
		if err := flightTools.Close(); err != nil {
			logger.KV(xlog.WARNING, "status", "mcp_close_failed", "err", err.Error())
		}
		fmt.Fprintln(out, "Shutdown complete.")
	}()

	root, err := buildAgents(ctx, factory, flightTools, newHistoryStore(*redisAddr))
	if err != nil {
		return err
	}

	mode := callbacks.ModeDefault
	if *verbose {
		mode = callbacks.ModeVerbose
	}
	callback := callbacks.NewFanout(
		callbacks.NewPrinter(out, mode),
		callbacks.NewPackageLogger(logger),
	)

	ctx = chatmodel.WithChatContext(ctx, chatmodel.NewChatContext(appName, userID, ""))

	// the REPL blocks on stdin, so an interrupt must not wait for the
	// next line before the MCP subprocess is torn down
	done := make(chan struct{})
	go func() {
		defer close(done)
		repl(ctx, in, out, root, callback)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	return nil
}

// loadFactory returns the configured LLM factory. Without a config
// file the app runs against the Gemini API with one provider entry
// per agent model.
func loadFactory(cfgFile string) (llmfactory.Factory, error) {
	if cfgFile != "" {
		return llmfactory.Load(cfgFile)
	}
	return llmfactory.New(&llmfactory.Config{
		Providers: []*llmfactory.ProviderConfig{
			{
				Name:         "chat",
				Provider:     "GOOGLEAI",
				DefaultModel: "gemini-2.0-flash",
			},
			{
				Name:         "flight",
				Provider:     "GOOGLEAI",
				DefaultModel: values.StringsCoalesce(os.Getenv("GEMINI_MODEL"), "gemini-2.5-pro-exp-03-25"),
			},
			{
				Name:         "root",
				Provider:     "GOOGLEAI",
				DefaultModel: "gemini-2.0-flash-exp",
			},
		},
	}), nil
}

// newHistoryStore keeps chat history in Redis when an address is
// configured, in process memory otherwise.
func newHistoryStore(redisAddr string) store.MessageStore {
	if redisAddr == "" {
		return store.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return store.NewRedisStore(client, "flightdeck")
}

func buildAgents(ctx context.Context, factory llmfactory.Factory, flightTools *mcptool.Toolset, history store.MessageStore) (agents.IAgent, error) {
	chatModel, err := factory.ModelByName(ctx, "chat")
	if err != nil {
		return nil, err
	}
	flightModel, err := factory.ModelByName(ctx, "flight")
	if err != nil {
		return nil, err
	}
	rootModel, err := factory.ModelByName(ctx, "root")
	if err != nil {
		return nil, err
	}

	sayHello, err := greeting.New()
	if err != nil {
		return nil, err
	}
	sayGoodbye, err := farewell.New()
	if err != nil {
		return nil, err
	}
	getWeather, err := weather.New()
	if err != nil {
		return nil, err
	}

	greetingAgent := agents.NewAgent(chatModel, greetingInstruction).
		WithName("greeting_agent").
		WithDescription("Provides greetings.").
		WithTools(sayHello)

	farewellAgent := agents.NewAgent(chatModel, farewellInstruction).
		WithName("farewell_agent").
		WithDescription("Provides farewells.").
		WithTools(sayGoodbye)

	flightAgent := agents.NewAgent(flightModel, flightInstruction).
		WithName("flight_search_agent").
		WithDescription("Searches for flights.").
		WithTools(flightTools.Tools()...)

	rootAgent := agents.NewAgent(rootModel, rootInstruction,
		agents.WithMessageStore(history),
	).
		WithName("root_agent").
		WithDescription("Coordinator agent for greetings, weather, farewells, and flight search.").
		WithTools(getWeather).
		WithSubAgents(greetingAgent, farewellAgent, flightAgent)

	return rootAgent, nil
}

// repl reads user requests from in until EOF, an exit command, or
// context cancellation. Agent failures are reported and the loop
// continues.
func repl(ctx context.Context, in io.Reader, out io.Writer, agent agents.IAgent, callback agents.Callback) {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(out, "User: ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "exit", "quit":
			return
		case "":
			continue
		}

		resp, err := agent.Call(ctx, &agents.CallInput{
			Input:   input,
			Options: []agents.Option{agents.WithCallback(callback)},
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(out, "Error: %s\n", err.Error())
			continue
		}
		fmt.Fprintf(out, "Bot: %s\n", resp.Content)
	}
}
