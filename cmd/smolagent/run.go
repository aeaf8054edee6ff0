package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent"
	"github.com/m-mizutani/smolagent/mcp"
	"github.com/m-mizutani/smolagent/trace"
	tracelogger "github.com/m-mizutani/smolagent/trace/logger"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	flags := []cli.Flag{
		logLevelFlag(),
		&cli.IntFlag{
			Name:    "max-steps",
			Value:   20,
			Sources: cli.EnvVars("SMOLAGENT_MAX_STEPS"),
			Usage:   "Maximum number of action steps",
		},
		&cli.IntFlag{
			Name:    "planning-interval",
			Sources: cli.EnvVars("SMOLAGENT_PLANNING_INTERVAL"),
			Usage:   "Run a planning step every N steps. 0 disables planning",
		},
		&cli.IntFlag{
			Name:  "max-tool-threads",
			Usage: "Maximum number of tool calls run in parallel. 0 means unlimited",
		},
		&cli.BoolFlag{
			Name:  "stream",
			Usage: "Stream model output to stdout",
		},
		&cli.StringFlag{
			Name:  "instructions",
			Usage: "Custom instructions appended to the system prompt",
		},
		&cli.StringSliceFlag{
			Name:  "mcp-stdio",
			Usage: "Command line of a local MCP server, e.g. \"npx server-foo --flag\"",
		},
		&cli.StringSliceFlag{
			Name:  "mcp-sse",
			Usage: "URL of a remote MCP server",
		},
		&cli.BoolFlag{
			Name:  "user-input",
			Usage: "Allow the agent to ask questions on the terminal",
		},
		&cli.StringSliceFlag{
			Name:  "image",
			Usage: "Image file attached to the task",
		},
		&cli.StringFlag{
			Name:  "memory-out",
			Usage: "Write the agent memory as JSON to this file after the run",
		},
		&cli.StringFlag{
			Name:    "traces",
			Sources: cli.EnvVars("SMOLAGENT_TRACES"),
			Usage:   "Save the run trace to a directory or gs://bucket/prefix",
		},
		&cli.BoolFlag{
			Name:  "trace-log",
			Usage: "Log trace events",
		},
	}

	return &cli.Command{
		Name:      "run",
		Usage:     "Run an agent on a task",
		ArgsUsage: "TASK",
		Flags:     append(flags, modelFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			task := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if task == "" {
				return goerr.New("task is required")
			}

			logger, err := newLogger(cmd.String("log-level"), os.Stderr)
			if err != nil {
				return err
			}

			model, err := newModel(ctx, modelConfigFrom(cmd))
			if err != nil {
				return err
			}

			opts := []smolagent.Option{
				smolagent.WithLogger(logger),
				smolagent.WithMaxSteps(int(cmd.Int("max-steps"))),
				smolagent.WithPlanningInterval(int(cmd.Int("planning-interval"))),
				smolagent.WithMaxToolThreads(int(cmd.Int("max-tool-threads"))),
				smolagent.WithStreamOutputs(cmd.Bool("stream")),
			}
			if instructions := cmd.String("instructions"); instructions != "" {
				opts = append(opts, smolagent.WithInstructions(instructions))
			}
			if cmd.Bool("user-input") {
				opts = append(opts, smolagent.WithTools(smolagent.NewUserInputTool(os.Stdin, os.Stderr)))
			}

			toolSets, closeToolSets := mcpToolSets(cmd.StringSlice("mcp-stdio"), cmd.StringSlice("mcp-sse"))
			defer closeToolSets(logger)
			if len(toolSets) > 0 {
				opts = append(opts, smolagent.WithToolSets(toolSets...))
			}

			handler, err := traceHandler(ctx, cmd, logger, model)
			if err != nil {
				return err
			}
			if handler != nil {
				opts = append(opts, smolagent.WithTrace(handler))
			}

			agent, err := smolagent.New(model, opts...)
			if err != nil {
				return err
			}

			var runOpts []smolagent.RunOption
			images, err := loadImages(cmd.StringSlice("image"))
			if err != nil {
				return err
			}
			if len(images) > 0 {
				runOpts = append(runOpts, smolagent.WithImages(images...))
			}

			// The first interrupt lets the current step finish. A second one kills the process.
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)
			go func() {
				if _, ok := <-sigCh; ok {
					signal.Stop(sigCh)
					logger.Warn("Interrupted, stopping after the current step")
					agent.Interrupt()
				}
			}()

			var output smolagent.AgentType
			if cmd.Bool("stream") {
				output, err = runStream(ctx, agent, task, os.Stdout, runOpts)
			} else {
				var result *smolagent.RunResult
				result, err = agent.Run(ctx, task, runOpts...)
				if result != nil {
					output = result.Output
					logger.Info("Run finished",
						"state", result.State,
						"duration", result.Timing.Duration(),
						"token_usage", result.TokenUsage,
					)
				}
			}

			if path := cmd.String("memory-out"); path != "" {
				if werr := writeMemory(path, agent.Memory()); werr != nil {
					logger.Error("failed to write memory", "error", werr)
				}
			}
			if err != nil {
				return err
			}

			if output != nil {
				fmt.Fprintln(os.Stdout, output.String())
			}
			return nil
		},
	}
}

// runStream prints streamed model text to w and returns the final answer.
func runStream(ctx context.Context, agent *smolagent.Agent, task string, w io.Writer, opts []smolagent.RunOption) (smolagent.AgentType, error) {
	events, err := agent.RunStream(ctx, task, opts...)
	if err != nil {
		return nil, err
	}

	var output smolagent.AgentType
	for ev := range events {
		switch ev.Type {
		case smolagent.EventStreamDelta:
			if ev.Delta != nil && ev.Delta.Content != "" {
				fmt.Fprint(w, ev.Delta.Content)
			}
		case smolagent.EventToolCall:
			fmt.Fprintf(w, "\n-> %s %s\n", ev.ToolCall.Name, argsString(ev.ToolCall.Arguments))
		case smolagent.EventToolOutput:
			if ev.ToolOutput.Error != nil {
				fmt.Fprintf(w, "<- error: %s\n", ev.ToolOutput.Error.Error())
			} else if !ev.ToolOutput.IsFinalAnswer {
				fmt.Fprintf(w, "<- %s\n", ev.ToolOutput.Observation)
			}
		case smolagent.EventFinalAnswer:
			output = ev.FinalAnswer
			fmt.Fprintln(w)
		case smolagent.EventError:
			return nil, ev.Error
		}
	}
	return output, nil
}

func argsString(args any) string {
	if s, ok := args.(string); ok {
		return s
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(raw)
}

func mcpToolSets(stdio, sse []string) ([]smolagent.ToolSet, func(*slog.Logger)) {
	var clients []*mcp.Client
	for _, line := range stdio {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		clients = append(clients, mcp.NewStdio(fields[0], fields[1:], mcp.WithEnvVars(os.Environ())))
	}
	for _, url := range sse {
		clients = append(clients, mcp.NewSSE(url))
	}

	toolSets := make([]smolagent.ToolSet, len(clients))
	for i, c := range clients {
		toolSets[i] = c
	}

	return toolSets, func(logger *slog.Logger) {
		for _, c := range clients {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close MCP client", "error", err)
			}
		}
	}
}

func traceHandler(ctx context.Context, cmd *cli.Command, logger *slog.Logger, model smolagent.Model) (trace.Handler, error) {
	var handlers []trace.Handler

	if location := cmd.String("traces"); location != "" {
		store, err := openTraceStore(ctx, location)
		if err != nil {
			return nil, err
		}
		meta := trace.TraceMetadata{Labels: map[string]string{"provider": cmd.String("provider")}}
		if m, ok := model.(interface{ ID() string }); ok {
			meta.Model = m.ID()
		}
		handlers = append(handlers, trace.New(trace.WithRepository(store), trace.WithMetadata(meta)))
	}
	if cmd.Bool("trace-log") {
		handlers = append(handlers, tracelogger.New(tracelogger.WithLogger(logger)))
	}

	switch len(handlers) {
	case 0:
		return nil, nil
	case 1:
		return handlers[0], nil
	default:
		return trace.Multi(handlers...), nil
	}
}

func loadImages(paths []string) ([]smolagent.Image, error) {
	images := make([]smolagent.Image, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read image", goerr.V("path", path))
		}
		img, err := smolagent.NewImage(data)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid image", goerr.V("path", path))
		}
		images = append(images, img)
	}
	return images, nil
}

func writeMemory(path string, memory *smolagent.Memory) error {
	raw, err := json.MarshalIndent(memory, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal memory")
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return goerr.Wrap(err, "failed to write memory file", goerr.V("path", path))
	}
	return nil
}
