package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent/trace"
	"github.com/urfave/cli/v3"
)

func traceStoreFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "traces",
		Sources:  cli.EnvVars("SMOLAGENT_TRACES"),
		Usage:    "Directory or gs://bucket/prefix containing trace JSON files",
		Required: true,
	}
}

func tracesCommand() *cli.Command {
	return &cli.Command{
		Name:  "traces",
		Usage: "Inspect saved run traces",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List trace IDs",
				Flags: []cli.Flag{traceStoreFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := openTraceStore(ctx, cmd.String("traces"))
					if err != nil {
						return err
					}
					ids, err := store.List(ctx)
					if err != nil {
						return err
					}
					for _, id := range ids {
						fmt.Fprintln(os.Stdout, id)
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Show the span tree of a trace",
				ArgsUsage: "TRACE_ID",
				Flags: []cli.Flag{
					traceStoreFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the raw trace JSON",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return goerr.New("exactly one trace ID is required")
					}
					store, err := openTraceStore(ctx, cmd.String("traces"))
					if err != nil {
						return err
					}
					t, err := store.Load(ctx, cmd.Args().First())
					if err != nil {
						return err
					}

					if cmd.Bool("json") {
						enc := json.NewEncoder(os.Stdout)
						enc.SetIndent("", "  ")
						return enc.Encode(t)
					}
					printTrace(os.Stdout, t)
					return nil
				},
			},
			{
				Name:  "serve",
				Usage: "Serve traces as a JSON API",
				Flags: []cli.Flag{
					traceStoreFlag(),
					logLevelFlag(),
					&cli.StringFlag{
						Name:    "addr",
						Value:   "127.0.0.1:18900",
						Sources: cli.EnvVars("SMOLAGENT_TRACES_ADDR"),
						Usage:   "Server listen address",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					logger, err := newLogger(cmd.String("log-level"), os.Stderr)
					if err != nil {
						return err
					}
					store, err := openTraceStore(ctx, cmd.String("traces"))
					if err != nil {
						return err
					}

					s := newServer(
						withAddr(cmd.String("addr")),
						withSource(store),
						withLogger(logger),
					)
					return s.start(ctx)
				},
			},
		},
	}
}

// printTrace writes the span tree, one span per line.
func printTrace(w io.Writer, t *trace.Trace) {
	fmt.Fprintf(w, "trace %s", t.TraceID)
	if t.Metadata.Model != "" {
		fmt.Fprintf(w, " model=%s", t.Metadata.Model)
	}
	if t.Metadata.Agent != "" {
		fmt.Fprintf(w, " agent=%s", t.Metadata.Agent)
	}
	fmt.Fprintln(w)

	if t.RootSpan != nil {
		printSpan(w, t.RootSpan, 1)
	}
}

func printSpan(w io.Writer, span *trace.Span, depth int) {
	line := fmt.Sprintf("%s%s %s (%s)", strings.Repeat("  ", depth), span.Kind, span.Name, span.Duration)
	if span.Status == trace.SpanStatusError {
		line += " error: " + span.Error
	}
	fmt.Fprintln(w, line)

	for _, child := range span.Children {
		printSpan(w, child, depth+1)
	}
}
