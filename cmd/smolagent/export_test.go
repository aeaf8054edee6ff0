package main

import (
	"context"
	"io"
	"net/http"

	"github.com/m-mizutani/smolagent"
)

// ListTracesResponse is exported for testing.
type ListTracesResponse = listTracesResponse

var (
	ParseGSURI     = parseGSURI
	PrintTrace     = printTrace
	LoadMemory     = loadMemory
	WriteMemory    = writeMemory
	NewLogger      = newLogger
	ArgsString     = argsString
	OpenTraceStore = openTraceStore
)

// NewTestServer creates a server reading traces from location.
func NewTestServer(ctx context.Context, location string) (http.Handler, error) {
	store, err := openTraceStore(ctx, location)
	if err != nil {
		return nil, err
	}
	return newServer(withSource(store)).handler(), nil
}

func RunStream(ctx context.Context, agent *smolagent.Agent, task string, w io.Writer) (smolagent.AgentType, error) {
	return runStream(ctx, agent, task, w, nil)
}
