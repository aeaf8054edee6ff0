package main_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smolagent"
	main "github.com/m-mizutani/smolagent/cmd/smolagent"
	"github.com/m-mizutani/smolagent/mock"
)

func newFinalAnswerAgent(t *testing.T, answer string) *smolagent.Agent {
	t.Helper()
	model := &mock.ModelMock{
		GenerateFunc: func(ctx context.Context, req *smolagent.GenerateRequest) (*smolagent.ChatMessage, error) {
			return &smolagent.ChatMessage{
				Role: smolagent.RoleAssistant,
				ToolCalls: []smolagent.ToolCall{
					{ID: "call_1", Name: "final_answer", Arguments: map[string]any{"answer": answer}},
				},
			}, nil
		},
		ParseToolCallsFunc: smolagent.BaseModel{}.ParseToolCalls,
	}

	agent, err := smolagent.New(model)
	gt.NoError(t, err).Required()
	return agent
}

func TestRunStream(t *testing.T) {
	agent := newFinalAnswerAgent(t, "42")

	var buf bytes.Buffer
	output, err := main.RunStream(context.Background(), agent, "What is the answer?", &buf)
	gt.NoError(t, err).Required()
	gt.NotNil(t, output)
	gt.Equal(t, output.String(), "42")
	gt.S(t, buf.String()).Contains("-> final_answer")
}

func TestMemoryFile(t *testing.T) {
	agent := newFinalAnswerAgent(t, "done")
	_, err := agent.Run(context.Background(), "finish the task")
	gt.NoError(t, err).Required()

	path := filepath.Join(t.TempDir(), "memory.json")
	gt.NoError(t, main.WriteMemory(path, agent.Memory())).Required()

	loaded, err := main.LoadMemory(path)
	gt.NoError(t, err).Required()
	gt.Equal(t, len(loaded.Steps()), len(agent.Memory().Steps()))

	t.Run("missing file", func(t *testing.T) {
		_, err := main.LoadMemory(filepath.Join(t.TempDir(), "none.json"))
		gt.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := main.NewLogger("warn", &buf)
	gt.NoError(t, err).Required()
	logger.Info("hidden")
	logger.Warn("shown")
	gt.S(t, buf.String()).Contains("shown")
	gt.False(t, strings.Contains(buf.String(), "hidden"))

	_, err = main.NewLogger("verbose", &buf)
	gt.Error(t, err)
}

func TestArgsString(t *testing.T) {
	gt.Equal(t, main.ArgsString("raw"), "raw")
	gt.Equal(t, main.ArgsString(map[string]any{"a": 1}), `{"a":1}`)
}
