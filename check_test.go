package smolagent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smolagent"
)

func TestSchemaCheck(t *testing.T) {
	check, err := smolagent.SchemaCheck(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{"type": "string"},
			"temp": map[string]any{"type": "number"},
		},
		"required": []string{"city", "temp"},
	})
	gt.NoError(t, err).Required()

	ctx := context.Background()
	mem := smolagent.NewMemory("")

	ok, err := check(ctx, map[string]any{"city": "Paris", "temp": 21.5}, mem)
	gt.NoError(t, err)
	gt.True(t, ok)

	ok, err = check(ctx, map[string]any{"city": "Paris"}, mem)
	gt.Error(t, err)
	gt.False(t, ok)

	ok, err = check(ctx, "Paris, 21.5", mem)
	gt.Error(t, err)
	gt.False(t, ok)

	t.Run("invalid schema", func(t *testing.T) {
		_, err := smolagent.SchemaCheck(map[string]any{"type": 12})
		gt.True(t, errors.Is(err, smolagent.ErrInvalidParameter))
	})
}

func TestSchemaCheckInAgent(t *testing.T) {
	check, err := smolagent.SchemaCheck(map[string]any{"type": "integer"})
	gt.NoError(t, err).Required()

	model := newScriptedModel(
		toolCallMessage(finalAnswerCall("call_1", "forty-two")),
		toolCallMessage(finalAnswerCall("call_2", 42)),
	)
	agent, err := smolagent.New(model, smolagent.WithNamedFinalAnswerCheck("is_integer", check))
	gt.NoError(t, err).Required()

	result, err := agent.Run(context.Background(), "Answer with a number")
	gt.NoError(t, err).Required()
	gt.Equal(t, result.Output.Raw(), any(42))

	steps := agent.Memory().ActionSteps()
	gt.A(t, steps).Length(2).Required()
	gt.NotNil(t, steps[0].Error)
	gt.S(t, steps[0].Error.Error()).Contains("Check is_integer failed with error: ")
}
