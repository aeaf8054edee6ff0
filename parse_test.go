package smolagent_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smolagent"
)

func TestParseJSONBlob(t *testing.T) {
	t.Run("object with preceding text", func(t *testing.T) {
		data, prefix, err := smolagent.ParseJSONBlob("Thought: I need the weather.\n{\"name\": \"get_weather\", \"arguments\": {\"location\": \"Paris\"}}")
		gt.NoError(t, err).Required()
		gt.Equal(t, prefix, "Thought: I need the weather.\n")
		gt.Equal(t, data["name"], any("get_weather"))
		gt.Equal(t, data["arguments"], any(map[string]any{"location": "Paris"}))
	})

	t.Run("no object", func(t *testing.T) {
		_, _, err := smolagent.ParseJSONBlob("I do not know")
		gt.Error(t, err)
		gt.Equal(t, err.Error(), "The model output does not contain any JSON blob.")
		gt.Equal(t, goerr.Values(err)["text"], any("I do not know"))
	})

	t.Run("multiple tool calls", func(t *testing.T) {
		_, _, err := smolagent.ParseJSONBlob("{\"name\": \"a\", \"arguments\": {}},\n{\"name\": \"b\", \"arguments\": {}}")
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("PROVIDE ONLY ONE TOOL CALL.")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, _, err := smolagent.ParseJSONBlob(`{"name": "a", "arguments": {"x": }}`)
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("The JSON blob you used is invalid due to the following error")
		gt.S(t, err.Error()).Contains("decoding failed on this specific part")
	})
}

func TestParseJSONIfNeeded(t *testing.T) {
	gt.Equal(t, smolagent.ParseJSONIfNeeded(`{"a": 1}`), any(map[string]any{"a": float64(1)}))
	gt.Equal(t, smolagent.ParseJSONIfNeeded(`[1, 2]`), any([]any{float64(1), float64(2)}))
	gt.Equal(t, smolagent.ParseJSONIfNeeded("plain text"), any("plain text"))
	gt.Equal(t, smolagent.ParseJSONIfNeeded(5), any(5))
	gt.Nil(t, smolagent.ParseJSONIfNeeded(nil))
}

func TestToolCallFromText(t *testing.T) {
	call, err := smolagent.ToolCallFromText(`{"name": "search", "arguments": "{\"q\": \"go\"}"}`, "name", "arguments")
	gt.NoError(t, err).Required()
	gt.Equal(t, call.Name, "search")
	gt.Equal(t, call.Arguments, any(map[string]any{"q": "go"}))
	gt.NotEqual(t, call.ID, "")

	t.Run("missing name key", func(t *testing.T) {
		_, err := smolagent.ToolCallFromText(`{"tool": "search", "arguments": {}}`, "name", "arguments")
		gt.Error(t, err)
		gt.Equal(t, err.Error(), "Key 'name' not found in the generated tool call. Got keys: arguments, tool instead.")
		gt.Equal(t, goerr.Values(err)["name_key"], any("name"))
	})

	t.Run("custom keys", func(t *testing.T) {
		call, err := smolagent.ToolCallFromText(`{"tool": "search", "params": {"q": "go"}}`, "tool", "params")
		gt.NoError(t, err).Required()
		gt.Equal(t, call.Name, "search")
	})
}

func TestBaseModelParseToolCalls(t *testing.T) {
	model := smolagent.NewBaseModel("test-model")

	t.Run("structured calls get decoded arguments", func(t *testing.T) {
		msg, err := model.ParseToolCalls(&smolagent.ChatMessage{
			Role:      smolagent.RoleToolCall,
			ToolCalls: []smolagent.ToolCall{{ID: "call_1", Name: "search", Arguments: `{"q":"go"}`}},
		})
		gt.NoError(t, err).Required()
		gt.Equal(t, msg.Role, smolagent.RoleAssistant)
		gt.Equal(t, msg.ToolCalls[0].Arguments, any(map[string]any{"q": "go"}))
	})

	t.Run("call from text", func(t *testing.T) {
		msg, err := model.ParseToolCalls(&smolagent.ChatMessage{
			Role:    smolagent.RoleAssistant,
			Content: []smolagent.MessageContent{smolagent.TextContent(`  {"name": "final_answer", "arguments": {"answer": 1}}  `)},
		})
		gt.NoError(t, err).Required()
		gt.A(t, msg.ToolCalls).Length(1).Required()
		gt.Equal(t, msg.ToolCalls[0].Name, "final_answer")
	})

	t.Run("empty message", func(t *testing.T) {
		_, err := model.ParseToolCalls(&smolagent.ChatMessage{Role: smolagent.RoleAssistant})
		gt.True(t, errors.Is(err, smolagent.ErrInvalidMessage))
	})

	t.Run("custom keys", func(t *testing.T) {
		custom := smolagent.BaseModel{ToolNameKey: "tool", ToolArgumentsKey: "params"}
		msg, err := custom.ParseToolCalls(&smolagent.ChatMessage{
			Role:    smolagent.RoleAssistant,
			Content: []smolagent.MessageContent{smolagent.TextContent(`{"tool": "search", "params": {"q": "go"}}`)},
		})
		gt.NoError(t, err).Required()
		gt.Equal(t, msg.ToolCalls[0].Name, "search")
	})
}

func TestSupportsStopParameter(t *testing.T) {
	testCases := map[string]bool{
		"gpt-4o":              true,
		"claude-sonnet-4":     true,
		"o3":                  false,
		"o3-2025-04-16":       false,
		"o4-mini":             false,
		"openai/o4-mini-2025": false,
		"o1":                  true,
	}
	for modelID, want := range testCases {
		t.Run(modelID, func(t *testing.T) {
			gt.Equal(t, smolagent.SupportsStopParameter(modelID), want)
		})
	}

	gt.Nil(t, smolagent.NewBaseModel("o3").StopSequences([]string{"x"}))
	gt.Equal(t, smolagent.NewBaseModel("gpt-4o").StopSequences([]string{"x"}), []string{"x"})
}
