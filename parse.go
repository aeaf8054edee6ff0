package smolagent

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

const (
	msgNoJSONBlob        = "The model output does not contain any JSON blob."
	msgMultipleToolCalls = "JSON is invalid: you probably tried to provide multiple tool calls in one action. PROVIDE ONLY ONE TOOL CALL."
)

// ParseJSONBlob extracts the JSON object spanning from the first '{' to the last '}' of text.
// It also returns the text preceding the object.
func ParseJSONBlob(text string) (map[string]any, string, error) {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last < first {
		return nil, "", goerr.New(msgNoJSONBlob, goerr.V("text", text))
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(text[first:last+1]), &data); err != nil {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return nil, "", goerr.Wrap(err, "failed to decode JSON blob")
		}

		pos := first + int(syntaxErr.Offset) - 1
		if pos >= 1 && pos+2 <= len(text) && text[pos-1:pos+2] == "},\n" {
			return nil, "", goerr.New(msgMultipleToolCalls, goerr.V("text", text))
		}

		preview := text[max(0, pos-4):min(len(text), pos+5)]
		return nil, "", goerr.New(fmt.Sprintf("The JSON blob you used is invalid due to the following error: %s at position %d.\nJSON blob was: %s, decoding failed on this specific part:\n'%s'.", syntaxErr.Error(), pos, text, preview),
			goerr.V("position", pos))
	}

	return data, text[:first], nil
}

// ParseJSONIfNeeded decodes args when it is a JSON string. Anything else, or a string that is not valid JSON,
// is returned unchanged.
func ParseJSONIfNeeded(args any) any {
	s, ok := args.(string)
	if !ok {
		return args
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return args
	}
	return v
}

// ToolCallFromText extracts one tool call from free text containing a JSON object with nameKey and argumentsKey.
// The tool call gets a random id.
func ToolCallFromText(text, nameKey, argumentsKey string) (ToolCall, error) {
	data, _, err := ParseJSONBlob(text)
	if err != nil {
		return ToolCall{}, err
	}

	name, _ := data[nameKey].(string)
	if name == "" {
		return ToolCall{}, goerr.New(fmt.Sprintf("Key '%s' not found in the generated tool call. Got keys: %s instead.", nameKey, strings.Join(sortedKeys(data), ", ")),
			goerr.V("name_key", nameKey))
	}

	args := data[argumentsKey]
	if s, ok := args.(string); ok {
		args = ParseJSONIfNeeded(s)
	}

	return ToolCall{
		ID:        uuid.New().String(),
		Name:      name,
		Arguments: args,
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
