package openai

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent"
	"github.com/sashabaranov/go-openai"
)

// convertMessages converts cleaned agent messages. A message with a single text part is sent as plain content.
func convertMessages(messages []smolagent.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		m := openai.ChatCompletionMessage{Role: string(msg.Role)}

		if len(msg.Content) == 1 && msg.Content[0].Type == smolagent.ContentTypeText {
			m.Content = msg.Content[0].Text
			out = append(out, m)
			continue
		}

		for _, part := range msg.Content {
			switch part.Type {
			case smolagent.ContentTypeText:
				m.MultiContent = append(m.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: part.Text,
				})
			case smolagent.ContentTypeImageURL:
				m.MultiContent = append(m.MultiContent, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: part.URL},
				})
			}
		}
		out = append(out, m)
	}
	return out
}

// convertTool converts a tool spec into an OpenAI function tool.
func convertTool(spec smolagent.ToolSpec) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.ParametersSchema(),
		},
	}
}

// convertResponseFormat accepts either {"type": "json_schema", "json_schema": {"name", "schema", "strict"}} or
// {"type": "json_object"}.
func convertResponseFormat(format map[string]any) (*openai.ChatCompletionResponseFormat, error) {
	rawSchema, ok := format["json_schema"].(map[string]any)
	if !ok {
		return &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}, nil
	}

	schema, err := json.Marshal(rawSchema["schema"])
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal response schema")
	}
	name, _ := rawSchema["name"].(string)
	if name == "" {
		name = "response"
	}
	strict, _ := rawSchema["strict"].(bool)

	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   name,
			Schema: json.RawMessage(schema),
			Strict: strict,
		},
	}, nil
}
