package claude

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent"
)

// convertTool converts a tool spec into a Claude tool definition.
func convertTool(spec smolagent.ToolSpec) anthropic.ToolUnionParam {
	schema := spec.ParametersSchema()

	tool := anthropic.ToolUnionParamOfTool(
		anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
		},
		spec.Name,
	)
	if tool.OfTool != nil && spec.Description != "" {
		tool.OfTool.Description = anthropic.String(spec.Description)
	}
	return tool
}

// convertMessages splits cleaned messages into the system prompt and the conversation. Claude rejects empty text
// blocks, so they are dropped.
func convertMessages(messages []smolagent.ChatMessage) ([]anthropic.TextBlockParam, []anthropic.MessageParam, error) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(messages))

	for i, msg := range messages {
		if msg.Role == smolagent.RoleSystem {
			for _, part := range msg.Content {
				if part.Type == smolagent.ContentTypeText && part.Text != "" {
					system = append(system, anthropic.TextBlockParam{Text: part.Text})
				}
			}
			continue
		}

		var blocks []anthropic.ContentBlockParamUnion
		for _, part := range msg.Content {
			switch part.Type {
			case smolagent.ContentTypeText:
				if part.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(part.Text))
				}
			case smolagent.ContentTypeImage, smolagent.ContentTypeImageURL:
				if part.Image == nil {
					return nil, nil, goerr.Wrap(smolagent.ErrInvalidMessage, "image part has no image", goerr.V("index", i))
				}
				blocks = append(blocks, anthropic.NewImageBlockBase64(string(part.Image.MimeType()), part.Image.Base64()))
			}
		}
		if len(blocks) == 0 {
			continue
		}

		switch msg.Role {
		case smolagent.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case smolagent.RoleUser:
			out = append(out, anthropic.NewUserMessage(blocks...))
		default:
			return nil, nil, goerr.Wrap(smolagent.ErrInvalidMessage, "unsupported role for Claude", goerr.V("role", msg.Role), goerr.V("index", i))
		}
	}

	return system, out, nil
}
