package gemini

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent"
	"google.golang.org/genai"
)

// convertTool converts a tool spec to a Gemini function declaration.
func convertTool(spec smolagent.ToolSpec) *genai.FunctionDeclaration {
	// Gemini requires an empty slice, not nil
	required := []string{}
	parameters := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema),
	}

	for _, name := range spec.ParameterNames() {
		param := spec.Parameters[name]
		parameters.Properties[name] = convertParameterToSchema(param)
		if !param.Nullable {
			required = append(required, name)
		}
	}
	parameters.Required = required

	return &genai.FunctionDeclaration{
		Name:        spec.Name,
		Description: spec.Description,
		Parameters:  parameters,
	}
}

// convertParameterToSchema converts a tool input to a Gemini schema. Gemini has no union types, so the first
// non-null type is used and a null member makes the schema nullable.
func convertParameterToSchema(param *smolagent.Parameter) *genai.Schema {
	schema := &genai.Schema{
		Description: param.Description,
		Type:        genai.TypeString,
	}

	nullable := param.Nullable
	typed := false
	for _, t := range param.AllowedTypes() {
		if t == smolagent.TypeNull {
			nullable = true
			continue
		}
		if !typed {
			schema.Type = getGeminiType(t)
			typed = true
		}
	}
	if nullable {
		schema.Nullable = genai.Ptr(true)
	}

	if len(param.Enum) > 0 {
		schema.Enum = param.Enum
	}
	if param.Items != nil {
		schema.Items = convertParameterToSchema(param.Items)
	} else if schema.Type == genai.TypeArray {
		schema.Items = &genai.Schema{Type: genai.TypeString}
	}

	return schema
}

func getGeminiType(paramType smolagent.ParameterType) genai.Type {
	switch paramType {
	case smolagent.TypeString:
		return genai.TypeString
	case smolagent.TypeNumber:
		return genai.TypeNumber
	case smolagent.TypeInteger:
		return genai.TypeInteger
	case smolagent.TypeBoolean:
		return genai.TypeBoolean
	case smolagent.TypeArray:
		return genai.TypeArray
	case smolagent.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// convertMessages splits cleaned messages into the system instruction and the conversation. The assistant role is
// sent as "model".
func convertMessages(messages []smolagent.ChatMessage) (*genai.Content, []*genai.Content, error) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(messages))

	for i, msg := range messages {
		var parts []*genai.Part
		for _, part := range msg.Content {
			switch part.Type {
			case smolagent.ContentTypeText:
				if part.Text != "" {
					parts = append(parts, &genai.Part{Text: part.Text})
				}
			case smolagent.ContentTypeImage, smolagent.ContentTypeImageURL:
				if part.Image == nil {
					return nil, nil, goerr.Wrap(smolagent.ErrInvalidMessage, "image part has no image", goerr.V("index", i))
				}
				parts = append(parts, &genai.Part{
					InlineData: &genai.Blob{
						MIMEType: string(part.Image.MimeType()),
						Data:     part.Image.Data(),
					},
				})
			}
		}
		if len(parts) == 0 {
			continue
		}

		switch msg.Role {
		case smolagent.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, parts...)
		case smolagent.RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: parts})
		case smolagent.RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		default:
			return nil, nil, goerr.Wrap(smolagent.ErrInvalidMessage, "unsupported role for Gemini", goerr.V("role", msg.Role), goerr.V("index", i))
		}
	}

	return system, contents, nil
}
