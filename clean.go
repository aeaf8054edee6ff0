package smolagent

import (
	"github.com/m-mizutani/goerr/v2"
)

type cleanConfig struct {
	roleConversions map[MessageRole]MessageRole
	imageURLs       bool
	flatten         bool
}

// CleanOption configures CleanMessages.
type CleanOption func(*cleanConfig)

// WithRoleConversions replaces the role conversion table. Default is DefaultRoleConversions.
func WithRoleConversions(conversions map[MessageRole]MessageRole) CleanOption {
	return func(c *cleanConfig) {
		c.roleConversions = conversions
	}
}

// WithImageURLs rewrites image parts to inline data URLs instead of bare base64 data.
func WithImageURLs(enabled bool) CleanOption {
	return func(c *cleanConfig) {
		c.imageURLs = enabled
	}
}

// WithFlattenAsText turns every message into a single text part. Images cannot be flattened.
func WithFlattenAsText(enabled bool) CleanOption {
	return func(c *cleanConfig) {
		c.flatten = enabled
	}
}

// CleanMessages converts agent messages into a provider-ready sequence: roles are remapped, images are encoded and
// consecutive messages that share a role are merged. The input messages are not modified.
func CleanMessages(messages []ChatMessage, options ...CleanOption) ([]ChatMessage, error) {
	cfg := cleanConfig{roleConversions: DefaultRoleConversions}
	for _, opt := range options {
		opt(&cfg)
	}

	var out []ChatMessage
	for i, msg := range messages {
		role := msg.Role
		if converted, ok := cfg.roleConversions[role]; ok {
			role = converted
		}

		content := make([]MessageContent, 0, len(msg.Content))
		for _, part := range msg.Content {
			if part.Type != ContentTypeImage {
				content = append(content, part)
				continue
			}
			if cfg.flatten {
				return nil, goerr.Wrap(ErrInvalidMessage, "cannot flatten image content into text", goerr.V("index", i))
			}
			if part.Image == nil {
				return nil, goerr.Wrap(ErrInvalidMessage, "image part has no image", goerr.V("index", i))
			}
			if cfg.imageURLs {
				content = append(content, MessageContent{Type: ContentTypeImageURL, Image: part.Image, URL: part.Image.DataURL()})
			} else {
				content = append(content, MessageContent{Type: ContentTypeImage, Image: part.Image, Base64: part.Image.Base64()})
			}
		}

		if len(out) > 0 && out[len(out)-1].Role == role {
			last := &out[len(out)-1]
			if cfg.flatten {
				text := ""
				if len(content) > 0 {
					text = content[0].Text
				}
				last.Content[0].Text += "\n" + text
				continue
			}

			for _, part := range content {
				n := len(last.Content)
				if part.Type == ContentTypeText && n > 0 && last.Content[n-1].Type == ContentTypeText {
					last.Content[n-1].Text += "\n" + part.Text
				} else {
					last.Content = append(last.Content, part)
				}
			}
			continue
		}

		cleaned := ChatMessage{
			Role:       role,
			ToolCalls:  msg.ToolCalls,
			TokenUsage: msg.TokenUsage,
		}
		if cfg.flatten {
			text := ""
			if len(content) > 0 {
				text = content[0].Text
			}
			cleaned.Content = []MessageContent{TextContent(text)}
		} else {
			cleaned.Content = content
		}
		out = append(out, cleaned)
	}

	return out, nil
}
