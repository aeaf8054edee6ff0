package claude

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent"
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	// Temperature controls randomness in the output.
	// Higher values make the output more random, lower values make it more focused.
	Temperature float64

	// TopP controls diversity via nucleus sampling.
	TopP float64

	// MaxTokens limits the number of tokens to generate.
	MaxTokens int64
}

const (
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultVertexModel is the default Claude model served by Vertex AI.
	DefaultVertexModel = "claude-sonnet-4@20250514"
)

// Client is a model backed by the Anthropic messages API.
type Client struct {
	smolagent.BaseModel

	client apiClient

	// baseURL overrides the API endpoint.
	baseURL string

	params generationParameters
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the model to use.
// Default: [DefaultModel]
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.ModelID = modelName
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 1.0
// Default: 0.7
func WithTemperature(temp float64) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithTopP sets the top_p parameter for text generation.
// Range: 0.0 to 1.0
// Default: 1.0
func WithTopP(topP float64) Option {
	return func(c *Client) {
		c.params.TopP = topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
// Default: 4096
func WithMaxTokens(maxTokens int64) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func newClient(model string, options []Option) *Client {
	client := &Client{
		BaseModel: smolagent.NewBaseModel(model),
		params: generationParameters{
			Temperature: 0.7,
			TopP:        1.0,
			MaxTokens:   4096,
		},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// New creates a new client for the Claude API.
// It requires an API key and can be configured with additional options.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	client := newClient(DefaultModel, options)

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if client.baseURL != "" {
		opts = append(opts, option.WithBaseURL(client.baseURL))
	}
	anthropicClient := anthropic.NewClient(opts...)
	client.client = &realAPIClient{client: &anthropicClient}

	return client, nil
}

// NewWithVertex creates a client for Claude models served by Vertex AI. Credentials are resolved with Google
// application default credentials.
func NewWithVertex(ctx context.Context, region, projectID string, options ...Option) (*Client, error) {
	if region == "" {
		return nil, goerr.New("region is required")
	}
	if projectID == "" {
		return nil, goerr.New("projectID is required")
	}

	client := newClient(DefaultVertexModel, options)
	anthropicClient := anthropic.NewClient(
		option.WithAPIKey("dummy"), // Not used for Vertex AI
		vertex.WithGoogleAuth(ctx, region, projectID),
	)
	client.client = &realAPIClient{client: &anthropicClient}

	return client, nil
}

func (c *Client) createRequest(req *smolagent.GenerateRequest) (anthropic.MessageNewParams, error) {
	messages, err := c.PrepareMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	system, converted, err := convertMessages(messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.ModelID),
		MaxTokens:   c.params.MaxTokens,
		Messages:    converted,
		Temperature: anthropic.Float(c.params.Temperature),
		TopP:        anthropic.Float(c.params.TopP),
	}
	if len(system) > 0 {
		params.System = system
	}
	if stops := c.StopSequences(req.StopSequences); len(stops) > 0 {
		params.StopSequences = stops
	}
	if len(req.Tools) > 0 {
		params.Tools = make([]anthropic.ToolUnionParam, len(req.Tools))
		for i, spec := range req.Tools {
			params.Tools[i] = convertTool(spec)
		}
	}

	return params, nil
}

// Generate implements smolagent.Model.
func (c *Client) Generate(ctx context.Context, req *smolagent.GenerateRequest) (*smolagent.ChatMessage, error) {
	logger := smolagent.LoggerFromContext(ctx)

	params, err := c.createRequest(req)
	if err != nil {
		return nil, err
	}
	logger.Debug("Claude request", "model", c.ModelID, "messages", len(params.Messages), "tools", len(params.Tools))

	resp, err := c.client.MessagesNew(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create message", goerr.V("model", c.ModelID))
	}

	out := &smolagent.ChatMessage{
		Role:       smolagent.RoleAssistant,
		TokenUsage: smolagent.NewTokenUsage(int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens)),
		Raw:        resp,
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Content = append(out.Content, smolagent.TextContent(block.Text))
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, smolagent.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: decodeInput(block.Input),
			})
		}
	}

	logger.Debug("Claude response",
		"model", c.ModelID,
		"stop_reason", resp.StopReason,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return out, nil
}

// GenerateStream implements smolagent.StreamModel.
func (c *Client) GenerateStream(ctx context.Context, req *smolagent.GenerateRequest) (<-chan *smolagent.StreamDelta, error) {
	params, err := c.createRequest(req)
	if err != nil {
		return nil, err
	}

	stream := c.client.MessagesNewStreaming(ctx, params)
	if stream == nil {
		return nil, goerr.New("failed to create message stream")
	}

	ch := make(chan *smolagent.StreamDelta)
	go func() {
		defer close(ch)
		defer stream.Close()

		send := func(delta *smolagent.StreamDelta) bool {
			select {
			case ch <- delta:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var inputTokens int
		for stream.Next() {
			event := stream.Current()

			delta := &smolagent.StreamDelta{}
			switch event.Type {
			case "message_start":
				inputTokens = int(event.Message.Usage.InputTokens)
				continue

			case "content_block_start":
				if event.ContentBlock.Type != "tool_use" {
					continue
				}
				index := int(event.Index)
				delta.ToolCalls = []smolagent.ToolCallDelta{{
					Index: &index,
					ID:    event.ContentBlock.ID,
					Type:  "function",
					Name:  event.ContentBlock.Name,
				}}

			case "content_block_delta":
				switch event.Delta.Type {
				case "text_delta":
					delta.Content = event.Delta.Text
				case "input_json_delta":
					index := int(event.Index)
					delta.ToolCalls = []smolagent.ToolCallDelta{{
						Index:     &index,
						Arguments: event.Delta.PartialJSON,
					}}
				default:
					continue
				}

			case "message_delta":
				delta.TokenUsage = smolagent.NewTokenUsage(inputTokens, int(event.Usage.OutputTokens))

			default:
				continue
			}

			if !send(delta) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			send(&smolagent.StreamDelta{Error: goerr.Wrap(err, "failed to receive message stream")})
		}
	}()

	return ch, nil
}

// decodeInput returns the tool input as a JSON value. Input that cannot be decoded is returned as a string.
func decodeInput(raw json.RawMessage) any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
