package openai

import (
	"context"
	"errors"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent"
	"github.com/sashabaranov/go-openai"
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	// Temperature controls randomness in the output.
	Temperature float32

	// TopP controls diversity via nucleus sampling.
	TopP float32

	// MaxTokens limits the number of tokens to generate.
	MaxTokens int

	// PresencePenalty increases the model's likelihood to talk about new topics.
	// Range: -2.0 to 2.0
	PresencePenalty float32

	// FrequencyPenalty decreases the model's likelihood to repeat the same line verbatim.
	// Range: -2.0 to 2.0
	FrequencyPenalty float32
}

// Client is a model backed by the OpenAI chat completion API. Any OpenAI compatible endpoint (e.g. Ollama /v1)
// can be used with WithBaseURL.
type Client struct {
	smolagent.BaseModel

	client apiClient

	// baseURL is the custom base URL for the OpenAI API.
	baseURL string

	params generationParameters
}

const (
	DefaultModel = "gpt-4.1"
)

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the model to use for chat completions.
// See default model in [DefaultModel].
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.ModelID = modelName
	}
}

// WithTemperature sets the temperature parameter for text generation.
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithTopP sets the top_p parameter for text generation.
func WithTopP(topP float32) Option {
	return func(c *Client) {
		c.params.TopP = topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

// WithPresencePenalty sets the presence penalty parameter.
func WithPresencePenalty(penalty float32) Option {
	return func(c *Client) {
		c.params.PresencePenalty = penalty
	}
}

// WithFrequencyPenalty sets the frequency penalty parameter.
func WithFrequencyPenalty(penalty float32) Option {
	return func(c *Client) {
		c.params.FrequencyPenalty = penalty
	}
}

// WithBaseURL sets the custom base URL for the OpenAI API.
// Allows usage with compatible endpoints, proxies, or self-hosted instances.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithFlattenMessagesAsText sends every message as a single text part. Some compatible servers only accept
// string content.
func WithFlattenMessagesAsText(enabled bool) Option {
	return func(c *Client) {
		c.FlattenMessagesAsText = enabled
	}
}

// New creates a new client for the OpenAI API.
// It requires an API key and can be configured with additional options.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	client := &Client{
		BaseModel: smolagent.NewBaseModel(DefaultModel),
	}

	for _, option := range options {
		option(client)
	}

	config := openai.DefaultConfig(apiKey)
	if client.baseURL != "" {
		config.BaseURL = client.baseURL
	}
	client.client = &realAPIClient{client: openai.NewClientWithConfig(config)}

	return client, nil
}

// createRequest converts an agent request into a chat completion request.
func (c *Client) createRequest(req *smolagent.GenerateRequest, stream bool) (openai.ChatCompletionRequest, error) {
	messages, err := c.PrepareMessages(req.Messages, smolagent.WithImageURLs(true))
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	out := openai.ChatCompletionRequest{
		Model:            c.ModelID,
		Messages:         convertMessages(messages),
		Stop:             c.StopSequences(req.StopSequences),
		Temperature:      c.params.Temperature,
		TopP:             c.params.TopP,
		MaxTokens:        c.params.MaxTokens,
		PresencePenalty:  c.params.PresencePenalty,
		FrequencyPenalty: c.params.FrequencyPenalty,
		Stream:           stream,
	}

	if len(req.Tools) > 0 {
		out.Tools = make([]openai.Tool, len(req.Tools))
		for i, spec := range req.Tools {
			out.Tools[i] = convertTool(spec)
		}
		out.ToolChoice = "required"
	}

	if req.ResponseFormat != nil {
		format, err := convertResponseFormat(req.ResponseFormat)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		out.ResponseFormat = format
	}

	if stream {
		out.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}

	return out, nil
}

// Generate implements smolagent.Model.
func (c *Client) Generate(ctx context.Context, req *smolagent.GenerateRequest) (*smolagent.ChatMessage, error) {
	logger := smolagent.LoggerFromContext(ctx)

	openaiReq, err := c.createRequest(req, false)
	if err != nil {
		return nil, err
	}
	logger.Debug("OpenAI request", "model", openaiReq.Model, "messages", len(openaiReq.Messages), "tools", len(openaiReq.Tools))

	resp, err := c.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat completion", goerr.V("model", c.ModelID))
	}
	if len(resp.Choices) == 0 {
		return nil, goerr.Wrap(smolagent.ErrInvalidMessage, "no choices in chat completion", goerr.V("model", c.ModelID))
	}

	message := resp.Choices[0].Message
	out := &smolagent.ChatMessage{
		Role:       smolagent.RoleAssistant,
		TokenUsage: smolagent.NewTokenUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		Raw:        resp,
	}
	if message.Content != "" {
		out.Content = []smolagent.MessageContent{smolagent.TextContent(message.Content)}
	}
	for _, toolCall := range message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, smolagent.ToolCall{
			ID:        toolCall.ID,
			Name:      toolCall.Function.Name,
			Arguments: toolCall.Function.Arguments,
		})
	}

	logger.Debug("OpenAI response",
		"model", resp.Model,
		"finish_reason", resp.Choices[0].FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return out, nil
}

// GenerateStream implements smolagent.StreamModel. The last delta carries the token usage of the response.
func (c *Client) GenerateStream(ctx context.Context, req *smolagent.GenerateRequest) (<-chan *smolagent.StreamDelta, error) {
	openaiReq, err := c.createRequest(req, true)
	if err != nil {
		return nil, err
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openaiReq)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat completion stream", goerr.V("model", c.ModelID))
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

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				send(&smolagent.StreamDelta{Error: goerr.Wrap(err, "failed to receive chat completion stream")})
				return
			}

			delta := convertStreamResponse(resp)
			if delta == nil {
				continue
			}
			if !send(delta) {
				return
			}
		}
	}()

	return ch, nil
}

func convertStreamResponse(resp openai.ChatCompletionStreamResponse) *smolagent.StreamDelta {
	delta := &smolagent.StreamDelta{}
	if resp.Usage != nil {
		delta.TokenUsage = smolagent.NewTokenUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0].Delta
		delta.Content = choice.Content
		for _, tc := range choice.ToolCalls {
			delta.ToolCalls = append(delta.ToolCalls, smolagent.ToolCallDelta{
				Index:     tc.Index,
				ID:        tc.ID,
				Type:      string(tc.Type),
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}

	if delta.Content == "" && len(delta.ToolCalls) == 0 && delta.TokenUsage == nil {
		return nil
	}
	return delta
}
