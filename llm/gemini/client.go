package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent"
	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-flash"

	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
)

var (
	// ErrMalformedFunctionCall is returned when the model keeps producing function calls that Gemini cannot parse.
	ErrMalformedFunctionCall = errors.New("malformed function call")

	// ErrProhibitedContent is returned when the response was blocked.
	ErrProhibitedContent = errors.New("prohibited content")
)

// Client is a model backed by Gemini on Vertex AI.
type Client struct {
	smolagent.BaseModel

	projectID string
	location  string

	client apiClient

	// generationConfig contains the default generation parameters
	generationConfig *genai.GenerateContentConfig

	maxRetries int
	retryDelay time.Duration
}

// Option is a configuration option for the Gemini client.
type Option func(*Client)

// WithModel sets the model to use for text generation.
// Default: [DefaultModel]
func WithModel(model string) Option {
	return func(c *Client) {
		c.ModelID = model
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 2.0
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.generationConfig.Temperature = &temp
	}
}

// WithTopP sets the top_p parameter for text generation.
// Range: 0.0 to 1.0
func WithTopP(topP float32) Option {
	return func(c *Client) {
		c.generationConfig.TopP = &topP
	}
}

// WithTopK sets the top_k parameter for text generation.
func WithTopK(topK float32) Option {
	return func(c *Client) {
		c.generationConfig.TopK = &topK
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int32) Option {
	return func(c *Client) {
		c.generationConfig.MaxOutputTokens = maxTokens
	}
}

// WithThinkingBudget sets the thinking budget for text generation.
// A value of -1 enables automatic thinking budget allocation.
func WithThinkingBudget(budget int32) Option {
	return func(c *Client) {
		if c.generationConfig.ThinkingConfig == nil {
			c.generationConfig.ThinkingConfig = &genai.ThinkingConfig{}
		}
		c.generationConfig.ThinkingConfig.ThinkingBudget = &budget
	}
}

// WithMalformedCallRetry sets how many times a request is retried when Gemini reports a malformed function call, and
// the base delay of the exponential backoff between attempts.
// Default: 3 retries, 500ms
func WithMalformedCallRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = baseDelay
	}
}

func newClient(options []Option) *Client {
	var budget int32 = 0
	client := &Client{
		BaseModel: smolagent.NewBaseModel(DefaultModel),
		generationConfig: &genai.GenerateContentConfig{
			ThinkingConfig: &genai.ThinkingConfig{
				ThinkingBudget: &budget,
			},
		},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// New creates a new client for the Gemini API.
// It requires a project ID and location, and can be configured with additional options.
func New(ctx context.Context, projectID, location string, options ...Option) (*Client, error) {
	if projectID == "" {
		return nil, goerr.New("projectID is required")
	}
	if location == "" {
		return nil, goerr.New("location is required")
	}

	client := newClient(options)
	client.projectID = projectID
	client.location = location

	// Create client configuration for Vertex AI backend
	config := &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	}

	genaiClient, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client", goerr.V("project", projectID), goerr.V("location", location))
	}

	client.client = &realAPIClient{client: genaiClient}
	return client, nil
}

func (c *Client) createRequest(req *smolagent.GenerateRequest) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	messages, err := c.PrepareMessages(req.Messages)
	if err != nil {
		return nil, nil, err
	}

	system, contents, err := convertMessages(messages)
	if err != nil {
		return nil, nil, err
	}

	config := *c.generationConfig
	config.SystemInstruction = system
	config.StopSequences = c.StopSequences(req.StopSequences)
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, spec := range req.Tools {
			decls[i] = convertTool(spec)
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAny},
		}
	}
	if req.ResponseFormat != nil && len(req.Tools) == 0 {
		config.ResponseMIMEType = "application/json"
	}

	return contents, &config, nil
}

// Generate implements smolagent.Model. Responses reporting a malformed function call are retried with exponential
// backoff.
func (c *Client) Generate(ctx context.Context, req *smolagent.GenerateRequest) (*smolagent.ChatMessage, error) {
	logger := smolagent.LoggerFromContext(ctx)

	contents, config, err := c.createRequest(req)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.client.GenerateContent(ctx, c.ModelID, contents, config)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", c.ModelID))
		}

		msg, err := processResponse(resp)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, ErrMalformedFunctionCall) || attempt >= c.maxRetries {
			return nil, err
		}

		delay := time.Duration(float64(c.retryDelay) * math.Pow(2, float64(attempt)))
		logger.Warn("Gemini returned malformed function call, retrying", "attempt", attempt+1, "delay", delay)
		select {
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "context cancelled while retrying")
		case <-time.After(delay):
		}
	}
}

// GenerateStream implements smolagent.StreamModel. Gemini sends each function call whole, so every call gets its own
// delta index.
func (c *Client) GenerateStream(ctx context.Context, req *smolagent.GenerateRequest) (<-chan *smolagent.StreamDelta, error) {
	contents, config, err := c.createRequest(req)
	if err != nil {
		return nil, err
	}

	stream := c.client.GenerateContentStream(ctx, c.ModelID, contents, config)

	ch := make(chan *smolagent.StreamDelta)
	go func() {
		defer close(ch)

		send := func(delta *smolagent.StreamDelta) bool {
			select {
			case ch <- delta:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var usage *genai.GenerateContentResponseUsageMetadata
		callIndex := 0
		for chunk := range stream {
			if chunk.Err != nil {
				send(&smolagent.StreamDelta{Error: goerr.Wrap(chunk.Err, "failed to receive content stream")})
				return
			}
			if chunk.Resp == nil {
				continue
			}
			if chunk.Resp.UsageMetadata != nil {
				usage = chunk.Resp.UsageMetadata
			}
			if err := checkFinishReason(chunk.Resp); err != nil {
				send(&smolagent.StreamDelta{Error: err})
				return
			}

			delta := &smolagent.StreamDelta{}
			for _, part := range responseParts(chunk.Resp) {
				if part.Thought {
					continue
				}
				delta.Content += part.Text
				if part.FunctionCall != nil {
					args, err := json.Marshal(part.FunctionCall.Args)
					if err != nil {
						send(&smolagent.StreamDelta{Error: goerr.Wrap(err, "failed to marshal function call arguments")})
						return
					}
					index := callIndex
					callIndex++
					delta.ToolCalls = append(delta.ToolCalls, smolagent.ToolCallDelta{
						Index:     &index,
						ID:        part.FunctionCall.ID,
						Type:      "function",
						Name:      part.FunctionCall.Name,
						Arguments: string(args),
					})
				}
			}
			if delta.Content == "" && len(delta.ToolCalls) == 0 {
				continue
			}
			if !send(delta) {
				return
			}
		}

		// usage metadata is cumulative, only the last one counts
		if usage != nil {
			send(&smolagent.StreamDelta{
				TokenUsage: smolagent.NewTokenUsage(int(usage.PromptTokenCount), int(usage.CandidatesTokenCount)),
			})
		}
	}()

	return ch, nil
}

func checkFinishReason(resp *genai.GenerateContentResponse) error {
	for _, candidate := range resp.Candidates {
		reason := string(candidate.FinishReason)
		if strings.Contains(reason, "MALFORMED_FUNCTION_CALL") {
			return goerr.Wrap(ErrMalformedFunctionCall, "Gemini could not parse the function call", goerr.V("finish_reason", reason))
		}
		if strings.Contains(reason, "PROHIBITED_CONTENT") {
			return goerr.Wrap(ErrProhibitedContent, "Gemini blocked the response", goerr.V("finish_reason", reason))
		}
	}
	return nil
}

func responseParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func processResponse(resp *genai.GenerateContentResponse) (*smolagent.ChatMessage, error) {
	if err := checkFinishReason(resp); err != nil {
		return nil, err
	}

	msg := &smolagent.ChatMessage{
		Role: smolagent.RoleAssistant,
		Raw:  resp,
	}
	if resp.UsageMetadata != nil {
		msg.TokenUsage = smolagent.NewTokenUsage(int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount))
	}

	var texts []string
	for _, part := range responseParts(resp) {
		if part.Thought {
			continue
		}
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			msg.ToolCalls = append(msg.ToolCalls, smolagent.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	if len(texts) > 0 {
		msg.Content = []smolagent.MessageContent{smolagent.TextContent(strings.Join(texts, ""))}
	}

	return msg, nil
}
