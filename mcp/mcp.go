package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// DefaultClientName is the default name for MCP client
	DefaultClientName = "smolagent"
	// DefaultClientVersion is the default version for MCP client
	DefaultClientVersion = "0.1.0"
)

// Client exposes the tools of an MCP server as a smolagent.ToolSet. The connection is opened on the first call to
// Specs or Run.
type Client struct {
	// For local MCP server
	path    string
	args    []string
	envVars []string

	// For remote MCP server
	baseURL string
	headers map[string]string

	name    string
	version string

	client     *client.Client
	initResult *mcp.InitializeResult

	initMutex sync.Mutex
}

var _ smolagent.ToolSet = &Client{}

// StdioOption is the option for the MCP client for local MCP executable server via stdio.
type StdioOption func(*Client)

// WithEnvVars sets the environment variables for the MCP client. It appends the environment variables to the existing ones.
func WithEnvVars(envVars []string) StdioOption {
	return func(m *Client) {
		m.envVars = append(m.envVars, envVars...)
	}
}

// WithStdioClientInfo sets the client name and version for the MCP client.
func WithStdioClientInfo(name, version string) StdioOption {
	return func(m *Client) {
		m.name = name
		m.version = version
	}
}

// NewStdio creates a new MCP client for local MCP executable server via stdio.
func NewStdio(path string, args []string, options ...StdioOption) *Client {
	c := &Client{
		path:    path,
		args:    args,
		name:    DefaultClientName,
		version: DefaultClientVersion,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// SSEOption is the option for the MCP client for remote MCP server via HTTP SSE.
type SSEOption func(*Client)

// WithHeaders sets the headers for the MCP client. It replaces the existing headers setting.
func WithHeaders(headers map[string]string) SSEOption {
	return func(m *Client) {
		m.headers = headers
	}
}

// WithSSEClientInfo sets the client name and version for the MCP client.
func WithSSEClientInfo(name, version string) SSEOption {
	return func(m *Client) {
		m.name = name
		m.version = version
	}
}

// NewSSE creates a new MCP client for remote MCP server via HTTP SSE.
func NewSSE(baseURL string, options ...SSEOption) *Client {
	c := &Client{
		baseURL: baseURL,
		headers: map[string]string{},
		name:    DefaultClientName,
		version: DefaultClientVersion,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Specs implements smolagent.ToolSet.
func (c *Client) Specs(ctx context.Context) ([]smolagent.ToolSpec, error) {
	logger := smolagent.LoggerFromContext(ctx)

	if err := c.start(ctx); err != nil {
		return nil, err
	}

	resp, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tools")
	}

	specs := make([]smolagent.ToolSpec, len(resp.Tools))
	names := make([]string, len(resp.Tools))
	for i, tool := range resp.Tools {
		names[i] = tool.Name

		spec, err := convertToolToSpec(tool)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert tool to spec", goerr.V("tool.name", tool.Name))
		}
		specs[i] = spec
	}

	logger.Debug("found MCP tools", "names", names)
	return specs, nil
}

// Run implements smolagent.ToolSet.
func (c *Client) Run(ctx context.Context, name string, args any) (any, error) {
	logger := smolagent.LoggerFromContext(ctx)
	logger.Debug("call MCP tool", "name", name, "args", args)

	if err := c.start(ctx); err != nil {
		return nil, err
	}

	argMap, ok := args.(map[string]any)
	if !ok && args != nil {
		return nil, goerr.Wrap(smolagent.ErrInvalidParameter, "MCP tool arguments must be an object", goerr.V("args", args))
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = argMap
	resp, err := c.client.CallTool(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call tool", goerr.V("name", name))
	}

	result, err := convertContent(resp.Content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert tool result", goerr.V("name", name))
	}
	if resp.IsError {
		return nil, goerr.New("MCP tool returned an error", goerr.V("name", name), goerr.V("result", result))
	}
	return result, nil
}

// Close shuts down the connection. It is safe to call on a client that never connected.
func (c *Client) Close() error {
	c.initMutex.Lock()
	defer c.initMutex.Unlock()

	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close MCP client")
	}
	c.client = nil
	c.initResult = nil
	return nil
}

func (c *Client) start(ctx context.Context) error {
	c.initMutex.Lock()
	defer c.initMutex.Unlock()

	if c.initResult != nil {
		return nil
	}

	var tp transport.Interface
	switch {
	case c.path != "":
		tp = transport.NewStdio(c.path, c.envVars, c.args...)
	case c.baseURL != "":
		sse, err := transport.NewSSE(c.baseURL, transport.WithHeaders(c.headers))
		if err != nil {
			return goerr.Wrap(err, "failed to create SSE transport", goerr.V("url", c.baseURL))
		}
		tp = sse
	default:
		return goerr.New("no transport")
	}

	c.client = client.NewClient(tp)
	if err := c.client.Start(ctx); err != nil {
		return goerr.Wrap(err, "failed to start MCP client")
	}

	var initRequest mcp.InitializeRequest
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    c.name,
		Version: c.version,
	}

	resp, err := c.client.Initialize(ctx, initRequest)
	if err != nil {
		return goerr.Wrap(err, "failed to initialize MCP client")
	}
	c.initResult = resp

	smolagent.LoggerFromContext(ctx).Debug("MCP client initialized",
		"server", resp.ServerInfo.Name,
		"protocol", resp.ProtocolVersion,
	)
	return nil
}

func valueOrEmpty[T any](v any) T {
	var empty T
	if v == nil {
		return empty
	}
	if v, ok := v.(T); ok {
		return v
	}
	return empty
}

// convertToolToSpec converts an MCP tool into a tool spec. Inputs missing from the schema's required list become
// nullable, and a missing description falls back to the input name.
func convertToolToSpec(tool mcp.Tool) (smolagent.ToolSpec, error) {
	description := tool.Description
	if description == "" {
		description = tool.Name
	}

	parameters, err := inputSchemaToParameters(tool.InputSchema)
	if err != nil {
		return smolagent.ToolSpec{}, err
	}

	return smolagent.ToolSpec{
		Name:        tool.Name,
		Description: description,
		Parameters:  parameters,
		OutputType:  smolagent.TypeAny,
	}, nil
}

func inputSchemaToParameters(schema mcp.ToolInputSchema) (map[string]*smolagent.Parameter, error) {
	required := map[string]bool{}
	for _, name := range schema.Required {
		required[name] = true
	}

	parameters := map[string]*smolagent.Parameter{}
	for name, property := range schema.Properties {
		prop, ok := property.(map[string]any)
		if !ok {
			return nil, goerr.Wrap(smolagent.ErrInvalidParameter, "invalid property", goerr.V("name", name), goerr.V("property", property))
		}

		param := propertyToParameter(name, prop)
		param.Nullable = param.Nullable || !required[name]
		parameters[name] = param
	}

	return parameters, nil
}

func propertyToParameter(name string, prop map[string]any) *smolagent.Parameter {
	param := &smolagent.Parameter{
		Description: valueOrEmpty[string](prop["description"]),
	}
	if param.Description == "" {
		param.Description = name
	}

	switch t := prop["type"].(type) {
	case string:
		param.Type = parameterType(t)
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok {
				param.Types = append(param.Types, parameterType(s))
			}
		}
	default:
		param.Type = smolagent.TypeAny
	}
	if valueOrEmpty[bool](prop["nullable"]) {
		param.Nullable = true
	}

	for _, e := range valueOrEmpty[[]any](prop["enum"]) {
		param.Enum = append(param.Enum, fmt.Sprintf("%v", e))
	}

	if items, ok := prop["items"].(map[string]any); ok {
		param.Items = propertyToParameter(name, items)
	}

	return param
}

func parameterType(t string) smolagent.ParameterType {
	pt := smolagent.ParameterType(t)
	if !pt.Valid() {
		return smolagent.TypeAny
	}
	return pt
}

// convertContent converts a tool result. A single text part is decoded as JSON when possible and a single image
// part becomes a smolagent.Image. Multiple parts are joined as text.
func convertContent(contents []mcp.Content) (any, error) {
	if len(contents) == 0 {
		return nil, nil
	}

	if len(contents) == 1 {
		switch v := contents[0].(type) {
		case mcp.TextContent:
			return decodeText(v.Text), nil
		case *mcp.TextContent:
			return decodeText(v.Text), nil
		case mcp.ImageContent:
			return decodeImage(v)
		case *mcp.ImageContent:
			return decodeImage(*v)
		}
	}

	var texts []string
	for i, c := range contents {
		switch v := c.(type) {
		case mcp.TextContent:
			texts = append(texts, v.Text)
		case *mcp.TextContent:
			texts = append(texts, v.Text)
		default:
			texts = append(texts, fmt.Sprintf("[content %d: %T]", i+1, c))
		}
	}
	return strings.Join(texts, "\n"), nil
}

func decodeText(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		if _, ok := v.(map[string]any); ok {
			return v
		}
	}
	return text
}

func decodeImage(content mcp.ImageContent) (any, error) {
	data, err := base64.StdEncoding.DecodeString(content.Data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode image data")
	}

	var opts []smolagent.ImageOption
	if content.MIMEType != "" {
		opts = append(opts, smolagent.WithMimeType(smolagent.ImageMimeType(content.MIMEType)))
	}
	img, err := smolagent.NewImage(data, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid image content", goerr.V("mime_type", content.MIMEType))
	}
	return img, nil
}
