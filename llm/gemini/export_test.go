package gemini

import "github.com/m-mizutani/smolagent"

// Export convert functions for testing
var (
	ConvertTool              = convertTool
	ConvertParameterToSchema = convertParameterToSchema
	ConvertMessages          = convertMessages
)

// Export for testing
type APIClient = apiClient

// NewWithAPIClient creates a client with a custom API client for testing
func NewWithAPIClient(client apiClient, options ...Option) *Client {
	c := newClient(options)
	c.client = client
	return c
}

var _ smolagent.StreamModel = &Client{}
