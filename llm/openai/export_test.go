package openai

import "github.com/m-mizutani/smolagent"

// Export convert functions for testing
var (
	ConvertTool           = convertTool
	ConvertMessages       = convertMessages
	ConvertResponseFormat = convertResponseFormat
)

// Export for testing
type APIClient = apiClient

// NewWithAPIClient creates a client with a custom API client for testing
func NewWithAPIClient(client apiClient, model string) *Client {
	return &Client{
		BaseModel: smolagent.NewBaseModel(model),
		client:    client,
	}
}
