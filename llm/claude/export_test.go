package claude

// Export convert functions for testing
var (
	ConvertTool     = convertTool
	ConvertMessages = convertMessages
	DecodeInput     = decodeInput
)

// Export for testing
type APIClient = apiClient

// GetBaseURL returns the base URL from a Claude client for testing
func GetBaseURL(client *Client) string {
	return client.baseURL
}
