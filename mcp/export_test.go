package mcp

var (
	ConvertToolToSpec = convertToolToSpec
	ConvertContent    = convertContent
)
