package openai_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smolagent"
	"github.com/m-mizutani/smolagent/llm/openai"
	openaiapi "github.com/sashabaranov/go-openai"
)

func TestConvertTool(t *testing.T) {
	tool := openai.ConvertTool(smolagent.ToolSpec{
		Name:        "search",
		Description: "Search the web",
		Parameters: map[string]*smolagent.Parameter{
			"query": {Type: smolagent.TypeString, Description: "query"},
			"limit": {Type: smolagent.TypeInteger, Description: "max results", Nullable: true},
		},
		OutputType: smolagent.TypeString,
	})

	gt.Equal(t, tool.Type, openaiapi.ToolTypeFunction)
	gt.Equal(t, tool.Function.Name, "search")
	gt.Equal(t, tool.Function.Description, "Search the web")

	params, ok := tool.Function.Parameters.(map[string]any)
	gt.True(t, ok)
	gt.Equal(t, params["type"], any("object"))
	gt.Equal(t, params["required"].([]string), []string{"query"})
}

func TestConvertMessages(t *testing.T) {
	img, err := smolagent.NewImage([]byte("\x89PNG\r\n\x1a\n0000"))
	gt.NoError(t, err).Required()

	cleaned, err := smolagent.CleanMessages([]smolagent.ChatMessage{
		smolagent.NewTextMessage(smolagent.RoleSystem, "system"),
		{
			Role: smolagent.RoleUser,
			Content: []smolagent.MessageContent{
				smolagent.TextContent("look at this"),
				smolagent.ImageContent(img),
			},
		},
	}, smolagent.WithImageURLs(true))
	gt.NoError(t, err).Required()

	messages := openai.ConvertMessages(cleaned)
	gt.A(t, messages).Length(2).Required()

	t.Run("single text part is plain content", func(t *testing.T) {
		gt.Equal(t, messages[0].Role, "system")
		gt.Equal(t, messages[0].Content, "system")
		gt.A(t, messages[0].MultiContent).Length(0)
	})

	t.Run("image is sent as data URL", func(t *testing.T) {
		gt.A(t, messages[1].MultiContent).Length(2).Required()
		gt.Equal(t, messages[1].MultiContent[0].Text, "look at this")
		gt.Equal(t, messages[1].MultiContent[1].Type, openaiapi.ChatMessagePartTypeImageURL)
		gt.S(t, messages[1].MultiContent[1].ImageURL.URL).Contains("data:image/png;base64,")
	})
}
