package gemini_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smolagent"
	"github.com/m-mizutani/smolagent/llm/gemini"
	"google.golang.org/genai"
)

type fakeAPIClient struct {
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resps    []*genai.GenerateContentResponse
	chunks   []gemini.StreamResponse
	calls    int
}

func (f *fakeAPIClient) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contents = contents
	f.config = config
	resp := f.resps[min(f.calls, len(f.resps)-1)]
	f.calls++
	return resp, nil
}

func (f *fakeAPIClient) GenerateContentStream(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) <-chan gemini.StreamResponse {
	f.contents = contents
	f.config = config
	ch := make(chan gemini.StreamResponse, len(f.chunks))
	for _, chunk := range f.chunks {
		ch <- chunk
	}
	close(ch)
	return ch
}

var _ gemini.APIClient = &fakeAPIClient{}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: parts}, FinishReason: genai.FinishReasonStop},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 12, CandidatesTokenCount: 4},
	}
}

func weatherRequest() *smolagent.GenerateRequest {
	return &smolagent.GenerateRequest{
		Messages: []smolagent.ChatMessage{
			smolagent.NewTextMessage(smolagent.RoleSystem, "You are helpful"),
			smolagent.NewTextMessage(smolagent.RoleUser, "Weather in Paris?"),
			smolagent.NewTextMessage(smolagent.RoleToolCall, "Calling tools"),
		},
		StopSequences: []string{"Observation:"},
		Tools: []smolagent.ToolSpec{
			{
				Name:        "get_weather",
				Description: "Get weather",
				Parameters: map[string]*smolagent.Parameter{
					"location": {Type: smolagent.TypeString, Description: "city"},
					"unit":     {Type: smolagent.TypeString, Description: "unit", Nullable: true},
				},
				OutputType: smolagent.TypeString,
			},
		},
	}
}

func TestGenerate(t *testing.T) {
	fake := &fakeAPIClient{
		resps: []*genai.GenerateContentResponse{
			textResponse(
				&genai.Part{Text: "thinking...", Thought: true},
				&genai.Part{Text: "Looking it up"},
				&genai.Part{FunctionCall: &genai.FunctionCall{ID: "fc_1", Name: "get_weather", Args: map[string]any{"location": "Paris"}}},
			),
		},
	}
	client := gemini.NewWithAPIClient(fake)

	msg, err := client.Generate(context.Background(), weatherRequest())
	gt.NoError(t, err).Required()

	t.Run("request", func(t *testing.T) {
		gt.NotNil(t, fake.config.SystemInstruction)
		gt.A(t, fake.contents).Length(2).Required()
		gt.Equal(t, fake.contents[0].Role, "user")
		gt.Equal(t, fake.contents[1].Role, "model")
		gt.Equal(t, fake.config.StopSequences, []string{"Observation:"})
		gt.A(t, fake.config.Tools).Length(1).Required()

		decl := fake.config.Tools[0].FunctionDeclarations[0]
		gt.Equal(t, decl.Name, "get_weather")
		gt.Equal(t, decl.Parameters.Required, []string{"location"})
	})

	t.Run("response", func(t *testing.T) {
		gt.Equal(t, msg.Text(), "Looking it up")
		gt.A(t, msg.ToolCalls).Length(1).Required()
		gt.Equal(t, msg.ToolCalls[0].ID, "fc_1")
		gt.Equal(t, msg.ToolCalls[0].Arguments, any(map[string]any{"location": "Paris"}))
		gt.Equal(t, msg.TokenUsage.TotalTokens, 16)
	})
}

func TestGenerateRetriesMalformedFunctionCall(t *testing.T) {
	malformed := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMalformedFunctionCall}},
	}

	t.Run("recovers", func(t *testing.T) {
		fake := &fakeAPIClient{
			resps: []*genai.GenerateContentResponse{malformed, textResponse(&genai.Part{Text: "ok"})},
		}
		client := gemini.NewWithAPIClient(fake, gemini.WithMalformedCallRetry(2, time.Millisecond))

		msg, err := client.Generate(context.Background(), weatherRequest())
		gt.NoError(t, err).Required()
		gt.Equal(t, msg.Text(), "ok")
		gt.Equal(t, fake.calls, 2)
	})

	t.Run("gives up", func(t *testing.T) {
		fake := &fakeAPIClient{resps: []*genai.GenerateContentResponse{malformed}}
		client := gemini.NewWithAPIClient(fake, gemini.WithMalformedCallRetry(2, time.Millisecond))

		_, err := client.Generate(context.Background(), weatherRequest())
		gt.True(t, errors.Is(err, gemini.ErrMalformedFunctionCall))
		gt.Equal(t, fake.calls, 3)
	})
}

func TestGenerateStream(t *testing.T) {
	fake := &fakeAPIClient{
		chunks: []gemini.StreamResponse{
			{Resp: textResponse(&genai.Part{Text: "Hel"})},
			{Resp: textResponse(&genai.Part{Text: "lo"})},
			{Resp: textResponse(
				&genai.Part{FunctionCall: &genai.FunctionCall{ID: "fc_1", Name: "get_weather", Args: map[string]any{"location": "Paris"}}},
				&genai.Part{FunctionCall: &genai.FunctionCall{ID: "fc_2", Name: "get_weather", Args: map[string]any{"location": "Tokyo"}}},
			)},
		},
	}
	client := gemini.NewWithAPIClient(fake)

	ch, err := client.GenerateStream(context.Background(), weatherRequest())
	gt.NoError(t, err).Required()

	var deltas []*smolagent.StreamDelta
	for delta := range ch {
		gt.NoError(t, delta.Error)
		deltas = append(deltas, delta)
	}

	msg, err := smolagent.AgglomerateStreamDeltas(deltas)
	gt.NoError(t, err).Required()
	gt.Equal(t, msg.Text(), "Hello")
	gt.A(t, msg.ToolCalls).Length(2).Required()
	gt.Equal(t, msg.ToolCalls[0].ID, "fc_1")
	gt.Equal(t, msg.ToolCalls[1].ID, "fc_2")
	gt.Equal(t, msg.ToolCalls[1].Arguments, any(`{"location":"Tokyo"}`))

	// usage metadata is cumulative, so it is counted once
	gt.Equal(t, msg.TokenUsage.TotalTokens, 16)
}

func TestGenerateStreamError(t *testing.T) {
	fake := &fakeAPIClient{
		chunks: []gemini.StreamResponse{
			{Resp: textResponse(&genai.Part{Text: "Hel"})},
			{Err: errors.New("connection reset")},
		},
	}
	client := gemini.NewWithAPIClient(fake)

	ch, err := client.GenerateStream(context.Background(), weatherRequest())
	gt.NoError(t, err).Required()

	var last *smolagent.StreamDelta
	for delta := range ch {
		last = delta
	}
	gt.NotNil(t, last)
	gt.Error(t, last.Error)
}

func TestConvertParameterToSchema(t *testing.T) {
	t.Run("union with null", func(t *testing.T) {
		schema := gemini.ConvertParameterToSchema(&smolagent.Parameter{
			Types:       []smolagent.ParameterType{smolagent.TypeNull, smolagent.TypeInteger},
			Description: "count",
		})
		gt.Equal(t, schema.Type, genai.TypeInteger)
		gt.NotNil(t, schema.Nullable)
		gt.True(t, *schema.Nullable)
	})

	t.Run("array without items", func(t *testing.T) {
		schema := gemini.ConvertParameterToSchema(&smolagent.Parameter{Type: smolagent.TypeArray, Description: "list"})
		gt.Equal(t, schema.Type, genai.TypeArray)
		gt.NotNil(t, schema.Items)
	})

	t.Run("image is sent as string", func(t *testing.T) {
		schema := gemini.ConvertParameterToSchema(&smolagent.Parameter{Type: smolagent.TypeImage, Description: "img"})
		gt.Equal(t, schema.Type, genai.TypeString)
	})
}

func TestConvertMessagesImage(t *testing.T) {
	img, err := smolagent.NewImage([]byte("\x89PNG\r\n\x1a\n0000"))
	gt.NoError(t, err).Required()

	_, contents, err := gemini.ConvertMessages([]smolagent.ChatMessage{
		{Role: smolagent.RoleUser, Content: []smolagent.MessageContent{
			smolagent.TextContent("what is this"),
			{Type: smolagent.ContentTypeImage, Image: &img},
		}},
	})
	gt.NoError(t, err).Required()
	gt.A(t, contents).Length(1).Required()
	gt.A(t, contents[0].Parts).Length(2).Required()
	gt.Equal(t, contents[0].Parts[1].InlineData.MIMEType, "image/png")
}

func TestGeminiGenerateLive(t *testing.T) {
	projectID, ok := os.LookupEnv("TEST_GCP_PROJECT_ID")
	if !ok {
		t.Skip("TEST_GCP_PROJECT_ID is not set")
	}
	location, ok := os.LookupEnv("TEST_GCP_LOCATION")
	if !ok {
		t.Skip("TEST_GCP_LOCATION is not set")
	}

	ctx := context.Background()
	client, err := gemini.New(ctx, projectID, location)
	gt.NoError(t, err).Required()

	msg, err := client.Generate(ctx, &smolagent.GenerateRequest{
		Messages: []smolagent.ChatMessage{smolagent.NewTextMessage(smolagent.RoleUser, "Say hello in one word")},
	})
	gt.NoError(t, err).Required()
	gt.N(t, len(msg.Text())).Greater(0)
}
