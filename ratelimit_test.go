package smolagent_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smolagent"
	"github.com/m-mizutani/smolagent/mock"
)

type namedModel struct {
	*mock.ModelMock
}

func (namedModel) ID() string { return "gpt-4o" }

func TestNewRateLimitedModel(t *testing.T) {
	reply := smolagent.NewTextMessage(smolagent.RoleAssistant, "hi")

	t.Run("non-positive rate returns the model", func(t *testing.T) {
		model := &mock.ModelMock{}
		gt.Equal(t, smolagent.NewRateLimitedModel(model, 0), smolagent.Model(model))
	})

	t.Run("generate passes through", func(t *testing.T) {
		model := &mock.ModelMock{
			GenerateFunc: func(ctx context.Context, req *smolagent.GenerateRequest) (*smolagent.ChatMessage, error) {
				return &reply, nil
			},
		}
		limited := smolagent.NewRateLimitedModel(model, 600)

		msg, err := limited.Generate(context.Background(), &smolagent.GenerateRequest{})
		gt.NoError(t, err).Required()
		gt.Equal(t, msg.Text(), "hi")
		gt.A(t, model.GenerateCalls()).Length(1)

		_, isStream := limited.(smolagent.StreamModel)
		gt.False(t, isStream)
	})

	t.Run("streaming is preserved", func(t *testing.T) {
		model := &mock.StreamModelMock{
			GenerateStreamFunc: func(ctx context.Context, req *smolagent.GenerateRequest) (<-chan *smolagent.StreamDelta, error) {
				ch := make(chan *smolagent.StreamDelta, 1)
				ch <- &smolagent.StreamDelta{Content: "hi"}
				close(ch)
				return ch, nil
			},
		}
		limited := smolagent.NewRateLimitedModel(model, 600)

		sm, ok := limited.(smolagent.StreamModel)
		gt.True(t, ok)
		if !ok {
			return
		}
		ch, err := sm.GenerateStream(context.Background(), &smolagent.GenerateRequest{})
		gt.NoError(t, err).Required()
		var deltas []*smolagent.StreamDelta
		for d := range ch {
			deltas = append(deltas, d)
		}
		gt.A(t, deltas).Length(1)
	})

	t.Run("model id is forwarded", func(t *testing.T) {
		limited := smolagent.NewRateLimitedModel(namedModel{ModelMock: &mock.ModelMock{}}, 60)
		idModel, ok := limited.(interface{ ID() string })
		gt.True(t, ok)
		if ok {
			gt.Equal(t, idModel.ID(), "gpt-4o")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		model := &mock.ModelMock{
			GenerateFunc: func(ctx context.Context, req *smolagent.GenerateRequest) (*smolagent.ChatMessage, error) {
				return &reply, nil
			},
		}
		limited := smolagent.NewRateLimitedModel(model, 1)

		_, err := limited.Generate(context.Background(), &smolagent.GenerateRequest{})
		gt.NoError(t, err).Required()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = limited.Generate(ctx, &smolagent.GenerateRequest{})
		gt.Error(t, err)
		gt.A(t, model.GenerateCalls()).Length(1)
	})
}
