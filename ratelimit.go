package smolagent

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

type rateLimitedModel struct {
	Model
	limiter *rate.Limiter
}

type rateLimitedStreamModel struct {
	rateLimitedModel
	stream StreamModel
}

// NewRateLimitedModel wraps model so that at most requestsPerMinute calls are made per minute. The result
// implements StreamModel when model does. A non-positive rate returns model unchanged.
func NewRateLimitedModel(model Model, requestsPerMinute int) Model {
	if requestsPerMinute <= 0 {
		return model
	}

	base := rateLimitedModel{
		Model:   model,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
	if sm, ok := model.(StreamModel); ok {
		return &rateLimitedStreamModel{rateLimitedModel: base, stream: sm}
	}
	return &base
}

func (x *rateLimitedModel) wait(ctx context.Context) error {
	if err := x.limiter.Wait(ctx); err != nil {
		return goerr.Wrap(err, "rate limit wait interrupted")
	}
	return nil
}

func (x *rateLimitedModel) Generate(ctx context.Context, req *GenerateRequest) (*ChatMessage, error) {
	if err := x.wait(ctx); err != nil {
		return nil, err
	}
	return x.Model.Generate(ctx, req)
}

// ID returns the wrapped model's name.
func (x *rateLimitedModel) ID() string {
	return modelID(x.Model)
}

func (x *rateLimitedStreamModel) GenerateStream(ctx context.Context, req *GenerateRequest) (<-chan *StreamDelta, error) {
	if err := x.wait(ctx); err != nil {
		return nil, err
	}
	return x.stream.GenerateStream(ctx, req)
}
