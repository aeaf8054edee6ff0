package smolagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// FinalAnswerCheck inspects a final answer. Returning false or an error rejects the answer; the rejection is
// recorded as an error on the step and the run continues.
type FinalAnswerCheck func(ctx context.Context, answer any, memory *Memory) (bool, error)

type namedCheck struct {
	name  string
	check FinalAnswerCheck
}

// WithFinalAnswerChecks adds checks that a final answer must pass. They are named check_1, check_2, ... in
// registration order.
func WithFinalAnswerChecks(checks ...FinalAnswerCheck) Option {
	return func(c *agentConfig) {
		for _, check := range checks {
			name := fmt.Sprintf("check_%d", len(c.finalAnswerChecks)+1)
			c.finalAnswerChecks = append(c.finalAnswerChecks, namedCheck{name: name, check: check})
		}
	}
}

// WithNamedFinalAnswerCheck adds a check reported under name.
func WithNamedFinalAnswerCheck(name string, check FinalAnswerCheck) Option {
	return func(c *agentConfig) {
		c.finalAnswerChecks = append(c.finalAnswerChecks, namedCheck{name: name, check: check})
	}
}

func (x namedCheck) run(ctx context.Context, answer any, memory *Memory) error {
	ok, err := x.check(ctx, answer, memory)
	if err != nil {
		return newAgentError(ctx, ErrAgent, fmt.Sprintf("Check %s failed with error: %s", x.name, err.Error()), err)
	}
	if !ok {
		return newAgentError(ctx, ErrAgent, fmt.Sprintf("Check %s failed with error: Check %s returned false", x.name, x.name), nil)
	}
	return nil
}

// SchemaCheck returns a check that validates the final answer against a JSON schema. The schema is compiled
// immediately.
func SchemaCheck(schema map[string]any) (FinalAnswerCheck, error) {
	compiled, err := compileJSONSchema("final_answer.json", schema)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidParameter, "invalid final answer schema", goerr.V("cause", err.Error()))
	}

	return func(_ context.Context, answer any, _ *Memory) (bool, error) {
		raw, err := json.Marshal(answer)
		if err != nil {
			return false, goerr.Wrap(err, "failed to marshal final answer")
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return false, goerr.Wrap(err, "failed to decode final answer")
		}
		if err := compiled.Validate(doc); err != nil {
			return false, err
		}
		return true, nil
	}, nil
}
