package smolagent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent/trace"
	"golang.org/x/sync/errgroup"
)

var actionStopSequences = []string{"Observation:", "Calling tools:"}

// actionStep asks the model for tool calls, executes them and records the outcome on step.
func (r *run) actionStep(ctx context.Context, step *ActionStep) (*ActionOutput, error) {
	a := r.agent
	logger := LoggerFromContext(ctx)

	input := a.memory.ToMessages(false)
	step.InputMessages = input

	msg, err := r.generate(ctx, &GenerateRequest{
		Messages:      input,
		StopSequences: actionStopSequences,
		Tools:         r.catalog.specs(),
	}, true)
	if err != nil {
		return nil, newAgentError(ctx, ErrGeneration, "Error while generating output:\n"+err.Error(), err)
	}
	step.OutputMessage = msg
	step.OutputText = msg.Text()
	step.TokenUsage = msg.TokenUsage
	logger.Debug("Output message of the LLM", "content", step.OutputText, "tool_calls", msg.ToolCalls)

	if len(msg.ToolCalls) == 0 {
		parsed, err := a.model.ParseToolCalls(msg)
		if err != nil {
			return nil, newAgentError(ctx, ErrParsing, "Error while parsing tool call from model output: "+err.Error(), err)
		}
		msg = parsed
		step.OutputMessage = msg
	}

	calls := make([]ToolCall, len(msg.ToolCalls))
	for i, call := range msg.ToolCalls {
		call.Arguments = ParseJSONIfNeeded(call.Arguments)
		if call.ID == "" {
			call.ID = uuid.New().String()
		}
		calls[i] = call
	}
	msg.ToolCalls = calls

	outputs, batchErr := r.processToolCalls(ctx, step, calls)
	if batchErr != nil {
		return nil, batchErr
	}

	var finals []*ToolOutput
	for _, out := range outputs {
		if out.IsFinalAnswer {
			finals = append(finals, out)
		}
	}
	if len(finals) > 1 {
		return nil, newAgentError(ctx, ErrToolExecution, "You returned multiple final answers. Please return only one single final answer!", nil)
	}

	result := &ActionOutput{}
	if len(finals) == 1 {
		answer := finals[0].Output
		if key, ok := answer.(string); ok {
			if v, found := a.state.Get(key); found {
				answer = v
			}
		}
		result.Output = answer
		result.IsFinalAnswer = true
	}
	step.ActionOutput = result.Output

	if err := r.send(ctx, &Event{Type: EventActionOutput, ActionOutput: result}); err != nil {
		return nil, err
	}
	return result, nil
}

// processToolCalls executes a batch concurrently. Calls are recorded in the order the model issued them, while
// summaries and observations follow id order. A failing call does not cancel its siblings. Failures are returned
// in id order and their call ids are recorded on the step.
func (r *run) processToolCalls(ctx context.Context, step *ActionStep, calls []ToolCall) ([]*ToolOutput, error) {
	for i := range calls {
		if err := r.send(ctx, &Event{Type: EventToolCall, ToolCall: &calls[i]}); err != nil {
			return nil, err
		}
	}

	outputs := make([]*ToolOutput, len(calls))
	if len(calls) == 1 {
		outputs[0] = r.processSingleToolCall(ctx, calls[0])
	} else {
		var eg errgroup.Group
		if r.agent.maxToolThreads > 0 {
			eg.SetLimit(r.agent.maxToolThreads)
		}
		for i, call := range calls {
			eg.Go(func() error {
				outputs[i] = r.processSingleToolCall(ctx, call)
				return nil
			})
		}
		_ = eg.Wait()
	}

	sorted := make([]*ToolOutput, len(outputs))
	copy(sorted, outputs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	step.ToolCalls = append(step.ToolCalls, calls...)

	var summary, observations strings.Builder
	var failures []*AgentError
	for _, out := range sorted {
		summary.WriteString(toolCallSummary(out.ToolCall))
		if out.Error != nil {
			failures = append(failures, out.Error)
			step.ErrorCallIDs = append(step.ErrorCallIDs, out.ID)
			continue
		}
		observations.WriteString(out.Observation)
		observations.WriteString("\n")
	}

	if step.OutputText != "" && !strings.HasSuffix(step.OutputText, "\n") {
		step.OutputText += "\n"
	}
	step.OutputText += summary.String()
	step.Observations = strings.TrimRight(observations.String(), " \t\r\n")

	for _, out := range sorted {
		if err := r.send(ctx, &Event{Type: EventToolOutput, ToolOutput: out}); err != nil {
			return nil, err
		}
	}

	if len(failures) == 0 {
		return sorted, nil
	}
	if len(failures) == 1 {
		return sorted, failures[0]
	}
	messages := make([]string, len(failures))
	for i, f := range failures {
		messages[i] = f.Error()
	}
	return sorted, &AgentError{kind: failures[0].Kind(), message: strings.Join(messages, "\n"), cause: failures[0]}
}

func (r *run) processSingleToolCall(ctx context.Context, call ToolCall) *ToolOutput {
	logger := LoggerFromContext(ctx)
	logger.Info("Calling tool", "tool_call", call)

	handler := trace.HandlerFrom(ctx)
	if handler != nil {
		ctx = handler.StartToolCall(ctx, &trace.ToolCall{ID: call.ID, Name: call.Name, Arguments: call.Arguments})
	}

	out := &ToolOutput{ID: call.ID, ToolCall: call}
	result, err := r.executeToolCall(ctx, call.Name, call.Arguments)
	if err != nil {
		var agentErr *AgentError
		if !errors.As(err, &agentErr) {
			agentErr = newAgentError(ctx, ErrToolExecution, err.Error(), err)
		}
		out.Error = agentErr
		if handler != nil {
			handler.EndToolCall(ctx, "", agentErr)
		}
		return out
	}

	if img, ok := asImage(result); ok {
		r.agent.state.Set("image", NewAgentImage(img))
		out.Observation = "Stored 'image' in memory."
	} else {
		out.Observation = stringify(result)
	}
	out.Output = result
	out.IsFinalAnswer = call.Name == FinalAnswerToolName

	logger.Info("Observations", "tool", call.Name, "observation", out.Observation)
	if handler != nil {
		handler.EndToolCall(ctx, out.Observation, nil)
	}
	return out
}

// executeToolCall validates the arguments and runs the tool or managed agent. Every failure is an *AgentError.
func (r *run) executeToolCall(ctx context.Context, name string, args any) (any, error) {
	entry, ok := r.catalog.lookup(name)
	if !ok {
		return nil, newAgentError(ctx, ErrToolExecution, unknownToolMessage(name, r.catalog), nil)
	}

	args = r.agent.state.substitute(args)
	if args == nil {
		args = map[string]any{}
	}

	if err := ValidateToolArguments(entry.spec, args); err != nil {
		return nil, newAgentError(ctx, ErrToolCall, err.Error(), err)
	}

	result, err := entry.call(ctx, args)
	if err != nil {
		if entry.managed {
			return nil, newAgentError(ctx, ErrToolExecution,
				fmt.Sprintf("Error executing request to team member '%s' with arguments %s: %s\nPlease try again or request to another team member.", name, stringify(args), err.Error()), err)
		}
		return nil, newAgentError(ctx, ErrToolExecution,
			fmt.Sprintf("Error executing tool '%s' with arguments %s: %s\nPlease try again or use another tool.", name, stringify(args), err.Error()), err)
	}
	return result, nil
}

// generate calls the model, streaming when the agent is configured to and stream is allowed for the call site.
func (r *run) generate(ctx context.Context, req *GenerateRequest, stream bool) (*ChatMessage, error) {
	a := r.agent
	streamed := stream && a.streamOutputs

	handler := trace.HandlerFrom(ctx)
	if handler != nil {
		ctx = handler.StartModelCall(ctx)
	}

	var msg *ChatMessage
	var err error
	if streamed {
		msg, err = r.generateStream(ctx, req)
	} else {
		msg, err = a.model.Generate(ctx, req)
	}
	if err == nil && msg == nil {
		err = goerr.Wrap(ErrInvalidMessage, "model returned no message")
	}

	if handler != nil {
		handler.EndModelCall(ctx, modelCallData(modelID(a.model), req, msg, streamed), err)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *run) generateStream(ctx context.Context, req *GenerateRequest) (*ChatMessage, error) {
	model, ok := r.agent.model.(StreamModel)
	if !ok {
		return nil, goerr.Wrap(ErrStreamNotSupported, "model does not implement GenerateStream")
	}

	ch, err := model.GenerateStream(ctx, req)
	if err != nil {
		return nil, err
	}
	drain := func() {
		go func() {
			for range ch {
			}
		}()
	}

	var deltas []*StreamDelta
	for delta := range ch {
		if delta == nil {
			continue
		}
		if delta.Error != nil {
			drain()
			return nil, delta.Error
		}
		deltas = append(deltas, delta)
		if err := r.send(ctx, &Event{Type: EventStreamDelta, Delta: delta}); err != nil {
			drain()
			return nil, err
		}
	}

	return AgglomerateStreamDeltas(deltas)
}

func modelCallData(id string, req *GenerateRequest, msg *ChatMessage, streamed bool) *trace.ModelCallData {
	data := &trace.ModelCallData{
		Model:    id,
		Streamed: streamed,
		Request:  &trace.ModelRequest{StopSequences: req.StopSequences},
	}
	for _, m := range req.Messages {
		data.Request.Messages = append(data.Request.Messages, trace.Message{Role: string(m.Role), Content: m.Text()})
	}
	for _, spec := range req.Tools {
		data.Request.Tools = append(data.Request.Tools, trace.ToolSpec{Name: spec.Name, Description: spec.Description})
	}

	if msg != nil {
		data.Response = &trace.ModelResponse{Text: msg.Text()}
		for _, call := range msg.ToolCalls {
			data.Response.ToolCalls = append(data.Response.ToolCalls, &trace.ToolCall{ID: call.ID, Name: call.Name, Arguments: call.Arguments})
		}
		if msg.TokenUsage != nil {
			data.InputTokens = msg.TokenUsage.InputTokens
			data.OutputTokens = msg.TokenUsage.OutputTokens
		}
	}
	return data
}
