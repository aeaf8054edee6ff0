package smolagent

import (
	"context"
	"time"

	"github.com/m-mizutani/smolagent/trace"
)

var planningStopSequences = []string{"<end_plan>"}

func (r *run) runPlanningStep(ctx context.Context) error {
	handler := trace.HandlerFrom(ctx)
	if handler != nil {
		ctx = handler.StartStep(ctx, trace.SpanKindPlanningStep, r.stepNumber)
	}

	step, err := r.planningStep(ctx)
	if err != nil {
		if handler != nil {
			handler.EndStep(ctx, &trace.StepData{Number: r.stepNumber}, err)
		}
		return err
	}

	cbErr := r.finalizeStep(ctx, step)
	if handler != nil {
		data := &trace.StepData{Number: r.stepNumber, Plan: step.Plan}
		if step.TokenUsage != nil {
			data.InputTokens = step.TokenUsage.InputTokens
			data.OutputTokens = step.TokenUsage.OutputTokens
		}
		handler.EndStep(ctx, data, cbErr)
	}

	r.agent.memory.Append(step)
	if err := r.send(ctx, &Event{Type: EventPlanningStep, Step: step}); err != nil {
		return err
	}
	return cbErr
}

// planningStep writes the initial plan when only the task is in memory, and an updated plan otherwise.
func (r *run) planningStep(ctx context.Context) (*PlanningStep, error) {
	a := r.agent
	logger := LoggerFromContext(ctx)
	tmpl := a.promptTemplates.Planning
	start := time.Now()

	data := PromptData{
		Task:          r.task,
		Tools:         r.catalog.tools,
		ManagedAgents: r.catalog.managedAgents,
	}

	initial := len(a.memory.Steps()) == 1
	var input []ChatMessage
	if initial {
		text, err := renderPrompt("planning.initial_plan", tmpl.InitialPlan, data)
		if err != nil {
			return nil, err
		}
		input = []ChatMessage{NewTextMessage(RoleUser, text)}
	} else {
		pre, err := renderPrompt("planning.update_plan_pre_messages", tmpl.UpdatePlanPreMessages, data)
		if err != nil {
			return nil, err
		}
		data.RemainingSteps = r.maxSteps - r.stepNumber
		post, err := renderPrompt("planning.update_plan_post_messages", tmpl.UpdatePlanPostMessages, data)
		if err != nil {
			return nil, err
		}
		input = append(input, NewTextMessage(RoleSystem, pre))
		input = append(input, a.memory.ToMessages(true)...)
		input = append(input, NewTextMessage(RoleUser, post))
	}

	msg, err := r.generate(ctx, &GenerateRequest{Messages: input, StopSequences: planningStopSequences}, true)
	if err != nil {
		return nil, newAgentError(ctx, ErrGeneration, "Error while generating plan:\n"+err.Error(), err)
	}
	content := msg.Text()

	var plan string
	if initial {
		plan = "Here are the facts I know and the plan of action that I will follow to solve the task:\n```\n" + content + "\n```"
		logger.Info("Initial plan", "plan", plan)
	} else {
		plan = "I still need to solve the task I was given:\n```\n" + r.task + "\n```\n\n" +
			"Here are the facts I know and my new/updated plan of action to solve the task:\n```\n" + content + "\n```"
		logger.Info("Updated plan", "plan", plan)
	}

	output := NewTextMessage(RoleAssistant, content)
	return &PlanningStep{
		InputMessages: input,
		OutputMessage: &output,
		Plan:          plan,
		Timing:        NewTiming(start),
		TokenUsage:    msg.TokenUsage,
	}, nil
}
