package smolagent

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const summaryMessageLimit = 500

// CallAgent runs the agent as a team member of another agent and returns its report.
func (a *Agent) CallAgent(ctx context.Context, task string, additionalArgs map[string]any) (any, error) {
	tmpl := a.promptTemplates.ManagedAgent

	fullTask, err := renderPrompt("managed_agent.task", tmpl.Task, PromptData{Name: a.name, Task: task})
	if err != nil {
		return nil, err
	}

	opts := []RunOption{}
	if len(additionalArgs) > 0 {
		opts = append(opts, WithAdditionalArgs(additionalArgs))
	}
	result, err := a.Run(ctx, fullTask, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "managed agent failed", goerr.V("agent", a.name))
	}

	answer := ""
	if result.Output != nil {
		answer = result.Output.String()
	}
	report, err := renderPrompt("managed_agent.report", tmpl.Report, PromptData{Name: a.name, FinalAnswer: answer})
	if err != nil {
		return nil, err
	}

	if a.provideRunSummary {
		report += a.workSummary()
	}
	return report, nil
}

func (a *Agent) workSummary() string {
	var b strings.Builder
	b.WriteString("\n\nFor more detail, find below a summary of this agent's work:\n<summary_of_work>\n")
	for _, msg := range a.memory.ToMessages(true) {
		content := msg.Text()
		if len(content) > summaryMessageLimit {
			content = content[:summaryMessageLimit] + "..."
		}
		b.WriteString("\n" + content + "\n---")
	}
	b.WriteString("\n</summary_of_work>")
	return b.String()
}
