package otel

import "go.opentelemetry.io/otel/attribute"

// Attribute keys following OpenTelemetry semantic conventions where applicable.
func modelNameAttr(model string) attribute.KeyValue {
	return attribute.String("gen_ai.request.model", model)
}

func inputTokensAttr(tokens int) attribute.KeyValue {
	return attribute.Int("gen_ai.usage.input_tokens", tokens)
}

func outputTokensAttr(tokens int) attribute.KeyValue {
	return attribute.Int("gen_ai.usage.output_tokens", tokens)
}

func taskAttr(task string) attribute.KeyValue {
	return attribute.String("agent.task", task)
}

func runStateAttr(state string) attribute.KeyValue {
	return attribute.String("agent.run.state", state)
}

func stepNumberAttr(n int) attribute.KeyValue {
	return attribute.Int("agent.step.number", n)
}

func finalAnswerAttr(final bool) attribute.KeyValue {
	return attribute.Bool("agent.step.final_answer", final)
}

func toolCallIDAttr(id string) attribute.KeyValue {
	return attribute.String("gen_ai.tool.call.id", id)
}

func toolNameAttr(name string) attribute.KeyValue {
	return attribute.String("gen_ai.tool.name", name)
}

func toolArgsAttr(args string) attribute.KeyValue {
	return attribute.String("tool.args", args)
}

func observationAttr(obs string) attribute.KeyValue {
	return attribute.String("tool.observation", obs)
}

func eventDataAttr(data string) attribute.KeyValue {
	return attribute.String("event.data", data)
}
