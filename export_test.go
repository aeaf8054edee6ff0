package smolagent

var (
	Stringify             = stringify
	ValueType             = valueType
	HandleAgentOutputType = handleAgentOutputTypes
	ToolCallSummary       = toolCallSummary
	ToolCallingPrompt     = toolCallingPrompt
	RenderPrompt          = renderPrompt
	CtxWithLogger         = ctxWithLogger
)

// SubstituteState exposes the argument substitution of State.
func SubstituteState(s *State, args any) any {
	return s.substitute(args)
}
