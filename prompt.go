package smolagent

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

//go:embed templates/toolcalling_agent.yaml
var defaultPromptTemplatesYAML []byte

// PromptTemplates is the set of templates used by the agent. Templates use text/template syntax with the fields of
// PromptData.
type PromptTemplates struct {
	SystemPrompt string                     `yaml:"system_prompt"`
	Planning     PlanningPromptTemplate     `yaml:"planning"`
	ManagedAgent ManagedAgentPromptTemplate `yaml:"managed_agent"`
	FinalAnswer  FinalAnswerPromptTemplate  `yaml:"final_answer"`
}

type PlanningPromptTemplate struct {
	InitialPlan            string `yaml:"initial_plan"`
	UpdatePlanPreMessages  string `yaml:"update_plan_pre_messages"`
	UpdatePlanPostMessages string `yaml:"update_plan_post_messages"`
}

type ManagedAgentPromptTemplate struct {
	Task   string `yaml:"task"`
	Report string `yaml:"report"`
}

type FinalAnswerPromptTemplate struct {
	PreMessages  string `yaml:"pre_messages"`
	PostMessages string `yaml:"post_messages"`
}

// PromptData is the data available to prompt templates.
type PromptData struct {
	Task               string
	Tools              []ToolSpec
	ManagedAgents      []ToolSpec
	CustomInstructions string
	RemainingSteps     int
	Name               string
	FinalAnswer        string
}

// DefaultPromptTemplates returns the built-in templates of the tool calling agent.
func DefaultPromptTemplates() *PromptTemplates {
	tmpl, err := ParsePromptTemplates(defaultPromptTemplatesYAML)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// LoadPromptTemplates reads templates from a YAML document.
func LoadPromptTemplates(r io.Reader) (*PromptTemplates, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read prompt templates")
	}
	return ParsePromptTemplates(raw)
}

// ParsePromptTemplates decodes and validates templates from YAML.
func ParsePromptTemplates(raw []byte) (*PromptTemplates, error) {
	var tmpl PromptTemplates
	if err := yaml.Unmarshal(raw, &tmpl); err != nil {
		return nil, goerr.Wrap(ErrInvalidPromptTemplate, "failed to decode YAML", goerr.V("cause", err.Error()))
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (x *PromptTemplates) entries() []struct{ key, text string } {
	return []struct{ key, text string }{
		{"system_prompt", x.SystemPrompt},
		{"planning.initial_plan", x.Planning.InitialPlan},
		{"planning.update_plan_pre_messages", x.Planning.UpdatePlanPreMessages},
		{"planning.update_plan_post_messages", x.Planning.UpdatePlanPostMessages},
		{"managed_agent.task", x.ManagedAgent.Task},
		{"managed_agent.report", x.ManagedAgent.Report},
		{"final_answer.pre_messages", x.FinalAnswer.PreMessages},
		{"final_answer.post_messages", x.FinalAnswer.PostMessages},
	}
}

// Validate reports a missing or unparsable template.
func (x *PromptTemplates) Validate() error {
	for _, e := range x.entries() {
		if strings.TrimSpace(e.text) == "" {
			return goerr.Wrap(ErrInvalidPromptTemplate, "missing required key", goerr.V("key", e.key))
		}
		if _, err := newPromptTemplate(e.key, e.text); err != nil {
			return goerr.Wrap(ErrInvalidPromptTemplate, "failed to parse template", goerr.V("key", e.key), goerr.V("cause", err.Error()))
		}
	}
	return nil
}

var promptFuncs = template.FuncMap{
	"toolCallingPrompt": toolCallingPrompt,
}

func newPromptTemplate(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(promptFuncs).Option("missingkey=zero").Parse(text)
}

func renderPrompt(name, text string, data PromptData) (string, error) {
	tmpl, err := newPromptTemplate(name, text)
	if err != nil {
		return "", goerr.Wrap(ErrInvalidPromptTemplate, "failed to parse template", goerr.V("key", name), goerr.V("cause", err.Error()))
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", goerr.Wrap(err, "failed to render template", goerr.V("key", name))
	}
	return b.String(), nil
}

// toolCallingPrompt renders one catalog line describing a tool to the model.
func toolCallingPrompt(spec ToolSpec) string {
	inputs := map[string]map[string]any{}
	for _, name := range spec.ParameterNames() {
		p := spec.Parameters[name]
		entry := map[string]any{"type": p.typeLabel(), "description": p.Description}
		if p.Nullable {
			entry["nullable"] = true
		}
		inputs[name] = entry
	}
	rawInputs, _ := json.Marshal(inputs)
	rawOutput, _ := json.Marshal(spec.OutputType)

	return fmt.Sprintf("%s: %s\n    Takes inputs: %s\n    Returns an output of type: %s", spec.Name, spec.Description, rawInputs, rawOutput)
}
