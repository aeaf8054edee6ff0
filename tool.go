package smolagent

import (
	"bytes"
	"context"
	"encoding/json"
	"go/token"
	"slices"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ParameterType is the type of a tool input or output.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeBoolean ParameterType = "boolean"
	TypeInteger ParameterType = "integer"
	TypeNumber  ParameterType = "number"
	TypeImage   ParameterType = "image"
	TypeAudio   ParameterType = "audio"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
	TypeAny     ParameterType = "any"
	TypeNull    ParameterType = "null"
)

// AuthorizedTypes is the set of types a tool may declare for its inputs and output.
var AuthorizedTypes = []ParameterType{
	TypeString, TypeBoolean, TypeInteger, TypeNumber, TypeImage,
	TypeAudio, TypeArray, TypeObject, TypeAny, TypeNull,
}

// Valid reports whether the type is one of AuthorizedTypes.
func (t ParameterType) Valid() bool {
	return slices.Contains(AuthorizedTypes, t)
}

// Parameter is one named input of a tool.
type Parameter struct {
	// Type is the single type of the input. Ignored when Types is set.
	Type ParameterType

	// Types declares a union of accepted types, e.g. [string, integer].
	Types []ParameterType

	// Description explains the input to the model. Required.
	Description string

	// Nullable inputs may be omitted or passed as null.
	Nullable bool

	// Enum restricts string inputs to a set of values.
	Enum []string

	// Items describes array elements.
	Items *Parameter
}

// AllowedTypes returns the declared types of the parameter.
func (p *Parameter) AllowedTypes() []ParameterType {
	if len(p.Types) > 0 {
		return p.Types
	}
	if p.Type == "" {
		return nil
	}
	return []ParameterType{p.Type}
}

// Validate validates the parameter.
func (p *Parameter) Validate() error {
	eb := goerr.NewBuilder(goerr.V("parameter", p))

	types := p.AllowedTypes()
	if len(types) == 0 {
		return eb.Wrap(ErrInvalidParameter, "type is required")
	}
	for _, t := range types {
		if !t.Valid() {
			return eb.Wrap(ErrInvalidParameter, "type is not authorized", goerr.V("type", t), goerr.V("authorized", AuthorizedTypes))
		}
	}
	if p.Description == "" {
		return eb.Wrap(ErrInvalidParameter, "description is required")
	}
	if p.Items != nil {
		items := *p.Items
		if items.Description == "" {
			items.Description = p.Description
		}
		if err := items.Validate(); err != nil {
			return eb.Wrap(err, "invalid items")
		}
	}

	return nil
}

func (p *Parameter) typeLabel() string {
	types := p.AllowedTypes()
	if len(types) == 1 {
		return string(types[0])
	}
	raw, _ := json.Marshal(types)
	return string(raw)
}

// ToolSpec is the specification of a tool.
type ToolSpec struct {
	// Name must be a valid identifier and unique among tools, managed agents and the agent itself.
	Name string

	// Description tells the model what the tool does.
	Description string

	// Parameters maps input names to their specification.
	Parameters map[string]*Parameter

	// OutputType is the type of the value returned by the tool.
	OutputType ParameterType
}

// Validate validates the tool specification. The parameter schema is compiled as JSON Schema so that a
// malformed tool never reaches the agent loop.
func (s *ToolSpec) Validate() error {
	eb := goerr.NewBuilder(goerr.V("tool", s.Name))

	if !token.IsIdentifier(s.Name) {
		return eb.Wrap(ErrInvalidTool, "name must be a valid identifier and not a reserved keyword")
	}
	if s.Parameters == nil {
		return eb.Wrap(ErrInvalidTool, "parameters must be a mapping")
	}
	for name, param := range s.Parameters {
		if param == nil {
			return eb.Wrap(ErrInvalidTool, "parameter is nil", goerr.V("parameter", name))
		}
		if err := param.Validate(); err != nil {
			return eb.Wrap(ErrInvalidTool, "invalid parameter", goerr.V("parameter", name), goerr.V("cause", err.Error()))
		}
	}
	if !s.OutputType.Valid() {
		return eb.Wrap(ErrInvalidTool, "output type is not authorized", goerr.V("output_type", s.OutputType))
	}

	if _, err := compileJSONSchema(s.Name+".json", s.ParametersSchema()); err != nil {
		return eb.Wrap(ErrInvalidTool, "parameters are not a valid JSON schema", goerr.V("cause", err.Error()))
	}

	return nil
}

// ParameterNames returns the input names in sorted order.
func (s *ToolSpec) ParameterNames() []string {
	names := make([]string, 0, len(s.Parameters))
	for name := range s.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParametersSchema returns the JSON schema object describing the tool inputs.
func (s *ToolSpec) ParametersSchema() map[string]any {
	properties := map[string]any{}
	required := []string{}
	for _, name := range s.ParameterNames() {
		param := s.Parameters[name]
		properties[name] = parameterSchema(param)
		if !param.Nullable {
			required = append(required, name)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// FunctionSchema returns the tool in the function-calling form accepted by chat completion APIs.
func (s *ToolSpec) FunctionSchema() map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        s.Name,
			"description": s.Description,
			"parameters":  s.ParametersSchema(),
		},
	}
}

// schemaType maps tool types to JSON schema types. Types without a JSON schema counterpart are sent as strings.
func schemaType(t ParameterType) string {
	switch t {
	case TypeAny, TypeImage, TypeAudio:
		return string(TypeString)
	default:
		return string(t)
	}
}

func parameterSchema(p *Parameter) map[string]any {
	schema := map[string]any{
		"description": p.Description,
	}

	types := p.AllowedTypes()
	if len(types) == 1 {
		schema["type"] = schemaType(types[0])
	} else {
		var mapped []string
		for _, t := range types {
			if st := schemaType(t); !slices.Contains(mapped, st) {
				mapped = append(mapped, st)
			}
		}
		schema["type"] = mapped
	}

	if p.Nullable {
		schema["nullable"] = true
	}
	if len(p.Enum) > 0 {
		schema["enum"] = p.Enum
	}
	if p.Items != nil {
		schema["items"] = parameterSchema(p.Items)
	}
	return schema
}

func compileJSONSchema(name string, schema any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal schema")
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode schema")
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to add schema resource")
	}
	compiled, err := c.Compile(name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compile schema")
	}
	return compiled, nil
}

// Tool is a named callable that the model can invoke.
type Tool interface {
	// Spec returns the specification of the tool.
	Spec() ToolSpec

	// Run executes the tool. args is either a named-argument object (map[string]any) or a single positional value.
	// A returned error is reported to the model as an observation; it does not abort the run.
	Run(ctx context.Context, args any) (any, error)
}

// Setupper is implemented by tools that need one-time initialization. Setup is called lazily before the first Run.
type Setupper interface {
	Setup(ctx context.Context) error
}

// ToolSet is a group of tools resolved when a run starts, e.g. the tools of an MCP server.
type ToolSet interface {
	// Specs returns the specifications of the tools.
	Specs(ctx context.Context) ([]ToolSpec, error)

	// Run executes the tool identified by name.
	Run(ctx context.Context, name string, args any) (any, error)
}

// ToolFunc is the execution body of a tool built with NewTool.
type ToolFunc func(ctx context.Context, args any) (any, error)

type funcTool struct {
	spec  ToolSpec
	run   ToolFunc
	setup func(ctx context.Context) error
}

func (x *funcTool) Spec() ToolSpec {
	return x.spec
}

func (x *funcTool) Run(ctx context.Context, args any) (any, error) {
	return x.run(ctx, args)
}

func (x *funcTool) Setup(ctx context.Context) error {
	if x.setup == nil {
		return nil
	}
	return x.setup(ctx)
}

// ToolOption configures a tool built with NewTool.
type ToolOption func(*funcTool)

// WithToolSetup sets a one-time initializer that runs before the first call of the tool.
func WithToolSetup(setup func(ctx context.Context) error) ToolOption {
	return func(x *funcTool) {
		x.setup = setup
	}
}

// NewTool builds a Tool from a specification and a function. The specification is validated immediately.
func NewTool(spec ToolSpec, run ToolFunc, options ...ToolOption) (Tool, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if run == nil {
		return nil, goerr.Wrap(ErrInvalidTool, "run function is required", goerr.V("tool", spec.Name))
	}

	tool := &funcTool{spec: spec, run: run}
	for _, opt := range options {
		opt(tool)
	}
	return tool, nil
}
