package smolagent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent/trace"
)

// lazyTool runs the one-time setup of a tool before its first call.
type lazyTool struct {
	Tool
	once sync.Once
	err  error
}

func (x *lazyTool) setup(ctx context.Context) error {
	x.once.Do(func() {
		if s, ok := x.Tool.(Setupper); ok {
			if err := s.Setup(ctx); err != nil {
				x.err = goerr.Wrap(err, "failed to set up tool", goerr.V("tool", x.Spec().Name))
			}
		}
	})
	return x.err
}

func (x *lazyTool) call(ctx context.Context, args any) (any, error) {
	if err := x.setup(ctx); err != nil {
		return nil, err
	}
	return x.Run(ctx, args)
}

type toolEntry struct {
	spec    ToolSpec
	managed bool
	call    func(ctx context.Context, args any) (any, error)
}

// toolCatalog is the set of callables of one run, keyed by name.
type toolCatalog struct {
	entries       map[string]*toolEntry
	tools         []ToolSpec
	managedAgents []ToolSpec

	// reserved holds names that no callable may take but that are not callable themselves, such as the agent's
	// own name.
	reserved map[string]struct{}
}

func (c *toolCatalog) add(entry *toolEntry) error {
	name := entry.spec.Name
	_, taken := c.entries[name]
	if _, ok := c.reserved[name]; ok {
		taken = true
	}
	if taken {
		return goerr.Wrap(ErrToolNameConflict,
			"Each tool or managed agent should have a unique name! You passed these duplicate names: "+name,
			goerr.V("name", name))
	}
	c.entries[name] = entry
	if entry.managed {
		c.managedAgents = append(c.managedAgents, entry.spec)
	} else {
		c.tools = append(c.tools, entry.spec)
	}
	return nil
}

func (c *toolCatalog) lookup(name string) (*toolEntry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// specs returns tools followed by managed agents, each sorted by name.
func (c *toolCatalog) specs() []ToolSpec {
	out := make([]ToolSpec, 0, len(c.tools)+len(c.managedAgents))
	out = append(out, c.tools...)
	out = append(out, c.managedAgents...)
	return out
}

func (c *toolCatalog) names() []string {
	return sortedKeys(c.entries)
}

func (c *toolCatalog) sort() {
	byName := func(s []ToolSpec) {
		sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
	}
	byName(c.tools)
	byName(c.managedAgents)
}

// buildCatalog resolves tools, tool sets and managed agents into the catalog of a run.
func (a *Agent) buildCatalog(ctx context.Context) (*toolCatalog, error) {
	catalog := &toolCatalog{entries: map[string]*toolEntry{}, reserved: map[string]struct{}{}}
	if a.name != "" {
		catalog.reserved[a.name] = struct{}{}
	}

	for _, tool := range a.tools {
		if err := catalog.add(&toolEntry{spec: tool.Spec(), call: tool.call}); err != nil {
			return nil, err
		}
	}

	for _, toolSet := range a.toolSets {
		specs, err := toolSet.Specs(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get tool specs from tool set")
		}
		for _, spec := range specs {
			if err := spec.Validate(); err != nil {
				return nil, err
			}
			name := spec.Name
			entry := &toolEntry{
				spec: spec,
				call: func(ctx context.Context, args any) (any, error) {
					return toolSet.Run(ctx, name, args)
				},
			}
			if err := catalog.add(entry); err != nil {
				return nil, err
			}
		}
	}

	for _, agent := range a.managedAgents {
		if err := catalog.add(managedAgentEntry(agent)); err != nil {
			return nil, err
		}
	}

	catalog.sort()
	return catalog, nil
}

func managedAgentEntry(agent ManagedAgent) *toolEntry {
	spec := ToolSpec{
		Name:        agent.Name(),
		Description: agent.Description(),
		Parameters:  agent.Inputs(),
		OutputType:  agent.OutputType(),
	}

	return &toolEntry{
		spec:    spec,
		managed: true,
		call: func(ctx context.Context, args any) (any, error) {
			var task string
			var additional map[string]any
			switch v := args.(type) {
			case map[string]any:
				task, _ = v["task"].(string)
				additional, _ = v["additional_args"].(map[string]any)
			case string:
				task = v
			default:
				task = fmt.Sprint(v)
			}

			handler := trace.HandlerFrom(ctx)
			if handler != nil {
				ctx = handler.StartManagedAgent(ctx, agent.Name())
			}
			result, err := agent.CallAgent(ctx, task, additional)
			if handler != nil {
				handler.EndManagedAgent(ctx, err)
			}
			return result, err
		},
	}
}

// toolCallSummary is the line recorded in the model output for one executed call.
func toolCallSummary(call ToolCall) string {
	return fmt.Sprintf("Tool call %s: calling '%s' with arguments: %s\n", call.ID, call.Name, stringify(call.Arguments))
}

func unknownToolMessage(name string, catalog *toolCatalog) string {
	return fmt.Sprintf("Unknown tool %s, should be one of: %s.", name, strings.Join(catalog.names(), ", "))
}
