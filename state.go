package smolagent

import (
	"maps"
	"sync"
)

// State is the variable store shared by the steps of a run. Tools may write to it concurrently; writes from
// sibling calls of one batch have no defined order.
type State struct {
	mu   sync.RWMutex
	vars map[string]any
}

// NewState creates an empty state.
func NewState() *State {
	return &State{vars: map[string]any{}}
}

// Get returns the value stored under key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[key]
	return v, ok
}

// Set stores value under key.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[key] = value
}

// Merge stores every entry of vars.
func (s *State) Merge(vars map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.vars, vars)
}

// Keys returns the stored keys in sorted order.
func (s *State) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.vars)
}

// Snapshot returns a copy of the stored variables.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.vars)
}

// substitute replaces every string value of an argument object that names a state key with the stored value.
// Scalar arguments are returned unchanged.
func (s *State) substitute(args any) any {
	obj, ok := args.(map[string]any)
	if !ok {
		return args
	}

	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if str, ok := v.(string); ok {
			if stored, found := s.Get(str); found {
				out[k] = stored
				continue
			}
		}
		out[k] = v
	}
	return out
}
