package agent

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Outcome is the structured result of executing a command. Exactly one of
// the conventional keys carries the verdict: "result" for success, "note"
// for a no-op, "error" for an expected domain failure.
type Outcome map[string]any

// YAML renders the outcome for display and for the action history.
func (o Outcome) YAML() string {
	data, err := yaml.Marshal(map[string]any(o))
	if err != nil {
		return fmt.Sprintf("error: unrenderable outcome: %v", err)
	}
	return strings.TrimSpace(string(data))
}

// errorOutcome builds the conventional domain-failure outcome.
func errorOutcome(format string, args ...any) Outcome {
	return Outcome{"error": fmt.Sprintf(format, args...)}
}

// Command is one decoded, ready-to-execute action. The set of
// implementations is closed; Specs enumerates all of them.
type Command interface {
	// Name is the registry key the command was decoded from.
	Name() string
	// Execute performs the side effect. Expected domain failures come
	// back inside the outcome, never as a panic or error.
	Execute(ctx context.Context, env *Env) Outcome
}

// Spec describes one command to the registry and to the prompt: its name,
// ordered parameter names, a one-line description, an availability
// predicate, and the decode rule.
type Spec struct {
	Name        string
	Params      []string
	Description string
	Available   func(ctx context.Context, env *Env) bool
	Decode      func(args []string) (Command, error)
}

// Signature renders "name(param, param)" for prompts and errors.
func (s Spec) Signature() string {
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(s.Params, ", "))
}

// UnknownCommandError reports a decision naming a command that does not
// exist.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %s", e.Name)
}

// ArityError reports a parameter count mismatch.
type ArityError struct {
	Name string
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s requires %d arguments, got %d", e.Name, e.Want, e.Got)
}

// Registry is the fixed catalogue of commands, in declaration order.
type Registry struct {
	specs  []Spec
	byName map[string]int
}

// NewRegistry builds a registry from a static spec list. A duplicate name
// is a configuration error, not a silent overwrite.
func NewRegistry(specs []Spec) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(specs))}
	for _, s := range specs {
		if _, exists := r.byName[s.Name]; exists {
			return nil, fmt.Errorf("duplicate command registration: %s", s.Name)
		}
		r.byName[s.Name] = len(r.specs)
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// Decode validates a decision's command name and arity and constructs the
// typed command. Nothing is constructed on mismatch.
func (r *Registry) Decode(name string, args []string) (Command, error) {
	i, ok := r.byName[name]
	if !ok {
		return nil, &UnknownCommandError{Name: name}
	}
	s := r.specs[i]
	if len(args) != len(s.Params) {
		return nil, &ArityError{Name: name, Want: len(s.Params), Got: len(args)}
	}
	return s.Decode(args)
}

// Spec looks a descriptor up by name.
func (r *Registry) Spec(name string) (Spec, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// ListAvailable returns, in declaration order, every command whose
// availability predicate holds for the current environment. This is the
// menu shown to the provider.
func (r *Registry) ListAvailable(ctx context.Context, env *Env) []Spec {
	var out []Spec
	for _, s := range r.specs {
		if s.Available == nil || s.Available(ctx, env) {
			out = append(out, s)
		}
	}
	return out
}
