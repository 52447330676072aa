package game

import (
	"fmt"
	"sort"
)

// Registry maps game type ids to engines. It is built once at startup and
// never changes afterwards.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry creates a registry holding the given engines
func NewRegistry(engines ...Engine) (*Registry, error) {
	r := &Registry{engines: make(map[string]Engine, len(engines))}
	for _, e := range engines {
		if _, dup := r.engines[e.Type()]; dup {
			return nil, fmt.Errorf("engine %s registered twice", e.Type())
		}
		r.engines[e.Type()] = e
	}
	return r, nil
}

// NewDefaultRegistry registers every built-in engine, taking per-type options
// from opts and prompts from the bank.
func NewDefaultRegistry(opts map[string]Options, bank *PromptBank) (*Registry, error) {
	build := func(gameType string) Options {
		o := opts[gameType]
		if len(o.Prompts) == 0 {
			o.Prompts = bank.For(gameType)
		}
		return o
	}
	return NewRegistry(
		NewBluffTrivia(build(TypeBluffTrivia)),
		NewFibbingIt(build(TypeFibbingIt)),
		NewWordAssociation(build(TypeWordAssociation)),
	)
}

// Get returns the engine for a game type
func (r *Registry) Get(gameType string) (Engine, error) {
	e, ok := r.engines[gameType]
	if !ok {
		return nil, UnknownGameType(gameType)
	}
	return e, nil
}

// Has reports whether a game type is registered
func (r *Registry) Has(gameType string) bool {
	_, ok := r.engines[gameType]
	return ok
}

// Types lists the registered game types in alphabetical order
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.engines))
	for t := range r.engines {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
