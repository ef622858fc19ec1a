package core

import (
	"context"
	"errors"
)

var (
	// InterpreterNotFound occurs when a source names an
	// interpreter that isn't in the given map of interpreters.
	InterpreterNotFound = errors.New("interpreter not found")

	// DefaultInterpreters will be used by Source.CompileFunc and
	// Source.CompilePredicate when given nil interpreters.
	DefaultInterpreters = NewInterpretersMap()
)

// Interpreter compiles source code into functions that can be
// registered with Fn and Subtype.
type Interpreter interface {
	// CompileFunc makes a handler or method.
	CompileFunc(ctx context.Context, src interface{}) (Func, error)

	// CompilePredicate makes a subtype Predicate.
	CompilePredicate(ctx context.Context, src interface{}) (Predicate, error)
}

// InterpretersMap maps an interpreter name to an Interpreter.
type InterpretersMap map[string]Interpreter

func NewInterpretersMap() InterpretersMap {
	return make(InterpretersMap, 4)
}

// Find returns the named Interpreter or InterpreterNotFound.
func (m InterpretersMap) Find(name string) (Interpreter, error) {
	i, have := m[name]
	if !have {
		return nil, InterpreterNotFound
	}
	return i, nil
}

// Source is code for some Interpreter.
type Source struct {
	Interpreter string      `json:"interpreter,omitempty" yaml:",omitempty"`
	Source      interface{} `json:"source"`
}

// CompileFunc compiles the Source into a Func using the given
// interpreters, which defaults to DefaultInterpreters.
func (s *Source) CompileFunc(ctx context.Context, interpreters InterpretersMap) (Func, error) {
	i, err := s.find(interpreters)
	if err != nil {
		return nil, err
	}
	return i.CompileFunc(ctx, s.Source)
}

// CompilePredicate compiles the Source into a Predicate using the
// given interpreters, which defaults to DefaultInterpreters.
func (s *Source) CompilePredicate(ctx context.Context, interpreters InterpretersMap) (Predicate, error) {
	i, err := s.find(interpreters)
	if err != nil {
		return nil, err
	}
	return i.CompilePredicate(ctx, s.Source)
}

func (s *Source) find(interpreters InterpretersMap) (Interpreter, error) {
	if interpreters == nil {
		interpreters = DefaultInterpreters
	}
	return interpreters.Find(s.Interpreter)
}
