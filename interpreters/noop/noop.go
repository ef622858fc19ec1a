package noop

import (
	"context"
	"log"

	"github.com/Comcast/estructura/core"
)

// Interpreter is a core.Interpreter that ignores the source.  Its
// functions return nil, and its Predicates never match.
//
// Useful for checking the structure of a library without running
// any of its code.
type Interpreter struct {
	// Silent, if false, will log a warning for each compilation.
	Silent bool
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) CompileFunc(ctx context.Context, src interface{}) (core.Func, error) {
	if !i.Silent {
		log.Printf("warning: using noop Interpreter for a function")
	}
	return func(args ...interface{}) (interface{}, error) {
		return nil, nil
	}, nil
}

func (i *Interpreter) CompilePredicate(ctx context.Context, src interface{}) (core.Predicate, error) {
	if !i.Silent {
		log.Printf("warning: using noop Interpreter for a predicate")
	}
	return func(x interface{}, current string, ts *core.TypeList) (interface{}, error) {
		return false, nil
	}, nil
}
