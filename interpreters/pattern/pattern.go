// Package pattern is a core.Interpreter whose sources are patterns
// for the match package rather than code.
//
// A subtype defined by a pattern holds for values that the pattern
// matches.  For example, in a library:
//
//	subtypes:
//	  Object:
//	    Person:
//	      interpreter: match
//	      source: {name: "?", age: "?"}
//
// A function defined by a pattern returns the first set of bindings
// (or null).
package pattern

import (
	"context"
	"errors"

	"github.com/Comcast/estructura/core"
	"github.com/Comcast/estructura/match"
)

var ErrNoPattern = errors.New("no pattern")

// Interpreter compiles patterns.
//
// A source is either the pattern itself or a map with a "pattern"
// and (optionally) initial "bindings".  Use the map form when the
// pattern is itself a map with a "pattern" property.
type Interpreter struct {
	Matcher *match.Matcher
}

func NewInterpreter() *Interpreter {
	return &Interpreter{
		Matcher: match.DefaultMatcher,
	}
}

func (i *Interpreter) parse(src interface{}) (interface{}, match.Bindings, error) {
	if src == nil {
		return nil, nil, ErrNoPattern
	}
	src = match.Normalize(src)
	m, is := src.(map[string]interface{})
	if !is {
		return src, nil, nil
	}
	p, have := m["pattern"]
	if !have {
		return src, nil, nil
	}
	bs := match.Bindings{}
	switch vv := m["bindings"].(type) {
	case nil:
	case map[string]interface{}:
		for k, v := range vv {
			bs[k] = v
		}
	default:
		return nil, nil, errors.New(`"bindings" should be a map`)
	}
	return p, bs, nil
}

// CompilePredicate makes a Predicate that returns true when the
// pattern matches the value.
func (i *Interpreter) CompilePredicate(ctx context.Context, src interface{}) (core.Predicate, error) {
	p, bs, err := i.parse(src)
	if err != nil {
		return nil, err
	}
	return func(x interface{}, current string, types *core.TypeList) (interface{}, error) {
		bss, err := i.Matcher.Match(p, x, bs)
		if err != nil {
			return nil, err
		}
		return 0 < len(bss), nil
	}, nil
}

// CompileFunc makes a Func that matches the pattern against its
// argument, or against the list of its arguments if there is more
// than one.  The Func returns the first match.Bindings or nil.
func (i *Interpreter) CompileFunc(ctx context.Context, src interface{}) (core.Func, error) {
	p, bs, err := i.parse(src)
	if err != nil {
		return nil, err
	}
	return func(args ...interface{}) (interface{}, error) {
		var x interface{} = args
		if len(args) == 1 {
			x = args[0]
		}
		bss, err := i.Matcher.Match(p, x, bs)
		if err != nil || len(bss) == 0 {
			return nil, err
		}
		return bss[0], nil
	}, nil
}
