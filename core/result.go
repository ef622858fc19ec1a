package core

import (
	"encoding/json"
)

// Method is a method attached to a Result.
//
// A Method never fails.  If the underlying Func returns an error or
// panics, the problem is reported, and the Method returns its Result.
type Method func(extra ...interface{}) interface{}

// Result is what Dispatch returns: the methods that were found for
// the dispatched values.
type Result struct {
	ns      *Namespace
	args    []interface{}
	types   []*TypeList
	methods map[string]Method
	funcs   map[string]Func
	order   []string
}

func newResult(ns *Namespace, args []interface{}) *Result {
	return &Result{
		ns:      ns,
		args:    args,
		types:   make([]*TypeList, len(args)),
		methods: make(map[string]Method, 4),
		funcs:   make(map[string]Func, 4),
	}
}

// Types returns the TypeList that Dispatch computed for each value.
//
// Dispatch stops classifying once no candidate nodes remain, so the
// TypeList for a later value can be nil.
func (r *Result) Types() []*TypeList {
	acc := make([]*TypeList, len(r.types))
	copy(acc, r.types)
	return acc
}

// Args returns a copy of the values given to Dispatch.
func (r *Result) Args() []interface{} {
	acc := make([]interface{}, len(r.args))
	copy(acc, r.args)
	return acc
}

// Has reports whether the Result has a method with the given name.
func (r *Result) Has(name string) bool {
	_, have := r.methods[name]
	return have
}

// Method returns the method with the given name.
func (r *Result) Method(name string) (Method, bool) {
	m, have := r.methods[name]
	return m, have
}

// Call invokes the named method.
//
// Returns an UnknownMethod error if there's no such method.  Failures
// inside the method are reported rather than returned.
func (r *Result) Call(name string, extra ...interface{}) (interface{}, error) {
	m, have := r.methods[name]
	if !have {
		return nil, &UnknownMethod{
			Name: name,
		}
	}
	return m(extra...), nil
}

// Invoke is Call, except that a failure inside the method is returned
// as a *MethodFailure (after it's reported) instead of the Result.
func (r *Result) Invoke(name string, extra ...interface{}) (interface{}, error) {
	f, have := r.funcs[name]
	if !have {
		return nil, &UnknownMethod{
			Name: name,
		}
	}
	return r.invoke(name, f, extra)
}

// Names returns the names of the methods in the order they were first
// attached.
func (r *Result) Names() []string {
	acc := make([]string, len(r.order))
	copy(acc, r.order)
	return acc
}

// Len returns the number of methods.
func (r *Result) Len() int {
	return len(r.methods)
}

// MarshalJSON renders the Result as the list of its method names.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"methods": r.Names(),
	})
}

// attach adds (or replaces) a method.
func (r *Result) attach(name string, f Func) {
	if _, have := r.methods[name]; !have {
		r.order = append(r.order, name)
	}
	r.methods[name] = r.adapt(name, f)
	r.funcs[name] = f
}

// invoke calls the Func with the dispatched values (as one
// []interface{}) followed by the caller's arguments.
func (r *Result) invoke(name string, f Func, extra []interface{}) (interface{}, error) {
	args := make([]interface{}, 0, len(extra)+1)
	args = append(args, r.Args())
	args = append(args, extra...)
	y, err := call(f, args)
	if err != nil {
		failure := &MethodFailure{
			Method: name,
			Err:    err,
		}
		r.ns.error(failure)
		return nil, failure
	}
	return y, nil
}

// adapt wraps the Func as a Method that returns the Result on failure.
func (r *Result) adapt(name string, f Func) Method {
	return func(extra ...interface{}) interface{} {
		y, err := r.invoke(name, f, extra)
		if err != nil {
			return r
		}
		return y
	}
}
