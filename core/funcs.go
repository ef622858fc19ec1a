package core

import (
	"reflect"
)

// Func is the shape of every handler and method in a dispatch tree.
//
// A handler is called with the values given to Dispatch, spread out.
// A method is called with a []interface{} of those values followed by
// whatever the method's caller provided.
//
// A Func that returns an error (or panics) has failed.  The failure
// is reported and contained.
type Func func(args ...interface{}) (interface{}, error)

// Predicate decides if a value has a subtype.
//
// The second argument is the type that's currently being expanded
// (the base category or a subtype that has its own subtypes), and the
// third argument holds the types found so far.
//
// A Predicate returns a string (the subtype name), true (meaning the
// definition's own name), or something falsy (no match).
type Predicate func(x interface{}, current string, types *TypeList) (interface{}, error)

// AsFunc converts some common function shapes to a Func.
func AsFunc(x interface{}) (Func, bool) {
	switch f := x.(type) {
	case Func:
		return f, f != nil
	case func(...interface{}) (interface{}, error):
		return Func(f), f != nil
	case func(...interface{}) interface{}:
		if f == nil {
			return nil, false
		}
		return func(args ...interface{}) (interface{}, error) {
			return f(args...), nil
		}, true
	case func(...interface{}):
		if f == nil {
			return nil, false
		}
		return func(args ...interface{}) (interface{}, error) {
			f(args...)
			return nil, nil
		}, true
	case func() interface{}:
		if f == nil {
			return nil, false
		}
		return func(args ...interface{}) (interface{}, error) {
			return f(), nil
		}, true
	case func():
		if f == nil {
			return nil, false
		}
		return func(args ...interface{}) (interface{}, error) {
			f()
			return nil, nil
		}, true
	default:
		return nil, false
	}
}

// AsPredicate converts some common function shapes to a Predicate.
func AsPredicate(x interface{}) (Predicate, bool) {
	switch f := x.(type) {
	case Predicate:
		return f, f != nil
	case func(interface{}, string, *TypeList) (interface{}, error):
		return Predicate(f), f != nil
	case func(interface{}) bool:
		if f == nil {
			return nil, false
		}
		return func(x interface{}, _ string, _ *TypeList) (interface{}, error) {
			return f(x), nil
		}, true
	case func(interface{}) string:
		if f == nil {
			return nil, false
		}
		return func(x interface{}, _ string, _ *TypeList) (interface{}, error) {
			return f(x), nil
		}, true
	case func(interface{}) interface{}:
		if f == nil {
			return nil, false
		}
		return func(x interface{}, _ string, _ *TypeList) (interface{}, error) {
			return f(x), nil
		}, true
	default:
		return nil, false
	}
}

// truthy follows the usual scripting notion of truth: nil, false,
// "", zero numbers, and NaN are false.  Everything else is true.
func truthy(x interface{}) bool {
	switch vv := x.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case undefined:
		return false
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return f != 0 && f == f
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return !v.IsNil()
	}
	return true
}

// call invokes the Func and turns a panic into an error.
func call(f Func, args []interface{}) (x interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			x = nil
			err = &Panicked{
				Value: r,
			}
		}
	}()
	return f(args...)
}

// test invokes the Predicate and turns a panic into an error.
func test(p Predicate, x interface{}, current string, types *TypeList) (y interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			y = nil
			err = &Panicked{
				Value: r,
			}
		}
	}()
	return p(x, current, types)
}
