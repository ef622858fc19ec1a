package core

// These errors describe problems with what users registered or
// invoked.  None of them are returned by Dispatch, Fn, or Subtype.
// Instead they are reported as Diagnostics.

import (
	"errors"
	"fmt"
)

// InvalidDefinition occurs when a registered value is neither a
// function nor a mapping (or, for subtypes, a string or list of
// strings).
type InvalidDefinition struct {
	// Path is the dotted path to the offending entry (for
	// example "fn.String.log").
	Path  string
	Value interface{}

	// Allowed describes what would have been acceptable.
	Allowed string
}

func (e *InvalidDefinition) Error() string {
	return fmt.Sprintf(`Invalid definition for "%s" (%T). Only %s are allowed.`, e.Path, e.Value, e.Allowed)
}

// ReservedName occurs when a registration uses a name in the reserved
// set.
type ReservedName struct {
	Name string
	Path string
}

func (e *ReservedName) Error() string {
	if e.Path == "" || e.Path == e.Name {
		return `Name "` + e.Name + `" is a reserved word and cannot be used.`
	}
	return `Name "` + e.Name + `" (at "` + e.Path + `") is a reserved word and cannot be used.`
}

// InvalidAlias occurs when a list of subtype aliases contains
// something other than a non-empty string.
type InvalidAlias struct {
	Subtype string
	Value   interface{}
}

func (e *InvalidAlias) Error() string {
	return fmt.Sprintf(`Subtype definition "%s" contains an invalid value (%#v) which has been ignored.`, e.Subtype, e.Value)
}

// SubtypeFailure occurs when a subtype Predicate returns an error (or
// panics).
type SubtypeFailure struct {
	Subtype string
	Err     error
}

func (e *SubtypeFailure) Error() string {
	return `Subtype definition "` + e.Subtype + `" function error: ` + e.Err.Error()
}

func (e *SubtypeFailure) Unwrap() error {
	return e.Err
}

// SubtypeResult occurs when a subtype Predicate returns something
// truthy that isn't a string or true.
type SubtypeResult struct {
	Subtype string
	Result  interface{}
}

func (e *SubtypeResult) Error() string {
	return fmt.Sprintf(`Subtype definition "%s" should return a string or true (not %T). The definition name was used as the subtype name.`, e.Subtype, e.Result)
}

// MethodFailure occurs when a method attached to a Result fails.
type MethodFailure struct {
	Method string
	Err    error
}

func (e *MethodFailure) Error() string {
	return `Method "` + e.Method + `" error: ` + e.Err.Error()
}

func (e *MethodFailure) Unwrap() error {
	return e.Err
}

// HandlerFailure occurs when a handler fails during a Dispatch.
type HandlerFailure struct {
	// Type is the type name that matched the handler's node.
	Type string
	Err  error
}

func (e *HandlerFailure) Error() string {
	return `Type function "` + e.Type + `" error: ` + e.Err.Error()
}

func (e *HandlerFailure) Unwrap() error {
	return e.Err
}

// MethodConflict occurs when a Dispatch attaches a method with a name
// that's already attached.  The later definition wins.
type MethodConflict struct {
	Method string
	Type   string
}

func (e *MethodConflict) Error() string {
	return `Method conflict for "` + e.Method + `". A definition from type "` + e.Type +
		`" is overwriting a previously attached method. This occurs when an input ` +
		`matches multiple types; the last-processed definition takes precedence.`
}

// UnknownPreset occurs when Subtype is given a name that isn't a
// registered preset.
type UnknownPreset struct {
	Name string
}

func (e *UnknownPreset) Error() string {
	return `Unknown subtype preset "` + e.Name + `".`
}

// UnknownMethod is returned by Result.Call for a name that the
// Result doesn't have.
type UnknownMethod struct {
	Name string
}

func (e *UnknownMethod) Error() string {
	return `method "` + e.Name + `" not found`
}

// ErrPanic wraps the value of a recovered panic.
var ErrPanic = errors.New("panic")

// Panicked is the error made from a panic recovered at a boundary.
type Panicked struct {
	Value interface{}
}

func (e *Panicked) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *Panicked) Unwrap() error {
	return ErrPanic
}
