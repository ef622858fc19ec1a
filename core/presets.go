package core

import (
	"reflect"
	"regexp"
	"sort"
	"sync"
	"time"
)

// ObjectConstructors is the name of the preset that every Namespace
// starts with.
//
// It refines Object by the kind of Go value: Array, Map, Date,
// RegExp, Error, Channel, or the name of a struct type.  A
// map[string]interface{} stays a plain Object.
const ObjectConstructors = "object-constructors"

// Preset makes a set of subtype definitions.  A Preset is called each
// time its name is given to Subtype.
type Preset func() Defs

var presets = struct {
	sync.Mutex
	m map[string]Preset
}{
	m: make(map[string]Preset, 4),
}

// RegisterPreset makes the given Preset available by name to
// Subtype.
//
// Typically called from an init().  A later registration replaces an
// earlier one.
func RegisterPreset(name string, p Preset) {
	presets.Lock()
	presets.m[name] = p
	presets.Unlock()
}

func lookupPreset(name string) (Preset, bool) {
	presets.Lock()
	p, have := presets.m[name]
	presets.Unlock()
	return p, have
}

// PresetNames returns the names of the registered presets.
func PresetNames() []string {
	presets.Lock()
	acc := make([]string, 0, len(presets.m))
	for name := range presets.m {
		acc = append(acc, name)
	}
	presets.Unlock()
	sort.Strings(acc)
	return acc
}

var (
	timeType   = reflect.TypeOf(time.Time{})
	regexpType = reflect.TypeOf(regexp.Regexp{})
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
	genericMap = reflect.TypeOf(map[string]interface{}{})
)

var constructors = struct {
	sync.Mutex
	m map[reflect.Type]func(x interface{}) string
}{
	m: make(map[reflect.Type]func(x interface{}) string, 4),
}

// RegisterConstructorName makes ConstructorName use the given function
// for values of the given type.  The function can return the empty
// string to add no subtype.
func RegisterConstructorName(t reflect.Type, f func(x interface{}) string) {
	constructors.Lock()
	constructors.m[t] = f
	constructors.Unlock()
}

// ConstructorName returns the object-constructors subtype for the
// given value, or the empty string.
func ConstructorName(x interface{}) string {
	if x == nil {
		return ""
	}
	t := reflect.TypeOf(x)
	constructors.Lock()
	f, have := constructors.m[t]
	constructors.Unlock()
	if have {
		return f(x)
	}
	if t.Implements(errorType) {
		return "Error"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return "Date"
	case regexpType:
		return "RegExp"
	case genericMap:
		return ""
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return "Array"
	case reflect.Map:
		return "Map"
	case reflect.Chan:
		return "Channel"
	case reflect.Struct:
		return t.Name()
	}
	return ""
}

func objectConstructors() Defs {
	return Defs{
		{ObjectType, func(x interface{}) string {
			return ConstructorName(x)
		}},
	}
}

func init() {
	RegisterPreset(ObjectConstructors, objectConstructors)
}
