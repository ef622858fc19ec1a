/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strings"
)

// Base categories.  Every TypeList starts with one of these.
const (
	UndefinedType = "Undefined"
	NullType      = "Null"
	FunctionType  = "Function"
	StringType    = "String"
	BigIntType    = "BigInt"
	SymbolType    = "Symbol"
	ObjectType    = "Object"
	BooleanType   = "Boolean"
	NumberType    = "Number"
	NaNType       = "NaN"
)

// AnyType is the name used when reporting on the root of a dispatch
// tree.
const AnyType = "Any"

type undefined struct{}

func (undefined) String() string {
	return "undefined"
}

// Undefined is the one value with the base category UndefinedType.
//
// A nil interface{} is Null, not Undefined.
var Undefined interface{} = undefined{}

// Symbol is a unique token.  Two Symbols with the same description
// are still different values.
type Symbol struct {
	Description string
}

// NewSymbol makes a new Symbol.
func NewSymbol(description string) *Symbol {
	return &Symbol{
		Description: description,
	}
}

func (s *Symbol) String() string {
	return "Symbol(" + s.Description + ")"
}

// BaseType returns the base category of the given value.
//
// This function is the only place that looks at Go's types in order
// to decide a category.
func BaseType(x interface{}) string {
	switch vv := x.(type) {
	case nil:
		return NullType
	case undefined:
		return UndefinedType
	case *Symbol:
		if vv == nil {
			return NullType
		}
		return SymbolType
	case *big.Int:
		if vv == nil {
			return NullType
		}
		return BigIntType
	case big.Int:
		return BigIntType
	case json.Number:
		if _, err := vv.Float64(); err != nil {
			return NaNType
		}
		return NumberType
	case string:
		return StringType
	case bool:
		return BooleanType
	case int, int64, int32:
		return NumberType
	case float64:
		if math.IsNaN(vv) {
			return NaNType
		}
		return NumberType
	}

	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		if v.IsNil() {
			return NullType
		}
	}

	switch v.Kind() {
	case reflect.Func:
		return FunctionType
	case reflect.String:
		return StringType
	case reflect.Bool:
		return BooleanType
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return NumberType
	case reflect.Float32, reflect.Float64:
		if math.IsNaN(v.Float()) {
			return NaNType
		}
		return NumberType
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		if math.IsNaN(real(c)) || math.IsNaN(imag(c)) {
			return NaNType
		}
		return NumberType
	}

	return ObjectType
}

// TypeList is the ordered list of types of a value.
//
// The first type is always the value's base category.  Subtypes
// follow in the order they were discovered.  A name appears at most
// once, and Has() answers membership without a scan.
type TypeList struct {
	names []string
	set   map[string]bool
}

// NewTypeList makes a TypeList with the given base category.
func NewTypeList(base string) *TypeList {
	return &TypeList{
		names: []string{base},
		set:   map[string]bool{base: true},
	}
}

// add appends the name if it's not already present.  Returns true if
// the name was added.
func (ts *TypeList) add(name string) bool {
	if ts.set[name] {
		return false
	}
	ts.names = append(ts.names, name)
	ts.set[name] = true
	return true
}

// Base returns the base category.
func (ts *TypeList) Base() string {
	return ts.names[0]
}

// Has reports whether the given name is in the list.
func (ts *TypeList) Has(name string) bool {
	return ts.set[name]
}

// Len returns the number of types.
func (ts *TypeList) Len() int {
	return len(ts.names)
}

// At returns the ith type.
func (ts *TypeList) At(i int) string {
	return ts.names[i]
}

// Last returns the most recently discovered type.
func (ts *TypeList) Last() string {
	return ts.names[len(ts.names)-1]
}

// Names returns a copy of the types in order.
func (ts *TypeList) Names() []string {
	acc := make([]string, len(ts.names))
	copy(acc, ts.names)
	return acc
}

func (ts *TypeList) String() string {
	return strings.Join(ts.names, "/")
}

// MarshalJSON renders the list as a JSON array.
func (ts *TypeList) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.names)
}
