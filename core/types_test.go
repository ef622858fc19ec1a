package core

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"testing"
	"time"

	. "github.com/Comcast/estructura/util/testutil"
)

func TestBaseType(t *testing.T) {
	var nilMap map[string]interface{}

	tests := []struct {
		name string
		x    interface{}
		want string
	}{
		{"nil", nil, NullType},
		{"typed nil", nilMap, NullType},
		{"nil pointer", (*int)(nil), NullType},
		{"undefined", Undefined, UndefinedType},
		{"string", "tacos", StringType},
		{"empty string", "", StringType},
		{"int", 42, NumberType},
		{"uint8", uint8(3), NumberType},
		{"float", 1.5, NumberType},
		{"NaN", math.NaN(), NaNType},
		{"float32 NaN", float32(math.NaN()), NaNType},
		{"json number", json.Number("1.5"), NumberType},
		{"bad json number", json.Number("queso"), NaNType},
		{"bool", true, BooleanType},
		{"func", func() {}, FunctionType},
		{"bigint", big.NewInt(7), BigIntType},
		{"symbol", NewSymbol("s"), SymbolType},
		{"map", map[string]interface{}{}, ObjectType},
		{"slice", []interface{}{1}, ObjectType},
		{"struct", struct{}{}, ObjectType},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := BaseType(test.x); got != test.want {
				t.Fatalf("got %s; wanted %s", got, test.want)
			}
		})
	}
}

type point struct {
	X, Y int
}

func TestObjectConstructors(t *testing.T) {
	ns := NewNamespace("test", NewRecorder())

	tests := []struct {
		name string
		x    interface{}
		want string
	}{
		{"array", []int{1, 2}, `["Object","Array"]`},
		{"plain object", map[string]interface{}{"likes": "tacos"}, `["Object"]`},
		{"map", map[int]string{1: "one"}, `["Object","Map"]`},
		{"date", time.Now(), `["Object","Date"]`},
		{"regexp", regexp.MustCompile("a+"), `["Object","RegExp"]`},
		{"error", errors.New("chips"), `["Object","Error"]`},
		{"channel", make(chan int), `["Object","Channel"]`},
		{"struct", point{1, 2}, `["Object","point"]`},
		{"struct pointer", &point{1, 2}, `["Object","point"]`},
		{"string", "queso", `["String"]`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := JS(ns.Type(test.x)); got != test.want {
				t.Fatalf("got %s; wanted %s", got, test.want)
			}
		})
	}
}

type vertex struct {
	Degree int
}

func TestRegisterConstructorName(t *testing.T) {
	RegisterConstructorName(reflect.TypeOf(&vertex{}), func(x interface{}) string {
		if x.(*vertex).Degree == 0 {
			return ""
		}
		return "Vertex"
	})

	ns := NewNamespace("test", NewRecorder())
	if got := JS(ns.Type(&vertex{2})); got != `["Object","Vertex"]` {
		t.Fatal(got)
	}
	if got := JS(ns.Type(&vertex{})); got != `["Object"]` {
		t.Fatal(got)
	}
	// Only the registered type is affected.
	if got := JS(ns.Type(vertex{2})); got != `["Object","vertex"]` {
		t.Fatal(got)
	}
}

func TestTypeListNames(t *testing.T) {
	ts := NewTypeList(StringType)
	if !ts.add("Greeting") {
		t.Fatal("didn't add")
	}
	if ts.add("Greeting") {
		t.Fatal("added twice")
	}
	if ts.add(StringType) {
		t.Fatal("added base twice")
	}
	if ts.Len() != 2 || ts.Last() != "Greeting" || ts.Base() != StringType {
		t.Fatal(ts.String())
	}
	if ts.String() != "String/Greeting" {
		t.Fatal(ts.String())
	}

	names := ts.Names()
	names[0] = "Chips"
	if ts.Base() != StringType {
		t.Fatal("Names didn't copy")
	}
}
