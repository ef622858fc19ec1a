package core

import (
	"errors"
	"strings"
	"testing"

	. "github.com/Comcast/estructura/util/testutil"
)

func testNamespace() (*Namespace, *Recorder) {
	r := NewRecorder()
	return NewNamespace("test", r), r
}

func greeting(x interface{}) string {
	if x == "hi" {
		return "Greeting"
	}
	return ""
}

func nonEmpty(x interface{}) string {
	if s, is := x.(string); is && s != "" {
		return "NonEmpty"
	}
	return ""
}

func TestSubtypeReverseOrder(t *testing.T) {
	ns, _ := testNamespace()
	ns.Subtype(Defs{{"String", greeting}})
	ns.Subtype(Defs{{"String", nonEmpty}})

	if got := ns.Type("hi").String(); got != "String/NonEmpty/Greeting" {
		t.Fatal(got)
	}
	if got := ns.Type("bye").String(); got != "String/NonEmpty" {
		t.Fatal(got)
	}
	if got := ns.Type("").String(); got != "String" {
		t.Fatal(got)
	}
}

func TestSubtypeDepthFirst(t *testing.T) {
	t.Run("chain first", func(t *testing.T) {
		ns, _ := testNamespace()
		ns.Subtype(Defs{{"String", nonEmpty}})
		ns.Subtype(Defs{{"String", greeting}})
		ns.Subtype(Defs{{"Greeting", "Polite"}})

		if got := JS(ns.Type("hi")); got != `["String","Greeting","Polite","NonEmpty"]` {
			t.Fatal(got)
		}
	})

	t.Run("chain last", func(t *testing.T) {
		ns, _ := testNamespace()
		ns.Subtype(Defs{{"String", greeting}})
		ns.Subtype(Defs{{"String", nonEmpty}})
		ns.Subtype(Defs{{"Greeting", "Polite"}})

		if got := JS(ns.Type("hi")); got != `["String","NonEmpty","Greeting","Polite"]` {
			t.Fatal(got)
		}
	})
}

func TestSubtypeCycle(t *testing.T) {
	ns, r := testNamespace()
	ns.Subtype(Defs{{"Number", "A"}, {"A", "B"}, {"B", "A"}})

	if got := ns.Type(1).String(); got != "Number/A/B" {
		t.Fatal(got)
	}
	if n := r.Count(Warn); n != 0 {
		t.Fatal(n)
	}
}

func TestSubtypeAliases(t *testing.T) {
	ns, r := testNamespace()
	ns.Subtype(Defs{{"Number", []string{"A", "B"}}})

	if got := ns.Type(1).String(); got != "Number/A/B" {
		t.Fatal(got)
	}

	ns.Subtype(Defs{{"Boolean", []string{"Flag", "Flag"}}})
	if got := ns.Type(true).String(); got != "Boolean/Flag" {
		t.Fatal(got)
	}
	if n := r.Count(Warn); n != 0 {
		t.Fatal(r.Diagnostics)
	}

	ns.Subtype(Defs{{"Null", []interface{}{"Nothing", 3, ""}}})
	if got := ns.Type(nil).String(); got != "Null/Nothing" {
		t.Fatal(got)
	}
	if n := len(r.Find(Warn, "invalid value")); n != 2 {
		t.Fatal(r.Diagnostics)
	}
}

func TestSubtypeCompound(t *testing.T) {
	ns, _ := testNamespace()
	isUser := func(x interface{}) bool {
		m, is := x.(map[string]interface{})
		return is && m["user"] != nil
	}
	ns.Subtype(Defs{{"Object", Defs{{"User", isUser}}}})
	ns.Subtype(Defs{{"User", "Person"}})

	if got := ns.Type(Dwimjs(`{"user":"homer"}`)).String(); got != "Object/User/Person" {
		t.Fatal(got)
	}
	if got := ns.Type(Dwimjs(`{"likes":"tacos"}`)).String(); got != "Object" {
		t.Fatal(got)
	}
}

func TestSubtypePredicateArguments(t *testing.T) {
	ns, _ := testNamespace()

	var (
		current string
		seen    string
	)
	ns.Subtype(Defs{{"String", Predicate(func(x interface{}, c string, ts *TypeList) (interface{}, error) {
		current = c
		seen = ts.String()
		return true, nil
	})}})
	ns.Subtype(Defs{{"String", "Early"}})

	// The predicate's declared name is "String", which is already
	// present.
	if got := ns.Type("x").String(); got != "String/Early" {
		t.Fatal(got)
	}
	if current != "String" {
		t.Fatal(current)
	}
	if seen != "String/Early" {
		t.Fatal(seen)
	}
}

func TestSubtypePredicateFailure(t *testing.T) {
	ns, r := testNamespace()
	ns.Subtype(Defs{{"String", Predicate(func(x interface{}, c string, ts *TypeList) (interface{}, error) {
		return nil, errors.New("queso")
	})}})
	ns.Subtype(Defs{{"Number", func(x interface{}) bool {
		panic("chips")
	}}})

	if got := ns.Type("x").String(); got != "String" {
		t.Fatal(got)
	}
	if got := ns.Type(1).String(); got != "Number" {
		t.Fatal(got)
	}

	if ms := r.Find(Error, `Subtype definition "String" function error: queso`); len(ms) != 1 {
		t.Fatal(r.Diagnostics)
	}
	if ms := r.Find(Error, "chips"); len(ms) != 1 {
		t.Fatal(r.Diagnostics)
	}
}

func TestSubtypeInvalidResult(t *testing.T) {
	ns, r := testNamespace()
	ns.Subtype(Defs{{"Number", Defs{{"Big", func(x interface{}) interface{} {
		return 42
	}}}}})

	if got := ns.Type(1).String(); got != "Number/Big" {
		t.Fatal(got)
	}
	if ms := r.Find(Warn, "should return a string or true"); len(ms) == 0 {
		t.Fatal(r.Diagnostics)
	}
}

func TestSubtypeBadDefinitions(t *testing.T) {
	ns, r := testNamespace()
	ns.Subtype(Defs{
		{"MarshalJSON", "X"},
		{"", "Y"},
		{"String", 42},
		{"Number", []string{"func"}},
	})
	ns.Subtype("no-such-preset")
	ns.Subtype(42)

	if got := ns.Type("x").String(); got != "String" {
		t.Fatal(got)
	}
	if got := ns.Type(1).String(); got != "Number" {
		t.Fatal(got)
	}

	for _, want := range []string{
		`Name "MarshalJSON"`,
		`Invalid definition for "subtype."`,
		`Invalid definition for "subtype.String"`,
		`Name "func"`,
		`Unknown subtype preset "no-such-preset"`,
		`Invalid definition for "subtype"`,
	} {
		if ms := r.Find(Warn, want); len(ms) == 0 {
			t.Fatalf("no warning like %s in %s", want, JS(r.Diagnostics))
		}
	}
	for _, d := range r.Diagnostics {
		if !strings.HasPrefix(d.Msg, "estructura (test): ") {
			t.Fatal(d.Msg)
		}
	}
}

func TestSubtypeDetectors(t *testing.T) {
	ns, _ := testNamespace()
	ns.Subtype(Defs{{"String", greeting}, {"String", []string{"A", "B"}}})

	ds := ns.Detectors("String")
	if got := JS(ds); got != `[{"name":"String","predicate":true},{"name":"String","alias":"B"},{"name":"String","alias":"A"}]` {
		t.Fatal(got)
	}

	found := false
	for _, name := range ns.SubtypeNames() {
		if name == ObjectType {
			found = true
		}
	}
	if !found {
		t.Fatal(ns.SubtypeNames())
	}
}
