package tools

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Comcast/estructura/core"
	. "github.com/Comcast/estructura/util/testutil"
)

type nopCloser struct {
	bytes.Buffer
}

func (c *nopCloser) Close() error {
	return nil
}

func nothing(args ...interface{}) (interface{}, error) {
	return nil, nil
}

// testNamespace has a little of everything, including a misspelled
// type ("Nmber").
func testNamespace() *core.Namespace {
	ns := core.NewNamespace("tools", core.NewRecorder())

	greeting := func(x interface{}, current string, types *core.TypeList) (interface{}, error) {
		return x == "hi", nil
	}
	ns.Subtype(core.Defs{{Name: "String", Value: core.Defs{{Name: "Greeting", Value: core.Predicate(greeting)}}}})
	ns.Subtype(core.Defs{{Name: "Greeting", Value: "Salutation"}})

	ns.Fn(core.Defs{
		{Name: "String", Value: core.Methods{"log": nothing, "shout": nothing}},
		{Name: "Greeting", Value: core.Methods{"shout": nothing}},
		{Name: "Nmber", Value: core.Defs{{Name: "String", Value: core.Methods{"repeat": nothing}}}},
	})
	ns.Fn(core.Func(nothing))
	ns.Fn(core.Defs{{Name: "String", Value: core.Func(nothing)}})
	ns.Fn(core.Defs{{Name: "hello", Value: core.Func(nothing)}})

	return ns
}

func TestAnalyze(t *testing.T) {
	base := Analyze(core.NewNamespace("empty", core.NewRecorder()))
	if base.NodeCount != 0 || base.GlobalHandler || len(base.Collisions) != 0 {
		t.Fatal(JS(base))
	}

	a := Analyze(testNamespace())

	counts := []struct {
		name      string
		got, want int
	}{
		{"nodes", a.NodeCount, 9},
		{"functions", a.Functions, 6},
		{"hybrids", a.Hybrids, 1},
		{"methods", a.Methods, 4},
		{"depth", a.Depth, 3},
		{"subtypes", a.Subtypes - base.Subtypes, 3},
		{"predicates", a.Predicates - base.Predicates, 2},
		{"aliases", a.Aliases - base.Aliases, 1},
	}
	for _, c := range counts {
		if c.got != c.want {
			t.Fatalf("%s: %d != %d", c.name, c.got, c.want)
		}
	}

	if !a.GlobalHandler {
		t.Fatal("no global handler")
	}
	if got := JS(a.GlobalMethods); got != `["String","hello"]` {
		t.Fatal(got)
	}
	if got := JS(a.Collisions); got != `[{"method":"shout","paths":["String","Greeting"]}]` {
		t.Fatal(got)
	}
	if got := JS(a.UnknownTypes); got != `["Nmber"]` {
		t.Fatal(got)
	}
}

func TestDot(t *testing.T) {
	out := &nopCloser{}
	if err := Dot(testNamespace().Tree(), out, []string{"String", "shout"}); err != nil {
		t.Fatal(err)
	}
	got := out.String()

	for _, want := range []string{
		"digraph G {\n",
		`  n_String_shout [shape="note", style="filled", color="red", fillcolor="#f98b8b", label="shout()" ]`,
		`  n_Greeting [shape="record", style="rounded,filled", color="black", fillcolor="#99ddc8", label="Greeting" ]`,
		`  root -> n_String [ color="red" ]`,
		`  n_Greeting -> n_Greeting_shout [ color="black" ]`,
		`  n_Nmber_String -> n_Nmber_String_repeat [ color="black" ]`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %s in\n%s", want, got)
		}
	}
}

func TestNodeId(t *testing.T) {
	tests := []struct {
		path []string
		want string
	}{
		{nil, "root"},
		{[]string{"String"}, "n_String"},
		{[]string{"Node.DIV", "x"}, "n_Nodex2eDIV_x"},
	}
	for _, test := range tests {
		if got := nodeId(test.path); got != test.want {
			t.Fatalf("%v: %s != %s", test.path, got, test.want)
		}
	}
}

func TestMermaid(t *testing.T) {
	t.Run("fill", func(t *testing.T) {
		out := &nopCloser{}
		if err := Mermaid(testNamespace().Tree(), out, nil); err != nil {
			t.Fatal(err)
		}
		got := out.String()
		for _, want := range []string{
			"graph LR\n",
			`  n_Greeting("Greeting")`,
			`  n_String_shout["shout"]`,
			`  style n_String_shout fill:#bcf2db`,
			`  root --> n_String`,
		} {
			if !strings.Contains(got, want) {
				t.Fatalf("missing %s in\n%s", want, got)
			}
		}
	})

	t.Run("class", func(t *testing.T) {
		out := &nopCloser{}
		opts := &MermaidOpts{
			HandlerClass: "fn",
			ShowKinds:    true,
		}
		if err := Mermaid(testNamespace().Tree(), out, opts); err != nil {
			t.Fatal(err)
		}
		got := out.String()
		if strings.Contains(got, "style ") {
			t.Fatal(got)
		}
		for _, want := range []string{
			`  n_String["String (hybrid)"]`,
			`  n_Nmber("Nmber (methods)")`,
			"  class root,n_String,",
		} {
			if !strings.Contains(got, want) {
				t.Fatalf("missing %s in\n%s", want, got)
			}
		}
	})
}

func TestTreeYAML(t *testing.T) {
	bs, err := TreeYAML(testNamespace().Tree())
	if err != nil {
		t.Fatal(err)
	}

	want := `{"(function)":true,"Greeting":{"shout":"(function)"},"Nmber":{"String":{"repeat":"(function)"}},"String":{"(function)":true,"log":"(function)","shout":"(function)"},"hello":"(function)"}`
	if got := JS(Dwimyaml(bs)); got != want {
		t.Fatalf("%s\n%s", got, bs)
	}

	s := string(bs)
	if !(strings.Index(s, "\nString:") < strings.Index(s, "\nGreeting:") &&
		strings.Index(s, "\nGreeting:") < strings.Index(s, "\nNmber:")) {
		t.Fatalf("order lost:\n%s", s)
	}
}
