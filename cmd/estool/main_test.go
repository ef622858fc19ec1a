package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
)

const shouting = `name: shouting
doc: Makes *some* noise.
namespace: simpsons
interpreter: goja
subtypes:
  String:
    Name:
      source: return x === "homer" || x === "marge";
dispatch:
  Name:
    shout: return args[0][0].toUpperCase();
`

func libraryFile(t *testing.T) string {
	filename := filepath.Join(t.TempDir(), "shouting.yaml")
	if err := ioutil.WriteFile(filename, []byte(shouting), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func run(t *testing.T, stdin string, args ...string) string {
	out := &bytes.Buffer{}
	if err := Run(context.Background(), args, strings.NewReader(stdin), out); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func TestTypes(t *testing.T) {
	got := run(t, "homer\n# comment\n\nbart\n42\n", "types", libraryFile(t))
	want := `String/Name ["shout"]
String []
Number []
`
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func TestRenderings(t *testing.T) {
	lib := libraryFile(t)

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"dot", "-highlight", "Name.shout", lib}, []string{"digraph G {", `n_Name_shout [shape="note", style="filled", color="red"`}},
		{[]string{"mermaid", lib}, []string{"graph LR", `n_Name --> n_Name_shout`}},
		{[]string{"analyze", lib}, []string{`"nodes": 2`, `"methods": 1`}},
		{[]string{"yaml", lib}, []string{"Name:\n  shout: (function)"}},
		{[]string{"html", "-css", "a.css", lib}, []string{"<em>some</em>", `<link href="a.css" rel="stylesheet">`}},
		{[]string{"json", lib}, []string{`"name": "shouting"`, `"namespace": "simpsons"`}},
	}
	for _, test := range tests {
		t.Run(test.args[0], func(t *testing.T) {
			got := run(t, "", test.args...)
			for _, want := range test.want {
				if !strings.Contains(got, want) {
					t.Fatalf("missing %s in\n%s", want, got)
				}
			}
		})
	}
}

func TestNamespaceFlag(t *testing.T) {
	// The library goes into "elsewhere", and types are reported
	// from there.
	got := run(t, "homer\n", "types", "-ns", "elsewhere", libraryFile(t))
	if got != "String/Name [\"shout\"]\n" {
		t.Fatal(got)
	}
}

func TestRunErrors(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"tacos"},
		{"dot", "/nope/missing.yaml"},
	} {
		if err := Run(context.Background(), args, strings.NewReader(""), &bytes.Buffer{}); err == nil {
			t.Fatalf("%v: should have complained", args)
		}
	}
}
