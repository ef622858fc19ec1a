package tools

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
)

func TestInline(t *testing.T) {
	input := `
I like %inline("tacos"), and
I also like %inline("queso").
Both are delicious.
`
	want := `
I like TACOS, and
I also like QUESO.
Both are delicious.
`

	find := func(name string) ([]byte, error) {
		return []byte(strings.ToUpper(name)), nil
	}

	got, err := Inline([]byte(input), find)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Fatalf("got %s", got)
	}
}

func TestInlineIndent(t *testing.T) {
	input := "shout: |\n    %inline(\"shout.js\")\nnext: 1\n"
	want := "shout: |\n    var s = args[0][0];\n    return s.toUpperCase();\nnext: 1\n"

	find := func(name string) ([]byte, error) {
		return []byte("var s = args[0][0];\nreturn s.toUpperCase();\n"), nil
	}

	got, err := Inline([]byte(input), find)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Fatalf("got %q", got)
	}
}

func TestReadLibrary(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		filename := filepath.Join(dir, name)
		if err := ioutil.WriteFile(filename, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return filename
	}

	write("shout.js", "var s = args[0][0];\nreturn s.toUpperCase() + \"!\";\n")
	filename := write("shouting.yaml", `name: shouting
interpreter: goja
dispatch:
  String:
    shout: |
      %inline("shout.js")
`)

	lib, err := ReadLibrary(filename)
	if err != nil {
		t.Fatal(err)
	}
	src := lib.Dispatch.Get("String").Map.Get("shout").Scalar
	if src != "var s = args[0][0];\nreturn s.toUpperCase() + \"!\";\n" {
		t.Fatalf("%q", src)
	}

	if _, err = ReadLibrary(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Fatal("should have complained")
	}
}
