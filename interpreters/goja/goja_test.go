package goja

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Comcast/estructura/core"
	. "github.com/Comcast/estructura/util/testutil"

	"github.com/google/uuid"
)

func TestFuncSimple(t *testing.T) {
	ctx := context.Background()

	i := NewInterpreter()
	f, err := i.CompileFunc(ctx, `return args[0] + args[1];`)
	if err != nil {
		t.Fatal(err)
	}

	x, err := f(40, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n, is := x.(int64); !is || n != 42 {
		t.Fatalf("%#v (%T)", x, x)
	}
}

func TestFuncError(t *testing.T) {
	ctx := context.Background()

	i := NewInterpreter()
	f, err := i.CompileFunc(ctx, `likes + tacos; return null;`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = f(); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestCompileErrors(t *testing.T) {
	ctx := context.Background()
	i := NewInterpreter()

	for _, src := range []interface{}{
		`return (;`,
		42,
		map[string]interface{}{"likes": "tacos"},
		map[string]interface{}{"code": "return 1;", "requires": 3},
	} {
		if _, err := i.CompileFunc(ctx, src); err == nil {
			t.Fatalf("no error for %#v", src)
		}
	}
}

func TestFuncTimeout(t *testing.T) {
	ctx := context.Background()

	i := NewInterpreter()
	i.Timeout = 20 * time.Millisecond
	f, err := i.CompileFunc(ctx, `for (;;) {}`)
	if err != nil {
		t.Fatal(err)
	}

	_, err = f()
	if err == nil {
		t.Fatal("didn't timeout")
	}
	if err != Interrupted {
		t.Fatalf("surprised by \"%s\"", err)
	}
}

func TestPredicate(t *testing.T) {
	ctx := context.Background()

	i := NewInterpreter()
	p, err := i.CompilePredicate(ctx, `
if (typeof x !== "string") return false;
return current + (types.length === 1 ? ".First" : ".Later");
`)
	if err != nil {
		t.Fatal(err)
	}

	ns := core.NewNamespace("goja", core.NewRecorder())
	ns.Subtype(core.Defs{{Name: "String", Value: p}})
	ns.Subtype(core.Defs{{Name: "String", Value: "Early"}})

	if got := ns.Type("tacos").String(); got != "String/Early/String.Later" {
		t.Fatal(got)
	}
	if got := ns.Type(42).String(); got != "Number" {
		t.Fatal(got)
	}
}

func TestHandlerMethods(t *testing.T) {
	ctx := context.Background()

	i := NewInterpreter()
	h, err := i.CompileFunc(ctx, `
var count = 0;
return {
  shout: function(args, suffix) {
    count++;
    return args[0].toUpperCase() + suffix + count;
  },
  ignored: "queso"
};
`)
	if err != nil {
		t.Fatal(err)
	}

	r := core.NewRecorder()
	ns := core.NewNamespace("goja", r)
	ns.Fn(core.Defs{{Name: "String", Value: h}})

	res := ns.Dispatch("tacos")
	if res.Has("ignored") {
		t.Fatal(res.Names())
	}
	for _, want := range []string{"TACOS!1", "TACOS!2"} {
		x, err := res.Call("shout", "!")
		if err != nil {
			t.Fatal(err)
		}
		if x != want {
			t.Fatalf("%#v != %s", x, want)
		}
	}
	if n := r.Count(core.Error); n != 0 {
		t.Fatal(r.Diagnostics)
	}
}

func TestMethodReturnsObject(t *testing.T) {
	ctx := context.Background()

	i := NewInterpreter()
	f, err := i.CompileFunc(ctx, `return {likes: args[0]};`)
	if err != nil {
		t.Fatal(err)
	}
	x, err := f("chips")
	if err != nil {
		t.Fatal(err)
	}
	if got := JS(x); got != `{"likes":"chips"}` {
		t.Fatal(got)
	}
}

func TestEnvOut(t *testing.T) {
	ctx := context.Background()

	i := NewInterpreter()
	i.Outbox = NewOutbox()
	f, err := i.CompileFunc(ctx, `_.out({likes: args[0]}); _.log("logged"); return null;`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = f("tacos"); err != nil {
		t.Fatal(err)
	}

	msgs := i.Outbox.Drain()
	if got := JS(msgs); got != `[{"likes":"tacos"}]` {
		t.Fatal(got)
	}
	if n := len(i.Outbox.Drain()); n != 0 {
		t.Fatal(n)
	}
}

func TestEnvUtilities(t *testing.T) {
	ctx := context.Background()
	i := NewInterpreter()

	t.Run("uuid", func(t *testing.T) {
		f, err := i.CompileFunc(ctx, `return _.uuid();`)
		if err != nil {
			t.Fatal(err)
		}
		x, err := f()
		if err != nil {
			t.Fatal(err)
		}
		if _, err = uuid.Parse(x.(string)); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("gensym", func(t *testing.T) {
		f, err := i.CompileFunc(ctx, `return _.gensym();`)
		if err != nil {
			t.Fatal(err)
		}
		x, err := f()
		if err != nil {
			t.Fatal(err)
		}
		if s, is := x.(string); !is || len(s) != 32 {
			t.Fatal(x)
		}
	})

	t.Run("esc", func(t *testing.T) {
		f, err := i.CompileFunc(ctx, `return _.esc("tacos & chips");`)
		if err != nil {
			t.Fatal(err)
		}
		x, err := f()
		if err != nil {
			t.Fatal(err)
		}
		if x != "tacos+%26+chips" {
			t.Fatal(x)
		}
	})

	t.Run("cronNext", func(t *testing.T) {
		f, err := i.CompileFunc(ctx, `return _.cronNext("* 0 * * *");`)
		if err != nil {
			t.Fatal(err)
		}
		x, err := f()
		if err != nil {
			t.Fatal(err)
		}
		s, is := x.(string)
		if !is {
			t.Fatalf("%#v", x)
		}
		if _, err = time.Parse(time.RFC3339Nano, s); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("cronNext bad", func(t *testing.T) {
		f, err := i.CompileFunc(ctx, `return _.cronNext("bad");`)
		if err != nil {
			t.Fatal(err)
		}
		if _, err = f(); err == nil {
			t.Fatal("should have complained")
		}
	})
}

func TestRequireSimple(t *testing.T) {
	code := map[string]interface{}{
		"requires": []interface{}{"foo", "bar"},
		"code":     `return foo() + bar();`,
	}

	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"foo": `
function foo() {
  var acc = [];
  for (var i = 0; i < 10; i++) {
      acc.push(i);
  }
  return "chips";
}
`,
		"bar": `var queso = "queso"
function bar() { return queso }`,
	})

	f, err := i.CompileFunc(context.Background(), code)
	if err != nil {
		t.Fatal(err)
	}
	x, err := f()
	if err != nil {
		t.Fatal(err)
	}
	if x != "chipsqueso" {
		t.Fatal(x)
	}
}

func TestRequireMissing(t *testing.T) {
	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{})

	_, err := i.CompileFunc(context.Background(), map[interface{}]interface{}{
		"requires": "nope",
		"code":     `return 1;`,
	})
	if err == nil {
		t.Fatal("should have complained")
	}
}

func TestRequireHTTP(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `
function foo() { return "queso"; }
`)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	code := map[string]interface{}{
		"requires": []interface{}{server.URL},
		"code":     `return foo();`,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f, err := NewInterpreter().CompileFunc(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	x, err := f()
	if err != nil {
		t.Fatal(err)
	}
	if x != "queso" {
		t.Fatalf("wanted something wrong: '%v'", x)
	}
}

func TestDefaultInterpreters(t *testing.T) {
	ctx := context.Background()

	src := &core.Source{
		Interpreter: "goja",
		Source:      `return "tacos";`,
	}
	f, err := src.CompileFunc(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if x, _ := f(); x != "tacos" {
		t.Fatal(x)
	}

	src.Interpreter = "cobol"
	if _, err = src.CompilePredicate(ctx, nil); !errors.Is(err, core.InterpreterNotFound) {
		t.Fatal(err)
	}
}
