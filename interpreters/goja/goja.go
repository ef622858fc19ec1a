package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/estructura/core"
	"github.com/Comcast/estructura/util"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by a compiled function if its
	// execution is interrupted.
	Interrupted = errors.New(InterruptedMessage)

	// DefaultTimeout is the default limit on a single call of a
	// compiled function.
	DefaultTimeout = 5 * time.Second
)

// init adds an Interpreter as one of the DefaultInterpreters.
func init() {
	i := NewInterpreter()
	core.DefaultInterpreters["goja"] = i
	core.DefaultInterpreters["ecmascript"] = i
}

// Interpreter implements core.Interpreter using Goja, which is a Go
// implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
//
// Source is either a string or a map with "code" and (optionally)
// "requires", which names libraries to load first.  The code is the
// body of a function.
//
// For a handler or method, the body sees
//
//	args: the arguments (an array)
//
// For a Predicate, the body sees
//
//	x: the value
//	current: the type being expanded
//	types: the types found so far (an array)
//
// Everything sees _, which has
//
//	out(x): add a message to the Outbox.
//	log(x): log the JSON representation of x.
//	gensym(): generate a random string.
//	uuid(): generate a random UUID.
//	cronNext(expr): the next time (RFC3339) for the cron expression.
//	esc(s): URL query-escape the given string.
//
// If a handler returns an object, the functions in that object can
// be attached as methods.  Those functions share the handler's
// runtime.
type Interpreter struct {
	// Timeout limits each call.  Zero means DefaultTimeout, and a
	// negative value means no limit.
	Timeout time.Duration

	// Outbox receives what _.out() is given.  If nil, _.out()
	// just logs.
	Outbox *Outbox

	// LibraryProvider resolves the names in "requires".  If nil,
	// DefaultLibraryProvider is used.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Outbox collects messages emitted by code.
type Outbox struct {
	sync.Mutex
	msgs []interface{}
}

func NewOutbox() *Outbox {
	return &Outbox{
		msgs: make([]interface{}, 0, 4),
	}
}

// Add appends a message.
func (o *Outbox) Add(x interface{}) {
	o.Lock()
	o.msgs = append(o.msgs, x)
	o.Unlock()
}

// Drain returns the messages and empties the Outbox.
func (o *Outbox) Drain() []interface{} {
	o.Lock()
	msgs := o.msgs
	o.msgs = make([]interface{}, 0, 4)
	o.Unlock()
	return msgs
}

// ProvideLibrary resolves the library name into source code.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a library provider that supports
// (barely) names that are URLs with protocols of "file", "http", and
// "https".  A file name is relative to the given directory.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			bs, err := ioutil.ReadFile(dir + "/" + parts[1])
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequest("GET", name, nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req.WithContext(ctx))
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("library fetch status %s %d", resp.Status, resp.StatusCode)
			}
			bs, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

// AsSource extracts code and library names from a string or a map
// with "code" and "requires".
//
// Maps from gopkg.in/yaml.v2 (map[interface{}]interface{}) work,
// too.
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		return vv, nil, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			s, is := k.(string)
			if !is {
				return "", nil, fmt.Errorf("bad src key (%T)", k)
			}
			m[s] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	default:
		return "", nil, fmt.Errorf("bad Goja source (%T)", src)
	}
}

func parseSource(m map[string]interface{}) (code string, libs []string, err error) {
	s, is := m["code"].(string)
	if !is {
		return "", nil, errors.New("bad Goja code")
	}
	code = s

	switch vv := m["requires"].(type) {
	case nil:
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			lib, is := x.(string)
			if !is {
				return "", nil, errors.New("bad library")
			}
			libs = append(libs, lib)
		}
	default:
		return "", nil, fmt.Errorf("bad requires (%T)", vv)
	}

	return code, libs, nil
}

// compile makes a Program whose value is a function with the given
// parameters and the given source as its body.
func (i *Interpreter) compile(ctx context.Context, src interface{}, params string) (*goja.Program, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n;\n"
	}

	code = libsSrc + "(function(" + params + ") {\n" + code + "\n});\n"

	p, err := goja.Compile("", code, true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + code)
	}
	return p, nil
}

// CompileFunc implements core.Interpreter.
func (i *Interpreter) CompileFunc(ctx context.Context, src interface{}) (core.Func, error) {
	p, err := i.compile(ctx, src, "args, _")
	if err != nil {
		return nil, err
	}
	return func(args ...interface{}) (interface{}, error) {
		o, f, err := i.instantiate(p)
		if err != nil {
			return nil, err
		}
		js := make([]interface{}, len(args))
		for j, x := range args {
			js[j] = export(x)
		}
		v, err := i.call(o, f, o.ToValue(js), o.Get("_"))
		if err != nil {
			return nil, err
		}
		return i.convert(o, v), nil
	}, nil
}

// CompilePredicate implements core.Interpreter.
func (i *Interpreter) CompilePredicate(ctx context.Context, src interface{}) (core.Predicate, error) {
	p, err := i.compile(ctx, src, "x, current, types, _")
	if err != nil {
		return nil, err
	}
	return func(x interface{}, current string, ts *core.TypeList) (interface{}, error) {
		o, f, err := i.instantiate(p)
		if err != nil {
			return nil, err
		}
		v, err := i.call(o, f, o.ToValue(export(x)), o.ToValue(current), o.ToValue(ts.Names()), o.Get("_"))
		if err != nil {
			return nil, err
		}
		return v.Export(), nil
	}, nil
}

// instantiate makes a new runtime with the environment and runs the
// Program to get its function.
func (i *Interpreter) instantiate(p *goja.Program) (*goja.Runtime, goja.Callable, error) {
	o := goja.New()
	if err := o.Set("_", i.env(o)); err != nil {
		return nil, nil, err
	}
	v, err := o.RunProgram(p)
	if err != nil {
		return nil, nil, err
	}
	f, is := goja.AssertFunction(v)
	if !is {
		return nil, nil, fmt.Errorf("Goja bad compilation: %T", v.Export())
	}
	return o, f, nil
}

// call invokes the function with the Interpreter's timeout.
func (i *Interpreter) call(o *goja.Runtime, f goja.Callable, args ...goja.Value) (goja.Value, error) {
	timeout := i.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if 0 < timeout {
		timer := time.AfterFunc(timeout, func() {
			o.Interrupt(InterruptedMessage)
		})
		defer func() {
			timer.Stop()
			// The runtime might be used again (by a method).
			o.ClearInterrupt()
		}()
	}

	v, err := f(goja.Undefined(), args...)
	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}
	return v, nil
}

// convert exports a value returned by a handler or method.
//
// A plain object with at least one function becomes core.Defs (in
// the object's key order), with its functions wrapped as core.Funcs
// that run in the same runtime.
func (i *Interpreter) convert(o *goja.Runtime, v goja.Value) interface{} {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj, is := v.(*goja.Object)
	if !is || obj.ClassName() != "Object" {
		return v.Export()
	}
	var (
		keys  = obj.Keys()
		defs  = make(core.Defs, 0, len(keys))
		funcs = 0
	)
	for _, k := range keys {
		member := obj.Get(k)
		if f, is := goja.AssertFunction(member); is {
			defs = append(defs, core.Def{
				Name:  k,
				Value: i.method(o, f),
			})
			funcs++
			continue
		}
		defs = append(defs, core.Def{
			Name:  k,
			Value: member.Export(),
		})
	}
	if funcs == 0 {
		return v.Export()
	}
	return defs
}

// method wraps a function from a runtime as a core.Func.
func (i *Interpreter) method(o *goja.Runtime, f goja.Callable) core.Func {
	return func(args ...interface{}) (interface{}, error) {
		vs := make([]goja.Value, len(args))
		for j, x := range args {
			vs[j] = o.ToValue(export(x))
		}
		v, err := i.call(o, f, vs...)
		if err != nil {
			return nil, err
		}
		return i.convert(o, v), nil
	}
}

// export prepares a Go value for a runtime.
func export(x interface{}) interface{} {
	switch vv := x.(type) {
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, y := range vv {
			acc[i] = export(y)
		}
		return acc
	case *core.Symbol:
		return vv.String()
	}
	if x == core.Undefined {
		return goja.Undefined()
	}
	return x
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// exported returns the Go value of a runtime value.
func exported(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

// env makes the value of _.
func (i *Interpreter) env(o *goja.Runtime) map[string]interface{} {
	env := map[string]interface{}{}

	env["gensym"] = func() interface{} {
		return util.Gensym(32)
	}

	env["uuid"] = func() interface{} {
		return uuid.New().String()
	}

	env["cronNext"] = func(x interface{}) interface{} {
		cronExpr, is := exported(x).(string)
		if !is {
			protest(o, "not a string")
		}
		c, err := cronexpr.Parse(cronExpr)
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["esc"] = func(x interface{}) interface{} {
		s, is := exported(x).(string)
		if !is {
			protest(o, "not a string")
		}
		return url.QueryEscape(s)
	}

	env["out"] = func(x interface{}) interface{} {
		x, err := util.Canonicalize(exported(x))
		if err != nil {
			protest(o, err.Error())
		}
		if i.Outbox == nil {
			log.Printf("goja.out (no outbox) %s", jsString(x))
			return x
		}
		i.Outbox.Add(x)
		return x
	}

	env["log"] = func(x interface{}) interface{} {
		x = exported(x)
		log.Println(jsString(x))
		return x
	}

	return env
}

func jsString(x interface{}) string {
	js, err := json.Marshal(&x)
	if err != nil {
		return "(can't marshal: " + err.Error() + ")"
	}
	return string(js)
}
