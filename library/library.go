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

// Package library reads subtype and dispatch definitions from YAML
// and compiles their sources into functions for a core.Namespace.
//
// A library looks like
//
//	name: snacks
//	doc: |
//	  Some *Markdown*.
//	namespace: snacks
//	interpreter: goja
//	requires:
//	  - file://helpers.js
//	presets:
//	  - text
//	subtypes:
//	  String:
//	    Snack: [Taco, Chip]
//	    Spicy:
//	      source: return x.indexOf("jalapeño") >= 0;
//	dispatch:
//	  Taco:
//	    eat: return "yum " + args[0][0];
//	  Number:
//	    String:
//	      repeat: ...
//	handler: _.log(args);
//
// In subtypes, a string is an alias, a list is several aliases, a
// map with "source" is a predicate, and any other map is nested
// definitions.  In dispatch, a string is a source, a map with
// "source" is a source (perhaps for another interpreter), and any
// other map is the next level of the tree.
//
// The order of keys is preserved at every level.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/Comcast/estructura/core"

	"gopkg.in/yaml.v2"
)

var (
	// ErrNoName occurs when a library doesn't have a name.
	ErrNoName = errors.New("library has no name")
)

// Library is the parsed (but not compiled) form.
type Library struct {
	Name string `json:"name" yaml:"name"`
	Doc  string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Namespace is the name of the core.Namespace that the
	// library is intended for.  Empty means the default.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Interpreter is the default interpreter for sources.
	Interpreter string `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`

	// Requires names libraries for the interpreter to load before
	// each source given as a plain string.
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`

	// Presets are subtype presets to request before the library's
	// own subtypes.
	Presets []string `json:"presets,omitempty" yaml:"presets,omitempty"`

	Subtypes Entries `json:"subtypes,omitempty" yaml:"subtypes,omitempty"`
	Dispatch Entries `json:"dispatch,omitempty" yaml:"dispatch,omitempty"`

	// Handler is an optional source for the global handler.
	Handler *Node `json:"handler,omitempty" yaml:"handler,omitempty"`
}

// Parse parses YAML (or JSON) into a Library.
func Parse(bs []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(bs, &lib); err != nil {
		return nil, err
	}
	if lib.Name == "" {
		return nil, ErrNoName
	}
	return &lib, nil
}

// YAML renders the Library as YAML.
func (lib *Library) YAML() ([]byte, error) {
	return yaml.Marshal(lib)
}

// Compiled is a Library with its sources compiled.
type Compiled struct {
	Library  *Library
	Subtypes core.Defs
	Dispatch core.Defs
	Handler  core.Func
}

// CompileError says where a source failed to compile.
type CompileError struct {
	// Path is the dotted path to the source (for example
	// "dispatch.String.log").
	Path string
	Err  error
}

func (e *CompileError) Error() string {
	return "library source " + e.Path + ": " + e.Err.Error()
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compile compiles every source in the Library with the given
// interpreters (or core.DefaultInterpreters if nil).
func (lib *Library) Compile(ctx context.Context, interpreters core.InterpretersMap) (*Compiled, error) {
	c := &compiler{
		ctx:          ctx,
		lib:          lib,
		interpreters: interpreters,
	}

	subtypes, err := c.subtypes(lib.Subtypes, "subtypes")
	if err != nil {
		return nil, err
	}

	dispatch, err := c.dispatch(lib.Dispatch, "dispatch")
	if err != nil {
		return nil, err
	}

	compiled := &Compiled{
		Library:  lib,
		Subtypes: subtypes,
		Dispatch: dispatch,
	}

	if lib.Handler != nil {
		if compiled.Handler, err = c.fn(lib.Handler, "handler"); err != nil {
			return nil, err
		}
	}

	return compiled, nil
}

// Apply registers the compiled definitions with the given Namespace.
//
// Presets first, then subtypes, then dispatch, then the handler.
func (c *Compiled) Apply(ns *core.Namespace) *core.Namespace {
	for _, name := range c.Library.Presets {
		ns.Subtype(name)
	}
	if 0 < len(c.Subtypes) {
		ns.Subtype(c.Subtypes)
	}
	if 0 < len(c.Dispatch) {
		ns.Fn(c.Dispatch)
	}
	if c.Handler != nil {
		ns.Fn(c.Handler)
	}
	return ns
}

// ApplyTo registers the compiled definitions with the library's
// Namespace from the given collection.
func (c *Compiled) ApplyTo(nss *core.Namespaces) *core.Namespace {
	return c.Apply(nss.Get(c.Library.Namespace))
}

type compiler struct {
	ctx          context.Context
	lib          *Library
	interpreters core.InterpretersMap
}

func (c *compiler) subtypes(es Entries, path string) (core.Defs, error) {
	acc := make(core.Defs, 0, len(es))
	for _, e := range es {
		p := path + "." + e.Key
		if e.Value == nil {
			return nil, &CompileError{Path: p, Err: errors.New("no value")}
		}
		v := e.Value
		switch {
		case v.Map != nil && v.IsSource():
			pred, err := c.source(v).CompilePredicate(c.ctx, c.interpreters)
			if err != nil {
				return nil, &CompileError{Path: p, Err: err}
			}
			acc = append(acc, core.Def{Name: e.Key, Value: pred})
		case v.Map != nil:
			nested, err := c.subtypes(v.Map, p)
			if err != nil {
				return nil, err
			}
			acc = append(acc, core.Def{Name: e.Key, Value: nested})
		case v.List != nil:
			acc = append(acc, core.Def{Name: e.Key, Value: v.List})
		default:
			acc = append(acc, core.Def{Name: e.Key, Value: v.Scalar})
		}
	}
	return acc, nil
}

func (c *compiler) dispatch(es Entries, path string) (core.Defs, error) {
	acc := make(core.Defs, 0, len(es))
	for _, e := range es {
		p := path + "." + e.Key
		if e.Value == nil {
			return nil, &CompileError{Path: p, Err: errors.New("no value")}
		}
		v := e.Value
		if v.Map != nil && !v.IsSource() {
			nested, err := c.dispatch(v.Map, p)
			if err != nil {
				return nil, err
			}
			acc = append(acc, core.Def{Name: e.Key, Value: nested})
			continue
		}
		f, err := c.fn(v, p)
		if err != nil {
			return nil, err
		}
		acc = append(acc, core.Def{Name: e.Key, Value: f})
	}
	return acc, nil
}

func (c *compiler) fn(v *Node, path string) (core.Func, error) {
	if v.Map == nil {
		if _, is := v.Scalar.(string); !is {
			return nil, &CompileError{
				Path: path,
				Err:  fmt.Errorf("expected a source, not %T", v.Plain()),
			}
		}
	}
	f, err := c.source(v).CompileFunc(c.ctx, c.interpreters)
	if err != nil {
		return nil, &CompileError{Path: path, Err: err}
	}
	return f, nil
}

// source makes a core.Source from a string or from a map with
// "source" and (optionally) "interpreter".
func (c *compiler) source(v *Node) *core.Source {
	s := &core.Source{
		Interpreter: c.lib.Interpreter,
	}
	if v.Map == nil {
		s.Source = c.withRequires(v.Scalar)
		return s
	}
	if name, is := v.Map.Get("interpreter").Plain().(string); is && name != "" {
		s.Interpreter = name
	}
	src := v.Map.Get("source").Plain()
	if _, is := src.(string); is {
		src = c.withRequires(src)
	}
	s.Source = src
	return s
}

func (c *compiler) withRequires(src interface{}) interface{} {
	if len(c.lib.Requires) == 0 {
		return src
	}
	requires := make([]interface{}, len(c.lib.Requires))
	for i, r := range c.lib.Requires {
		requires[i] = r
	}
	return map[string]interface{}{
		"code":     src,
		"requires": requires,
	}
}
