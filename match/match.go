/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package match is a small structural pattern matcher for values
// that came from JSON or YAML.
//
// A pattern is an ordinary value.  Strings starting with "?" are
// variables:
//
//	?x     binds (or must equal the existing binding for) ?x
//	?      matches anything and binds nothing
//	??x    as a map value, also matches a missing property
//	?<x    matches a number less than the binding for ?<x and binds ?x
//
// The other inequalities are "<=", ">", ">=", and "!=".
//
// A map pattern matches a map that has at least the pattern's
// properties.  An array pattern matches an array of the same length
// whose elements match the pattern's elements in some order, so an
// array can produce several sets of bindings.
package match

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Bindings maps variables to values.
type Bindings map[string]interface{}

// Copy makes a shallow copy.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs)+2)
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// Extend returns a copy with the additional binding.
func (bs Bindings) Extend(k string, v interface{}) Bindings {
	acc := bs.Copy()
	acc[k] = v
	return acc
}

// ErrTooManyBindings is returned when matching explodes.
var ErrTooManyBindings = errors.New("too many bindings")

// Matcher matches patterns against values.
type Matcher struct {
	// Inequalities enables "?<x"-style variables.
	Inequalities bool

	// Limit, if positive, caps the number of sets of bindings
	// produced while matching arrays.
	Limit int
}

var DefaultMatcher = &Matcher{
	Inequalities: true,
	Limit:        1000,
}

// Match uses the DefaultMatcher.
func Match(pattern, fact interface{}, bs Bindings) ([]Bindings, error) {
	return DefaultMatcher.Match(pattern, fact, bs)
}

// Matches reports whether the pattern matches with no initial
// bindings.
func Matches(pattern, fact interface{}) (bool, error) {
	bss, err := DefaultMatcher.Match(pattern, fact, nil)
	return 0 < len(bss), err
}

// Match returns every set of bindings that extends the given one
// and makes the pattern match the fact.  No bindings means no match.
//
// The given Bindings are not modified.
func (m *Matcher) Match(pattern, fact interface{}, bs Bindings) ([]Bindings, error) {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = Normalize(v)
	}
	return m.match(Normalize(pattern), Normalize(fact), acc)
}

func IsVariable(s string) bool {
	return strings.HasPrefix(s, "?")
}

func IsAnonymous(s string) bool {
	return s == "?"
}

func IsOptional(s string) bool {
	return strings.HasPrefix(s, "??")
}

func (m *Matcher) match(p, f interface{}, bs Bindings) ([]Bindings, error) {
	switch vv := p.(type) {
	case nil:
		if f == nil {
			return []Bindings{bs}, nil
		}
	case bool, float64:
		if p == f {
			return []Bindings{bs}, nil
		}
	case string:
		if !IsVariable(vv) {
			if s, is := f.(string); is && s == vv {
				return []Bindings{bs}, nil
			}
			return nil, nil
		}
		return m.variable(vv, f, bs)
	case map[string]interface{}:
		fm, is := f.(map[string]interface{})
		if !is {
			return nil, nil
		}
		return m.matchMap(vv, fm, bs)
	case []interface{}:
		fs, is := f.([]interface{})
		if !is || len(fs) != len(vv) {
			return nil, nil
		}
		return m.matchArray(vv, fs, bs)
	default:
		return nil, fmt.Errorf("can't match pattern %#v", p)
	}
	return nil, nil
}

func (m *Matcher) variable(v string, f interface{}, bs Bindings) ([]Bindings, error) {
	if IsAnonymous(v) {
		return []Bindings{bs}, nil
	}
	if IsOptional(v) {
		v = v[1:]
	}
	if m.Inequalities {
		if ok, name, applies := inequal(v, f, bs); applies {
			if !ok {
				return nil, nil
			}
			v = name
		}
	}
	if x, have := bs[v]; have {
		if same(x, f) {
			return []Bindings{bs}, nil
		}
		return nil, nil
	}
	return []Bindings{bs.Extend(v, f)}, nil
}

func (m *Matcher) matchMap(pm, fm map[string]interface{}, bs Bindings) ([]Bindings, error) {
	bss := []Bindings{bs}

	// Sorted for deterministic results.
	keys := make([]string, 0, len(pm))
	for k := range pm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		pv := pm[k]
		fv, have := fm[k]
		if !have {
			if s, is := pv.(string); is && (IsOptional(s) || IsAnonymous(s)) {
				continue
			}
			return nil, nil
		}
		var acc []Bindings
		for _, bs := range bss {
			more, err := m.match(pv, fv, bs)
			if err != nil {
				return nil, err
			}
			acc = append(acc, more...)
		}
		if len(acc) == 0 {
			return nil, nil
		}
		if err := m.check(len(acc)); err != nil {
			return nil, err
		}
		bss = acc
	}
	return bss, nil
}

// matchArray matches pattern elements against distinct fact elements
// in any order.
func (m *Matcher) matchArray(ps, fs []interface{}, bs Bindings) ([]Bindings, error) {
	if len(ps) == 0 {
		return []Bindings{bs}, nil
	}
	var acc []Bindings
	for i, f := range fs {
		bss, err := m.match(ps[0], f, bs)
		if err != nil {
			return nil, err
		}
		if len(bss) == 0 {
			continue
		}
		rest := make([]interface{}, 0, len(fs)-1)
		rest = append(rest, fs[:i]...)
		rest = append(rest, fs[i+1:]...)
		for _, bs := range bss {
			more, err := m.matchArray(ps[1:], rest, bs)
			if err != nil {
				return nil, err
			}
			acc = append(acc, more...)
			if err := m.check(len(acc)); err != nil {
				return nil, err
			}
		}
	}
	return acc, nil
}

func (m *Matcher) check(n int) error {
	if 0 < m.Limit && m.Limit < n {
		return ErrTooManyBindings
	}
	return nil
}

var inequalities = []string{"<=", ">=", "!=", "<", ">"}

// inequal checks an inequality variable like "?<n".  The comparison is
// between the fact and the existing binding for the whole variable.
// The returned name is the variable without its inequality.
func inequal(v string, f interface{}, bs Bindings) (ok bool, name string, applies bool) {
	limit, is := bs[v].(float64)
	if !is {
		return false, "", false
	}
	x, is := f.(float64)
	if !is {
		return false, "", false
	}
	for _, op := range inequalities {
		if !strings.HasPrefix(v[1:], op) {
			continue
		}
		name = "?" + v[1+len(op):]
		switch op {
		case "<=":
			ok = x <= limit
		case ">=":
			ok = x >= limit
		case "!=":
			ok = x != limit
		case "<":
			ok = x < limit
		case ">":
			ok = x > limit
		}
		return ok, name, true
	}
	return false, "", false
}

func same(x, y interface{}) bool {
	switch vv := x.(type) {
	case map[string]interface{}:
		ym, is := y.(map[string]interface{})
		if !is || len(ym) != len(vv) {
			return false
		}
		for k, v := range vv {
			if w, have := ym[k]; !have || !same(v, w) {
				return false
			}
		}
		return true
	case []interface{}:
		ys, is := y.([]interface{})
		if !is || len(ys) != len(vv) {
			return false
		}
		for i := range vv {
			if !same(vv[i], ys[i]) {
				return false
			}
		}
		return true
	default:
		return x == y
	}
}

// Normalize converts numbers to float64 and YAML's
// map[interface{}]interface{} to map[string]interface{}.
func Normalize(x interface{}) interface{} {
	switch vv := x.(type) {
	case int:
		return float64(vv)
	case int32:
		return float64(vv)
	case int64:
		return float64(vv)
	case uint64:
		return float64(vv)
	case float32:
		return float64(vv)
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, y := range vv {
			acc[i] = Normalize(y)
		}
		return acc
	case map[string]interface{}:
		acc := make(map[string]interface{}, len(vv))
		for k, y := range vv {
			acc[k] = Normalize(y)
		}
		return acc
	case map[interface{}]interface{}:
		acc := make(map[string]interface{}, len(vv))
		for k, y := range vv {
			acc[fmt.Sprintf("%v", k)] = Normalize(y)
		}
		return acc
	default:
		return x
	}
}
