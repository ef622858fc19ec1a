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
	"sort"
)

// detector is one subtype definition.
//
// Exactly one of alias and pred is set.  An alias always matches, so
// there's nothing to call.
type detector struct {
	// name is the declared name of the definition.
	name  string
	alias string
	pred  Predicate
}

// Detector describes a subtype definition for tools.
type Detector struct {
	Name      string `json:"name"`
	Alias     string `json:"alias,omitempty"`
	Predicate bool   `json:"predicate,omitempty"`
}

// subtypes maps a type name to its definitions in registration
// order.
type subtypes map[string][]*detector

// Type computes the TypeList for the given value.
func (ns *Namespace) Type(x interface{}) *TypeList {
	ts := NewTypeList(BaseType(x))
	if len(ns.subtypes[ts.Base()]) == 0 {
		return ts
	}
	ns.recognize(x, ts)
	return ts
}

// frame is a type being expanded along with the index of the next
// definition to consider.
type frame struct {
	current string
	defs    []*detector
	i       int
}

// recognize expands the last type in the list depth-first.
//
// Definitions are considered from the most recently registered to the
// first.  When a definition produces a new type that has definitions
// of its own, that type is expanded before the scan continues.  The
// TypeList's set is the visited set, so each type is expanded at most
// once.
func (ns *Namespace) recognize(x interface{}, ts *TypeList) {
	current := ts.Last()
	defs := ns.subtypes[current]
	stack := []*frame{{current: current, defs: defs, i: len(defs)}}

	for 0 < len(stack) {
		f := stack[len(stack)-1]
		if f.i == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		f.i--
		d := f.defs[f.i]

		found, ok := ns.match(d, x, f.current, ts)
		if !ok || !ts.add(found) {
			continue
		}
		if more, have := ns.subtypes[found]; have && 0 < len(more) {
			stack = append(stack, &frame{current: found, defs: more, i: len(more)})
		}
	}
}

// match runs a single definition and normalizes its result.
func (ns *Namespace) match(d *detector, x interface{}, current string, ts *TypeList) (string, bool) {
	if d.pred == nil {
		return d.alias, true
	}

	y, err := test(d.pred, x, current, ts)
	if err != nil {
		ns.error(&SubtypeFailure{
			Subtype: d.name,
			Err:     err,
		})
		return "", false
	}
	if !truthy(y) {
		return "", false
	}
	switch vv := y.(type) {
	case string:
		return vv, true
	case bool:
		return d.name, true
	default:
		ns.warn(&SubtypeResult{
			Subtype: d.name,
			Result:  y,
		})
		return d.name, true
	}
}

// Subtype registers subtype definitions.
//
// The argument is either the name of a preset (see RegisterPreset) or
// a mapping (Defs, map[string]interface{}) from a type name to:
//
//	a Predicate (or a func(interface{}) bool, etc.)
//	a string: a static alias
//	a []string (or []interface{} of strings): several aliases
//	a mapping: nested definitions
//
// A nested mapping is registered at the top level (so those subtypes
// can have their own subtypes) and also as definitions of the
// enclosing type.  For example,
//
//	Defs{{"Object", Defs{{"User", isUser}}}}
//
// makes an Object a User if isUser says so.
//
// Bad entries are reported and skipped.  Returns the Namespace.
func (ns *Namespace) Subtype(defs interface{}) *Namespace {
	if ns.deferred(func() { ns.Subtype(defs) }) {
		return ns
	}

	if name, is := defs.(string); is {
		preset, have := lookupPreset(name)
		if !have {
			ns.warn(&UnknownPreset{
				Name: name,
			})
			return ns
		}
		defs = preset()
	}

	ds, ok := AsDefs(defs)
	if !ok {
		ns.warn(&InvalidDefinition{
			Path:    "subtype",
			Value:   defs,
			Allowed: "mappings and preset names",
		})
		return ns
	}

	ns.registerSubtypes(ds, "", "subtype")

	return ns
}

// registerSubtypes does the work for Subtype.
//
// When parent is empty, each definition is added to the list for its
// own name.  Otherwise each definition is added to the parent's
// list.
func (ns *Namespace) registerSubtypes(ds Defs, parent, path string) {
	for _, d := range ds {
		p := path + "." + d.Name
		if !ns.checkName(d.Name, p) {
			continue
		}

		target := parent
		if target == "" {
			target = d.Name
			if _, have := ns.subtypes[target]; !have {
				ns.subtypes[target] = make([]*detector, 0, 2)
			}
		}

		if nested, is := AsDefs(d.Value); is {
			ns.registerSubtypes(nested, "", p)
			ns.registerSubtypes(nested, d.Name, p)
			continue
		}

		if pred, is := AsPredicate(d.Value); is {
			ns.subtypes[target] = append(ns.subtypes[target], &detector{
				name: d.Name,
				pred: pred,
			})
			continue
		}

		var aliases []interface{}
		switch vv := d.Value.(type) {
		case string:
			aliases = []interface{}{vv}
		case []string:
			aliases = make([]interface{}, len(vv))
			for i, s := range vv {
				aliases[i] = s
			}
		case []interface{}:
			aliases = vv
		default:
			ns.warn(&InvalidDefinition{
				Path:    p,
				Value:   d.Value,
				Allowed: "Object, Function, Array, or String",
			})
			continue
		}

		// Appended last to first, so that the reverse scan
		// discovers them in the order given.
		for i := len(aliases) - 1; 0 <= i; i-- {
			alias, is := aliases[i].(string)
			if !is || alias == "" {
				ns.warn(&InvalidAlias{
					Subtype: d.Name,
					Value:   aliases[i],
				})
				continue
			}
			if !ns.checkName(alias, p) {
				continue
			}
			ns.subtypes[target] = append(ns.subtypes[target], &detector{
				name:  d.Name,
				alias: alias,
			})
		}
	}
}

// Detectors describes the subtype definitions for the given type in
// registration order.
func (ns *Namespace) Detectors(name string) []Detector {
	ds := ns.subtypes[name]
	acc := make([]Detector, 0, len(ds))
	for _, d := range ds {
		acc = append(acc, Detector{
			Name:      d.name,
			Alias:     d.alias,
			Predicate: d.pred != nil,
		})
	}
	return acc
}

// SubtypeNames returns the names that have definitions lists (which
// might be empty).
func (ns *Namespace) SubtypeNames() []string {
	acc := make([]string, 0, len(ns.subtypes))
	for name := range ns.subtypes {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}
