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

// Dispatch computes the types of the given values, walks the dispatch
// tree, runs the handlers it finds, and returns a Result with the
// methods it finds.
//
// For each value in turn, every candidate node (starting with the
// root) is checked for a child at each of the value's types, from the
// value's last (most specific) type back to its base category.  For
// all but the last value, the children found become the next
// candidates.  For the last value, each child found is resolved into
// the Result right away.  Finally the root itself is resolved.
//
// Resolving a node runs its function (if any) with the dispatched
// values.  If that function returns a mapping, the mapping's functions
// are attached as methods.  Otherwise the node's own children with
// functions are attached.  A method attached later replaces one with
// the same name (with a warning), so more general definitions win.
//
// Dispatch never returns nil.
func (ns *Namespace) Dispatch(args ...interface{}) *Result {
	ns.enter()
	defer ns.leave()

	r := newResult(ns, args)

	var (
		last       = len(args) - 1
		candidates = []*Node{ns.fns}
	)

	for i, x := range args {
		if len(candidates) == 0 {
			break
		}
		ts := ns.Type(x)
		r.types[i] = ts
		found := make([]*Node, 0, len(candidates))
		for c := len(candidates) - 1; 0 <= c; c-- {
			candidate := candidates[c]
			for t := ts.Len() - 1; 0 <= t; t-- {
				typeName := ts.At(t)
				n, have := candidate.Child(typeName)
				if !have {
					continue
				}
				if i == last {
					ns.resolve(r, n, typeName)
				} else {
					found = append(found, n)
				}
			}
		}
		candidates = found
	}

	ns.resolve(r, ns.fns, AnyType)

	return r
}

// resolve attaches the methods of the given node to the Result.
func (ns *Namespace) resolve(r *Result, n *Node, typeName string) {
	ds := n.methodDefs()

	if n.fn != nil {
		y, err := call(n.fn, r.Args())
		if err != nil {
			ns.error(&HandlerFailure{
				Type: typeName,
				Err:  err,
			})
		} else if returned, is := AsDefs(y); is {
			ds = returned
		}
	}

	for _, d := range ds {
		f, is := AsFunc(d.Value)
		if !is {
			continue
		}
		if r.Has(d.Name) {
			ns.warn(&MethodConflict{
				Method: d.Name,
				Type:   typeName,
			})
		}
		r.attach(d.Name, f)
	}
}

// methodDefs returns the node's children that have functions.
func (n *Node) methodDefs() Defs {
	acc := make(Defs, 0, len(n.order))
	for _, k := range n.order {
		if c := n.kids[k]; c.fn != nil {
			acc = append(acc, Def{
				Name:  k,
				Value: c.fn,
			})
		}
	}
	return acc
}
