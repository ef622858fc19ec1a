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

// NodeKind says what a Node in a dispatch tree holds.
type NodeKind int

const (
	// MethodSet is a Node with no function: just children.
	MethodSet NodeKind = iota

	// Handler is a Node with a function and no children.
	Handler

	// Hybrid is a Node with a function and children.
	Hybrid
)

func (k NodeKind) String() string {
	switch k {
	case MethodSet:
		return "methods"
	case Handler:
		return "handler"
	case Hybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// Node is a node in a dispatch tree.
//
// A Node's children are keyed by name.  When the Node is reached by
// matching a type, a child with a function is a method to attach.
// When there are more values to dispatch, a child is the next level
// of the tree, keyed by the next value's type.  Both uses share the
// same keys, so "log" can be a method and (unusually) a type.
//
// The root of a tree is also a Node.  Its function (if any) is the
// global handler, and its children with functions are global methods.
type Node struct {
	fn   Func
	kids map[string]*Node

	// order remembers the order that children were first added.
	order []string
}

func newNode(fn Func) *Node {
	return &Node{
		fn: fn,
	}
}

// Kind returns the Node's kind.
func (n *Node) Kind() NodeKind {
	switch {
	case n.fn == nil:
		return MethodSet
	case len(n.order) == 0:
		return Handler
	default:
		return Hybrid
	}
}

// Func returns the Node's function, which is nil for a MethodSet.
func (n *Node) Func() Func {
	return n.fn
}

// Child returns the child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	if n == nil || n.kids == nil {
		return nil, false
	}
	c, have := n.kids[name]
	return c, have
}

// Keys returns the names of the Node's children in the order they
// were first registered.
func (n *Node) Keys() []string {
	acc := make([]string, len(n.order))
	copy(acc, n.order)
	return acc
}

// Methods returns the names of the children that have functions.
func (n *Node) Methods() []string {
	acc := make([]string, 0, len(n.order))
	for _, k := range n.order {
		if n.kids[k].fn != nil {
			acc = append(acc, k)
		}
	}
	return acc
}

// Walk calls the given function on this node and its descendants,
// depth-first, in registration order.
//
// The path is the sequence of keys from the node Walk was called on.
func (n *Node) Walk(f func(path []string, n *Node) error) error {
	return n.walk(nil, f)
}

func (n *Node) walk(path []string, f func([]string, *Node) error) error {
	if err := f(path, n); err != nil {
		return err
	}
	for _, k := range n.order {
		p := make([]string, len(path)+1)
		copy(p, path)
		p[len(path)] = k
		if err := n.kids[k].walk(p, f); err != nil {
			return err
		}
	}
	return nil
}

// set replaces (or adds) the child at the given key.
func (n *Node) set(name string, c *Node) {
	if n.kids == nil {
		n.kids = make(map[string]*Node, 4)
	}
	if _, have := n.kids[name]; !have {
		n.order = append(n.order, name)
	}
	n.kids[name] = c
}

// merge folds next into prev and returns the Node that belongs at
// the key.
//
// Nothing in prev is lost unless next replaces it: next's function
// replaces prev's function, and each of next's children is merged
// into prev's child of the same name.  When there's a prev, it's
// updated in place and returned.
//
//	prev \ next | MethodSet        | Handler          | Hybrid
//	------------+------------------+------------------+-----------------
//	(none)      | next             | next             | next
//	MethodSet   | MethodSet/merged | Hybrid           | Hybrid/merged
//	Handler     | Hybrid           | Handler (next's) | Hybrid/merged
//	Hybrid      | Hybrid/merged    | Hybrid (next fn) | Hybrid/merged
func merge(prev, next *Node) *Node {
	if prev == nil {
		return next
	}

	switch next.Kind() {
	case MethodSet:
		// prev keeps its function (if any).
	case Handler, Hybrid:
		prev.fn = next.fn
	}

	switch next.Kind() {
	case MethodSet, Hybrid:
		for _, k := range next.order {
			prevKid, _ := prev.Child(k)
			prev.set(k, merge(prevKid, next.kids[k]))
		}
	case Handler:
		// Nothing else to add.
	}

	return prev
}

// Tree returns the root of the dispatch tree.
//
// The tree should be treated as read-only.
func (ns *Namespace) Tree() *Node {
	return ns.fns
}

// Fn registers functions in the dispatch tree.
//
// The argument is either a function (which becomes the global
// handler) or a mapping (Defs, map[string]interface{}, Methods) from
// names to functions or to more mappings.
//
// At the top level, a name is a type name (or, if its value is a
// function and the type never matches, a global method).  A function
// at a type is a handler.  A mapping at a type is a set of methods
// and also the next level of the tree.  So
//
//	Defs{{"String", Defs{{"Number", Methods{"combine": f}}}}}
//
// makes "combine" available when dispatching a string and then a
// number.
//
// New definitions are merged with old ones.  Bad entries are reported
// and skipped.  Returns the Namespace.
func (ns *Namespace) Fn(defs interface{}) *Namespace {
	if ns.deferred(func() { ns.Fn(defs) }) {
		return ns
	}

	if f, is := AsFunc(defs); is {
		merge(ns.fns, newNode(f))
		return ns
	}

	ds, is := AsDefs(defs)
	if !is {
		ns.warn(&InvalidDefinition{
			Path:    "fn",
			Value:   defs,
			Allowed: "Function or Object",
		})
		return ns
	}

	if n := ns.build(ds, "fn"); n != nil {
		merge(ns.fns, n)
	}

	return ns
}

// build makes a MethodSet Node from the given definitions, reporting
// and skipping bad entries.
func (ns *Namespace) build(ds Defs, path string) *Node {
	n := newNode(nil)
	for _, d := range ds {
		p := path + "." + d.Name
		if !ns.checkName(d.Name, p) {
			continue
		}
		if f, is := AsFunc(d.Value); is {
			n.set(d.Name, merge(n.kids[d.Name], newNode(f)))
			continue
		}
		if nested, is := AsDefs(d.Value); is {
			n.set(d.Name, merge(n.kids[d.Name], ns.build(nested, p)))
			continue
		}
		ns.warn(&InvalidDefinition{
			Path:    p,
			Value:   d.Value,
			Allowed: "Function or Object",
		})
	}
	return n
}
