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

// Package core provides the core gear for type-based dispatching.
//
// The primary type is Namespace, and the primary method is
// Dispatch().  A Namespace holds a dispatch tree of functions keyed
// by type names and a registry of subtype definitions.  Given some
// values, Dispatch() computes the types of each value, walks the
// tree, runs any matching handlers, and returns a Result that
// exposes the matching methods.
//
// The type of a value is really a TypeList: the value's base category
// (one of String, Number, Object, etc.) followed by every subtype
// that the Namespace's subtype definitions recognize.  A subtype
// definition is either a static alias or a Predicate, and a subtype
// can have its own subtypes.
//
// The tree is built with Fn(), which merges definitions into what's
// already there.  Nothing registered is ever lost: a later
// registration of the same method name wins, but other methods stay
// put.  A function registered at a type is a handler, which is
// invoked automatically when that type matches.  A mapping
// registered at a type is a set of methods.  A node can be both.
//
// When several types match, methods are attached from the most
// specific type to the most general, and the last one attached
// wins.  So a global method beats a category method, which beats a
// subtype method.  Handlers run in that same order, so the most
// specific handler runs first.
//
// Nothing a user-provided function does can make Dispatch, Fn, or
// Subtype fail.  Errors (and panics) are reported to the Namespace's
// Diagnostics and then ignored.
//
// To use this package, get a Namespace from a Namespaces (or from
// DefaultNamespaces).  Register some subtypes with Subtype() and some
// functions with Fn().  Then Dispatch().
package core
