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
	"sync"
)

// DefaultName is the display name of the namespace with the empty
// name.
const DefaultName = "default"

// Namespace is an isolated registry: subtype definitions and a
// dispatch tree.
//
// A Namespace is not safe for concurrent use.  Registrations made
// while a Dispatch is running (from a handler, a Predicate, or a
// method) are queued and applied when the outermost Dispatch returns.
type Namespace struct {
	name     string
	diag     Diagnostics
	fns      *Node
	subtypes subtypes

	// depth is the number of Dispatch calls in progress.
	depth int

	// pending holds registrations made while depth > 0.
	pending []func()
}

// NewNamespace makes a standalone Namespace that reports to the given
// Diagnostics (or to a LogDiagnostics if nil).
//
// The "object-constructors" preset is installed.
func NewNamespace(name string, d Diagnostics) *Namespace {
	if d == nil {
		d = &LogDiagnostics{}
	}
	ns := &Namespace{
		name:     name,
		diag:     d,
		fns:      newNode(nil),
		subtypes: make(subtypes, 8),
	}
	ns.Subtype(ObjectConstructors)
	return ns
}

// Name returns the Namespace's name, which is empty for the default
// Namespace.
func (ns *Namespace) Name() string {
	return ns.name
}

// Diagnostics returns the Namespace's Diagnostics.
func (ns *Namespace) Diagnostics() Diagnostics {
	return ns.diag
}

func (ns *Namespace) displayName() string {
	if ns.name == "" {
		return DefaultName
	}
	return ns.name
}

func (ns *Namespace) report(level Level, msg string) {
	ns.diag.Report(level, "estructura ("+ns.displayName()+"): "+msg)
}

func (ns *Namespace) warn(err error) {
	ns.report(Warn, err.Error())
}

func (ns *Namespace) error(err error) {
	ns.report(Error, err.Error())
}

func (ns *Namespace) info(msg string) {
	ns.report(Info, msg)
}

// deferred queues the given registration if a Dispatch is in
// progress.  Returns true if the registration was queued.
func (ns *Namespace) deferred(f func()) bool {
	if ns.depth == 0 {
		return false
	}
	ns.pending = append(ns.pending, f)
	return true
}

// enter notes the start of a Dispatch.
func (ns *Namespace) enter() {
	ns.depth++
}

// leave notes the end of a Dispatch.  When the outermost Dispatch
// ends, the queued registrations are applied in the order they were
// made.
func (ns *Namespace) leave() {
	ns.depth--
	if ns.depth != 0 || len(ns.pending) == 0 {
		return
	}
	pending := ns.pending
	ns.pending = nil
	ns.info("applying registrations made during dispatch")
	for _, f := range pending {
		f()
	}
}

// Namespaces holds Namespaces by name.
//
// Unlike a Namespace, a Namespaces is safe for concurrent use.
type Namespaces struct {
	sync.Mutex

	diag Diagnostics
	m    map[string]*Namespace
}

// NewNamespaces makes an empty collection.  Namespaces it creates
// report to the given Diagnostics (or to a LogDiagnostics if nil).
func NewNamespaces(d Diagnostics) *Namespaces {
	if d == nil {
		d = &LogDiagnostics{}
	}
	return &Namespaces{
		diag: d,
		m:    make(map[string]*Namespace, 4),
	}
}

// Get returns the Namespace with the given name, creating it if
// necessary.
//
// The empty name is the default Namespace.  A reserved name is
// reported, and the default Namespace is returned instead.
func (nss *Namespaces) Get(name string) *Namespace {
	nss.Lock()
	defer nss.Unlock()

	if name != "" && IsReserved(name) {
		nss.diag.Report(Error, "estructura: "+(&ReservedName{Name: name}).Error())
		name = ""
	}

	ns, have := nss.m[name]
	if !have {
		ns = NewNamespace(name, nss.diag)
		nss.m[name] = ns
	}
	return ns
}

// Names returns the names of the Namespaces that exist.
func (nss *Namespaces) Names() []string {
	nss.Lock()
	acc := make([]string, 0, len(nss.m))
	for name := range nss.m {
		acc = append(acc, name)
	}
	nss.Unlock()
	sort.Strings(acc)
	return acc
}

// DefaultNamespaces is the process-wide collection used by Get.
var DefaultNamespaces = NewNamespaces(nil)

// Get returns the named Namespace from DefaultNamespaces.
func Get(name string) *Namespace {
	return DefaultNamespaces.Get(name)
}
