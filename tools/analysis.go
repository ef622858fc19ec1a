package tools

import (
	"sort"
	"strings"

	"github.com/Comcast/estructura/core"
)

// baseTypes are the names that Type can report without any subtype
// definitions.
var baseTypes = []string{
	core.UndefinedType,
	core.NullType,
	core.FunctionType,
	core.StringType,
	core.BigIntType,
	core.SymbolType,
	core.ObjectType,
	core.BooleanType,
	core.NumberType,
	core.NaNType,
}

// Collision is a method name defined at more than one node at the
// same depth.  A value whose types reach more than one of those nodes
// gets the method from the most general type.
type Collision struct {
	Method string   `json:"method"`
	Paths  []string `json:"paths"`
}

// TreeAnalysis summarizes a Namespace's dispatch tree and subtype
// definitions.
type TreeAnalysis struct {
	NodeCount int `json:"nodes"`

	// Functions counts the nodes with functions, which includes
	// methods.
	Functions int `json:"functions"`
	Hybrids   int `json:"hybrids"`
	Methods   int `json:"methods"`

	// Depth is the longest path from the root.
	Depth int `json:"depth"`

	GlobalHandler bool     `json:"globalHandler,omitempty"`
	GlobalMethods []string `json:"globalMethods,omitempty"`

	Collisions []*Collision `json:"collisions,omitempty"`

	// UnknownTypes are keys used as types in the tree that are
	// neither base types nor defined subtypes.  Often typos.
	UnknownTypes []string `json:"unknownTypes,omitempty"`

	Subtypes   int `json:"subtypes"`
	Predicates int `json:"predicates"`
	Aliases    int `json:"aliases"`
}

// Analyze examines the Namespace's dispatch tree and subtypes.
func Analyze(ns *core.Namespace) *TreeAnalysis {
	a := &TreeAnalysis{}

	known := make(map[string]bool, 32)
	known[core.AnyType] = true
	for _, name := range baseTypes {
		known[name] = true
	}
	for _, name := range ns.SubtypeNames() {
		known[name] = true
		for _, d := range ns.Detectors(name) {
			a.Subtypes++
			known[d.Name] = true
			if d.Alias != "" {
				a.Aliases++
				known[d.Alias] = true
			}
			if d.Predicate {
				a.Predicates++
			}
		}
	}

	var (
		unknown = make(map[string]bool)
		// methods maps depth, then method name, to paths.
		methods = make(map[int]map[string][]string)
	)

	ns.Tree().Walk(func(path []string, n *core.Node) error {
		if len(path) == 0 {
			a.GlobalHandler = n.Func() != nil
			a.GlobalMethods = n.Methods()
			return nil
		}
		a.NodeCount++
		if a.Depth < len(path) {
			a.Depth = len(path)
		}

		if n.Func() != nil {
			a.Functions++
		}
		if n.Kind() == core.Hybrid {
			a.Hybrids++
		}

		if n.Kind() != core.Handler {
			// Used as a type.
			if k := path[len(path)-1]; !known[k] {
				unknown[k] = true
			}
		}

		for _, m := range n.Methods() {
			a.Methods++
			d := len(path)
			if methods[d] == nil {
				methods[d] = make(map[string][]string)
			}
			methods[d][m] = append(methods[d][m], strings.Join(path, "."))
		}
		return nil
	})

	for _, byName := range methods {
		for m, paths := range byName {
			if 1 < len(paths) {
				a.Collisions = append(a.Collisions, &Collision{
					Method: m,
					Paths:  paths,
				})
			}
		}
	}
	sort.Slice(a.Collisions, func(i, j int) bool {
		ci, cj := a.Collisions[i], a.Collisions[j]
		if ci.Method != cj.Method {
			return ci.Method < cj.Method
		}
		return ci.Paths[0] < cj.Paths[0]
	})

	a.UnknownTypes = sortedKeys(unknown)

	return a
}

func sortedKeys(m map[string]bool) []string {
	var acc []string
	for k := range m {
		acc = append(acc, k)
	}
	sort.Strings(acc)
	return acc
}
