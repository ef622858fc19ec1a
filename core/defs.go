package core

import (
	"sort"
)

// Def is a single named definition for Fn or Subtype.
type Def struct {
	Name  string
	Value interface{}
}

// Defs is an ordered collection of definitions.
//
// Order matters to Subtype (the most recently registered subtype
// definition is tested first) and determines the order of methods in
// a MethodSet.  A map[string]interface{} works, too, but its entries
// are processed in sorted order.
type Defs []Def

// Methods is a convenient way to write a MethodSet.  Its entries are
// processed in sorted order.
type Methods map[string]Func

// Get returns the value for the first definition with the given name.
func (ds Defs) Get(name string) (interface{}, bool) {
	for _, d := range ds {
		if d.Name == name {
			return d.Value, true
		}
	}
	return nil, false
}

// With returns a copy of the Defs with the given definition appended.
func (ds Defs) With(name string, value interface{}) Defs {
	acc := make(Defs, len(ds), len(ds)+1)
	copy(acc, ds)
	return append(acc, Def{
		Name:  name,
		Value: value,
	})
}

// AsDefs converts a mapping into Defs.
//
// Supported: Defs, Methods, map[string]interface{}, and
// map[string]Func.
func AsDefs(x interface{}) (Defs, bool) {
	switch vv := x.(type) {
	case Defs:
		return vv, vv != nil
	case []Def:
		return Defs(vv), vv != nil
	case map[string]interface{}:
		if vv == nil {
			return nil, false
		}
		acc := make(Defs, 0, len(vv))
		for _, k := range sortedKeys(vv) {
			acc = append(acc, Def{Name: k, Value: vv[k]})
		}
		return acc, true
	case Methods:
		return funcMapDefs(vv)
	case map[string]Func:
		return funcMapDefs(vv)
	default:
		return nil, false
	}
}

func funcMapDefs(m map[string]Func) (Defs, bool) {
	if m == nil {
		return nil, false
	}
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	acc := make(Defs, 0, len(m))
	for _, k := range ks {
		acc = append(acc, Def{Name: k, Value: m[k]})
	}
	return acc, true
}

func sortedKeys(m map[string]interface{}) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
