package library

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v2"
)

// Entry is a key and its value.
type Entry struct {
	Key   string
	Value *Node
}

// Entries is an ordered mapping.
type Entries []Entry

// Get returns the value for the key (or nil).
func (es Entries) Get(key string) *Node {
	for _, e := range es {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Keys returns the keys in order.
func (es Entries) Keys() []string {
	acc := make([]string, len(es))
	for i, e := range es {
		acc[i] = e.Key
	}
	return acc
}

// UnmarshalYAML reads a mapping, preserving the order of its keys.
func (es *Entries) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ordered yaml.MapSlice
	if err := unmarshal(&ordered); err != nil {
		return err
	}
	var values map[string]*Node
	if err := unmarshal(&values); err != nil {
		return err
	}
	acc := make(Entries, 0, len(ordered))
	for _, item := range ordered {
		k := fmt.Sprint(item.Key)
		acc = append(acc, Entry{
			Key:   k,
			Value: values[k],
		})
	}
	*es = acc
	return nil
}

func (es Entries) MarshalYAML() (interface{}, error) {
	acc := make(yaml.MapSlice, 0, len(es))
	for _, e := range es {
		acc = append(acc, yaml.MapItem{
			Key:   e.Key,
			Value: e.Value,
		})
	}
	return acc, nil
}

// MarshalJSON renders the Entries as a JSON object.  Key order is
// preserved.
func (es Entries) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, e := range es {
		if 0 < i {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

// Node is a value in a library: a scalar, a list, or an ordered
// mapping.  Exactly one of Scalar, List, and Map is meaningful.
type Node struct {
	Scalar interface{}
	List   []interface{}
	Map    Entries
}

// IsSource reports whether the Node is a map with a "source".
func (n *Node) IsSource() bool {
	return n != nil && n.Map.Get("source") != nil
}

// UnmarshalYAML tries a mapping, then a list, then a scalar.
func (n *Node) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var es Entries
	if err := unmarshal(&es); err == nil {
		n.Map = es
		if n.Map == nil {
			n.Map = Entries{}
		}
		return nil
	}
	var xs []interface{}
	if err := unmarshal(&xs); err == nil {
		n.List = xs
		return nil
	}
	return unmarshal(&n.Scalar)
}

func (n *Node) MarshalYAML() (interface{}, error) {
	if n.Map != nil {
		return n.Map, nil
	}
	return n.Plain(), nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n != nil && n.Map != nil {
		return n.Map.MarshalJSON()
	}
	return json.Marshal(n.Plain())
}

// Plain returns the Node as ordinary values.  Mappings become
// map[string]interface{}.
func (n *Node) Plain() interface{} {
	if n == nil {
		return nil
	}
	switch {
	case n.Map != nil:
		m := make(map[string]interface{}, len(n.Map))
		for _, e := range n.Map {
			m[e.Key] = e.Value.Plain()
		}
		return m
	case n.List != nil:
		return n.List
	default:
		return n.Scalar
	}
}
