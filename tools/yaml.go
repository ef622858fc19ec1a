package tools

import (
	"github.com/Comcast/estructura/core"

	"gopkg.in/yaml.v2"
)

// FunctionMarker stands in for a function in TreeYAML output.
const FunctionMarker = "(function)"

// TreeYAML renders the shape of a dispatch tree as YAML.
//
// A node with a function and no children is FunctionMarker.  A node
// with children is a mapping (in registration order), and if that
// node also has a function, the mapping starts with FunctionMarker:
// true.
func TreeYAML(root *core.Node) ([]byte, error) {
	return yaml.Marshal(shape(root))
}

func shape(n *core.Node) interface{} {
	keys := n.Keys()
	if len(keys) == 0 && n.Func() != nil {
		return FunctionMarker
	}
	acc := make(yaml.MapSlice, 0, len(keys)+1)
	if n.Func() != nil {
		acc = append(acc, yaml.MapItem{Key: FunctionMarker, Value: true})
	}
	for _, k := range keys {
		c, _ := n.Child(k)
		acc = append(acc, yaml.MapItem{Key: k, Value: shape(c)})
	}
	return acc
}
