package presets

import (
	"reflect"
	"strings"

	"github.com/Comcast/estructura/core"

	"golang.org/x/net/html"
)

// HTMLNodes is the name of the preset for golang.org/x/net/html
// values.
//
// An *html.Node becomes a Document, Node, Text, Comment, or Doctype.
// An element Node is refined by its tag (Node.DIV, Node.A, ...).  A
// []*html.Node is Nodes.
//
// Importing this package also changes what object-constructors says
// about an *html.Node: Text and Comment nodes are a Node, and other
// nodes get no constructor subtype.  So a Document is not a Node.
const HTMLNodes = "html-nodes"

func htmlConstructor(x interface{}) string {
	n := x.(*html.Node)
	if n == nil {
		return ""
	}
	switch n.Type {
	case html.TextNode, html.CommentNode:
		return "Node"
	}
	return ""
}

func htmlCategory(x interface{}) string {
	switch vv := x.(type) {
	case []*html.Node:
		return "Nodes"
	case *html.Node:
		if vv == nil {
			return ""
		}
		switch vv.Type {
		case html.DocumentNode:
			return "Document"
		case html.ElementNode:
			return "Node"
		case html.TextNode:
			return "Text"
		case html.CommentNode:
			return "Comment"
		case html.DoctypeNode:
			return "Doctype"
		}
	}
	return ""
}

func htmlTag(x interface{}, current string, _ *core.TypeList) (interface{}, error) {
	n, is := x.(*html.Node)
	if !is || n == nil || n.Type != html.ElementNode {
		return false, nil
	}
	return current + "." + strings.ToUpper(n.Data), nil
}

func htmlNodes() core.Defs {
	return core.Defs{
		{Name: core.ObjectType, Value: htmlCategory},
		{Name: "Node", Value: core.Predicate(htmlTag)},
		{Name: "Document", Value: "Browser"},
	}
}

func init() {
	core.RegisterPreset(HTMLNodes, htmlNodes)
	core.RegisterConstructorName(reflect.TypeOf((*html.Node)(nil)), htmlConstructor)
}
