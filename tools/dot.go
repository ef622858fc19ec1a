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

package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/estructura/core"
)

// nodeId makes a Graphviz/Mermaid-safe id for the node at the given
// path.
func nodeId(path []string) string {
	if len(path) == 0 {
		return "root"
	}
	var b strings.Builder
	b.WriteString("n")
	for _, k := range path {
		b.WriteString("_")
		for _, r := range k {
			if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
				b.WriteRune(r)
			} else {
				fmt.Fprintf(&b, "x%x", r)
			}
		}
	}
	return b.String()
}

func nodeLabel(path []string) string {
	if len(path) == 0 {
		return core.AnyType
	}
	return path[len(path)-1]
}

// onPath reports whether path is a prefix of highlight.
func onPath(path, highlight []string) bool {
	if len(highlight) == 0 || len(highlight) < len(path) {
		return false
	}
	for i, k := range path {
		if highlight[i] != k {
			return false
		}
	}
	return true
}

// Dot makes a Graphviz dot file for the given dispatch tree.
//
// Nodes on the optional highlight path (a sequence of keys from the
// root) are red.
func Dot(root *core.Node, w io.WriteCloser, highlight []string) error {

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=LR,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	err := root.Walk(func(path []string, n *core.Node) error {
		id := nodeId(path)

		fillcolor := "#99ddc8"
		shape := "record"
		style := "rounded,filled"
		switch n.Kind() {
		case core.Handler:
			fillcolor = "#52aa5e"
			shape = "note"
			style = "filled"
		case core.Hybrid:
			fillcolor = "#2d93ad"
			shape = "note"
			style = "filled,bold"
		}
		color := "black"
		if onPath(path, highlight) {
			color = "red"
			fillcolor = "#f98b8b"
		}
		label := escape(nodeLabel(path))
		if 0 < len(path) && n.Kind() != core.MethodSet && len(n.Keys()) == 0 {
			label += "()"
		}
		fmt.Fprintf(w, "  %s [shape=\"%s\", style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=\"%s\" ]\n",
			id, shape, style, color, fillcolor, label)

		if 0 < len(path) {
			edge := "black"
			if onPath(path, highlight) {
				edge = "red"
			}
			fmt.Fprintf(w, "  %s -> %s [ color=\"%s\" ]\n",
				nodeId(path[:len(path)-1]), id, edge)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(root *core.Node, basename string, highlight []string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(root, dotfile, highlight); err != nil {
		return pngname, err
	}
	cmd := "dot -Tpng " + dotname + " > " + pngname
	if err := exec.Command("bash", "-c", cmd).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func escape(s string) string {
	return strings.Replace(s, `"`, `\"`, -1)
}
