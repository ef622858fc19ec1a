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

import (
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/estructura/core"
)

type MermaidOpts struct {
	// HandlerFill is the fill color for nodes with functions.
	// Does not apply if HandlerClass is set.
	HandlerFill string `json:"handlerFill,omitempty"`

	// HandlerClass will be the CSS class for nodes with
	// functions.
	HandlerClass string `json:"handlerClass,omitempty"`

	// ShowKinds appends the node kind to each label.
	ShowKinds bool `json:"showKinds,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given dispatch tree.
func Mermaid(root *core.Node, w io.WriteCloser, opts *MermaidOpts) error {

	if opts == nil {
		opts = &MermaidOpts{
			HandlerFill: "#bcf2db",
		}
	}

	fmt.Fprintf(w, "graph LR\n")

	var classed []string

	err := root.Walk(func(path []string, n *core.Node) error {
		id := nodeId(path)
		label := nodeLabel(path)
		if opts.ShowKinds {
			label += " (" + n.Kind().String() + ")"
		}
		label = strings.Replace(label, `"`, `'`, -1)

		if n.Kind() == core.MethodSet {
			fmt.Fprintf(w, "  %s(\"%s\")\n", id, label)
		} else {
			fmt.Fprintf(w, "  %s[\"%s\"]\n", id, label)
			switch {
			case opts.HandlerClass != "":
				classed = append(classed, id)
			case opts.HandlerFill != "":
				fmt.Fprintf(w, "  style %s fill:%s\n", id, opts.HandlerFill)
			}
		}

		if 0 < len(path) {
			fmt.Fprintf(w, "  %s --> %s\n", nodeId(path[:len(path)-1]), id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if 0 < len(classed) {
		fmt.Fprintf(w, "  class %s %s\n", strings.Join(classed, ","), opts.HandlerClass)
	}

	fmt.Fprintf(w, "\n")

	return w.Close()
}
