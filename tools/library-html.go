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
	"html"
	"io"
	"strings"

	"github.com/Comcast/estructura/library"

	md "github.com/russross/blackfriday/v2"
)

// RenderLibraryHTML writes an HTML fragment describing the library:
// its (Markdown) doc, its subtypes, and its dispatch tree with
// sources.
func RenderLibraryHTML(lib *library.Library, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	if lib.Doc != "" {
		f(`<div class="libraryDoc doc">%s</div>`, md.Run([]byte(lib.Doc)))
	}

	if 0 < len(lib.Presets) {
		f(`<div class="presets">presets: <code>%s</code></div>`, html.EscapeString(strings.Join(lib.Presets, ", ")))
	}

	if 0 < len(lib.Subtypes) {
		f(`<h2>Subtypes</h2>`)
		f(`<div class="subtypes"><table>`)
		var walk func(parent string, es library.Entries)
		walk = func(parent string, es library.Entries) {
			for _, e := range es {
				v := e.Value
				if v != nil && v.Map != nil && !v.IsSource() {
					walk(e.Key, v.Map)
					continue
				}
				f(`<tr class="subtype"><td><span class="typeName">%s</span></td><td><span id="%s" class="typeName">%s</span></td><td>`,
					html.EscapeString(parent), html.EscapeString(e.Key), html.EscapeString(e.Key))
				switch {
				case v == nil:
				case v.IsSource():
					f(`<div class="code"><pre>%s</pre></div>`, source(v.Map.Get("source")))
				case v.List != nil:
					for _, x := range v.List {
						f(`<span class="alias">%s</span>`, html.EscapeString(fmt.Sprint(x)))
					}
				default:
					f(`<span class="alias">%s</span>`, html.EscapeString(fmt.Sprint(v.Scalar)))
				}
				f(`</td></tr>`)
			}
		}
		walk("", lib.Subtypes)
		f(`</table></div>`)
	}

	if 0 < len(lib.Dispatch) {
		f(`<h2>Dispatch</h2>`)
		f(`<div class="dispatch"><table>`)
		var walk func(path []string, es library.Entries)
		walk = func(path []string, es library.Entries) {
			for _, e := range es {
				p := append(append([]string{}, path...), e.Key)
				v := e.Value
				if v != nil && v.Map != nil && !v.IsSource() {
					walk(p, v.Map)
					continue
				}
				f(`<tr class="fn"><td><code>%s</code></td><td>`, html.EscapeString(strings.Join(p, " / ")))
				src := v
				if v != nil && v.IsSource() {
					src = v.Map.Get("source")
				}
				f(`<div class="code"><pre>%s</pre></div>`, source(src))
				f(`</td></tr>`)
			}
		}
		walk(nil, lib.Dispatch)
		f(`</table></div>`)
	}

	if lib.Handler != nil {
		f(`<h2>Handler</h2>`)
		f(`<div class="code"><pre>%s</pre></div>`, source(lib.Handler))
	}

	return nil
}

func source(n *library.Node) string {
	if n == nil {
		return ""
	}
	x := n.Plain()
	if s, is := x.(string); is {
		return html.EscapeString(s)
	}
	return html.EscapeString(fmt.Sprintf("%#v", x))
}

// RenderLibraryPage writes a complete HTML page for the library.
func RenderLibraryPage(lib *library.Library, out io.Writer, cssFiles []string) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/library-html.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, html.EscapeString(lib.Name))

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(lib.Name))

	if err := RenderLibraryHTML(lib, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderLibraryPage reads a library file and writes its page.
func ReadAndRenderLibraryPage(filename string, cssFiles []string, out io.Writer) error {
	lib, err := ReadLibrary(filename)
	if err != nil {
		return err
	}
	return RenderLibraryPage(lib, out, cssFiles)
}
