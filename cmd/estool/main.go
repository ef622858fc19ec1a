// Package main is a command-line tool for libraries: renderings of
// their dispatch trees, analysis, HTML docs, and type reports.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Comcast/estructura/core"
	"github.com/Comcast/estructura/interpreters"
	"github.com/Comcast/estructura/library"
	"github.com/Comcast/estructura/sio"
	"github.com/Comcast/estructura/tools"
)

// Mod is a subcommand.
type Mod struct {
	Doc string

	// Libraries, when true, means the subcommand compiles the
	// library files given as arguments into a Namespace.
	Libraries bool

	F func(env *Env, args []string) error
}

// Env is what a subcommand gets to work with.
type Env struct {
	Ctx    context.Context
	In     io.Reader
	Out    io.Writer
	Flags  *flag.FlagSet
	Libs   []*library.Library
	NS     *core.Namespace
	Diag   *core.Recorder
	nsName *string
}

var Mods = map[string]*Mod{
	"dot": {
		Doc:       "Graphviz dot for the dispatch tree (-highlight a.b.c)",
		Libraries: true,
		F: func(env *Env, args []string) error {
			return tools.Dot(env.NS.Tree(), nopCloser{env.Out}, path(env.Flags.Lookup("highlight").Value.String()))
		},
	},
	"mermaid": {
		Doc:       "Mermaid graph for the dispatch tree",
		Libraries: true,
		F: func(env *Env, args []string) error {
			return tools.Mermaid(env.NS.Tree(), nopCloser{env.Out}, nil)
		},
	},
	"analyze": {
		Doc:       "Analysis of the dispatch tree and subtypes as JSON",
		Libraries: true,
		F: func(env *Env, args []string) error {
			a := tools.Analyze(env.NS)
			js, err := json.MarshalIndent(a, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(env.Out, "%s\n", js)
			return err
		},
	},
	"yaml": {
		Doc:       "Shape of the dispatch tree as YAML",
		Libraries: true,
		F: func(env *Env, args []string) error {
			bs, err := tools.TreeYAML(env.NS.Tree())
			if err != nil {
				return err
			}
			_, err = env.Out.Write(bs)
			return err
		},
	},
	"types": {
		Doc:       "Types for each value (JSON or YAML) read from stdin",
		Libraries: true,
		F: func(env *Env, args []string) error {
			in := bufio.NewScanner(env.In)
			for in.Scan() {
				line := strings.TrimSpace(in.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				x, err := sio.ParseMsg(line)
				if err != nil {
					return err
				}
				ts := env.NS.Type(x)
				fmt.Fprintf(env.Out, "%s %s\n", ts, sio.JS(env.NS.Dispatch(x).Names()))
			}
			return in.Err()
		},
	},
	"html": {
		Doc: "HTML page for each library (-css a.css,b.css)",
		F: func(env *Env, args []string) error {
			var css []string
			if s := env.Flags.Lookup("css").Value.String(); s != "" {
				css = strings.Split(s, ",")
			}
			for _, filename := range args {
				if err := tools.ReadAndRenderLibraryPage(filename, css, env.Out); err != nil {
					return err
				}
			}
			return nil
		},
	},
	"json": {
		Doc: "Library as JSON",
		F: func(env *Env, args []string) error {
			for _, filename := range args {
				lib, err := tools.ReadLibrary(filename)
				if err != nil {
					return err
				}
				js, err := json.MarshalIndent(lib, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(env.Out, "%s\n", js)
			}
			return nil
		},
	},
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

func path(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

func Usage(out io.Writer) {
	fmt.Fprintf(out, "Usage: estool SUBCOMMAND [FLAGS] LIBRARY...\n\n")
	for _, name := range []string{"dot", "mermaid", "analyze", "yaml", "types", "html", "json"} {
		fmt.Fprintf(out, "  %-8s %s\n", name, Mods[name].Doc)
	}
	fmt.Fprintf(out, "\nFlags: -ns NAME, -highlight PATH, -css FILES, -v\n")
}

// Run executes the subcommand named by args[0].
func Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	if len(args) < 1 {
		Usage(out)
		return fmt.Errorf("no subcommand")
	}

	mod, have := Mods[args[0]]
	if !have {
		Usage(out)
		return fmt.Errorf("unknown subcommand %q", args[0])
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	env := &Env{
		Ctx:    ctx,
		In:     in,
		Out:    out,
		Flags:  fs,
		Diag:   core.NewRecorder(),
		nsName: fs.String("ns", "", "Namespace (defaults to the first library's)"),
	}
	fs.String("highlight", "", "Dotted path to highlight")
	fs.String("css", "", "CSS files (comma-separated)")
	verbose := fs.Bool("v", false, "Print diagnostics")

	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if mod.Libraries {
		if err := env.load(fs.Args()); err != nil {
			return err
		}
	}

	err := mod.F(env, fs.Args())

	if *verbose {
		for _, d := range env.Diag.Diagnostics {
			fmt.Fprintf(os.Stderr, "%s %s\n", strings.ToUpper(d.Level.String()), d.Msg)
		}
	}

	return err
}

// load compiles the library files into a fresh Namespace.
//
// Sources are compiled with the standard interpreters, so handlers
// run (harmlessly) when the types subcommand dispatches.
func (env *Env) load(filenames []string) error {
	nss := core.NewNamespaces(env.Diag)
	is := interpreters.Standard(nil)

	name := *env.nsName
	for i, filename := range filenames {
		lib, err := tools.ReadLibrary(filename)
		if err != nil {
			return err
		}
		if i == 0 && name == "" {
			name = lib.Namespace
		}
		c, err := lib.Compile(env.Ctx, is)
		if err != nil {
			return err
		}
		c.Apply(nss.Get(name))
		env.Libs = append(env.Libs, lib)
	}

	env.NS = nss.Get(name)
	return nil
}

func main() {
	if err := Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
