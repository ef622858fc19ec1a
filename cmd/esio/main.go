/* Copyright 2019 Comcast Cable Communications Management, LLC
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

// Package main is a single-namespace dispatch process that reads
// messages from stdin, an MQTT broker, a WebSocket, or HTTP requests
// and writes what dispatch finds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Comcast/estructura/core"
	"github.com/Comcast/estructura/diag"
	"github.com/Comcast/estructura/interpreters"
	"github.com/Comcast/estructura/interpreters/goja"
	"github.com/Comcast/estructura/sio"
	"github.com/Comcast/estructura/storage"
	"github.com/Comcast/estructura/storage/bolt"
	"github.com/Comcast/estructura/tools"
	"github.com/Comcast/estructura/util"
)

func main() {

	var (
		coupling = flag.String("io", "std", `IO protocol: "std", "mq", "ws", or "http"`)

		libs     = flag.String("lib", "", "Library filenames (comma-separated)")
		dbFile   = flag.String("db", "", "Optional BoltDB filename for storing and loading libraries")
		ns       = flag.String("ns", "", "Namespace (default if empty)")
		calls    = flag.String("call", "", "Methods to call for every message (comma-separated)")
		throttle = flag.Duration("throttle", diag.DefaultInterval, "Diagnostics throttle interval")
		timeout  = flag.Duration("timeout", goja.DefaultTimeout, "Timeout for each ECMAScript call")

		wait      = flag.Duration("wait", time.Second, "Wait this long before shutting down couplings")
		haltOnEOF = flag.Bool("halt-on-eof", false, "Stop on input EOF")
		verbose   = flag.Bool("v", false, "Verbose")
		help      = flag.Bool("h", false, "Get usage")
	)

	flag.Parse()

	if *help {
		flag.PrintDefaults()

		{
			fmt.Fprintf(os.Stderr, "\n-io std (default):\n\n")
			_, fs := NewStdCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io mq:\n\n")
			_, fs := NewMQTTCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io ws:\n\n")
			_, fs := NewWebSocketCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io http:\n\n")
			_, fs := NewHTTPDCouplings(nil)
			fs.PrintDefaults()
		}

		os.Exit(0)
	}

	util.Logging = *verbose

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cio sio.Couplings
	switch *coupling {
	case "std":
		c, _ := NewStdCouplings(flag.Args())
		cio = c
	case "mq", "mqtt":
		c, _ := NewMQTTCouplings(flag.Args())
		cio = c
	case "ws":
		c, _ := NewWebSocketCouplings(flag.Args())
		cio = c
	case "http", "httpd":
		c, _ := NewHTTPDCouplings(flag.Args())
		cio = c
	default:
		log.Fatalf("unknown io: '%s'", *coupling)
	}

	diagnostics := diag.NewThrottle(&core.LogDiagnostics{
		Verbose: *verbose,
	})
	diagnostics.Interval = *throttle
	go diagnostics.Run(ctx)

	var (
		outbox = goja.NewOutbox()
		is     = interpreters.Standard(outbox)
		nss    = core.NewNamespaces(diagnostics)
	)
	if es, ok := is["goja"].(*goja.Interpreter); ok {
		es.Timeout = *timeout
	}

	if err := loadLibraries(ctx, split(*libs), *dbFile, *ns, nss, is); err != nil {
		log.Fatal(err)
	}

	if err := cio.Start(ctx); err != nil {
		log.Fatal(err)
	}

	conf := &sio.ServiceConf{
		Namespace:      *ns,
		Calls:          split(*calls),
		HaltOnInputEOF: *haltOnEOF,
	}

	s, err := sio.NewService(ctx, conf, nss, cio)
	if err != nil {
		log.Fatal(err)
	}
	s.Verbose = *verbose
	s.Emitter = outbox
	if h, is := cio.(*HTTPDCouplings); is {
		h.Service = s
	}

	go func() {
		if std, is := cio.(*sio.Stdio); is {
			<-std.InputEOF
			util.Logf("input EOF (waiting %v)", *wait)
			time.Sleep(*wait)
			cancel()
		}
	}()

	if err := s.Loop(ctx); err != nil {
		log.Fatal(err)
	}

	cancel()
	if err = cio.Stop(context.Background()); err != nil {
		log.Printf("error from io.Stop: %v", err)
	}
	diagnostics.Flush()
}

// loadLibraries compiles and applies the given library files.
//
// With a database, the files are stored first, and then all of the
// namespace's stored libraries are loaded.
func loadLibraries(ctx context.Context, filenames []string, dbFile, ns string, nss *core.Namespaces, is core.InterpretersMap) error {
	if dbFile == "" {
		for _, filename := range filenames {
			lib, err := tools.ReadLibrary(filename)
			if err != nil {
				return err
			}
			c, err := lib.Compile(ctx, is)
			if err != nil {
				return err
			}
			c.ApplyTo(nss)
			util.Logf("loaded %s into %s", lib.Name, nss.Get(lib.Namespace).Name())
		}
		return nil
	}

	db, err := bolt.NewStorage(dbFile)
	if err != nil {
		return err
	}
	if err = db.Open(ctx); err != nil {
		return err
	}
	defer db.Close(ctx)

	for _, filename := range filenames {
		lib, err := tools.ReadLibrary(filename)
		if err != nil {
			return err
		}
		if err = db.Put(ctx, lib); err != nil {
			return err
		}
	}

	_, err = storage.Load(ctx, db, nss, ns, is)
	return err
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	var acc []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			acc = append(acc, part)
		}
	}
	return acc
}
