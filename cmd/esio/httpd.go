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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Comcast/estructura/sio"
)

// HTTPDCouplings implements an sio.Couplings based on a HTTP service.
//
// POST a message to /in.  With "sync=true", the response is the
// Result of processing the message.  Otherwise the message is queued
// for the Service's Loop, and its Result shows up in /history, which
// supports long-polling.
type HTTPDCouplings struct {
	Addr string

	// HistorySize is the number of Results that /history retains.
	HistorySize int

	// Service, if set, processes "sync=true" messages directly.
	Service *sio.Service

	in   chan interface{}
	out  chan *sio.Result
	done chan bool

	hist   *History
	server *http.Server
}

// NewHTTPDCouplings parses the command-line flags to generate an
// HTTPDCouplings.
//
// To help with command-line usage reporting, this function also
// returns the flag.FlagSet used to process the command-line args.
func NewHTTPDCouplings(args []string) (*HTTPDCouplings, *flag.FlagSet) {
	c := &HTTPDCouplings{}
	fs := flag.NewFlagSet("httpd", flag.ExitOnError)
	fs.StringVar(&c.Addr, "addr", "localhost:8080", "Address (host:port) for HTTP service")
	fs.IntVar(&c.HistorySize, "history", 1024, "Number of Results to keep for /history")
	if args == nil {
		return nil, fs
	}
	fs.Parse(args)
	c.init()
	return c, fs
}

func (c *HTTPDCouplings) init() {
	if c.HistorySize <= 0 {
		c.HistorySize = 1024
	}
	c.in = make(chan interface{})
	c.out = make(chan *sio.Result)
	c.done = make(chan bool)
	c.hist = NewHistory(c.HistorySize)
}

func punt(w http.ResponseWriter, status int, format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	log.Println(s)

	js, err := json.Marshal(map[string]interface{}{
		"error": s,
	})
	if err != nil {
		js = []byte(strconv.Quote(s))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, "%s\n", js)
}

func reply(w http.ResponseWriter, x interface{}) {
	js, err := json.Marshal(x)
	if err != nil {
		punt(w, http.StatusInternalServerError, "Marshal error %v on %#v", err, x)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, "%s\n", js)
}

// Handler makes the HTTP handler.  The context bounds long-polls and
// queued messages.
func (c *HTTPDCouplings) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "\"pong\"\n")
	})

	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		var since int64
		if n, err := strconv.ParseInt(r.FormValue("since"), 10, 64); err == nil {
			since = n
		}

		timeout, err := time.ParseDuration(r.FormValue("timeout"))
		if err != nil {
			timeout = 10 * time.Second
		}

		reply(w, c.hist.Get(r.Context(), since, timeout))
	})

	mux.HandleFunc("/in", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			punt(w, http.StatusMethodNotAllowed, "POST a message")
			return
		}
		bs, err := io.ReadAll(r.Body)
		if err != nil {
			punt(w, http.StatusBadRequest, "ReadAll error %v", err)
			return
		}

		msg, err := sio.ParseMsg(string(bs))
		if err != nil {
			punt(w, http.StatusBadRequest, "ParseMsg error %v on %s", err, bs)
			return
		}
		if msg == nil {
			punt(w, http.StatusBadRequest, "no message")
			return
		}

		if r.FormValue("sync") == "true" {
			if c.Service == nil {
				punt(w, http.StatusServiceUnavailable, "no service")
				return
			}
			res, err := c.Service.ProcessMsg(ctx, msg)
			if err != nil {
				punt(w, http.StatusInternalServerError, "ProcessMsg error %v", err)
				return
			}
			c.hist.Add(res)
			reply(w, res)
			return
		}

		select {
		case <-ctx.Done():
			punt(w, http.StatusServiceUnavailable, "shutting down")
		case <-r.Context().Done():
		case c.in <- msg:
			reply(w, map[string]interface{}{})
		}
	})

	return mux
}

// Start creates the HTTP service and starts processing it.
func (c *HTTPDCouplings) Start(ctx context.Context) error {
	if c.in == nil {
		c.init()
	}

	c.server = &http.Server{
		Addr:           c.Addr,
		Handler:        c.Handler(ctx),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   time.Minute,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting HTTP service on %s", c.Addr)
		if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("ListenAndServe error %v", err)
		}
	}()

	go c.record(ctx)

	return nil
}

// record adds the Service's Results to the history.
func (c *HTTPDCouplings) record(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-c.out:
			c.hist.Add(r)
		}
	}
}

// IO just returns the channels that Start() initialized.
func (c *HTTPDCouplings) IO(ctx context.Context) (chan interface{}, chan *sio.Result, chan bool, error) {
	return c.in, c.out, c.done, nil
}

// Stop terminates the HTTP service.
func (c *HTTPDCouplings) Stop(ctx context.Context) error {
	log.Printf("Stopping HTTP service")
	close(c.done)
	if c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}

// Nothings is a channel of nothing.
//
// A Nothings can be used as a semaphore.
type Nothings chan struct{}

// Signals is sort of sequence of semaphores that can be used to
// report when a new Result has arrived.
type Signals struct {
	sync.Mutex
	c Nothings
}

func NewSignals() *Signals {
	return &Signals{
		c: make(Nothings),
	}
}

// Signal tells the Signals that something has happened.
func (s *Signals) Signal() {
	s.Lock()
	close(s.c)
	s.c = make(Nothings)
	s.Unlock()
}

// C returns a channel that is closed upon a Signal().
func (s *Signals) C() Nothings {
	s.Lock()
	c := s.c
	s.Unlock()
	return c
}

// History is a bounded buffer of Results.  Each Result gets a
// sequence number starting at 1.
type History struct {
	sync.RWMutex
	sigs   *Signals
	last   int64
	limit  int
	buffer []HistoryResult
}

// NewHistory makes a History that keeps the last size Results (at
// least one).
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{
		limit:  size,
		sigs:   NewSignals(),
		buffer: make([]HistoryResult, 0, size),
	}
}

// HistoryResult associates a number with a Result.
type HistoryResult struct {
	N      int64       `json:"n"`
	Result *sio.Result `json:"result"`
}

// Add appends the Result, dropping the oldest if the History is
// full, and wakes up any waiting Get.
func (h *History) Add(r *sio.Result) {
	h.Lock()
	if h.limit <= len(h.buffer) {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[0 : h.limit-1]
	}
	h.last++
	h.buffer = append(h.buffer, HistoryResult{
		N:      h.last,
		Result: r,
	})
	h.Unlock()
	h.sigs.Signal()
}

// get returns a copy of the Results numbered after since.
func (h *History) get(since int64) []HistoryResult {
	h.RLock()
	defer h.RUnlock()

	first := h.last - int64(len(h.buffer))
	if since < first {
		since = first
	}
	if h.last < since {
		since = h.last
	}
	rs := h.buffer[since-first:]
	acc := make([]HistoryResult, len(rs))
	copy(acc, rs)
	return acc
}

// Get obtains Results numbered after since.
//
// When there aren't any, this method blocks, up to the given
// timeout, until a new Result arrives.
func (h *History) Get(ctx context.Context, since int64, timeout time.Duration) []HistoryResult {
	// Get the channel before looking so that an Add in between
	// isn't missed.
	wait := h.sigs.C()
	rs := h.get(since)
	if 0 < len(rs) {
		return rs
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	case <-wait:
		rs = h.get(since)
	}
	return rs
}
