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

// Package sio couples a core.Namespace to message input and output.
//
// A Service reads messages from its Couplings, dispatches each one
// through a Namespace, calls the requested methods, and writes a
// Result that includes any messages emitted along the way.
package sio

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Comcast/estructura/core"
	"github.com/Comcast/estructura/util"

	"github.com/google/uuid"
)

// ServiceConf provides some basic Service parameters.
type ServiceConf struct {
	// Namespace is the name of the core.Namespace to dispatch
	// through.  Empty means the default.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Calls are methods to call on every dispatch result (in
	// addition to those a message requests).
	Calls []string `json:"calls,omitempty" yaml:"calls,omitempty"`

	// HaltOnInputEOF stops the Loop when the Couplings' input is
	// exhausted.
	HaltOnInputEOF bool `json:"haltOnInputEOF,omitempty" yaml:"haltOnInputEOF,omitempty"`
}

// Emitter gives up the messages that handlers and methods emitted.
//
// A *goja.Outbox is an Emitter.
type Emitter interface {
	Drain() []interface{}
}

// Call is the outcome of calling a method on a dispatch result.
type Call struct {
	Method string      `json:"method"`
	Value  interface{} `json:"value,omitempty"`
	Err    string      `json:"err,omitempty"`
}

// Result represents all visible output from processing a message.
type Result struct {
	Id  string      `json:"id"`
	Msg interface{} `json:"msg"`

	// Types has the TypeList for each dispatched value.
	Types []*core.TypeList `json:"types"`

	// Methods are the names of the methods that dispatch found.
	Methods []string `json:"methods"`

	Calls []*Call `json:"calls,omitempty"`

	// Emitted are the messages emitted during processing in the
	// order they were emitted.
	Emitted []interface{} `json:"emitted,omitempty"`

	Err string `json:"err,omitempty"`
}

// Service dispatches in-bound messages through a Namespace, with I/O
// coupled via two channels (in and out).
type Service struct {
	Conf *ServiceConf

	Namespace *core.Namespace

	// Emitter is optional.
	Emitter Emitter

	// Verbose turns on logging.
	Verbose bool

	in   chan interface{}
	out  chan *Result
	done chan bool

	// mu serializes ProcessMsg calls.  A Namespace isn't safe for
	// concurrent use, and an HTTP coupling can process a message
	// outside of the Loop.
	mu sync.Mutex
}

// NewService makes a Service with the given configuration and
// couplings.  The Namespace comes from nss.
//
// The couplings' IO() method is called to obtain the Service's
// in/out channels.
func NewService(ctx context.Context, conf *ServiceConf, nss *core.Namespaces, couplings Couplings) (*Service, error) {
	in, out, done, err := couplings.IO(ctx)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		conf = &ServiceConf{}
	}
	if nss == nil {
		nss = core.DefaultNamespaces
	}
	return &Service{
		Conf:      conf,
		Namespace: nss.Get(conf.Namespace),
		in:        in,
		out:       out,
		done:      done,
	}, nil
}

// Logf logs if s.Verbose.
func (s *Service) Logf(format string, args ...interface{}) {
	if !s.Verbose {
		return
	}
	log.Printf(format, args...)
}

// Errorf logs unconditionally.
func (s *Service) Errorf(format string, args ...interface{}) {
	log.Printf("error: "+format, args...)
}

// Args returns the values to dispatch for the given message.
//
// A map with an "args" array dispatches the elements of that array.
// Anything else is dispatched as a single value.
func Args(msg interface{}) []interface{} {
	if m, is := msg.(map[string]interface{}); is {
		if xs, is := m["args"].([]interface{}); is {
			return xs
		}
	}
	return []interface{}{msg}
}

// Requested returns the method names in the message's "call"
// property, which can be a string or an array of strings.
func Requested(msg interface{}) ([]string, error) {
	m, is := msg.(map[string]interface{})
	if !is {
		return nil, nil
	}
	switch vv := m["call"].(type) {
	case nil:
		return nil, nil
	case string:
		return []string{vv}, nil
	case []interface{}:
		acc := make([]string, 0, len(vv))
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				return nil, fmt.Errorf("bad method name %#v (%T)", x, x)
			}
			acc = append(acc, s)
		}
		return acc, nil
	default:
		return nil, fmt.Errorf("bad call %#v (%T)", vv, vv)
	}
}

// ProcessMsg dispatches the message and calls methods on the
// dispatch result.
//
// Methods named in s.Conf.Calls are only called if the result has
// them.  Methods the message requests are always called, and a
// missing one is reported in the Call.
func (s *Service) ProcessMsg(ctx context.Context, msg interface{}) (*Result, error) {
	s.Logf("ProcessMsg %s", JShort(msg))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := &Result{
		Id:      uuid.New().String(),
		Msg:     msg,
		Methods: []string{},
	}

	requested, err := Requested(msg)
	if err != nil {
		r.Err = err.Error()
		return r, nil
	}

	args := Args(msg)
	res := s.Namespace.Dispatch(args...)
	r.Methods = res.Names()

	// Reuse the classifications Dispatch made.  Values it never
	// reached still get typed here, once.
	r.Types = res.Types()
	for i, ts := range r.Types {
		if ts == nil {
			r.Types[i] = s.Namespace.Type(args[i])
		}
	}

	for _, name := range s.Conf.Calls {
		if res.Has(name) {
			r.Calls = append(r.Calls, s.call(res, name))
		}
	}
	for _, name := range requested {
		r.Calls = append(r.Calls, s.call(res, name))
	}

	if s.Emitter != nil {
		r.Emitted = s.Emitter.Drain()
	}

	return r, nil
}

func (s *Service) call(res *core.Result, name string) *Call {
	c := &Call{
		Method: name,
	}
	x, err := res.Invoke(name)
	if err != nil {
		c.Err = err.Error()
		return c
	}
	if c.Value, err = util.Canonicalize(x); err != nil {
		c.Err = err.Error()
	}
	return c
}

// Loop starts the input processing loop in the current goroutine.
//
// The loop runs until the context is done, a nil message arrives,
// or (if s.Conf.HaltOnInputEOF) the input is exhausted.
func (s *Service) Loop(ctx context.Context) error {
	s.Logf("Service.Loop starting")
	done := s.done
LOOP:
	for {
		select {
		case <-done:
			if s.Conf.HaltOnInputEOF {
				s.Logf("Service.Loop shutting down (done)")
				break LOOP
			}
			done = nil
		case <-ctx.Done():
			s.Logf("Service.Loop shutting down (ctx.Done)")
			break LOOP
		case msg := <-s.in:
			if msg == nil {
				break LOOP
			}
			r, err := s.ProcessMsg(ctx, msg)
			if err != nil {
				s.Errorf("Service.Loop ProcessMsg %s", err)
				continue
			}
			select {
			case <-ctx.Done():
			case s.out <- r:
			}
		}
	}

	s.Logf("Service.Loop done")
	return nil
}
