package core

import (
	"log"
	"strings"
	"sync"
)

// Level is the severity of a diagnostic message.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostics receives messages about registration and dispatch
// problems.
//
// Messages are already qualified by namespace.  Whether a message is
// delivered right away, batched, or dropped is up to the
// implementation.
type Diagnostics interface {
	Report(level Level, msg string)
}

// DiagnosticsFunc adapts a function to the Diagnostics interface.
type DiagnosticsFunc func(level Level, msg string)

func (f DiagnosticsFunc) Report(level Level, msg string) {
	f(level, msg)
}

// LogDiagnostics writes each message with log.Printf.
//
// Info messages are only written if Verbose is true.
type LogDiagnostics struct {
	Verbose bool
}

func (d *LogDiagnostics) Report(level Level, msg string) {
	if level == Info && !d.Verbose {
		return
	}
	log.Printf("%s %s", strings.ToUpper(level.String()), msg)
}

// Diagnostic is a message captured by a Recorder.
type Diagnostic struct {
	Level Level  `json:"level"`
	Msg   string `json:"msg"`
}

// Recorder is a Diagnostics that remembers what it's told.
//
// Useful for tests and tools.  Safe for concurrent use.
type Recorder struct {
	sync.Mutex
	Diagnostics []Diagnostic
}

func NewRecorder() *Recorder {
	return &Recorder{
		Diagnostics: make([]Diagnostic, 0, 8),
	}
}

func (r *Recorder) Report(level Level, msg string) {
	r.Lock()
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Level: level,
		Msg:   msg,
	})
	r.Unlock()
}

// Find returns the recorded messages at the given level that contain
// the given substring.
func (r *Recorder) Find(level Level, substring string) []string {
	r.Lock()
	defer r.Unlock()
	acc := make([]string, 0, 2)
	for _, d := range r.Diagnostics {
		if d.Level == level && strings.Contains(d.Msg, substring) {
			acc = append(acc, d.Msg)
		}
	}
	return acc
}

// Count returns the number of recorded messages at the given level.
func (r *Recorder) Count(level Level) int {
	r.Lock()
	defer r.Unlock()
	n := 0
	for _, d := range r.Diagnostics {
		if d.Level == level {
			n++
		}
	}
	return n
}

// Reset forgets everything.
func (r *Recorder) Reset() {
	r.Lock()
	r.Diagnostics = r.Diagnostics[:0]
	r.Unlock()
}
