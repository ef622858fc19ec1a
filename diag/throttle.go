// Package diag has Diagnostics sinks for core.Namespaces.
package diag

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Comcast/estructura/core"
)

// DefaultInterval is how often Run flushes by default.
var DefaultInterval = time.Second

// Throttle is a core.Diagnostics that collects messages and delivers
// each distinct message at most once per flush.
//
// Messages are delivered to Next in the order they were first
// reported since the previous flush.  If the same message is reported
// at different levels, the last level wins.
//
// The zero value is usable.  It flushes to a core.LogDiagnostics.
type Throttle struct {
	sync.Mutex

	// Next receives the flushed messages.  Defaults to a
	// core.LogDiagnostics.
	Next core.Diagnostics

	// Interval is how often Run flushes.  Defaults to
	// DefaultInterval.
	Interval time.Duration

	levels map[string]core.Level
	order  []string
}

// NewThrottle makes a Throttle that flushes to the given Diagnostics
// (or a core.LogDiagnostics if nil).
func NewThrottle(next core.Diagnostics) *Throttle {
	if next == nil {
		next = &core.LogDiagnostics{}
	}
	return &Throttle{
		Next:     next,
		Interval: DefaultInterval,
		levels:   make(map[string]core.Level, 8),
	}
}

// Report queues the message.
func (t *Throttle) Report(level core.Level, msg string) {
	t.Lock()
	if t.levels == nil {
		t.levels = make(map[string]core.Level, 8)
	}
	if _, have := t.levels[msg]; !have {
		t.order = append(t.order, msg)
	}
	t.levels[msg] = level
	t.Unlock()
}

// Pending returns the number of distinct messages waiting.
func (t *Throttle) Pending() int {
	t.Lock()
	n := len(t.order)
	t.Unlock()
	return n
}

// Flush delivers the queued messages.  Returns the number delivered.
func (t *Throttle) Flush() int {
	t.Lock()
	order, levels := t.order, t.levels
	t.order = nil
	t.levels = make(map[string]core.Level, len(levels))
	next := t.Next
	if next == nil {
		next = &core.LogDiagnostics{}
		t.Next = next
	}
	t.Unlock()

	for _, msg := range order {
		next.Report(levels[msg], msg)
	}
	return len(order)
}

// Run flushes periodically until the context is done, and then
// flushes one last time.
func (t *Throttle) Run(ctx context.Context) {
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.Flush()
			return
		case <-ticker.C:
			t.Flush()
		}
	}
}

// Messages returns the queued messages in sorted order without
// flushing them.
func (t *Throttle) Messages() []string {
	t.Lock()
	acc := make([]string, len(t.order))
	copy(acc, t.order)
	t.Unlock()
	sort.Strings(acc)
	return acc
}
