package diag

import (
	"context"
	"testing"
	"time"

	"github.com/Comcast/estructura/core"
)

func TestThrottleDedup(t *testing.T) {
	r := core.NewRecorder()
	th := NewThrottle(r)

	th.Report(core.Warn, "tacos")
	th.Report(core.Warn, "chips")
	th.Report(core.Warn, "tacos")
	th.Report(core.Error, "chips")

	if n := th.Pending(); n != 2 {
		t.Fatal(n)
	}
	if n := len(r.Diagnostics); n != 0 {
		t.Fatal("delivered early")
	}

	if n := th.Flush(); n != 2 {
		t.Fatal(n)
	}
	if len(r.Diagnostics) != 2 {
		t.Fatal(r.Diagnostics)
	}
	if d := r.Diagnostics[0]; d.Msg != "tacos" || d.Level != core.Warn {
		t.Fatal(d)
	}
	if d := r.Diagnostics[1]; d.Msg != "chips" || d.Level != core.Error {
		t.Fatal(d)
	}

	if n := th.Flush(); n != 0 {
		t.Fatal(n)
	}
}

func TestThrottleNamespace(t *testing.T) {
	r := core.NewRecorder()
	th := NewThrottle(r)
	nss := core.NewNamespaces(th)

	ns := nss.Get("snacks")
	for i := 0; i < 10; i++ {
		ns.Fn(42)
	}

	if n := th.Pending(); n != 1 {
		t.Fatal(th.Messages())
	}
	th.Flush()
	if ms := r.Find(core.Warn, "estructura (snacks): "); len(ms) != 1 {
		t.Fatal(r.Diagnostics)
	}
}

func TestThrottleRun(t *testing.T) {
	r := core.NewRecorder()
	th := NewThrottle(r)
	th.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool)
	go func() {
		th.Run(ctx)
		close(done)
	}()

	th.Report(core.Info, "queso")
	time.Sleep(50 * time.Millisecond)
	if n := r.Count(core.Info); n != 1 {
		t.Fatal(r.Diagnostics)
	}

	th.Report(core.Info, "salsa")
	cancel()
	<-done
	if n := r.Count(core.Info); n != 2 {
		t.Fatal(r.Diagnostics)
	}
}

func TestThrottleZero(t *testing.T) {
	var th Throttle

	th.Report(core.Warn, "tacos")
	th.Report(core.Warn, "tacos")
	if n := th.Pending(); n != 1 {
		t.Fatal(n)
	}
	if n := th.Flush(); n != 1 {
		t.Fatal(n)
	}
	if _, is := th.Next.(*core.LogDiagnostics); !is {
		t.Fatalf("%T", th.Next)
	}

	r := core.NewRecorder()
	th.Next = r
	th.Report(core.Error, "chips")
	if n := th.Flush(); n != 1 || r.Count(core.Error) != 1 {
		t.Fatal(r.Diagnostics)
	}
}
