package tag

import (
	"testing"
	"time"

	"github.com/edgefoundry/tag-runtime/engine"
)

func TestAwaitResolvesPendingOperation(t *testing.T) {
	sim := engine.NewSim()
	h, st := sim.Create("elem_size=4&sim_latency=5ms", 0)
	if !st.IsPending() {
		t.Fatalf("create status = %v, want pending", st)
	}

	p := NewPoller(sim, time.Millisecond)
	st, timedOut := p.Await(h, time.Now().Add(time.Second))
	if timedOut {
		t.Fatal("Await timed out, want resolution")
	}
	if !st.IsOK() {
		t.Fatalf("status = %v, want ok", st)
	}
}

func TestAwaitReportsDeadline(t *testing.T) {
	sim := engine.NewSim()
	h, _ := sim.Create("elem_size=4&sim_latency=100ms", 0)

	p := NewPoller(sim, time.Millisecond)
	start := time.Now()
	st, timedOut := p.Await(h, time.Now().Add(10*time.Millisecond))
	if !timedOut {
		t.Fatalf("Await resolved with %v, want timeout", st)
	}
	if elapsed := time.Since(start); elapsed > 90*time.Millisecond {
		t.Fatalf("Await blocked %v past its deadline", elapsed)
	}
}

func TestDrainOutlastsDeadline(t *testing.T) {
	sim := engine.NewSim()
	h, _ := sim.Create("elem_size=4&sim_latency=20ms", 0)

	p := NewPoller(sim, time.Millisecond)
	if _, timedOut := p.Await(h, time.Now().Add(2*time.Millisecond)); !timedOut {
		t.Fatal("Await resolved, want timeout")
	}

	st := p.Drain(h)
	if !st.IsOK() {
		t.Fatalf("drained status = %v, want ok", st)
	}
}

func TestAwaitPacesStatusChecks(t *testing.T) {
	sim := engine.NewSim()
	h, _ := sim.Create("elem_size=4&sim_latency=50ms", 0)

	p := NewPoller(sim, 10*time.Millisecond)
	before := sim.StatusCalls()
	p.Await(h, time.Now().Add(time.Second))
	checks := sim.StatusCalls() - before

	// 50ms of pending at one check per 10ms: a handful of polls, not a
	// busy loop.
	if checks > 20 {
		t.Fatalf("status checked %d times for a 50ms operation", checks)
	}
}
