package engine

import (
	"testing"
	"time"

	tagruntime "github.com/edgefoundry/tag-runtime"
)

func waitReady(t *testing.T, s *Sim, h tagruntime.Handle) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		st := s.Status(h)
		if st.IsOK() {
			return
		}
		if st.IsErr() {
			t.Fatalf("status resolved to %v", st)
		}
		if time.Now().After(deadline) {
			t.Fatal("resource never left Pending")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCreateResolvesThroughPolling(t *testing.T) {
	s := NewSim()
	h, st := s.Create("elem_size=2&elem_count=1&sim_latency=5ms", 0)
	if !st.IsPending() {
		t.Fatalf("create status = %v, want Pending", st)
	}
	waitReady(t, s, h)

	size, st := s.BufferSize(h)
	if !st.IsOK() || size != 2 {
		t.Fatalf("BufferSize = %d, %v; want 2, OK", size, st)
	}
}

func TestCreateFailureCode(t *testing.T) {
	s := NewSim()
	h, st := s.Create("sim_fail_create=-3&sim_latency=1ms", 0)
	if !st.IsPending() {
		t.Fatalf("create status = %v, want Pending", st)
	}

	deadline := time.Now().Add(time.Second)
	for {
		st = s.Status(h)
		if !st.IsPending() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("creation never resolved")
		}
		time.Sleep(time.Millisecond)
	}
	if st.Code() != tagruntime.ErrCodeBadConn {
		t.Fatalf("code = %d, want %d", st.Code(), tagruntime.ErrCodeBadConn)
	}
}

func TestMalformedConfigRejectedImmediately(t *testing.T) {
	s := NewSim()
	_, st := s.Create("elem_size=zero", 0)
	if !st.IsErr() {
		t.Fatalf("status = %v, want error", st)
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	s := NewSim()
	h, _ := s.Create("elem_size=4&sim_latency=1ms", 0)
	waitReady(t, s, h)

	if st := s.SetBytes(h, 0, []byte{1, 2, 3, 4}); !st.IsOK() {
		t.Fatalf("SetBytes: %v", st)
	}
	if st := s.Write(h, 0); !st.IsPending() {
		t.Fatalf("Write status = %v, want Pending", st)
	}
	waitReady(t, s, h)

	// Clobber the local buffer, then read back from the remote image.
	if st := s.SetBytes(h, 0, []byte{0, 0, 0, 0}); !st.IsOK() {
		t.Fatal("SetBytes clobber failed")
	}
	if st := s.Read(h, 0); !st.IsPending() {
		t.Fatalf("Read status = %v, want Pending", st)
	}
	waitReady(t, s, h)

	got := make([]byte, 4)
	if st := s.GetBytes(h, 0, got); !st.IsOK() {
		t.Fatalf("GetBytes: %v", st)
	}
	for i, b := range []byte{1, 2, 3, 4} {
		if got[i] != b {
			t.Fatalf("read back % x, want 01 02 03 04", got)
		}
	}
}

func TestOverlapMarksCorruption(t *testing.T) {
	s := NewSim()
	h, _ := s.Create("sim_latency=1ms", 0)
	waitReady(t, s, h)

	if st := s.Read(h, 0); !st.IsPending() {
		t.Fatalf("first read: %v", st)
	}
	// Second operation before the first resolves.
	if st := s.Read(h, 0); st.Code() != tagruntime.ErrCodeBusy {
		t.Fatalf("overlapping read = %v, want ERR_BUSY", st)
	}
	if !s.Corrupted() {
		t.Fatal("overlap not recorded")
	}
}

func TestOperationBeforeReady(t *testing.T) {
	s := NewSim()
	h, _ := s.Create("sim_latency=1h", 0) // never resolves in test time
	if st := s.Read(h, 0); st.Code() != tagruntime.ErrCodeNoData {
		t.Fatalf("read before ready = %v, want ERR_NO_DATA", st)
	}
}

func TestDestroyInvalidatesHandle(t *testing.T) {
	s := NewSim()
	h, _ := s.Create("sim_latency=1ms", 0)
	waitReady(t, s, h)

	if st := s.Destroy(h); !st.IsOK() {
		t.Fatalf("destroy: %v", st)
	}
	if st := s.Destroy(h); st.Code() != tagruntime.ErrCodeNullPtr {
		t.Fatalf("second destroy = %v, want ERR_NULL_PTR", st)
	}
	if st := s.Status(h); st.Code() != tagruntime.ErrCodeNullPtr {
		t.Fatalf("status after destroy = %v, want ERR_NULL_PTR", st)
	}
	if s.Live() != 0 {
		t.Fatalf("Live = %d, want 0", s.Live())
	}
}

func TestBlockingMode(t *testing.T) {
	s := NewSim()
	h, st := s.Create("sim_latency=2ms", 250*time.Millisecond)
	if !st.IsOK() {
		t.Fatalf("blocking create = %v, want OK", st)
	}
	if st := s.Read(h, 250*time.Millisecond); !st.IsOK() {
		t.Fatalf("blocking read = %v, want OK", st)
	}
}
