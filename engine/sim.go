package engine

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	tagruntime "github.com/edgefoundry/tag-runtime"
)

// Sim is an in-memory Engine used by tests and the tagmon testbed. It
// reproduces the contract of a poll-driven protocol engine: operations
// issued with timeout 0 report Pending and resolve after a configured
// latency, observed through Status polling.
//
// Like the real engine, a Sim resource is not safe for concurrent use.
// Issuing an operation while another is still unresolved marks the
// resource corrupted and fails with ERR_BUSY; tests use Corrupted to
// prove the runtime never lets that happen.
//
// Recognized attributes in the configuration string (all optional):
//
//	elem_size=N        element size in bytes (default 4)
//	elem_count=N       element count (default 1)
//	sim_latency=DUR    per-operation pending time (default 2ms)
//	sim_fail_create=C  creation resolves to code C after the latency
//	sim_fail_read=C    reads resolve to code C
//	sim_fail_write=C   writes resolve to code C
//
// Unrecognized attributes pass through unexamined, matching the
// engine's treatment of the configuration as an opaque blob.
type Sim struct {
	mu        sync.Mutex
	resources map[tagruntime.Handle]*simResource
	nextID    int32

	// Call counters for test assertions.
	createCalls  atomic.Int64
	readCalls    atomic.Int64
	writeCalls   atomic.Int64
	destroyCalls atomic.Int64
	statusCalls  atomic.Int64

	corrupted atomic.Bool
}

type opKind uint8

const (
	opNone opKind = iota
	opCreate
	opRead
	opWrite
)

type simResource struct {
	mu      sync.Mutex
	data    []byte // resource buffer the runtime reads and writes
	remote  []byte // simulated controller-side image
	latency time.Duration

	failCreate int32
	failRead   int32
	failWrite  int32

	op       opKind
	opDoneAt time.Time
	ready    bool // creation resolved Ok
	last     tagruntime.Status
}

// NewSim returns an empty simulated engine.
func NewSim() *Sim {
	return &Sim{
		resources: make(map[tagruntime.Handle]*simResource),
	}
}

func (s *Sim) Create(config string, timeout time.Duration) (tagruntime.Handle, tagruntime.Status) {
	s.createCalls.Add(1)

	res, ok := parseConfig(config)
	if !ok {
		return -1, tagruntime.Status(tagruntime.ErrCodeBadParam)
	}

	s.mu.Lock()
	s.nextID++
	h := tagruntime.Handle(s.nextID)
	res.op = opCreate
	res.opDoneAt = time.Now().Add(res.latency)
	res.last = tagruntime.StatusPending
	s.resources[h] = res
	s.mu.Unlock()

	Logger().Debug("sim create",
		zap.Int32("handle", int32(h)),
		zap.Int("size", len(res.data)))

	if timeout > 0 {
		return h, s.block(h, timeout)
	}
	return h, tagruntime.StatusPending
}

func (s *Sim) Status(h tagruntime.Handle) tagruntime.Status {
	s.statusCalls.Add(1)

	res, ok := s.lookup(h)
	if !ok {
		return tagruntime.Status(tagruntime.ErrCodeNullPtr)
	}

	res.mu.Lock()
	defer res.mu.Unlock()
	return res.advance()
}

// advance resolves an in-flight operation whose latency has elapsed.
// Callers hold res.mu.
func (r *simResource) advance() tagruntime.Status {
	if r.op == opNone {
		return r.last
	}
	if time.Now().Before(r.opDoneAt) {
		return tagruntime.StatusPending
	}

	switch r.op {
	case opCreate:
		if r.failCreate != 0 {
			r.last = tagruntime.Status(r.failCreate)
		} else {
			r.ready = true
			r.last = tagruntime.StatusOK
		}
	case opRead:
		if r.failRead != 0 {
			r.last = tagruntime.Status(r.failRead)
		} else {
			copy(r.data, r.remote)
			r.last = tagruntime.StatusOK
		}
	case opWrite:
		if r.failWrite != 0 {
			r.last = tagruntime.Status(r.failWrite)
		} else {
			copy(r.remote, r.data)
			r.last = tagruntime.StatusOK
		}
	}
	r.op = opNone
	return r.last
}

func (s *Sim) Read(h tagruntime.Handle, timeout time.Duration) tagruntime.Status {
	s.readCalls.Add(1)
	return s.startOp(h, opRead, timeout)
}

func (s *Sim) Write(h tagruntime.Handle, timeout time.Duration) tagruntime.Status {
	s.writeCalls.Add(1)
	return s.startOp(h, opWrite, timeout)
}

func (s *Sim) startOp(h tagruntime.Handle, kind opKind, timeout time.Duration) tagruntime.Status {
	res, ok := s.lookup(h)
	if !ok {
		return tagruntime.Status(tagruntime.ErrCodeNullPtr)
	}

	res.mu.Lock()
	res.advance()
	if res.op != opNone {
		// A second operation while one is unresolved. The real engine
		// corrupts its buffer here; remember that it happened.
		res.mu.Unlock()
		s.corrupted.Store(true)
		Logger().Warn("sim operation overlap", zap.Int32("handle", int32(h)))
		return tagruntime.Status(tagruntime.ErrCodeBusy)
	}
	if !res.ready {
		res.mu.Unlock()
		return tagruntime.Status(tagruntime.ErrCodeNoData)
	}
	res.op = kind
	res.opDoneAt = time.Now().Add(res.latency)
	res.mu.Unlock()

	if timeout > 0 {
		return s.block(h, timeout)
	}
	return tagruntime.StatusPending
}

// block emulates the engine's own blocking mode (timeout > 0). The
// runtime never uses it; it exists for contract completeness.
func (s *Sim) block(h tagruntime.Handle, timeout time.Duration) tagruntime.Status {
	deadline := time.Now().Add(timeout)
	for {
		st := s.Status(h)
		if !st.IsPending() {
			return st
		}
		if time.Now().After(deadline) {
			return tagruntime.Status(tagruntime.ErrCodeTimeout)
		}
		time.Sleep(time.Millisecond)
	}
}

func (s *Sim) BufferSize(h tagruntime.Handle) (uint32, tagruntime.Status) {
	res, ok := s.lookup(h)
	if !ok {
		return 0, tagruntime.Status(tagruntime.ErrCodeNullPtr)
	}
	res.mu.Lock()
	defer res.mu.Unlock()
	return uint32(len(res.data)), tagruntime.StatusOK
}

func (s *Sim) GetBytes(h tagruntime.Handle, offset uint32, p []byte) tagruntime.Status {
	res, ok := s.lookup(h)
	if !ok {
		return tagruntime.Status(tagruntime.ErrCodeNullPtr)
	}
	res.mu.Lock()
	defer res.mu.Unlock()
	if int(offset)+len(p) > len(res.data) {
		return tagruntime.Status(tagruntime.ErrCodeOutOfBounds)
	}
	copy(p, res.data[offset:])
	return tagruntime.StatusOK
}

func (s *Sim) SetBytes(h tagruntime.Handle, offset uint32, p []byte) tagruntime.Status {
	res, ok := s.lookup(h)
	if !ok {
		return tagruntime.Status(tagruntime.ErrCodeNullPtr)
	}
	res.mu.Lock()
	defer res.mu.Unlock()
	if int(offset)+len(p) > len(res.data) {
		return tagruntime.Status(tagruntime.ErrCodeOutOfBounds)
	}
	copy(res.data[offset:], p)
	return tagruntime.StatusOK
}

func (s *Sim) Destroy(h tagruntime.Handle) tagruntime.Status {
	s.destroyCalls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[h]; !ok {
		return tagruntime.Status(tagruntime.ErrCodeNullPtr)
	}
	delete(s.resources, h)
	Logger().Debug("sim destroy", zap.Int32("handle", int32(h)))
	return tagruntime.StatusOK
}

func (s *Sim) DecodeError(code int32) string {
	return tagruntime.DecodeStatus(code)
}

func (s *Sim) lookup(h tagruntime.Handle) (*simResource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.resources[h]
	return res, ok
}

// Poke overwrites the simulated controller-side image, so the next
// read observes a value that did not come from this runtime.
func (s *Sim) Poke(h tagruntime.Handle, offset uint32, p []byte) bool {
	res, ok := s.lookup(h)
	if !ok {
		return false
	}
	res.mu.Lock()
	defer res.mu.Unlock()
	if int(offset)+len(p) > len(res.remote) {
		return false
	}
	copy(res.remote[offset:], p)
	return true
}

// Counters for test assertions.

func (s *Sim) CreateCalls() int64  { return s.createCalls.Load() }
func (s *Sim) ReadCalls() int64    { return s.readCalls.Load() }
func (s *Sim) WriteCalls() int64   { return s.writeCalls.Load() }
func (s *Sim) DestroyCalls() int64 { return s.destroyCalls.Load() }
func (s *Sim) StatusCalls() int64  { return s.statusCalls.Load() }

// Corrupted reports whether any resource ever saw overlapping
// operations, which the real engine does not survive.
func (s *Sim) Corrupted() bool { return s.corrupted.Load() }

// Live reports the number of resources not yet destroyed.
func (s *Sim) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources)
}

func parseConfig(config string) (*simResource, bool) {
	res := &simResource{
		latency: 2 * time.Millisecond,
		last:    tagruntime.StatusPending,
	}
	elemSize, elemCount := 4, 1

	for _, pair := range strings.Split(config, "&") {
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, false
		}
		switch key {
		case "elem_size":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return nil, false
			}
			elemSize = n
		case "elem_count":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return nil, false
			}
			elemCount = n
		case "sim_latency":
			d, err := time.ParseDuration(value)
			if err != nil || d < 0 {
				return nil, false
			}
			res.latency = d
		case "sim_fail_create":
			c, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return nil, false
			}
			res.failCreate = int32(c)
		case "sim_fail_read":
			c, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return nil, false
			}
			res.failRead = int32(c)
		case "sim_fail_write":
			c, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return nil, false
			}
			res.failWrite = int32(c)
		}
	}

	size := elemSize * elemCount
	res.data = make([]byte, size)
	res.remote = make([]byte, size)
	return res, true
}
