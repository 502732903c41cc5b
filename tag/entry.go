package tag

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	tagruntime "github.com/edgefoundry/tag-runtime"
	"github.com/edgefoundry/tag-runtime/errors"
)

// State is an entry's lifecycle position.
type State int32

const (
	StateUninitialized State = iota
	StateCreating
	StateReady
	StateFaulted
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreating:
		return "creating"
	case StateReady:
		return "ready"
	case StateFaulted:
		return "faulted"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Entry owns exactly one engine handle and serializes every operation
// against it through a single FIFO queue drained by one worker
// goroutine. Operations on one entry execute strictly one at a time in
// submission order; operations on distinct entries proceed fully in
// parallel. The handle never leaves the worker.
//
// Entries are shared: every caller resolving the same registry key
// holds a reference to the same Entry. References are counted by the
// registry; the handle is released exactly once, when the count drops
// to zero or Destroy is called explicitly.
type Entry struct {
	eng    tagruntime.Engine
	poller *Poller
	opts   Options
	key    string
	config string

	state     atomic.Int32
	faultCode atomic.Int32
	size      atomic.Uint32

	// handle and released are touched only by the worker goroutine.
	handle   tagruntime.Handle
	released bool

	mu        sync.Mutex
	wake      *sync.Cond
	queue     []*operation
	accepting bool

	createOnce  sync.Once
	createDone  chan struct{}
	createErr   error
	destroyDone chan struct{}

	refs atomic.Int32
}

// operation is one queued unit of work with its waiter.
type operation struct {
	id        uuid.UUID
	kind      errors.Op
	run       func(*operation)
	done      chan error
	submitted time.Time
}

func (o *operation) resolve(err error) {
	select {
	case o.done <- err:
	default:
	}
}

// New builds an entry for the given key and configuration. The entry
// starts Uninitialized; Connect issues the engine create.
func New(eng tagruntime.Engine, key, config string, opts Options) *Entry {
	opts = opts.withDefaults()
	e := &Entry{
		eng:         eng,
		poller:      NewPoller(eng, opts.PollInterval),
		opts:        opts,
		key:         key,
		config:      config,
		accepting:   true,
		createDone:  make(chan struct{}),
		destroyDone: make(chan struct{}),
	}
	e.wake = sync.NewCond(&e.mu)
	go e.worker()
	return e
}

// Key returns the registry key the entry was resolved under.
func (e *Entry) Key() string { return e.key }

// State returns the current lifecycle state without enqueuing.
func (e *Entry) State() State { return State(e.state.Load()) }

// Size returns the resource buffer size. Valid once the entry is Ready.
func (e *Entry) Size() uint32 { return e.size.Load() }

// Status maps the lifecycle state to the engine's status vocabulary
// without enqueuing: Ready is Ok, Creating is Pending, Faulted reports
// the fault code, Destroyed reports a stale handle.
func (e *Entry) Status() tagruntime.Status {
	switch e.State() {
	case StateReady:
		return tagruntime.StatusOK
	case StateCreating, StateUninitialized:
		return tagruntime.StatusPending
	case StateFaulted:
		return tagruntime.Status(e.faultCode.Load())
	default:
		return tagruntime.Status(tagruntime.ErrCodeNullPtr)
	}
}

// AddRef and Release maintain the share count. Release reports the
// remaining count; the registry destroys the entry when it hits zero.
func (e *Entry) AddRef() int32   { return e.refs.Add(1) }
func (e *Entry) Release() int32  { return e.refs.Add(-1) }
func (e *Entry) RefCount() int32 { return e.refs.Load() }

func (e *Entry) worker() {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 {
			if !e.accepting {
				e.mu.Unlock()
				return
			}
			e.wake.Wait()
		}
		op := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		op.run(op)
	}
}

// submit appends an operation to the FIFO queue. Fails with closed once
// a destroy has been accepted.
func (e *Entry) submit(kind errors.Op, run func(*operation)) (*operation, error) {
	op := &operation{
		id:        uuid.New(),
		kind:      kind,
		run:       run,
		done:      make(chan error, 1),
		submitted: time.Now(),
	}

	e.mu.Lock()
	if !e.accepting {
		e.mu.Unlock()
		return nil, errors.Closed(kind, e.key)
	}
	e.queue = append(e.queue, op)
	e.mu.Unlock()
	e.wake.Signal()
	return op, nil
}

// await blocks until the operation resolves or ctx is done. A caller
// that abandons the wait detaches from the result only: the operation
// keeps its turn in the queue and runs to resolution regardless.
func (e *Entry) await(ctx context.Context, op *operation) error {
	select {
	case err := <-op.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connect issues the engine create (once, no matter how many callers)
// and waits for creation to resolve. Subsequent calls on a Ready entry
// return immediately; a failed creation reports the same error to
// every waiter and is not retried on this entry.
func (e *Entry) Connect(ctx context.Context) error {
	switch e.State() {
	case StateReady:
		return nil
	case StateDestroyed:
		return errors.Closed(errors.OpConnect, e.key)
	}

	e.createOnce.Do(func() {
		e.state.Store(int32(StateCreating))
		e.notify(EventCreating, 0, 0)
		if _, err := e.submit(errors.OpCreate, e.runCreate); err != nil {
			e.createErr = err
			close(e.createDone)
		}
	})

	select {
	case <-e.createDone:
		return e.createErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Entry) runCreate(op *operation) {
	start := time.Now()
	deadline := start.Add(e.opts.CreateTimeout)

	h, st := e.eng.Create(e.config, 0)
	if h < 0 || st.IsErr() {
		e.finishCreate(op, start, errors.Engine(errors.OpCreate, e.key, st.Code(), e.eng.DecodeError(st.Code())))
		return
	}
	e.handle = h

	if st.IsPending() {
		var timedOut bool
		st, timedOut = e.poller.Await(h, deadline)
		if timedOut {
			// The engine keeps working on the creation; wait it out,
			// then release whatever it produced.
			e.finishCreate(op, start, errors.Timeout(errors.OpCreate, e.key, e.opts.CreateTimeout))
			e.poller.Drain(h)
			e.releaseHandle()
			return
		}
	}

	if st.IsOK() {
		size, sizeSt := e.eng.BufferSize(h)
		if sizeSt.IsErr() {
			e.releaseHandle()
			e.finishCreate(op, start, errors.Engine(errors.OpCreate, e.key, sizeSt.Code(), e.eng.DecodeError(sizeSt.Code())))
			return
		}
		e.size.Store(size)
		e.finishCreate(op, start, nil)
		return
	}

	e.releaseHandle()
	e.finishCreate(op, start, errors.Engine(errors.OpCreate, e.key, st.Code(), e.eng.DecodeError(st.Code())))
}

// finishCreate publishes the creation result to every joined waiter.
func (e *Entry) finishCreate(op *operation, start time.Time, err error) {
	elapsed := time.Since(start)
	if err == nil {
		e.state.Store(int32(StateReady))
		e.notify(EventReady, 0, elapsed)
		Logger().Debug("tag ready",
			zap.String("key", e.key),
			zap.String("op", op.id.String()),
			zap.Uint32("size", e.size.Load()),
			zap.Duration("elapsed", elapsed))
	} else {
		code, ok := errors.EngineCode(err)
		if !ok && errors.IsTimeout(err) {
			code = tagruntime.ErrCodeTimeout
		}
		e.faultCode.Store(code)
		e.state.Store(int32(StateFaulted))
		e.notify(EventFaulted, code, elapsed)
		Logger().Debug("tag creation failed",
			zap.String("key", e.key),
			zap.Error(err))
	}
	recordOp(string(errors.OpCreate), err, elapsed)

	e.createErr = err
	close(e.createDone)
	op.resolve(err)
}

// checkReady gates operations that need a live handle. The worker
// re-checks before touching the engine; state can change while an
// operation waits in the queue.
func (e *Entry) checkReady(kind errors.Op) error {
	switch e.State() {
	case StateReady:
		return nil
	case StateDestroyed:
		return errors.Closed(kind, e.key)
	case StateFaulted:
		code := e.faultCode.Load()
		return errors.Engine(kind, e.key, code, e.eng.DecodeError(code))
	default:
		return errors.NotReady(kind, e.key)
	}
}

// Read issues an engine read and polls it to resolution. On success
// the resource buffer holds a fresh copy of the remote value for
// subsequent decodes.
func (e *Entry) Read(ctx context.Context, timeout time.Duration) error {
	return e.enqueueIO(ctx, errors.OpRead, timeout, nil)
}

// Write issues an engine write of the staged buffer and polls it to
// resolution.
func (e *Entry) Write(ctx context.Context, timeout time.Duration) error {
	return e.enqueueIO(ctx, errors.OpWrite, timeout, nil)
}

// enqueueIO submits a read or write. The optional stage hook runs on
// the worker immediately before (write) or after (read) the engine
// call, so value marshalling and I/O occupy a single queue turn.
func (e *Entry) enqueueIO(ctx context.Context, kind errors.Op, timeout time.Duration, stage func() error) error {
	if err := e.checkReady(kind); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = e.opts.OpTimeout
	}

	op, err := e.submit(kind, func(op *operation) {
		e.runIO(op, kind, timeout, stage)
	})
	if err != nil {
		return err
	}
	return e.await(ctx, op)
}

func (e *Entry) runIO(op *operation, kind errors.Op, timeout time.Duration, stage func() error) {
	start := time.Now()

	// State may have moved while queued (fault, destroy).
	if err := e.checkReady(kind); err != nil {
		op.resolve(err)
		return
	}

	if kind == errors.OpWrite && stage != nil {
		// Encode into the staged buffer; a bounds failure aborts
		// before any engine operation is issued.
		if err := stage(); err != nil {
			op.resolve(err)
			return
		}
	}

	var st tagruntime.Status
	if kind == errors.OpRead {
		st = e.eng.Read(e.handle, 0)
	} else {
		st = e.eng.Write(e.handle, 0)
	}

	if st.IsPending() {
		var timedOut bool
		st, timedOut = e.poller.Await(e.handle, start.Add(timeout))
		if timedOut {
			elapsed := time.Since(start)
			op.resolve(errors.Timeout(kind, e.key, timeout))
			e.finishIO(kind, tagruntime.ErrCodeTimeout, elapsed)
			// The engine call cannot be aborted. Hold the queue until
			// it resolves so the next operation never overlaps it; its
			// late buffer effects are seen by that next operation only.
			e.poller.Drain(e.handle)
			return
		}
	}

	if st.IsErr() {
		if st.Fatal() {
			e.faultCode.Store(st.Code())
			e.state.Store(int32(StateFaulted))
		}
		elapsed := time.Since(start)
		op.resolve(errors.Engine(kind, e.key, st.Code(), e.eng.DecodeError(st.Code())))
		e.finishIO(kind, st.Code(), elapsed)
		return
	}

	var err error
	if kind == errors.OpRead && stage != nil {
		err = stage()
	}
	elapsed := time.Since(start)
	op.resolve(err)
	e.finishIO(kind, 0, elapsed)
}

func (e *Entry) finishIO(kind errors.Op, code int32, elapsed time.Duration) {
	evt := EventRead
	if kind == errors.OpWrite {
		evt = EventWrite
	}
	e.notify(evt, code, elapsed)

	var opErr error
	if code != 0 {
		opErr = errors.Engine(kind, e.key, code, "")
	}
	recordOp(string(kind), opErr, elapsed)
}

// GetBytes copies from the staged resource buffer, serialized through
// the queue like every other handle access.
func (e *Entry) GetBytes(ctx context.Context, offset uint32, p []byte) error {
	return e.bufferOp(ctx, errors.OpDecode, offset, uint32(len(p)), func() error {
		if st := e.eng.GetBytes(e.handle, offset, p); st.IsErr() {
			return errors.Engine(errors.OpDecode, e.key, st.Code(), e.eng.DecodeError(st.Code()))
		}
		return nil
	})
}

// SetBytes copies into the staged resource buffer.
func (e *Entry) SetBytes(ctx context.Context, offset uint32, p []byte) error {
	return e.bufferOp(ctx, errors.OpEncode, offset, uint32(len(p)), func() error {
		if st := e.eng.SetBytes(e.handle, offset, p); st.IsErr() {
			return errors.Engine(errors.OpEncode, e.key, st.Code(), e.eng.DecodeError(st.Code()))
		}
		return nil
	})
}

// bufferOp runs a quick staged-buffer access in queue order. The
// bounds check is local and precedes both the enqueue and any engine
// call.
func (e *Entry) bufferOp(ctx context.Context, kind errors.Op, offset, width uint32, run func() error) error {
	if err := e.checkReady(kind); err != nil {
		return err
	}
	if err := e.boundsCheck(kind, offset, width); err != nil {
		return err
	}

	op, err := e.submit(kind, func(op *operation) {
		if err := e.checkReady(kind); err != nil {
			op.resolve(err)
			return
		}
		op.resolve(run())
	})
	if err != nil {
		return err
	}
	return e.await(ctx, op)
}

// boundsCheck validates an access window against the resource size
// without touching the engine. Overflow-safe for offsets near the
// uint32 ceiling.
func (e *Entry) boundsCheck(kind errors.Op, offset, width uint32) error {
	size := e.Size()
	if offset > size || width > size-min(offset, size) {
		return errors.OutOfBounds(kind, offset, width, size)
	}
	return nil
}

// Destroy releases the engine handle. Idempotent: concurrent and
// repeated calls issue exactly one engine destroy, and every caller
// observes success once teardown completes. Later operations fail
// with closed.
func (e *Entry) Destroy(ctx context.Context) error {
	e.mu.Lock()
	if !e.accepting {
		e.mu.Unlock()
		select {
		case <-e.destroyDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	e.accepting = false

	op := &operation{
		id:        uuid.New(),
		kind:      errors.OpDestroy,
		run:       e.runDestroy,
		done:      make(chan error, 1),
		submitted: time.Now(),
	}
	e.queue = append(e.queue, op)
	e.mu.Unlock()
	e.wake.Signal()

	select {
	case err := <-op.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Entry) runDestroy(op *operation) {
	start := time.Now()
	e.releaseHandle()
	e.state.Store(int32(StateDestroyed))
	e.notify(EventDestroyed, 0, time.Since(start))
	recordOp(string(errors.OpDestroy), nil, time.Since(start))
	Logger().Debug("tag destroyed", zap.String("key", e.key))
	close(e.destroyDone)
	op.resolve(nil)
}

// releaseHandle gives the handle back to the engine exactly once.
// Worker-only.
func (e *Entry) releaseHandle() {
	if e.released || e.handle <= 0 {
		return
	}
	e.released = true
	if st := e.eng.Destroy(e.handle); st.IsErr() {
		Logger().Warn("engine destroy failed",
			zap.String("key", e.key),
			zap.Int32("code", st.Code()))
	}
}

func (e *Entry) notify(t EventType, code int32, elapsed time.Duration) {
	if len(e.opts.Observers) == 0 {
		return
	}
	evt := Event{
		At:      time.Now(),
		Key:     e.key,
		Elapsed: elapsed,
		Type:    t,
		Code:    code,
	}
	for _, o := range e.opts.Observers {
		o.OnTagEvent(evt)
	}
}
