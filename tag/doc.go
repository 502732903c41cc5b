// Package tag turns the engine's poll-based handle primitive into
// resolved, serialized tag operations.
//
// # Entry
//
// An Entry owns exactly one engine handle. All operations against the
// handle flow through a single FIFO queue drained by one worker
// goroutine, so the engine never sees concurrent calls on a handle:
//
//	e := tag.New(eng, "plc1/Motor1.Speed", config, tag.Options{})
//	if err := e.Connect(ctx); err != nil { ... }
//
//	speed, err := tag.ReadValue[uint16](ctx, e, 0)
//	err = tag.WriteValue(ctx, e, 0, uint16(1200))
//
// Operations on one entry execute strictly in submission order.
// Operations on distinct entries proceed fully in parallel. A caller
// whose context expires detaches from the result only; the operation
// keeps its queue turn and runs to resolution.
//
// # Value Access
//
// ReadValue and WriteValue compose device I/O with the codec in a
// single queue turn: ReadValue refreshes the buffer and then decodes,
// WriteValue encodes and then flushes. GetValue and SetValue work on
// the staged buffer without touching the device; pair SetValue with a
// later Write to batch several field updates into one flush.
//
// # Timeouts
//
// Pending operations resolve through a Poller that re-checks engine
// status every Options.PollInterval. When the poll deadline expires
// the caller gets a timeout error, but the engine call cannot be
// aborted; the worker drains it to resolution before dequeuing the
// next operation, so a late completion can never overlap a successor.
//
// # Events
//
// Options.Observers receive lifecycle and operation events. Callbacks
// run on the worker goroutine and must not block.
package tag
