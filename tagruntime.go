package tagruntime

import "time"

// Handle is an engine-assigned identifier for a created tag resource.
// Valid handles are positive; the zero value is never a live resource.
type Handle int32

// Engine is the protocol engine boundary. Implementations perform the
// actual PLC I/O; the runtime never looks behind this interface.
//
// All calls are short and non-blocking by contract: Create, Read and
// Write issued with timeout 0 return immediately and report Pending,
// after which Status must be polled until it leaves Pending.
//
// A single engine resource is NOT safe for concurrent use. Issuing two
// operations against the same Handle concurrently corrupts its buffer.
// The tag package serializes every Handle operation through a per-entry
// queue; Engine implementations must not be relied on for any locking
// of their own.
type Engine interface {
	// Create builds a resource from an opaque attribute string.
	// With timeout 0 the resource starts Pending and must be polled.
	Create(config string, timeout time.Duration) (Handle, Status)

	// Status reports the state of the last operation on the handle.
	Status(h Handle) Status

	// Read starts a read of the remote value into the resource buffer.
	Read(h Handle, timeout time.Duration) Status

	// Write starts a write of the resource buffer to the remote value.
	Write(h Handle, timeout time.Duration) Status

	// BufferSize reports the size in bytes of the resource buffer.
	BufferSize(h Handle) (uint32, Status)

	// GetBytes copies len(p) bytes at offset out of the resource buffer.
	GetBytes(h Handle, offset uint32, p []byte) Status

	// SetBytes copies p into the resource buffer at offset.
	SetBytes(h Handle, offset uint32, p []byte) Status

	// Destroy releases the resource. The handle is invalid afterwards.
	Destroy(h Handle) Status

	// DecodeError translates a status code into a human-readable string.
	DecodeError(code int32) string
}
