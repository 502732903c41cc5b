package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Op names the operation that produced the error.
type Op string

const (
	OpCreate  Op = "create"
	OpConnect Op = "connect"
	OpRead    Op = "read"
	OpWrite   Op = "write"
	OpDestroy Op = "destroy"
	OpDecode  Op = "decode"
	OpEncode  Op = "encode"
	OpLookup  Op = "lookup"
)

// Kind categorizes the error. The set is closed: every failure an
// asynchronous tag operation can resolve with carries one of these.
type Kind string

const (
	// KindEngine is an engine-reported failure, surfaced verbatim with
	// its original code and decoded message.
	KindEngine Kind = "engine_error"

	// KindTimeout is a local poll-deadline expiry. The engine operation
	// itself may still complete later; it is never retried here.
	KindTimeout Kind = "timeout"

	// KindOutOfBounds is a codec bounds violation, raised locally
	// without any engine call.
	KindOutOfBounds Kind = "out_of_bounds"

	// KindNotReady is an operation attempted before creation resolved.
	KindNotReady Kind = "not_ready"

	// KindClosed is an operation on a destroyed entry.
	KindClosed Kind = "closed"

	// KindUnsupported is a codec request for a type without a
	// fixed-width layout or Decodable/Encodable implementation.
	KindUnsupported Kind = "unsupported"

	// KindInvalidInput is a malformed argument caught locally.
	KindInvalidInput Kind = "invalid_input"
)

// Error is the structured error type used throughout the runtime.
type Error struct {
	Cause  error
	Op     Op
	Kind   Kind
	Key    string // registry key, when known
	Detail string
	Code   int32 // engine code, set only for KindEngine
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Op))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Key != "" {
		b.WriteString(" tag ")
		b.WriteString(e.Key)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Kind == KindEngine {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two Errors match on
// Kind; the Op is compared only when the target sets one.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Op != "" && e.Op != t.Op {
			return false
		}
		return e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for the taxonomy members.

// Engine wraps an engine-reported status code with its decoded message.
func Engine(op Op, key string, code int32, msg string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindEngine,
		Key:    key,
		Code:   code,
		Detail: msg,
	}
}

// Timeout reports poll-deadline expiry after the given wait.
func Timeout(op Op, key string, waited time.Duration) *Error {
	return &Error{
		Op:     op,
		Kind:   KindTimeout,
		Key:    key,
		Detail: fmt.Sprintf("no completion after %s", waited),
	}
}

// OutOfBounds reports a codec window that exceeds the buffer.
func OutOfBounds(op Op, offset, width, size uint32) *Error {
	return &Error{
		Op:     op,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("offset %d + width %d exceeds buffer size %d", offset, width, size),
	}
}

// NotReady reports an operation before creation resolved.
func NotReady(op Op, key string) *Error {
	return &Error{Op: op, Kind: KindNotReady, Key: key, Detail: "tag not ready"}
}

// Closed reports an operation on a destroyed entry.
func Closed(op Op, key string) *Error {
	return &Error{Op: op, Kind: KindClosed, Key: key, Detail: "tag destroyed"}
}

// Unsupported reports a value type the codec cannot marshal.
func Unsupported(op Op, goType string) *Error {
	return &Error{Op: op, Kind: KindUnsupported, Detail: fmt.Sprintf("type %s has no fixed-width layout", goType)}
}

// InvalidInput reports a malformed argument.
func InvalidInput(op Op, detail string) *Error {
	return &Error{Op: op, Kind: KindInvalidInput, Detail: detail}
}

// Wrap attaches op/kind context to an underlying error.
func Wrap(op Op, kind Kind, cause error, detail string) *Error {
	return &Error{Op: op, Kind: kind, Cause: cause, Detail: detail}
}

// KindOf extracts the Kind from err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// EngineCode extracts the engine code from an engine error.
func EngineCode(err error) (int32, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindEngine {
		return e.Code, true
	}
	return 0, false
}

// Predicates used by callers deciding on retry or teardown.

func IsTimeout(err error) bool     { return KindOf(err) == KindTimeout }
func IsClosed(err error) bool      { return KindOf(err) == KindClosed }
func IsNotReady(err error) bool    { return KindOf(err) == KindNotReady }
func IsOutOfBounds(err error) bool { return KindOf(err) == KindOutOfBounds }
