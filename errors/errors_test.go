package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{
			name: "engine error with key and code",
			err:  Engine(OpRead, "gw1;Tag1", -32, "ERR_TIMEOUT"),
			want: []string{"[read]", "engine_error", "tag gw1;Tag1", "ERR_TIMEOUT", "(code -32)"},
		},
		{
			name: "timeout",
			err:  Timeout(OpWrite, "gw1;Tag1", 500*time.Millisecond),
			want: []string{"[write]", "timeout", "500ms"},
		},
		{
			name: "out of bounds",
			err:  OutOfBounds(OpDecode, 6, 4, 8),
			want: []string{"[decode]", "out_of_bounds", "offset 6", "width 4", "size 8"},
		},
		{
			name: "wrapped cause",
			err:  Wrap(OpCreate, KindEngine, fmt.Errorf("dial tcp: refused"), "create failed"),
			want: []string{"[create]", "caused by: dial tcp: refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, frag := range tt.want {
				if !strings.Contains(got, frag) {
					t.Errorf("Error() = %q, missing %q", got, frag)
				}
			}
		})
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := Timeout(OpRead, "k", time.Second)

	if !stderrors.Is(err, &Error{Kind: KindTimeout}) {
		t.Error("expected Is match on Kind alone")
	}
	if stderrors.Is(err, &Error{Kind: KindClosed}) {
		t.Error("unexpected Is match on different Kind")
	}
	if !stderrors.Is(err, &Error{Op: OpRead, Kind: KindTimeout}) {
		t.Error("expected Is match on Op+Kind")
	}
	if stderrors.Is(err, &Error{Op: OpWrite, Kind: KindTimeout}) {
		t.Error("unexpected Is match on different Op")
	}
}

func TestPredicates(t *testing.T) {
	if !IsTimeout(Timeout(OpRead, "k", time.Second)) {
		t.Error("IsTimeout false for timeout error")
	}
	if !IsClosed(Closed(OpWrite, "k")) {
		t.Error("IsClosed false for closed error")
	}
	if !IsNotReady(NotReady(OpRead, "k")) {
		t.Error("IsNotReady false for not-ready error")
	}
	if !IsOutOfBounds(OutOfBounds(OpDecode, 10, 2, 4)) {
		t.Error("IsOutOfBounds false for bounds error")
	}
	if IsTimeout(fmt.Errorf("plain")) {
		t.Error("IsTimeout true for plain error")
	}
}

func TestEngineCode(t *testing.T) {
	code, ok := EngineCode(Engine(OpRead, "k", -32, "ERR_TIMEOUT"))
	if !ok || code != -32 {
		t.Fatalf("EngineCode = %d, %v; want -32, true", code, ok)
	}

	// Code is recoverable through wrapping.
	wrapped := fmt.Errorf("op failed: %w", Engine(OpWrite, "k", -4, "ERR_BAD_DATA"))
	code, ok = EngineCode(wrapped)
	if !ok || code != -4 {
		t.Fatalf("EngineCode via wrap = %d, %v; want -4, true", code, ok)
	}

	if _, ok := EngineCode(Timeout(OpRead, "k", time.Second)); ok {
		t.Error("EngineCode true for non-engine error")
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(OpDestroy, KindClosed, cause, "detail")
	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
}
