package tagruntime

import "fmt"

// Status is the engine's three-way operation state: Ok, Pending, or an
// error code. Codes follow the libplctag convention: 0 is Ok, 1 is
// Pending, negative values are errors.
type Status int32

const (
	StatusOK      Status = 0
	StatusPending Status = 1
)

// Engine error codes. Only the codes the runtime reacts to are named
// here; unknown codes pass through verbatim.
const (
	ErrCodeAbort       int32 = -1
	ErrCodeBadConfig   int32 = -2
	ErrCodeBadConn     int32 = -3
	ErrCodeBadData     int32 = -4
	ErrCodeBadGateway  int32 = -6
	ErrCodeBadParam    int32 = -7
	ErrCodeClose       int32 = -10
	ErrCodeCreate      int32 = -11
	ErrCodeNoData      int32 = -21
	ErrCodeNoResources int32 = -24
	ErrCodeNullPtr     int32 = -25
	ErrCodeOpen        int32 = -26
	ErrCodeOutOfBounds int32 = -27
	ErrCodeRead        int32 = -28
	ErrCodeRemote      int32 = -29
	ErrCodeTimeout     int32 = -32
	ErrCodeUnsupported int32 = -35
	ErrCodeWrite       int32 = -37
	ErrCodeBusy        int32 = -38
)

func (s Status) IsOK() bool      { return s == StatusOK }
func (s Status) IsPending() bool { return s == StatusPending }
func (s Status) IsErr() bool     { return s < 0 }

// Code returns the raw engine code.
func (s Status) Code() int32 { return int32(s) }

// Fatal reports whether the code invalidates the resource itself, as
// opposed to a transient per-operation failure. A fatal status moves
// the owning entry to the Faulted state.
func (s Status) Fatal() bool {
	switch int32(s) {
	case ErrCodeBadConn, ErrCodeBadConfig, ErrCodeBadGateway, ErrCodeClose,
		ErrCodeCreate, ErrCodeNullPtr, ErrCodeOpen, ErrCodeNoResources:
		return true
	}
	return false
}

var statusNames = map[int32]string{
	0:                 "STATUS_OK",
	1:                 "STATUS_PENDING",
	ErrCodeAbort:      "ERR_ABORT",
	ErrCodeBadConfig:  "ERR_BAD_CONFIG",
	ErrCodeBadConn:    "ERR_BAD_CONNECTION",
	ErrCodeBadData:    "ERR_BAD_DATA",
	ErrCodeBadGateway: "ERR_BAD_GATEWAY",
	ErrCodeBadParam:   "ERR_BAD_PARAM",
	ErrCodeClose:      "ERR_CLOSE",
	ErrCodeCreate:     "ERR_CREATE",
	ErrCodeNoData:     "ERR_NO_DATA",

	ErrCodeNoResources: "ERR_NO_RESOURCES",
	ErrCodeNullPtr:     "ERR_NULL_PTR",
	ErrCodeOpen:        "ERR_OPEN",
	ErrCodeOutOfBounds: "ERR_OUT_OF_BOUNDS",
	ErrCodeRead:        "ERR_READ",
	ErrCodeRemote:      "ERR_REMOTE_ERR",
	ErrCodeTimeout:     "ERR_TIMEOUT",
	ErrCodeUnsupported: "ERR_UNSUPPORTED",
	ErrCodeWrite:       "ERR_WRITE",
	ErrCodeBusy:        "ERR_BUSY",
}

// DecodeStatus translates known status codes to their symbolic names.
// Engines may override this with protocol-specific detail via
// Engine.DecodeError.
func DecodeStatus(code int32) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return fmt.Sprintf("ERR_UNKNOWN(%d)", code)
}

func (s Status) String() string { return DecodeStatus(int32(s)) }
