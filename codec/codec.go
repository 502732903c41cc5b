package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/edgefoundry/tag-runtime/errors"
)

// Buffer is a bounded byte window over a tag's staged data. The tag
// package backs it with the engine's raw byte accessors; tests use the
// in-memory Bytes implementation.
//
// Size is fixed for the life of the buffer. ReadAt and WriteAt are only
// invoked after a bounds check against Size, so implementations may
// assume offset+len(p) <= Size().
type Buffer interface {
	Size() uint32
	ReadAt(offset uint32, p []byte) error
	WriteAt(offset uint32, p []byte) error
}

// Decodable produces itself from a buffer window at offset. Composite
// types implement this by composing member decodes at their declared
// offsets; no padding or alignment is applied beyond what the
// implementation itself states.
type Decodable interface {
	DecodeFrom(b Buffer, offset uint32) error
}

// Encodable writes itself into a buffer window at offset.
type Encodable interface {
	EncodeTo(b Buffer, offset uint32) error
}

// Fixed is the set of fixed-width primitive value types. Each encodes
// to exactly its declared byte width in the engine's byte order
// (little-endian, per the libplctag data contract).
type Fixed interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 |
		int64 | uint64 | float32 | float64
}

var order = binary.LittleEndian

// WidthOf reports the fixed encoded width of v, which may be a
// primitive or a pointer to one. Types without a fixed-width layout
// (including Decodable composites, whose extent only their own member
// offsets know) report false.
func WidthOf(v any) (uint32, bool) { return width(v) }

// width reports the encoded byte width of a fixed primitive.
func width(v any) (uint32, bool) {
	switch v.(type) {
	case bool, int8, uint8, *bool, *int8, *uint8:
		return 1, true
	case int16, uint16, *int16, *uint16:
		return 2, true
	case int32, uint32, float32, *int32, *uint32, *float32:
		return 4, true
	case int64, uint64, float64, *int64, *uint64, *float64:
		return 8, true
	}
	return 0, false
}

func checkBounds(op errors.Op, b Buffer, offset, w uint32) error {
	size := b.Size()
	if offset > size || w > size-min(offset, size) {
		return errors.OutOfBounds(op, offset, w, size)
	}
	return nil
}

// GetValue decodes a fixed-width primitive at offset. The bounds check
// happens before the buffer is touched: a window past the end of the
// buffer fails locally with out_of_bounds and performs no engine call.
func GetValue[T Fixed](b Buffer, offset uint32) (T, error) {
	var v T
	w, _ := width(v)
	if err := checkBounds(errors.OpDecode, b, offset, w); err != nil {
		return v, err
	}

	raw := make([]byte, w)
	if err := b.ReadAt(offset, raw); err != nil {
		return v, errors.Wrap(errors.OpDecode, errors.KindEngine, err, "buffer read")
	}

	switch p := any(&v).(type) {
	case *bool:
		*p = raw[0] != 0
	case *int8:
		*p = int8(raw[0])
	case *uint8:
		*p = raw[0]
	case *int16:
		*p = int16(order.Uint16(raw))
	case *uint16:
		*p = order.Uint16(raw)
	case *int32:
		*p = int32(order.Uint32(raw))
	case *uint32:
		*p = order.Uint32(raw)
	case *int64:
		*p = int64(order.Uint64(raw))
	case *uint64:
		*p = order.Uint64(raw)
	case *float32:
		*p = math.Float32frombits(order.Uint32(raw))
	case *float64:
		*p = math.Float64frombits(order.Uint64(raw))
	}
	return v, nil
}

// SetValue encodes a fixed-width primitive at offset, with the same
// local bounds contract as GetValue.
func SetValue[T Fixed](b Buffer, offset uint32, v T) error {
	w, _ := width(v)
	if err := checkBounds(errors.OpEncode, b, offset, w); err != nil {
		return err
	}

	raw := make([]byte, w)
	switch x := any(v).(type) {
	case bool:
		if x {
			raw[0] = 1
		}
	case int8:
		raw[0] = byte(x)
	case uint8:
		raw[0] = x
	case int16:
		order.PutUint16(raw, uint16(x))
	case uint16:
		order.PutUint16(raw, x)
	case int32:
		order.PutUint32(raw, uint32(x))
	case uint32:
		order.PutUint32(raw, x)
	case int64:
		order.PutUint64(raw, uint64(x))
	case uint64:
		order.PutUint64(raw, x)
	case float32:
		order.PutUint32(raw, math.Float32bits(x))
	case float64:
		order.PutUint64(raw, math.Float64bits(x))
	}

	if err := b.WriteAt(offset, raw); err != nil {
		return errors.Wrap(errors.OpEncode, errors.KindEngine, err, "buffer write")
	}
	return nil
}

// Decode unmarshals into dst, which must be a pointer to a fixed-width
// primitive or a Decodable. Used by callers that dispatch on dynamic
// types; generic callers should prefer GetValue.
func Decode(b Buffer, offset uint32, dst any) error {
	if d, ok := dst.(Decodable); ok {
		return d.DecodeFrom(b, offset)
	}

	switch p := dst.(type) {
	case *bool:
		return assign(p, b, offset)
	case *int8:
		return assign(p, b, offset)
	case *uint8:
		return assign(p, b, offset)
	case *int16:
		return assign(p, b, offset)
	case *uint16:
		return assign(p, b, offset)
	case *int32:
		return assign(p, b, offset)
	case *uint32:
		return assign(p, b, offset)
	case *int64:
		return assign(p, b, offset)
	case *uint64:
		return assign(p, b, offset)
	case *float32:
		return assign(p, b, offset)
	case *float64:
		return assign(p, b, offset)
	}
	return errors.Unsupported(errors.OpDecode, fmt.Sprintf("%T", dst))
}

func assign[T Fixed](p *T, b Buffer, offset uint32) error {
	v, err := GetValue[T](b, offset)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Encode marshals v, which must be a fixed-width primitive or an
// Encodable, into the buffer at offset.
func Encode(b Buffer, offset uint32, v any) error {
	if e, ok := v.(Encodable); ok {
		return e.EncodeTo(b, offset)
	}

	switch x := v.(type) {
	case bool:
		return SetValue(b, offset, x)
	case int8:
		return SetValue(b, offset, x)
	case uint8:
		return SetValue(b, offset, x)
	case int16:
		return SetValue(b, offset, x)
	case uint16:
		return SetValue(b, offset, x)
	case int32:
		return SetValue(b, offset, x)
	case uint32:
		return SetValue(b, offset, x)
	case int64:
		return SetValue(b, offset, x)
	case uint64:
		return SetValue(b, offset, x)
	case float32:
		return SetValue(b, offset, x)
	case float64:
		return SetValue(b, offset, x)
	}
	return errors.Unsupported(errors.OpEncode, fmt.Sprintf("%T", v))
}
