package tag

import (
	"context"

	"github.com/edgefoundry/tag-runtime/codec"
	"github.com/edgefoundry/tag-runtime/errors"
)

// stagedBuffer adapts an entry's staged resource buffer to
// codec.Buffer. It calls the engine directly and is only used from the
// entry's worker goroutine, inside an operation that already holds the
// queue turn.
type stagedBuffer struct {
	e *Entry
}

func (b stagedBuffer) Size() uint32 {
	return b.e.Size()
}

func (b stagedBuffer) ReadAt(offset uint32, p []byte) error {
	if st := b.e.eng.GetBytes(b.e.handle, offset, p); st.IsErr() {
		return errors.Engine(errors.OpDecode, b.e.key, st.Code(), b.e.eng.DecodeError(st.Code()))
	}
	return nil
}

func (b stagedBuffer) WriteAt(offset uint32, p []byte) error {
	if st := b.e.eng.SetBytes(b.e.handle, offset, p); st.IsErr() {
		return errors.Engine(errors.OpEncode, b.e.key, st.Code(), b.e.eng.DecodeError(st.Code()))
	}
	return nil
}

// ReadValue refreshes the tag from the remote device, then decodes one
// fixed-width value at offset from the fresh buffer. Refresh and
// decode occupy a single queue turn, so no interleaved write can
// separate them.
func ReadValue[T codec.Fixed](ctx context.Context, e *Entry, offset uint32) (T, error) {
	var zero T
	w, _ := codec.WidthOf(zero)
	if err := e.checkReady(errors.OpRead); err != nil {
		return zero, err
	}
	if err := e.boundsCheck(errors.OpRead, offset, w); err != nil {
		return zero, err
	}

	res := new(T)
	err := e.enqueueIO(ctx, errors.OpRead, 0, func() error {
		v, err := codec.GetValue[T](stagedBuffer{e}, offset)
		if err != nil {
			return err
		}
		*res = v
		return nil
	})
	if err != nil {
		return zero, err
	}
	return *res, nil
}

// WriteValue encodes one fixed-width value at offset into the staged
// buffer, then flushes the buffer to the remote device. Encode and
// flush occupy a single queue turn. A bounds failure aborts before the
// engine write is issued.
func WriteValue[T codec.Fixed](ctx context.Context, e *Entry, offset uint32, v T) error {
	w, _ := codec.WidthOf(v)
	if err := e.checkReady(errors.OpWrite); err != nil {
		return err
	}
	if err := e.boundsCheck(errors.OpWrite, offset, w); err != nil {
		return err
	}

	return e.enqueueIO(ctx, errors.OpWrite, 0, func() error {
		return codec.SetValue(stagedBuffer{e}, offset, v)
	})
}

// ReadInto refreshes the tag, then decodes into dst from the fresh
// buffer. dst is a codec.Decodable or a pointer to a fixed-width
// primitive; composites decode their fields at their declared offsets.
func ReadInto(ctx context.Context, e *Entry, offset uint32, dst any) error {
	if err := e.checkReady(errors.OpRead); err != nil {
		return err
	}
	return e.enqueueIO(ctx, errors.OpRead, 0, func() error {
		return codec.Decode(stagedBuffer{e}, offset, dst)
	})
}

// WriteFrom encodes v into the staged buffer, then flushes to the
// remote device. v is a codec.Encodable or a fixed-width primitive.
func WriteFrom(ctx context.Context, e *Entry, offset uint32, v any) error {
	if err := e.checkReady(errors.OpWrite); err != nil {
		return err
	}
	return e.enqueueIO(ctx, errors.OpWrite, 0, func() error {
		return codec.Encode(stagedBuffer{e}, offset, v)
	})
}

// GetValue decodes one fixed-width value from the staged buffer as-is,
// without refreshing from the device. Serialized through the queue
// like every other buffer access.
func GetValue[T codec.Fixed](ctx context.Context, e *Entry, offset uint32) (T, error) {
	var zero T
	w, _ := codec.WidthOf(zero)
	if err := e.checkReady(errors.OpDecode); err != nil {
		return zero, err
	}
	if err := e.boundsCheck(errors.OpDecode, offset, w); err != nil {
		return zero, err
	}

	res := new(T)
	op, err := e.submit(errors.OpDecode, func(op *operation) {
		if err := e.checkReady(errors.OpDecode); err != nil {
			op.resolve(err)
			return
		}
		v, err := codec.GetValue[T](stagedBuffer{e}, offset)
		if err == nil {
			*res = v
		}
		op.resolve(err)
	})
	if err != nil {
		return zero, err
	}
	if err := e.await(ctx, op); err != nil {
		return zero, err
	}
	return *res, nil
}

// SetValue encodes one fixed-width value into the staged buffer
// without flushing. A later Write or WriteValue pushes the staged
// image to the device.
func SetValue[T codec.Fixed](ctx context.Context, e *Entry, offset uint32, v T) error {
	w, _ := codec.WidthOf(v)
	if err := e.checkReady(errors.OpEncode); err != nil {
		return err
	}
	if err := e.boundsCheck(errors.OpEncode, offset, w); err != nil {
		return err
	}

	op, err := e.submit(errors.OpEncode, func(op *operation) {
		if err := e.checkReady(errors.OpEncode); err != nil {
			op.resolve(err)
			return
		}
		op.resolve(codec.SetValue(stagedBuffer{e}, offset, v))
	})
	if err != nil {
		return err
	}
	return e.await(ctx, op)
}
