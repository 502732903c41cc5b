package codec

import "fmt"

// Bytes is an in-memory Buffer backed by a byte slice. It is used by
// tests and anywhere a staged copy of tag data needs to be decoded
// without touching the engine.
type Bytes struct {
	data []byte
}

// NewBytes allocates a zeroed in-memory buffer of the given size.
func NewBytes(size uint32) *Bytes {
	return &Bytes{data: make([]byte, size)}
}

// Wrap adopts an existing slice without copying.
func Wrap(data []byte) *Bytes {
	return &Bytes{data: data}
}

func (b *Bytes) Size() uint32 { return uint32(len(b.data)) }

func (b *Bytes) ReadAt(offset uint32, p []byte) error {
	if int(offset)+len(p) > len(b.data) {
		return fmt.Errorf("read [%d:%d) outside buffer of %d bytes", offset, int(offset)+len(p), len(b.data))
	}
	copy(p, b.data[offset:])
	return nil
}

func (b *Bytes) WriteAt(offset uint32, p []byte) error {
	if int(offset)+len(p) > len(b.data) {
		return fmt.Errorf("write [%d:%d) outside buffer of %d bytes", offset, int(offset)+len(p), len(b.data))
	}
	copy(b.data[offset:], p)
	return nil
}

// Raw exposes the backing slice.
func (b *Bytes) Raw() []byte { return b.data }
