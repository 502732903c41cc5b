package codec

import (
	"testing"

	"github.com/edgefoundry/tag-runtime/errors"
)

// countingBuffer records accesses so bounds tests can prove the buffer
// was never touched.
type countingBuffer struct {
	inner  *Bytes
	reads  int
	writes int
}

func (c *countingBuffer) Size() uint32 { return c.inner.Size() }

func (c *countingBuffer) ReadAt(offset uint32, p []byte) error {
	c.reads++
	return c.inner.ReadAt(offset, p)
}

func (c *countingBuffer) WriteAt(offset uint32, p []byte) error {
	c.writes++
	return c.inner.WriteAt(offset, p)
}

func roundTrip[T Fixed](t *testing.T, v T, wantWidth uint32) {
	t.Helper()
	buf := NewBytes(16)

	// Encode at a non-zero offset to catch offset bugs.
	const off = 3
	if err := SetValue(buf, off, v); err != nil {
		t.Fatalf("SetValue(%v): %v", v, err)
	}
	got, err := GetValue[T](buf, off)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if got != v {
		t.Errorf("round trip: got %v, want %v", got, v)
	}

	// Bytes outside the window stay zero.
	for i, b := range buf.Raw() {
		if (i < off || i >= off+int(wantWidth)) && b != 0 {
			t.Errorf("byte %d dirtied outside window of width %d", i, wantWidth)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	roundTrip(t, true, 1)
	roundTrip(t, int8(-100), 1)
	roundTrip(t, uint8(200), 1)
	roundTrip(t, int16(-30000), 2)
	roundTrip(t, uint16(60000), 2)
	roundTrip(t, int32(-2000000000), 4)
	roundTrip(t, uint32(4000000000), 4)
	roundTrip(t, int64(-9000000000000000000), 8)
	roundTrip(t, uint64(18000000000000000000), 8)
	roundTrip(t, float32(3.14159), 4)
	roundTrip(t, float64(-2.718281828459045), 8)
}

func TestLittleEndianLayout(t *testing.T) {
	buf := NewBytes(4)
	if err := SetValue(buf, 0, uint16(0x1234)); err != nil {
		t.Fatal(err)
	}
	raw := buf.Raw()
	if raw[0] != 0x34 || raw[1] != 0x12 {
		t.Errorf("uint16 layout = % x, want 34 12", raw[:2])
	}
}

func TestBoundsViolation(t *testing.T) {
	tests := []struct {
		name   string
		size   uint32
		offset uint32
		run    func(b Buffer, offset uint32) error
	}{
		{"u16 read past end", 4, 3, func(b Buffer, off uint32) error {
			_, err := GetValue[uint16](b, off)
			return err
		}},
		{"u64 read at exact end", 8, 1, func(b Buffer, off uint32) error {
			_, err := GetValue[uint64](b, off)
			return err
		}},
		{"f32 write past end", 4, 2, func(b Buffer, off uint32) error {
			return SetValue(b, off, float32(1.0))
		}},
		{"read offset beyond buffer", 4, 100, func(b Buffer, off uint32) error {
			_, err := GetValue[uint8](b, off)
			return err
		}},
		{"write offset overflow", 8, 0xFFFFFFFF, func(b Buffer, off uint32) error {
			return SetValue(b, off, uint32(1))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := &countingBuffer{inner: NewBytes(tt.size)}
			err := tt.run(cb, tt.offset)
			if !errors.IsOutOfBounds(err) {
				t.Fatalf("got %v, want out_of_bounds", err)
			}
			if cb.reads != 0 || cb.writes != 0 {
				t.Errorf("buffer touched on bounds violation: %d reads, %d writes", cb.reads, cb.writes)
			}
		})
	}
}

func TestBoundsExactFit(t *testing.T) {
	buf := NewBytes(8)
	if err := SetValue(buf, 0, uint64(42)); err != nil {
		t.Fatalf("exact-fit write rejected: %v", err)
	}
	if _, err := GetValue[uint64](buf, 0); err != nil {
		t.Fatalf("exact-fit read rejected: %v", err)
	}
}

// pair is a two-field composite with declared offsets 0 and 2.
type pair struct {
	A uint16
	B uint16
}

func (p *pair) DecodeFrom(b Buffer, offset uint32) error {
	var err error
	if p.A, err = GetValue[uint16](b, offset); err != nil {
		return err
	}
	p.B, err = GetValue[uint16](b, offset+2)
	return err
}

func (p *pair) EncodeTo(b Buffer, offset uint32) error {
	if err := SetValue(b, offset, p.A); err != nil {
		return err
	}
	return SetValue(b, offset+2, p.B)
}

func TestCompositeRoundTrip(t *testing.T) {
	buf := NewBytes(8)
	in := &pair{A: 0xBEEF, B: 0x1234}
	if err := Encode(buf, 2, in); err != nil {
		t.Fatal(err)
	}

	out := &pair{}
	if err := Decode(buf, 2, out); err != nil {
		t.Fatal(err)
	}
	if *out != *in {
		t.Errorf("composite round trip: got %+v, want %+v", out, in)
	}
}

func TestCompositeBounds(t *testing.T) {
	buf := NewBytes(3) // room for A but not B
	err := Decode(buf, 0, &pair{})
	if !errors.IsOutOfBounds(err) {
		t.Fatalf("got %v, want out_of_bounds", err)
	}
}

func TestDynamicDispatch(t *testing.T) {
	buf := NewBytes(8)
	if err := Encode(buf, 0, int32(-7)); err != nil {
		t.Fatal(err)
	}
	var v int32
	if err := Decode(buf, 0, &v); err != nil {
		t.Fatal(err)
	}
	if v != -7 {
		t.Errorf("got %d, want -7", v)
	}
}

func TestUnsupportedType(t *testing.T) {
	buf := NewBytes(8)
	if err := Encode(buf, 0, "strings have no fixed width"); errors.KindOf(err) != errors.KindUnsupported {
		t.Errorf("Encode(string) = %v, want unsupported", err)
	}
	var s string
	if err := Decode(buf, 0, &s); errors.KindOf(err) != errors.KindUnsupported {
		t.Errorf("Decode(*string) = %v, want unsupported", err)
	}
}
