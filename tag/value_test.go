package tag

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgefoundry/tag-runtime/codec"
	"github.com/edgefoundry/tag-runtime/engine"
	"github.com/edgefoundry/tag-runtime/errors"
)

func TestReadValueSeesRemoteChange(t *testing.T) {
	sim := engine.NewSim()
	e := newReadyEntry(t, sim, testConfig)
	defer e.Destroy(context.Background())

	// Mutate the controller-side image behind the runtime's back.
	raw := make([]byte, 2)
	binary.LittleEndian.PutUint16(raw, 1200)
	require.True(t, sim.Poke(1, 4, raw))

	got, err := ReadValue[uint16](context.Background(), e, 4)
	require.NoError(t, err)
	assert.Equal(t, uint16(1200), got)
}

func TestWriteValueRoundTrip(t *testing.T) {
	sim := engine.NewSim()
	e := newReadyEntry(t, sim, testConfig)
	defer e.Destroy(context.Background())

	require.NoError(t, WriteValue(context.Background(), e, 8, int32(-77)))

	got, err := ReadValue[int32](context.Background(), e, 8)
	require.NoError(t, err)
	assert.Equal(t, int32(-77), got)
}

func TestStagedValueDoesNotTouchDevice(t *testing.T) {
	sim := engine.NewSim()
	e := newReadyEntry(t, sim, testConfig)
	defer e.Destroy(context.Background())

	reads, writes := sim.ReadCalls(), sim.WriteCalls()

	require.NoError(t, SetValue(context.Background(), e, 0, uint32(42)))
	got, err := GetValue[uint32](context.Background(), e, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), got)

	assert.Equal(t, reads, sim.ReadCalls(), "staged access issued a device read")
	assert.Equal(t, writes, sim.WriteCalls(), "staged access issued a device write")
}

func TestSetValueThenWriteFlushesBatch(t *testing.T) {
	sim := engine.NewSim()
	e := newReadyEntry(t, sim, testConfig)
	defer e.Destroy(context.Background())

	ctx := context.Background()
	require.NoError(t, SetValue(ctx, e, 0, uint16(10)))
	require.NoError(t, SetValue(ctx, e, 2, uint16(20)))
	require.NoError(t, e.Write(ctx, 0))

	// One flush carried both staged fields to the device.
	assert.Equal(t, int64(1), sim.WriteCalls())

	a, err := ReadValue[uint16](ctx, e, 0)
	require.NoError(t, err)
	b, err := ReadValue[uint16](ctx, e, 2)
	require.NoError(t, err)
	assert.Equal(t, uint16(10), a)
	assert.Equal(t, uint16(20), b)
}

func TestValueBoundsFailBeforeDeviceIO(t *testing.T) {
	sim := engine.NewSim()
	e := newReadyEntry(t, sim, testConfig) // 16 byte buffer
	defer e.Destroy(context.Background())

	ctx := context.Background()
	reads, writes := sim.ReadCalls(), sim.WriteCalls()

	_, err := ReadValue[uint64](ctx, e, 12)
	assert.True(t, errors.IsOutOfBounds(err), "err = %v", err)

	err = WriteValue(ctx, e, 16, uint8(1))
	assert.True(t, errors.IsOutOfBounds(err), "err = %v", err)

	assert.Equal(t, reads, sim.ReadCalls(), "bounds failure reached the device")
	assert.Equal(t, writes, sim.WriteCalls(), "bounds failure reached the device")
}

// motor mirrors a composite laid out across the tag buffer.
type motor struct {
	Speed   uint16
	Current float32
	Faulted bool
}

func (m *motor) DecodeFrom(b codec.Buffer, base uint32) error {
	var err error
	if m.Speed, err = codec.GetValue[uint16](b, base); err != nil {
		return err
	}
	if m.Current, err = codec.GetValue[float32](b, base+4); err != nil {
		return err
	}
	m.Faulted, err = codec.GetValue[bool](b, base+8)
	return err
}

func (m *motor) EncodeTo(b codec.Buffer, base uint32) error {
	if err := codec.SetValue(b, base, m.Speed); err != nil {
		return err
	}
	if err := codec.SetValue(b, base+4, m.Current); err != nil {
		return err
	}
	return codec.SetValue(b, base+8, m.Faulted)
}

func TestCompositeRoundTrip(t *testing.T) {
	sim := engine.NewSim()
	e := newReadyEntry(t, sim, testConfig)
	defer e.Destroy(context.Background())

	ctx := context.Background()
	in := &motor{Speed: 1450, Current: 3.2, Faulted: true}
	require.NoError(t, WriteFrom(ctx, e, 0, in))

	out := &motor{}
	require.NoError(t, ReadInto(ctx, e, 0, out))
	assert.Equal(t, in, out)
}

func TestCompositeBoundsAbortWrite(t *testing.T) {
	sim := engine.NewSim()
	e := newReadyEntry(t, sim, testConfig)
	defer e.Destroy(context.Background())

	writes := sim.WriteCalls()
	err := WriteFrom(context.Background(), e, 12, &motor{})
	assert.True(t, errors.IsOutOfBounds(err), "err = %v", err)
	assert.Equal(t, writes, sim.WriteCalls(), "partial composite reached the device")
}
