// Package codec marshals typed values against a tag's byte buffer.
//
// Fixed-width primitives (bool, the sized integers, float32, float64)
// encode to exactly their declared byte width in the engine's byte
// order (little-endian). Composite types implement Decodable and
// Encodable by composing member codecs at their declared offsets;
// nothing is padded or aligned implicitly:
//
//	type Motor struct {
//	    Speed  uint16
//	    Torque float32
//	}
//
//	func (m *Motor) DecodeFrom(b codec.Buffer, offset uint32) error {
//	    var err error
//	    if m.Speed, err = codec.GetValue[uint16](b, offset); err != nil {
//	        return err
//	    }
//	    m.Torque, err = codec.GetValue[float32](b, offset+2)
//	    return err
//	}
//
//	func (m *Motor) EncodeTo(b codec.Buffer, offset uint32) error {
//	    if err := codec.SetValue(b, offset, m.Speed); err != nil {
//	        return err
//	    }
//	    return codec.SetValue(b, offset+2, m.Torque)
//	}
//
// Every access is bounds-checked against Buffer.Size before the buffer
// is touched; a window past the end fails locally with out_of_bounds
// and performs zero engine calls.
package codec
