package bran

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriterReaderSymmetry drives every primitive through Order on both the
// append and the read side and pins the little-endian layout.
func TestWriterReaderSymmetry(t *testing.T) {
	w := NewWriter()
	w.WriteBool(true)
	w.WriteInt16(-2)
	w.WriteInt32(0x01020304)
	w.WriteFloat64(2.5)
	w.WriteLength(3)
	w.WriteRawString("abc")
	require.NoError(t, w.Err())

	expected := []byte{
		0x01,
		0xFE, 0xFF,
		0x04, 0x03, 0x02, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x40,
		0x03, 0x00,
		'a', 'b', 'c',
	}
	assert.Equal(t, expected, w.Bytes())

	r := NewReader(w.Bytes())
	assert.True(t, r.ReadBool())
	assert.Equal(t, int16(-2), r.ReadInt16())
	assert.Equal(t, int32(0x01020304), r.ReadInt32())
	assert.Equal(t, 2.5, r.ReadFloat64())
	assert.Equal(t, 3, r.ReadLength())
	assert.Equal(t, []byte("abc"), r.ReadRaw(3))
	require.NoError(t, r.Err())
	assert.Equal(t, 0, r.Available())
	assert.Equal(t, len(expected), r.Count())
}

func TestWriterLatchesFirstError(t *testing.T) {
	w := NewWriter()
	w.WriteLength(-1)
	assert.ErrorIs(t, w.Err(), ErrTooLong)

	// Later writes are no-ops and do not disturb the latched error.
	w.WriteInt32(7)
	assert.ErrorIs(t, w.Err(), ErrTooLong)
	assert.Equal(t, 0, w.Len())
}

func TestReaderLatchesOnShortPayload(t *testing.T) {
	r := NewReader([]byte{0x01})
	_ = r.ReadInt32()
	assert.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)

	// Reads after the failure return zero values.
	assert.Equal(t, int16(0), r.ReadInt16())
	assert.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
}

func TestReaderRejectsNegativeLength(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xFF})
	assert.Equal(t, 0, r.ReadLength())
	assert.ErrorIs(t, r.Err(), ErrBadValue)
}
