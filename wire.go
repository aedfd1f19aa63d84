package bran

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"golang.org/x/exp/constraints"
)

// Order is the fixed byte order of the wire format. The layout is chosen
// once for the whole system; streams are not portable across orders. Both
// halves of the codec go through it, so it carries the append methods as
// well as the read methods.
var Order interface {
	binary.ByteOrder
	binary.AppendByteOrder
} = binary.LittleEndian

// fitsPrefix reports whether n can be carried by the 16-bit length prefix.
func fitsPrefix[T constraints.Integer](n T) bool {
	return n >= 0 && int64(n) <= math.MaxInt16
}

// Writer accumulates encoded bytes. It tracks the first error that occurs;
// after an error every subsequent write becomes a no-op, so codecs can emit
// a sequence of fields and check the error state once.
type Writer struct {
	buf []byte
	err error
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 512)}
}

// Reset clears the buffer and error state so the Writer can be reused.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.err = nil
}

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns a view of the written data, valid until the next write or
// Reset.
func (w *Writer) Bytes() []byte { return w.buf }

// setError records the first non-nil error. Later errors are dropped so the
// root cause of a failure chain is preserved.
func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// WriteBool writes a single 0x00/0x01 byte.
func (w *Writer) WriteBool(v bool) {
	if w.err != nil {
		return
	}
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WriteInt16 writes a 2-byte signed integer.
func (w *Writer) WriteInt16(v int16) {
	if w.err != nil {
		return
	}
	w.buf = Order.AppendUint16(w.buf, uint16(v))
}

// WriteInt32 writes a 4-byte signed integer.
func (w *Writer) WriteInt32(v int32) {
	if w.err != nil {
		return
	}
	w.buf = Order.AppendUint32(w.buf, uint32(v))
}

// WriteFloat64 writes an 8-byte IEEE-754 value.
func (w *Writer) WriteFloat64(v float64) {
	if w.err != nil {
		return
	}
	w.buf = Order.AppendUint64(w.buf, math.Float64bits(v))
}

// WriteLength writes a 16-bit length prefix, failing with ErrTooLong when
// the count does not fit.
func (w *Writer) WriteLength(n int) {
	if w.err != nil {
		return
	}
	if !fitsPrefix(n) {
		w.setError(fmt.Errorf("%w: %d", ErrTooLong, n))
		return
	}
	w.WriteInt16(int16(n))
}

// WriteRaw appends raw bytes with no prefix.
func (w *Writer) WriteRaw(p []byte) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, p...)
}

// WriteRawString appends the UTF-8 bytes of s with no prefix.
func (w *Writer) WriteRawString(s string) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, s...)
}

// Reader consumes encoded bytes from an in-memory payload. Like Writer it
// latches the first error; reads after a failure return zero values.
type Reader struct {
	data []byte
	off  int
	err  error
}

// NewReader creates a Reader over data. The slice is not copied.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Count returns the number of bytes consumed so far.
func (r *Reader) Count() int { return r.off }

// Available returns the number of bytes left to read.
func (r *Reader) Available() int {
	if n := len(r.data) - r.off; n > 0 {
		return n
	}
	return 0
}

// take returns the next n bytes, latching io.ErrUnexpectedEOF on a short
// payload. A partial read is different from a clean end-of-stream.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	p := r.data[r.off : r.off+n]
	r.off += n
	return p
}

// ReadBool reads a single byte; any non-zero value is true.
func (r *Reader) ReadBool() bool {
	p := r.take(1)
	return r.err == nil && p[0] != 0
}

// ReadInt16 reads a 2-byte signed integer.
func (r *Reader) ReadInt16() int16 {
	p := r.take(2)
	if r.err != nil {
		return 0
	}
	return int16(Order.Uint16(p))
}

// ReadInt32 reads a 4-byte signed integer.
func (r *Reader) ReadInt32() int32 {
	p := r.take(4)
	if r.err != nil {
		return 0
	}
	return int32(Order.Uint32(p))
}

// ReadFloat64 reads an 8-byte IEEE-754 value.
func (r *Reader) ReadFloat64() float64 {
	p := r.take(8)
	if r.err != nil {
		return 0
	}
	return math.Float64frombits(Order.Uint64(p))
}

// ReadLength reads a 16-bit length prefix. A negative prefix latches an
// error so callers can size allocations without checking the sign.
func (r *Reader) ReadLength() int {
	n := int(r.ReadInt16())
	if r.err == nil && n < 0 {
		r.err = fmt.Errorf("%w: negative length %d", ErrBadValue, n)
		return 0
	}
	return n
}

// ReadRaw reads n raw bytes. The returned slice aliases the payload.
func (r *Reader) ReadRaw(n int) []byte {
	return r.take(n)
}
