// Package wire holds the fixed-width field primitives used by message
// payloads. Writers and Readers carry their byte order so that the same
// field code serves both native and byte-swapped frames.
package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

// MaxVariableLen bounds rawdata/plaintext values; their length prefix is a uint16.
const MaxVariableLen = math.MaxUint16

var (
	ErrShortBuffer   = errors.New("wire: short buffer")
	ErrShortValue    = errors.New("wire: short value")
	ErrValueTooLarge = errors.New("wire: variable value too large")
)

// RawSize is the encoded size of a rawdata value.
func RawSize(b []byte) int {
	return 2 + len(b)
}

// TextSize is the encoded size of a plaintext value.
func TextSize(s string) int {
	return 2 + len(s)
}

// Writer encodes primitives into a caller-sized buffer. The first failure
// is sticky and every later write becomes a no-op.
type Writer struct {
	order binary.ByteOrder
	buf   []byte
	off   int
	err   error
}

func NewWriter(buf []byte, order binary.ByteOrder) *Writer {
	return &Writer{order: order, buf: buf}
}

func (w *Writer) Order() binary.ByteOrder { return w.order }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.off }

func (w *Writer) Err() error { return w.err }

// Bytes returns the written portion of the buffer.
func (w *Writer) Bytes() []byte { return w.buf[:w.off] }

func (w *Writer) next(n int) []byte {
	if w.err != nil {
		return nil
	}
	if len(w.buf)-w.off < n {
		w.err = ErrShortBuffer
		return nil
	}
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b
}

func (w *Writer) U8(v uint8) {
	if b := w.next(1); b != nil {
		b[0] = v
	}
}

func (w *Writer) I8(v int8) { w.U8(uint8(v)) }

func (w *Writer) U16(v uint16) {
	if b := w.next(2); b != nil {
		w.order.PutUint16(b, v)
	}
}

func (w *Writer) I16(v int16) { w.U16(uint16(v)) }

func (w *Writer) U32(v uint32) {
	if b := w.next(4); b != nil {
		w.order.PutUint32(b, v)
	}
}

func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

func (w *Writer) U64(v uint64) {
	if b := w.next(8); b != nil {
		w.order.PutUint64(b, v)
	}
}

func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

func (w *Writer) F64(v float64) { w.U64(math.Float64bits(v)) }

// Raw writes a uint16 length prefix followed by v.
func (w *Writer) Raw(v []byte) {
	if len(v) > MaxVariableLen {
		if w.err == nil {
			w.err = ErrValueTooLarge
		}
		return
	}
	w.U16(uint16(len(v)))
	if b := w.next(len(v)); b != nil {
		copy(b, v)
	}
}

// Text writes a plaintext value with the same layout as Raw.
func (w *Writer) Text(v string) {
	if len(v) > MaxVariableLen {
		if w.err == nil {
			w.err = ErrValueTooLarge
		}
		return
	}
	w.U16(uint16(len(v)))
	if b := w.next(len(v)); b != nil {
		copy(b, v)
	}
}

// Reader decodes primitives from a payload. Like Writer, the first
// failure is sticky and later reads return zero values.
type Reader struct {
	order binary.ByteOrder
	buf   []byte
	off   int
	err   error
}

func NewReader(buf []byte, order binary.ByteOrder) *Reader {
	return &Reader{order: order, buf: buf}
}

func (r *Reader) Order() binary.ByteOrder { return r.order }

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) Err() error { return r.err }

// Fail records err unless an earlier failure is already recorded.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.off < n {
		r.err = ErrShortValue
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) I8() int8 { return int8(r.U8()) }

func (r *Reader) U16() uint16 {
	b := r.next(2)
	if b == nil {
		return 0
	}
	return r.order.Uint16(b)
}

func (r *Reader) I16() int16 { return int16(r.U16()) }

func (r *Reader) U32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return r.order.Uint32(b)
}

func (r *Reader) I32() int32 { return int32(r.U32()) }

func (r *Reader) U64() uint64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return r.order.Uint64(b)
}

func (r *Reader) I64() int64 { return int64(r.U64()) }

func (r *Reader) F32() float32 { return math.Float32frombits(r.U32()) }

func (r *Reader) F64() float64 { return math.Float64frombits(r.U64()) }

// Raw reads a length-prefixed value and returns a copy of it.
func (r *Reader) Raw() []byte {
	n := r.U16()
	b := r.next(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (r *Reader) Text() string {
	n := r.U16()
	b := r.next(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}
