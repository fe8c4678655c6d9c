package event

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// U256ByteLength is the encoded width of a 256-bit value.
const U256ByteLength = 32

const (
	u64ByteLength  = 8
	boolByteLength = 1
)

var (
	ErrBufferOverflow    = errors.New("write exceeds buffer capacity")
	ErrBufferUnderfilled = errors.New("buffer not completely written")
	ErrShortBuffer       = errors.New("not enough bytes to read")
)

// Writer writes fixed-width big-endian values into a pre-sized buffer.
// The first failed write is kept and reported by Err and Finish.
type Writer struct {
	buf    []byte
	offset int
	err    error
}

func NewWriter(size int) *Writer {
	if size < 0 {
		size = 0
	}
	return &Writer{buf: make([]byte, size)}
}

// WriteU256 writes v as 32 big-endian bytes. A nil value is written as zero.
func (w *Writer) WriteU256(v *uint256.Int) {
	if !w.reserve(U256ByteLength) {
		return
	}
	if v != nil {
		word := v.Bytes32()
		copy(w.buf[w.offset:], word[:])
	}
	w.offset += U256ByteLength
}

func (w *Writer) WriteU64(v uint64) {
	if !w.reserve(u64ByteLength) {
		return
	}
	binary.BigEndian.PutUint64(w.buf[w.offset:], v)
	w.offset += u64ByteLength
}

func (w *Writer) WriteBool(v bool) {
	if !w.reserve(boolByteLength) {
		return
	}
	if v {
		w.buf[w.offset] = 1
	}
	w.offset += boolByteLength
}

func (w *Writer) reserve(n int) bool {
	if w.err != nil {
		return false
	}
	if w.offset+n > len(w.buf) {
		w.err = fmt.Errorf("%w: offset %d, need %d, capacity %d", ErrBufferOverflow, w.offset, n, len(w.buf))
		return false
	}
	return true
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	return w.err
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.offset
}

// Bytes returns a copy of the buffer, including any unwritten tail.
func (w *Writer) Bytes() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}

// Finish returns the buffer once every byte has been written.
func (w *Writer) Finish() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.offset != len(w.buf) {
		return nil, fmt.Errorf("%w: wrote %d of %d", ErrBufferUnderfilled, w.offset, len(w.buf))
	}
	return w.Bytes(), nil
}

// Reader reads fixed-width big-endian values from a buffer.
type Reader struct {
	buf    []byte
	offset int
}

func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

func (r *Reader) ReadU256() (*uint256.Int, error) {
	chunk, err := r.next(U256ByteLength)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(chunk), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	chunk, err := r.next(u64ByteLength)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(chunk), nil
}

func (r *Reader) ReadBool() (bool, error) {
	chunk, err := r.next(boolByteLength)
	if err != nil {
		return false, err
	}
	return chunk[0] != 0, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.offset
}

func (r *Reader) next(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, fmt.Errorf("%w: offset %d, need %d, have %d", ErrShortBuffer, r.offset, n, r.Remaining())
	}
	chunk := r.buf[r.offset : r.offset+n]
	r.offset += n
	return chunk, nil
}
