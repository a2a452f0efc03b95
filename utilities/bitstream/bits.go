package bitstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dargueta/bitplane"
	"github.com/icza/bitio"
)

// countingWriter keeps track of how many bytes made it to the underlying stream.
type countingWriter struct {
	w     io.Writer
	total int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.total += int64(n)
	return n, err
}

// Writer is a byte-oriented MSB-first bit writer. Completed bytes are passed to
// the underlying [io.Writer] as they fill up.
type Writer struct {
	out      *countingWriter
	bits     *bitio.Writer
	written  int64
	finished bool
}

func NewWriter(output io.Writer) *Writer {
	out := &countingWriter{w: output}
	return &Writer{out: out, bits: bitio.NewWriter(out)}
}

// WriteBits appends the low `n` bits of `value`, most significant bit first.
// `n` must not exceed 64.
func (w *Writer) WriteBits(value uint64, n uint8) error {
	if w.finished {
		return bitplane.ErrInvalidArgument.WithMessage("write after Finish")
	}
	if n == 0 {
		return nil
	}
	if n > 64 {
		return bitplane.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("can't write %d bits at once", n))
	}
	if err := w.bits.WriteBits(value, n); err != nil {
		return bitplane.ErrIOFailed.Wrap(err)
	}
	w.written += int64(n)
	return nil
}

// WriteBit appends a single bit.
func (w *Writer) WriteBit(bit bool) error {
	if w.finished {
		return bitplane.ErrInvalidArgument.WithMessage("write after Finish")
	}
	if err := w.bits.WriteBool(bit); err != nil {
		return bitplane.ErrIOFailed.Wrap(err)
	}
	w.written++
	return nil
}

// Finish zero-pads the last partial byte and flushes it. It must be called
// exactly once, before [Writer.Len] is meaningful. It doesn't close the
// underlying stream.
func (w *Writer) Finish() error {
	if w.finished {
		return bitplane.ErrInvalidArgument.WithMessage("Finish called twice")
	}
	w.finished = true
	if err := w.bits.Close(); err != nil {
		return bitplane.ErrIOFailed.Wrap(err)
	}
	return nil
}

// BitsWritten gives the number of payload bits written, not counting padding.
func (w *Writer) BitsWritten() int64 {
	return w.written
}

// Len gives the number of bytes emitted to the underlying stream.
func (w *Writer) Len() int64 {
	return w.out.total
}

// -----------------------------------------------------------------------------

// Reader is a byte-oriented MSB-first bit reader over an in-memory buffer.
type Reader struct {
	bits     *bitio.Reader
	length   int
	consumed int64
}

func NewReader(data []byte) *Reader {
	return &Reader{
		bits:   bitio.NewReader(bytes.NewReader(data)),
		length: len(data),
	}
}

func (r *Reader) translateError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return bitplane.ErrUnexpectedEOF.AtBit(r.consumed)
	}
	return bitplane.ErrIOFailed.Wrap(err)
}

// ReadBit consumes one bit. It fails with [bitplane.ErrUnexpectedEOF] once the
// input is exhausted.
func (r *Reader) ReadBit() (bool, error) {
	bit, err := r.bits.ReadBool()
	if err != nil {
		return false, r.translateError(err)
	}
	r.consumed++
	return bit, nil
}

// ReadBits consumes `n` bits (at most 64) and returns them right-aligned. It
// fails with [bitplane.ErrUnexpectedEOF] if fewer than `n` bits remain.
func (r *Reader) ReadBits(n uint8) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	if n > 64 {
		return 0, bitplane.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("can't read %d bits at once", n))
	}
	if r.consumed+int64(n) > int64(r.length)*8 {
		return 0, bitplane.ErrUnexpectedEOF.AtBit(r.consumed)
	}

	value, err := r.bits.ReadBits(n)
	if err != nil {
		return 0, r.translateError(err)
	}
	r.consumed += int64(n)
	return value, nil
}

// Offset gives the number of bits consumed so far.
func (r *Reader) Offset() int64 {
	return r.consumed
}

// RemainingLength gives the total byte length of the backing input.
func (r *Reader) RemainingLength() int {
	return r.length
}
