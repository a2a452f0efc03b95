package bitstream

import (
	"fmt"

	"github.com/dargueta/bitplane"
)

// WordSize is the width in bits of the storage unit used by [WordWriter] and
// [WordReader].
const WordSize = 32

// MaxPeekBits is the largest number of bits that can be written, peeked or
// skipped in a single call on the word streams.
const MaxPeekBits = 32

// WordWriter packs bit fields MSB-first into a sequence of 32-bit words.
//
// Pending bits live in a 64-bit accumulator. After every call to WriteBits
// fewer than [WordSize] bits are pending; complete words are appended to the
// output in order.
type WordWriter struct {
	words       []uint32
	accumulator uint64
	pending     uint
	finished    bool
}

func NewWordWriter() *WordWriter {
	return &WordWriter{}
}

// WriteBits appends the low `n` bits of `value`, most significant bit first.
// `n` must be in the range [0, 32].
func (w *WordWriter) WriteBits(value uint64, n uint) {
	if n == 0 {
		return
	}
	if n > MaxPeekBits {
		panic(fmt.Sprintf("bitstream: can't write %d bits at once (max %d)", n, MaxPeekBits))
	}

	w.accumulator = (w.accumulator << n) | (value & lowMask(n))
	w.pending += n
	w.flushWords()
}

func (w *WordWriter) flushWords() {
	for w.pending >= WordSize {
		tail := w.pending - WordSize
		w.words = append(w.words, uint32(w.accumulator>>tail))
		w.pending = tail
		w.accumulator &= lowMask(tail)
	}
}

// Finish zero-pads the final partial word and flushes it. It is safe to call
// more than once; only the first call has any effect.
func (w *WordWriter) Finish() {
	if w.finished {
		return
	}
	if w.pending > 0 {
		w.WriteBits(0, WordSize-w.pending)
	}
	w.finished = true
}

// Words returns the completed words. Call [WordWriter.Finish] first or the
// trailing partial word will be missing.
func (w *WordWriter) Words() []uint32 {
	return w.words
}

// BitsWritten gives the number of bits written so far, including padding.
func (w *WordWriter) BitsWritten() int64 {
	return int64(len(w.words))*WordSize + int64(w.pending)
}

// -----------------------------------------------------------------------------

// WordReader reads bit fields MSB-first from a sequence of 32-bit words through
// a 64-bit lookahead window that is refilled one word at a time.
type WordReader struct {
	words    []uint32
	nextWord int
	window   uint64
	buffered uint
	consumed int64
}

func NewWordReader(words []uint32) *WordReader {
	return &WordReader{words: words}
}

// fill tops up the window so that it holds more than one word's worth of bits
// if the input has them.
func (r *WordReader) fill() {
	for r.buffered <= WordSize && r.nextWord < len(r.words) {
		r.window |= uint64(r.words[r.nextWord]) << (64 - WordSize - r.buffered)
		r.nextWord++
		r.buffered += WordSize
	}
}

// Window returns the current lookahead window, left-aligned, and the number of
// valid bits in it. Bits past the valid count are zero.
func (r *WordReader) Window() (uint64, uint) {
	r.fill()
	return r.window, r.buffered
}

// Skip discards `n` bits from the front of the window. It fails with
// [bitplane.ErrUnexpectedEOF] if fewer than `n` bits remain.
func (r *WordReader) Skip(n uint) error {
	r.fill()
	if n > r.buffered {
		return bitplane.ErrUnexpectedEOF.AtBit(r.consumed)
	}
	if n == 64 {
		r.window = 0
	} else {
		r.window <<= n
	}
	r.buffered -= n
	r.consumed += int64(n)
	return nil
}

// ReadBits consumes `n` bits (at most 32) and returns them right-aligned.
func (r *WordReader) ReadBits(n uint) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	if n > MaxPeekBits {
		return 0, bitplane.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("can't read %d bits at once (max %d)", n, MaxPeekBits))
	}

	window, available := r.Window()
	if n > available {
		return 0, bitplane.ErrUnexpectedEOF.AtBit(r.consumed)
	}
	value := window >> (64 - n)
	return value, r.Skip(n)
}

// ReadBit consumes a single bit.
func (r *WordReader) ReadBit() (bool, error) {
	bit, err := r.ReadBits(1)
	return bit != 0, err
}

// Offset gives the number of bits consumed so far.
func (r *WordReader) Offset() int64 {
	return r.consumed
}

// RemainingLength gives the total size in bytes of the backing word array,
// regardless of how much has been consumed.
func (r *WordReader) RemainingLength() int {
	return len(r.words) * (WordSize / 8)
}

func lowMask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}
