package rle

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dargueta/bitplane"
)

// HeaderSize is the size in bytes of a serialized [Buffer] with no words.
const HeaderSize = 10

// MaxDimension is the largest width or height a plane may have.
const MaxDimension = 0xFFFF

// Buffer is an encoded bit-plane: a small header followed by the packed
// codewords, stored in 32-bit words.
//
// The serialized layout is little-endian:
//
//	first_symbol:u8 width:u16 height:u16 codebook_type:u8 word_count:u32 words:[u32]
type Buffer struct {
	// FirstSymbol is the value of the first pixel in the plane, 0 or 1. Every
	// run after the first alternates value.
	FirstSymbol byte
	Width       uint16
	Height      uint16
	Codebook    Type
	Words       []uint32
}

// Pixels gives the number of pixels in the plane.
func (buf *Buffer) Pixels() int {
	return int(buf.Width) * int(buf.Height)
}

// Size gives the size of the buffer in bytes once serialized.
func (buf *Buffer) Size() int {
	return HeaderSize + 4*len(buf.Words)
}

// WriteTo serializes the buffer to `w`. It implements [io.WriterTo].
func (buf *Buffer) WriteTo(w io.Writer) (int64, error) {
	data, err := buf.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), bitplane.ErrIOFailed.Wrap(err)
	}
	return int64(n), nil
}

// MarshalBinary implements [encoding.BinaryMarshaler].
func (buf *Buffer) MarshalBinary() ([]byte, error) {
	if int(buf.Codebook) >= NumTypes {
		return nil, bitplane.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("invalid codebook type %d", buf.Codebook))
	}

	data := make([]byte, buf.Size())
	data[0] = buf.FirstSymbol
	binary.LittleEndian.PutUint16(data[1:3], buf.Width)
	binary.LittleEndian.PutUint16(data[3:5], buf.Height)
	data[5] = byte(buf.Codebook)
	binary.LittleEndian.PutUint32(data[6:10], uint32(len(buf.Words)))
	for i, word := range buf.Words {
		binary.LittleEndian.PutUint32(data[HeaderSize+4*i:], word)
	}
	return data, nil
}

func (buf *Buffer) parseHeader(header []byte) (int, error) {
	buf.FirstSymbol = header[0]
	buf.Width = binary.LittleEndian.Uint16(header[1:3])
	buf.Height = binary.LittleEndian.Uint16(header[3:5])
	buf.Codebook = Type(header[5])
	wordCount := int64(binary.LittleEndian.Uint32(header[6:10]))

	if int(buf.Codebook) >= NumTypes {
		return 0, bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf("invalid codebook type %d", buf.Codebook))
	}

	// Every pixel takes at most one codeword of at most one word, so a plane
	// can't need more words than it has pixels (plus one for a partial word).
	if wordCount > int64(buf.Pixels())+1 {
		return 0, bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf(
				"%d words is too many for a %dx%d plane", wordCount, buf.Width, buf.Height))
	}

	// Every codeword takes at least one bit and covers fewer than MaxRun pixels.
	maxPixels := 32 * wordCount * int64(MustGet(buf.Codebook).MaxRun()-1)
	if int64(buf.Pixels()) > maxPixels {
		return 0, bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf(
				"%d words can't describe a %dx%d plane", wordCount, buf.Width, buf.Height))
	}
	return int(wordCount), nil
}

// UnmarshalBinary implements [encoding.BinaryUnmarshaler]. `data` must hold
// exactly one serialized buffer.
func (buf *Buffer) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return bitplane.ErrUnexpectedEOF.WithMessage(
			fmt.Sprintf("RLE header needs %d bytes, got %d", HeaderSize, len(data)))
	}

	wordCount, err := buf.parseHeader(data[:HeaderSize])
	if err != nil {
		return err
	}

	expectedSize := HeaderSize + 4*wordCount
	if len(data) < expectedSize {
		return bitplane.ErrUnexpectedEOF.WithMessage(
			fmt.Sprintf("RLE buffer should be %d bytes, got %d", expectedSize, len(data)))
	} else if len(data) > expectedSize {
		return bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf(
				"%d bytes of trailing data after RLE buffer", len(data)-expectedSize))
	}

	buf.Words = make([]uint32, wordCount)
	for i := range buf.Words {
		buf.Words[i] = binary.LittleEndian.Uint32(data[HeaderSize+4*i:])
	}
	return nil
}

// ReadFrom reads one serialized buffer from `r`, consuming nothing past its
// end. It implements [io.ReaderFrom].
func (buf *Buffer) ReadFrom(r io.Reader) (int64, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, header)
	total := int64(n)
	if err != nil {
		return total, readError(err)
	}

	wordCount, err := buf.parseHeader(header)
	if err != nil {
		return total, err
	}

	raw := make([]byte, 4*wordCount)
	n, err = io.ReadFull(r, raw)
	total += int64(n)
	if err != nil {
		return total, readError(err)
	}

	buf.Words = make([]uint32, wordCount)
	for i := range buf.Words {
		buf.Words[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return total, nil
}

func readError(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return bitplane.ErrUnexpectedEOF.WithMessage("RLE buffer is truncated")
	}
	return bitplane.ErrIOFailed.Wrap(err)
}
