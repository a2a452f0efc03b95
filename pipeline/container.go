package pipeline

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/utilities/compression"
	"github.com/dargueta/bitplane/utilities/compression/rle"
)

// Magic is the signature at the start of every container.
const Magic = "BPLN"

// FormatVersion is the container layout version this package reads and writes.
const FormatVersion = 1

// HeaderSize is the size in bytes of a serialized [Header].
const HeaderSize = 17

// MaxRecordSize is the largest plane record [ReadRecord] accepts. A 65535x65535
// plane can't need more than this even after a poor second pass.
const MaxRecordSize = 1 << 30

// Header describes the contents of a container. It's followed by
// `Channels * 8` plane records, channel by channel, least significant plane
// first.
//
// The serialized layout is little-endian:
//
//	magic:[4]u8 version:u8 flags:u8 channels:u8 conversion:u8 post:u8 width:u32 height:u32
type Header struct {
	Flags      uint8
	Channels   int
	Conversion bitplane.ColorConversion
	Post       compression.Method
	// Width and Height give the size of the original image. Channels may be
	// smaller; see [ChannelSizes].
	Width  int
	Height int
}

func (h *Header) Gray() bool {
	return h.Flags&bitplane.FlagGray != 0
}

func (h *Header) XOR() bool {
	return h.Flags&bitplane.FlagXOR != 0
}

// Planes gives the number of plane records following the header.
func (h *Header) Planes() int {
	return h.Channels * bitplane.BitsPerChannel
}

func (h *Header) MarshalBinary() ([]byte, error) {
	if h.Channels < 1 || h.Channels > 0xFF {
		return nil, bitplane.ErrInvalidChannelCount.WithMessage(
			fmt.Sprintf("%d channels", h.Channels))
	}
	if err := checkImageSize(h.Width, h.Height); err != nil {
		return nil, bitplane.ErrInvalidArgument.Wrap(err)
	}

	data := make([]byte, HeaderSize)
	copy(data, Magic)
	data[4] = FormatVersion
	data[5] = h.Flags
	data[6] = byte(h.Channels)
	data[7] = byte(h.Conversion)
	data[8] = byte(h.Post)
	binary.LittleEndian.PutUint32(data[9:13], uint32(h.Width))
	binary.LittleEndian.PutUint32(data[13:17], uint32(h.Height))
	return data, nil
}

func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return bitplane.ErrUnexpectedEOF.WithMessage(
			fmt.Sprintf("container header needs %d bytes, got %d", HeaderSize, len(data)))
	}
	if string(data[:4]) != Magic {
		return bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf("bad signature %q, expected %q", data[:4], Magic))
	}
	if data[4] != FormatVersion {
		return bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf("unsupported container version %d", data[4]))
	}

	h.Flags = data[5]
	h.Channels = int(data[6])
	h.Conversion = bitplane.ColorConversion(data[7])
	h.Post = compression.Method(data[8])
	h.Width = int(binary.LittleEndian.Uint32(data[9:13]))
	h.Height = int(binary.LittleEndian.Uint32(data[13:17]))

	if h.Flags&^(bitplane.FlagGray|bitplane.FlagXOR) != 0 {
		return bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf("unknown flags 0x%02x", h.Flags))
	}
	if !h.Conversion.Valid() {
		return bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf("unknown color conversion %d", data[7]))
	}
	if !h.Post.Valid() {
		return bitplane.ErrUnknownMethod.WithMessage(
			fmt.Sprintf("post-processing method %d", data[8]))
	}
	if err := checkImageSize(h.Width, h.Height); err != nil {
		return bitplane.ErrCorruptStream.Wrap(err)
	}
	if _, err := ChannelSizes(h.Channels, h.Conversion, h.Width, h.Height); err != nil {
		return bitplane.ErrCorruptStream.Wrap(err)
	}
	return nil
}

// checkImageSize rejects images with a side longer than a plane can be.
func checkImageSize(width, height int) error {
	if width < 0 || height < 0 || width > rle.MaxDimension || height > rle.MaxDimension {
		return fmt.Errorf(
			"image size %dx%d not in range [0, %d]", width, height, rle.MaxDimension)
	}
	return nil
}

// WriteTo implements [io.WriterTo].
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	data, err := h.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), bitplane.ErrIOFailed.Wrap(err)
	}
	return int64(n), nil
}

// ReadFrom implements [io.ReaderFrom].
func (h *Header) ReadFrom(r io.Reader) (int64, error) {
	data := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, data)
	if err != nil {
		return int64(n), containerReadError(err)
	}
	return int64(n), h.UnmarshalBinary(data)
}

func containerReadError(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return bitplane.ErrUnexpectedEOF.WithMessage("container is truncated")
	}
	return bitplane.ErrIOFailed.Wrap(err)
}

// WriteRecord writes one plane record. With [compression.MethodNone] the record
// is the serialized RLE buffer as-is; otherwise it's prefixed with its length.
func WriteRecord(w io.Writer, post compression.Method, record []byte) (int64, error) {
	var total int64
	if post != compression.MethodNone {
		var prefix [4]byte
		binary.LittleEndian.PutUint32(prefix[:], uint32(len(record)))
		n, err := w.Write(prefix[:])
		total += int64(n)
		if err != nil {
			return total, bitplane.ErrIOFailed.Wrap(err)
		}
	}

	n, err := w.Write(record)
	total += int64(n)
	if err != nil {
		return total, bitplane.ErrIOFailed.Wrap(err)
	}
	return total, nil
}

// ReadRecord reads one plane record written by [WriteRecord]. Raw records are
// returned re-serialized, so the result is always a complete RLE buffer or
// post-processed blob.
func ReadRecord(r io.Reader, post compression.Method) ([]byte, error) {
	if post == compression.MethodNone {
		var buf rle.Buffer
		if _, err := buf.ReadFrom(r); err != nil {
			return nil, err
		}
		return buf.MarshalBinary()
	}

	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, containerReadError(err)
	}
	size := binary.LittleEndian.Uint32(prefix[:])
	if size > MaxRecordSize {
		return nil, bitplane.ErrCorruptStream.WithMessage(
			fmt.Sprintf("plane record claims to be %d bytes", size))
	}

	record := make([]byte, size)
	if _, err := io.ReadFull(r, record); err != nil {
		return nil, containerReadError(err)
	}
	return record, nil
}
