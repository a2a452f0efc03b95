package rle

import (
	"errors"
	"fmt"
	"io"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/utilities/bitstream"
)

func checkDimensions(width, height int) error {
	if width < 0 || height < 0 || width > MaxDimension || height > MaxDimension {
		return bitplane.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"plane dimensions %dx%d not in range [0, %d]", width, height, MaxDimension))
	}
	return nil
}

// writeRun appends the codewords for a run of `length` pixels.
//
// Runs longer than the codebook can hold are split. Every piece but the last
// is written as a continuation: the codeword holding [Codebook.MaxRun], which
// within a plane stands for MaxRun-1 pixels of the current value with no
// change of value afterwards. The remainder then always fits in a normal
// codeword.
func writeRun(writer *bitstream.WordWriter, codebook *Codebook, length int) error {
	maxRun := codebook.MaxRun()
	for length > maxRun-1 {
		codeword, err := codebook.Encode(maxRun)
		if err != nil {
			return err
		}
		writer.WriteBits(codeword.Bits, codeword.Length)
		length -= maxRun - 1
	}

	codeword, err := codebook.Encode(length)
	if err != nil {
		return err
	}
	writer.WriteBits(codeword.Bits, codeword.Length)
	return nil
}

// EncodePlane run-length encodes the first `width*height` bits of `source`
// (row-major order) using the codebook of the given type.
func EncodePlane(
	source bitplane.BitSource, width, height int, codebookType Type,
) (*Buffer, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	codebook, err := Get(codebookType)
	if err != nil {
		return nil, err
	}

	result := &Buffer{
		Width:    uint16(width),
		Height:   uint16(height),
		Codebook: codebookType,
	}

	writer := bitstream.NewWordWriter()
	grouper := NewRunGrouper(source, width*height)

	// The decoder only knows the first symbol; after that it assumes every run
	// has the opposite value of the one before it. The grouper guarantees this
	// because it always ends a run at a change of value.
	for runIndex := 0; ; runIndex++ {
		run, err := grouper.GetNextRun()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		if runIndex == 0 && run.Bit {
			result.FirstSymbol = 1
		}
		if err := writeRun(writer, codebook, run.RunLength); err != nil {
			return nil, err
		}
	}

	writer.Finish()
	result.Words = writer.Words()
	return result, nil
}

// runReader yields the runs stored in a buffer, with continuations merged into
// the run they belong to.
type runReader struct {
	codebook  *Codebook
	reader    *bitstream.WordReader
	remaining int
	symbol    bool
}

func newRunReader(buf *Buffer) (*runReader, error) {
	codebook, err := Get(buf.Codebook)
	if err != nil {
		return nil, bitplane.ErrCorruptStream.Wrap(err)
	}
	return &runReader{
		codebook:  codebook,
		reader:    bitstream.NewWordReader(buf.Words),
		remaining: buf.Pixels(),
		symbol:    buf.FirstSymbol != 0,
	}, nil
}

// next returns the next complete run, or [InvalidRun] and [io.EOF] once all the
// plane's pixels have been accounted for.
func (rr *runReader) next() (BitRun, error) {
	if rr.remaining == 0 {
		return InvalidRun, io.EOF
	}

	run := BitRun{Bit: rr.symbol}
	maxRun := rr.codebook.MaxRun()
	for {
		startOffset := rr.reader.Offset()
		length, err := rr.codebook.Decode(rr.reader)
		if err != nil {
			return InvalidRun, err
		}

		continuation := length == maxRun
		if continuation {
			length = maxRun - 1
		}
		if length > rr.remaining {
			return InvalidRun, bitplane.ErrCorruptStream.AtBit(startOffset).WithMessage(
				fmt.Sprintf(
					"run of %d pixels overflows the plane by %d",
					length,
					length-rr.remaining))
		}

		run.RunLength += length
		rr.remaining -= length
		if !continuation {
			break
		}
		if rr.remaining == 0 {
			return InvalidRun, bitplane.ErrCorruptStream.AtBit(startOffset).WithMessage(
				"plane ends on a continuation codeword")
		}
	}

	rr.symbol = !rr.symbol
	return run, nil
}

// DecodePlane reverses [EncodePlane]. The returned bitmap holds at least
// `buf.Width * buf.Height` bits; bit `y*width + x` is the pixel at (x, y).
func DecodePlane(buf *Buffer) (bitmap.Bitmap, error) {
	// The bitmap is allocated only once every run has decoded, so a header
	// claiming a huge plane fails on its missing codewords first.
	runs, err := DecodeRuns(buf)
	if err != nil {
		return nil, err
	}

	plane := bitmap.New(buf.Pixels())
	position := 0
	for _, run := range runs {
		if run.Bit {
			for i := position; i < position+run.RunLength; i++ {
				plane.Set(i, true)
			}
		}
		position += run.RunLength
	}
	return plane, nil
}

// DecodeRuns returns the sequence of runs stored in the buffer without
// expanding them into pixels.
func DecodeRuns(buf *Buffer) ([]BitRun, error) {
	runs, err := newRunReader(buf)
	if err != nil {
		return nil, err
	}

	var result []BitRun
	for {
		run, err := runs.next()
		if errors.Is(err, io.EOF) {
			return result, nil
		} else if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
}

// SelectBest encodes the plane with every predefined codebook and returns the
// smallest result. Ties go to the lowest codebook type.
func SelectBest(source bitplane.BitSource, width, height int) (*Buffer, error) {
	var best *Buffer
	for codebookType := Type(0); codebookType < NumTypes; codebookType++ {
		candidate, err := EncodePlane(source, width, height, codebookType)
		if err != nil {
			return nil, err
		}
		if best == nil || candidate.Size() < best.Size() {
			best = candidate
		}
	}
	return best, nil
}
