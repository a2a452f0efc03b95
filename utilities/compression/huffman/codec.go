package huffman

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/utilities/bitstream"
)

// Encode compresses `input`. If `wide` is true symbols are pairs of bytes,
// which suits data made of 16-bit values.
func Encode(input []byte, wide bool) ([]byte, error) {
	var output bytes.Buffer
	_, err := encodeTo(input, wide, &output)
	if err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

// Compress reads all of `input`, compresses it, and writes the result to
// `output`.
//
// The returned int64 gives the number of bytes written to the output stream. If
// an error occurred, the value is undefined and should not be used.
func Compress(input io.Reader, output io.Writer, wide bool) (int64, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return 0, bitplane.ErrIOFailed.Wrap(err)
	}
	return encodeTo(data, wide, output)
}

func encodeTo(input []byte, wide bool, output io.Writer) (int64, error) {
	hist := BuildHistogram(input, wide)
	codes, err := BuildTree(hist).Codes()
	if err != nil {
		return 0, err
	}
	Canonicalize(codes)

	// Index 0 is the sentinel, the rest are shifted up by one.
	lookup := make([]Code, alphabetSize(wide)+1)
	for _, code := range codes {
		lookup[code.Symbol+1] = code
	}

	writer := bitstream.NewWriter(output)
	if err := newHeader(hist, codes).write(writer); err != nil {
		return writer.Len(), err
	}

	for i := 0; i < hist.Total; i++ {
		code := lookup[symbolAt(input, i, wide)+1]
		if err := writer.WriteBits(code.Bits, code.Length); err != nil {
			return writer.Len(), err
		}
	}

	sentinel := lookup[0]
	if err := writer.WriteBits(sentinel.Bits, sentinel.Length); err != nil {
		return writer.Len(), err
	}
	err = writer.Finish()
	return writer.Len(), err
}

// Decode reverses [Encode].
//
// It fails with [bitplane.ErrCorruptStream] if the code table is malformed or
// the data ends before the end marker. Data running out also matches
// [bitplane.ErrUnexpectedEOF].
func Decode(input []byte) ([]byte, error) {
	reader := bitstream.NewReader(input)
	h, err := readHeader(reader)
	if err != nil {
		return nil, bitplane.ErrCorruptStream.Wrap(err)
	}

	tree, err := rebuildTree(h.table)
	if err != nil {
		return nil, err
	}

	var output []byte
	for {
		current := &tree.nodes[tree.root]
		for !current.isLeaf() {
			bit, err := reader.ReadBit()
			if err != nil {
				return nil, bitplane.ErrCorruptStream.Wrap(err).WithMessage(
					"stream ended before the end marker")
			}
			if bit {
				current = &tree.nodes[current.right]
			} else {
				current = &tree.nodes[current.left]
			}
		}

		if current.symbol == SentinelSymbol {
			break
		}
		if h.wide {
			output = append(output, byte(current.symbol), byte(current.symbol>>8))
		} else {
			output = append(output, byte(current.symbol))
		}
	}

	// Only the padding of the final byte may follow the end marker.
	leftover := int64(len(input))*8 - reader.Offset()
	if leftover >= 8 {
		return nil, bitplane.ErrCorruptStream.AtBit(reader.Offset()).WithMessage(
			fmt.Sprintf("%d bits of trailing data after the end marker", leftover))
	}

	if h.hasTrailingByte {
		output = append(output, h.trailingByte)
	}
	if output == nil {
		output = []byte{}
	}
	return output, nil
}

// Decompress reads all of `input`, decompresses it, and writes the result to
// `output`.
//
// The returned int64 gives the number of bytes written to the output (i.e. the
// decompressed size). If an error occurred, the value is undefined and should
// not be used.
func Decompress(input io.Reader, output io.Writer) (int64, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return 0, bitplane.ErrIOFailed.Wrap(err)
	}

	decoded, err := Decode(data)
	if err != nil {
		return 0, err
	}

	n, err := output.Write(decoded)
	if err != nil {
		return int64(n), bitplane.ErrIOFailed.Wrap(err)
	}
	return int64(n), nil
}
