package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/utilities/compression/huffman"
	"github.com/golang/snappy"
)

// Method identifies a post-processing stage applied to each encoded bit-plane.
// Every Method is a [bitplane.Codec].
type Method uint8

const (
	// MethodNone stores planes as-is.
	MethodNone Method = iota
	// MethodHuffman runs planes through the byte-oriented Huffman coder.
	MethodHuffman
	MethodGzip
	MethodZstd
	MethodSnappy
	numMethods
)

var _ bitplane.Codec = MethodHuffman

var methodNames = [numMethods]string{"none", "huffman", "gzip", "zstd", "snappy"}

func (m Method) String() string {
	if m < numMethods {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// Valid returns true if the method is one this package implements.
func (m Method) Valid() bool {
	return m < numMethods
}

// ParseMethod returns the method with the given name, ignoring case.
func ParseMethod(name string) (Method, error) {
	for i, methodName := range methodNames {
		if strings.EqualFold(name, methodName) {
			return Method(i), nil
		}
	}
	return MethodNone, bitplane.ErrUnknownMethod.WithMessage(
		fmt.Sprintf("%q (expected one of %s)", name, strings.Join(methodNames[:], ", ")))
}

func (m Method) unknown() error {
	return bitplane.ErrUnknownMethod.WithMessage(fmt.Sprintf("method %d", uint8(m)))
}

// Compress applies the method to `data`. The input slice isn't modified, but
// with [MethodNone] it is returned directly.
func (m Method) Compress(data []byte) ([]byte, error) {
	switch m {
	case MethodNone:
		return data, nil
	case MethodHuffman:
		return huffman.Encode(data, false)
	case MethodGzip:
		return compressGzip(data)
	case MethodZstd:
		return compressZstd(data), nil
	case MethodSnappy:
		return snappy.Encode(nil, data), nil
	default:
		return nil, m.unknown()
	}
}

// Decompress reverses [Method.Compress]. Malformed input fails with
// [bitplane.ErrCorruptStream].
func (m Method) Decompress(data []byte) ([]byte, error) {
	var result []byte
	var err error

	switch m {
	case MethodNone:
		return data, nil
	case MethodHuffman:
		return huffman.Decode(data)
	case MethodGzip:
		result, err = decompressGzip(data)
	case MethodZstd:
		result, err = decompressZstd(data)
	case MethodSnappy:
		result, err = snappy.Decode(nil, data)
	default:
		return nil, m.unknown()
	}

	if err != nil {
		return nil, bitplane.ErrCorruptStream.Wrap(err)
	}
	return result, nil
}

func compressGzip(data []byte) ([]byte, error) {
	var output bytes.Buffer

	// Planes are small, so the slowest level costs next to nothing.
	gzWriter, err := gzip.NewWriterLevel(&output, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err = gzWriter.Write(data); err != nil {
		return nil, bitplane.ErrIOFailed.Wrap(err)
	}
	if err = gzWriter.Close(); err != nil {
		return nil, bitplane.ErrIOFailed.Wrap(err)
	}
	return output.Bytes(), nil
}

func decompressGzip(data []byte) ([]byte, error) {
	gzReader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gzReader.Close()
	return io.ReadAll(gzReader)
}
