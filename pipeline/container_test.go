package pipeline_test

import (
	"bytes"
	"testing"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/pipeline"
	"github.com/dargueta/bitplane/utilities/compression"
	"github.com/dargueta/bitplane/utilities/compression/rle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleHeader = pipeline.Header{
	Flags:      bitplane.FlagGray | bitplane.FlagXOR,
	Channels:   3,
	Conversion: bitplane.ConversionHSV,
	Post:       compression.MethodHuffman,
	Width:      0x0102,
	Height:     7,
}

var sampleHeaderBytes = []byte{
	'B', 'P', 'L', 'N',
	1,
	3,
	3,
	2,
	1,
	0x02, 0x01, 0x00, 0x00,
	0x07, 0x00, 0x00, 0x00,
}

func TestHeader__Serialization(t *testing.T) {
	data, err := sampleHeader.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, sampleHeaderBytes, data)

	var stream bytes.Buffer
	n, err := sampleHeader.WriteTo(&stream)
	require.NoError(t, err)
	assert.EqualValues(t, pipeline.HeaderSize, n)

	var decoded pipeline.Header
	n, err = decoded.ReadFrom(&stream)
	require.NoError(t, err)
	assert.EqualValues(t, pipeline.HeaderSize, n)
	assert.Equal(t, sampleHeader, decoded)
	assert.True(t, decoded.Gray())
	assert.True(t, decoded.XOR())
	assert.Equal(t, 24, decoded.Planes())
}

func TestHeader__UnmarshalErrors(t *testing.T) {
	withByte := func(index int, value byte) []byte {
		data := bytes.Clone(sampleHeaderBytes)
		data[index] = value
		return data
	}

	tests := []struct {
		Data     []byte
		Expected error
		Name     string
	}{
		{sampleHeaderBytes[:10], bitplane.ErrUnexpectedEOF, "truncated"},
		{withByte(0, 'X'), bitplane.ErrCorruptStream, "bad magic"},
		{withByte(4, 2), bitplane.ErrCorruptStream, "bad version"},
		{withByte(5, 0x80), bitplane.ErrCorruptStream, "unknown flag"},
		{withByte(6, 2), bitplane.ErrCorruptStream, "two channels"},
		{withByte(6, 2), bitplane.ErrInvalidChannelCount, "two channels cause"},
		{withByte(7, 9), bitplane.ErrCorruptStream, "bad conversion"},
		{withByte(8, 77), bitplane.ErrUnknownMethod, "bad method"},
		{withByte(11, 1), bitplane.ErrCorruptStream, "width too large"},
		{withByte(16, 0x80), bitplane.ErrCorruptStream, "height too large"},
	}

	for _, test := range tests {
		t.Run(
			test.Name,
			func(t *testing.T) {
				var header pipeline.Header
				err := header.UnmarshalBinary(test.Data)
				assert.ErrorIs(t, err, test.Expected)

				_, err = header.ReadFrom(bytes.NewReader(test.Data))
				assert.ErrorIs(t, err, test.Expected)
			},
		)
	}
}

func TestHeader__MarshalErrors(t *testing.T) {
	header := sampleHeader
	header.Channels = 0
	_, err := header.MarshalBinary()
	assert.ErrorIs(t, err, bitplane.ErrInvalidChannelCount)

	header = sampleHeader
	header.Width = -1
	_, err = header.MarshalBinary()
	assert.ErrorIs(t, err, bitplane.ErrInvalidArgument)

	header = sampleHeader
	header.Height = rle.MaxDimension + 1
	_, err = header.MarshalBinary()
	assert.ErrorIs(t, err, bitplane.ErrInvalidArgument)
}

func TestRecords__RoundTrip(t *testing.T) {
	buf := rle.Buffer{Width: 8, Height: 1, Words: []uint32{0xB8000000}}
	raw, err := buf.MarshalBinary()
	require.NoError(t, err)

	for _, method := range []compression.Method{compression.MethodNone, compression.MethodZstd} {
		t.Run(
			method.String(),
			func(t *testing.T) {
				record, err := method.Compress(raw)
				require.NoError(t, err)

				var stream bytes.Buffer
				n, err := pipeline.WriteRecord(&stream, method, record)
				require.NoError(t, err)
				if method == compression.MethodNone {
					assert.EqualValues(t, len(raw), n, "raw records have no length prefix")
				} else {
					assert.EqualValues(t, len(record)+4, n)
				}

				stream.WriteString("next")
				readBack, err := pipeline.ReadRecord(&stream, method)
				require.NoError(t, err)
				assert.Equal(t, record, readBack)
				assert.Equal(t, "next", stream.String())
			},
		)
	}
}

func TestReadRecord__Truncated(t *testing.T) {
	_, err := pipeline.ReadRecord(bytes.NewReader([]byte{10, 0, 0, 0, 1, 2}), compression.MethodGzip)
	assert.ErrorIs(t, err, bitplane.ErrUnexpectedEOF)

	_, err = pipeline.ReadRecord(bytes.NewReader([]byte{0, 8, 0}), compression.MethodNone)
	assert.ErrorIs(t, err, bitplane.ErrUnexpectedEOF)

	_, err = pipeline.ReadRecord(
		bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF}), compression.MethodSnappy)
	assert.ErrorIs(t, err, bitplane.ErrCorruptStream)
}
