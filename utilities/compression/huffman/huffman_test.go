package huffman_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/utilities/compression/huffman"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compressed form of "AAAABBBBCCCCCCCC". The codes are C=0, A=10, sentinel=110,
// B=111.
var scenarioAEncoded = []byte{
	// Flags, symbol count - 1
	0x00, 0x02,
	// Sentinel index and length
	0x00, 0x00, 0x00, 0x02, 0x03,
	// 'C'/1, 'A'/2, 'B'/3
	0x43, 0x01, 0x41, 0x02, 0x42, 0x03,
	// AAAA BBBB CCCC CCCC <end>
	0xAA, 0xFF, 0xF0, 0x0C,
}

func TestEncode__KnownOutput(t *testing.T) {
	encoded, err := huffman.Encode([]byte("AAAABBBBCCCCCCCC"), false)
	require.NoError(t, err)
	assert.Equal(t, scenarioAEncoded, encoded)

	decoded, err := huffman.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("AAAABBBBCCCCCCCC"), decoded)
}

func TestEncode__Empty(t *testing.T) {
	encoded, err := huffman.Encode([]byte{}, false)
	require.NoError(t, err)
	assert.Equal(
		t,
		[]byte{huffman.FlagEmptyTable, 0, 0, 0, 0, 0},
		encoded,
		"expected only the flags and the sentinel entry")

	decoded, err := huffman.Decode(encoded)
	require.NoError(t, err)
	assert.NotNil(t, decoded)
	assert.Empty(t, decoded)
}

func TestEncode__WideEmptyWithTrailingByte(t *testing.T) {
	encoded, err := huffman.Encode([]byte{0x7F}, true)
	require.NoError(t, err)
	assert.Equal(
		t,
		[]byte{
			huffman.FlagEmptyTable | huffman.FlagTrailingByte | huffman.FlagWideSymbols,
			0x7F,
			0, 0, 0, 0, 0,
		},
		encoded)

	decoded, err := huffman.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7F}, decoded)
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))

	randomBytes := make([]byte, 4099)
	rng.Read(randomBytes)

	skewed := make([]byte, 10000)
	for i := range skewed {
		skewed[i] = byte(rng.ExpFloat64() * 4)
	}

	allBytes := make([]byte, 512)
	for i := range allBytes {
		allBytes[i] = byte(i)
	}

	inputs := []struct {
		Name string
		Data []byte
	}{
		{"single byte", []byte{'x'}},
		{"one symbol repeated", bytes.Repeat([]byte{0}, 777)},
		{"two symbols", []byte("abababababbbbbbbbbbbbbbbba")},
		{"text", []byte("the quick brown fox jumps over the lazy dog")},
		{"every byte value", allBytes},
		{"random", randomBytes},
		{"skewed", skewed},
	}

	for _, input := range inputs {
		for _, wide := range []bool{false, true} {
			t.Run(
				fmt.Sprintf("%s/wide=%v", input.Name, wide),
				func(t *testing.T) {
					encoded, err := huffman.Encode(input.Data, wide)
					require.NoError(t, err)

					decoded, err := huffman.Decode(encoded)
					require.NoError(t, err)
					assert.Equal(t, input.Data, decoded)
				},
			)
		}
	}
}

func TestRoundTrip__WideOddLength(t *testing.T) {
	for _, input := range []string{"ABC", "a", "abcdefghi", "\x00\x01\x00\x01\xff"} {
		encoded, err := huffman.Encode([]byte(input), true)
		require.NoError(t, err)
		assert.NotZero(t, encoded[0]&huffman.FlagTrailingByte, "%q", input)

		decoded, err := huffman.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, []byte(input), decoded)
	}
}

func TestCompressDecompress__Streams(t *testing.T) {
	input := bytes.Repeat([]byte("bit-plane "), 300)

	var compressed bytes.Buffer
	written, err := huffman.Compress(bytes.NewReader(input), &compressed, false)
	require.NoError(t, err)
	assert.EqualValues(t, compressed.Len(), written)
	assert.Less(t, compressed.Len(), len(input))

	var decompressed bytes.Buffer
	written, err = huffman.Decompress(&compressed, &decompressed)
	require.NoError(t, err)
	assert.EqualValues(t, len(input), written)
	assert.Equal(t, input, decompressed.Bytes())
}

func TestDecode__Errors(t *testing.T) {
	withByte := func(index int, value byte) []byte {
		data := bytes.Clone(scenarioAEncoded)
		data[index] = value
		return data
	}

	tests := []struct {
		Data     []byte
		Expected []error
		Name     string
	}{
		{
			[]byte{},
			[]error{bitplane.ErrCorruptStream, bitplane.ErrUnexpectedEOF},
			"empty input",
		},
		{
			scenarioAEncoded[:len(scenarioAEncoded)-1],
			[]error{bitplane.ErrCorruptStream, bitplane.ErrUnexpectedEOF},
			"no end marker",
		},
		{
			scenarioAEncoded[:8],
			[]error{bitplane.ErrCorruptStream, bitplane.ErrUnexpectedEOF},
			"truncated table",
		},
		{
			append(bytes.Clone(scenarioAEncoded), 0x00),
			[]error{bitplane.ErrCorruptStream},
			"trailing data",
		},
		{withByte(0, 0x80), []error{bitplane.ErrCorruptStream}, "unknown flag"},
		{withByte(5, 9), []error{bitplane.ErrCorruptStream}, "sentinel index"},
		{withByte(9, 'C'), []error{bitplane.ErrCorruptStream}, "duplicate symbol"},
		{withByte(12, 4), []error{bitplane.ErrCorruptStream}, "incomplete code"},
		{withByte(10, 1), []error{bitplane.ErrCorruptStream}, "oversubscribed code"},
		{
			withByte(12, huffman.MaxCodeLength+1),
			[]error{bitplane.ErrCorruptStream, bitplane.ErrCodeTooLong},
			"length too long",
		},
	}

	for _, test := range tests {
		t.Run(
			test.Name,
			func(t *testing.T) {
				_, err := huffman.Decode(test.Data)
				require.Error(t, err)
				for _, expected := range test.Expected {
					assert.ErrorIs(t, err, expected)
				}
			},
		)
	}
}
