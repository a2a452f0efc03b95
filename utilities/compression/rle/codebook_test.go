package rle_test

import (
	"fmt"
	"testing"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/utilities/bitstream"
	"github.com/dargueta/bitplane/utilities/compression/rle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodebook__RangesAreContiguous(t *testing.T) {
	for codebookType := rle.Type(0); codebookType < rle.NumTypes; codebookType++ {
		t.Run(
			fmt.Sprintf("type_%d", codebookType),
			func(t *testing.T) {
				codebook := rle.MustGet(codebookType)
				buckets := codebook.Buckets()

				assert.Equal(t, 1, buckets[0].Min, "first bucket must start at 1")
				for i, bucket := range buckets {
					assert.EqualValuesf(
						t, uint(i+1), bucket.PrefixBits, "bucket %d prefix length", i)
					assert.Equalf(
						t,
						1<<bucket.PayloadBits,
						bucket.Max-bucket.Min+1,
						"bucket %d range size",
						i)
					if i > 0 {
						assert.Equalf(
							t, buckets[i-1].Max+1, bucket.Min, "gap before bucket %d", i)
					}
					assert.LessOrEqualf(
						t,
						bucket.PrefixBits+bucket.PayloadBits,
						uint(bitstream.MaxPeekBits),
						"bucket %d codeword is too long",
						i)
				}
				assert.Equal(t, buckets[rle.NumBuckets-1].Max, codebook.MaxRun())
			},
		)
	}
}

func TestCodebook__Type0Table(t *testing.T) {
	expectedMax := []int{1, 3, 7, 15, 31, 1055, 33555487}
	buckets := rle.MustGet(0).Buckets()
	for i, bucket := range buckets {
		assert.Equalf(t, expectedMax[i], bucket.Max, "bucket %d", i)
	}
}

func TestCodebook__PrefixesArePrefixFree(t *testing.T) {
	buckets := rle.MustGet(3).Buckets()
	for i, a := range buckets {
		for j, b := range buckets {
			if i == j || a.PrefixBits > b.PrefixBits {
				continue
			}
			shifted := b.Prefix >> (b.PrefixBits - a.PrefixBits)
			assert.NotEqualf(t, a.Prefix, shifted, "prefix %d is a prefix of %d", i, j)
		}
	}
}

func TestGet__InvalidType(t *testing.T) {
	_, err := rle.Get(rle.NumTypes)
	assert.ErrorIs(t, err, bitplane.ErrInvalidArgument)
	assert.Panics(t, func() { rle.MustGet(200) })
}

type codewordTestCase struct {
	Length         int
	ExpectedBits   uint64
	ExpectedLength uint
	Name           string
}

func TestCodebook__EncodeType0(t *testing.T) {
	tests := []codewordTestCase{
		{1, 0b0, 1, "single pixel"},
		{2, 0b100, 3, "bucket 1 low"},
		{3, 0b101, 3, "bucket 1 high"},
		{4, 0b11000, 5, "bucket 2 low"},
		{31, 0b11110_1111, 9, "bucket 4 high"},
		{32, 0b111110_0000000000, 16, "bucket 5 low"},
	}

	codebook := rle.MustGet(0)
	for _, test := range tests {
		t.Run(
			test.Name,
			func(t *testing.T) {
				codeword, err := codebook.Encode(test.Length)
				require.NoError(t, err)
				assert.Equal(t, test.ExpectedBits, codeword.Bits)
				assert.Equal(t, test.ExpectedLength, codeword.Length)
			},
		)
	}
}

// A run equal to a bucket's upper bound belongs to that bucket, and one more
// than that belongs to the next.
func TestCodebook__BucketBoundaries(t *testing.T) {
	for codebookType := rle.Type(0); codebookType < rle.NumTypes; codebookType++ {
		codebook := rle.MustGet(codebookType)
		buckets := codebook.Buckets()
		for i := 0; i < rle.NumBuckets; i++ {
			codeword, err := codebook.Encode(buckets[i].Max)
			require.NoError(t, err)
			assert.Equalf(t, i, codeword.Bucket, "type %d: max of bucket %d", codebookType, i)

			codeword, err = codebook.Encode(buckets[i].Min)
			require.NoError(t, err)
			assert.Equalf(t, i, codeword.Bucket, "type %d: min of bucket %d", codebookType, i)

			if i+1 < rle.NumBuckets {
				codeword, err = codebook.Encode(buckets[i].Max + 1)
				require.NoError(t, err)
				assert.Equalf(
					t, i+1, codeword.Bucket, "type %d: max+1 of bucket %d", codebookType, i)
			}
		}
	}
}

func TestCodebook__RunTooLong(t *testing.T) {
	codebook := rle.MustGet(0)
	_, err := codebook.Encode(codebook.MaxRun() + 1)
	assert.ErrorIs(t, err, bitplane.ErrRunTooLong)

	_, err = codebook.Encode(0)
	assert.ErrorIs(t, err, bitplane.ErrInvalidArgument)
}

func TestCodebook__DecodeEveryBucket(t *testing.T) {
	for codebookType := rle.Type(0); codebookType < rle.NumTypes; codebookType++ {
		codebook := rle.MustGet(codebookType)

		var lengths []int
		for _, bucket := range codebook.Buckets() {
			lengths = append(lengths, bucket.Min, bucket.Max, (bucket.Min+bucket.Max)/2)
		}

		writer := bitstream.NewWordWriter()
		for _, length := range lengths {
			codeword, err := codebook.Encode(length)
			require.NoError(t, err)
			writer.WriteBits(codeword.Bits, codeword.Length)
		}
		writer.Finish()

		reader := bitstream.NewWordReader(writer.Words())
		for i, expected := range lengths {
			length, err := codebook.Decode(reader)
			require.NoErrorf(t, err, "type %d codeword %d", codebookType, i)
			assert.Equalf(t, expected, length, "type %d codeword %d", codebookType, i)
		}
	}
}

func TestCodebook__DecodeUnusedPrefix(t *testing.T) {
	reader := bitstream.NewWordReader([]uint32{0xFE000000})
	_, err := rle.MustGet(0).Decode(reader)
	assert.ErrorIs(t, err, bitplane.ErrCorruptStream)
	offset, ok := bitplane.BitOffset(err)
	assert.True(t, ok)
	assert.EqualValues(t, 0, offset)
}

func TestCodebook__DecodeTruncated(t *testing.T) {
	// Bucket 6 prefix with only a partial payload after it.
	reader := bitstream.NewWordReader([]uint32{0x0000000F})
	codebook := rle.MustGet(0)
	for i := 0; i < 28; i++ {
		length, err := codebook.Decode(reader)
		require.NoError(t, err)
		require.Equal(t, 1, length)
	}
	_, err := codebook.Decode(reader)
	assert.ErrorIs(t, err, bitplane.ErrUnexpectedEOF)
}
