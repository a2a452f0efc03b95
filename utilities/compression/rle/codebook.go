package rle

import (
	_ "embed"
	"fmt"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/utilities/bitstream"
	"github.com/gocarina/gocsv"
)

// Type identifies one of the predefined codebooks.
type Type uint8

// NumTypes is the number of predefined codebooks. Valid types are 0 through
// NumTypes-1.
const NumTypes = 6

// NumBuckets is the number of run-length buckets in every codebook.
const NumBuckets = 7

// MaxPayloadBits is the widest payload any bucket may have. The prefix of the
// last bucket is 7 bits, so this keeps every codeword within 32 bits.
const MaxPayloadBits = bitstream.MaxPeekBits - NumBuckets

// Bucket is one range of run lengths within a codebook. A run `n` in the range
// [Min, Max] is stored as PrefixBits bits of Prefix followed by PayloadBits bits
// of `n - Min`.
type Bucket struct {
	PrefixBits  uint
	Prefix      uint64
	PayloadBits uint
	Min         int
	Max         int

	// windowMask and windowPattern are the prefix, left-aligned in a 64-bit
	// lookahead window.
	windowMask    uint64
	windowPattern uint64
}

// Codebook is an immutable table of [NumBuckets] buckets that together cover
// every run length from 1 to [Codebook.MaxRun].
type Codebook struct {
	codebookType Type
	buckets      [NumBuckets]Bucket
}

// Codeword is the encoded form of a single run length.
type Codeword struct {
	// Bucket is the index of the bucket the run fell into.
	Bucket int
	// Bits holds the prefix and payload, right-aligned.
	Bits uint64
	// Length is the total number of bits in the codeword.
	Length uint
}

func newCodebook(codebookType Type, payloadBits [NumBuckets]uint) (*Codebook, error) {
	codebook := &Codebook{codebookType: codebookType}

	lastMax := 0
	for i, width := range payloadBits {
		if width > MaxPayloadBits {
			return nil, bitplane.ErrInvalidArgument.WithMessage(
				fmt.Sprintf(
					"codebook %d bucket %d: payload of %d bits exceeds the maximum of %d",
					codebookType,
					i,
					width,
					MaxPayloadBits))
		}

		// Bucket i's prefix is i one bits followed by a zero bit.
		prefixBits := uint(i + 1)
		prefix := ((uint64(1) << i) - 1) << 1

		codebook.buckets[i] = Bucket{
			PrefixBits:    prefixBits,
			Prefix:        prefix,
			PayloadBits:   width,
			Min:           lastMax + 1,
			Max:           lastMax + (1 << width),
			windowMask:    ((uint64(1) << prefixBits) - 1) << (64 - prefixBits),
			windowPattern: prefix << (64 - prefixBits),
		}
		lastMax = codebook.buckets[i].Max
	}
	return codebook, nil
}

// Type returns the codebook's type number.
func (cb *Codebook) Type() Type {
	return cb.codebookType
}

// Buckets returns a copy of the codebook's bucket table.
func (cb *Codebook) Buckets() [NumBuckets]Bucket {
	return cb.buckets
}

// MaxRun gives the longest run a single codeword can represent.
func (cb *Codebook) MaxRun() int {
	return cb.buckets[NumBuckets-1].Max
}

// Encode returns the codeword for a run of `length` pixels. Buckets are tried
// in ascending order and the first one whose range includes `length` wins.
//
// It fails with [bitplane.ErrRunTooLong] if the run is longer than
// [Codebook.MaxRun], and with [bitplane.ErrInvalidArgument] if it's less than 1.
func (cb *Codebook) Encode(length int) (Codeword, error) {
	if length < 1 {
		return Codeword{}, bitplane.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("run length must be positive, got %d", length))
	}

	for i := range cb.buckets {
		bucket := &cb.buckets[i]
		if length <= bucket.Max {
			payload := uint64(length - bucket.Min)
			return Codeword{
				Bucket: i,
				Bits:   (bucket.Prefix << bucket.PayloadBits) | payload,
				Length: bucket.PrefixBits + bucket.PayloadBits,
			}, nil
		}
	}

	return Codeword{}, bitplane.ErrRunTooLong.WithMessage(
		fmt.Sprintf(
			"run of %d pixels doesn't fit in codebook %d (max %d)",
			length,
			cb.codebookType,
			cb.MaxRun()))
}

// Decode reads one codeword from the stream and returns the run length it
// holds.
//
// It fails with [bitplane.ErrCorruptStream] if the bits at the head of the
// stream match no bucket prefix, and with [bitplane.ErrUnexpectedEOF] if the
// stream ends partway through a codeword.
func (cb *Codebook) Decode(reader *bitstream.WordReader) (int, error) {
	window, available := reader.Window()

	for i := range cb.buckets {
		bucket := &cb.buckets[i]
		if window&bucket.windowMask != bucket.windowPattern {
			continue
		}

		totalBits := bucket.PrefixBits + bucket.PayloadBits
		if totalBits > available {
			return 0, bitplane.ErrUnexpectedEOF.AtBit(reader.Offset())
		}

		payload := uint64(0)
		if bucket.PayloadBits > 0 {
			payload = (window << bucket.PrefixBits) >> (64 - bucket.PayloadBits)
		}
		if err := reader.Skip(totalBits); err != nil {
			return 0, err
		}
		return int(payload) + bucket.Min, nil
	}

	return 0, bitplane.ErrCorruptStream.AtBit(reader.Offset()).WithMessage(
		"codeword prefix matches no bucket")
}

////////////////////////////////////////////////////////////////////////////////
// Predefined codebooks

type codebookRow struct {
	Type     uint8  `csv:"type"`
	Payload0 uint   `csv:"payload_0"`
	Payload1 uint   `csv:"payload_1"`
	Payload2 uint   `csv:"payload_2"`
	Payload3 uint   `csv:"payload_3"`
	Payload4 uint   `csv:"payload_4"`
	Payload5 uint   `csv:"payload_5"`
	Payload6 uint   `csv:"payload_6"`
	Notes    string `csv:"notes"`
}

func (row *codebookRow) payloadBits() [NumBuckets]uint {
	return [NumBuckets]uint{
		row.Payload0,
		row.Payload1,
		row.Payload2,
		row.Payload3,
		row.Payload4,
		row.Payload5,
		row.Payload6,
	}
}

// Payload widths per codebook type. Each type biases the code toward a
// different distribution of run lengths.
//
//go:embed codebooks.csv
var codebooksRawCSV string
var predefinedCodebooks [NumTypes]*Codebook

// Get returns the predefined codebook of the given type. The returned value is
// shared and must not be modified.
func Get(codebookType Type) (*Codebook, error) {
	if int(codebookType) >= NumTypes {
		return nil, bitplane.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("no codebook of type %d; valid types are 0-%d", codebookType, NumTypes-1))
	}
	return predefinedCodebooks[codebookType], nil
}

// MustGet is like [Get] but panics if the type is invalid.
func MustGet(codebookType Type) *Codebook {
	codebook, err := Get(codebookType)
	if err != nil {
		panic(err)
	}
	return codebook
}

func init() {
	var rows []*codebookRow
	if err := gocsv.UnmarshalString(codebooksRawCSV, &rows); err != nil {
		panic(fmt.Errorf("failed to decode codebook table: %w", err))
	}
	if len(rows) != NumTypes {
		panic(fmt.Errorf("codebook table has %d rows, expected %d", len(rows), NumTypes))
	}

	for i, row := range rows {
		if int(row.Type) >= NumTypes || predefinedCodebooks[row.Type] != nil {
			panic(fmt.Errorf("bad or duplicate codebook type %d on row %d", row.Type, i+1))
		}

		codebook, err := newCodebook(Type(row.Type), row.payloadBits())
		if err != nil {
			panic(fmt.Errorf("row %d: %w", i+1, err))
		}
		predefinedCodebooks[row.Type] = codebook
	}
}
