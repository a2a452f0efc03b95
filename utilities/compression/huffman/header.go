package huffman

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/utilities/bitstream"
)

// Flags stored in the first byte of a compressed stream.
const (
	// FlagWideLengths means code lengths are stored in 16 bits instead of 8.
	// Lengths never exceed [MaxCodeLength], so the encoder doesn't set it.
	FlagWideLengths = 1 << iota
	// FlagWideCount means the symbol count is stored in 16 bits instead of 8.
	FlagWideCount
	// FlagTrailingByte means a byte follows the flags that's appended to the
	// output after the last symbol.
	FlagTrailingByte
	// FlagWideSymbols means symbols are 16 bits.
	FlagWideSymbols
	// FlagEmptyTable means the table holds only the sentinel, so the symbol
	// count is omitted.
	FlagEmptyTable
)

const knownFlags = FlagWideLengths | FlagWideCount | FlagTrailingByte |
	FlagWideSymbols | FlagEmptyTable

// header is the code table at the start of a compressed stream.
type header struct {
	wide            bool
	hasTrailingByte bool
	trailingByte    byte
	// table holds every code, the sentinel included, in canonical order.
	table         []Code
	sentinelIndex int
}

func newHeader(hist *Histogram, table []Code) *header {
	h := &header{
		wide:            hist.Wide,
		hasTrailingByte: hist.HasTrailingByte,
		trailingByte:    hist.TrailingByte,
		table:           table,
	}
	for i, code := range table {
		if code.Symbol == SentinelSymbol {
			h.sentinelIndex = i
			break
		}
	}
	return h
}

func (h *header) flags() uint8 {
	var flags uint8
	symbols := len(h.table) - 1
	if symbols == 0 {
		flags |= FlagEmptyTable
	} else if symbols-1 > 0xFF {
		flags |= FlagWideCount
	}
	if h.hasTrailingByte {
		flags |= FlagTrailingByte
	}
	if h.wide {
		flags |= FlagWideSymbols
	}
	return flags
}

func fieldWidth(flags uint8, flag uint8) uint8 {
	if flags&flag != 0 {
		return 16
	}
	return 8
}

func (h *header) write(w *bitstream.Writer) error {
	flags := h.flags()
	lengthBits := fieldWidth(flags, FlagWideLengths)
	symbolBits := fieldWidth(flags, FlagWideSymbols)

	fields := [][2]uint64{{uint64(flags), 8}}
	if h.hasTrailingByte {
		fields = append(fields, [2]uint64{uint64(h.trailingByte), 8})
	}
	if flags&FlagEmptyTable == 0 {
		countBits := fieldWidth(flags, FlagWideCount)
		fields = append(fields, [2]uint64{uint64(len(h.table) - 2), uint64(countBits)})
	}
	fields = append(
		fields,
		[2]uint64{uint64(h.sentinelIndex), 32},
		[2]uint64{uint64(h.table[h.sentinelIndex].Length), uint64(lengthBits)},
	)
	for _, code := range h.table {
		if code.Symbol == SentinelSymbol {
			continue
		}
		fields = append(
			fields,
			[2]uint64{uint64(code.Symbol), uint64(symbolBits)},
			[2]uint64{uint64(code.Length), uint64(lengthBits)},
		)
	}

	for _, field := range fields {
		if err := w.WriteBits(field[0], uint8(field[1])); err != nil {
			return err
		}
	}
	return nil
}

func readLength(r *bitstream.Reader, width uint8) (uint8, error) {
	offset := r.Offset()
	length, err := r.ReadBits(width)
	if err != nil {
		return 0, err
	}
	if length > MaxCodeLength {
		return 0, bitplane.ErrCodeTooLong.AtBit(offset).WithMessage(
			fmt.Sprintf("code length %d exceeds the maximum of %d", length, MaxCodeLength))
	}
	return uint8(length), nil
}

func readHeader(r *bitstream.Reader) (*header, error) {
	rawFlags, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}
	flags := uint8(rawFlags)
	if flags&^knownFlags != 0 {
		return nil, bitplane.ErrCorruptStream.AtBit(0).WithMessage(
			fmt.Sprintf("unrecognized flags 0x%02x", flags&^knownFlags))
	}

	h := &header{wide: flags&FlagWideSymbols != 0}
	lengthBits := fieldWidth(flags, FlagWideLengths)
	symbolBits := fieldWidth(flags, FlagWideSymbols)

	if flags&FlagTrailingByte != 0 {
		trailing, err := r.ReadBits(8)
		if err != nil {
			return nil, err
		}
		h.hasTrailingByte = true
		h.trailingByte = byte(trailing)
	}

	symbols := 0
	if flags&FlagEmptyTable == 0 {
		countMinusOne, err := r.ReadBits(fieldWidth(flags, FlagWideCount))
		if err != nil {
			return nil, err
		}
		symbols = int(countMinusOne) + 1
		if symbols > alphabetSize(h.wide) {
			return nil, bitplane.ErrCorruptStream.WithMessage(
				fmt.Sprintf("%d symbols is more than the alphabet holds", symbols))
		}
	}

	indexOffset := r.Offset()
	sentinelIndex, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	if sentinelIndex > uint64(symbols) {
		return nil, bitplane.ErrCorruptStream.AtBit(indexOffset).WithMessage(
			fmt.Sprintf(
				"sentinel index %d is past the end of a %d-entry table",
				sentinelIndex,
				symbols+1))
	}
	h.sentinelIndex = int(sentinelIndex)

	sentinelLength, err := readLength(r, lengthBits)
	if err != nil {
		return nil, err
	}

	seen := bitmap.New(alphabetSize(h.wide))
	h.table = make([]Code, 0, symbols+1)
	for i := 0; i < symbols; i++ {
		if i == h.sentinelIndex {
			h.table = append(h.table, Code{Symbol: SentinelSymbol, Length: sentinelLength})
		}

		symbolOffset := r.Offset()
		symbol, err := r.ReadBits(symbolBits)
		if err != nil {
			return nil, err
		}
		length, err := readLength(r, lengthBits)
		if err != nil {
			return nil, err
		}

		if seen.Get(int(symbol)) {
			return nil, bitplane.ErrCorruptStream.AtBit(symbolOffset).WithMessage(
				fmt.Sprintf("symbol %d appears twice in the code table", symbol))
		}
		seen.Set(int(symbol), true)
		h.table = append(h.table, Code{Symbol: int(symbol), Length: length})
	}
	if h.sentinelIndex == symbols {
		h.table = append(h.table, Code{Symbol: SentinelSymbol, Length: sentinelLength})
	}
	return h, nil
}
