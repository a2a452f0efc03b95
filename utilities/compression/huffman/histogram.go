package huffman

// Histogram holds the number of times each symbol occurs in an input.
type Histogram struct {
	// Counts is indexed by symbol. It has 256 entries for byte symbols and
	// 65536 for wide ones.
	Counts []uint64
	// Wide is true if symbols are little-endian pairs of bytes.
	Wide bool
	// HasTrailingByte is set in wide mode when the input had an odd length.
	// The last byte can't form a symbol, so it's kept out of the counts.
	HasTrailingByte bool
	TrailingByte    byte
	// Total is the number of symbols counted.
	Total int
}

// alphabetSize returns the number of possible symbols in the given mode.
func alphabetSize(wide bool) int {
	if wide {
		return 1 << 16
	}
	return 1 << 8
}

// symbolCount returns the number of whole symbols in `input`.
func symbolCount(input []byte, wide bool) int {
	if wide {
		return len(input) / 2
	}
	return len(input)
}

// symbolAt returns the i'th symbol of `input`.
func symbolAt(input []byte, i int, wide bool) int {
	if wide {
		return int(input[2*i]) | int(input[2*i+1])<<8
	}
	return int(input[i])
}

// BuildHistogram counts the symbols in `input`.
func BuildHistogram(input []byte, wide bool) *Histogram {
	hist := &Histogram{
		Counts: make([]uint64, alphabetSize(wide)),
		Wide:   wide,
		Total:  symbolCount(input, wide),
	}

	for i := 0; i < hist.Total; i++ {
		hist.Counts[symbolAt(input, i, wide)]++
	}

	if wide && len(input)%2 != 0 {
		hist.HasTrailingByte = true
		hist.TrailingByte = input[len(input)-1]
	}
	return hist
}

// Distinct gives the number of symbols that occur at least once.
func (hist *Histogram) Distinct() int {
	distinct := 0
	for _, count := range hist.Counts {
		if count > 0 {
			distinct++
		}
	}
	return distinct
}
