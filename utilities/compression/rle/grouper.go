package rle

import (
	"io"

	"github.com/dargueta/bitplane"
)

// BitRun represents a single run of identical bits.
type BitRun struct {
	// Bit is the value of every bit in the run.
	Bit bool
	// RunLength gives the number of bits in the run.
	//
	// A valid run will always have this be 1 or greater. A value less than 1
	// indicates either the end of the source was reached, or an error occurred.
	RunLength int
}

// InvalidRun is returned by [RunGrouper.GetNextRun] once the source is exhausted.
var InvalidRun = BitRun{Bit: false, RunLength: 0}

// RunGrouper splits the first `total` bits of a [bitplane.BitSource] into runs,
// scanning in index order.
type RunGrouper struct {
	source bitplane.BitSource
	next   int
	total  int
}

func NewRunGrouper(source bitplane.BitSource, total int) *RunGrouper {
	return &RunGrouper{source: source, total: total}
}

// GetNextRun returns a [BitRun] for the next run of bits in the source. After
// the last run it returns [InvalidRun] and [io.EOF].
func (grouper *RunGrouper) GetNextRun() (BitRun, error) {
	if grouper.next >= grouper.total {
		return InvalidRun, io.EOF
	}

	firstBit := grouper.source.Get(grouper.next)
	runLength := 1
	for grouper.next+runLength < grouper.total {
		if grouper.source.Get(grouper.next+runLength) != firstBit {
			break
		}
		runLength++
	}

	grouper.next += runLength
	return BitRun{Bit: firstBit, RunLength: runLength}, nil
}
