package pipeline

import (
	"fmt"
	"runtime"

	"github.com/dargueta/bitplane"
	"github.com/dargueta/bitplane/utilities/compression"
)

// Options controls how an image is encoded.
type Options struct {
	// Gray Gray-codes every channel before its planes are extracted. Adjacent
	// values then differ in a single bit, which lengthens runs in the upper
	// planes of smooth images.
	Gray bool
	// XOR filters every plane against its left neighbor before run-length
	// encoding.
	XOR bool
	// Conversion selects how a color image is split into channels. It's
	// ignored for grayscale images.
	Conversion bitplane.ColorConversion
	// Post is the second compression pass applied to every encoded plane.
	Post compression.Method
	// Workers is the maximum number of planes coded at once. Zero or less
	// means one per CPU.
	Workers int
}

// DefaultOptions returns RGB channels with no filtering or second pass.
func DefaultOptions() Options {
	return Options{Conversion: bitplane.ConversionRGB, Post: compression.MethodNone}
}

func (opts *Options) validate() error {
	if !opts.Conversion.Valid() {
		return bitplane.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("invalid color conversion %d", uint8(opts.Conversion)))
	}
	if !opts.Post.Valid() {
		return bitplane.ErrUnknownMethod.WithMessage(opts.Post.String())
	}
	return nil
}

func (opts *Options) flags() uint8 {
	var flags uint8
	if opts.Gray {
		flags |= bitplane.FlagGray
	}
	if opts.XOR {
		flags |= bitplane.FlagXOR
	}
	return flags
}

func workerCount(requested, jobs int) int {
	if requested <= 0 {
		requested = runtime.NumCPU()
	}
	if requested > jobs {
		requested = jobs
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}
