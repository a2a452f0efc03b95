package bitplane

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
)

type CodecError interface {
	error
	WithMessage(message string) CodecError
	Wrap(err error) CodecError
	// AtBit returns a copy of the error annotated with the bit offset into the
	// stream at which the failure was detected.
	AtBit(offset int64) CodecError
}

type baseCodecError string

const rootError = baseCodecError("")

var ErrCodeTooLong = rootError.WithMessage("Huffman code length out of range")
var ErrCorruptStream = rootError.WithMessage("Corrupt or malformed stream")
var ErrInvalidArgument = rootError.WithMessage("Invalid argument")
var ErrInvalidChannelCount = rootError.WithMessage("Unsupported channel layout")
var ErrIOFailed = rootError.WithMessage("Input/output error")
var ErrRunTooLong = rootError.WithMessage("Run length exceeds codebook range")
var ErrUnknownMethod = rootError.WithMessage("Unknown post-processing method")

// ErrUnexpectedEOF is returned when a bit stream ends before a decoder is done
// with it. It also matches [io.ErrUnexpectedEOF] under [errors.Is].
var ErrUnexpectedEOF = rootError.Wrap(io.ErrUnexpectedEOF)

func (e baseCodecError) Error() string {
	return string(e)
}

func (e baseCodecError) WithMessage(message string) CodecError {
	return customCodecError{
		message:       message,
		originalError: e,
		bitOffset:     -1,
	}
}

func (e baseCodecError) Wrap(err error) CodecError {
	offset, _ := BitOffset(err)
	if e == rootError {
		return customCodecError{
			message:       err.Error(),
			originalError: multierror.Append(e, err),
			bitOffset:     offset,
		}
	}
	return customCodecError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
		bitOffset:     offset,
	}
}

func (e baseCodecError) AtBit(offset int64) CodecError {
	return customCodecError{
		message:       fmt.Sprintf("%s at bit %d", e.Error(), offset),
		originalError: e,
		bitOffset:     offset,
	}
}

// -----------------------------------------------------------------------------

type customCodecError struct {
	message       string
	originalError error
	bitOffset     int64
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e customCodecError) Error() string {
	return e.message
}

func (e customCodecError) WithMessage(message string) CodecError {
	return customCodecError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
		bitOffset:     e.bitOffset,
	}
}

func (e customCodecError) Wrap(err error) CodecError {
	offset := e.bitOffset
	if offset < 0 {
		offset, _ = BitOffset(err)
	}
	return customCodecError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
		bitOffset:     offset,
	}
}

func (e customCodecError) AtBit(offset int64) CodecError {
	return customCodecError{
		message:       fmt.Sprintf("%s at bit %d", e.message, offset),
		originalError: e,
		bitOffset:     offset,
	}
}

func (e customCodecError) Unwrap() error {
	return e.originalError
}

func (e customCodecError) BitOffset() int64 {
	return e.bitOffset
}

// BitOffset returns the bit offset recorded on err by [CodecError.AtBit], if
// there is one anywhere in its chain.
func BitOffset(err error) (int64, bool) {
	var withOffset interface{ BitOffset() int64 }
	if errors.As(err, &withOffset) && withOffset.BitOffset() >= 0 {
		return withOffset.BitOffset(), true
	}
	return -1, false
}
