package ikon

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyIncluded is returned when an icon already holds an entry for a key.
	ErrAlreadyIncluded = errors.New("the icon already contains an entry associated with this key")
	// ErrFull is returned when an icon reached the maximum number of entries its format can store.
	ErrFull = errors.New("the icon has already reached its maximum capacity")
	// ErrMismatchedDimensions is returned when a resampling filter produced an image
	// of dimensions other than the ones it was asked for.
	ErrMismatchedDimensions = errors.New("a resampling filter returned an image of dimensions other than the ones specified by its arguments")
	// ErrUnsupported is returned when an input uses a feature or format the decoder does not support.
	ErrUnsupported = errors.New("unsupported icon or image format")
	// ErrInvalidKey is returned when a key cannot be represented by the icon format.
	ErrInvalidKey = errors.New("invalid key")
)

// ResampleError reports a filter output whose size differs from the requested one.
type ResampleError struct {
	Want Size
	Got  Size
}

func (e *ResampleError) Error() string {
	return fmt.Sprintf("%v: expected %v, got %v", ErrMismatchedDimensions, e.Want, e.Got)
}

// Is makes errors.Is(err, ErrMismatchedDimensions) hold for every ResampleError.
func (e *ResampleError) Is(target error) bool {
	return target == ErrMismatchedDimensions
}

// EncodingError is the error type returned by the AddEntry methods.
type EncodingError struct {
	Key any
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot add entry %v: %v", e.Key, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// DecodingError is the error type returned by the icon decoders.
type DecodingError struct {
	Format string
	Err    error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }
