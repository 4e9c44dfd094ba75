package codec

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrLengthExceeded  = errors.New("codec: length exceeded")
	ErrIndexOutOfRange = errors.New("codec: index out of range")
	ErrShortBuffer     = errors.New("codec: short buffer")
	ErrInvalidBool     = errors.New("codec: invalid bool value")
)

// LengthError reports a requested or decoded length above a declared capacity.
type LengthError struct {
	Length int // Requested or decoded length
	Max    int // Declared capacity
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("codec: length %d exceeds capacity %d", e.Length, e.Max)
}

// Is lets errors.Is match the ErrLengthExceeded sentinel.
func (e *LengthError) Is(target error) bool {
	return target == ErrLengthExceeded
}

// IndexError reports a collection access outside [0, Len).
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("codec: index %d out of range [0,%d)", e.Index, e.Len)
}

// Is lets errors.Is match the ErrIndexOutOfRange sentinel.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

func shortBuffer(need, have int) error {
	return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, need, have)
}
