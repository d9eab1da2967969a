package field

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by ParseError.Unwrap.
var (
	ErrInvalidDigit     = errors.New("invalid digit")
	ErrEmptyField       = errors.New("empty field")
	ErrExponentOverflow = errors.New("exponent out of range")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidBoolean   = errors.New("invalid boolean literal")
	ErrUnknownKind      = errors.New("unknown output kind")
)

// ErrorKind classifies a strict-mode conversion failure.
type ErrorKind uint8

const (
	InvalidDigit ErrorKind = iota + 1
	EmptyField
	ExponentOverflow
	InvalidDate
	InvalidBoolean
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidDigit:
		return "invalid_digit"
	case EmptyField:
		return "empty_field"
	case ExponentOverflow:
		return "exponent_overflow"
	case InvalidDate:
		return "invalid_date"
	case InvalidBoolean:
		return "invalid_boolean"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case InvalidDigit:
		return ErrInvalidDigit
	case EmptyField:
		return ErrEmptyField
	case ExponentOverflow:
		return ErrExponentOverflow
	case InvalidDate:
		return ErrInvalidDate
	case InvalidBoolean:
		return ErrInvalidBoolean
	default:
		return nil
	}
}

// ParseError reports why a field could not be converted under Strict.
// Offset is the buffer offset of the offending byte, or of the field start
// when the field as a whole is rejected.
type ParseError struct {
	Kind   ErrorKind
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("field: %v at offset %d", e.Kind.sentinel(), e.Offset)
}

// Unwrap lets errors.Is match the kind's sentinel error.
func (e *ParseError) Unwrap() error {
	return e.Kind.sentinel()
}

func parseError(kind ErrorKind, offset int) error {
	return &ParseError{Kind: kind, Offset: offset}
}
