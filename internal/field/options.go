package field

import (
	"errors"
	"fmt"
)

var (
	// ErrDelimiterCollision is returned when two structural bytes that must be
	// distinguishable are set to the same value.
	ErrDelimiterCollision = errors.New("structural bytes must be distinct")

	// ErrMissingDelimiter is returned when the delimiter is unset.
	ErrMissingDelimiter = errors.New("delimiter must be set")

	// ErrMissingDecimal is returned when the decimal point is unset.
	ErrMissingDecimal = errors.New("decimal point must be set")

	// ErrInvalidPolicy is returned for an unknown Policy value.
	ErrInvalidPolicy = errors.New("unknown parse policy")
)

// Policy selects how malformed field text is handled.
type Policy uint8

const (
	// BestEffort never fails. Malformed text yields a deterministic but
	// otherwise unspecified value, identical to what legacy jobs produced.
	BestEffort Policy = iota

	// Strict validates field text and reports a *ParseError.
	Strict
)

// String returns the policy name used in configuration.
func (p Policy) String() string {
	switch p {
	case BestEffort:
		return "best-effort"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "best-effort", "besteffort", "lenient":
		return BestEffort, nil
	case "strict":
		return Strict, nil
	default:
		return BestEffort, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

const (
	// DefaultDelimiter separates fields.
	DefaultDelimiter = ','

	// DefaultTerminator ends a record.
	DefaultTerminator = '\n'

	// DefaultQuote encloses fields that contain structural bytes.
	DefaultQuote = '"'

	// DefaultDecimal separates the integral and fractional parts of a number.
	DefaultDecimal = '.'
)

// ParseOptions is the read-only configuration shared by every conversion of
// one parse pass. A zero byte means "not set" for Quote, Thousands and Comment.
//
// Build one with NewParseOptions and never mutate it afterwards; it is passed
// by value so concurrent conversions cannot observe a change.
type ParseOptions struct {
	Delimiter  byte
	Terminator byte
	Quote      byte
	Decimal    byte
	Thousands  byte
	Comment    byte

	KeepQuotes     bool
	DoubleQuote    bool
	DayFirst       bool
	SkipBlankLines bool
	MultiDelimiter bool

	// TrueValues and FalseValues are integer codes a boolean column accepts
	// as true and false literals.
	TrueValues  []int32
	FalseValues []int32

	Policy Policy
}

// Option configures ParseOptions in NewParseOptions.
type Option func(*ParseOptions) error

// DefaultParseOptions returns the options used when nothing is configured.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Delimiter:      DefaultDelimiter,
		Terminator:     DefaultTerminator,
		Quote:          DefaultQuote,
		Decimal:        DefaultDecimal,
		DoubleQuote:    true,
		SkipBlankLines: true,
		TrueValues:     []int32{1},
		FalseValues:    []int32{0},
	}
}

// NewParseOptions applies opts on top of DefaultParseOptions and validates
// the result.
func NewParseOptions(opts ...Option) (ParseOptions, error) {
	o := DefaultParseOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return ParseOptions{}, err
		}
	}

	if err := o.Validate(); err != nil {
		return ParseOptions{}, err
	}

	return o, nil
}

// Validate checks that the structural bytes can be told apart.
func (o ParseOptions) Validate() error {
	if o.Delimiter == 0 {
		return ErrMissingDelimiter
	}
	if o.Decimal == 0 {
		return ErrMissingDecimal
	}
	if o.Policy > Strict {
		return fmt.Errorf("%w: %d", ErrInvalidPolicy, o.Policy)
	}

	named := []struct {
		name string
		b    byte
	}{
		{"delimiter", o.Delimiter},
		{"terminator", o.Terminator},
		{"quote", o.Quote},
		{"decimal", o.Decimal},
		{"thousands", o.Thousands},
	}
	for i := 0; i < len(named); i++ {
		if named[i].b == 0 {
			continue
		}
		for j := i + 1; j < len(named); j++ {
			if named[i].b == named[j].b {
				return fmt.Errorf("%w: %s and %s are both %q",
					ErrDelimiterCollision, named[i].name, named[j].name, named[i].b)
			}
		}
	}

	return nil
}

// WithDelimiter sets the field delimiter.
func WithDelimiter(b byte) Option {
	return func(o *ParseOptions) error {
		o.Delimiter = b
		return nil
	}
}

// WithTerminator sets the record terminator.
func WithTerminator(b byte) Option {
	return func(o *ParseOptions) error {
		o.Terminator = b
		return nil
	}
}

// WithQuote sets the quote byte. Zero disables quoting.
func WithQuote(b byte) Option {
	return func(o *ParseOptions) error {
		o.Quote = b
		return nil
	}
}

// WithDecimal sets the decimal point.
func WithDecimal(b byte) Option {
	return func(o *ParseOptions) error {
		o.Decimal = b
		return nil
	}
}

// WithThousands sets the thousands separator. Zero disables it.
func WithThousands(b byte) Option {
	return func(o *ParseOptions) error {
		o.Thousands = b
		return nil
	}
}

// WithComment sets the comment marker. Zero disables comments.
func WithComment(b byte) Option {
	return func(o *ParseOptions) error {
		o.Comment = b
		return nil
	}
}

// WithKeepQuotes keeps quote bytes in field text when splitting rows.
func WithKeepQuotes(v bool) Option {
	return func(o *ParseOptions) error {
		o.KeepQuotes = v
		return nil
	}
}

// WithDoubleQuote treats a doubled quote inside a quoted field as a literal quote.
func WithDoubleQuote(v bool) Option {
	return func(o *ParseOptions) error {
		o.DoubleQuote = v
		return nil
	}
}

// WithDayFirst reads ambiguous dates as day/month instead of month/day.
func WithDayFirst(v bool) Option {
	return func(o *ParseOptions) error {
		o.DayFirst = v
		return nil
	}
}

// WithSkipBlankLines drops records with no bytes between terminators.
func WithSkipBlankLines(v bool) Option {
	return func(o *ParseOptions) error {
		o.SkipBlankLines = v
		return nil
	}
}

// WithMultiDelimiter collapses runs of delimiters into one.
func WithMultiDelimiter(v bool) Option {
	return func(o *ParseOptions) error {
		o.MultiDelimiter = v
		return nil
	}
}

// WithTrueValues replaces the integer codes accepted as true.
func WithTrueValues(codes ...int32) Option {
	return func(o *ParseOptions) error {
		o.TrueValues = append([]int32(nil), codes...)
		return nil
	}
}

// WithFalseValues replaces the integer codes accepted as false.
func WithFalseValues(codes ...int32) Option {
	return func(o *ParseOptions) error {
		o.FalseValues = append([]int32(nil), codes...)
		return nil
	}
}

// WithPolicy sets the malformed input policy.
func WithPolicy(p Policy) Option {
	return func(o *ParseOptions) error {
		if p > Strict {
			return fmt.Errorf("%w: %d", ErrInvalidPolicy, p)
		}
		o.Policy = p
		return nil
	}
}
