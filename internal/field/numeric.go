package field

import "math"

// Integer is the set of fixed-width integer output types.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// Float is the set of floating point output types.
type Float interface {
	~float32 | ~float64
}

// ParseInteger converts the integral part of the field in r.
//
// A leading '-' is consumed without checking that a digit follows. Thousands
// separators are skipped. Scanning stops at the decimal point, at 'e'/'E' or
// at the end of the range; fractional and exponent text is ignored. Every
// other byte is taken as a digit by subtracting '0', and overflow wraps in T.
func ParseInteger[T Integer](buf []byte, r Range, opts ParseOptions) T {
	if r.Empty() {
		return 0
	}

	i := r.Start
	negative := buf[i] == '-'
	if negative {
		i++
	}

	var value T
	for ; i <= r.End; i++ {
		c := buf[i]
		if c == opts.Decimal || c == 'e' || c == 'E' {
			break
		}
		if c == opts.Thousands {
			continue
		}
		value = value*10 + T(int(c)-'0')
	}

	if negative {
		value = -value
	}
	return value
}

// ParseFloat converts the field in r to a floating point value.
//
// It follows ParseInteger for the integral part, then keeps accumulating
// fractional digits into the same value while counting a divisor, divides,
// and scales by a power of ten when an exponent is present.
//
// The exponent keeps the behavior of existing ingestion jobs: a '-' negates
// only the digit right after it, so "e-12" scales by 10^-8, not 10^-12.
// Use ParseFloatStrict for the arithmetic reading.
func ParseFloat[T Float](buf []byte, r Range, opts ParseOptions) T {
	if r.Empty() {
		return 0
	}

	i := r.Start
	negative := buf[i] == '-'
	if negative {
		i++
	}

	value := scanFloat[T](buf, i, r.End, opts, legacyExponent)
	if negative {
		value = -value
	}
	return value
}

type exponentMode uint8

const (
	legacyExponent exponentMode = iota
	signedExponent
)

// scanFloat parses the unsigned mantissa starting at i and the exponent that
// may follow it, up to and including end.
func scanFloat[T Float](buf []byte, i, end int, opts ParseOptions, mode exponentMode) T {
	var value T
	for ; i <= end; i++ {
		c := buf[i]
		if c == opts.Decimal {
			i++
			break
		}
		if c == 'e' || c == 'E' {
			break
		}
		if c == opts.Thousands {
			continue
		}
		value = value*10 + T(int(c)-'0')
	}

	divisor := T(1)
	for ; i <= end; i++ {
		c := buf[i]
		if c == 'e' || c == 'E' {
			i++
			break
		}
		if c == opts.Thousands {
			continue
		}
		value = value*10 + T(int(c)-'0')
		divisor *= 10
	}
	value /= divisor

	if i > end {
		return value
	}

	var exponent int
	if mode == legacyExponent {
		exponent = scanLegacyExponent(buf, i, end)
	} else {
		exponent = scanSignedExponent(buf, i, end)
	}
	if exponent != 0 {
		value *= T(math.Pow10(exponent))
	}
	return value
}

func scanLegacyExponent(buf []byte, i, end int) int {
	exponent := 0
	for ; i <= end; i++ {
		c := buf[i]
		if c == '-' {
			if i == end {
				break
			}
			i++
			exponent = exponent*10 - (int(buf[i]) - '0')
			continue
		}
		exponent = exponent*10 + int(c) - '0'
	}
	return exponent
}

func scanSignedExponent(buf []byte, i, end int) int {
	negative := false
	switch buf[i] {
	case '-':
		negative = true
		i++
	case '+':
		i++
	}

	exponent := 0
	for ; i <= end; i++ {
		exponent = exponent*10 + int(buf[i]) - '0'
		// Past this every float type is already zero or infinite.
		if exponent > 9999 {
			exponent = 9999
		}
	}
	if negative {
		exponent = -exponent
	}
	return exponent
}

// ParseTimestamp returns the field as a 64-bit epoch value. Timestamps are
// stored as the integers they are written as; no calendar math is done.
func ParseTimestamp(buf []byte, r Range, opts ParseOptions) int64 {
	return ParseInteger[int64](buf, r, opts)
}

// ParseCategory returns the categorical code of the field: its MurmurHash3
// with CategorySeed. Fields with identical text always get the same code.
func ParseCategory(buf []byte, r Range) uint32 {
	return Hash32(buf, r.Start, r.End+1, CategorySeed)
}

// LiteralCode returns the integer code a true/false literal is matched by.
// Numeric text maps to its value, anything else to its categorical code.
func LiteralCode(s string) int32 {
	b := []byte(s)
	r := Trim(b, Range{Start: 0, End: len(b) - 1})
	if r.Empty() {
		return int32(ParseCategory(b, r))
	}

	i := r.Start
	if b[i] == '-' && r.Len() > 1 {
		i++
	}
	for ; i <= r.End; i++ {
		if b[i] < '0' || b[i] > '9' {
			return int32(ParseCategory(b, r))
		}
	}
	return ParseInteger[int32](b, r, DefaultParseOptions())
}
