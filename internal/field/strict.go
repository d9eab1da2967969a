package field

const (
	maxExponent64 = 308
	maxExponent32 = 38
)

// ValidateInteger checks that r holds an optionally signed run of digits and
// thousands separators with at least one digit.
func ValidateInteger(buf []byte, r Range, opts ParseOptions) error {
	if r.Empty() {
		return parseError(EmptyField, r.Start)
	}

	i := skipSign(buf, r)
	digits := 0
	for ; i <= r.End; i++ {
		c := buf[i]
		switch {
		case isDigit(c):
			digits++
		case c == opts.Thousands && opts.Thousands != 0:
		default:
			return parseError(InvalidDigit, i)
		}
	}
	if digits == 0 {
		return parseError(InvalidDigit, r.Start)
	}
	return nil
}

// ValidateFloat checks r against the decimal grammar
//
//	[+-] digits [decimal digits] [(e|E) [+-] digits]
//
// where either digit run of the mantissa may be empty but not both, and
// thousands separators may appear among mantissa digits. maxExp bounds the
// exponent magnitude.
func ValidateFloat(buf []byte, r Range, opts ParseOptions, maxExp int) error {
	if r.Empty() {
		return parseError(EmptyField, r.Start)
	}

	i := skipSign(buf, r)
	digits := 0
	seenDecimal := false
mantissa:
	for ; i <= r.End; i++ {
		c := buf[i]
		switch {
		case isDigit(c):
			digits++
		case c == opts.Thousands && opts.Thousands != 0:
		case c == opts.Decimal && !seenDecimal:
			seenDecimal = true
		case c == 'e' || c == 'E':
			break mantissa
		default:
			return parseError(InvalidDigit, i)
		}
	}
	if digits == 0 {
		return parseError(InvalidDigit, r.Start)
	}
	if i > r.End {
		return nil
	}

	// i is on the exponent marker.
	marker := i
	i++
	if i <= r.End && (buf[i] == '-' || buf[i] == '+') {
		i++
	}
	if i > r.End {
		return parseError(InvalidDigit, marker)
	}

	exponent := 0
	for ; i <= r.End; i++ {
		c := buf[i]
		if !isDigit(c) {
			return parseError(InvalidDigit, i)
		}
		exponent = exponent*10 + int(c-'0')
		if exponent > maxExp {
			return parseError(ExponentOverflow, marker)
		}
	}
	return nil
}

// ParseIntegerStrict validates r and converts it with ParseInteger.
func ParseIntegerStrict[T Integer](buf []byte, r Range, opts ParseOptions) (T, error) {
	if err := ValidateInteger(buf, r, opts); err != nil {
		return 0, err
	}
	if buf[r.Start] == '+' {
		r.Start++
	}
	return ParseInteger[T](buf, r, opts), nil
}

// ParseFloatStrict validates r and converts it. Unlike ParseFloat, the
// exponent sign applies to the whole exponent.
func ParseFloatStrict[T Float](buf []byte, r Range, opts ParseOptions) (T, error) {
	maxExp := maxExponent64
	var zero T
	if _, ok := any(zero).(float32); ok {
		maxExp = maxExponent32
	}
	if err := ValidateFloat(buf, r, opts, maxExp); err != nil {
		return 0, err
	}

	i := r.Start
	negative := false
	switch buf[i] {
	case '-':
		negative = true
		i++
	case '+':
		i++
	}

	value := scanFloat[T](buf, i, r.End, opts, signedExponent)
	if negative {
		value = -value
	}
	return value, nil
}

func skipSign(buf []byte, r Range) int {
	if c := buf[r.Start]; c == '-' || c == '+' {
		return r.Start + 1
	}
	return r.Start
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
