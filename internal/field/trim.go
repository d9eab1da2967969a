package field

// Range is an inclusive byte range [Start, End] into a shared buffer.
// An empty field has Start > End.
type Range struct {
	Start int
	End   int
}

// Empty reports whether r holds no bytes.
func (r Range) Empty() bool {
	return r.Start > r.End
}

// Len returns the number of bytes in r.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

// Bytes returns the bytes of r without copying. The result aliases buf.
func (r Range) Bytes(buf []byte) []byte {
	if r.Empty() {
		return nil
	}
	return buf[r.Start : r.End+1]
}

// IsWhitespace reports whether b is a horizontal tab or a space.
// Line breaks are not whitespace.
func IsWhitespace(b byte) bool {
	return b == ' ' || b == '\t'
}

// Trim shrinks r to exclude leading and trailing whitespace.
func Trim(buf []byte, r Range) Range {
	return trim(buf, r, 0, false)
}

// TrimQuote shrinks r to exclude leading and trailing whitespace and quote
// bytes. Whitespace and quotes are stripped alike, in any interleaving.
func TrimQuote(buf []byte, r Range, quote byte) Range {
	return trim(buf, r, quote, true)
}

func trim(buf []byte, r Range, quote byte, quoted bool) Range {
	strip := func(b byte) bool {
		return IsWhitespace(b) || (quoted && b == quote)
	}

	// Start stops at End so a range of only stripped bytes collapses to the
	// sentinel {End, End-1} below instead of crossing the buffer.
	for r.Start < r.End && strip(buf[r.Start]) {
		r.Start++
	}
	for r.End >= r.Start && strip(buf[r.End]) {
		r.End--
	}

	return r
}
