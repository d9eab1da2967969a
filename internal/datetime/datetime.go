// Package datetime parses calendar dates and date-times straight out of a byte
// buffer, without allocating or copying the field.
//
// Accepted date forms, with '/', '-' or '.' as separator:
//
//	2006-01-02   year first, always unambiguous
//	01/02/2006   month first, or day first when dayFirst is set
//	01/02/06     two-digit years: 00-68 map to 20xx, 69-99 to 19xx
//	20060102     compact year-month-day
//	Jan 2, 2006  and  2 Jan 2006
//
// A date-time is a date followed by ' ' or 'T' and hh[:mm[:ss[.fff]]], an
// optional AM/PM marker and an optional 'Z' or +hh[:mm] offset.
package datetime

import "time"

const (
	msPerSecond = 1000
	msPerDay    = 86400 * msPerSecond
)

// ParseDate returns the number of days between 1970-01-01 and the date in
// buf[start:end+1]. Text after the date, such as a time of day, is ignored.
// ok is false when no valid date was found.
func ParseDate(buf []byte, start, end int, dayFirst bool) (days int32, ok bool) {
	if start > end {
		return 0, false
	}

	d, _, ok := parseDate(buf, start, end, dayFirst)
	if !ok {
		return 0, false
	}
	return int32(d.days()), true
}

// ParseDateTime returns milliseconds since the Unix epoch for the date-time
// in buf[start:end+1]. A date without a time is midnight UTC.
func ParseDateTime(buf []byte, start, end int, dayFirst bool) (ms int64, ok bool) {
	if start > end {
		return 0, false
	}

	d, i, ok := parseDate(buf, start, end, dayFirst)
	if !ok {
		return 0, false
	}
	ms = d.days() * msPerDay

	if i <= end && (buf[i] == ' ' || buf[i] == 'T' || buf[i] == 't') {
		i++
	}
	i = skipSpaces(buf, i, end)
	if i > end {
		return ms, true
	}

	tod, ok := parseTime(buf, i, end)
	if !ok {
		return 0, false
	}
	return ms + tod, true
}

type civil struct {
	year, month, day int
}

func (c civil) days() int64 {
	return time.Date(c.year, time.Month(c.month), c.day, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func (c civil) valid() bool {
	if c.month < 1 || c.month > 12 || c.day < 1 {
		return false
	}
	return c.day <= daysIn(c.year, c.month)
}

func daysIn(year, month int) int {
	switch month {
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// parseDate reads the date at the start of buf[i:end+1] and returns the
// offset of the first byte after it.
func parseDate(buf []byte, i, end int, dayFirst bool) (civil, int, bool) {
	if isLetter(buf[i]) {
		return parseMonthFirstName(buf, i, end)
	}

	first, n1, i := readNumber(buf, i, end)
	if n1 == 0 {
		return civil{}, i, false
	}

	if i > end || !isDateSeparator(buf[i]) {
		if n1 != 8 {
			if n1 <= 2 && i <= end && buf[i] == ' ' {
				return parseDayFirstName(buf, first, i, end)
			}
			return civil{}, i, false
		}
		c := civil{year: first / 10000, month: first / 100 % 100, day: first % 100}
		return c, i, c.valid()
	}
	sep := buf[i]
	i++

	second, n2, i := readNumber(buf, i, end)
	if n2 == 0 || n2 > 2 || i > end || buf[i] != sep {
		return civil{}, i, false
	}
	i++

	third, n3, i := readNumber(buf, i, end)
	if n3 == 0 {
		return civil{}, i, false
	}

	var c civil
	switch {
	case n1 == 4:
		if n3 > 2 {
			return civil{}, i, false
		}
		c = civil{year: first, month: second, day: third}
	case n1 > 2:
		return civil{}, i, false
	case dayFirst:
		c = civil{year: expandYear(third, n3), month: second, day: first}
	default:
		c = civil{year: expandYear(third, n3), month: first, day: second}
	}
	return c, i, c.valid()
}

// parseMonthFirstName reads "Jan 2, 2006" and "January 2 2006".
func parseMonthFirstName(buf []byte, i, end int) (civil, int, bool) {
	month, i := readMonthName(buf, i, end)
	if month == 0 {
		return civil{}, i, false
	}
	i = skipSpaces(buf, i, end)

	day, n, i := readNumber(buf, i, end)
	if n == 0 || n > 2 {
		return civil{}, i, false
	}
	if i <= end && buf[i] == ',' {
		i++
	}
	i = skipSpaces(buf, i, end)

	year, n, i := readNumber(buf, i, end)
	if n == 0 {
		return civil{}, i, false
	}

	c := civil{year: expandYear(year, n), month: month, day: day}
	return c, i, c.valid()
}

// parseDayFirstName reads "2 Jan 2006" once the day has been consumed.
func parseDayFirstName(buf []byte, day, i, end int) (civil, int, bool) {
	i = skipSpaces(buf, i, end)
	if i > end {
		return civil{}, i, false
	}
	month, i := readMonthName(buf, i, end)
	if month == 0 {
		return civil{}, i, false
	}
	i = skipSpaces(buf, i, end)

	year, n, i := readNumber(buf, i, end)
	if n == 0 {
		return civil{}, i, false
	}

	c := civil{year: expandYear(year, n), month: month, day: day}
	return c, i, c.valid()
}

// parseTime reads hh[:mm[:ss[.fff]]] [AM|PM] [Z|+hh[:mm]|-hh[:mm]] and
// returns milliseconds since midnight adjusted to UTC.
func parseTime(buf []byte, i, end int) (int64, bool) {
	hour, n, i := readNumber(buf, i, end)
	if n == 0 || n > 2 {
		return 0, false
	}

	var minute, second, milli int
	if i <= end && buf[i] == ':' {
		minute, n, i = readNumber(buf, i+1, end)
		if n != 2 {
			return 0, false
		}
		if i <= end && buf[i] == ':' {
			second, n, i = readNumber(buf, i+1, end)
			if n != 2 {
				return 0, false
			}
			if i <= end && buf[i] == '.' {
				milli, i = readMillis(buf, i+1, end)
			}
		}
	}

	i = skipSpaces(buf, i, end)
	if i+1 <= end && (buf[i+1] == 'M' || buf[i+1] == 'm') {
		switch buf[i] {
		case 'A', 'a':
			if hour == 12 {
				hour = 0
			}
			i += 2
		case 'P', 'p':
			if hour < 12 {
				hour += 12
			}
			i += 2
		}
	}
	if hour > 23 || minute > 59 || second > 60 {
		return 0, false
	}

	ms := int64(((hour*60+minute)*60+second)*msPerSecond + milli)

	i = skipSpaces(buf, i, end)
	if i > end {
		return ms, true
	}

	switch buf[i] {
	case 'Z', 'z':
		return ms, i == end
	case '+', '-':
		sign := int64(1)
		if buf[i] == '-' {
			sign = -1
		}
		oh, n, j := readNumber(buf, i+1, end)
		if n != 2 && n != 4 {
			return 0, false
		}
		om := 0
		if n == 4 {
			oh, om = oh/100, oh%100
		} else if j <= end && buf[j] == ':' {
			om, n, j = readNumber(buf, j+1, end)
			if n != 2 {
				return 0, false
			}
		}
		if j <= end {
			return 0, false
		}
		return ms - sign*int64((oh*60+om)*60*msPerSecond), true
	}
	return 0, false
}

// readNumber reads up to 9 decimal digits.
func readNumber(buf []byte, i, end int) (value, digits, next int) {
	for i <= end && digits < 9 && buf[i] >= '0' && buf[i] <= '9' {
		value = value*10 + int(buf[i]-'0')
		digits++
		i++
	}
	return value, digits, i
}

// readMillis reads a fractional second, keeping millisecond precision.
func readMillis(buf []byte, i, end int) (int, int) {
	ms, scale := 0, 100
	for i <= end && buf[i] >= '0' && buf[i] <= '9' {
		ms += int(buf[i]-'0') * scale
		scale /= 10
		i++
	}
	return ms, i
}

var monthNames = [12][3]byte{
	{'j', 'a', 'n'}, {'f', 'e', 'b'}, {'m', 'a', 'r'}, {'a', 'p', 'r'},
	{'m', 'a', 'y'}, {'j', 'u', 'n'}, {'j', 'u', 'l'}, {'a', 'u', 'g'},
	{'s', 'e', 'p'}, {'o', 'c', 't'}, {'n', 'o', 'v'}, {'d', 'e', 'c'},
}

// readMonthName matches a month by its first three letters and skips the rest
// of the word. It returns 0 when no month matches.
func readMonthName(buf []byte, i, end int) (int, int) {
	if i+2 > end {
		return 0, i
	}
	var prefix [3]byte
	for k := 0; k < 3; k++ {
		prefix[k] = buf[i+k] | 0x20
	}

	month := 0
	for m, name := range monthNames {
		if prefix == name {
			month = m + 1
			break
		}
	}
	for i <= end && isLetter(buf[i]) {
		i++
	}
	if i <= end && buf[i] == '.' {
		i++
	}
	return month, i
}

func expandYear(year, digits int) int {
	if digits != 2 {
		return year
	}
	if year <= 68 {
		return 2000 + year
	}
	return 1900 + year
}

func skipSpaces(buf []byte, i, end int) int {
	for i <= end && buf[i] == ' ' {
		i++
	}
	return i
}

func isDateSeparator(b byte) bool {
	return b == '/' || b == '-' || b == '.'
}

func isLetter(b byte) bool {
	b |= 0x20
	return b >= 'a' && b <= 'z'
}
