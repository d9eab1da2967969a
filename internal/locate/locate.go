// Package locate finds row and field boundaries in a delimited text buffer.
//
// It makes a single serial pass and records, for every field, the inclusive
// byte range it occupies. No field bytes are copied; quoted fields keep their
// quotes so the converter can strip them together with padding.
package locate

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/JonMunkholm/csvcast/internal/field"
)

var (
	// ErrUnterminatedQuote is returned under the strict policy when a quoted
	// field is still open at the end of the buffer.
	ErrUnterminatedQuote = errors.New("unterminated quoted field")

	// ErrBareQuote is returned under the strict policy when a quote appears
	// inside an unquoted field.
	ErrBareQuote = errors.New("bare quote in non-quoted field")
)

// RecordError reports where in the buffer locating failed.
type RecordError struct {
	Line   int // 1-based record number, comment and blank lines included
	Column int // 1-based field number
	Offset int // byte offset into the buffer
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d field %d (offset %d): %v", e.Line, e.Column, e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Row is the ordered list of field ranges of one record.
type Row []field.Range

// Width returns the widest row in rows.
func Width(rows []Row) int {
	w := 0
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Locate splits buf into rows of field ranges.
//
// A terminator directly preceded by '\r' ends the record without the '\r'.
// Lines starting with the comment byte are dropped, as are blank lines when
// SkipBlankLines is set. Under the best-effort policy malformed quoting never
// fails: an open quote runs to the end of the buffer and a bare quote is an
// ordinary byte.
func Locate(buf []byte, opts field.ParseOptions) ([]Row, error) {
	l := locator{
		buf:   buf,
		delim: opts.Delimiter,
		term:  opts.Terminator,
		quote: opts.Quote,
		opts:  opts,
	}
	if l.term == 0 {
		l.term = field.DefaultTerminator
	}
	return l.rows()
}

type locator struct {
	buf   []byte
	pos   int
	line  int
	delim byte
	term  byte
	quote byte
	opts  field.ParseOptions

	// width of the first row, used to size the following ones
	hint int
}

func (l *locator) rows() ([]Row, error) {
	rows := make([]Row, 0, bytes.Count(l.buf, []byte{l.term})+1)

	for l.pos < len(l.buf) {
		l.line++

		if l.opts.Comment != 0 && l.buf[l.pos] == l.opts.Comment {
			l.skipLine()
			continue
		}
		if l.opts.SkipBlankLines && l.atBlankLine() {
			l.skipLine()
			continue
		}

		row, err := l.row()
		if err != nil {
			return nil, err
		}
		if l.hint == 0 {
			l.hint = len(row)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// row consumes one record starting at l.pos.
func (l *locator) row() (Row, error) {
	row := make(Row, 0, max(l.hint, 1))
	buf := l.buf
	n := len(buf)

	start := l.pos
	quotable := true
	inQuote := false

	for i := l.pos; i < n; i++ {
		c := buf[i]

		if inQuote {
			if c != l.quote {
				continue
			}
			if l.opts.DoubleQuote && i+1 < n && buf[i+1] == l.quote {
				i++
				continue
			}
			inQuote = false
			continue
		}

		switch {
		case c == l.delim:
			row = append(row, field.Range{Start: start, End: i - 1})
			if l.opts.MultiDelimiter {
				for i+1 < n && buf[i+1] == l.delim {
					i++
				}
			}
			start = i + 1
			quotable = true

		case c == l.term:
			row = append(row, field.Range{Start: start, End: l.stripCR(start, i-1)})
			l.pos = i + 1
			return row, nil

		case l.quote != 0 && c == l.quote:
			if quotable {
				inQuote = true
				quotable = false
				continue
			}
			if l.opts.Policy == field.Strict {
				return nil, l.errorAt(len(row), i, ErrBareQuote)
			}

		case c != ' ' && c != '\t':
			quotable = false
		}
	}

	if inQuote && l.opts.Policy == field.Strict {
		return nil, l.errorAt(len(row), n, ErrUnterminatedQuote)
	}

	row = append(row, field.Range{Start: start, End: l.stripCR(start, n-1)})
	l.pos = n
	return row, nil
}

// stripCR drops a '\r' left before a '\n' terminator.
func (l *locator) stripCR(start, end int) int {
	if l.term == '\n' && end >= start && l.buf[end] == '\r' {
		return end - 1
	}
	return end
}

func (l *locator) atBlankLine() bool {
	c := l.buf[l.pos]
	if c == l.term {
		return true
	}
	return c == '\r' && l.term == '\n' && l.pos+1 < len(l.buf) && l.buf[l.pos+1] == '\n'
}

func (l *locator) skipLine() {
	next := bytes.IndexByte(l.buf[l.pos:], l.term)
	if next < 0 {
		l.pos = len(l.buf)
		return
	}
	l.pos += next + 1
}

func (l *locator) errorAt(column, offset int, err error) error {
	return &RecordError{Line: l.line, Column: column + 1, Offset: offset, Err: err}
}
