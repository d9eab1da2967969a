package core

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

var (
	// ErrEmptyInput is returned when the input has no bytes after the BOM.
	ErrEmptyInput = errors.New("empty input")

	// ErrInputTooLarge is returned when the input exceeds the size limit.
	ErrInputTooLarge = errors.New("input too large")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader drops a leading UTF-8 byte order mark.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader wraps r.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// CountingReader counts the bytes read through it. Count is safe to call
// from another goroutine while reads are in progress.
type CountingReader struct {
	r io.Reader
	n atomic.Int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// Count returns the bytes read so far.
func (c *CountingReader) Count() int64 {
	return c.n.Load()
}

// ReadInput reads all of r into memory with the BOM removed. A limit of
// zero or less disables the size check.
func ReadInput(r io.Reader, limit int64) ([]byte, error) {
	src := io.Reader(NewBOMSkippingReader(r))
	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}

	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if limit > 0 && int64(len(buf)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrInputTooLarge, limit)
	}
	if len(buf) == 0 {
		return nil, ErrEmptyInput
	}
	return buf, nil
}
