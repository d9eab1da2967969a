package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/csvcast/internal/column"
	"github.com/JonMunkholm/csvcast/internal/field"
	"github.com/JonMunkholm/csvcast/internal/locate"
)

// FieldError locates a strict-mode conversion failure. Row and Column are
// 1-based and count data rows only, so the header row is not row 1.
type FieldError struct {
	Row    int
	Column int
	Name   string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d column %d (%s): %v", e.Row, e.Column, e.Name, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// missing stands in for fields absent from a short row.
var missing = field.Range{Start: 0, End: -1}

// job is one conversion pass: every located row converted into asm.
type job struct {
	buf   []byte
	rows  []locate.Row
	specs []column.Spec
	opts  field.ParseOptions
	asm   *column.Assembler
	rec   Recorder
}

// convertRows converts rows [lo, hi) and stops at the first failure.
func (j *job) convertRows(ctx context.Context, lo, hi int) error {
	quote := j.opts.Quote
	if j.opts.KeepQuotes {
		quote = 0
	}

	for row := lo; row < hi; row++ {
		if row&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		ranges := j.rows[row]
		for col, spec := range j.specs {
			r := missing
			if col < len(ranges) {
				r = field.TrimQuote(j.buf, ranges[col], quote)
			}

			v, err := field.Convert(j.buf, r, j.opts, spec.Kind)
			if err != nil {
				j.rec.ParseFailure(spec.Kind, err)
				return &FieldError{Row: row + 1, Column: col + 1, Name: spec.Name, Err: err}
			}
			if err := j.asm.Set(row, col, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// runSerial converts every row on the calling goroutine.
func (j *job) runSerial(ctx context.Context) error {
	return j.convertRows(ctx, 0, len(j.rows))
}

// runParallel converts chunks of chunkRows rows on up to workers goroutines.
//
// A failing chunk does not cancel the others. The error reported is the one
// from the lowest failing row, the same one runSerial reports.
func (j *job) runParallel(ctx context.Context, workers, chunkRows int) error {
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}
	chunks := (len(j.rows) + chunkRows - 1) / chunkRows
	errs := make([]error, chunks)

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for c := 0; c < chunks; c++ {
		lo := c * chunkRows
		hi := min(lo+chunkRows, len(j.rows))
		g.Go(func() error {
			err := j.convertRows(gctx, lo, hi)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs[c] = err
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
