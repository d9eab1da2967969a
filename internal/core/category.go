package core

import (
	"bytes"

	"github.com/JonMunkholm/csvcast/internal/field"
)

// CategoryCode pairs a trimmed value with its categorical code.
type CategoryCode struct {
	Value string `json:"value"`
	Code  uint32 `json:"code"`
}

// CategoryCodes hashes every line of buf the way a category column would
// hash a field holding the same text. Blank lines are skipped.
func CategoryCodes(buf []byte, opts field.ParseOptions) []CategoryCode {
	term := opts.Terminator
	if term == 0 {
		term = field.DefaultTerminator
	}

	codes := make([]CategoryCode, 0, bytes.Count(buf, []byte{term})+1)
	for start := 0; start < len(buf); {
		end := bytes.IndexByte(buf[start:], term)
		if end < 0 {
			end = len(buf)
		} else {
			end += start
		}

		r := field.Range{Start: start, End: end - 1}
		if term == '\n' && r.End >= r.Start && buf[r.End] == '\r' {
			r.End--
		}
		start = end + 1

		if r.Empty() {
			continue
		}
		r = field.TrimQuote(buf, r, opts.Quote)
		codes = append(codes, CategoryCode{
			Value: string(r.Bytes(buf)),
			Code:  field.ParseCategory(buf, r),
		})
	}
	return codes
}
