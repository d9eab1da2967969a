// Package templates renders the server's HTML pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvcast/internal/core"
	"github.com/JonMunkholm/csvcast/internal/field"
)

// KindRow describes one column kind on the status page.
type KindRow struct {
	Name      string
	ArrowType string
}

// StatusData is everything the status page shows.
type StatusData struct {
	Kinds    []KindRow
	Limiter  core.LimiterStatus
	Database string
	Options  field.ParseOptions
}

// StatusPage lists the supported column kinds, the job limiter state and
// the default parse options.
func StatusPage(d StatusData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}

		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>csvcast</title></head><body>`)
		p.raw(`<h1>csvcast</h1>`)

		p.raw(`<section id="jobs"><h2>Jobs</h2><dl>`)
		p.item("Active", strconv.Itoa(d.Limiter.Active))
		p.item("Waiting", strconv.Itoa(d.Limiter.Waiting))
		p.item("Available", strconv.Itoa(d.Limiter.Available))
		p.item("Max concurrent", strconv.Itoa(d.Limiter.MaxConcurrent))
		p.item("Database", d.Database)
		p.raw(`</dl></section>`)

		p.raw(`<section id="kinds"><h2>Column kinds</h2><table><thead><tr><th>Kind</th><th>Arrow type</th></tr></thead><tbody>`)
		for _, k := range d.Kinds {
			p.raw(`<tr><td>`)
			p.text(k.Name)
			p.raw(`</td><td>`)
			p.text(k.ArrowType)
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table></section>`)

		o := d.Options
		p.raw(`<section id="options"><h2>Default options</h2><dl>`)
		p.item("Delimiter", strconv.QuoteRune(rune(o.Delimiter)))
		p.item("Quote", strconv.QuoteRune(rune(o.Quote)))
		p.item("Decimal", strconv.QuoteRune(rune(o.Decimal)))
		p.item("Thousands", strconv.QuoteRune(rune(o.Thousands)))
		p.item("Day first", strconv.FormatBool(o.DayFirst))
		p.item("Policy", o.Policy.String())
		p.raw(`</dl></section>`)

		p.raw(`</body></html>`)
		return p.err
	})
}

// ErrorPage renders a user-facing error.
func ErrorPage(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<div class="error" role="alert"><p>`)
		p.text(message)
		p.raw(`</p>`)
		if action != "" {
			p.raw(`<p>`)
			p.text(action)
			p.raw(`</p>`)
		}
		p.raw(`<small>`)
		p.text(code)
		p.raw(`</small></div>`)
		return p.err
	})
}

// printer writes until the first error and keeps it.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *printer) item(term, value string) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, "<dt>%s</dt><dd>%s</dd>", templ.EscapeString(term), templ.EscapeString(value))
	}
}
