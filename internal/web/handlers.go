package web

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/csvcast/internal/column"
	"github.com/JonMunkholm/csvcast/internal/config"
	"github.com/JonMunkholm/csvcast/internal/core"
	"github.com/JonMunkholm/csvcast/internal/field"
	"github.com/JonMunkholm/csvcast/internal/logging"
	"github.com/JonMunkholm/csvcast/internal/store"
	"github.com/JonMunkholm/csvcast/internal/web/templates"
)

// convertParams are the query parameters of /api/convert and /api/load.
// Byte options take the same names as the CSV_* settings.
type convertParams struct {
	Columns        string `query:"columns" validate:"required_without=Schema,max=8192"`
	Schema         string `query:"schema" validate:"omitempty,max=64,excludesall=/\\."`
	Header         string `query:"header" validate:"omitempty,boolean"`
	Delimiter      string `query:"delimiter" validate:"omitempty,max=9"`
	Terminator     string `query:"terminator" validate:"omitempty,max=9"`
	Quote          string `query:"quote" validate:"omitempty,max=9"`
	Decimal        string `query:"decimal" validate:"omitempty,max=9"`
	Thousands      string `query:"thousands" validate:"omitempty,max=9"`
	Comment        string `query:"comment" validate:"omitempty,max=9"`
	DayFirst       string `query:"dayfirst" validate:"omitempty,boolean"`
	KeepQuotes     string `query:"keepquotes" validate:"omitempty,boolean"`
	MultiDelimiter string `query:"multidelimiter" validate:"omitempty,boolean"`
	Policy         string `query:"policy" validate:"omitempty,oneof=best-effort besteffort lenient strict"`
	Parallel       string `query:"parallel" validate:"omitempty,oneof=true false auto"`
	Limit          string `query:"limit" validate:"omitempty,number"`
}

// bindQuery copies query values into the string fields of dst by their
// query tag.
func bindQuery(r *http.Request, dst any) {
	q := r.URL.Query()
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if name := t.Field(i).Tag.Get("query"); name != "" {
			v.Field(i).SetString(strings.TrimSpace(q.Get(name)))
		}
	}
}

// validationError wraps validator failures as one client-facing message.
type validationError struct {
	fields []string
}

func (e *validationError) Error() string {
	return strings.Join(e.fields, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

func (s *Server) validateParams(p any) error {
	err := s.validate.Struct(p)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	ve := &validationError{}
	for _, fe := range verrs {
		ve.fields = append(ve.fields, formatFieldError(fe))
	}
	return ve
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", fe.Field())
	case "boolean":
		return fmt.Sprintf("%s must be true or false", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "number":
		return fmt.Sprintf("%s must be a number", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// options applies the request overrides on top of the server defaults.
func (p convertParams) options(defaults field.ParseOptions) (field.ParseOptions, error) {
	var set []field.Option

	byteOpts := []struct {
		value string
		with  func(byte) field.Option
	}{
		{p.Delimiter, field.WithDelimiter},
		{p.Terminator, field.WithTerminator},
		{p.Quote, field.WithQuote},
		{p.Decimal, field.WithDecimal},
		{p.Thousands, field.WithThousands},
		{p.Comment, field.WithComment},
	}
	for _, b := range byteOpts {
		if b.value == "" {
			continue
		}
		v, err := config.ParseByte(b.value)
		if err != nil {
			return field.ParseOptions{}, &validationError{fields: []string{err.Error()}}
		}
		set = append(set, b.with(v))
	}

	flags := []struct {
		value string
		with  func(bool) field.Option
	}{
		{p.DayFirst, field.WithDayFirst},
		{p.KeepQuotes, field.WithKeepQuotes},
		{p.MultiDelimiter, field.WithMultiDelimiter},
	}
	for _, f := range flags {
		if f.value == "" {
			continue
		}
		v, _ := strconv.ParseBool(f.value)
		set = append(set, f.with(v))
	}

	if p.Policy != "" {
		policy, err := field.ParsePolicy(p.Policy)
		if err != nil {
			return field.ParseOptions{}, err
		}
		set = append(set, field.WithPolicy(policy))
	}

	opts := defaults
	for _, o := range set {
		if err := o(&opts); err != nil {
			return field.ParseOptions{}, err
		}
	}
	if err := opts.Validate(); err != nil {
		return field.ParseOptions{}, err
	}
	return opts, nil
}

// request turns validated params into a core.Request.
func (s *Server) request(r *http.Request, p convertParams) (core.Request, error) {
	opts, err := p.options(s.defaults)
	if err != nil {
		return core.Request{}, err
	}

	var schema core.Schema
	if p.Schema != "" {
		if s.cfg.Convert.SchemaDir == "" {
			return core.Request{}, &validationError{fields: []string{"schema files are not enabled on this server"}}
		}
		schema, err = core.LoadSchemaFile(filepath.Join(s.cfg.Convert.SchemaDir, p.Schema+".yaml"))
	} else {
		schema, err = core.ParseColumns(p.Columns)
	}
	if err != nil {
		return core.Request{}, err
	}

	header, _ := strconv.ParseBool(p.Header)

	var parallel bool
	switch p.Parallel {
	case "true":
		parallel = true
	case "false":
	default:
		parallel = r.ContentLength >= s.cfg.Convert.ParallelThreshold
	}

	return core.Request{Schema: schema, Options: opts, Header: header, Parallel: parallel}, nil
}

// convertRequest binds, validates and runs a conversion from the request
// body.
func (s *Server) convertRequest(r *http.Request) (*core.Result, convertParams, error) {
	var p convertParams
	bindQuery(r, &p)
	if err := s.validateParams(&p); err != nil {
		return nil, p, err
	}

	req, err := s.request(r, p)
	if err != nil {
		return nil, p, err
	}

	res, err := s.service.ConvertReader(r.Context(), r.Body, req)
	return res, p, err
}

// ----------------------------------------------------------------------------
// Convert
// ----------------------------------------------------------------------------

type columnResponse struct {
	Name   string     `json:"name"`
	Kind   field.Kind `json:"kind"`
	Nulls  int        `json:"nulls"`
	Values []any      `json:"values"`
}

type convertResponse struct {
	JobID     string           `json:"job_id"`
	Rows      int              `json:"rows"`
	Bytes     int64            `json:"bytes"`
	Driver    string           `json:"driver"`
	ElapsedMS int64            `json:"elapsed_ms"`
	Columns   []columnResponse `json:"columns"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	res, p, err := s.convertRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer res.Record.Release()

	limit := res.Rows
	if p.Limit != "" {
		if n, err := strconv.Atoi(p.Limit); err == nil && n >= 0 && n < limit {
			limit = n
		}
	}

	resp := convertResponse{
		JobID:     res.JobID,
		Rows:      res.Rows,
		Bytes:     res.Bytes,
		Driver:    res.Driver,
		ElapsedMS: res.Elapsed.Milliseconds(),
		Columns:   make([]columnResponse, len(res.Columns)),
	}
	for i, spec := range res.Columns {
		resp.Columns[i] = columnValues(spec, res.Record.Column(i), limit)
	}

	render.JSON(w, r, resp)
}

// columnValues renders the first limit values of arr as JSON-safe values.
func columnValues(spec column.Spec, arr arrow.Array, limit int) columnResponse {
	c := columnResponse{
		Name:   spec.Name,
		Kind:   spec.Kind,
		Nulls:  arr.NullN(),
		Values: make([]any, limit),
	}
	for i := 0; i < limit; i++ {
		c.Values[i] = jsonValue(spec.Kind, column.ValueAt(arr, i))
	}
	return c
}

func jsonValue(kind field.Kind, v any) any {
	switch x := v.(type) {
	case time.Time:
		if kind == field.KindDate {
			return x.Format(time.DateOnly)
		}
		return x.Format("2006-01-02T15:04:05.000Z07:00")
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
	case float32:
		if math.IsInf(float64(x), 0) || math.IsNaN(float64(x)) {
			return strconv.FormatFloat(float64(x), 'g', -1, 32)
		}
	}
	return v
}

// ----------------------------------------------------------------------------
// Load
// ----------------------------------------------------------------------------

type loadResponse struct {
	JobID     string `json:"job_id"`
	Table     string `json:"table"`
	Rows      int    `json:"rows"`
	Copied    int64  `json:"copied"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if !s.sink.Enabled() {
		s.respondError(w, r, fmt.Errorf("load %s: %w", table, store.ErrNoDatabase))
		return
	}
	if _, err := store.ParseIdentifier(table); err != nil {
		s.respondError(w, r, err)
		return
	}

	start := time.Now()
	res, _, err := s.convertRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer res.Record.Release()

	ctx := logging.WithJobID(r.Context(), res.JobID)
	copied, err := s.sink.Copy(ctx, table, res.Record)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(ctx).Info("loaded rows", "table", table, "rows", copied)

	render.JSON(w, r, loadResponse{
		JobID:     res.JobID,
		Table:     table,
		Rows:      res.Rows,
		Copied:    copied,
		ElapsedMS: time.Since(start).Milliseconds(),
	})
}

// ----------------------------------------------------------------------------
// Hash
// ----------------------------------------------------------------------------

type hashResponse struct {
	Seed  uint32              `json:"seed"`
	Codes []core.CategoryCode `json:"codes"`
}

func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	buf, err := core.ReadInput(r.Body, s.cfg.Convert.MaxBodySize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	render.JSON(w, r, hashResponse{
		Seed:  field.CategorySeed,
		Codes: core.CategoryCodes(buf, s.defaults),
	})
}

// ----------------------------------------------------------------------------
// Options
// ----------------------------------------------------------------------------

type optionsResponse struct {
	Delimiter      string       `json:"delimiter"`
	Terminator     string       `json:"terminator"`
	Quote          string       `json:"quote"`
	Decimal        string       `json:"decimal"`
	Thousands      string       `json:"thousands"`
	Comment        string       `json:"comment"`
	KeepQuotes     bool         `json:"keep_quotes"`
	DoubleQuote    bool         `json:"double_quote"`
	DayFirst       bool         `json:"day_first"`
	SkipBlankLines bool         `json:"skip_blank_lines"`
	MultiDelimiter bool         `json:"multi_delimiter"`
	TrueValues     []int32      `json:"true_values"`
	FalseValues    []int32      `json:"false_values"`
	Policy         string       `json:"policy"`
	Kinds          []field.Kind `json:"kinds"`
}

func byteString(b byte) string {
	if b == 0 {
		return ""
	}
	return string(rune(b))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	o := s.defaults
	render.JSON(w, r, optionsResponse{
		Delimiter:      byteString(o.Delimiter),
		Terminator:     byteString(o.Terminator),
		Quote:          byteString(o.Quote),
		Decimal:        byteString(o.Decimal),
		Thousands:      byteString(o.Thousands),
		Comment:        byteString(o.Comment),
		KeepQuotes:     o.KeepQuotes,
		DoubleQuote:    o.DoubleQuote,
		DayFirst:       o.DayFirst,
		SkipBlankLines: o.SkipBlankLines,
		MultiDelimiter: o.MultiDelimiter,
		TrueValues:     o.TrueValues,
		FalseValues:    o.FalseValues,
		Policy:         o.Policy.String(),
		Kinds:          field.Kinds(),
	})
}

// ----------------------------------------------------------------------------
// Status and health
// ----------------------------------------------------------------------------

func (s *Server) databaseState(ctx context.Context) string {
	if !s.sink.Enabled() {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.sink.Ping(ctx); err != nil {
		logging.FromContext(ctx).Warn("database ping failed", "error", err)
		return "unavailable"
	}
	return "ok"
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	kinds := make([]templates.KindRow, 0, len(field.Kinds()))
	for _, k := range field.Kinds() {
		dt, err := column.ArrowType(k)
		if err != nil {
			continue
		}
		kinds = append(kinds, templates.KindRow{Name: k.String(), ArrowType: dt.String()})
	}

	page := templates.StatusPage(templates.StatusData{
		Kinds:    kinds,
		Limiter:  s.service.LimiterStatus(),
		Database: s.databaseState(r.Context()),
		Options:  s.defaults,
	})
	templ.Handler(page).ServeHTTP(w, r)
}

type healthResponse struct {
	Status   string             `json:"status"`
	Database string             `json:"database"`
	Jobs     core.LimiterStatus `json:"jobs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: s.databaseState(r.Context()),
		Jobs:     s.service.LimiterStatus(),
	}
	if resp.Database == "unavailable" {
		resp.Status = "degraded"
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, resp)
}
