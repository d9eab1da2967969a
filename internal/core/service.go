package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"

	"github.com/JonMunkholm/csvcast/internal/column"
	"github.com/JonMunkholm/csvcast/internal/field"
	"github.com/JonMunkholm/csvcast/internal/locate"
	"github.com/JonMunkholm/csvcast/internal/logging"
)

const (
	// DefaultChunkRows is the number of rows a parallel worker converts at once.
	DefaultChunkRows = 4096

	// DefaultJobTimeout bounds a single conversion.
	DefaultJobTimeout = 2 * time.Minute
)

// ErrNoRows is returned when the input holds no data rows.
var ErrNoRows = errors.New("input has no data rows")

// Config controls conversion concurrency and input limits.
type Config struct {
	Workers           int
	ChunkRows         int
	MaxConcurrentJobs int
	MaxWait           time.Duration
	JobTimeout        time.Duration
	MaxInputBytes     int64
}

// Recorder receives conversion outcomes. The metrics package implements it.
type Recorder interface {
	JobStarted(driver string)
	JobFinished(driver string, rows, fields int, bytes int64, elapsed time.Duration, err error)
	ParseFailure(kind field.Kind, err error)
}

type nopRecorder struct{}

func (nopRecorder) JobStarted(string) {}

func (nopRecorder) JobFinished(string, int, int, int64, time.Duration, error) {}

func (nopRecorder) ParseFailure(field.Kind, error) {}

// Request describes one conversion.
type Request struct {
	Schema  Schema
	Options field.ParseOptions

	// Header marks the first located row as column names.
	Header bool

	// Parallel selects the errgroup driver.
	Parallel bool
}

// Result is a finished conversion. The caller owns Record and must
// Release it.
type Result struct {
	JobID   string
	Columns []column.Spec
	Rows    int
	Bytes   int64
	Driver  string
	Elapsed time.Duration
	Record  arrow.Record
}

// Service converts delimited text into typed Arrow records.
type Service struct {
	cfg     Config
	limiter *JobLimiter
	rec     Recorder
	mem     memory.Allocator
}

// NewService creates a Service. rec may be nil.
func NewService(cfg Config, rec Recorder) *Service {
	if cfg.ChunkRows <= 0 {
		cfg.ChunkRows = DefaultChunkRows
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}
	if rec == nil {
		rec = nopRecorder{}
	}

	return &Service{
		cfg:     cfg,
		limiter: NewJobLimiter(cfg.MaxConcurrentJobs, cfg.MaxWait),
		rec:     rec,
		mem:     memory.DefaultAllocator,
	}
}

// LimiterStatus reports job slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for running conversions to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ConvertReader reads r, bounded by the configured input limit, and
// converts it.
func (s *Service) ConvertReader(ctx context.Context, r io.Reader, req Request) (*Result, error) {
	counter := NewCountingReader(r)
	buf, err := ReadInput(counter, s.cfg.MaxInputBytes)
	if err != nil {
		return nil, err
	}

	res, err := s.Convert(ctx, buf, req)
	if err != nil {
		return nil, err
	}
	res.Bytes = counter.Count()
	return res, nil
}

// Convert converts buf according to req.
func (s *Service) Convert(ctx context.Context, buf []byte, req Request) (*Result, error) {
	if len(req.Schema.Columns) == 0 {
		return nil, ErrEmptySchema
	}
	if err := req.Options.Validate(); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	driver := "serial"
	if req.Parallel {
		driver = "parallel"
	}

	jobID := uuid.New().String()
	ctx = logging.WithJobID(ctx, jobID)
	logger := logging.WithFields(ctx, "driver", driver, "policy", req.Options.Policy.String())
	logger.Debug("conversion started", "bytes", len(buf), "columns", len(req.Schema.Columns))

	s.rec.JobStarted(driver)
	start := time.Now()

	res, err := s.run(ctx, buf, req)
	elapsed := time.Since(start)

	rows := 0
	if res != nil {
		rows = res.Rows
	}
	s.rec.JobFinished(driver, rows, rows*len(req.Schema.Columns), int64(len(buf)), elapsed, err)

	if err != nil {
		logger.Warn("conversion failed", "error", err, "elapsed", elapsed)
		return nil, err
	}

	res.JobID = jobID
	res.Bytes = int64(len(buf))
	res.Driver = driver
	res.Elapsed = elapsed
	logger.Info("conversion finished", "rows", res.Rows, "columns", len(res.Columns), "elapsed", elapsed)
	return res, nil
}

func (s *Service) run(ctx context.Context, buf []byte, req Request) (*Result, error) {
	rows, err := locate.Locate(buf, req.Options)
	if err != nil {
		return nil, fmt.Errorf("locate fields: %w", err)
	}

	var header locate.Row
	if req.Header && len(rows) > 0 {
		header, rows = rows[0], rows[1:]
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	specs := req.Schema.resolve(buf, header, req.Options)
	asm, err := column.NewAssembler(specs, len(rows))
	if err != nil {
		return nil, err
	}

	j := &job{buf: buf, rows: rows, specs: specs, opts: req.Options, asm: asm, rec: s.rec}
	if req.Parallel {
		err = j.runParallel(ctx, s.cfg.Workers, s.cfg.ChunkRows)
	} else {
		err = j.runSerial(ctx)
	}
	if err != nil {
		return nil, err
	}

	record, err := asm.Build(s.mem)
	if err != nil {
		return nil, fmt.Errorf("build record: %w", err)
	}

	return &Result{Columns: specs, Rows: len(rows), Record: record}, nil
}
