// Package store copies converted Arrow records into PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvcast/internal/column"
	"github.com/JonMunkholm/csvcast/internal/field"
)

var (
	// ErrNoDatabase is returned when the sink has no connection.
	ErrNoDatabase = errors.New("database is not configured")

	// ErrInvalidTable is returned for an empty or malformed table name.
	ErrInvalidTable = errors.New("invalid table name")
)

// Copier is the subset of *pgxpool.Pool the sink uses.
type Copier interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Sink writes records with the COPY protocol.
type Sink struct {
	db   Copier
	pool *pgxpool.Pool
}

// New wraps an existing connection.
func New(db Copier) *Sink {
	s := &Sink{db: db}
	if pool, ok := db.(*pgxpool.Pool); ok {
		s.pool = pool
	}
	return s
}

// Open connects a pool to url and verifies it with a ping.
func Open(ctx context.Context, url string, cfg PoolConfig) (*Sink, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return New(pool), nil
}

// Enabled reports whether the sink can copy.
func (s *Sink) Enabled() bool {
	return s != nil && s.db != nil
}

// Ping checks the pool. Sinks built from a plain Copier always succeed.
func (s *Sink) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return ErrNoDatabase
	}
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Close releases the pool, if any.
func (s *Sink) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Copy streams rec into table, one COPY row per record row. Column names
// come from the record schema. It returns the number of rows copied.
func (s *Sink) Copy(ctx context.Context, table string, rec arrow.Record) (int64, error) {
	if !s.Enabled() {
		return 0, ErrNoDatabase
	}

	ident, err := ParseIdentifier(table)
	if err != nil {
		return 0, err
	}

	fields := rec.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	n, err := s.db.CopyFrom(ctx, ident, names, NewRecordSource(rec))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", ident.Sanitize(), err)
	}
	return n, nil
}

// ParseIdentifier splits "schema.table" into a pgx.Identifier.
func ParseIdentifier(table string) (pgx.Identifier, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTable)
	}

	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
		}
	}
	return pgx.Identifier(parts), nil
}

// recordSource adapts an Arrow record to pgx.CopyFromSource.
type recordSource struct {
	rec   arrow.Record
	kinds []field.Kind
	row   int
	vals  []any
}

// NewRecordSource returns a pgx.CopyFromSource over the rows of rec.
func NewRecordSource(rec arrow.Record) pgx.CopyFromSource {
	fields := rec.Schema().Fields()
	kinds := make([]field.Kind, len(fields))
	for i, f := range fields {
		kinds[i] = column.KindOf(f)
	}

	return &recordSource{
		rec:   rec,
		kinds: kinds,
		row:   -1,
		vals:  make([]any, len(fields)),
	}
}

func (s *recordSource) Next() bool {
	s.row++
	return s.row < int(s.rec.NumRows())
}

func (s *recordSource) Values() ([]any, error) {
	for i := range s.vals {
		s.vals[i] = pgValue(s.kinds[i], column.ValueAt(s.rec.Column(i), s.row))
	}
	return s.vals, nil
}

func (s *recordSource) Err() error {
	return nil
}

// pgValue converts a column value to a type pgx encodes for the matching
// Postgres column: dates as pgtype.Date and categorical codes as bigint,
// since Postgres has no unsigned integer types.
func pgValue(kind field.Kind, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		if kind == field.KindDate {
			return pgtype.Date{Time: x, Valid: true}
		}
		return x
	case uint32:
		return int64(x)
	case uint64:
		return pgtype.Numeric{Int: new(big.Int).SetUint64(x), Valid: true}
	case uint16:
		return int32(x)
	case uint8:
		return int16(x)
	case int8:
		return int16(x)
	default:
		return v
	}
}
