// Package config loads application settings from environment variables
// with defaults, and validates them on startup so misconfiguration fails fast.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Convert  ConvertConfig
	CSV      CSVConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including running jobs (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// DatabaseConfig holds the optional Postgres sink connection.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty disables loading.
	// Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database URL is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ConvertConfig holds conversion job settings.
type ConvertConfig struct {
	// Workers caps parallel driver goroutines per job. Zero means GOMAXPROCS.
	Workers int `env:"CONVERT_WORKERS" default:"0"`

	// ChunkRows is the number of rows a parallel worker takes at once (default: 4096)
	ChunkRows int `env:"CONVERT_CHUNK_ROWS" default:"4096"`

	// MaxConcurrent is the maximum number of running jobs (default: 4)
	MaxConcurrent int `env:"CONVERT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a job waits for a slot (default: 10s)
	MaxWaitTime time.Duration `env:"CONVERT_MAX_WAIT_TIME" default:"10s"`

	// Timeout bounds a single job (default: 2m)
	Timeout time.Duration `env:"CONVERT_TIMEOUT" default:"2m"`

	// MaxBodySize is the largest accepted input in bytes (default: 100MB)
	MaxBodySize int64 `env:"CONVERT_MAX_BODY_SIZE" default:"104857600"`

	// ParallelThreshold is the body size from which jobs use the parallel
	// driver unless the request chooses (default: 1MB)
	ParallelThreshold int64 `env:"CONVERT_PARALLEL_THRESHOLD" default:"1048576"`

	// SchemaDir holds named YAML column schemas. Empty disables ?schema=.
	SchemaDir string `env:"CONVERT_SCHEMA_DIR"`
}

// CSVConfig holds the default parse options. Byte settings take a single
// character or one of the names tab, space, comma, semicolon, pipe, none.
type CSVConfig struct {
	Delimiter  string `env:"CSV_DELIMITER" default:"comma"`
	Terminator string `env:"CSV_TERMINATOR" default:"\n"`
	Quote      string `env:"CSV_QUOTE" default:"\""`
	Decimal    string `env:"CSV_DECIMAL" default:"."`
	Thousands  string `env:"CSV_THOUSANDS" default:"none"`
	Comment    string `env:"CSV_COMMENT" default:"none"`

	KeepQuotes     bool `env:"CSV_KEEP_QUOTES" default:"false"`
	DoubleQuote    bool `env:"CSV_DOUBLE_QUOTE" default:"true"`
	DayFirst       bool `env:"CSV_DAY_FIRST" default:"false"`
	SkipBlankLines bool `env:"CSV_SKIP_BLANK_LINES" default:"true"`
	MultiDelimiter bool `env:"CSV_MULTI_DELIMITER" default:"false"`

	// TrueValues and FalseValues are comma-separated boolean literals.
	// Integers are used as codes, other words by their category hash.
	TrueValues  []string `env:"CSV_TRUE_VALUES" default:"1"`
	FalseValues []string `env:"CSV_FALSE_VALUES" default:"0"`

	// Policy is best-effort or strict (default: best-effort)
	Policy string `env:"CSV_POLICY" default:"best-effort"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ConvertLimit is requests per minute for conversion endpoints (default: 20)
	ConvertLimit int `env:"RATE_LIMIT_CONVERT" default:"20"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
