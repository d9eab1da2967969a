// Package core converts delimited text into typed columnar records.
//
// It sits between the transport layer and the field primitives: a [Service]
// reads the input, locates row and field boundaries, converts every field to
// the kind its [Schema] column declares, and assembles an Apache Arrow
// record. It can be driven by the HTTP handlers, the CLI, or tests alike.
//
// # Conversion
//
// A [Request] carries the schema, the parse options and two switches:
//
//   - Header consumes the first row as column names for unnamed columns.
//   - Parallel converts row chunks on an errgroup bounded by Config.Workers.
//
// Both drivers place every value by its own row and column, so the serial and
// parallel drivers build identical records, and under the strict policy they
// report the same first failing field.
//
// # Concurrency
//
// At most Config.MaxConcurrentJobs conversions run at once. Further requests
// wait up to Config.MaxWait for a slot, then fail with [ErrTooManyJobs].
// [Service.Shutdown] waits for running conversions to finish.
//
// # Errors
//
// [MapError] turns any error from this package or the field primitives into a
// [UserMessage] with a stable code (PARSE001, JOB001, ...) for API clients.
package core
