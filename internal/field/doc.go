// Package field converts a single delimiter-separated field, identified by a
// byte range into a shared read-only buffer, into a typed scalar.
//
// Every function in this package is a pure function of its arguments. None of
// them allocate, block, or touch shared mutable state, so the same call can be
// made from a single serial loop or from any number of goroutines mapping over
// the fields of one buffer at once.
//
// # Ranges
//
// A [Range] holds inclusive byte offsets. An empty field is represented by
// Start > End (normally Start == End+1):
//
//	buf := []byte("  42  ")
//	r := field.Trim(buf, field.Range{Start: 0, End: len(buf) - 1}) // {2, 3}
//	v := field.ParseInteger[int64](buf, r, field.DefaultParseOptions())
//
// # Output types
//
// The output representation is selected by which function the caller uses:
// [ParseInteger], [ParseFloat], [ParseDate], [ParseDateTime],
// [ParseTimestamp] or [ParseCategory]. Callers that only know the type at
// runtime use [Convert] with a [Kind].
//
// # Malformed input
//
// With [BestEffort] (the default policy) malformed numeric text never fails and
// produces the same deterministic value older ingestion jobs produced. With
// [Strict], [Convert] validates the field first and returns a *[ParseError].
package field
