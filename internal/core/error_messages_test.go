package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/csvcast/internal/field"
	"github.com/JonMunkholm/csvcast/internal/locate"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil", nil, ""},
		{"invalid digit", &field.ParseError{Kind: field.InvalidDigit, Offset: 3}, "PARSE001"},
		{"wrapped empty field", fmt.Errorf("convert: %w", field.ErrEmptyField), "PARSE002"},
		{"exponent", &field.ParseError{Kind: field.ExponentOverflow}, "PARSE003"},
		{"date", &FieldError{Row: 1, Column: 1, Name: "d", Err: &field.ParseError{Kind: field.InvalidDate}}, "PARSE004"},
		{"unterminated quote", fmt.Errorf("locate fields: %w", &locate.RecordError{Line: 2, Column: 1, Err: locate.ErrUnterminatedQuote}), "PARSE006"},
		{"empty schema", ErrEmptySchema, "SCH001"},
		{"unknown kind", fmt.Errorf("column 1: %w", field.ErrUnknownKind), "SCH002"},
		{"collision", field.ErrDelimiterCollision, "OPT001"},
		{"too large", fmt.Errorf("%w: more than 10 bytes", ErrInputTooLarge), "FILE001"},
		{"no rows", ErrNoRows, "FILE003"},
		{"busy", ErrTooManyJobs, "JOB001"},
		{"cancelled", context.Canceled, "JOB002"},
		{"deadline", fmt.Errorf("copy: %w", context.DeadlineExceeded), "JOB003"},
		{"missing table", errors.New(`ERROR: relation "sales" does not exist (SQLSTATE 42P01)`), "DB001"},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB002"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestMapError_Detail(t *testing.T) {
	err := &FieldError{Row: 12, Column: 3, Name: "amount", Err: &field.ParseError{Kind: field.InvalidDigit}}
	if got, want := MapError(err).Detail, `row 12, column "amount"`; got != want {
		t.Errorf("Detail = %q, want %q", got, want)
	}

	rerr := &locate.RecordError{Line: 4, Column: 2, Err: locate.ErrBareQuote}
	if got, want := MapError(rerr).Detail, "record 4, field 2"; got != want {
		t.Errorf("Detail = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(ErrTooManyJobs) {
		t.Error("IsUserFacing(ErrTooManyJobs) = false")
	}
	if IsUserFacing(errors.New("kaboom")) {
		t.Error("IsUserFacing(kaboom) = true")
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrEmptyInput)
	want := "The input is empty (Code: FILE002). Send the file contents as the request body"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) != \"\"")
	}
}
