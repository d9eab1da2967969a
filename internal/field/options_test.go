package field

import (
	"errors"
	"testing"
)

func TestNewParseOptions_Defaults(t *testing.T) {
	opts, err := NewParseOptions()
	if err != nil {
		t.Fatalf("NewParseOptions() error = %v", err)
	}

	if opts.Delimiter != ',' {
		t.Errorf("Delimiter = %q, want %q", opts.Delimiter, ',')
	}
	if opts.Terminator != '\n' {
		t.Errorf("Terminator = %q, want %q", opts.Terminator, '\n')
	}
	if opts.Quote != '"' {
		t.Errorf("Quote = %q, want %q", opts.Quote, '"')
	}
	if opts.Decimal != '.' {
		t.Errorf("Decimal = %q, want %q", opts.Decimal, '.')
	}
	if opts.Thousands != 0 {
		t.Errorf("Thousands = %q, want unset", opts.Thousands)
	}
	if !opts.DoubleQuote || !opts.SkipBlankLines {
		t.Errorf("DoubleQuote, SkipBlankLines = %v, %v; want true, true", opts.DoubleQuote, opts.SkipBlankLines)
	}
	if opts.Policy != BestEffort {
		t.Errorf("Policy = %v, want %v", opts.Policy, BestEffort)
	}
}

func TestNewParseOptions_Apply(t *testing.T) {
	opts, err := NewParseOptions(
		WithDelimiter(';'),
		WithTerminator('\r'),
		WithQuote('\''),
		WithDecimal(','),
		WithThousands('.'),
		WithComment('#'),
		WithKeepQuotes(true),
		WithDoubleQuote(false),
		WithDayFirst(true),
		WithSkipBlankLines(false),
		WithMultiDelimiter(true),
		WithTrueValues(1, 84),
		WithFalseValues(0, 70),
		WithPolicy(Strict),
	)
	if err != nil {
		t.Fatalf("NewParseOptions() error = %v", err)
	}

	if opts.Delimiter != ';' || opts.Terminator != '\r' || opts.Quote != '\'' ||
		opts.Decimal != ',' || opts.Thousands != '.' || opts.Comment != '#' {
		t.Errorf("structural bytes not applied: %+v", opts)
	}
	if !opts.KeepQuotes || opts.DoubleQuote || !opts.DayFirst || opts.SkipBlankLines || !opts.MultiDelimiter {
		t.Errorf("flags not applied: %+v", opts)
	}
	if len(opts.TrueValues) != 2 || opts.TrueValues[1] != 84 {
		t.Errorf("TrueValues = %v, want [1 84]", opts.TrueValues)
	}
	if len(opts.FalseValues) != 2 || opts.FalseValues[1] != 70 {
		t.Errorf("FalseValues = %v, want [0 70]", opts.FalseValues)
	}
	if opts.Policy != Strict {
		t.Errorf("Policy = %v, want %v", opts.Policy, Strict)
	}
}

func TestNewParseOptions_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"delimiter equals decimal", []Option{WithDelimiter('.')}, ErrDelimiterCollision},
		{"thousands equals delimiter", []Option{WithThousands(',')}, ErrDelimiterCollision},
		{"quote equals terminator", []Option{WithQuote('\n')}, ErrDelimiterCollision},
		{"decimal equals thousands", []Option{WithDecimal(','), WithDelimiter(';'), WithThousands(',')}, ErrDelimiterCollision},
		{"no delimiter", []Option{WithDelimiter(0)}, ErrMissingDelimiter},
		{"no decimal", []Option{WithDecimal(0)}, ErrMissingDecimal},
		{"bad policy", []Option{WithPolicy(Policy(9))}, ErrInvalidPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParseOptions(tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewParseOptions() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewParseOptions_UnsetBytesDoNotCollide(t *testing.T) {
	if _, err := NewParseOptions(WithQuote(0), WithTerminator(0)); err != nil {
		t.Errorf("NewParseOptions() error = %v, want nil", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", BestEffort, false},
		{"best-effort", BestEffort, false},
		{"strict", Strict, false},
		{"paranoid", BestEffort, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, %v; want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
		if err == nil && got.String() != "best-effort" && got.String() != "strict" {
			t.Errorf("Policy.String() = %q", got.String())
		}
	}
}

func TestWithTrueValues_Copies(t *testing.T) {
	codes := []int32{1, 2}
	opts, err := NewParseOptions(WithTrueValues(codes...))
	if err != nil {
		t.Fatalf("NewParseOptions() error = %v", err)
	}
	codes[0] = 99
	if opts.TrueValues[0] != 1 {
		t.Errorf("TrueValues aliased caller slice: %v", opts.TrueValues)
	}
}
