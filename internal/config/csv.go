package config

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvcast/internal/field"
)

var byteNames = map[string]byte{
	"none":      0,
	"tab":       '\t',
	"space":     ' ',
	"comma":     ',',
	"semicolon": ';',
	"pipe":      '|',
	"lf":        '\n',
	"newline":   '\n',
	"cr":        '\r',
}

// ParseByte reads a single-byte setting. Empty means unset.
func ParseByte(s string) (byte, error) {
	if s == "" {
		return 0, nil
	}
	if b, ok := byteNames[strings.ToLower(s)]; ok {
		return b, nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("%q is not a single byte", s)
	}
	return s[0], nil
}

// ParseCodes converts boolean literals to integer codes.
func ParseCodes(literals []string) []int32 {
	codes := make([]int32, 0, len(literals))
	for _, lit := range literals {
		codes = append(codes, field.LiteralCode(lit))
	}
	return codes
}

// ParseOptions builds the default field.ParseOptions for conversions.
func (c CSVConfig) ParseOptions() (field.ParseOptions, error) {
	settings := []struct {
		name  string
		value string
		set   func(byte) field.Option
	}{
		{"CSV_DELIMITER", c.Delimiter, field.WithDelimiter},
		{"CSV_TERMINATOR", c.Terminator, field.WithTerminator},
		{"CSV_QUOTE", c.Quote, field.WithQuote},
		{"CSV_DECIMAL", c.Decimal, field.WithDecimal},
		{"CSV_THOUSANDS", c.Thousands, field.WithThousands},
		{"CSV_COMMENT", c.Comment, field.WithComment},
	}

	opts := make([]field.Option, 0, len(settings)+8)
	for _, b := range settings {
		v, err := ParseByte(b.value)
		if err != nil {
			return field.ParseOptions{}, fmt.Errorf("%s: %w", b.name, err)
		}
		opts = append(opts, b.set(v))
	}

	policy, err := field.ParsePolicy(strings.ToLower(c.Policy))
	if err != nil {
		return field.ParseOptions{}, fmt.Errorf("CSV_POLICY: %w", err)
	}

	opts = append(opts,
		field.WithKeepQuotes(c.KeepQuotes),
		field.WithDoubleQuote(c.DoubleQuote),
		field.WithDayFirst(c.DayFirst),
		field.WithSkipBlankLines(c.SkipBlankLines),
		field.WithMultiDelimiter(c.MultiDelimiter),
		field.WithTrueValues(ParseCodes(c.TrueValues)...),
		field.WithFalseValues(ParseCodes(c.FalseValues)...),
		field.WithPolicy(policy),
	)

	return field.NewParseOptions(opts...)
}
