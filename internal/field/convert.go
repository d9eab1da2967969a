package field

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/JonMunkholm/csvcast/internal/datetime"
)

// Kind tags the output representation of a conversion.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindDate
	KindDateTime
	KindTimestamp
	KindCategory
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindInt8:      "int8",
	KindInt16:     "int16",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindUint8:     "uint8",
	KindUint16:    "uint16",
	KindUint32:    "uint32",
	KindUint64:    "uint64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindBool:      "bool",
	KindDate:      "date",
	KindDateTime:  "datetime",
	KindTimestamp: "timestamp",
	KindCategory:  "category",
}

// Kinds lists every valid Kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames)-1)
	for k := KindInt8; k <= KindCategory; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalText encodes k as its name.
func (k Kind) MarshalText() ([]byte, error) {
	if k == KindInvalid || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a kind name or alias accepted by ParseKind.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind maps a schema type name to a Kind. Names are case-insensitive
// and accept the common aliases used in column schemas.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int8":
		return KindInt8, nil
	case "int16":
		return KindInt16, nil
	case "int32":
		return KindInt32, nil
	case "int64", "int", "integer", "long":
		return KindInt64, nil
	case "uint8":
		return KindUint8, nil
	case "uint16":
		return KindUint16, nil
	case "uint32":
		return KindUint32, nil
	case "uint64", "uint":
		return KindUint64, nil
	case "float32", "float":
		return KindFloat32, nil
	case "float64", "double", "numeric":
		return KindFloat64, nil
	case "bool", "boolean":
		return KindBool, nil
	case "date", "date32":
		return KindDate, nil
	case "datetime", "date64":
		return KindDateTime, nil
	case "timestamp":
		return KindTimestamp, nil
	case "category", "categorical", "str", "string":
		return KindCategory, nil
	}
	return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Value is one converted scalar tagged with its Kind. It holds no reference
// to the source buffer.
type Value struct {
	Kind Kind
	bits uint64
}

// IntValue wraps a signed integer of kind k.
func IntValue(k Kind, v int64) Value { return Value{Kind: k, bits: uint64(v)} }

// UintValue wraps an unsigned integer of kind k.
func UintValue(k Kind, v uint64) Value { return Value{Kind: k, bits: v} }

// FloatValue wraps a float of kind k.
func FloatValue(k Kind, v float64) Value { return Value{Kind: k, bits: math.Float64bits(v)} }

// BoolValue wraps a boolean.
func BoolValue(v bool) Value {
	if v {
		return Value{Kind: KindBool, bits: 1}
	}
	return Value{Kind: KindBool}
}

// Int returns signed integer, date, datetime and timestamp payloads.
func (v Value) Int() int64 { return int64(v.bits) }

// Uint returns unsigned integer and category payloads.
func (v Value) Uint() uint64 { return v.bits }

// Float returns float payloads.
func (v Value) Float() float64 { return math.Float64frombits(v.bits) }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.bits != 0 }

// Date returns the day ordinal of a KindDate value.
func (v Value) Date() int32 { return int32(v.bits) }

// Category returns the code of a KindCategory value.
func (v Value) Category() uint32 { return uint32(v.bits) }

// Any returns the payload as the Go type its Kind stands for.
func (v Value) Any() any {
	switch v.Kind {
	case KindInt8:
		return int8(v.bits)
	case KindInt16:
		return int16(v.bits)
	case KindInt32:
		return int32(v.bits)
	case KindInt64, KindDateTime, KindTimestamp:
		return int64(v.bits)
	case KindUint8:
		return uint8(v.bits)
	case KindUint16:
		return uint16(v.bits)
	case KindUint32, KindCategory:
		return uint32(v.bits)
	case KindUint64:
		return v.bits
	case KindFloat32:
		return float32(v.Float())
	case KindFloat64:
		return v.Float()
	case KindBool:
		return v.Bool()
	case KindDate:
		return v.Date()
	default:
		return nil
	}
}

// ParseDate converts the field to days since 1970-01-01, resolving an
// ambiguous leading number with opts.DayFirst. Unparseable text yields 0.
func ParseDate(buf []byte, r Range, opts ParseOptions) int32 {
	days, _ := datetime.ParseDate(buf, r.Start, r.End, opts.DayFirst)
	return days
}

// ParseDateTime converts the field to milliseconds since the Unix epoch.
// Unparseable text yields 0.
func ParseDateTime(buf []byte, r Range, opts ParseOptions) int64 {
	ms, _ := datetime.ParseDateTime(buf, r.Start, r.End, opts.DayFirst)
	return ms
}

var (
	trueWord  = []byte("true")
	falseWord = []byte("false")
)

// ParseBool classifies the field as a boolean literal. The words true and
// false are always recognized. Otherwise the field's integer value and its
// categorical code are matched against opts.TrueValues and opts.FalseValues.
// ok is false when nothing matched.
func ParseBool(buf []byte, r Range, opts ParseOptions) (value, ok bool) {
	if text := r.Bytes(buf); len(text) == 4 || len(text) == 5 {
		switch {
		case bytes.EqualFold(text, trueWord):
			return true, true
		case bytes.EqualFold(text, falseWord):
			return false, true
		}
	}

	n := ParseInteger[int32](buf, r, opts)
	code := int32(ParseCategory(buf, r))
	switch {
	case MatchesCode(n, opts.TrueValues), MatchesCode(code, opts.TrueValues):
		return true, true
	case MatchesCode(n, opts.FalseValues), MatchesCode(code, opts.FalseValues):
		return false, true
	}
	return false, false
}

// Convert converts the field in r to kind. It is the runtime counterpart of
// the typed Parse functions for callers that select the output type from a
// schema. Under BestEffort the error is always nil, except for an unknown kind.
func Convert(buf []byte, r Range, opts ParseOptions, kind Kind) (Value, error) {
	if opts.Policy == Strict {
		return convertStrict(buf, r, opts, kind)
	}

	switch kind {
	case KindInt8:
		return IntValue(kind, int64(ParseInteger[int8](buf, r, opts))), nil
	case KindInt16:
		return IntValue(kind, int64(ParseInteger[int16](buf, r, opts))), nil
	case KindInt32:
		return IntValue(kind, int64(ParseInteger[int32](buf, r, opts))), nil
	case KindInt64:
		return IntValue(kind, ParseInteger[int64](buf, r, opts)), nil
	case KindUint8:
		return UintValue(kind, uint64(ParseInteger[uint8](buf, r, opts))), nil
	case KindUint16:
		return UintValue(kind, uint64(ParseInteger[uint16](buf, r, opts))), nil
	case KindUint32:
		return UintValue(kind, uint64(ParseInteger[uint32](buf, r, opts))), nil
	case KindUint64:
		return UintValue(kind, ParseInteger[uint64](buf, r, opts)), nil
	case KindFloat32:
		return FloatValue(kind, float64(ParseFloat[float32](buf, r, opts))), nil
	case KindFloat64:
		return FloatValue(kind, ParseFloat[float64](buf, r, opts)), nil
	case KindBool:
		b, _ := ParseBool(buf, r, opts)
		return BoolValue(b), nil
	case KindDate:
		return IntValue(kind, int64(ParseDate(buf, r, opts))), nil
	case KindDateTime:
		return IntValue(kind, ParseDateTime(buf, r, opts)), nil
	case KindTimestamp:
		return IntValue(kind, ParseTimestamp(buf, r, opts)), nil
	case KindCategory:
		return UintValue(kind, uint64(ParseCategory(buf, r))), nil
	}
	return Value{}, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}

func convertStrict(buf []byte, r Range, opts ParseOptions, kind Kind) (Value, error) {
	switch kind {
	case KindInt8:
		v, err := ParseIntegerStrict[int8](buf, r, opts)
		return IntValue(kind, int64(v)), err
	case KindInt16:
		v, err := ParseIntegerStrict[int16](buf, r, opts)
		return IntValue(kind, int64(v)), err
	case KindInt32:
		v, err := ParseIntegerStrict[int32](buf, r, opts)
		return IntValue(kind, int64(v)), err
	case KindInt64, KindTimestamp:
		v, err := ParseIntegerStrict[int64](buf, r, opts)
		return IntValue(kind, v), err
	case KindUint8, KindUint16, KindUint32, KindUint64:
		if !r.Empty() && buf[r.Start] == '-' {
			return Value{Kind: kind}, parseError(InvalidDigit, r.Start)
		}
		v, err := ParseIntegerStrict[uint64](buf, r, opts)
		switch kind {
		case KindUint8:
			v = uint64(uint8(v))
		case KindUint16:
			v = uint64(uint16(v))
		case KindUint32:
			v = uint64(uint32(v))
		}
		return UintValue(kind, v), err
	case KindFloat32:
		v, err := ParseFloatStrict[float32](buf, r, opts)
		return FloatValue(kind, float64(v)), err
	case KindFloat64:
		v, err := ParseFloatStrict[float64](buf, r, opts)
		return FloatValue(kind, v), err
	case KindBool:
		if r.Empty() {
			return BoolValue(false), parseError(EmptyField, r.Start)
		}
		b, ok := ParseBool(buf, r, opts)
		if !ok {
			return BoolValue(false), parseError(InvalidBoolean, r.Start)
		}
		return BoolValue(b), nil
	case KindDate:
		if r.Empty() {
			return Value{Kind: kind}, parseError(EmptyField, r.Start)
		}
		days, ok := datetime.ParseDate(buf, r.Start, r.End, opts.DayFirst)
		if !ok {
			return Value{Kind: kind}, parseError(InvalidDate, r.Start)
		}
		return IntValue(kind, int64(days)), nil
	case KindDateTime:
		if r.Empty() {
			return Value{Kind: kind}, parseError(EmptyField, r.Start)
		}
		ms, ok := datetime.ParseDateTime(buf, r.Start, r.End, opts.DayFirst)
		if !ok {
			return Value{Kind: kind}, parseError(InvalidDate, r.Start)
		}
		return IntValue(kind, ms), nil
	case KindCategory:
		return UintValue(kind, uint64(ParseCategory(buf, r))), nil
	}
	return Value{}, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}
