// Package column stores converted field values into typed Apache Arrow
// columns.
//
// Values are staged by (row, column) coordinate so that concurrent producers
// writing disjoint cells never contend; the Arrow record is built once every
// cell has been placed.
package column

import (
	"errors"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/JonMunkholm/csvcast/internal/field"
)

var (
	// ErrNoColumns is returned when an assembler is created without columns.
	ErrNoColumns = errors.New("at least one column is required")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrKindMismatch is returned when a value is placed into a column of
	// another kind.
	ErrKindMismatch = errors.New("value kind does not match column kind")
)

// Spec names a column and the kind its fields convert to.
type Spec struct {
	Name string     `json:"name" yaml:"name"`
	Kind field.Kind `json:"kind" yaml:"kind"`
}

// ArrowType returns the Arrow type used to store kind.
func ArrowType(kind field.Kind) (arrow.DataType, error) {
	switch kind {
	case field.KindInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case field.KindInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case field.KindInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case field.KindInt64, field.KindTimestamp:
		return arrow.PrimitiveTypes.Int64, nil
	case field.KindUint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case field.KindUint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case field.KindUint32, field.KindCategory:
		return arrow.PrimitiveTypes.Uint32, nil
	case field.KindUint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case field.KindFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case field.KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case field.KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case field.KindDate:
		return arrow.FixedWidthTypes.Date32, nil
	case field.KindDateTime:
		return arrow.FixedWidthTypes.Timestamp_ms, nil
	default:
		return nil, fmt.Errorf("%w: %v", field.ErrUnknownKind, kind)
	}
}

// Schema builds the Arrow schema for specs. The field kind is kept in the
// field metadata so a record can be mapped back to kinds.
func Schema(specs []Spec) (*arrow.Schema, error) {
	if len(specs) == 0 {
		return nil, ErrNoColumns
	}

	seen := make(map[string]struct{}, len(specs))
	fields := make([]arrow.Field, len(specs))
	for i, s := range specs {
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, s.Name)
		}
		seen[s.Name] = struct{}{}

		dt, err := ArrowType(s.Kind)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", s.Name, err)
		}
		fields[i] = arrow.Field{
			Name:     s.Name,
			Type:     dt,
			Metadata: arrow.NewMetadata([]string{kindKey}, []string{s.Kind.String()}),
		}
	}

	return arrow.NewSchema(fields, nil), nil
}

const kindKey = "csvcast.kind"

// KindOf returns the field kind recorded in an Arrow field's metadata.
func KindOf(f arrow.Field) field.Kind {
	i := f.Metadata.FindKey(kindKey)
	if i < 0 {
		return field.KindInvalid
	}
	k, err := field.ParseKind(f.Metadata.Values()[i])
	if err != nil {
		return field.KindInvalid
	}
	return k
}

// Assembler collects converted values for a fixed number of rows.
//
// Set may be called concurrently for distinct coordinates. Build must only be
// called after every producer has finished.
type Assembler struct {
	specs  []Spec
	schema *arrow.Schema
	rows   int
	cells  [][]field.Value // column-major
}

// NewAssembler allocates storage for rows rows of the given columns.
func NewAssembler(specs []Spec, rows int) (*Assembler, error) {
	schema, err := Schema(specs)
	if err != nil {
		return nil, err
	}

	cells := make([][]field.Value, len(specs))
	for i := range cells {
		cells[i] = make([]field.Value, rows)
	}

	return &Assembler{
		specs:  append([]Spec(nil), specs...),
		schema: schema,
		rows:   rows,
		cells:  cells,
	}, nil
}

// Rows returns the number of rows the assembler holds.
func (a *Assembler) Rows() int { return a.rows }

// Columns returns the column specs.
func (a *Assembler) Columns() []Spec { return a.specs }

// Schema returns the Arrow schema of the record Build produces.
func (a *Assembler) Schema() *arrow.Schema { return a.schema }

// Set stores v at (row, col).
func (a *Assembler) Set(row, col int, v field.Value) error {
	if col < 0 || col >= len(a.cells) || row < 0 || row >= a.rows {
		return fmt.Errorf("cell (%d, %d) outside %dx%d", row, col, a.rows, len(a.cells))
	}
	if v.Kind != a.specs[col].Kind {
		return fmt.Errorf("%w: column %q is %v, got %v",
			ErrKindMismatch, a.specs[col].Name, a.specs[col].Kind, v.Kind)
	}
	a.cells[col][row] = v
	return nil
}

// Get returns the value at (row, col).
func (a *Assembler) Get(row, col int) field.Value {
	return a.cells[col][row]
}

// Build assembles the staged cells into an Arrow record. The caller must
// Release it. Cells never set are stored as null.
func (a *Assembler) Build(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	b := array.NewRecordBuilder(mem, a.schema)
	defer b.Release()

	for col, spec := range a.specs {
		fb := b.Field(col)
		fb.Reserve(a.rows)
		for _, v := range a.cells[col] {
			if v.Kind == field.KindInvalid {
				fb.AppendNull()
				continue
			}
			if err := appendValue(fb, spec.Kind, v); err != nil {
				return nil, fmt.Errorf("column %q: %w", spec.Name, err)
			}
		}
	}

	return b.NewRecord(), nil
}

func appendValue(b array.Builder, kind field.Kind, v field.Value) error {
	switch kind {
	case field.KindInt8:
		b.(*array.Int8Builder).Append(int8(v.Int()))
	case field.KindInt16:
		b.(*array.Int16Builder).Append(int16(v.Int()))
	case field.KindInt32:
		b.(*array.Int32Builder).Append(int32(v.Int()))
	case field.KindInt64, field.KindTimestamp:
		b.(*array.Int64Builder).Append(v.Int())
	case field.KindUint8:
		b.(*array.Uint8Builder).Append(uint8(v.Uint()))
	case field.KindUint16:
		b.(*array.Uint16Builder).Append(uint16(v.Uint()))
	case field.KindUint32:
		b.(*array.Uint32Builder).Append(uint32(v.Uint()))
	case field.KindCategory:
		b.(*array.Uint32Builder).Append(v.Category())
	case field.KindUint64:
		b.(*array.Uint64Builder).Append(v.Uint())
	case field.KindFloat32:
		b.(*array.Float32Builder).Append(float32(v.Float()))
	case field.KindFloat64:
		b.(*array.Float64Builder).Append(v.Float())
	case field.KindBool:
		b.(*array.BooleanBuilder).Append(v.Bool())
	case field.KindDate:
		b.(*array.Date32Builder).Append(arrow.Date32(v.Date()))
	case field.KindDateTime:
		b.(*array.TimestampBuilder).Append(arrow.Timestamp(v.Int()))
	default:
		return fmt.Errorf("%w: %v", field.ErrUnknownKind, kind)
	}
	return nil
}

// ValueAt returns element i of arr as a plain Go value: integers, floats and
// bools as themselves, Date32 and millisecond timestamps as time.Time in UTC.
// Nulls are returned as nil.
func ValueAt(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Int8:
		return a.Value(i)
	case *array.Int16:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return a.Value(i)
	case *array.Uint16:
		return a.Value(i)
	case *array.Uint32:
		return a.Value(i)
	case *array.Uint64:
		return a.Value(i)
	case *array.Float32:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Date32:
		return a.Value(i).ToTime()
	case *array.Timestamp:
		return time.UnixMilli(int64(a.Value(i))).UTC()
	default:
		return a.ValueStr(i)
	}
}
