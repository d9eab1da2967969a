package column

import (
	"errors"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/JonMunkholm/csvcast/internal/field"
)

// ----------------------------------------------------------------------------
// Schema Tests
// ----------------------------------------------------------------------------

func TestArrowType_EveryKind(t *testing.T) {
	for _, k := range field.Kinds() {
		if _, err := ArrowType(k); err != nil {
			t.Errorf("ArrowType(%v) error = %v", k, err)
		}
	}
	if _, err := ArrowType(field.KindInvalid); !errors.Is(err, field.ErrUnknownKind) {
		t.Errorf("ArrowType(invalid) error = %v, want %v", err, field.ErrUnknownKind)
	}
}

func TestSchema(t *testing.T) {
	specs := []Spec{
		{Name: "id", Kind: field.KindInt64},
		{Name: "when", Kind: field.KindDate},
		{Name: "tag", Kind: field.KindCategory},
	}
	schema, err := Schema(specs)
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	if schema.NumFields() != 3 {
		t.Fatalf("NumFields() = %d, want 3", schema.NumFields())
	}
	if got := schema.Field(1).Type.ID(); got != arrow.DATE32 {
		t.Errorf("when type = %v, want %v", got, arrow.DATE32)
	}
	for i, s := range specs {
		if got := KindOf(schema.Field(i)); got != s.Kind {
			t.Errorf("KindOf(%s) = %v, want %v", s.Name, got, s.Kind)
		}
	}
}

func TestSchema_Errors(t *testing.T) {
	if _, err := Schema(nil); !errors.Is(err, ErrNoColumns) {
		t.Errorf("Schema(nil) error = %v, want %v", err, ErrNoColumns)
	}

	dup := []Spec{{Name: "a", Kind: field.KindInt8}, {Name: "a", Kind: field.KindBool}}
	if _, err := Schema(dup); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("Schema(dup) error = %v, want %v", err, ErrDuplicateColumn)
	}

	bad := []Spec{{Name: "a", Kind: field.KindInvalid}}
	if _, err := Schema(bad); !errors.Is(err, field.ErrUnknownKind) {
		t.Errorf("Schema(invalid kind) error = %v, want %v", err, field.ErrUnknownKind)
	}
}

// ----------------------------------------------------------------------------
// Assembler Tests
// ----------------------------------------------------------------------------

func TestAssembler_Build(t *testing.T) {
	specs := []Spec{
		{Name: "i8", Kind: field.KindInt8},
		{Name: "u16", Kind: field.KindUint16},
		{Name: "f32", Kind: field.KindFloat32},
		{Name: "f64", Kind: field.KindFloat64},
		{Name: "ok", Kind: field.KindBool},
		{Name: "day", Kind: field.KindDate},
		{Name: "at", Kind: field.KindDateTime},
		{Name: "ts", Kind: field.KindTimestamp},
		{Name: "cat", Kind: field.KindCategory},
	}
	a, err := NewAssembler(specs, 2)
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}

	row := []field.Value{
		field.IntValue(field.KindInt8, -3),
		field.UintValue(field.KindUint16, 65000),
		field.FloatValue(field.KindFloat32, 1.5),
		field.FloatValue(field.KindFloat64, 2.25),
		field.BoolValue(true),
		field.IntValue(field.KindDate, 18263),
		field.IntValue(field.KindDateTime, 1577966400000),
		field.IntValue(field.KindTimestamp, 42),
		field.UintValue(field.KindCategory, 0xdeadbeef),
	}
	for col, v := range row {
		if err := a.Set(0, col, v); err != nil {
			t.Fatalf("Set(0, %d) error = %v", col, err)
		}
	}

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec, err := a.Build(mem)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer rec.Release()

	if rec.NumRows() != 2 || rec.NumCols() != int64(len(specs)) {
		t.Fatalf("record = %dx%d, want 2x%d", rec.NumRows(), rec.NumCols(), len(specs))
	}

	want := []any{
		int8(-3),
		uint16(65000),
		float32(1.5),
		2.25,
		true,
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 2, 12, 0, 0, 0, time.UTC),
		int64(42),
		uint32(0xdeadbeef),
	}
	for col, w := range want {
		got := ValueAt(rec.Column(col), 0)
		if tm, ok := w.(time.Time); ok {
			if g, ok := got.(time.Time); !ok || !g.Equal(tm) {
				t.Errorf("column %s = %v, want %v", specs[col].Name, got, w)
			}
			continue
		}
		if got != w {
			t.Errorf("column %s = %v (%T), want %v (%T)", specs[col].Name, got, got, w, w)
		}
		if ValueAt(rec.Column(col), 1) != nil {
			t.Errorf("column %s row 1 = %v, want null", specs[col].Name, ValueAt(rec.Column(col), 1))
		}
	}
}

func TestAssembler_SetErrors(t *testing.T) {
	a, err := NewAssembler([]Spec{{Name: "n", Kind: field.KindInt32}}, 1)
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}

	if err := a.Set(0, 0, field.BoolValue(true)); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Set(wrong kind) error = %v, want %v", err, ErrKindMismatch)
	}
	if err := a.Set(1, 0, field.IntValue(field.KindInt32, 1)); err == nil {
		t.Error("Set(out of range row) error = nil")
	}
	if err := a.Set(0, 1, field.IntValue(field.KindInt32, 1)); err == nil {
		t.Error("Set(out of range column) error = nil")
	}
}

func TestAssembler_ConcurrentDisjointSet(t *testing.T) {
	const rows = 1000
	a, err := NewAssembler([]Spec{{Name: "n", Kind: field.KindInt64}, {Name: "m", Kind: field.KindInt64}}, rows)
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}

	done := make(chan struct{})
	for w := 0; w < 4; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for r := w; r < rows; r += 4 {
				_ = a.Set(r, 0, field.IntValue(field.KindInt64, int64(r)))
				_ = a.Set(r, 1, field.IntValue(field.KindInt64, int64(-r)))
			}
		}(w)
	}
	for w := 0; w < 4; w++ {
		<-done
	}

	for r := 0; r < rows; r++ {
		if got := a.Get(r, 0).Int(); got != int64(r) {
			t.Fatalf("Get(%d, 0) = %d, want %d", r, got, r)
		}
		if got := a.Get(r, 1).Int(); got != int64(-r) {
			t.Fatalf("Get(%d, 1) = %d, want %d", r, got, -r)
		}
	}
}
