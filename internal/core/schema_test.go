package core

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/JonMunkholm/csvcast/internal/column"
	"github.com/JonMunkholm/csvcast/internal/field"
	"github.com/JonMunkholm/csvcast/internal/locate"
)

func TestParseColumns(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []column.Spec
		wantErr error
	}{
		{
			name:  "named",
			input: "id:int64,amount:float64,day:date",
			want: []column.Spec{
				{Name: "id", Kind: field.KindInt64},
				{Name: "amount", Kind: field.KindFloat64},
				{Name: "day", Kind: field.KindDate},
			},
		},
		{
			name:  "unnamed and padded",
			input: " int32 , tag : category ",
			want: []column.Spec{
				{Name: "", Kind: field.KindInt32},
				{Name: "tag", Kind: field.KindCategory},
			},
		},
		{name: "empty", input: "  ", wantErr: ErrEmptySchema},
		{name: "unknown kind", input: "id:decimal", wantErr: field.ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColumns(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseColumns() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColumns() error = %v", err)
			}
			if !reflect.DeepEqual(got.Columns, tt.want) {
				t.Errorf("ParseColumns() = %v, want %v", got.Columns, tt.want)
			}
		})
	}
}

func TestSchema_StringRoundTrip(t *testing.T) {
	in := "id:int64,bool,when:datetime"
	s, err := ParseColumns(in)
	if err != nil {
		t.Fatalf("ParseColumns() error = %v", err)
	}
	if got := s.String(); got != in {
		t.Errorf("String() = %q, want %q", got, in)
	}
}

func TestParseSchemaYAML(t *testing.T) {
	data := []byte(`
columns:
  - name: id
    type: int64
  - name: price
    type: double
  - name: region
    type: categorical
`)
	s, err := ParseSchemaYAML(data)
	if err != nil {
		t.Fatalf("ParseSchemaYAML() error = %v", err)
	}
	want := []column.Spec{
		{Name: "id", Kind: field.KindInt64},
		{Name: "price", Kind: field.KindFloat64},
		{Name: "region", Kind: field.KindCategory},
	}
	if !reflect.DeepEqual(s.Columns, want) {
		t.Errorf("ParseSchemaYAML() = %v, want %v", s.Columns, want)
	}

	if _, err := ParseSchemaYAML([]byte("columns: []")); !errors.Is(err, ErrEmptySchema) {
		t.Errorf("ParseSchemaYAML(empty) error = %v, want %v", err, ErrEmptySchema)
	}
	if _, err := ParseSchemaYAML([]byte("columns:\n  - name: x\n    type: blob\n")); !errors.Is(err, field.ErrUnknownKind) {
		t.Errorf("ParseSchemaYAML(blob) error = %v, want %v", err, field.ErrUnknownKind)
	}
	if _, err := ParseSchemaYAML([]byte("columns: [")); err == nil {
		t.Error("ParseSchemaYAML(malformed) error = nil")
	}
}

func TestLoadSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte("columns:\n  - name: n\n    type: uint8\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := LoadSchemaFile(path)
	if err != nil {
		t.Fatalf("LoadSchemaFile() error = %v", err)
	}
	if len(s.Columns) != 1 || s.Columns[0].Kind != field.KindUint8 {
		t.Errorf("LoadSchemaFile() = %v, want one uint8 column", s.Columns)
	}

	if _, err := LoadSchemaFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadSchemaFile(missing) error = %v, want %v", err, os.ErrNotExist)
	}
}

func TestSchema_ResolveNames(t *testing.T) {
	buf := []byte(`"first", ,third`)
	opts := field.DefaultParseOptions()
	header, err := locate.Locate(buf, opts)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	s := Schema{Columns: []column.Spec{
		{Kind: field.KindInt8},
		{Kind: field.KindInt8},
		{Name: "fixed", Kind: field.KindInt8},
		{Kind: field.KindInt8},
	}}
	specs := s.resolve(buf, header[0], opts)

	want := []string{"first", "col_2", "fixed", "col_4"}
	for i, w := range want {
		if specs[i].Name != w {
			t.Errorf("column %d name = %q, want %q", i, specs[i].Name, w)
		}
	}
	if s.Columns[0].Name != "" {
		t.Error("resolve mutated the schema")
	}
}
