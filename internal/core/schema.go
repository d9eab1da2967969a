package core

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/JonMunkholm/csvcast/internal/column"
	"github.com/JonMunkholm/csvcast/internal/field"
	"github.com/JonMunkholm/csvcast/internal/locate"
)

// ErrEmptySchema is returned when a schema lists no columns.
var ErrEmptySchema = errors.New("schema has no columns")

// Schema is the ordered list of columns a conversion produces. Column i is
// read from field i of every row.
//
// A column may be declared without a name; it is then named from the header
// row, or col_N when there is none.
type Schema struct {
	Columns []column.Spec
}

// ParseColumns reads a "name:kind,name:kind" list. A bare "kind" entry
// declares an unnamed column.
func ParseColumns(s string) (Schema, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Schema{}, ErrEmptySchema
	}

	parts := strings.Split(s, ",")
	cols := make([]column.Spec, 0, len(parts))
	for i, part := range parts {
		name, kindName, found := strings.Cut(part, ":")
		if !found {
			name, kindName = "", name
		}

		kind, err := field.ParseKind(kindName)
		if err != nil {
			return Schema{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		cols = append(cols, column.Spec{Name: strings.TrimSpace(name), Kind: kind})
	}

	return Schema{Columns: cols}, nil
}

// schemaFile is the YAML layout of a schema file:
//
//	columns:
//	  - name: id
//	    type: int64
//	  - name: amount
//	    type: float64
type schemaFile struct {
	Columns []struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	} `yaml:"columns"`
}

// ParseSchemaYAML decodes a schema from YAML.
func ParseSchemaYAML(data []byte) (Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Schema{}, fmt.Errorf("decode schema: %w", err)
	}
	if len(f.Columns) == 0 {
		return Schema{}, ErrEmptySchema
	}

	cols := make([]column.Spec, len(f.Columns))
	for i, c := range f.Columns {
		kind, err := field.ParseKind(c.Type)
		if err != nil {
			return Schema{}, fmt.Errorf("column %q: %w", c.Name, err)
		}
		cols[i] = column.Spec{Name: c.Name, Kind: kind}
	}

	return Schema{Columns: cols}, nil
}

// LoadSchemaFile reads a YAML schema file.
func LoadSchemaFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("read schema %s: %w", path, err)
	}
	return ParseSchemaYAML(data)
}

// String renders the schema in the ParseColumns format.
func (s Schema) String() string {
	var b strings.Builder
	for i, c := range s.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		if c.Name != "" {
			b.WriteString(c.Name)
			b.WriteByte(':')
		}
		b.WriteString(c.Kind.String())
	}
	return b.String()
}

// resolve fills in missing column names from the header row, when there is
// one, and otherwise from the column position.
func (s Schema) resolve(buf []byte, header locate.Row, opts field.ParseOptions) []column.Spec {
	specs := make([]column.Spec, len(s.Columns))
	for i, c := range s.Columns {
		specs[i] = c
		if c.Name != "" {
			continue
		}
		if i < len(header) {
			r := field.TrimQuote(buf, header[i], opts.Quote)
			if name := string(r.Bytes(buf)); name != "" {
				specs[i].Name = name
				continue
			}
		}
		specs[i].Name = "col_" + strconv.Itoa(i+1)
	}
	return specs
}
