package locate

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/csvcast/internal/field"
)

// texts renders each located field, stripping quotes and padding the way
// the converter sees them.
func texts(buf []byte, rows []Row, quote byte) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, r := range row {
			out[i][j] = string(field.TrimQuote(buf, r, quote).Bytes(buf))
		}
	}
	return out
}

func mustOptions(t *testing.T, opts ...field.Option) field.ParseOptions {
	t.Helper()
	o, err := field.NewParseOptions(opts...)
	if err != nil {
		t.Fatalf("NewParseOptions() error = %v", err)
	}
	return o
}

// ----------------------------------------------------------------------------
// Locate Tests
// ----------------------------------------------------------------------------

func TestLocate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []field.Option
		want  [][]string
	}{
		{
			name:  "simple",
			input: "a,b,c\n1,2,3\n",
			want:  [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:  "no trailing terminator",
			input: "a,b\n1,2",
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "crlf",
			input: "a,b\r\n1,2\r\n",
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "empty fields",
			input: ",x,\n",
			want:  [][]string{{"", "x", ""}},
		},
		{
			name:  "quoted delimiter and terminator",
			input: "\"a,b\",\"line\nbreak\",c\n",
			want:  [][]string{{"a,b", "line\nbreak", "c"}},
		},
		{
			name:  "doubled quote",
			input: `"say ""hi"" now",2` + "\n",
			want:  [][]string{{`say ""hi"" now`, "2"}},
		},
		{
			name:  "padded quoted field",
			input: `  "x" ,y` + "\n",
			want:  [][]string{{"x", "y"}},
		},
		{
			name:  "blank lines skipped",
			input: "a\n\n\r\nb\n",
			want:  [][]string{{"a"}, {"b"}},
		},
		{
			name:  "blank lines kept",
			input: "a\n\nb\n",
			opts:  []field.Option{field.WithSkipBlankLines(false)},
			want:  [][]string{{"a"}, {""}, {"b"}},
		},
		{
			name:  "comments",
			input: "# header comment\na,b\n#x,y\n1,2\n",
			opts:  []field.Option{field.WithComment('#')},
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "multi delimiter",
			input: "a   b  c\n",
			opts:  []field.Option{field.WithDelimiter(' '), field.WithMultiDelimiter(true)},
			want:  [][]string{{"a", "b", "c"}},
		},
		{
			name:  "semicolon and pipe terminator",
			input: "1;2|3;4|",
			opts:  []field.Option{field.WithDelimiter(';'), field.WithTerminator('|')},
			want:  [][]string{{"1", "2"}, {"3", "4"}},
		},
		{
			name:  "ragged rows",
			input: "a,b,c\n1\n",
			want:  [][]string{{"a", "b", "c"}, {"1"}},
		},
		{
			name:  "bare quote best effort",
			input: "ab\"c,d\n",
			want:  [][]string{{"ab\"c", "d"}},
		},
		{
			name:  "unterminated quote best effort",
			input: "a,\"b,c\n",
			want:  [][]string{{"a", "b,c\n"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  [][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := mustOptions(t, tt.opts...)
			buf := []byte(tt.input)
			rows, err := Locate(buf, opts)
			if err != nil {
				t.Fatalf("Locate() error = %v", err)
			}
			if got := texts(buf, rows, opts.Quote); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Locate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLocate_EmptyFieldSentinel(t *testing.T) {
	buf := []byte("a,,b")
	rows, err := Locate(buf, field.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != 3 {
		t.Fatalf("Locate() = %v, want one row of three fields", rows)
	}
	if r := rows[0][1]; r.Start != r.End+1 || r.Start != 2 {
		t.Errorf("empty field = %+v, want {2 1}", r)
	}
}

func TestLocate_RangesAreInclusive(t *testing.T) {
	buf := []byte("12,345\n")
	rows, err := Locate(buf, field.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	want := Row{{Start: 0, End: 1}, {Start: 3, End: 5}}
	if !reflect.DeepEqual(rows[0], want) {
		t.Errorf("Locate() = %v, want %v", rows[0], want)
	}
}

func TestLocate_Strict(t *testing.T) {
	opts := mustOptions(t, field.WithPolicy(field.Strict))

	tests := []struct {
		name    string
		input   string
		wantErr error
		wantCol int
	}{
		{"unterminated", "a,b\n1,\"2\n", ErrUnterminatedQuote, 2},
		{"bare quote", "a,b\"c\n", ErrBareQuote, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Locate([]byte(tt.input), opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Locate() error = %v, want %v", err, tt.wantErr)
			}
			var re *RecordError
			if !errors.As(err, &re) {
				t.Fatalf("Locate() error type = %T, want *RecordError", err)
			}
			if re.Column != tt.wantCol {
				t.Errorf("RecordError.Column = %d, want %d", re.Column, tt.wantCol)
			}
		})
	}
}

func TestWidth(t *testing.T) {
	rows := []Row{make(Row, 2), make(Row, 5), make(Row, 1)}
	if got := Width(rows); got != 5 {
		t.Errorf("Width() = %d, want 5", got)
	}
	if got := Width(nil); got != 0 {
		t.Errorf("Width(nil) = %d, want 0", got)
	}
}

func FuzzLocate(f *testing.F) {
	f.Add([]byte("a,b\n\"c,d\",e\r\n"))
	f.Add([]byte("\"unterminated"))
	f.Add([]byte(",,,\n\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		rows, err := Locate(data, field.DefaultParseOptions())
		if err != nil {
			t.Fatalf("best-effort Locate() error = %v", err)
		}
		for _, row := range rows {
			for _, r := range row {
				if r.Start < 0 || r.End >= len(data) || r.Start > r.End+1 {
					t.Fatalf("range %+v out of bounds for %d bytes", r, len(data))
				}
			}
		}
	})
}

func BenchmarkLocate(b *testing.B) {
	var buf []byte
	for i := 0; i < 1000; i++ {
		buf = append(buf, "12345,\"quoted, text\",3.14159,2020-01-02,true\n"...)
	}
	opts := field.DefaultParseOptions()
	b.SetBytes(int64(len(buf)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Locate(buf, opts); err != nil {
			b.Fatal(err)
		}
	}
}
