package core

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/JonMunkholm/csvcast/internal/field"
)

// ============================================================================
// Conversion Benchmarks
// ============================================================================

const benchColumns = "int64,float64,date,category,bool,datetime"

// generateTestCSV builds rows that exercise every benchmarked kind.
func generateTestCSV(rows int) []byte {
	var b bytes.Buffer
	b.WriteString("id,amount,day,region,paid,created\n")
	regions := []string{"north", "south", "east", "west"}
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,\"%d,%03d.%02d\",2024-%02d-%02d,%s,%d,2024-01-02 03:04:%02d\n",
			i, i%97, i%1000, i%100, i%12+1, i%28+1, regions[i%4], i%2, i%60)
	}
	return b.Bytes()
}

func benchmarkConvert(b *testing.B, rows int, parallel bool) {
	input := generateTestCSV(rows)
	schema, err := ParseColumns(benchColumns)
	if err != nil {
		b.Fatal(err)
	}
	opts, err := field.NewParseOptions(field.WithThousands(','))
	if err != nil {
		b.Fatal(err)
	}
	svc := NewService(Config{ChunkRows: 1024}, nil)
	req := Request{Schema: schema, Options: opts, Header: true, Parallel: parallel}

	b.SetBytes(int64(len(input)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := svc.Convert(context.Background(), input, req)
		if err != nil {
			b.Fatal(err)
		}
		res.Record.Release()
	}
}

// BenchmarkConvert_Serial is the baseline single-goroutine driver.
func BenchmarkConvert_Serial(b *testing.B) {
	benchmarkConvert(b, 10000, false)
}

// BenchmarkConvert_Parallel converts the same input on the errgroup driver.
func BenchmarkConvert_Parallel(b *testing.B) {
	benchmarkConvert(b, 10000, true)
}

func BenchmarkConvert_Large(b *testing.B) {
	if testing.Short() {
		b.Skip("skipping large conversion in short mode")
	}
	benchmarkConvert(b, 200000, true)
}

// BenchmarkCategoryCodes hashes one value per line.
func BenchmarkCategoryCodes(b *testing.B) {
	var buf bytes.Buffer
	for i := 0; i < 10000; i++ {
		fmt.Fprintf(&buf, "\"region-%d\"\n", i%50)
	}
	input := buf.Bytes()
	opts := field.DefaultParseOptions()

	b.SetBytes(int64(len(input)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CategoryCodes(input, opts)
	}
}

func BenchmarkReadInput(b *testing.B) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, generateTestCSV(10000)...)

	b.SetBytes(int64(len(input)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ReadInput(bytes.NewReader(input), 0); err != nil {
			b.Fatal(err)
		}
	}
}
