package goflat_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/reoring/goflat/wire"
)

// Macro: a long flat sequence document
func hugeFlatJSON(n int) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.FormatFloat(float64(i)*0.25, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

func benchDecode(b *testing.B, mode wire.NumberMode) {
	data := hugeFlatJSON(10_000)
	opt := wire.DecodeOpt{Numbers: mode}
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := wire.DecodeJSON(data, opt); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_NumberMode_Huge_Auto(b *testing.B)       { benchDecode(b, wire.NumberAuto) }
func Benchmark_NumberMode_Huge_Float64(b *testing.B)    { benchDecode(b, wire.NumberFloat64) }
func Benchmark_NumberMode_Huge_JSONNumber(b *testing.B) { benchDecode(b, wire.NumberJSONNumber) }
