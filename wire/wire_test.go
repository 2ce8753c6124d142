package wire_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goflat "github.com/reoring/goflat"
	"github.com/reoring/goflat/wire"
)

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]wire.Format{"json": wire.FormatJSON, "YAML": wire.FormatYAML, "yml": wire.FormatYAML, "hcl": wire.FormatHCL} {
		got, err := wire.ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := wire.ParseFormat("toml")
	require.Error(t, err)

	f, err := wire.FormatFromPath("dir/model.hcl")
	require.NoError(t, err)
	assert.Equal(t, wire.FormatHCL, f)
	_, err = wire.FormatFromPath("model")
	require.Error(t, err)
}

func TestDecodeJSON_TaggedValues(t *testing.T) {
	doc := `[
		{"$tuple": [1, 2.5]},
		{"$array": {"shape": [2, 2], "dtype": "float32", "data": [0, 1, 2, 3]}},
		{"$symbol": "theta"},
		[],
		{"plain": {"$symbol": "phi"}},
		"text"
	]`
	got, err := wire.DecodeJSON([]byte(doc), wire.DecodeOpt{})
	require.NoError(t, err)

	items := got.([]any)
	require.Len(t, items, 6)
	assert.Equal(t, goflat.Tuple{int64(1), 2.5}, items[0])

	arr := items[1].(*goflat.Array)
	assert.Equal(t, []int{2, 2}, arr.Shape())
	assert.Equal(t, goflat.Float32, arr.DType())
	assert.Equal(t, []any{float32(0), float32(1), float32(2), float32(3)}, arr.Data())

	assert.Equal(t, "theta", items[2].(*goflat.Symbol).Name)
	assert.Equal(t, []any{}, items[3])
	assert.Equal(t, "phi", items[4].(map[string]any)["plain"].(*goflat.Symbol).Name)
	assert.Equal(t, "text", items[5])
}

func TestDecodeJSON_NumberModes(t *testing.T) {
	got, err := wire.DecodeJSON([]byte(`[1, 1.5]`), wire.DecodeOpt{Numbers: wire.NumberFloat64})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 1.5}, got)

	got, err = wire.DecodeJSON([]byte(`[1, 1.5]`), wire.DecodeOpt{Numbers: wire.NumberJSONNumber})
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1"), json.Number("1.5")}, got)
}

func TestDecodeJSON_Enforcement(t *testing.T) {
	_, err := wire.DecodeJSON([]byte(`{"a": 1, "a": 2}`), wire.DecodeOpt{})
	iss, ok := goflat.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, goflat.CodeDuplicateKey, iss[0].Code)
	assert.Equal(t, "/a", iss[0].Path)
	assert.True(t, errors.Is(err, wire.ErrDocument))

	_, err = wire.DecodeJSON([]byte(`[[[1]]]`), wire.DecodeOpt{MaxDepth: 2})
	iss, ok = goflat.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, goflat.CodeParseError, iss[0].Code)
	assert.Equal(t, "/0/0", iss[0].Path)

	_, err = wire.DecodeJSON([]byte(`[1, 2`), wire.DecodeOpt{})
	require.ErrorIs(t, err, wire.ErrDocument)
}

func TestDecodeJSON_BadTags(t *testing.T) {
	cases := map[string]string{
		`{"$tuple": 1}`:                                       "/$tuple",
		`{"$symbol": 3}`:                                      "/$symbol",
		`[{"$array": {"shape": [1.5], "data": [1]}}]`:         "/0/$array/shape/0",
		`{"$array": {"shape": [3], "data": [1]}}`:             "/$array",
		`{"$array": {"shape": [1], "dtype": "x", "data": []}}`: "/$array/dtype",
	}
	for doc, path := range cases {
		_, err := wire.DecodeJSON([]byte(doc), wire.DecodeOpt{})
		iss, ok := goflat.AsIssues(err)
		require.True(t, ok, doc)
		assert.Equal(t, path, iss[0].Path, doc)
		assert.ErrorIs(t, err, wire.ErrDocument, doc)
	}
}

func TestDecodeJSON_OverflowingArrayShape(t *testing.T) {
	_, err := wire.DecodeJSON([]byte(`{"$array": {"shape": [4294967296, 4294967296], "data": []}}`), wire.DecodeOpt{})
	require.ErrorIs(t, err, wire.ErrDocument)
	iss, ok := goflat.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, goflat.CodeBadShape, iss[0].Code)
	assert.Equal(t, "/$array", iss[0].Path)
}

func TestDecodeYAML_Tags(t *testing.T) {
	doc := `
- !tuple [1, 0.5]
- !symbol theta
- !array {shape: [3], dtype: int64, data: [1, 2, 3]}
- [a, true, null]
`
	got, err := wire.DecodeYAML([]byte(doc), wire.DecodeOpt{})
	require.NoError(t, err)
	items := got.([]any)
	assert.Equal(t, goflat.Tuple{int64(1), 0.5}, items[0])
	assert.Equal(t, "theta", items[1].(*goflat.Symbol).Name)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, items[2].(*goflat.Array).Data())
	assert.Equal(t, []any{"a", true, nil}, items[3])
}

func TestDecodeYAML_Limits(t *testing.T) {
	_, err := wire.DecodeYAML([]byte("[[[1]]]"), wire.DecodeOpt{MaxDepth: 2})
	iss, ok := goflat.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, "/0/0", iss[0].Path)

	_, err = wire.DecodeYAML([]byte("[1, 2, 3]"), wire.DecodeOpt{MaxBytes: 4})
	iss, ok = goflat.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, goflat.CodeTruncated, iss[0].Code)

	_, err = wire.DecodeYAML([]byte(""), wire.DecodeOpt{})
	require.ErrorIs(t, err, wire.ErrDocument)
}

func TestDecodeYAML_AliasExpansion(t *testing.T) {
	got, err := wire.DecodeYAML([]byte("- &row [1, 2]\n- *row\n- *row\n"), wire.DecodeOpt{})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, got.([]any)[2])

	doc := `a: &a [1, 1, 1, 1, 1, 1, 1, 1, 1, 1]
b: &b [*a, *a, *a, *a, *a, *a, *a, *a, *a, *a]
c: &c [*b, *b, *b, *b, *b, *b, *b, *b, *b, *b]
d: &d [*c, *c, *c, *c, *c, *c, *c, *c, *c, *c]
e: &e [*d, *d, *d, *d, *d, *d, *d, *d, *d, *d]
f: [*e, *e, *e, *e, *e, *e, *e, *e, *e, *e]
`
	_, err = wire.DecodeYAML([]byte(doc), wire.DecodeOpt{MaxBytes: 1024})
	require.ErrorIs(t, err, wire.ErrDocument)
	iss, ok := goflat.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, goflat.CodeParseError, iss[0].Code)
	assert.Contains(t, iss[0].Message, "alias expansion")
}

func TestDecodeHCL(t *testing.T) {
	src := `
value = [[1, 2], { "$tuple" = [0.5, { "$symbol" = "w" }] }]
other = 3
`
	got, err := wire.DecodeHCL([]byte(src), "model.hcl", wire.DecodeOpt{})
	require.NoError(t, err)
	items := got.([]any)
	assert.Equal(t, []any{int64(1), int64(2)}, items[0])
	tup := items[1].(goflat.Tuple)
	assert.Equal(t, 0.5, tup[0])
	assert.Equal(t, "w", tup[1].(*goflat.Symbol).Name)

	got, err = wire.DecodeHCL([]byte(src), "model.hcl", wire.DecodeOpt{HCLAttribute: "other", Numbers: wire.NumberFloat64})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	_, err = wire.DecodeHCL([]byte(src), "model.hcl", wire.DecodeOpt{HCLAttribute: "missing"})
	require.ErrorIs(t, err, wire.ErrDocument)

	_, err = wire.DecodeHCL([]byte("value = [1,"), "bad.hcl", wire.DecodeOpt{})
	require.ErrorIs(t, err, wire.ErrDocument)
}

func roundTripValue(t *testing.T) any {
	t.Helper()
	arr, err := goflat.Arange(6, goflat.Float64).Reshape(2, 3)
	require.NoError(t, err)
	return goflat.Tuple{
		[]any{int64(1), []any{int64(2), int64(3)}},
		arr,
		goflat.NewSymbol("theta"),
		2.5,
		goflat.MustArray([]int{2}, goflat.Object, []any{[]any{0.5}, goflat.NewSymbol("phi")}),
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := roundTripValue(t)
	for _, f := range []wire.Format{wire.FormatJSON, wire.FormatYAML, wire.FormatHCL} {
		t.Run(f.String(), func(t *testing.T) {
			doc, err := wire.Encode(in, f)
			require.NoError(t, err)
			out, err := wire.Decode(doc, f, wire.DecodeOpt{})
			require.NoError(t, err, string(doc))

			tup, ok := out.(goflat.Tuple)
			require.True(t, ok, string(doc))
			require.Len(t, tup, 5)
			assert.Equal(t, []any{int64(1), []any{int64(2), int64(3)}}, tup[0])
			assert.True(t, in.(goflat.Tuple)[1].(*goflat.Array).Equal(tup[1].(*goflat.Array)))
			assert.Equal(t, "theta", tup[2].(*goflat.Symbol).Name)
			assert.Equal(t, 2.5, tup[3])

			obj := tup[4].(*goflat.Array)
			assert.Equal(t, goflat.Object, obj.DType())
			data := obj.Data()
			assert.Equal(t, []any{0.5}, data[0])
			assert.Equal(t, "phi", data[1].(*goflat.Symbol).Name)

			assert.Equal(t, goflat.LeafCount(in), goflat.LeafCount(out))
		})
	}
}

func TestEncode_Rejects(t *testing.T) {
	_, err := wire.Encode([]any{complex(1, 1)}, wire.FormatJSON)
	require.ErrorIs(t, err, goflat.ErrUnsupportedModelType)
	iss, _ := goflat.AsIssues(err)
	assert.Equal(t, "/0", iss[0].Path)

	_, err = wire.Encode(func() {}, wire.FormatYAML)
	require.ErrorIs(t, err, goflat.ErrUnsupportedModelType)

	_, err = wire.Encode([]any{math.NaN()}, wire.FormatHCL)
	require.ErrorIs(t, err, goflat.ErrInvalidLeaf)
}

func TestToTree(t *testing.T) {
	tree, err := wire.ToTree(goflat.Tuple{[]float32{1}, goflat.NewSymbol("s")})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{wire.TagTuple: []any{
		[]any{float32(1)},
		map[string]any{wire.TagSymbol: "s"},
	}}, tree)
}
