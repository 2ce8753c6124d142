package goflat_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goflat "github.com/reoring/goflat"
)

// linspace returns n evenly spaced float64 values over [lo, hi].
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

var gridShapes = [][]int{
	{64},
	{64, 1},
	{32, 2},
	{16, 4},
	{8, 8},
	{16, 2, 2},
	{8, 2, 2, 2},
	{4, 2, 2, 2, 2},
	{2, 2, 2, 2, 2, 2},
}

func flat64() []any {
	vals := linspace(-1, 1, 64)
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// rowsOf splits an array along its first axis the way iterating a numpy array
// does: scalars for 1-D input, sub-arrays otherwise.
func rowsOf(t *testing.T, a *goflat.Array) []any {
	t.Helper()
	shape := a.Shape()
	data := a.Data()
	rows := make([]any, shape[0])
	stride := len(data) / shape[0]
	for i := range rows {
		chunk := data[i*stride : (i+1)*stride]
		if len(shape) == 1 {
			rows[i] = chunk[0]
			continue
		}
		row, err := goflat.NewArray(shape[1:], a.DType(), chunk)
		require.NoError(t, err)
		rows[i] = row
	}
	return rows
}

func TestUnflatten_RaggedList(t *testing.T) {
	model := []any{[]any{0, 1, []any{2, 3}}, 4}
	r := []any{0, 1, 2, 3, 4}

	assert.Equal(t, r, goflat.FlattenSlice(model))

	got, err := goflat.Unflatten(r, model)
	require.NoError(t, err)
	assert.Equal(t, model, got)
}

func TestUnflatten_RaggedObjectArray(t *testing.T) {
	inner := goflat.MustArray([]int{2}, goflat.Object, []any{2, 3})
	mid := goflat.MustArray([]int{3}, goflat.Object, []any{0, 1, inner})
	model := goflat.MustArray([]int{2}, goflat.Object, []any{mid, 4})

	r := goflat.Arange(5, goflat.Int).Data()
	assert.Equal(t, r, goflat.FlattenSlice(model))

	got, err := goflat.Unflatten(r, model)
	require.NoError(t, err)
	arr, ok := got.(*goflat.Array)
	require.True(t, ok, "object-dtype model must come back as an array, got %T", got)
	assert.Equal(t, goflat.Object, arr.DType())
	assert.True(t, model.Equal(arr), "got %v", arr)

	row, err := arr.At(0)
	require.NoError(t, err)
	assert.IsType(t, &goflat.Array{}, row)
}

func TestUnflatten_ArrayFastPath(t *testing.T) {
	model, err := goflat.Arange(8, goflat.Int).Reshape(2, 2, 2)
	require.NoError(t, err)

	got, err := goflat.Unflatten(goflat.Arange(8, goflat.Int).Data(), model)
	require.NoError(t, err)
	arr := got.(*goflat.Array)
	assert.Equal(t, []int{2, 2, 2}, arr.Shape())
	assert.True(t, model.Equal(arr))
}

func TestUnflatten_ArrayGrid(t *testing.T) {
	flat := flat64()
	base, err := goflat.NewArray([]int{64}, goflat.Float64, flat)
	require.NoError(t, err)

	for _, s := range gridShapes {
		t.Run(fmt.Sprint(s), func(t *testing.T) {
			reshaped, err := base.Reshape(s...)
			require.NoError(t, err)

			assert.Equal(t, flat, goflat.FlattenSlice(reshaped))

			got, err := goflat.Unflatten(flat, reshaped)
			require.NoError(t, err)
			assert.Equal(t, reshaped, got)

			_, err = goflat.Unflatten(append(append([]any{}, flat...), flat...), reshaped)
			require.ErrorIs(t, err, goflat.ErrSizeMismatch)
			assert.Contains(t, err.Error(), "more elements than the model")
		})
	}
}

func TestUnflatten_ListOfRowsGrid(t *testing.T) {
	flat := flat64()
	base, err := goflat.NewArray([]int{64}, goflat.Float64, flat)
	require.NoError(t, err)

	for _, s := range gridShapes {
		t.Run(fmt.Sprint(s), func(t *testing.T) {
			reshaped, err := base.Reshape(s...)
			require.NoError(t, err)
			rows := rowsOf(t, reshaped)

			assert.Equal(t, flat, goflat.FlattenSlice(rows))

			got, err := goflat.Unflatten(flat, rows)
			require.NoError(t, err)
			assert.Equal(t, rows, got)

			_, err = goflat.Unflatten(append(append([]any{}, flat...), flat...), rows)
			require.ErrorIs(t, err, goflat.ErrSizeMismatch)
		})
	}
}

func TestUnflatten_UnsupportedModel(t *testing.T) {
	model := func(x float64) float64 { return x }

	_, err := goflat.Unflatten(flat64(), model)
	require.ErrorIs(t, err, goflat.ErrUnsupportedModelType)
	iss, ok := goflat.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, goflat.CodeUnsupportedModelType, iss[0].Code)
	assert.Equal(t, "/", iss[0].Path)
	assert.Equal(t, "func(float64) float64", iss[0].Params["type"])
	assert.Contains(t, err.Error(), "unsupported type in the model")
}

func TestUnflatten_UnsupportedNestedPosition(t *testing.T) {
	cases := []struct {
		name  string
		model any
		path  string
	}{
		{"string leaf", []any{1.0, []any{2.0, "x"}}, "/1/1"},
		{"nil leaf", goflat.Tuple{nil}, "/0"},
		{"map leaf", []any{map[string]any{"a": 1}}, "/0"},
		{"bytes", []byte("ab"), "/"},
		{"object array element", goflat.MustArray([]int{2}, goflat.Object, []any{1, struct{}{}}), "/1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := goflat.Unflatten([]any{1, 2, 3}, tc.model)
			require.ErrorIs(t, err, goflat.ErrUnsupportedModelType)
			iss, _ := goflat.AsIssues(err)
			assert.Equal(t, tc.path, iss[0].Path)
		})
	}
}

func TestUnflatten_PlaceholderPassThrough(t *testing.T) {
	theta := goflat.NewSymbol("theta")

	got, err := goflat.Unflatten([]any{theta, 3.7}, []any{1.0, 2})
	require.NoError(t, err)
	out := got.([]any)
	assert.Same(t, theta, out[0])
	assert.Equal(t, 3, out[1])

	// a placeholder model leaf copies the flat element without casting
	got, err = goflat.Unflatten([]any{1.5}, []any{goflat.NewSymbol("phi")})
	require.NoError(t, err)
	assert.Equal(t, []any{1.5}, got)
}

func TestUnflatten_PlaceholderInArrayBlock(t *testing.T) {
	theta := goflat.NewSymbol("theta")
	model := goflat.Arange(3, goflat.Float64)

	got, err := goflat.Unflatten([]any{1, theta, 3}, model)
	require.NoError(t, err)
	arr := got.(*goflat.Array)
	assert.Equal(t, goflat.Object, arr.DType())
	el, err := arr.At(1)
	require.NoError(t, err)
	assert.Same(t, theta, el)
	el, _ = arr.At(0)
	assert.Equal(t, 1, el, "no element is cast once the block holds a placeholder")
}

func TestUnflatten_ZeroDimArray(t *testing.T) {
	model, err := goflat.Scalar0(2.5, goflat.Float64)
	require.NoError(t, err)
	assert.Equal(t, []any{2.5}, goflat.FlattenSlice(model))

	got, err := goflat.Unflatten([]any{7}, model)
	require.NoError(t, err)
	arr := got.(*goflat.Array)
	assert.Equal(t, 0, arr.Ndim())
	item, err := arr.Item()
	require.NoError(t, err)
	assert.Equal(t, 7.0, item)

	sym := goflat.NewSymbol("s")
	got, err = goflat.Unflatten([]any{sym}, model)
	require.NoError(t, err)
	item, _ = got.(*goflat.Array).Item()
	assert.Same(t, sym, item)
	assert.Equal(t, goflat.Object, got.(*goflat.Array).DType())
}

func TestUnflatten_TupleAndMixedContainers(t *testing.T) {
	model := goflat.Tuple{1.0, []any{2, int8(3)}, goflat.Arange(2, goflat.Float32), goflat.Tuple{uint16(4)}}
	flat := []any{10, 20.9, 30, 40, 50, 60.5}

	got, err := goflat.Unflatten(flat, model)
	require.NoError(t, err)

	want := goflat.Tuple{
		10.0,
		[]any{20, int8(30)},
		goflat.MustArray([]int{2}, goflat.Float32, []any{40, 50}),
		goflat.Tuple{uint16(60)},
	}
	assert.Equal(t, want, got)
}

func TestUnflatten_TypedGoContainers(t *testing.T) {
	type weight float64

	got, err := goflat.Unflatten([]any{4, 5, 6}, [][]float64{{1, 2}, {3}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{4, 5}, {6}}, got)

	got, err = goflat.Unflatten([]any{1.9, 2.1, -3}, [3]int32{})
	require.NoError(t, err)
	assert.Equal(t, [3]int32{1, 2, -3}, got)

	got, err = goflat.Unflatten([]any{0.25}, []weight{1})
	require.NoError(t, err)
	assert.Equal(t, []weight{0.25}, got)
}

func TestUnflatten_PlaceholderInTypedContainer(t *testing.T) {
	x := goflat.NewSymbol("x")

	got, err := goflat.Unflatten([]any{1, x}, []float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, x}, got)

	got, err = goflat.Unflatten([]any{1, 2, x}, [][]float64{{0, 0}, {0}})
	require.NoError(t, err)
	assert.Equal(t, []any{[]float64{1, 2}, []any{x}}, got)
	assert.Same(t, x, got.([]any)[1].([]any)[0])

	got, err = goflat.Unflatten([]any{x, 2}, [2]int{})
	require.NoError(t, err)
	assert.Equal(t, []any{x, 2}, got)

	got, err = goflat.Unflatten([]any{3, 4}, [][]float64{{0}, {0}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3}, {4}}, got)
}

func TestUnflatten_InvalidLeaf(t *testing.T) {
	_, err := goflat.Unflatten([]any{1.0, "x"}, []any{1.0, 2.0})
	require.ErrorIs(t, err, goflat.ErrInvalidLeaf)
	iss, _ := goflat.AsIssues(err)
	assert.Equal(t, "/1", iss[0].Path)
	assert.Equal(t, "string", iss[0].Params["type"])
}

func TestUnflatten_Underflow(t *testing.T) {
	_, err := goflat.Unflatten([]any{1, 2}, []any{1.0, 2.0, 3.0})
	require.ErrorIs(t, err, goflat.ErrUnderflow)
	iss, _ := goflat.AsIssues(err)
	assert.Equal(t, "/2", iss[0].Path)
	assert.Equal(t, 1, iss[0].Params["need"])
	assert.Equal(t, 0, iss[0].Params["have"])

	_, err = goflat.Unflatten([]any{1, 2, 3}, goflat.Arange(4, goflat.Int))
	require.ErrorIs(t, err, goflat.ErrUnderflow)

	_, err = goflat.Unflatten(nil, 1.0)
	require.ErrorIs(t, err, goflat.ErrUnderflow)
}

func TestUnflatten_EmptyContainers(t *testing.T) {
	got, err := goflat.Unflatten(nil, []any{})
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)

	got, err = goflat.Unflatten([]any{}, goflat.Tuple{[]any{}, goflat.Tuple{}})
	require.NoError(t, err)
	assert.Equal(t, goflat.Tuple{[]any{}, goflat.Tuple{}}, got)
}

func TestModel_UnflattenPrefix(t *testing.T) {
	m, err := goflat.Compile([]any{0.0, 0.0})
	require.NoError(t, err)

	v, rest, err := m.UnflattenPrefix([]any{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, v)
	assert.Equal(t, []any{3, 4, 5}, rest)

	_, err = m.Unflatten([]any{1, 2, 3})
	require.True(t, errors.Is(err, goflat.ErrSizeMismatch))
	iss, _ := goflat.AsIssues(err)
	assert.Equal(t, 1, iss[0].Params["surplus"])
}

func TestModel_ConcurrentUse(t *testing.T) {
	model, err := goflat.Arange(16, goflat.Float64).Reshape(4, 4)
	require.NoError(t, err)
	m, err := goflat.Compile([]any{model, goflat.Tuple{1.0, 2.0}})
	require.NoError(t, err)
	flat := goflat.FlattenSlice([]any{model, goflat.Tuple{1.0, 2.0}})

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Unflatten(flat); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestUnflatten_DoesNotAliasModel(t *testing.T) {
	model := []any{[]any{1.0, 2.0}}
	got, err := goflat.Unflatten([]any{5.0, 6.0}, model)
	require.NoError(t, err)

	got.([]any)[0].([]any)[0] = 99.0
	assert.Equal(t, []any{[]any{1.0, 2.0}}, model)
}
