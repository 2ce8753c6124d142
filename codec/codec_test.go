package codec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goflat "github.com/reoring/goflat"
	"github.com/reoring/goflat/codec"
)

func params(t *testing.T) goflat.Tuple {
	t.Helper()
	w, err := goflat.Arange(6, goflat.Float64).Reshape(2, 3)
	require.NoError(t, err)
	return goflat.Tuple{w, []float32{0.5, 1.5}, 3}
}

func TestVector_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := params(t)
	v, err := codec.NewVector(p)
	require.NoError(t, err)
	assert.Equal(t, 9, v.Len())

	x, err := v.Encode(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 0.5, 1.5, 3}, x)

	x[8] = 7.9
	got, err := v.Decode(ctx, x)
	require.NoError(t, err)
	tup := got.(goflat.Tuple)
	assert.True(t, p[0].(*goflat.Array).Equal(tup[0].(*goflat.Array)))
	assert.Equal(t, []float32{0.5, 1.5}, tup[1])
	assert.Equal(t, 7, tup[2], "int leaves truncate toward zero")
}

func TestVector_EncodeErrors(t *testing.T) {
	ctx := context.Background()
	v, err := codec.NewVector([]any{1.0, 2.0})
	require.NoError(t, err)

	_, err = v.Encode(ctx, []any{1.0, goflat.NewSymbol("x")})
	require.ErrorIs(t, err, goflat.ErrInvalidLeaf)
	iss, _ := goflat.AsIssues(err)
	assert.Equal(t, "/1", iss[0].Path)

	_, err = v.Encode(ctx, []any{1.0, complex(1, 0)})
	require.ErrorIs(t, err, goflat.ErrInvalidLeaf)

	_, err = v.Encode(ctx, []any{1.0, 2.0, 3.0})
	require.ErrorIs(t, err, goflat.ErrSizeMismatch)

	_, err = v.Encode(ctx, []any{1.0})
	require.ErrorIs(t, err, goflat.ErrUnderflow)

	_, err = v.Decode(ctx, []float64{1})
	require.ErrorIs(t, err, goflat.ErrUnderflow)
}

func TestVector_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := codec.NewVector([]any{1.0})
	require.NoError(t, err)
	_, err = v.Decode(ctx, []float64{1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewVector_Unsupported(t *testing.T) {
	_, err := codec.NewVector([]any{"x"})
	require.ErrorIs(t, err, goflat.ErrUnsupportedModelType)
}

func TestBundle(t *testing.T) {
	ctx := context.Background()
	p := params(t)
	b, err := codec.NewBundle(p, []any{0.0}, []any{})
	require.NoError(t, err)
	assert.Equal(t, 10, b.Len())
	assert.Equal(t, []int{0, 9, 10, 10}, b.Offsets())

	x, err := b.Encode(ctx, []any{p, []any{-1.0}, []any{}})
	require.NoError(t, err)
	assert.Equal(t, -1.0, x[9])

	parts, err := b.Decode(ctx, x)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, []any{-1.0}, parts[1])
	assert.Equal(t, []any{}, parts[2])

	_, err = b.Decode(ctx, append(x, 0))
	require.ErrorIs(t, err, goflat.ErrSizeMismatch)

	_, err = b.Decode(ctx, x[:5])
	require.ErrorIs(t, err, goflat.ErrUnderflow)

	_, err = b.Encode(ctx, []any{p})
	require.Error(t, err)

	_, err = codec.NewBundle(1.0, func() {})
	require.ErrorIs(t, err, goflat.ErrUnsupportedModelType)
}
