package codec

import (
	"context"
	"fmt"

	goflat "github.com/reoring/goflat"
)

// Vector is a Codec between []float64 and values shaped like its model.
// It is immutable and safe for concurrent use.
type Vector struct {
	m *goflat.Model
}

var _ Codec[[]float64, any] = (*Vector)(nil)

// NewVector compiles model once; unsupported models fail with
// goflat.ErrUnsupportedModelType.
func NewVector(model any) (*Vector, error) {
	m, err := goflat.Compile(model)
	if err != nil {
		return nil, err
	}
	return &Vector{m: m}, nil
}

// Model returns the compiled model.
func (v *Vector) Model() *goflat.Model { return v.m }

// Len is the vector length the codec reads and writes.
func (v *Vector) Len() int { return v.m.Leaves() }

// Decode reconstructs a value of the model's structure from x, which must
// hold exactly Len() elements.
func (v *Vector) Decode(ctx context.Context, x []float64) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.m.Unflatten(boxed(x))
}

// Encode flattens b into a new vector. Every leaf must be a real number;
// placeholders, complex numbers and non-numeric leaves fail with
// goflat.ErrInvalidLeaf.
func (v *Vector) Encode(ctx context.Context, b any) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return appendLeaves(make([]float64, 0, v.Len()), b, v.Len())
}

// appendLeaves appends the leaves of b to dst, requiring exactly want of them.
// Issue paths index into the appended block.
func appendLeaves(dst []float64, b any, want int) ([]float64, error) {
	n := 0
	for leaf := range goflat.Flatten(b) {
		if n < want {
			f, err := toFloat(leaf)
			if err != nil {
				return nil, goflat.Issues{goflat.IssueAt(goflat.RootPath().Index(n), goflat.CodeInvalidLeaf, map[string]any{
					"type": typeName(leaf),
					"want": "float64",
				})}
			}
			dst = append(dst, f)
		}
		n++
	}
	switch {
	case n > want:
		return nil, goflat.Issues{goflat.IssueAt(goflat.RootPath(), goflat.CodeSizeMismatch, map[string]any{
			"want": want, "got": n, "surplus": n - want,
		})}
	case n < want:
		return nil, goflat.Issues{goflat.IssueAt(goflat.RootPath().Index(n), goflat.CodeUnderflow, map[string]any{
			"need": want, "have": n,
		})}
	}
	return dst, nil
}

func toFloat(v any) (float64, error) {
	if d, ok := goflat.DTypeOf(v); !ok || d == goflat.Complex64 || d == goflat.Complex128 {
		return 0, goflat.ErrInvalidLeaf
	}
	f, err := goflat.Cast(v, goflat.Float64)
	if err != nil {
		return 0, err
	}
	return f.(float64), nil
}

func boxed(x []float64) []any {
	out := make([]any, len(x))
	for i, f := range x {
		out[i] = f
	}
	return out
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}
