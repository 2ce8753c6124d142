package codec

import (
	"context"
	"fmt"

	goflat "github.com/reoring/goflat"
)

// Bundle packs several models back to back into one vector, for example the
// parameter groups of one optimization problem.
type Bundle struct {
	parts   []*goflat.Model
	offsets []int
}

var _ Codec[[]float64, []any] = (*Bundle)(nil)

// NewBundle compiles every model; the first unsupported one fails the call.
func NewBundle(models ...any) (*Bundle, error) {
	b := &Bundle{offsets: []int{0}}
	for i, model := range models {
		m, err := goflat.Compile(model)
		if err != nil {
			return nil, fmt.Errorf("codec: model %d: %w", i, err)
		}
		b.parts = append(b.parts, m)
		b.offsets = append(b.offsets, b.offsets[i]+m.Leaves())
	}
	return b, nil
}

// Len is the total vector length.
func (b *Bundle) Len() int { return b.offsets[len(b.offsets)-1] }

// Offsets returns the part boundaries: part i occupies
// [Offsets()[i], Offsets()[i+1]).
func (b *Bundle) Offsets() []int { return append([]int{}, b.offsets...) }

// Decode splits x into one value per model. x must hold exactly Len()
// elements.
func (b *Bundle) Decode(ctx context.Context, x []float64) ([]any, error) {
	out := make([]any, len(b.parts))
	rest := boxed(x)
	for i, m := range b.parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, r, err := m.UnflattenPrefix(rest)
		if err != nil {
			return nil, fmt.Errorf("codec: part %d: %w", i, err)
		}
		out[i], rest = v, r
	}
	if len(rest) != 0 {
		return nil, goflat.Issues{goflat.IssueAt(goflat.RootPath(), goflat.CodeSizeMismatch, map[string]any{
			"want": b.Len(), "got": len(x), "surplus": len(rest),
		})}
	}
	return out, nil
}

// Encode concatenates the flattened values, one per model in order.
func (b *Bundle) Encode(ctx context.Context, vals []any) ([]float64, error) {
	if len(vals) != len(b.parts) {
		return nil, fmt.Errorf("codec: bundle has %d parts, got %d values", len(b.parts), len(vals))
	}
	dst := make([]float64, 0, b.Len())
	for i, v := range vals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		dst, err = appendLeaves(dst, v, b.parts[i].Leaves())
		if err != nil {
			return nil, fmt.Errorf("codec: part %d: %w", i, err)
		}
	}
	return dst, nil
}
