package goflat

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Array is an n-dimensional array stored in row-major order (last axis
// fastest). A numeric dtype makes it a homogeneous array; Object holds
// arbitrary elements such as placeholders or ragged rows. An empty shape is a
// zero-dimensional array holding exactly one element.
//
// Arrays are treated as immutable by this package: accessors return copies.
type Array struct {
	shape []int
	dtype DType
	data  []any
}

// NewArray builds an array of the given shape. Numeric dtypes cast every
// element; Object stores elements as given. The data slice is copied.
func NewArray(shape []int, dtype DType, data []any) (*Array, error) {
	if dtype == Invalid {
		return nil, fmt.Errorf("%w: invalid dtype", ErrBadShape)
	}
	n, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: shape %v wants %d elements, got %d", ErrBadShape, shape, n, len(data))
	}
	out := make([]any, n)
	for i, v := range data {
		if dtype == Object {
			out[i] = v
			continue
		}
		cv, err := Cast(v, dtype)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = cv
	}
	return &Array{shape: append([]int{}, shape...), dtype: dtype, data: out}, nil
}

// MustArray is NewArray that panics on error; meant for literals in tests and
// examples.
func MustArray(shape []int, dtype DType, data []any) *Array {
	a, err := NewArray(shape, dtype, data)
	if err != nil {
		panic(err)
	}
	return a
}

// FromFloat64s builds a float64 array, reshaping data into shape.
func FromFloat64s(shape []int, data []float64) (*Array, error) {
	n, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: shape %v wants %d elements, got %d", ErrBadShape, shape, n, len(data))
	}
	out := make([]any, n)
	for i, f := range data {
		out[i] = f
	}
	return &Array{shape: append([]int{}, shape...), dtype: Float64, data: out}, nil
}

// Arange returns a 1-D array of n elements 0..n-1 of the given numeric dtype.
func Arange(n int, dtype DType) *Array {
	data := make([]any, n)
	for i := range data {
		data[i] = i
	}
	return MustArray([]int{n}, dtype, data)
}

// Zeros returns an array of shape filled with the zero value of dtype. Object
// arrays are filled with nil.
func Zeros(shape []int, dtype DType) (*Array, error) {
	n, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	data := make([]any, n)
	if dtype.Numeric() {
		zero := reflect.Zero(dtype.GoType()).Interface()
		for i := range data {
			data[i] = zero
		}
	}
	return NewArray(shape, dtype, data)
}

// Scalar0 wraps v in a zero-dimensional array. Placeholders force the Object
// dtype.
func Scalar0(v any, dtype DType) (*Array, error) {
	if IsSymbolic(v) {
		dtype = Object
	}
	return NewArray(nil, dtype, []any{v})
}

// Shape returns a copy of the array's shape.
func (a *Array) Shape() []int { return append([]int{}, a.shape...) }

// Ndim returns the number of dimensions (0 for a zero-dimensional array).
func (a *Array) Ndim() int { return len(a.shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return len(a.data) }

// DType returns the element type.
func (a *Array) DType() DType { return a.dtype }

// Data returns a copy of the elements in row-major order.
func (a *Array) Data() []any { return append([]any{}, a.data...) }

// Item returns the single element of a zero-dimensional array.
func (a *Array) Item() (any, error) {
	if len(a.shape) != 0 {
		return nil, fmt.Errorf("%w: Item on %d-dimensional array", ErrBadShape, len(a.shape))
	}
	return a.data[0], nil
}

// At returns the element at the given multi-index.
func (a *Array) At(idx ...int) (any, error) {
	if len(idx) != len(a.shape) {
		return nil, fmt.Errorf("%w: %d indices for %d dimensions", ErrOutOfRange, len(idx), len(a.shape))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= a.shape[i] {
			return nil, fmt.Errorf("%w: index %d on axis %d of size %d", ErrOutOfRange, x, i, a.shape[i])
		}
		off = off*a.shape[i] + x
	}
	return a.data[off], nil
}

// Reshape returns a new array with the same elements and the given shape.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	n, err := shapeSize(shape)
	if err != nil {
		return nil, err
	}
	if n != len(a.data) {
		return nil, fmt.Errorf("%w: cannot reshape %d elements into %v", ErrBadShape, len(a.data), shape)
	}
	return &Array{shape: append([]int{}, shape...), dtype: a.dtype, data: a.Data()}, nil
}

// Equal reports whether b has the same shape, dtype and elements. Elements
// that are themselves arrays are compared recursively; other elements with
// reflect.DeepEqual.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.dtype != b.dtype || len(a.shape) != len(b.shape) || len(a.data) != len(b.data) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	for i := range a.data {
		if !valuesEqual(a.data[i], b.data[i]) {
			return false
		}
	}
	return true
}

func (a *Array) String() string {
	var b strings.Builder
	b.WriteString("array(")
	a.writeAxis(&b, 0, 0)
	fmt.Fprintf(&b, ", dtype=%s)", a.dtype)
	return b.String()
}

func (a *Array) writeAxis(b *strings.Builder, axis, off int) {
	if axis == len(a.shape) {
		fmt.Fprint(b, a.data[off])
		return
	}
	stride := 1
	for _, d := range a.shape[axis+1:] {
		stride *= d
	}
	b.WriteByte('[')
	for i := 0; i < a.shape[axis]; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		a.writeAxis(b, axis+1, off+i*stride)
	}
	b.WriteByte(']')
}

func shapeSize(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", ErrBadShape, shape)
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, fmt.Errorf("%w: shape %v overflows int", ErrBadShape, shape)
		}
		n *= d
	}
	return n, nil
}

// valuesEqual compares nested values produced by this package.
func valuesEqual(x, y any) bool {
	ax, okx := x.(*Array)
	ay, oky := y.(*Array)
	if okx || oky {
		return okx && oky && ax.Equal(ay)
	}
	return reflect.DeepEqual(x, y)
}
