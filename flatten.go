package goflat

import (
	"iter"
	"reflect"
)

// Flatten iterates through an arbitrarily nested structure in depth-first,
// left-to-right order and yields its leaves unchanged.
//
// Arrays yield their elements in row-major order (object-dtype elements are
// flattened further); Tuple, []any and other Go slices and arrays are walked
// element by element. Strings, []byte, placeholders, maps and everything else
// are leaves. The walk is lazy and uses an explicit stack, so deep nesting
// does not grow the goroutine stack; breaking out of the range stops it.
func Flatten(x any) iter.Seq[any] {
	return func(yield func(any) bool) {
		stack := []frame{{at: func(int) any { return x }, n: 1}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.i >= top.n {
				stack = stack[:len(stack)-1]
				continue
			}
			v := top.at(top.i)
			top.i++
			if top.leaves {
				if !yield(v) {
					return
				}
				continue
			}
			if f, ok := children(v); ok {
				stack = append(stack, f)
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// FlattenSlice collects Flatten(x) into a slice.
func FlattenSlice(x any) []any {
	var out []any
	for v := range Flatten(x) {
		out = append(out, v)
	}
	if out == nil {
		out = []any{}
	}
	return out
}

// LeafCount returns the number of leaves Flatten(x) yields.
func LeafCount(x any) int {
	n := 0
	for range Flatten(x) {
		n++
	}
	return n
}

type frame struct {
	at   func(int) any
	n, i int
	// leaves marks frames whose elements are yielded without further
	// inspection: numeric array data and the item of a zero-dimensional array.
	leaves bool
}

// children reports whether v is a container for flattening and, if so, a
// frame over its elements.
func children(v any) (frame, bool) {
	switch x := v.(type) {
	case nil, string, []byte, Symbolic:
		return frame{}, false
	case *Array:
		if x == nil {
			return frame{}, false
		}
		return frame{at: func(i int) any { return x.data[i] }, n: len(x.data), leaves: x.dtype != Object || x.Ndim() == 0}, true
	case Tuple:
		return frame{at: func(i int) any { return x[i] }, n: len(x)}, true
	case []any:
		return frame{at: func(i int) any { return x[i] }, n: len(x)}, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type() == bytesType {
			return frame{}, false
		}
		return frame{at: func(i int) any { return rv.Index(i).Interface() }, n: rv.Len()}, true
	}
	return frame{}, false
}
