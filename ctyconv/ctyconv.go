// Package ctyconv converts between go-cty values and the nested Go values the
// goflat codec works on.
//
// cty keeps tuples (fixed arity, heterogeneous) apart from lists, which maps
// onto the Tuple/[]any distinction, and an unknown cty value is a natural
// symbolic placeholder.
package ctyconv

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	goflat "github.com/reoring/goflat"
)

// Opt tunes ToNested.
type Opt struct {
	// TupleAsSequence decodes cty tuples as []any instead of goflat.Tuple.
	// HCL bracket literals are tuples, so document decoding sets it.
	TupleAsSequence bool
}

// ToNested recursively converts v to its nested Go counterpart: numbers
// become int64 when whole and in range and float64 otherwise, lists and sets
// become []any, tuples goflat.Tuple (or []any), objects and maps
// map[string]any, nulls nil. Unknown values become *goflat.Symbol named after
// their position, with the cty value as Ref.
func ToNested(v cty.Value, opt Opt) (any, error) {
	return toNested(v, opt, goflat.RootPath())
}

func toNested(v cty.Value, opt Opt, p goflat.PathRef) (any, error) {
	v, _ = v.UnmarkDeep()
	if !v.IsKnown() {
		return &goflat.Symbol{Name: p.Pointer(), Ref: v}, nil
	}
	if v.IsNull() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var i int64
		if err := gocty.FromCtyValue(v, &i); err == nil {
			return i, nil
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("ctyconv: %s: could not convert number to float64: %w", p.Pointer(), err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		items := make([]any, 0, v.LengthInt())
		for it, i := v.ElementIterator(), 0; it.Next(); i++ {
			_, ev := it.Element()
			nv, err := toNested(ev, opt, p.Index(i))
			if err != nil {
				return nil, err
			}
			items = append(items, nv)
		}
		if ty.IsTupleType() && !opt.TupleAsSequence {
			return goflat.Tuple(items), nil
		}
		return items, nil

	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			name := k.AsString()
			nv, err := toNested(ev, opt, p.Field(name))
			if err != nil {
				return nil, err
			}
			m[name] = nv
		}
		return m, nil
	}
	return nil, fmt.Errorf("ctyconv: %s: unsupported cty type %s", p.Pointer(), ty.FriendlyName())
}

// FromNested converts a nested Go value to cty. Every sequence (Tuple, []any
// and other Go slices and arrays) becomes a cty tuple, arrays become nested
// tuples following their shape, maps become objects and placeholders unknown
// numbers.
func FromNested(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case goflat.Symbolic:
		return cty.UnknownVal(cty.Number), nil
	case string:
		return cty.StringVal(x), nil
	case json.Number:
		return cty.ParseNumberVal(string(x))
	case *goflat.Array:
		return fromArray(x)
	case map[string]any:
		attrs := make(map[string]cty.Value, len(x))
		for _, k := range sortedKeys(x) {
			cv, err := FromNested(x[k])
			if err != nil {
				return cty.NilVal, fmt.Errorf("in attribute '%s': %w", k, err)
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return cty.StringVal(string(rv.Bytes())), nil
		}
		items := make([]cty.Value, rv.Len())
		for i := range items {
			cv, err := FromNested(rv.Index(i).Interface())
			if err != nil {
				return cty.NilVal, err
			}
			items[i] = cv
		}
		return cty.TupleVal(items), nil
	}

	d, ok := goflat.DTypeOf(v)
	switch {
	case !ok:
		return cty.NilVal, fmt.Errorf("ctyconv: unsupported value of type %T", v)
	case d == goflat.Bool:
		return gocty.ToCtyValue(v, cty.Bool)
	case d == goflat.Complex64 || d == goflat.Complex128:
		return cty.NilVal, fmt.Errorf("ctyconv: complex numbers have no cty representation")
	case d == goflat.Float32 || d == goflat.Float64:
		if math.IsNaN(reflect.ValueOf(v).Float()) {
			return cty.NilVal, fmt.Errorf("ctyconv: %w: NaN has no cty representation", goflat.ErrInvalidLeaf)
		}
	}
	return gocty.ToCtyValue(v, cty.Number)
}

func fromArray(a *goflat.Array) (cty.Value, error) {
	data := a.Data()
	if a.Ndim() == 0 {
		return FromNested(data[0])
	}
	shape := a.Shape()
	var build func(axis, off int) (cty.Value, error)
	build = func(axis, off int) (cty.Value, error) {
		if axis == len(shape) {
			return FromNested(data[off])
		}
		stride := 1
		for _, d := range shape[axis+1:] {
			stride *= d
		}
		items := make([]cty.Value, shape[axis])
		for i := range items {
			cv, err := build(axis+1, off+i*stride)
			if err != nil {
				return cty.NilVal, err
			}
			items[i] = cv
		}
		return cty.TupleVal(items), nil
	}
	return build(0, 0)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
