package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	goflat "github.com/reoring/goflat"
)

// Keys of the tagged objects that carry values a plain document cannot.
const (
	TagTuple  = "$tuple"
	TagArray  = "$array"
	TagSymbol = "$symbol"
)

// ErrDocument is the cause of every issue raised for a malformed document.
var ErrDocument = errors.New("wire: malformed document")

// FromTree converts a generic document tree (map[string]any, []any, numbers,
// strings, bools and nil) into codec values. Single-key objects tagged
// $tuple, $array or $symbol become goflat.Tuple, *goflat.Array and
// *goflat.Symbol; other objects stay maps with their values converted.
func FromTree(tree any) (any, error) {
	return fromTree(tree, goflat.RootPath())
}

func fromTree(v any, p goflat.PathRef) (any, error) {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, it := range x {
			cv, err := fromTree(it, p.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case map[string]any:
		if len(x) == 1 {
			for k, body := range x {
				switch k {
				case TagTuple:
					return tupleFromTree(body, p.Field(k))
				case TagArray:
					return arrayFromTree(body, p.Field(k))
				case TagSymbol:
					name, ok := body.(string)
					if !ok {
						return nil, docIssue(p.Field(k), goflat.CodeParseError, "symbol name must be a string")
					}
					return goflat.NewSymbol(name), nil
				}
			}
		}
		out := make(map[string]any, len(x))
		for k, it := range x {
			cv, err := fromTree(it, p.Field(k))
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	}
	return v, nil
}

func tupleFromTree(body any, p goflat.PathRef) (any, error) {
	items, ok := body.([]any)
	if !ok {
		return nil, docIssue(p, goflat.CodeParseError, "tuple body must be a sequence")
	}
	out, err := fromTree(items, p)
	if err != nil {
		return nil, err
	}
	return goflat.Tuple(out.([]any)), nil
}

func arrayFromTree(body any, p goflat.PathRef) (any, error) {
	m, ok := body.(map[string]any)
	if !ok {
		return nil, docIssue(p, goflat.CodeParseError, "array body must be an object with shape, dtype and data")
	}
	rawShape, ok := m["shape"].([]any)
	if !ok {
		return nil, docIssue(p.Field("shape"), goflat.CodeParseError, "shape must be a sequence of integers")
	}
	shape := make([]int, len(rawShape))
	for i, d := range rawShape {
		n, err := toInt(d)
		if err != nil {
			return nil, docIssue(p.Field("shape").Index(i), goflat.CodeParseError, err.Error())
		}
		shape[i] = n
	}
	dtype := goflat.Float64
	if name, ok := m["dtype"].(string); ok {
		d, err := goflat.ParseDType(name)
		if err != nil {
			return nil, docIssue(p.Field("dtype"), goflat.CodeParseError, err.Error())
		}
		dtype = d
	}
	data, ok := m["data"].([]any)
	if !ok {
		return nil, docIssue(p.Field("data"), goflat.CodeParseError, "data must be a sequence")
	}
	if dtype == goflat.Object {
		conv, err := fromTree(data, p.Field("data"))
		if err != nil {
			return nil, err
		}
		data = conv.([]any)
	}
	a, err := goflat.NewArray(shape, dtype, data)
	if err != nil {
		return nil, docIssue(p, goflat.CodeBadShape, err.Error())
	}
	return a, nil
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int64:
		return int(x), nil
	case int:
		return x, nil
	case float64:
		if x == float64(int(x)) {
			return int(x), nil
		}
	case json.Number:
		if i, err := strconv.Atoi(string(x)); err == nil {
			return i, nil
		}
	}
	return 0, fmt.Errorf("dimension %v is not an integer", v)
}

// ToTree is the inverse of FromTree: it renders codec values as a generic
// tree that JSON, YAML and HCL encoders accept. Complex numbers and values of
// unsupported types are rejected.
func ToTree(v any) (any, error) {
	return toTree(v, goflat.RootPath())
}

func toTree(v any, p goflat.PathRef) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, json.Number:
		return v, nil
	case goflat.Symbolic:
		return map[string]any{TagSymbol: x.SymbolName()}, nil
	case *goflat.Array:
		elems := x.Data()
		data, err := toTreeItems(len(elems), func(i int) any { return elems[i] }, p.Field(TagArray).Field("data"))
		if err != nil {
			return nil, err
		}
		shape := make([]any, x.Ndim())
		for i, d := range x.Shape() {
			shape[i] = int64(d)
		}
		return map[string]any{TagArray: map[string]any{
			"shape": shape,
			"dtype": x.DType().String(),
			"data":  data,
		}}, nil
	case goflat.Tuple:
		items, err := toTreeItems(len(x), func(i int) any { return x[i] }, p.Field(TagTuple))
		if err != nil {
			return nil, err
		}
		return map[string]any{TagTuple: items}, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, it := range x {
			cv, err := toTree(it, p.Field(k))
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes()), nil
		}
		return toTreeItems(rv.Len(), func(i int) any { return rv.Index(i).Interface() }, p)
	}
	if d, ok := goflat.DTypeOf(v); !ok || d == goflat.Complex64 || d == goflat.Complex128 {
		return nil, unsupportedValue(p, v)
	}
	return v, nil
}

func toTreeItems(n int, at func(int) any, p goflat.PathRef) ([]any, error) {
	out := make([]any, n)
	for i := range out {
		cv, err := toTree(at(i), p.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

// unsupportedValue reports a value with no document form: complex numbers
// and non-codec types.
func unsupportedValue(p goflat.PathRef, v any) error {
	return goflat.Issues{goflat.IssueAt(p, goflat.CodeUnsupportedModelType, map[string]any{"type": fmt.Sprintf("%T", v)})}
}

func docIssue(p goflat.PathRef, code, detail string) error {
	it := goflat.IssueAt(p, code, nil)
	it.Message += ": " + detail
	it.Cause = ErrDocument
	return goflat.Issues{it}
}
