package goflat

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// DType names the element type of an Array or the declared type of a scalar
// model leaf.
type DType int

const (
	Invalid DType = iota
	Bool
	Int
	Int8
	Int16
	Int32
	Int64
	Uint
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	Complex128
	Object // Opaque elements (placeholders, nested values, ragged rows).
)

var dtypeNames = [...]string{
	Invalid:    "invalid",
	Bool:       "bool",
	Int:        "int",
	Int8:       "int8",
	Int16:      "int16",
	Int32:      "int32",
	Int64:      "int64",
	Uint:       "uint",
	Uint8:      "uint8",
	Uint16:     "uint16",
	Uint32:     "uint32",
	Uint64:     "uint64",
	Float32:    "float32",
	Float64:    "float64",
	Complex64:  "complex64",
	Complex128: "complex128",
	Object:     "object",
}

var dtypeGoTypes = [...]reflect.Type{
	Bool:       reflect.TypeFor[bool](),
	Int:        reflect.TypeFor[int](),
	Int8:       reflect.TypeFor[int8](),
	Int16:      reflect.TypeFor[int16](),
	Int32:      reflect.TypeFor[int32](),
	Int64:      reflect.TypeFor[int64](),
	Uint:       reflect.TypeFor[uint](),
	Uint8:      reflect.TypeFor[uint8](),
	Uint16:     reflect.TypeFor[uint16](),
	Uint32:     reflect.TypeFor[uint32](),
	Uint64:     reflect.TypeFor[uint64](),
	Float32:    reflect.TypeFor[float32](),
	Float64:    reflect.TypeFor[float64](),
	Complex64:  reflect.TypeFor[complex64](),
	Complex128: reflect.TypeFor[complex128](),
}

func (d DType) String() string {
	if d < 0 || int(d) >= len(dtypeNames) {
		return "dtype(" + strconv.Itoa(int(d)) + ")"
	}
	return dtypeNames[d]
}

// Numeric reports whether d is one of the numeric (non-object) element types.
func (d DType) Numeric() bool { return d > Invalid && d < Object }

// GoType returns the Go type values of d are stored as; nil for Object and
// Invalid.
func (d DType) GoType() reflect.Type {
	if !d.Numeric() {
		return nil
	}
	return dtypeGoTypes[d]
}

// ParseDType resolves a dtype name such as "float64" or "object".
func ParseDType(name string) (DType, error) {
	for i, n := range dtypeNames {
		if n == name && DType(i) != Invalid {
			return DType(i), nil
		}
	}
	return Invalid, fmt.Errorf("goflat: unknown dtype %q", name)
}

// DTypeOf reports the dtype of a scalar value by its reflect kind, so named
// types such as `type Weight float64` resolve to their underlying dtype.
func DTypeOf(v any) (DType, bool) {
	if v == nil {
		return Invalid, false
	}
	return dtypeOfKind(reflect.TypeOf(v).Kind())
}

func dtypeOfKind(k reflect.Kind) (DType, bool) {
	switch k {
	case reflect.Bool:
		return Bool, true
	case reflect.Int:
		return Int, true
	case reflect.Int8:
		return Int8, true
	case reflect.Int16:
		return Int16, true
	case reflect.Int32:
		return Int32, true
	case reflect.Int64:
		return Int64, true
	case reflect.Uint:
		return Uint, true
	case reflect.Uint8:
		return Uint8, true
	case reflect.Uint16:
		return Uint16, true
	case reflect.Uint32:
		return Uint32, true
	case reflect.Uint64:
		return Uint64, true
	case reflect.Float32:
		return Float32, true
	case reflect.Float64:
		return Float64, true
	case reflect.Complex64:
		return Complex64, true
	case reflect.Complex128:
		return Complex128, true
	}
	return Invalid, false
}

// Cast converts a numeric value to dtype d. Accepted inputs are Go numeric
// kinds (including named types), bool and json.Number. Object returns v as is.
func Cast(v any, d DType) (any, error) {
	if d == Object {
		return v, nil
	}
	if !d.Numeric() {
		return nil, fmt.Errorf("goflat: cannot cast to %s", d)
	}
	c, err := toComplex(v)
	if err != nil {
		return nil, err
	}
	// Wide integers skip the float64 detour.
	if i, ok := exactInt(v); ok {
		switch d {
		case Int:
			return int(i), nil
		case Int64:
			return i, nil
		}
	}
	re := real(c)
	switch d {
	case Bool:
		return c != 0, nil
	case Int:
		return int(re), nil
	case Int8:
		return int8(re), nil
	case Int16:
		return int16(re), nil
	case Int32:
		return int32(re), nil
	case Int64:
		return int64(re), nil
	case Uint:
		return uint(re), nil
	case Uint8:
		return uint8(re), nil
	case Uint16:
		return uint16(re), nil
	case Uint32:
		return uint32(re), nil
	case Uint64:
		if u, ok := exactUint(v); ok {
			return u, nil
		}
		return uint64(re), nil
	case Float32:
		return float32(re), nil
	case Float64:
		return re, nil
	case Complex64:
		return complex64(c), nil
	case Complex128:
		return c, nil
	}
	return nil, fmt.Errorf("goflat: cannot cast to %s", d)
}

// castTo casts v to the Go type t, going through the dtype of t's kind and a
// reflect conversion for named types.
func castTo(v any, t reflect.Type) (any, error) {
	d, ok := dtypeOfKind(t.Kind())
	if !ok {
		return nil, fmt.Errorf("goflat: %s is not a numeric type", t)
	}
	out, err := Cast(v, d)
	if err != nil {
		return nil, err
	}
	if t == d.GoType() {
		return out, nil
	}
	return reflect.ValueOf(out).Convert(t).Interface(), nil
}

// toComplex widens any accepted numeric input to complex128.
func toComplex(v any) (complex128, error) {
	switch x := v.(type) {
	case json.Number:
		if c, err := strconv.ParseComplex(string(x), 128); err == nil {
			return c, nil
		}
		return 0, fmt.Errorf("goflat: cannot cast %q to a number", string(x))
	case nil:
		return 0, fmt.Errorf("goflat: cannot cast <nil> to a number")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return complex(float64(rv.Int()), 0), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return complex(float64(rv.Uint()), 0), nil
	case reflect.Float32, reflect.Float64:
		return complex(rv.Float(), 0), nil
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex(), nil
	}
	return 0, fmt.Errorf("goflat: cannot cast %T to a number", v)
}

// exactInt keeps full int64 precision for integer inputs that would lose bits
// through float64.
func exactInt(v any) (int64, bool) {
	if n, ok := v.(json.Number); ok {
		i, err := n.Int64()
		return i, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	}
	return 0, false
}

func exactUint(v any) (uint64, bool) {
	if n, ok := v.(json.Number); ok {
		u, err := strconv.ParseUint(string(n), 10, 64)
		return u, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	}
	return 0, false
}
