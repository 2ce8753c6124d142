package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string // literal text; NumberMode decides the Go value
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// NumberMode selects how number literals become Go values.
type NumberMode int

const (
	// NumberAuto yields int64 for integral literals that fit and float64
	// otherwise.
	NumberAuto NumberMode = iota
	// NumberFloat64 yields float64 for every literal.
	NumberFloat64
	// NumberJSONNumber keeps the literal as json.Number.
	NumberJSONNumber
)

// ErrTrailingData is returned when tokens follow the root value.
var ErrTrailingData = errors.New("engine: trailing data after document")

// DecodeAny builds a generic tree (map[string]any, []any, string, bool, nil
// and numbers per mode) from the token source. The whole source must hold
// exactly one value.
func DecodeAny(src TokenSource, mode NumberMode) (any, error) {
	d := decoder{src: src, conv: numberConv(mode)}
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	v, err := d.value(tok)
	if err != nil {
		return nil, err
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, ErrTrailingData
	}
	return v, nil
}

type decoder struct {
	src  TokenSource
	conv func(string) (any, error)
}

func (d decoder) value(tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return d.object()
	case KindBeginArray:
		return d.array()
	case KindString:
		return tok.String, nil
	case KindNumber:
		return d.conv(tok.Number)
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func (d decoder) object() (any, error) {
	m := make(map[string]any)
	for {
		tok, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt)
		if err != nil {
			return nil, err
		}
		m[tok.String] = v
	}
}

// array never returns a nil slice: an empty sequence is a valid container.
func (d decoder) array() (any, error) {
	arr := []any{}
	for {
		tok, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func numberConv(mode NumberMode) func(string) (any, error) {
	switch mode {
	case NumberJSONNumber:
		return func(s string) (any, error) { return json.Number(s), nil }
	case NumberFloat64:
		return parseFloat
	}
	return func(s string) (any, error) {
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i, nil
			}
		}
		return parseFloat(s)
	}
}

func parseFloat(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("engine: bad number %q: %w", s, err)
	}
	return f, nil
}
