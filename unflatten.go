package goflat

import (
	"reflect"
)

// Unflatten arranges the elements of flat into the nested structure of model.
// Shapes, container kinds and numeric leaf types of the model are restored;
// placeholders are copied through untouched. A typed Go slice or array that
// receives a placeholder comes back as []any, since its element type cannot
// hold one. It fails with
// ErrUnsupportedModelType for models it cannot describe, ErrUnderflow when
// flat is too short and ErrSizeMismatch when flat has surplus elements.
func Unflatten(flat []any, model any) (any, error) {
	m, err := Compile(model)
	if err != nil {
		return nil, err
	}
	return m.Unflatten(flat)
}

// Unflatten reconstructs a value of the model's structure from flat, which
// must hold exactly m.Leaves() elements.
func (m *Model) Unflatten(flat []any) (any, error) {
	v, rest, err := m.UnflattenPrefix(flat)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, newIssue(RootPath(), CodeSizeMismatch, map[string]any{
			"want":    m.Leaves(),
			"got":     len(flat),
			"surplus": len(rest),
		})
	}
	return v, nil
}

// UnflattenPrefix reconstructs a value from the first m.Leaves() elements of
// flat and returns the unconsumed remainder, so several models can share one
// flat sequence.
func (m *Model) UnflattenPrefix(flat []any) (any, []any, error) {
	c := &cursor{flat: flat, tr: newTracer()}
	v, err := c.reconstruct(m.root, RootPath())
	if err != nil {
		return nil, nil, err
	}
	return v, flat[c.pos:], nil
}

// cursor walks the flat sequence front to back; consumed elements are never
// revisited.
type cursor struct {
	flat []any
	pos  int
	tr   tracer
}

func (c *cursor) take(n int, p PathRef) ([]any, error) {
	if have := len(c.flat) - c.pos; n > have {
		return nil, newIssue(p, CodeUnderflow, map[string]any{"need": n, "have": have})
	}
	out := c.flat[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

func (c *cursor) reconstruct(n Node, p PathRef) (any, error) {
	switch n := n.(type) {
	case *ScalarNode:
		vs, err := c.take(1, p)
		if err != nil {
			return nil, err
		}
		if IsSymbolic(vs[0]) {
			c.tr.trace("unflatten: placeholder at scalar position", "path", p.Pointer())
			return vs[0], nil
		}
		out, err := castTo(vs[0], n.Type)
		if err != nil {
			return nil, invalidLeaf(p, vs[0], n.Type.String())
		}
		return out, nil

	case *SymbolNode:
		vs, err := c.take(1, p)
		if err != nil {
			return nil, err
		}
		return vs[0], nil

	case *ScalarArrayNode:
		vs, err := c.take(1, p)
		if err != nil {
			return nil, err
		}
		a, err := Scalar0(vs[0], n.DType)
		if err != nil {
			return nil, invalidLeaf(p, vs[0], n.DType.String())
		}
		return a, nil

	case *ArrayNode:
		vs, err := c.take(n.size, p)
		if err != nil {
			return nil, err
		}
		c.tr.trace("unflatten: array fast path", "path", p.Pointer(), "shape", n.Shape, "size", n.size)
		return c.fillArray(n, vs, p)

	case *TupleNode:
		c.tr.trace("unflatten: tuple", "path", p.Pointer(), "arity", len(n.Items))
		out := make(Tuple, len(n.Items))
		for i, child := range n.Items {
			v, err := c.reconstruct(child, p.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case *SequenceNode:
		c.tr.trace("unflatten: sequence", "path", p.Pointer(), "len", len(n.Items))
		return c.fillSequence(n, p)
	}
	return nil, newIssue(p, CodeUnsupportedModelType, map[string]any{"type": reflect.TypeOf(n).String()})
}

// fillArray builds the fast-path result directly into its element buffer.
// A placeholder anywhere in the block switches the result to Object so no
// element is cast.
func (c *cursor) fillArray(n *ArrayNode, vs []any, p PathRef) (*Array, error) {
	data := make([]any, len(vs))
	dtype := n.DType
	for _, v := range vs {
		if IsSymbolic(v) {
			dtype = Object
			break
		}
	}
	for i, v := range vs {
		if dtype == Object {
			data[i] = v
			continue
		}
		cv, err := Cast(v, dtype)
		if err != nil {
			return nil, invalidLeaf(p.Index(i), v, dtype.String())
		}
		data[i] = cv
	}
	return &Array{shape: append([]int{}, n.Shape...), dtype: dtype, data: data}, nil
}

func (c *cursor) fillSequence(n *SequenceNode, p PathRef) (any, error) {
	items := make([]any, len(n.Items))
	for i, child := range n.Items {
		v, err := c.reconstruct(child, p.Index(i))
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	switch n.Form {
	case FormObjectArray:
		return &Array{shape: append([]int{}, n.Shape...), dtype: Object, data: items}, nil
	case FormSlice, FormGoArray:
		return c.packTyped(n, items, p)
	}
	return items, nil
}

// packTyped stores items in a value of the model's Go slice or array type.
// A placeholder, or a child container that fell back itself, cannot be
// stored there; the container then falls back to []any.
func (c *cursor) packTyped(n *SequenceNode, items []any, p PathRef) (any, error) {
	var out reflect.Value
	if n.Form == FormSlice {
		out = reflect.MakeSlice(n.GoType, len(items), len(items))
	} else {
		out = reflect.New(n.GoType).Elem()
	}
	elem := n.GoType.Elem()
	for i, v := range items {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Type().AssignableTo(elem) {
			out.Index(i).Set(rv)
			continue
		}
		if _, fellBack := v.([]any); IsSymbolic(v) || fellBack {
			c.tr.trace("unflatten: typed container holds a placeholder, using []any", "path", p.Pointer(), "type", n.GoType.String())
			return items, nil
		}
		return nil, invalidLeaf(p.Index(i), v, elem.String())
	}
	return out.Interface(), nil
}

func invalidLeaf(p PathRef, v any, want string) error {
	return newIssue(p, CodeInvalidLeaf, map[string]any{"type": typeName(v), "want": want})
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
