package goflat

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// NodeKind identifies a compiled model node variant.
type NodeKind int

const (
	NodeScalar      NodeKind = iota // numeric leaf, cast on reconstruction
	NodeSymbol                      // placeholder leaf, copied verbatim
	NodeScalarArray                 // zero-dimensional array
	NodeArray                       // homogeneous numeric array (fast path)
	NodeTuple                       // fixed-arity tuple
	NodeSequence                    // ordered sequence or object-dtype array
)

func (k NodeKind) String() string {
	switch k {
	case NodeScalar:
		return "scalar"
	case NodeSymbol:
		return "symbol"
	case NodeScalarArray:
		return "scalar_array"
	case NodeArray:
		return "array"
	case NodeTuple:
		return "tuple"
	case NodeSequence:
		return "sequence"
	}
	return "node(" + strconv.Itoa(int(k)) + ")"
}

// Node is a compiled model position. The set of implementations is closed:
// *ScalarNode, *SymbolNode, *ScalarArrayNode, *ArrayNode, *TupleNode and
// *SequenceNode. Each variant knows upfront which container its
// reconstruction produces.
type Node interface {
	Kind() NodeKind
	// Leaves is the number of flat elements the node consumes.
	Leaves() int
	String() string
	isNode()
}

// ScalarNode is a numeric model leaf; Type is the Go type the consumed
// element is cast to.
type ScalarNode struct {
	Type reflect.Type
}

// SymbolNode is a placeholder model leaf.
type SymbolNode struct{}

// ScalarArrayNode is a zero-dimensional array model.
type ScalarArrayNode struct {
	DType DType
}

// ArrayNode is a homogeneous numeric array model with a non-empty shape.
type ArrayNode struct {
	Shape []int
	DType DType
	size  int
}

// TupleNode is a fixed-arity tuple model.
type TupleNode struct {
	Items  []Node
	leaves int
}

// SequenceForm selects the container a SequenceNode reconstructs into.
type SequenceForm int

const (
	FormList        SequenceForm = iota // []any
	FormSlice                           // typed Go slice, GoType
	FormGoArray                         // Go array type, GoType
	FormObjectArray                     // *Array of dtype Object with Shape
)

// SequenceNode is an ordered container model: a []any, a typed Go slice or
// array, or an object-dtype (ragged) Array.
type SequenceNode struct {
	Form   SequenceForm
	Items  []Node
	Shape  []int        // FormObjectArray only
	GoType reflect.Type // FormSlice and FormGoArray only
	leaves int
}

func (*ScalarNode) Kind() NodeKind      { return NodeScalar }
func (*SymbolNode) Kind() NodeKind      { return NodeSymbol }
func (*ScalarArrayNode) Kind() NodeKind { return NodeScalarArray }
func (*ArrayNode) Kind() NodeKind       { return NodeArray }
func (*TupleNode) Kind() NodeKind       { return NodeTuple }
func (*SequenceNode) Kind() NodeKind    { return NodeSequence }

func (*ScalarNode) Leaves() int      { return 1 }
func (*SymbolNode) Leaves() int      { return 1 }
func (*ScalarArrayNode) Leaves() int { return 1 }
func (n *ArrayNode) Leaves() int     { return n.size }
func (n *TupleNode) Leaves() int     { return n.leaves }
func (n *SequenceNode) Leaves() int  { return n.leaves }

func (*ScalarNode) isNode()      {}
func (*SymbolNode) isNode()      {}
func (*ScalarArrayNode) isNode() {}
func (*ArrayNode) isNode()       {}
func (*TupleNode) isNode()       {}
func (*SequenceNode) isNode()    {}

func (n *ScalarNode) String() string      { return n.Type.String() }
func (*SymbolNode) String() string        { return "symbol" }
func (n *ScalarArrayNode) String() string { return "array[]" + n.DType.String() }
func (n *ArrayNode) String() string       { return "array" + shapeString(n.Shape) + n.DType.String() }
func (n *TupleNode) String() string       { return "tuple(" + joinNodes(n.Items) + ")" }

func (n *SequenceNode) String() string {
	switch n.Form {
	case FormSlice, FormGoArray:
		return n.GoType.String() + "(" + joinNodes(n.Items) + ")"
	case FormObjectArray:
		return "array" + shapeString(n.Shape) + "object(" + joinNodes(n.Items) + ")"
	}
	return "list(" + joinNodes(n.Items) + ")"
}

func joinNodes(items []Node) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Model is a compiled reconstruction template. It is immutable and safe for
// concurrent use.
type Model struct {
	root Node
}

// Root returns the compiled root node.
func (m *Model) Root() Node { return m.root }

// Leaves returns the number of flat elements the model consumes.
func (m *Model) Leaves() int { return m.root.Leaves() }

func (m *Model) String() string { return m.root.String() }

// Compile inspects a model value once and returns its node tree. Only the
// model's structure and leaf types are read, never its numeric content.
// Unsupported positions fail with ErrUnsupportedModelType and the JSON Pointer
// of the first offending position.
func Compile(model any) (*Model, error) {
	root, err := compileNode(model, RootPath())
	if err != nil {
		return nil, err
	}
	return &Model{root: root}, nil
}

var bytesType = reflect.TypeFor[[]byte]()

func compileNode(v any, p PathRef) (Node, error) {
	// Placeholders are checked first: a Symbolic value is a leaf whatever its
	// underlying representation.
	switch x := v.(type) {
	case nil:
		return nil, unsupported(p, v)
	case Symbolic:
		return &SymbolNode{}, nil
	case *Array:
		if x == nil {
			return nil, unsupported(p, v)
		}
		return compileArray(x, p)
	case Tuple:
		items, leaves, err := compileItems(len(x), func(i int) any { return x[i] }, p)
		if err != nil {
			return nil, err
		}
		return &TupleNode{Items: items, leaves: leaves}, nil
	case []any:
		items, leaves, err := compileItems(len(x), func(i int) any { return x[i] }, p)
		if err != nil {
			return nil, err
		}
		return &SequenceNode{Form: FormList, Items: items, leaves: leaves}, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type() == bytesType {
			return nil, unsupported(p, v)
		}
		form := FormSlice
		if rv.Kind() == reflect.Array {
			form = FormGoArray
		}
		items, leaves, err := compileItems(rv.Len(), func(i int) any { return rv.Index(i).Interface() }, p)
		if err != nil {
			return nil, err
		}
		return &SequenceNode{Form: form, Items: items, GoType: rv.Type(), leaves: leaves}, nil
	}
	if _, ok := dtypeOfKind(rv.Kind()); ok {
		return &ScalarNode{Type: rv.Type()}, nil
	}
	return nil, unsupported(p, v)
}

func compileArray(a *Array, p PathRef) (Node, error) {
	switch {
	case a.Ndim() == 0:
		return &ScalarArrayNode{DType: a.dtype}, nil
	case a.dtype != Object:
		return &ArrayNode{Shape: a.Shape(), DType: a.dtype, size: a.Size()}, nil
	}
	items, leaves, err := compileItems(len(a.data), func(i int) any { return a.data[i] }, p)
	if err != nil {
		return nil, err
	}
	return &SequenceNode{Form: FormObjectArray, Items: items, Shape: a.Shape(), leaves: leaves}, nil
}

func compileItems(n int, at func(int) any, p PathRef) ([]Node, int, error) {
	items := make([]Node, n)
	leaves := 0
	for i := 0; i < n; i++ {
		child, err := compileNode(at(i), p.Index(i))
		if err != nil {
			return nil, 0, err
		}
		items[i] = child
		leaves += child.Leaves()
	}
	return items, leaves, nil
}

func unsupported(p PathRef, v any) error {
	return newIssue(p, CodeUnsupportedModelType, map[string]any{"type": fmt.Sprintf("%T", v)})
}
