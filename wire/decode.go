package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	goflat "github.com/reoring/goflat"
	"github.com/reoring/goflat/ctyconv"
	eng "github.com/reoring/goflat/internal/engine"
	"github.com/reoring/goflat/source/gojson"
)

// NumberMode selects the Go type of decoded numbers.
type NumberMode int

const (
	// NumberAuto yields int64 for integral literals and float64 otherwise.
	NumberAuto NumberMode = iota
	// NumberFloat64 yields float64 for every number.
	NumberFloat64
	// NumberJSONNumber keeps the literal text as json.Number.
	NumberJSONNumber
)

// DefaultHCLAttribute is the attribute holding the document in HCL files.
const DefaultHCLAttribute = "value"

// DecodeOpt tunes document decoding. The zero value applies no limits.
type DecodeOpt struct {
	MaxDepth     int   // maximum container nesting; 0 means unlimited
	MaxBytes     int64 // maximum input size; 0 means unlimited
	Numbers      NumberMode
	HCLAttribute string // defaults to DefaultHCLAttribute
	Filename     string // used in HCL diagnostics
}

// Decode dispatches on f.
func Decode(data []byte, f Format, opt DecodeOpt) (any, error) {
	switch f {
	case FormatJSON:
		return DecodeJSON(data, opt)
	case FormatYAML:
		return DecodeYAML(data, opt)
	case FormatHCL:
		name := opt.Filename
		if name == "" {
			name = "input.hcl"
		}
		return DecodeHCL(data, name, opt)
	}
	return nil, fmt.Errorf("wire: unknown format %v", f)
}

// DecodeJSON decodes a JSON document into codec values. Duplicate object keys,
// nesting beyond MaxDepth and input beyond MaxBytes are errors.
func DecodeJSON(data []byte, opt DecodeOpt) (any, error) {
	src := eng.WrapWithEnforcement(gojson.NewBytes(data), eng.EnforceOptions{
		OnDuplicate: eng.DupError,
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
	})
	tree, err := eng.DecodeAny(src, eng.NumberMode(opt.Numbers))
	if err != nil {
		return nil, parseIssue(err)
	}
	return FromTree(tree)
}

// DecodeYAML decodes a single YAML document. Besides the tagged objects, the
// local tags !tuple (sequence), !array (mapping) and !symbol (scalar) are
// accepted.
func DecodeYAML(data []byte, opt DecodeOpt) (any, error) {
	if err := checkBytes(data, opt); err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, parseIssue(err)
	}
	if len(doc.Content) == 0 {
		return nil, docIssue(goflat.RootPath(), goflat.CodeParseError, "empty document")
	}
	y := &yamlDecoder{opt: opt, budget: max(minYAMLNodes, yamlNodesPerByte*len(data))}
	tree, err := y.node(doc.Content[0], goflat.RootPath(), 0)
	if err != nil {
		return nil, err
	}
	return FromTree(tree)
}

// Aliases are expanded on every reference, so the number of visited nodes is
// capped relative to the input size.
const (
	minYAMLNodes     = 1 << 16
	yamlNodesPerByte = 64
)

type yamlDecoder struct {
	opt    DecodeOpt
	budget int
	nodes  int
}

func (y *yamlDecoder) node(n *yaml.Node, p goflat.PathRef, depth int) (any, error) {
	y.nodes++
	if y.nodes > y.budget {
		return nil, docIssue(p, goflat.CodeParseError, "alias expansion exceeds "+strconv.Itoa(y.budget)+" nodes")
	}
	switch n.Kind {
	case yaml.AliasNode:
		return y.node(n.Alias, p, depth)

	case yaml.SequenceNode:
		if err := y.enter(p, depth); err != nil {
			return nil, err
		}
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := y.node(c, p.Index(i), depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		if n.Tag == "!tuple" {
			return map[string]any{TagTuple: items}, nil
		}
		return items, nil

	case yaml.MappingNode:
		if err := y.enter(p, depth); err != nil {
			return nil, err
		}
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i].Value
			if _, dup := m[k]; dup {
				return nil, docIssue(p.Field(k), goflat.CodeDuplicateKey, "key '"+k+"' duplicated")
			}
			v, err := y.node(n.Content[i+1], p.Field(k), depth+1)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		if n.Tag == "!array" {
			return map[string]any{TagArray: m}, nil
		}
		return m, nil

	case yaml.ScalarNode:
		return y.scalar(n, p)
	}
	return nil, docIssue(p, goflat.CodeParseError, "unexpected YAML node")
}

func (y *yamlDecoder) enter(p goflat.PathRef, depth int) error {
	if y.opt.MaxDepth > 0 && depth >= y.opt.MaxDepth {
		return docIssue(p, goflat.CodeParseError, "max depth "+strconv.Itoa(y.opt.MaxDepth)+" exceeded")
	}
	return nil
}

func (y *yamlDecoder) scalar(n *yaml.Node, p goflat.PathRef) (any, error) {
	if n.Tag == "!symbol" {
		return map[string]any{TagSymbol: n.Value}, nil
	}
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, docIssue(p, goflat.CodeParseError, err.Error())
		}
		return b, nil
	case "!!int", "!!float":
		if y.opt.Numbers == NumberJSONNumber {
			return json.Number(n.Value), nil
		}
		if n.ShortTag() == "!!int" && y.opt.Numbers == NumberAuto {
			var i int64
			if err := n.Decode(&i); err == nil {
				return i, nil
			}
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, docIssue(p, goflat.CodeParseError, err.Error())
		}
		return f, nil
	}
	return n.Value, nil
}

// DecodeHCL decodes the expression of one top-level attribute of an HCL file
// (opt.HCLAttribute, "value" by default). Bracket literals are sequences;
// tuples, arrays and placeholders use the tagged object forms. The expression
// is evaluated without variables or functions.
func DecodeHCL(data []byte, filename string, opt DecodeOpt) (any, error) {
	if err := checkBytes(data, opt); err != nil {
		return nil, err
	}
	name := opt.HCLAttribute
	if name == "" {
		name = DefaultHCLAttribute
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, parseIssue(diags)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, parseIssue(diags)
	}
	attr, ok := attrs[name]
	if !ok {
		return nil, docIssue(goflat.RootPath(), goflat.CodeParseError, fmt.Sprintf("attribute %q not found in %s", name, filename))
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, parseIssue(diags)
	}

	tree, err := ctyconv.ToNested(val, ctyconv.Opt{TupleAsSequence: true})
	if err != nil {
		return nil, parseIssue(err)
	}
	if opt.MaxDepth > 0 {
		if p, deep := tooDeep(tree, goflat.RootPath(), 0, opt.MaxDepth); deep {
			return nil, docIssue(p, goflat.CodeParseError, "max depth "+strconv.Itoa(opt.MaxDepth)+" exceeded")
		}
	}
	return FromTree(applyNumbers(tree, opt.Numbers))
}

// tooDeep reports the first container nested deeper than limit.
func tooDeep(v any, p goflat.PathRef, depth, limit int) (goflat.PathRef, bool) {
	switch x := v.(type) {
	case []any:
		if depth >= limit {
			return p, true
		}
		for i, it := range x {
			if q, deep := tooDeep(it, p.Index(i), depth+1, limit); deep {
				return q, true
			}
		}
	case map[string]any:
		if depth >= limit {
			return p, true
		}
		for k, it := range x {
			if q, deep := tooDeep(it, p.Field(k), depth+1, limit); deep {
				return q, true
			}
		}
	}
	return nil, false
}

// applyNumbers rewrites the int64/float64 numbers of an HCL tree per mode.
func applyNumbers(v any, mode NumberMode) any {
	if mode == NumberAuto {
		return v
	}
	switch x := v.(type) {
	case []any:
		for i, it := range x {
			x[i] = applyNumbers(it, mode)
		}
	case map[string]any:
		for k, it := range x {
			x[k] = applyNumbers(it, mode)
		}
	case int64:
		if mode == NumberFloat64 {
			return float64(x)
		}
		return json.Number(strconv.FormatInt(x, 10))
	case float64:
		if mode == NumberJSONNumber {
			return json.Number(strconv.FormatFloat(x, 'g', -1, 64))
		}
	}
	return v
}

func checkBytes(data []byte, opt DecodeOpt) error {
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return docIssue(goflat.RootPath(), goflat.CodeTruncated, "max bytes "+strconv.FormatInt(opt.MaxBytes, 10)+" exceeded")
	}
	return nil
}

// parseIssue maps syntax errors of any decoder to a parse_error issue;
// enforcement failures keep their own code and path.
func parseIssue(err error) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		it := goflat.IssueAt(goflat.ParsePath(ie.Path), ie.Code, nil)
		it.Message += ": " + ie.Message
		it.Cause = ErrDocument
		return goflat.Issues{it}
	}
	it := goflat.IssueAt(goflat.RootPath(), goflat.CodeParseError, nil)
	it.Message += ": " + err.Error()
	it.Cause = fmt.Errorf("%w: %w", ErrDocument, err)
	return goflat.Issues{it}
}
