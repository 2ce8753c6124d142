package wire

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	j "github.com/goccy/go-json"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"gopkg.in/yaml.v3"

	goflat "github.com/reoring/goflat"
	"github.com/reoring/goflat/ctyconv"
)

// Encode renders v as a document. JSON and HCL use the tagged objects for
// tuples, arrays and placeholders; YAML uses the !tuple, !array and !symbol
// tags. HCL output holds a single DefaultHCLAttribute attribute.
func Encode(v any, f Format) ([]byte, error) {
	tree, err := ToTree(v)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatJSON:
		out, err := j.MarshalIndent(tree, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("wire: encode json: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		return encodeYAML(v)
	case FormatHCL:
		val, err := ctyconv.FromNested(tree)
		if err != nil {
			return nil, fmt.Errorf("wire: encode hcl: %w", err)
		}
		file := hclwrite.NewEmptyFile()
		file.Body().SetAttributeValue(DefaultHCLAttribute, val)
		return file.Bytes(), nil
	}
	return nil, fmt.Errorf("wire: unknown format %v", f)
}

func encodeYAML(v any) ([]byte, error) {
	n, err := yamlNode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return nil, fmt.Errorf("wire: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("wire: encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// yamlNode builds the node for a value ToTree has already accepted.
func yamlNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case goflat.Symbolic:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!symbol", Value: x.SymbolName()}, nil
	case goflat.Tuple:
		n, err := yamlSeq([]any(x))
		if err != nil {
			return nil, err
		}
		n.Tag = "!tuple"
		return n, nil
	case *goflat.Array:
		shape := make([]any, x.Ndim())
		for i, d := range x.Shape() {
			shape[i] = d
		}
		sn, err := yamlSeq(shape)
		if err != nil {
			return nil, err
		}
		dn, err := yamlSeq(x.Data())
		if err != nil {
			return nil, err
		}
		sn.Style, dn.Style = yaml.FlowStyle, yaml.FlowStyle
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!array", Content: []*yaml.Node{
			yamlKey("shape"), sn,
			yamlKey("dtype"), {Kind: yaml.ScalarNode, Value: x.DType().String()},
			yamlKey("data"), dn,
		}}, nil
	case []any:
		return yamlSeq(x)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			c, err := yamlNode(x[k])
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, yamlKey(k), c)
		}
		return n, nil
	case float32:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(float64(x), 'g', -1, 32)}, nil
	}

	tree, err := ToTree(v)
	if err != nil {
		return nil, err
	}
	if items, ok := tree.([]any); ok {
		return yamlSeq(items)
	}
	n := &yaml.Node{}
	if err := n.Encode(tree); err != nil {
		return nil, fmt.Errorf("wire: encode yaml: %w", err)
	}
	return n, nil
}

func yamlSeq(items []any) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode}
	for _, it := range items {
		c, err := yamlNode(it)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, c)
	}
	return n, nil
}

func yamlKey(k string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: k}
}
