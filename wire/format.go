package wire

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a document syntax.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatHCL
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatHCL:
		return "hcl"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat resolves a format name: json, yaml (or yml) and hcl, case
// insensitive.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "hcl":
		return FormatHCL, nil
	}
	return 0, fmt.Errorf("wire: unknown format %q", name)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, fmt.Errorf("wire: cannot infer format of %q without an extension", path)
	}
	return ParseFormat(ext)
}
