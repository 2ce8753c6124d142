package goflat

import (
	"strconv"
	"strings"
)

// PathRef builds JSON Pointer paths in a chain-safe way. Model positions are
// addressed by child index, so a path like /0/2 names the third child of the
// first child of the root.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
}

// RootPath returns the PathRef of the root model position.
func RootPath() PathRef { return &pathRef{parts: nil} }

// ParsePath builds a PathRef from a JSON Pointer string.
func ParsePath(path string) PathRef {
	if path == "" || path == "/" {
		return RootPath()
	}
	// naive split on '/', ignoring first empty due to leading '/'
	parts := []string{}
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return &pathRef{parts: parts}
}

type pathRef struct {
	parts []string
}

func (p *pathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return &pathRef{parts: append(append([]string{}, p.parts...), esc)}
}

func (p *pathRef) Index(i int) PathRef {
	return &pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p *pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}
