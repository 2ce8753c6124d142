package goflat

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnsupportedModelType = "unsupported_model_type"
	CodeSizeMismatch         = "size_mismatch"
	CodeUnderflow            = "underflow"
	CodeInvalidLeaf          = "invalid_leaf"
	CodeBadShape             = "bad_shape"
	CodeParseError           = "parse_error"
	CodeDuplicateKey         = "duplicate_key"
	CodeTruncated            = "truncated"
)

// Sentinels matched with errors.Is against any error returned by this package.
// Issues unwraps to the Cause of each entry.
var (
	// ErrUnsupportedModelType is returned when a model position is neither a
	// container, a numeric scalar nor a symbolic placeholder.
	ErrUnsupportedModelType = errors.New("goflat: unsupported type in the model")

	// ErrSizeMismatch is returned when the flat sequence has more elements than
	// the model requires.
	ErrSizeMismatch = errors.New("goflat: flattened sequence has more elements than the model requires")

	// ErrUnderflow is returned when the flat sequence runs out before the model
	// is satisfied.
	ErrUnderflow = errors.New("goflat: flattened sequence has fewer elements than the model requires")

	// ErrInvalidLeaf is returned when a flat element cannot be cast to the
	// model leaf's type.
	ErrInvalidLeaf = errors.New("goflat: invalid leaf")

	// ErrBadShape is returned by Array constructors for negative dimensions or
	// when the data length does not match the shape.
	ErrBadShape = errors.New("goflat: invalid shape")

	// ErrOutOfRange indicates an index outside the array bounds.
	ErrOutOfRange = errors.New("goflat: index out of range")
)

var codeSentinels = map[string]error{
	CodeUnsupportedModelType: ErrUnsupportedModelType,
	CodeSizeMismatch:         ErrSizeMismatch,
	CodeUnderflow:            ErrUnderflow,
	CodeInvalidLeaf:          ErrInvalidLeaf,
	CodeBadShape:             ErrBadShape,
}

// Issue represents a single codec failure.
type Issue struct {
	Path    string // JSON Pointer of the model position (for example: /0/2).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error, usually one of the sentinels.
	// Params carries structured parameters (e.g., {"type":"func()", "surplus":64})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of codec errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. underflow at /1/0: flattened sequence ...
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Message != "" {
			fmt.Fprintf(b, ": %s", it.Message)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the causes so errors.Is(err, ErrSizeMismatch) and friends work.
func (iss Issues) Unwrap() []error {
	out := make([]error, 0, len(iss))
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// newIssue builds a single-entry Issues for code at path.
func newIssue(p PathRef, code string, params map[string]any) Issues {
	return Issues{IssueAt(p, code, params)}
}
