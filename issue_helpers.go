package goflat

import (
	"fmt"

	"github.com/reoring/goflat/i18n"
)

// IssueAt creates an Issue at the given path for code. The message comes from
// the i18n translator with params rendered as strings, and Cause is the
// sentinel registered for code (nil for codes without one).
func IssueAt(p PathRef, code string, params map[string]any) Issue {
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = fmt.Sprint(v)
	}
	return Issue{
		Path:    p.Pointer(),
		Code:    code,
		Message: i18n.T(code, data),
		Cause:   codeSentinels[code],
		Params:  params,
	}
}
