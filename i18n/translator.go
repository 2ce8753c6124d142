package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "type" or "surplus"); templates reference it as {key}.
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"unsupported_model_type": "unsupported type in the model: {type}",
		"size_mismatch":          "flattened sequence has more elements than the model requires ({surplus} surplus)",
		"underflow":              "flattened sequence has fewer elements than the model requires (need {need}, have {have})",
		"invalid_leaf":           "cannot place {type} at a {want} leaf",
		"bad_shape":              "invalid shape",
		"parse_error":            "parse error",
		"duplicate_key":          "duplicate key",
		"truncated":              "truncated",
	},
	"ja": {
		"unsupported_model_type": "モデルに未対応の型があります: {type}",
		"size_mismatch":          "平坦化された列の要素数がモデルより多すぎます (余剰 {surplus})",
		"underflow":              "平坦化された列の要素数がモデルに足りません (必要 {need}, 残り {have})",
		"invalid_leaf":           "{type} を {want} の葉に配置できません",
		"bad_shape":              "形状が不正です",
		"parse_error":            "解析エラー",
		"duplicate_key":          "キーが重複しています",
		"truncated":              "打ち切られました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
