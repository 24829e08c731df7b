// Package i18n provides the default messages for rule kinds reported in
// formstate.FieldError.Type.
package i18n

import (
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"
)

// Translator retrieves localized messages for rule kinds.
// data provides optional values to embed in the message (for example,
// "limit" or "type"); placeholders are written as {name}.
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalog = map[string]map[string]string{
	"en": {
		"required":  "this field is required",
		"min":       "must be at least {limit}",
		"max":       "must be at most {limit}",
		"minLength": "must be at least {limit} characters",
		"maxLength": "must be at most {limit} characters",
		"minItems":  "add at least {limit} entries",
		"maxItems":  "add at most {limit} entries",
		"pattern":   "invalid format",
		"format":    "must be a valid {format}",
		"type":      "must be a {type}",
		"enum":      "must be one of {values}",
		"validate":  "invalid value",
	},
	"ja": {
		"required":  "必須項目です",
		"min":       "{limit} 以上で入力してください",
		"max":       "{limit} 以下で入力してください",
		"minLength": "{limit} 文字以上で入力してください",
		"maxLength": "{limit} 文字以下で入力してください",
		"minItems":  "{limit} 件以上追加してください",
		"maxItems":  "{limit} 件以下にしてください",
		"pattern":   "形式が不正です",
		"format":    "{format} の形式で入力してください",
		"type":      "型が不正です",
		"enum":      "{values} のいずれかを選択してください",
		"validate":  "値が不正です",
	},
}

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalog[t.lang][code]
	if !ok {
		return code
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

// New returns the built-in Translator best matching lang, a BCP 47 tag or
// an Accept-Language value ("ja-JP", "fr, ja;q=0.8"). Unknown languages fall
// back to English.
func New(lang string) Translator {
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return dictTranslator{lang: "en"}
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return dictTranslator{lang: "en"}
	}
	base, _ := supported[idx].Base()
	return dictTranslator{lang: base.String()}
}

var current atomic.Value

func init() { current.Store(Translator(dictTranslator{lang: "en"})) }

// SetLanguage switches the built-in Translator language.
func SetLanguage(lang string) { current.Store(New(lang)) }

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores English.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(tr)
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	return current.Load().(Translator).Message(code, data)
}
