package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Supported content languages. English is the fallback.
const (
	LangEN = "en"
	LangAR = "ar"
)

// DefaultLanguage is used when a requested translation is missing
const DefaultLanguage = LangEN

var supportedTags = []language.Tag{language.English, language.Arabic}

var languageMatcher = language.NewMatcher(supportedTags)

// SupportedLanguages returns the language codes content can be written in
func SupportedLanguages() []string {
	return []string{LangEN, LangAR}
}

// IsRTL reports whether the language is written right to left
func IsRTL(lang string) bool {
	return lang == LangAR
}

// NormalizeLanguage maps any BCP 47 tag ("ar-EG", "EN_us") onto a supported
// base language code. The second value is false when the tag is not supported.
func NormalizeLanguage(tag string) (string, bool) {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if tag == "" {
		return "", false
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", false
	}
	base, _ := t.Base()
	code := base.String()
	for _, s := range SupportedLanguages() {
		if s == code {
			return code, true
		}
	}
	return "", false
}

// NegotiateLanguage picks the best supported language for an Accept-Language
// header. Unknown or empty input yields DefaultLanguage.
func NegotiateLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, conf := languageMatcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	base, _ := supportedTags[idx].Base()
	return base.String()
}

// LocalizedText maps a language code to text, e.g. {"en": "Oud", "ar": "عود"}.
type LocalizedText map[string]string

// NewLocalizedText builds a LocalizedText, normalising language codes and
// dropping blank values. Unsupported language codes are rejected.
func NewLocalizedText(values map[string]string) (LocalizedText, error) {
	out := make(LocalizedText, len(values))
	for k, v := range values {
		code, ok := NormalizeLanguage(k)
		if !ok {
			return nil, fmt.Errorf("unsupported language %q", k)
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out[code] = v
	}
	return out, nil
}

// NewRequiredLocalizedText is NewLocalizedText that also requires at least one translation
func NewRequiredLocalizedText(values map[string]string) (LocalizedText, error) {
	lt, err := NewLocalizedText(values)
	if err != nil {
		return nil, err
	}
	if lt.IsEmpty() {
		return nil, errors.New("at least one translation is required")
	}
	return lt, nil
}

// Get returns the text for lang, falling back to English and then to any
// non-empty translation in stable language order.
func (t LocalizedText) Get(lang string) string {
	if len(t) == 0 {
		return ""
	}
	if code, ok := NormalizeLanguage(lang); ok {
		if v := t[code]; v != "" {
			return v
		}
	}
	if v := t[DefaultLanguage]; v != "" {
		return v
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if t[k] != "" {
			return t[k]
		}
	}
	return ""
}

// IsEmpty reports whether no translation has text
func (t LocalizedText) IsEmpty() bool {
	for _, v := range t {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Merge returns a copy of t with the non-empty values of other applied on top
func (t LocalizedText) Merge(other LocalizedText) LocalizedText {
	out := make(LocalizedText, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Contains reports whether any translation contains needle, case-insensitively
func (t LocalizedText) Contains(needle string) bool {
	needle = strings.ToLower(needle)
	for _, v := range t {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer, storing the map as JSON text
func (t LocalizedText) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (t *LocalizedText) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*t = LocalizedText{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into LocalizedText", value)
	}
	m := map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("invalid localized text: %w", err)
		}
	}
	*t = LocalizedText(m)
	return nil
}
