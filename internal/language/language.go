// Package language validates the optional decoding-language hint.
package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the hint value that requests auto-detection.
const Auto = "auto"

// supported lists the hints offered by the UI, in display order. The empty
// code means auto-detect.
var supported = []string{"", "pt", "en", "es", "fr", "de", "it", "ja", "zh", "ru"}

// Option is one selectable language hint.
type Option struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	EnglishName string `json:"englishName"`
}

// Options returns the fixed language set with display names.
func Options() []Option {
	out := make([]Option, 0, len(supported))
	for _, code := range supported {
		if code == "" {
			out = append(out, Option{Code: "", Name: "Auto-detect", EnglishName: "Auto-detect"})
			continue
		}
		tag := xlanguage.Make(code)
		out = append(out, Option{
			Code:        code,
			Name:        display.Self.Name(tag),
			EnglishName: display.English.Languages().Name(tag),
		})
	}
	return out
}

// Normalize maps a raw hint to a supported ISO 639-1 code. Empty and "auto"
// map to "" (auto-detect). Region tags such as "pt-BR" reduce to their base
// language. ok is false for anything outside the supported set.
func Normalize(raw string) (code string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, Auto) {
		return "", true
	}

	tag, err := xlanguage.Parse(raw)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == xlanguage.No {
		return "", false
	}

	code = base.String()
	if !IsSupported(code) {
		return "", false
	}
	return code, true
}

// IsSupported reports whether code is one of the offered hints.
func IsSupported(code string) bool {
	for _, c := range supported {
		if c == code {
			return true
		}
	}
	return false
}

// DisplayName returns the English name for a detected language code, or the
// upper-cased code when it cannot be resolved.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
