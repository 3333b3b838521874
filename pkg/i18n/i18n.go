// Package i18n holds the meter's display strings. French is the default;
// English is the only other language.
package i18n

import (
	"fmt"
	"strings"
)

// DefaultLang is used when a key has no entry for the requested language.
const DefaultLang = "fr"

// NormalizeLang reduces a locale such as "en-US" or "FR_cd" to its lowercase
// language code. Anything without a translation set becomes DefaultLang.
func NormalizeLang(locale string) string {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	switch lang {
	case "fr", "en":
		return lang
	}
	return DefaultLang
}

// Translate returns the string for key in lang, formatted with args when any
// are given. An unknown key comes back as the key itself.
func Translate(key, lang string, args ...interface{}) string {
	byLang, ok := translations[key]
	if !ok {
		return key
	}

	tmpl, ok := byLang[NormalizeLang(lang)]
	if !ok {
		if tmpl, ok = byLang[DefaultLang]; !ok {
			return key
		}
	}

	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
