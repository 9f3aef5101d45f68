// Package langmeta provides language display metadata (native names and
// emoji flags) for the status table and the editor API.
package langmeta

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language describes one managed language.
type Language struct {
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
	Flag        string `json:"flag,omitempty"`
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 && len(parts[1]) == 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code. The code is
// kept as given; unknown codes display as themselves without a flag.
func Resolve(code string) Language {
	l := Language{Code: code, DisplayName: code}

	tag, err := language.Parse(canonicalize(code))
	if err != nil {
		return l
	}
	if name := display.Self.Name(tag); name != "" {
		l.DisplayName = capitalize(name)
	}
	if region, conf := tag.Region(); conf >= language.Low {
		l.Flag = Flag(region.String())
	}
	return l
}

// ResolveAll resolves every code, keeping order.
func ResolveAll(codes []string) []Language {
	out := make([]Language, len(codes))
	for i, c := range codes {
		out[i] = Resolve(c)
	}
	return out
}

// Flag converts a two-letter region code to its emoji flag, or returns ""
// for anything else (such as the numeric region 419).
func Flag(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range strings.ToUpper(region) {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + c - 'A')
	}
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToTitle(r)) + s[size:]
}
