package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/minios-linux/sitetext/i18n"
	"github.com/minios-linux/sitetext/langmeta"
)

// progressBar renders percent as a colored bar of the given width followed
// by the right-aligned percentage.
func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

// percentOf returns part/total as a whole percentage; an empty total is
// complete.
func percentOf(part, total int) int {
	if total == 0 {
		return 100
	}
	return part * 100 / total
}

// langColumnWidth is the widest language code in langs.
func langColumnWidth(langs []string) int {
	w := 0
	for _, l := range langs {
		w = max(w, utf8.RuneCountInString(l))
	}
	return w
}

// langCell renders the flag and code of lang padded to width. Languages
// without a region get two spaces where the flag would be.
func langCell(lang string, width int) string {
	flag := langmeta.Resolve(lang).Flag
	if flag == "" {
		flag = "  "
	}
	pad := width - utf8.RuneCountInString(lang)
	return flag + " " + lang + strings.Repeat(" ", max(0, pad))
}

// printKeys lists keys under a one-space-indented marker, at most limit of
// them unless verbose.
func printKeys(marker string, keys []string, limit int) {
	shown := keys
	if !verbose && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, k := range shown {
		fmt.Fprintf(stderr, "    %s %s\n", marker, k)
	}
	if rest := len(keys) - len(shown); rest > 0 {
		fmt.Fprintf(stderr, "    … "+i18n.N("%d more key", "%d more keys", rest)+"\n", rest)
	}
}
