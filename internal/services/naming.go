package services

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	whitespaceRegex     = regexp.MustCompile(`\s+`)
	disallowedCharRegex = regexp.MustCompile(`[^\p{L}\p{M}\p{Nd}._-]`)
	repeatedDashRegex   = regexp.MustCompile(`-{2,}`)
)

// SanitizeFileName reduces an uploaded name to a safe single path segment.
// Directory components are dropped and whitespace becomes '-'. Letters and
// digits in any script are kept along with "._-"; everything else is removed
// and leading or trailing separators are trimmed.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}

	name = whitespaceRegex.ReplaceAllString(name, "-")
	name = disallowedCharRegex.ReplaceAllString(name, "")
	name = repeatedDashRegex.ReplaceAllString(name, "-")
	return strings.Trim(name, ".-_")
}

// splitExt splits name into base and extension (with the dot).
func splitExt(name string) (string, string) {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// BaseName returns name without its final extension.
func BaseName(name string) string {
	base, _ := splitExt(name)
	return base
}

// numberedName returns name for n == 0 and "base-n.ext" otherwise.
func numberedName(name string, n int) string {
	if n == 0 {
		return name
	}
	base, ext := splitExt(name)
	return fmt.Sprintf("%s-%d%s", base, n, ext)
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// FormatKitName turns "my_cool-kit.zip" into "My Cool Kit".
func FormatKitName(filename string) string {
	base := BaseName(filename)
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return titleCaser.String(base)
}

var sizeUnits = []string{"TB", "GB", "MB", "KB", "B"}

// HumanSize formats bytes with two decimals and a binary unit, e.g. "5.00 KB".
func HumanSize(bytes int64) string {
	if bytes <= 0 {
		return "0.00 B"
	}
	for i, unit := range sizeUnits {
		magnitude := int64(1) << (10 * uint(len(sizeUnits)-1-i))
		if bytes >= magnitude {
			return fmt.Sprintf("%.2f %s", float64(bytes)/float64(magnitude), unit)
		}
	}
	return fmt.Sprintf("%d B", bytes)
}
