package ai

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var turkishFolds = strings.NewReplacer("ı", "i", "İ", "i", "I", "i")

// FoldName lowercases the name, strips diacritics and drops anything outside [a-z0-9].
// "Defne Öz" and "defneoz" fold to the same key.
func FoldName(name string) string {
	folded := turkishFolds.Replace(name)
	folded = strings.ToLower(folded)

	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(stripper, folded); err == nil {
		folded = out
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AllowList holds folded names allowed to use the gated mode.
type AllowList map[string]struct{}

// NewAllowList folds every entry; empty results are ignored.
func NewAllowList(names []string) AllowList {
	list := make(AllowList, len(names))
	for _, name := range names {
		if key := FoldName(name); key != "" {
			list[key] = struct{}{}
		}
	}
	return list
}

// Allows reports whether the profile's display name or username is on the list.
func (l AllowList) Allows(profile *Profile) bool {
	if profile == nil || len(l) == 0 {
		return false
	}
	for _, candidate := range []string{profile.DisplayName, profile.Username} {
		if key := FoldName(candidate); key != "" {
			if _, ok := l[key]; ok {
				return true
			}
		}
	}
	return false
}
