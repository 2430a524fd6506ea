package pdfdocx

import "strings"

// DefaultFontFamily is used when a span carries no font name.
const DefaultFontFamily = "Calibri"

// fontFamily maps a substring of a normalized PDF font name to the Word
// font family that replaces it. Order matters: the first match wins, so
// longer keys that share a prefix with shorter ones come first.
type fontFamily struct {
	key    string
	family string
}

var fontTable = []fontFamily{
	{"arial", "Arial"},
	{"helvetica", "Arial"},
	{"timesnewroman", "Times New Roman"},
	{"times", "Times New Roman"},
	{"couriernew", "Courier New"},
	{"courier", "Courier New"},
	{"calibri", "Calibri"},
	{"verdana", "Verdana"},
	{"georgia", "Georgia"},
	{"tahoma", "Tahoma"},
	{"trebuchet", "Trebuchet MS"},
	{"impact", "Impact"},
	{"comicsans", "Comic Sans MS"},
	{"palatino", "Palatino Linotype"},
	{"garamond", "Garamond"},
	{"bookman", "Bookman Old Style"},
}

// NormalizeFontName maps a PDF font name to a canonical output font family.
//
// The name is lower-cased and stripped of spaces and hyphens, then matched
// against a fixed substring table. Without a match the first hyphen-delimited
// segment of the name is returned (dropping style suffixes like "-Bold"),
// after removing any subset prefix ("ABCDEF+"). Empty names map to
// DefaultFontFamily. Safe for concurrent use.
func NormalizeFontName(name string) string {
	if name == "" {
		return DefaultFontFamily
	}

	key := strings.ToLower(name)
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "-", "")
	for _, f := range fontTable {
		if strings.Contains(key, f.key) {
			return f.family
		}
	}

	base := stripSubsetPrefix(name)
	if i := strings.Index(base, "-"); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		return name
	}
	return base
}

// stripSubsetPrefix removes the six-letter tag PDF producers put in front of
// subsetted font names, e.g. "ABCDEF+Foo" -> "Foo".
func stripSubsetPrefix(name string) string {
	i := strings.IndexByte(name, '+')
	if i != 6 {
		return name
	}
	for _, r := range name[:i] {
		if r < 'A' || r > 'Z' {
			return name
		}
	}
	return name[i+1:]
}
