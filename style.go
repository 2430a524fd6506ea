package pdfdocx

import (
	"golang.org/x/text/unicode/norm"
)

// Run size bounds, in points.
const (
	MinRunFontSize = 6.0
	MaxRunFontSize = 72.0
)

// StyleRun converts a span into a styled run. The second result is false
// when the span has no text and produces no run.
//
// Whitespace-only spans keep font and size but no other styling.
func StyleRun(span Span) (Run, bool) {
	if span.Text == "" {
		return Run{}, false
	}

	run := Run{
		Text:   norm.NFC.String(expandLigatureText(span.Text)),
		Font:   NormalizeFontName(span.FontName),
		SizePt: clamp(span.Size, MinRunFontSize, MaxRunFontSize),
	}
	if span.IsBlank() {
		return run, true
	}

	run.Bold = span.Flags.Has(FlagBold)
	run.Italic = span.Flags.Has(FlagItalic)
	run.Underline = span.Flags.Has(FlagUnderline)
	run.Color = unpackColor(span.Color)

	return run, true
}

// unpackColor splits a 24-bit packed color. Zero (black, the default) yields
// nil so the output format's default color is left in place.
func unpackColor(color int) *RGB {
	if color == 0 {
		return nil
	}
	return &RGB{
		R: uint8((color >> 16) & 0xFF),
		G: uint8((color >> 8) & 0xFF),
		B: uint8(color & 0xFF),
	}
}

// ligatureMap maps ligature unicode codepoints to their expanded forms
var ligatureMap = map[rune]string{
	0xFB00: "ff",
	0xFB01: "fi",
	0xFB02: "fl",
	0xFB03: "ffi",
	0xFB04: "ffl",
	0xFB05: "ft",
	0xFB06: "st",
}

// expandLigatureText expands ligature characters into their component letters
func expandLigatureText(text string) string {
	hasLigature := false
	for _, r := range text {
		if _, ok := ligatureMap[r]; ok {
			hasLigature = true
			break
		}
	}
	if !hasLigature {
		return text
	}

	var expanded []rune
	for _, r := range text {
		if expansion, ok := ligatureMap[r]; ok {
			expanded = append(expanded, []rune(expansion)...)
		} else {
			expanded = append(expanded, r)
		}
	}
	return string(expanded)
}
