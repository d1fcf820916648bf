package term

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Graphemes splits s into user-perceived characters, respecting combining
// marks, so the line editor never cuts a grapheme cluster in half.
func Graphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Width returns the terminal display width of s: 0 for combining marks,
// 1 for most characters, 2 for wide CJK/emoji clusters. uniseg handles
// clustering and widths; go-runewidth's table is consulted only when
// uniseg reports a total width of 0 for s.
func Width(s string) int {
	w := uniseg.StringWidth(s)
	if w != 0 {
		return w
	}
	// uniseg returns 0 for a handful of ambiguous-width runes it treats
	// conservatively; fall back to go-runewidth's table for those.
	for _, r := range s {
		w += runewidth.RuneWidth(r)
	}
	return w
}

// RuneWidth is Width for a single rune.
func RuneWidth(r rune) int {
	return Width(string(r))
}
