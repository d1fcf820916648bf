// Package theme maps semantic chat roles to ANSI colors and renders
// message events into the byte strings written to a session's PTY.
package theme

import (
	"chatd/term"

	"github.com/lucasb-eyer/go-colorful"
)

// Role is a semantic element a theme assigns a color to.
type Role string

const (
	RoleSystem    Role = "system"
	RoleError     Role = "error"
	RoleAnnounce  Role = "announce"
	RoleUsername  Role = "username"
	RoleEmote     Role = "emote"
	RolePrivate   Role = "private"
	RoleTimestamp Role = "timestamp"
)

// Theme maps roles to SGR codes. Usernames additionally get a stable
// per-fingerprint color from a palette, layered on top of RoleUsername's
// base styling (bold, etc).
type Theme struct {
	Name    string
	colors  map[Role][]term.SGR
	palette []term.SGR
}

// Registry holds the built-in themes, keyed by name.
var Registry = map[string]*Theme{
	"mono":   monoTheme(),
	"colors": colorsTheme(),
	"hacker": hackerTheme(),
}

// Names lists registered theme names; used by /theme list and its
// completer.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for n := range Registry {
		names = append(names, n)
	}
	return names
}

// Lookup returns the named theme, or nil if it doesn't exist.
func Lookup(name string) *Theme {
	return Registry[name]
}

func monoTheme() *Theme {
	return &Theme{
		Name: "mono",
		colors: map[Role][]term.SGR{
			RoleSystem:    {term.Bold},
			RoleError:     {term.Bold},
			RoleAnnounce:  {},
			RoleUsername:  {term.Bold},
			RoleEmote:     {},
			RolePrivate:   {term.Underline},
			RoleTimestamp: {},
		},
		palette: []term.SGR{term.FgWhite},
	}
}

func colorsTheme() *Theme {
	return &Theme{
		Name: "colors",
		colors: map[Role][]term.SGR{
			RoleSystem:    {term.FgYellow, term.Bold},
			RoleError:     {term.FgRed, term.Bold},
			RoleAnnounce:  {term.FgBlue},
			RoleUsername:  {term.Bold},
			RoleEmote:     {term.FgMagenta},
			RolePrivate:   {term.FgCyan},
			RoleTimestamp: {term.FgGray},
		},
		palette: []term.SGR{
			term.FgRed, term.FgGreen, term.FgYellow, term.FgBlue,
			term.FgMagenta, term.FgCyan, term.FgWhite,
		},
	}
}

func hackerTheme() *Theme {
	return &Theme{
		Name: "hacker",
		colors: map[Role][]term.SGR{
			RoleSystem:    {term.FgGreen},
			RoleError:     {term.FgRed, term.Bold},
			RoleAnnounce:  {term.FgGreen, term.Bold},
			RoleUsername:  {term.FgGreen, term.Bold},
			RoleEmote:     {term.FgGreen},
			RolePrivate:   {term.FgGreen},
			RoleTimestamp: {term.FgGreen},
		},
		palette: []term.SGR{term.FgGreen},
	}
}

// Style renders text in the color assigned to role.
func (t *Theme) Style(role Role, text string) string {
	return term.Style(text, t.colors[role]...)
}

// UsernameColor hashes fingerprint into a stable index into the theme's
// username palette, so the same person always renders in the same color
// for a given viewer's theme, independent of join order.
func (t *Theme) UsernameColor(fingerprint, name string) string {
	if len(t.palette) == 0 {
		return name
	}
	idx := paletteIndex(fingerprint, len(t.palette))
	return term.Style(name, append([]term.SGR{t.palette[idx]}, t.colors[RoleUsername]...)...)
}

// paletteIndex hashes a fingerprint to a hue via go-colorful's HSV space
// and buckets it into one of n palette slots, giving a wide, stable
// spread of colors across usernames instead of a naive byte-sum modulo.
func paletteIndex(fingerprint string, n int) int {
	if n <= 0 {
		return 0
	}
	var sum uint32
	for i := 0; i < len(fingerprint); i++ {
		sum = sum*31 + uint32(fingerprint[i])
	}
	hue := float64(sum%360) * 360.0 / 360.0
	c := colorful.Hsv(hue, 0.65, 0.9)
	r, g, b := c.RGB255()
	bucket := (int(r) + int(g)*2 + int(b)*3) % n
	if bucket < 0 {
		bucket += n
	}
	return bucket
}
