package layout

import (
	"fmt"
	"strconv"
	"strings"

	"coa-backend/coa/model"
)

// RGB is an 8-bit color.
type RGB struct {
	R, G, B int
}

// Palette is the resolved pair of brand colors.
type Palette struct {
	ThemeID   string
	Primary   RGB
	Secondary RGB
}

const DefaultThemeID = "navy-green"

type preset struct {
	primary   string
	secondary string
}

var presets = map[string]preset{
	"navy-green": {primary: "#1A376B", secondary: "#568259"},
	"ocean":      {primary: "#0B4F6C", secondary: "#01BAEF"},
	"forest":     {primary: "#2D4A22", secondary: "#7A9E3B"},
	"crimson":    {primary: "#7A1F2B", secondary: "#C9A227"},
	"charcoal":   {primary: "#2F3640", secondary: "#7F8C8D"},
	"royal":      {primary: "#3C1E70", secondary: "#B08D57"},
}

// ThemeIDs lists the preset ids in a stable order.
func ThemeIDs() []string {
	return []string{"navy-green", "ocean", "forest", "crimson", "charcoal", "royal"}
}

// KnownTheme reports whether id names a preset.
func KnownTheme(id string) bool {
	_, ok := presets[strings.ToLower(strings.TrimSpace(id))]
	return ok
}

// ResolveTheme picks the preset named by the theme id (default navy-green) and
// applies any custom hex colors on top. Invalid hex values keep the preset color.
func ResolveTheme(theme model.Theme) Palette {
	id := strings.ToLower(strings.TrimSpace(theme.ID))
	p, ok := presets[id]
	if !ok {
		id = DefaultThemeID
		p = presets[id]
	}
	out := Palette{
		ThemeID:   id,
		Primary:   mustHex(p.primary),
		Secondary: mustHex(p.secondary),
	}
	if c, err := ParseHex(theme.PrimaryColor); err == nil {
		out.Primary = c
	}
	if c, err := ParseHex(theme.SecondaryColor); err == nil {
		out.Secondary = c
	}
	return out
}

// ParseHex accepts #RRGGBB, RRGGBB and the #RGB shorthand.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return RGB{R: int(v >> 16 & 0xFF), G: int(v >> 8 & 0xFF), B: int(v & 0xFF)}, nil
}

func mustHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}
