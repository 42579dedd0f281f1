package config

import (
	"sort"
	"strings"
)

// Theme is a two-stop color gradient, bottom to top.
type Theme struct {
	Start RGB
	End   RGB
}

// DefaultTheme is used when a theme name is unknown.
const DefaultTheme = "Vaporeon"

var themes = map[string]Theme{
	"Eevee":          {RGB{160, 110, 60}, RGB{230, 220, 180}},
	"Vaporeon":       {RGB{20, 50, 180}, RGB{100, 220, 255}},
	"Jolteon":        {RGB{255, 200, 0}, RGB{255, 255, 200}},
	"Flareon":        {RGB{200, 40, 0}, RGB{255, 180, 100}},
	"Espeon":         {RGB{180, 60, 180}, RGB{255, 160, 255}},
	"Umbreon":        {RGB{20, 20, 20}, RGB{255, 230, 50}},
	"Leafeon":        {RGB{60, 160, 80}, RGB{240, 230, 160}},
	"Glaceon":        {RGB{80, 180, 220}, RGB{200, 240, 255}},
	"Sylveon":        {RGB{255, 140, 180}, RGB{160, 220, 255}},
	"Cyberpunk":      {RGB{0, 255, 255}, RGB{255, 0, 128}},
	"Sunset":         {RGB{100, 0, 180}, RGB{255, 200, 0}},
	"Matrix":         {RGB{0, 50, 0}, RGB{50, 255, 50}},
	"Fire":           {RGB{255, 0, 0}, RGB{255, 255, 0}},
	"Ice":            {RGB{0, 50, 255}, RGB{200, 255, 255}},
	"Toxic":          {RGB{100, 0, 200}, RGB{0, 255, 0}},
	"Ocean":          {RGB{0, 0, 100}, RGB{0, 200, 200}},
	"Candy":          {RGB{255, 100, 100}, RGB{100, 100, 255}},
	"Gold":           {RGB{150, 100, 0}, RGB{255, 255, 100}},
	"Neon":           {RGB{50, 50, 50}, RGB{0, 255, 0}},
	"Vampire":        {RGB{50, 0, 0}, RGB{255, 0, 0}},
	"Void":           {RGB{20, 20, 30}, RGB{80, 80, 120}},
	"Forest":         {RGB{10, 50, 10}, RGB{100, 200, 100}},
	"Love":           {RGB{100, 0, 50}, RGB{255, 100, 150}},
	"Sky":            {RGB{0, 100, 255}, RGB{255, 255, 255}},
	"Cyberpunk 2077": {RGB{255, 200, 0}, RGB{0, 255, 255}},
	"Matrix Rain":    {RGB{0, 20, 0}, RGB{0, 255, 50}},
	"Synthwave":      {RGB{80, 0, 120}, RGB{255, 100, 0}},
}

var charSets = map[string]string{
	"Blocks":  "  ▂▃▄▅▆▇█",
	"Lines":   "  --==##",
	"Dots":    "  ....::::",
	"Digital": "  01",
	"ASCII":   "  .,:;!|",
	"Shade":   " ░▒▓█",
	"Thin":    "  │┃",
	"Circles": "  ○●",
	"Math":    "  +-x=",
	"Braille": " ⠀⠁⠂⠃⠄⠅⠆⠇⠈⠉⠊⠋⠌⠍⠎⠏",
	"Retro":   "  _.-=*",
	"Sparkle": "  .*+@",
}

// fonts maps the user facing font names to banner font identifiers.
var fonts = map[string]string{
	"Tiny":     "term",
	"Standard": "standard",
	"Big":      "big",
	"Slant":    "slant",
	"Block":    "block",
	"Lean":     "lean",
}

// LookupTheme returns the theme called name, case-insensitively.
func LookupTheme(name string) (Theme, bool) {
	if t, ok := themes[name]; ok {
		return t, true
	}
	for key, t := range themes {
		if strings.EqualFold(key, name) {
			return t, true
		}
	}
	return Theme{}, false
}

// ThemeNames returns the sorted theme names.
func ThemeNames() []string {
	return sortedKeys(themes)
}

// CharSet resolves a named character set. Unknown names are returned as the
// literal character string.
func CharSet(nameOrChars string) string {
	if set, ok := charSets[nameOrChars]; ok {
		return set
	}
	for key, set := range charSets {
		if strings.EqualFold(key, nameOrChars) {
			return set
		}
	}
	return nameOrChars
}

// CharSetNames returns the sorted character set names.
func CharSetNames() []string {
	return sortedKeys(charSets)
}

// FontID maps a font label to the banner font identifier, defaulting to "standard".
func FontID(label string) string {
	for key, id := range fonts {
		if strings.EqualFold(key, label) {
			return id
		}
	}
	return "standard"
}

// FontNames returns the sorted font labels.
func FontNames() []string {
	return sortedKeys(fonts)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
