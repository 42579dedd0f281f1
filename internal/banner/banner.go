// Package banner renders overlay text as large ASCII art.
package banner

import (
	"fmt"
	"strings"
	"sync"

	"github.com/common-nighthawk/go-figure"
)

// DecodeFailure wraps the error of a font that could not be rendered.
type DecodeFailure struct {
	Font string
	Err  error
}

func (e *DecodeFailure) Error() string {
	return fmt.Sprintf("banner font %q: %v", e.Font, e.Err)
}

func (e *DecodeFailure) Unwrap() error { return e.Err }

type key struct {
	text string
	font string
}

// Renderer caches rendered banners by (text, font).
type Renderer struct {
	mu    sync.Mutex
	cache map[key][]string
	limit int
}

// NewRenderer creates a renderer holding at most limit cached banners.
func NewRenderer(limit int) *Renderer {
	if limit <= 0 {
		limit = 32
	}
	return &Renderer{cache: make(map[key][]string), limit: limit}
}

// Render returns the banner lines for text in the given figlet font id.
// Every input line becomes its own block of art, stacked vertically. When
// the font cannot be rendered the raw text is returned as a single line
// together with a *DecodeFailure.
func (r *Renderer) Render(text, font string) ([]string, error) {
	k := key{text: text, font: font}
	r.mu.Lock()
	if lines, ok := r.cache[k]; ok {
		r.mu.Unlock()
		return lines, nil
	}
	r.mu.Unlock()

	lines, err := Render(text, font)
	if err != nil {
		return lines, err
	}

	r.mu.Lock()
	if len(r.cache) >= r.limit {
		r.cache = make(map[key][]string)
	}
	r.cache[k] = lines
	r.mu.Unlock()
	return lines, nil
}

// Render renders text without caching.
func Render(text, font string) (lines []string, err error) {
	if text == "" {
		return nil, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			lines = []string{Flatten(text)}
			err = &DecodeFailure{Font: font, Err: fmt.Errorf("%v", rec)}
		}
	}()

	for _, part := range strings.Split(text, "\n") {
		if strings.TrimSpace(part) == "" {
			lines = append(lines, "")
			continue
		}
		art := figure.NewFigure(part, font, false).Slicify()
		lines = append(lines, trimBlank(art)...)
	}
	return lines, nil
}

// Flatten joins a multi-line text into one line.
func Flatten(text string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(text, "\n", " ")), " ")
}

// Width returns the rune length of the longest line.
func Width(lines []string) int {
	w := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > w {
			w = n
		}
	}
	return w
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return lines
}
