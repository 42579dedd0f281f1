package render

// Color is a 24-bit RGB color.
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{0, 0, 0}
	White = Color{255, 255, 255}
	Gray  = Color{100, 100, 100}
	Red   = Color{255, 0, 0}
	Green = Color{0, 255, 0}
)

// Style is the color pair of a cell. A zero Style uses the terminal defaults.
type Style struct {
	FG    Color
	BG    Color
	HasFG bool
	HasBG bool
}

// Fg returns a style with only a foreground color.
func Fg(c Color) Style { return Style{FG: c, HasFG: true} }

// Bg returns a style with only a background color.
func Bg(c Color) Style { return Style{BG: c, HasBG: true} }

// FgBg returns a style with both colors set.
func FgBg(fg, bg Color) Style { return Style{FG: fg, BG: bg, HasFG: true, HasBG: true} }

// Frame holds two co-indexed grids: the characters and their styles. Cells
// are stored row-major.
type Frame struct {
	Width  int
	Height int
	Chars  []rune
	Styles []Style
}

// NewFrame allocates a cleared width x height frame.
func NewFrame(width, height int) *Frame {
	f := &Frame{}
	f.Resize(width, height)
	return f
}

// Resize reallocates the grids when the dimensions change and reports whether
// they did. The frame is cleared either way.
func (f *Frame) Resize(width, height int) bool {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	changed := width != f.Width || height != f.Height || f.Chars == nil
	if changed {
		f.Width = width
		f.Height = height
		f.Chars = make([]rune, width*height)
		f.Styles = make([]Style, width*height)
	}
	f.Clear()
	return changed
}

// Clear blanks every cell.
func (f *Frame) Clear() {
	for i := range f.Chars {
		f.Chars[i] = ' '
		f.Styles[i] = Style{}
	}
}

// InBounds reports whether (x, y) is a cell of the frame.
func (f *Frame) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// Set writes a cell. Out of range coordinates are ignored.
func (f *Frame) Set(x, y int, ch rune, st Style) {
	if !f.InBounds(x, y) {
		return
	}
	i := y*f.Width + x
	f.Chars[i] = ch
	f.Styles[i] = st
}

// SetStyle changes only the style of a cell.
func (f *Frame) SetStyle(x, y int, st Style) {
	if !f.InBounds(x, y) {
		return
	}
	f.Styles[y*f.Width+x] = st
}

// At returns the cell at (x, y), or a blank cell when out of range.
func (f *Frame) At(x, y int) (rune, Style) {
	if !f.InBounds(x, y) {
		return ' ', Style{}
	}
	i := y*f.Width + x
	return f.Chars[i], f.Styles[i]
}

// Char returns the character at (x, y).
func (f *Frame) Char(x, y int) rune {
	ch, _ := f.At(x, y)
	return ch
}

// WriteString writes s starting at (x, y), clipping at the frame edges.
func (f *Frame) WriteString(x, y int, s string, st Style) {
	for _, r := range s {
		f.Set(x, y, r, st)
		x++
	}
}

// Mirror reflects the left half of every row onto the right half.
func (f *Frame) Mirror() {
	w := f.Width
	for y := 0; y < f.Height; y++ {
		row := y * w
		for x := 0; x < w/2; x++ {
			f.Chars[row+w-1-x] = f.Chars[row+x]
			f.Styles[row+w-1-x] = f.Styles[row+x]
		}
	}
}

// Lines returns the characters of every row without styling.
func (f *Frame) Lines() []string {
	lines := make([]string, f.Height)
	for y := range lines {
		lines[y] = string(f.Chars[y*f.Width : (y+1)*f.Width])
	}
	return lines
}
