package render

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ColorDepth selects the escape sequences used for colors.
type ColorDepth int

const (
	TrueColor ColorDepth = iota
	Color256
	NoColor
)

// ParseColorDepth maps "truecolor", "256" and "none" onto a ColorDepth.
func ParseColorDepth(name string) ColorDepth {
	switch strings.ToLower(name) {
	case "256", "ansi256", "xterm":
		return Color256
	case "none", "off", "mono", "no":
		return NoColor
	default:
		return TrueColor
	}
}

const (
	escHome      = "\x1b[H"
	escReset     = "\x1b[0m"
	escClearLine = "\x1b[K"
)

var (
	precomputedFG256 [256]string
	precomputedBG256 [256]string
)

func init() {
	for i := range precomputedFG256 {
		precomputedFG256[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
		precomputedBG256[i] = "\x1b[48;5;" + strconv.Itoa(i) + "m"
	}
}

// Terminal paints frames with ANSI escape sequences. Rows are encoded in
// parallel by a small worker pool.
type Terminal struct {
	out     *bufio.Writer
	file    *os.File
	depth   ColorDepth
	workers int
	lines   []string

	activeStyle lipgloss.Style
	idleStyle   lipgloss.Style
}

// NewTerminal creates a painter writing to out. When out is a terminal its
// size is used for the frame.
func NewTerminal(out io.Writer, depth ColorDepth) *Terminal {
	t := &Terminal{
		out:     bufio.NewWriterSize(out, 1<<16),
		depth:   depth,
		workers: runtime.GOMAXPROCS(0),
		activeStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("0")).
			Foreground(lipgloss.Color("2")),
		idleStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("0")).
			Foreground(lipgloss.Color("1")),
	}
	if f, ok := out.(*os.File); ok {
		t.file = f
	}
	return t
}

// Enter switches to the alternate screen and hides the cursor.
func (t *Terminal) Enter() error {
	t.out.WriteString("\x1b[?1049h\x1b[2J\x1b[?25l" + escHome)
	return t.out.Flush()
}

// Close restores the screen and cursor.
func (t *Terminal) Close() error {
	t.out.WriteString(escReset + "\x1b[?25h\x1b[?1049l")
	return t.out.Flush()
}

// Size returns the terminal size minus the HUD row, or 80x23 when unknown.
func (t *Terminal) Size() (int, int) {
	w, h := 80, 24
	if t.file != nil {
		if tw, th, err := term.GetSize(int(t.file.Fd())); err == nil && tw > 0 && th > 0 {
			w, h = tw, th
		}
	}
	if h > 1 {
		h--
	}
	return w, h
}

// Present writes the HUD and every frame row.
func (t *Terminal) Present(f *Frame, hud HUD) error {
	t.encodeRows(f)

	t.out.WriteString(escHome)
	t.out.WriteString(t.statusLine(hud, f.Width))
	t.out.WriteString(escReset + escClearLine)
	for _, line := range t.lines {
		t.out.WriteString("\r\n")
		t.out.WriteString(line)
	}
	return t.out.Flush()
}

func (t *Terminal) statusLine(hud HUD, width int) string {
	text := fit(hud.Text(), width)
	if t.depth == NoColor {
		return text
	}
	style := t.idleStyle
	if hud.Active() {
		style = t.activeStyle
	}
	if hud.Pulse > 0.5 {
		style = style.Bold(true)
	}
	return style.Render(text)
}

func (t *Terminal) encodeRows(f *Frame) {
	height := f.Height
	if cap(t.lines) < height {
		t.lines = make([]string, height)
	}
	t.lines = t.lines[:height]

	numWorkers := t.workers
	if numWorkers > height {
		numWorkers = height
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	rowJobs := make(chan int, numWorkers)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rowJobs {
				t.lines[y] = t.EncodeRow(f, y)
			}
		}()
	}

	for y := 0; y < height; y++ {
		rowJobs <- y
	}
	close(rowJobs)
	wg.Wait()
}

// EncodeRow returns row y as text with the escape sequences of t.
func (t *Terminal) EncodeRow(f *Frame, y int) string {
	var builder strings.Builder
	builder.Grow(f.Width * 8)

	first := true
	var last Style
	row := y * f.Width
	for x := 0; x < f.Width; x++ {
		st := f.Styles[row+x]
		if t.depth != NoColor && (first || st != last) {
			builder.WriteString(escReset)
			builder.WriteString(t.styleCode(st))
			last = st
			first = false
		}
		builder.WriteRune(f.Chars[row+x])
	}
	if t.depth != NoColor {
		builder.WriteString(escReset)
	}
	builder.WriteString(escClearLine)
	return builder.String()
}

func (t *Terminal) styleCode(st Style) string {
	var b strings.Builder
	if st.HasFG {
		b.WriteString(t.colorCode(st.FG, false))
	}
	if st.HasBG {
		b.WriteString(t.colorCode(st.BG, true))
	}
	return b.String()
}

func (t *Terminal) colorCode(c Color, background bool) string {
	if t.depth == Color256 {
		idx := ANSI256(c)
		if background {
			return precomputedBG256[idx]
		}
		return precomputedFG256[idx]
	}
	layer := "38;2;"
	if background {
		layer = "48;2;"
	}
	return "\x1b[" + layer +
		strconv.Itoa(int(c.R)) + ";" +
		strconv.Itoa(int(c.G)) + ";" +
		strconv.Itoa(int(c.B)) + "m"
}
