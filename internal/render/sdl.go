//go:build sdl

package render

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

// SDLWindow presents each cell as one scaled pixel block in a desktop window.
// The HUD goes to the window title.
type SDLWindow struct {
	cols, rows int
	window     *sdl.Window
	renderer   *sdl.Renderer
	texture    *sdl.Texture
	pixels     []byte
	pitch      int
	title      string
}

// OpenSDL creates a cols x rows window, each cell drawn cell pixels wide.
func OpenSDL(cols, rows, cell int) (Surface, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("invalid dimensions: cols=%d rows=%d", cols, rows)
	}
	if cell <= 0 {
		cell = 8
	}
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}
	s := &SDLWindow{cols: cols, rows: rows, pitch: cols * 4}

	window, err := sdl.CreateWindow(
		"barviz",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cols*cell), int32(rows*cell),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.renderer = renderer
	_ = renderer.SetLogicalSize(int32(cols), int32(rows))

	tex, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		int32(cols), int32(rows),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.texture = tex
	s.pixels = make([]byte, s.pitch*rows)
	return s, nil
}

func (s *SDLWindow) Size() (int, int) { return s.cols, s.rows }

func (s *SDLWindow) Present(f *Frame, hud HUD) error {
	for y := 0; y < s.rows; y++ {
		rowOffset := y * s.pitch
		for x := 0; x < s.cols; x++ {
			c := cellColor(f, x, y)
			offset := rowOffset + x*4
			s.pixels[offset+0] = c.R
			s.pixels[offset+1] = c.G
			s.pixels[offset+2] = c.B
			s.pixels[offset+3] = 255
		}
	}

	if title := hud.Text(); title != s.title {
		s.window.SetTitle(title)
		s.title = title
	}
	if err := s.texture.Update(nil, s.pixels, s.pitch); err != nil {
		return err
	}
	if err := s.renderer.Clear(); err != nil {
		return err
	}
	if err := s.renderer.Copy(s.texture, nil, nil); err != nil {
		return err
	}
	s.renderer.Present()

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			return ErrQuit
		}
	}
	return nil
}

func (s *SDLWindow) Close() error {
	if s.texture != nil {
		s.texture.Destroy()
		s.texture = nil
	}
	if s.renderer != nil {
		s.renderer.Destroy()
		s.renderer = nil
	}
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
	}
	s.pixels = nil
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return nil
}

// SupportsSDL reports whether the binary was built with the sdl tag.
func SupportsSDL() bool { return true }
