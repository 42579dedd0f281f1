// Package imageload decodes still and animated images and scales them onto
// the character grid.
package imageload

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/guidoenr/barviz/internal/render"
)

// DecodeFailure is returned when an image cannot be read or decoded.
type DecodeFailure struct {
	Path string
	Err  error
}

func (e *DecodeFailure) Error() string {
	return fmt.Sprintf("decode image %q: %v", e.Path, e.Err)
}

func (e *DecodeFailure) Unwrap() error { return e.Err }

// Image is a decoded image scaled to a fixed grid. Still images have one
// frame; animated GIFs keep every composed frame.
type Image struct {
	Width  int
	Height int
	frames [][]render.Color
}

// Frames returns the number of frames.
func (im *Image) Frames() int { return len(im.frames) }

// At returns the color of cell (x, y) in frame n, wrapping n. Out of range
// cells are black.
func (im *Image) At(n, x, y int) render.Color {
	if im == nil || len(im.frames) == 0 || x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return render.Black
	}
	return im.frames[n%len(im.frames)][y*im.Width+x]
}

// Load decodes the file at path and scales it to width x height cells.
// flip mirrors it horizontally.
func Load(path string, width, height int, flip bool) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeFailure{Path: path, Err: err}
	}
	im, err := Decode(data, width, height, flip)
	if err != nil {
		return nil, &DecodeFailure{Path: path, Err: err}
	}
	return im, nil
}

// Decode scales encoded image data to width x height cells.
func Decode(data []byte, width, height int, flip bool) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid %dx%d", width, height)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var sources []image.Image
	if format == "gif" {
		sources, err = composeGIF(data)
	} else {
		var src image.Image
		src, _, err = image.Decode(bytes.NewReader(data))
		sources = []image.Image{src}
	}
	if err != nil {
		return nil, err
	}

	im := &Image{Width: width, Height: height}
	for _, src := range sources {
		im.frames = append(im.frames, scale(src, width, height, flip))
	}
	return im, nil
}

// composeGIF draws every frame over the previous ones so partial frames
// come out complete.
func composeGIF(data []byte) ([]image.Image, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	canvas := image.NewRGBA(bounds)

	out := make([]image.Image, 0, len(g.Image))
	for _, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		snapshot := image.NewRGBA(bounds)
		copy(snapshot.Pix, canvas.Pix)
		out = append(out, snapshot)
	}
	return out, nil
}

func scale(src image.Image, width, height int, flip bool) []render.Color {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	cells := make([]render.Color, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx := x
			if flip {
				sx = width - 1 - x
			}
			i := dst.PixOffset(sx, y)
			cells[y*width+x] = render.Color{R: dst.Pix[i], G: dst.Pix[i+1], B: dst.Pix[i+2]}
		}
	}
	return cells
}

type cacheKey struct {
	path          string
	width, height int
	flip          bool
}

// Cache keeps the image for the last (path, size, flip) request. A failed
// load is remembered too, so a broken file is not retried every frame.
type Cache struct {
	key    cacheKey
	filled bool
	img    *Image
	err    error
}

// Get returns the image for the request, loading it when the key changed.
// fresh reports whether this call performed the load.
func (c *Cache) Get(path string, width, height int, flip bool) (img *Image, fresh bool, err error) {
	k := cacheKey{path: path, width: width, height: height, flip: flip}
	if c.filled && c.key == k {
		return c.img, false, c.err
	}
	c.key = k
	c.filled = true
	c.img, c.err = nil, nil
	if path == "" {
		return nil, true, nil
	}
	c.img, c.err = Load(path, width, height, flip)
	return c.img, true, c.err
}

// Reset forgets the cached image.
func (c *Cache) Reset() {
	*c = Cache{}
}
