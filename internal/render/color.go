package render

import "math"

// Lerp interpolates between a and b, t clamped to [0, 1].
func Lerp(a, b Color, t float64) Color {
	t = clamp01(t)
	return Color{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
	}
}

// Gradient returns the color of row y (counted from the bottom) out of h rows.
func Gradient(start, end Color, y, h int) Color {
	if h < 1 {
		h = 1
	}
	return Lerp(start, end, float64(y)/float64(h))
}

// Heat maps an intensity in [0, 1] onto a blue, green, red heat map.
func Heat(v float64) Color {
	v = clamp01(v)
	return Color{
		R: uint8(v * 255),
		G: uint8((1 - math.Abs(0.5-v)*2) * 255),
		B: uint8((1 - v) * 255),
	}
}

// Brighten adds d to every channel, saturating at 255.
func Brighten(c Color, d int) Color {
	add := func(v uint8) uint8 {
		n := int(v) + d
		if n > 255 {
			return 255
		}
		if n < 0 {
			return 0
		}
		return uint8(n)
	}
	return Color{add(c.R), add(c.G), add(c.B)}
}

// Luma returns the perceived brightness of c in [0, 1].
func Luma(c Color) float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

// HSV converts hue, saturation and value in [0, 1] to a Color.
func HSV(h, s, v float64) Color {
	r, g, b := hsvToRGB(h, s, v)
	return Color{uint8(r * 255), uint8(g * 255), uint8(b * 255)}
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = clamp01(h)
	s = clamp01(s)
	v = clamp01(v)

	if s == 0 {
		return v, v, v
	}

	hv := h * 6.0
	i := math.Floor(hv)
	f := hv - i
	p := v * (1.0 - s)
	q := v * (1.0 - s*f)
	t := v * (1.0 - s*(1.0-f))

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// ANSI256 maps c onto the xterm 256 color cube or the gray ramp.
func ANSI256(c Color) int {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	// gray ramp for near-neutral colors
	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		gray := int(clampFloat(math.Round(r*23), 0, 23))
		return 232 + gray
	}

	ri := int(clampFloat(r*5+0.5, 0, 5))
	gi := int(clampFloat(g*5+0.5, 0, 5))
	bi := int(clampFloat(b*5+0.5, 0, 5))

	return 16 + 36*ri + 6*gi + bi
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
