// Package render holds the character grid drawn by the effects and the
// surfaces that present it.
package render

import "errors"

// ErrQuit is returned by Present when the user closed the surface.
var ErrQuit = errors.New("render surface closed")

// Surface presents finished frames.
type Surface interface {
	// Size returns the grid dimensions available for the frame, excluding
	// the HUD row.
	Size() (width, height int)
	Present(f *Frame, hud HUD) error
	Close() error
}
