package graph

import (
	"math"

	"github.com/Leeloo90/storygraph-backend/internal/types"
)

// Canvas scale constants. The rendering layer must use exactly these
// values when converting between screen pixels and timeline units; they
// are also served on /api/config so the frontend never hardcodes them.
const (
	PixelsPerSecond = 10.0
	PixelsPerTrack  = 24.0
)

// Drift is the user-adjustable offset layered on top of the canonical
// position implied by a connection mode.
type Drift struct {
	X float64 `json:"drift_x"`
	Y int     `json:"drift_y"`
}

// PortOffset returns the canonical horizontal pixel offset a mode
// implies before drift: zero for STACK, the child's width to the left
// for PREPEND, the parent's width to the right for APPEND.
func PortOffset(mode types.ConnectionMode, childDur, parentDur float64) float64 {
	switch mode {
	case types.ModePrepend:
		return -childDur * PixelsPerSecond
	case types.ModeAppend:
		return parentDur * PixelsPerSecond
	default:
		return 0
	}
}

// SolveDrift converts a desired visual offset (child screen position
// minus parent screen position, in pixels) into the drift that
// reproduces it under the given mode, so attaching or dragging never
// makes the unit jump on screen. Vertical drift only exists for STACK;
// PREPEND and APPEND are track-aligned and discard the vertical
// distance.
func SolveDrift(mode types.ConnectionMode, distX, distY, childDur, parentDur float64) Drift {
	d := Drift{
		X: (distX - PortOffset(mode, childDur, parentDur)) / PixelsPerSecond,
	}
	if mode == types.ModeStack {
		d.Y = int(math.Round(distY / PixelsPerTrack))
	}
	return d
}
