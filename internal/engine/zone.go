package engine

import (
	"fmt"

	"zoneguard-worker-go/internal/models"
)

// ZoneMode selects which box-center coordinates are tested against the zone.
type ZoneMode string

const (
	// ZoneModeStrip tests only the horizontal center, treating the zone as a full-height strip.
	ZoneModeStrip ZoneMode = "strip"
	// ZoneModeRect tests both center coordinates.
	ZoneModeRect ZoneMode = "rect"
)

// Zone is the restricted area in frame pixel coordinates.
type Zone struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Mode   ZoneMode `json:"mode"`
	Label  string   `json:"label"`
}

// NewZone builds a zone and checks its size and mode.
func NewZone(x, y, width, height int, mode string) (Zone, error) {
	if width <= 0 || height <= 0 {
		return Zone{}, fmt.Errorf("zone must have positive size, got %dx%d", width, height)
	}
	m := ZoneMode(mode)
	if m == "" {
		m = ZoneModeStrip
	}
	if m != ZoneModeStrip && m != ZoneModeRect {
		return Zone{}, fmt.Errorf("unsupported zone mode %q", mode)
	}
	return Zone{
		X:      float64(x),
		Y:      float64(y),
		Width:  float64(width),
		Height: float64(height),
		Mode:   m,
	}, nil
}

// Contains reports whether the box center lies strictly inside the zone.
// A center exactly on an edge is outside.
func (z Zone) Contains(box models.Box) bool {
	cx, cy := box.Center()
	if !(cx > z.X && cx < z.X+z.Width) {
		return false
	}
	if z.Mode == ZoneModeRect {
		return cy > z.Y && cy < z.Y+z.Height
	}
	return true
}

// Bounds returns the zone corners as a box, used for drawing.
func (z Zone) Bounds() models.Box {
	return models.Box{X1: z.X, Y1: z.Y, X2: z.X + z.Width, Y2: z.Y + z.Height}
}
