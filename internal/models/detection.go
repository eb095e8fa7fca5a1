package models

// Box is an axis-aligned bounding box in pixel coordinates (x1,y1 top-left, x2,y2 bottom-right).
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (b Box) Width() float64  { return b.X2 - b.X1 }
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Center returns the geometric center of the box.
func (b Box) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// Clamp limits the box to a width x height frame.
func (b Box) Clamp(width, height int) Box {
	clamp := func(v, hi float64) float64 {
		if v < 0 {
			return 0
		}
		if v > hi {
			return hi
		}
		return v
	}
	w, h := float64(width), float64(height)
	return Box{X1: clamp(b.X1, w), Y1: clamp(b.Y1, h), X2: clamp(b.X2, w), Y2: clamp(b.Y2, h)}
}

// Detection is a single person detection produced by the detector.
type Detection struct {
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"class_id"`
}

// Track is one entry of the tracker's per-frame output.
// UpdatedThisFrame is false when the tracker only extrapolated the box.
type Track struct {
	ID               int  `json:"id"`
	Box              Box  `json:"box"`
	Confirmed        bool `json:"confirmed"`
	UpdatedThisFrame bool `json:"updated_this_frame"`
}

// Fresh reports whether the track should drive state changes this frame.
func (t Track) Fresh() bool {
	return t.Confirmed && t.UpdatedThisFrame
}
