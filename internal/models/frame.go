package models

import "time"

// Frame is one decoded camera frame in BGR24 layout.
// Frames are never mutated after capture; consumers clone before drawing.
type Frame struct {
	ID        int64     `json:"frame_id"`
	Data      []byte    `json:"-"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Timestamp time.Time `json:"timestamp"`
}

// Valid reports whether Data matches the declared dimensions.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Data) == f.Width*f.Height*3
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	out := *f
	out.Data = append([]byte(nil), f.Data...)
	return &out
}
