package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"zoneguard-worker-go/internal/models"
)

// JPEGEncoder converts BGR frames to JPEG.
type JPEGEncoder struct {
	Quality int
}

func NewJPEGEncoder(quality int) *JPEGEncoder {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &JPEGEncoder{Quality: quality}
}

// Encode returns the whole frame as JPEG.
func (e *JPEGEncoder) Encode(frame *models.Frame) ([]byte, error) {
	mat, err := frameMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	return e.encodeMat(mat)
}

// CropJPEG returns the region of frame inside box as JPEG. A box that
// clamps to nothing yields no bytes and no error.
func (e *JPEGEncoder) CropJPEG(frame *models.Frame, box models.Box) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("no frame to crop")
	}
	clamped := box.Clamp(frame.Width, frame.Height)
	rect := image.Rect(int(clamped.X1), int(clamped.Y1), int(clamped.X2), int(clamped.Y2))
	if rect.Empty() {
		return nil, nil
	}

	mat, err := frameMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	region := mat.Region(rect)
	defer region.Close()
	return e.encodeMat(region)
}

func (e *JPEGEncoder) encodeMat(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, e.Quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	defer buf.Close()

	b := buf.GetBytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func frameMat(frame *models.Frame) (gocv.Mat, error) {
	if !frame.Valid() {
		return gocv.Mat{}, fmt.Errorf("invalid frame %dx%d with %d bytes", frame.Width, frame.Height, len(frame.Data))
	}
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to create Mat from frame data: %w", err)
	}
	return mat, nil
}
