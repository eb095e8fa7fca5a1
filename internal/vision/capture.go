// Package vision holds the OpenCV-backed pieces: capture, JPEG encoding,
// cropping and the annotated overlay.
package vision

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"zoneguard-worker-go/internal/models"
)

// FrameSink receives captured frames.
type FrameSink interface {
	Put(frame *models.Frame)
}

// CaptureConfig describes the camera and the size frames are normalised to.
type CaptureConfig struct {
	Source string // device index ("0") or URL/path
	Width  int
	Height int
	FPS    int
}

// Capture reads frames from a camera or video source.
type Capture struct {
	cfg CaptureConfig
	cap *gocv.VideoCapture
}

// OpenCapture opens the source. Failure here is fatal for the worker.
func OpenCapture(cfg CaptureConfig) (*Capture, error) {
	var device interface{} = cfg.Source
	if idx, err := strconv.Atoi(cfg.Source); err == nil {
		device = idx
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open video source %s: %w", cfg.Source, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video source %s is not opened", cfg.Source)
	}

	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	}
	vc.Set(gocv.VideoCaptureBufferSize, 1)

	log.Info().
		Str("source", cfg.Source).
		Float64("actual_fps", vc.Get(gocv.VideoCaptureFPS)).
		Float64("actual_width", vc.Get(gocv.VideoCaptureFrameWidth)).
		Float64("actual_height", vc.Get(gocv.VideoCaptureFrameHeight)).
		Msg("VideoCapture opened successfully with actual properties")

	return &Capture{cfg: cfg, cap: vc}, nil
}

// Run reads frames into sink until ctx is cancelled or the source fails
// persistently. The capture device is released on return.
func (c *Capture) Run(ctx context.Context, sink FrameSink) error {
	defer c.cap.Close()

	img := gocv.NewMat()
	defer img.Close()

	frameID := int64(0)
	consecutiveErrors := 0
	maxConsecutiveErrors := 10

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("source", c.cfg.Source).Msg("Stopping VideoCapture reader due to context cancel")
			return nil
		default:
		}

		if ok := c.cap.Read(&img); !ok || img.Empty() {
			consecutiveErrors++
			log.Warn().
				Str("source", c.cfg.Source).
				Int("consecutive_errors", consecutiveErrors).
				Msg("Failed to read frame from VideoCapture")

			if consecutiveErrors >= maxConsecutiveErrors {
				return fmt.Errorf("too many consecutive read errors (%d)", consecutiveErrors)
			}

			delay := time.Duration(consecutiveErrors*50) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}

		consecutiveErrors = 0
		frameID++
		sink.Put(c.toFrame(img, frameID))
	}
}

func (c *Capture) toFrame(img gocv.Mat, frameID int64) *models.Frame {
	width, height := c.cfg.Width, c.cfg.Height
	if width <= 0 || height <= 0 {
		width, height = img.Cols(), img.Rows()
	}

	var data []byte
	if img.Cols() != width || img.Rows() != height {
		resized := gocv.NewMat()
		gocv.Resize(img, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
		data = resized.ToBytes()
		resized.Close()
	} else {
		data = img.ToBytes()
	}

	return &models.Frame{
		ID:        frameID,
		Data:      data,
		Width:     width,
		Height:    height,
		Timestamp: time.Now(),
	}
}
