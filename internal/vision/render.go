package vision

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"zoneguard-worker-go/internal/engine"
	"zoneguard-worker-go/internal/models"
	"zoneguard-worker-go/internal/overlay"
)

// Renderer draws the zone and per-person annotations and encodes the result.
type Renderer struct {
	encoder *JPEGEncoder
}

func NewRenderer(encoder *JPEGEncoder) *Renderer {
	return &Renderer{encoder: encoder}
}

// Render annotates a copy of frame with snap and returns it as JPEG.
func (r *Renderer) Render(frame *models.Frame, snap *engine.Snapshot) ([]byte, error) {
	mat, err := frameMat(frame.Clone())
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if snap != nil {
		for _, p := range snap.People {
			style := overlay.ForPerson(p)
			rect := toRect(p.Box)
			gocv.Rectangle(&mat, rect, style.Color, 2)
			gocv.PutText(&mat, style.Label, image.Pt(rect.Min.X, rect.Min.Y-10), gocv.FontHersheySimplex, 0.6, style.Color, 2)
		}

		zone := toRect(snap.Zone.Bounds())
		gocv.Rectangle(&mat, zone, overlay.ColorZone, 2)
		label := snap.Zone.Label
		if label == "" {
			label = "Restricted Zone"
		}
		gocv.PutText(&mat, label, image.Pt(zone.Min.X+10, zone.Min.Y+30), gocv.FontHersheySimplex, 0.7, overlay.ColorZoneText, 2)

		DrawText(&mat, overlay.Header(snap), mat.Cols()-420, 30, overlay.ColorZoneText)
	}

	return r.encoder.encodeMat(mat)
}

// Placeholder renders a grey card with text, used before the first frame arrives.
func (r *Renderer) Placeholder(width, height int, text string) []byte {
	placeholder := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	defer placeholder.Close()

	placeholder.SetTo(gocv.Scalar{Val1: 64, Val2: 64, Val3: 64, Val4: 0})
	textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.PutText(&placeholder, text, image.Pt(20, height/2), gocv.FontHersheySimplex, 1.0, textColor, 2)

	out, err := r.encoder.encodeMat(placeholder)
	if err != nil {
		return nil
	}
	return out
}

// DrawText draws text over a dark background box.
func DrawText(mat *gocv.Mat, text string, x, y int, textColor color.RGBA) {
	fontFace := gocv.FontHersheySimplex
	fontScale, thickness := 0.6, 2
	textSize := gocv.GetTextSize(text, fontFace, fontScale, thickness)

	padding := 8
	bgRect := image.Rect(x-padding, y-textSize.Y-padding, x+textSize.X+padding, y+padding)
	gocv.Rectangle(mat, bgRect, color.RGBA{A: 200}, -1)
	gocv.Rectangle(mat, bgRect, color.RGBA{R: 40, G: 40, B: 40, A: 255}, 1)
	gocv.PutText(mat, text, image.Pt(x, y), fontFace, fontScale, textColor, thickness)
}

func toRect(b models.Box) image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}
