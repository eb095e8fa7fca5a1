// Package overlay decides what is drawn for each tracked person: box colour
// and label text. Rendering itself lives in the vision package.
package overlay

import (
	"fmt"
	"image/color"
	"time"

	"zoneguard-worker-go/internal/engine"
	"zoneguard-worker-go/internal/models"
)

var (
	ColorTrusted   = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	ColorUnknown   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	ColorLoitering = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	ColorBanned    = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	ColorZone      = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	ColorZoneText  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Style is the drawing decision for one person.
type Style struct {
	Color color.RGBA
	Label string
}

// ForPerson returns the box colour and label for a person view.
func ForPerson(p engine.PersonView) Style {
	label := fmt.Sprintf("%s (ID: %d)", p.Name, p.ID)

	switch {
	case p.Status == models.IdentityBanned:
		return Style{Color: ColorBanned, Label: label + fmt.Sprintf(" D:%.2f BANNED", p.Distance)}
	case p.Status.Trusted():
		return Style{Color: ColorTrusted, Label: label + fmt.Sprintf(" D:%.2f", p.Distance)}
	case p.Loitering && p.InZone:
		return Style{Color: ColorLoitering, Label: label + fmt.Sprintf(" | T: %.0fs", p.LoiterFor.Round(time.Second).Seconds())}
	default:
		return Style{Color: ColorUnknown, Label: label}
	}
}

// Header returns the status line drawn in the corner of the frame.
func Header(snap *engine.Snapshot) string {
	counts := snap.Counts()
	total := 0
	if snap != nil {
		total = len(snap.People)
	}
	return fmt.Sprintf("People: %d | Unknown: %d | Banned: %d", total, counts[models.IdentityUnknown], counts[models.IdentityBanned])
}
