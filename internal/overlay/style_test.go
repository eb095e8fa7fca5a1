package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"zoneguard-worker-go/internal/engine"
	"zoneguard-worker-go/internal/models"
)

func TestForPerson(t *testing.T) {
	tests := []struct {
		name   string
		person engine.PersonView
		want   Style
	}{
		{
			name:   "unknown outside zone",
			person: engine.PersonView{ID: 3, Name: "Unknown", Status: models.IdentityUnknown},
			want:   Style{Color: ColorUnknown, Label: "Unknown (ID: 3)"},
		},
		{
			name: "unknown loitering",
			person: engine.PersonView{ID: 7, Name: "Unknown", Status: models.IdentityUnknown,
				InZone: true, Loitering: true, LoiterFor: 12400 * time.Millisecond},
			want: Style{Color: ColorLoitering, Label: "Unknown (ID: 7) | T: 12s"},
		},
		{
			name:   "allowed",
			person: engine.PersonView{ID: 4, Name: "alice", Status: models.IdentityAllowed, Distance: 0.384},
			want:   Style{Color: ColorTrusted, Label: "alice (ID: 4) D:0.38"},
		},
		{
			name:   "banned",
			person: engine.PersonView{ID: 9, Name: "mallory", Status: models.IdentityBanned, Distance: 0.3, InZone: true},
			want:   Style{Color: ColorBanned, Label: "mallory (ID: 9) D:0.30 BANNED"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForPerson(tt.person))
		})
	}
}

func TestHeader(t *testing.T) {
	snap := &engine.Snapshot{People: []engine.PersonView{
		{Status: models.IdentityUnknown},
		{Status: models.IdentityBanned},
		{Status: models.IdentityKnown},
	}}
	assert.Equal(t, "People: 3 | Unknown: 1 | Banned: 1", Header(snap))
	assert.Equal(t, "People: 0 | Unknown: 0 | Banned: 0", Header(nil))
}
