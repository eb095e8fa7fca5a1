package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoneguard-worker-go/internal/models"
)

func boxAt(cx, cy float64) models.Box {
	return models.Box{X1: cx - 20, Y1: cy - 50, X2: cx + 20, Y2: cy + 50}
}

func TestZoneContains(t *testing.T) {
	zone, err := NewZone(0, 0, 350, 720, "strip")
	require.NoError(t, err)

	tests := []struct {
		name string
		box  models.Box
		want bool
	}{
		{"center inside", boxAt(175, 300), true},
		{"center on right edge", boxAt(350, 300), false},
		{"center on left edge", boxAt(0, 300), false},
		{"center just inside right edge", boxAt(349.5, 300), true},
		{"outside", boxAt(800, 300), false},
		{"below zone height still counts in strip mode", boxAt(100, 900), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, zone.Contains(tt.box))
		})
	}
}

func TestZoneRectMode(t *testing.T) {
	zone, err := NewZone(100, 100, 200, 200, "rect")
	require.NoError(t, err)

	assert.True(t, zone.Contains(boxAt(200, 200)))
	assert.False(t, zone.Contains(boxAt(200, 350)))
	assert.False(t, zone.Contains(boxAt(200, 100)))
	assert.Equal(t, models.Box{X1: 100, Y1: 100, X2: 300, Y2: 300}, zone.Bounds())
}

func TestNewZoneRejectsBadInput(t *testing.T) {
	_, err := NewZone(0, 0, 0, 100, "strip")
	assert.Error(t, err)

	_, err = NewZone(0, 0, 100, 100, "circle")
	assert.Error(t, err)

	z, err := NewZone(0, 0, 100, 100, "")
	require.NoError(t, err)
	assert.Equal(t, ZoneModeStrip, z.Mode)
}

func TestCooldownGate(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	gate := NewCooldownGate(10 * time.Second)

	assert.False(t, gate.fired)

	assert.True(t, gate.TryFire(base), "first fire always passes")
	assert.False(t, gate.TryFire(base.Add(5*time.Second)))
	assert.False(t, gate.TryFire(base.Add(10*time.Second)), "exactly the cooldown is not enough")
	assert.True(t, gate.TryFire(base.Add(10*time.Second+time.Millisecond)))

	assert.True(t, gate.fired)
	assert.Equal(t, base.Add(10*time.Second+time.Millisecond), gate.last)
}

func TestZoneOutcomeString(t *testing.T) {
	assert.Equal(t, "loiter_alert_fired", LoiterAlertFired.String())
	assert.Equal(t, "unknown", ZoneOutcome(42).String())
	assert.True(t, BannedAlertFired.Fired())
	assert.False(t, LoiterAlertSuppressed.Fired())

	text, err := AlreadyAlerted.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "already_alerted", string(text))

	var o ZoneOutcome
	require.NoError(t, o.UnmarshalText(text))
	assert.Equal(t, AlreadyAlerted, o)
	assert.Error(t, o.UnmarshalText([]byte("bogus")))
}
