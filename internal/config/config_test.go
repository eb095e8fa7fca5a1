package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 2, cfg.FrameProcessingInterval)
	assert.Equal(t, 10, cfg.ReRecognitionInterval)
	assert.Equal(t, 10*time.Second, cfg.LoiterThreshold)
	assert.Equal(t, 2*time.Second, cfg.TrackTTL)
	assert.Equal(t, 10*time.Second, cfg.AlertCooldown)
	assert.Equal(t, 350, cfg.ZoneWidth)
	assert.Equal(t, "strip", cfg.ZoneMode)
	assert.InDelta(t, 0.6, cfg.FaceMatchThreshold, 1e-9)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FRAME_PROCESSING_INTERVAL", "3")
	t.Setenv("LOITER_THRESHOLD", "4.5")
	t.Setenv("TRACK_TTL", "1500ms")
	t.Setenv("DETECTOR_CONFIDENCE", "0.35")
	t.Setenv("ZONE_MODE", "rect")
	t.Setenv("RE_RECOGNITION_INTERVAL", "not-a-number")

	cfg := Load()

	assert.Equal(t, 3, cfg.FrameProcessingInterval)
	assert.Equal(t, 4500*time.Millisecond, cfg.LoiterThreshold)
	assert.Equal(t, 1500*time.Millisecond, cfg.TrackTTL)
	assert.InDelta(t, 0.35, cfg.DetectorConfidence, 1e-9)
	assert.Equal(t, "rect", cfg.ZoneMode)
	assert.Equal(t, 10, cfg.ReRecognitionInterval, "unparsable values fall back to the default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero frame interval", func(c *Config) { c.FrameProcessingInterval = 0 }},
		{"zero re-recognition interval", func(c *Config) { c.ReRecognitionInterval = 0 }},
		{"empty zone", func(c *Config) { c.ZoneWidth = 0 }},
		{"unknown zone mode", func(c *Config) { c.ZoneMode = "polygon" }},
		{"zero ttl", func(c *Config) { c.TrackTTL = 0 }},
		{"negative cooldown", func(c *Config) { c.AlertCooldown = -time.Second }},
		{"quality out of range", func(c *Config) { c.OutputQuality = 101 }},
		{"no alert workers", func(c *Config) { c.AlertsWorkers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
