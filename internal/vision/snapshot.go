package vision

import (
	"zoneguard-worker-go/internal/models"
)

// SnapshotEncoder encodes the frame an alert fired on.
type SnapshotEncoder struct {
	encoder *JPEGEncoder
}

func NewSnapshotEncoder(encoder *JPEGEncoder) *SnapshotEncoder {
	return &SnapshotEncoder{encoder: encoder}
}

// EncodeAlert returns the JPEG written to disk and attached to pushed alerts.
func (s *SnapshotEncoder) EncodeAlert(alert models.Alert) ([]byte, error) {
	if alert.Frame == nil {
		return nil, nil
	}
	return s.encoder.Encode(alert.Frame)
}
