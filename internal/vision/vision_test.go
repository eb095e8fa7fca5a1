package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"zoneguard-worker-go/internal/engine"
	"zoneguard-worker-go/internal/models"
)

func grayFrame(w, h int) *models.Frame {
	data := make([]byte, w*h*3)
	for i := range data {
		data[i] = 128
	}
	return &models.Frame{ID: 1, Width: w, Height: h, Data: data}
}

func decode(t *testing.T, jpeg []byte) gocv.Mat {
	t.Helper()
	mat, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	require.NoError(t, err)
	require.False(t, mat.Empty())
	return mat
}

func TestEncodeAndCrop(t *testing.T) {
	enc := NewJPEGEncoder(80)
	frame := grayFrame(320, 240)

	full, err := enc.Encode(frame)
	require.NoError(t, err)
	mat := decode(t, full)
	defer mat.Close()
	assert.Equal(t, 320, mat.Cols())
	assert.Equal(t, 240, mat.Rows())

	crop, err := enc.CropJPEG(frame, models.Box{X1: -10, Y1: 20, X2: 100, Y2: 120})
	require.NoError(t, err)
	cm := decode(t, crop)
	defer cm.Close()
	assert.Equal(t, 100, cm.Cols())
	assert.Equal(t, 100, cm.Rows())

	empty, err := enc.CropJPEG(frame, models.Box{X1: 400, Y1: 10, X2: 500, Y2: 50})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEncodeRejectsBadFrame(t *testing.T) {
	_, err := NewJPEGEncoder(80).Encode(&models.Frame{Width: 10, Height: 10, Data: []byte{1, 2, 3}})
	assert.Error(t, err)
}

func TestRenderDoesNotMutateFrame(t *testing.T) {
	frame := grayFrame(640, 360)
	zone, err := engine.NewZone(0, 0, 200, 360, "strip")
	require.NoError(t, err)
	snap := &engine.Snapshot{
		Zone: zone,
		People: []engine.PersonView{
			{ID: 1, Name: "Unknown", Status: models.IdentityUnknown, Box: models.Box{X1: 50, Y1: 50, X2: 150, Y2: 300}, InZone: true, Loitering: true},
		},
	}

	r := NewRenderer(NewJPEGEncoder(80))
	out, err := r.Render(frame, snap)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, byte(128), frame.Data[(60*640+50)*3], "source frame untouched")

	assert.NotEmpty(t, r.Placeholder(640, 360, "Waiting for camera..."))
}
