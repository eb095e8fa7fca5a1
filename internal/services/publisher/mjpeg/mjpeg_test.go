package mjpeg

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStream(t *testing.T, p *Publisher) (*multipart.Reader, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(p.StreamMJPEGHTTP))

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/x-mixed-replace", mediaType)
	assert.Equal(t, "frame", params["boundary"])

	return multipart.NewReader(resp.Body, params["boundary"]), func() {
		resp.Body.Close()
		srv.Close()
	}
}

func readPart(t *testing.T, mr *multipart.Reader) []byte {
	t.Helper()
	part, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", part.Header.Get("Content-Type"))
	data, err := io.ReadAll(part)
	require.NoError(t, err)
	return data
}

func TestStreamStartsWithPlaceholder(t *testing.T) {
	p := NewPublisher([]byte("placeholder"))
	mr, done := openStream(t, p)
	defer done()

	assert.Equal(t, []byte("placeholder"), readPart(t, mr))
}

func TestStreamDeliversPublishedFrames(t *testing.T) {
	p := NewPublisher([]byte("placeholder"))
	mr, done := openStream(t, p)
	defer done()

	require.Equal(t, []byte("placeholder"), readPart(t, mr))
	require.Eventually(t, func() bool { return p.Viewers() == 1 }, time.Second, 10*time.Millisecond)

	p.Publish([]byte("frame-1"))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if bytes.Equal(readPart(t, mr), []byte("frame-1")) {
			assert.Equal(t, []byte("frame-1"), p.Latest())
			return
		}
	}
	t.Fatal("published frame never reached the viewer")
}

func TestPublishIgnoresEmptyFrame(t *testing.T) {
	p := NewPublisher(nil)
	p.Publish([]byte("a"))
	p.Publish(nil)
	assert.Equal(t, []byte("a"), p.Latest())
}

func TestShutdownDisconnectsViewers(t *testing.T) {
	p := NewPublisher([]byte("placeholder"))
	mr, done := openStream(t, p)
	defer done()

	readPart(t, mr)
	require.Eventually(t, func() bool { return p.Viewers() == 1 }, time.Second, 10*time.Millisecond)

	p.Shutdown()
	assert.Equal(t, 0, p.Viewers())

	_, err := mr.NextPart()
	assert.Error(t, err)

	rec := httptest.NewRecorder()
	p.StreamMJPEGHTTP(rec, httptest.NewRequest(http.MethodGet, "/video_feed", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
