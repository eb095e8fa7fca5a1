package mjpeg

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	boundary          = "frame"
	keepaliveInterval = 2 * time.Second
)

// Publisher fans the latest annotated JPEG out to every connected
// multipart/x-mixed-replace viewer.
type Publisher struct {
	jpegMutex   sync.RWMutex
	latestJPEG  []byte
	placeholder []byte

	notifyMutex sync.Mutex
	viewers     map[chan struct{}]struct{}
	closed      bool
}

// NewPublisher returns a publisher that serves placeholder until the first
// frame is published.
func NewPublisher(placeholder []byte) *Publisher {
	return &Publisher{
		placeholder: placeholder,
		viewers:     make(map[chan struct{}]struct{}),
	}
}

// Publish replaces the latest frame and wakes all viewers. The slice is
// retained and must not be modified afterwards.
func (p *Publisher) Publish(jpeg []byte) {
	if len(jpeg) == 0 {
		return
	}
	p.jpegMutex.Lock()
	p.latestJPEG = jpeg
	p.jpegMutex.Unlock()

	p.notifyMutex.Lock()
	for ch := range p.viewers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	p.notifyMutex.Unlock()
}

// Latest returns the most recent frame, or nil before the first Publish.
func (p *Publisher) Latest() []byte {
	p.jpegMutex.RLock()
	defer p.jpegMutex.RUnlock()
	return p.latestJPEG
}

// Viewers returns the number of connected stream clients.
func (p *Publisher) Viewers() int {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()
	return len(p.viewers)
}

func (p *Publisher) subscribe() (chan struct{}, bool) {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()
	if p.closed {
		return nil, false
	}
	ch := make(chan struct{}, 5)
	p.viewers[ch] = struct{}{}
	return ch, true
}

func (p *Publisher) unsubscribe(ch chan struct{}) {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()
	if _, ok := p.viewers[ch]; ok {
		delete(p.viewers, ch)
		close(ch)
	}
}

func (p *Publisher) current() []byte {
	if buf := p.Latest(); len(buf) > 0 {
		return buf
	}
	return p.placeholder
}

// StreamMJPEGHTTP writes frames to w until the client disconnects or the
// publisher shuts down.
func (p *Publisher) StreamMJPEGHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	notify, ok := p.subscribe()
	if !ok {
		http.Error(w, "Stream closed", http.StatusServiceUnavailable)
		return
	}
	defer p.unsubscribe(notify)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writePart := func(jpeg []byte) bool {
		if len(jpeg) == 0 {
			return true
		}
		if _, err := io.WriteString(w, "--"+boundary+"\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "Content-Type: image/jpeg\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, fmt.Sprintf("Content-Length: %d\r\n\r\n", len(jpeg))); err != nil {
			return false
		}
		if _, err := w.Write(jpeg); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writePart(p.current()) {
		return
	}

	keepaliveTicker := time.NewTicker(keepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case _, open := <-notify:
			if !open {
				return
			}
			if !writePart(p.current()) {
				return
			}
		case <-keepaliveTicker.C:
			if !writePart(p.current()) {
				return
			}
		}
	}
}

// Shutdown disconnects all viewers and refuses new ones.
func (p *Publisher) Shutdown() {
	p.notifyMutex.Lock()
	p.closed = true
	for ch := range p.viewers {
		delete(p.viewers, ch)
		close(ch)
	}
	p.notifyMutex.Unlock()
	log.Info().Msg("MJPEG Publisher shutting down")
}
