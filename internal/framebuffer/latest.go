// Package framebuffer holds the hand-off slot between the capture goroutine
// and the processing goroutine.
package framebuffer

import (
	"context"
	"sync"

	"zoneguard-worker-go/internal/models"
)

// Latest keeps only the newest frame. Writers overwrite, readers never block
// the writer, and a reader may miss intermediate frames.
type Latest struct {
	mu     sync.RWMutex
	frame  *models.Frame
	seq    uint64
	notify chan struct{}
}

func NewLatest() *Latest {
	return &Latest{notify: make(chan struct{}, 1)}
}

// Put replaces the current frame and wakes a waiting reader.
func (l *Latest) Put(frame *models.Frame) {
	l.mu.Lock()
	l.frame = frame
	l.seq++
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Get returns the newest frame and its sequence number. ok is false before the first Put.
func (l *Latest) Get() (frame *models.Frame, seq uint64, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frame, l.seq, l.frame != nil
}

// Next blocks until a frame newer than after is available or ctx is done.
func (l *Latest) Next(ctx context.Context, after uint64) (*models.Frame, uint64, error) {
	for {
		if frame, seq, ok := l.Get(); ok && seq > after {
			return frame, seq, nil
		}
		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-l.notify:
		}
	}
}
