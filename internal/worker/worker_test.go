package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoneguard-worker-go/internal/engine"
	"zoneguard-worker-go/internal/framebuffer"
	"zoneguard-worker-go/internal/models"
)

type sliceSource struct {
	frames []*models.Frame
	err    error
}

func (s *sliceSource) Next(ctx context.Context, after uint64) (*models.Frame, uint64, error) {
	if int(after) < len(s.frames) {
		return s.frames[after], after + 1, nil
	}
	if s.err != nil {
		return nil, after, s.err
	}
	<-ctx.Done()
	return nil, after, ctx.Err()
}

type fakeStepper struct {
	panicOn int64
	zone    engine.Zone
}

func (f *fakeStepper) Step(_ context.Context, frame *models.Frame) engine.Result {
	if frame.ID == f.panicOn {
		panic("detector exploded")
	}
	res := engine.Result{FrameCount: frame.ID}
	if frame.ID%2 == 0 {
		res.Processed = true
		res.Snapshot = &engine.Snapshot{FrameCount: frame.ID, Zone: f.zone}
		if frame.ID == 4 {
			res.Alerts = []models.Alert{{ID: "a"}}
		}
	}
	return res
}

type fakeRenderer struct {
	failOn int64
}

func (f *fakeRenderer) Render(frame *models.Frame, _ *engine.Snapshot) ([]byte, error) {
	if frame.ID == f.failOn {
		return nil, errors.New("encode failed")
	}
	return []byte{byte(frame.ID)}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	frames [][]byte
}

func (p *recordingPublisher) Publish(jpeg []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, jpeg)
}

func (p *recordingPublisher) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

type recordingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHub) Publish(eventType string, _ time.Time, _ interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, eventType)
}

func framesAt(base time.Time, n int, step time.Duration) []*models.Frame {
	out := make([]*models.Frame, n)
	for i := range out {
		out[i] = &models.Frame{ID: int64(i + 1), Width: 4, Height: 4, Data: make([]byte, 48), Timestamp: base.Add(time.Duration(i) * step)}
	}
	return out
}

func TestWorkerRunsFrameLoop(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &sliceSource{frames: framesAt(base, 6, 400*time.Millisecond)}
	pub := &recordingPublisher{}
	hub := &recordingHub{}

	w := New(src, &fakeStepper{panicOn: 3}, &fakeRenderer{failOn: 5}, pub, hub, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return w.Stats().FramesConsumed == 6 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	stats := w.Stats()
	assert.EqualValues(t, 3, stats.FramesProcessed)
	assert.EqualValues(t, 1, stats.AlertsFired)
	assert.EqualValues(t, 1, stats.Panics)
	assert.EqualValues(t, 1, stats.RenderErrors)
	assert.True(t, base.Add(2*time.Second).Equal(stats.LastFrameAt))

	// Frame 3 panicked and frame 5 failed to render.
	assert.Equal(t, [][]byte{{1}, {2}, {4}, {6}}, pub.frames)

	// Frames 2, 4 and 6 were processed; 4 is within a second of 2.
	assert.Equal(t, []string{"people", "people"}, hub.events)
}

func TestWorkerReturnsSourceError(t *testing.T) {
	w := New(&sliceSource{err: errors.New("camera gone")}, &fakeStepper{}, &fakeRenderer{}, &recordingPublisher{}, nil, time.Millisecond)
	err := w.Run(context.Background())
	assert.ErrorContains(t, err, "camera gone")
}

func TestWorkerWithLatestBuffer(t *testing.T) {
	buf := framebuffer.NewLatest()
	pub := &recordingPublisher{}
	w := New(buf, &fakeStepper{}, &fakeRenderer{}, pub, nil, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	buf.Put(&models.Frame{ID: 1, Timestamp: time.Now()})
	require.Eventually(t, func() bool { return pub.len() == 1 }, time.Second, 5*time.Millisecond)
	buf.Put(&models.Frame{ID: 2, Timestamp: time.Now()})
	require.Eventually(t, func() bool { return pub.len() == 2 }, time.Second, 5*time.Millisecond)
}
