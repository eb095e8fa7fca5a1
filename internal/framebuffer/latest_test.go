package framebuffer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoneguard-worker-go/internal/models"
)

func TestLatestEmpty(t *testing.T) {
	t.Parallel()

	buf := NewLatest()
	_, _, ok := buf.Get()
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := buf.Next(ctx, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLatestKeepsNewest(t *testing.T) {
	t.Parallel()

	buf := NewLatest()
	buf.Put(&models.Frame{ID: 1})
	buf.Put(&models.Frame{ID: 2})

	frame, seq, ok := buf.Get()
	require.True(t, ok)
	assert.Equal(t, int64(2), frame.ID)
	assert.Equal(t, uint64(2), seq)

	frame, seq, err := buf.Next(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), frame.ID)
	assert.Equal(t, uint64(2), seq)
}

func TestLatestNextWaitsForProducer(t *testing.T) {
	t.Parallel()

	buf := NewLatest()
	buf.Put(&models.Frame{ID: 1})
	_, seq, _ := buf.Get()

	done := make(chan *models.Frame)
	go func() {
		frame, _, err := buf.Next(context.Background(), seq)
		if err == nil {
			done <- frame
		}
	}()

	time.Sleep(10 * time.Millisecond)
	buf.Put(&models.Frame{ID: 7})

	select {
	case frame := <-done:
		assert.Equal(t, int64(7), frame.ID)
	case <-time.After(time.Second):
		t.Fatal("reader was not woken by Put")
	}
}

func TestLatestConcurrentAccess(t *testing.T) {
	t.Parallel()

	buf := NewLatest()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 500; i++ {
			buf.Put(&models.Frame{ID: int64(i)})
		}
	}()

	var last int64
	var seq uint64
	for last < 500 {
		frame, s, err := buf.Next(ctx, seq)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, frame.ID, last, "frames never go backwards")
		last, seq = frame.ID, s
	}
	wg.Wait()
}
