// Package notification delivers engine alerts to snapshots, the journal,
// live clients, NATS and the local siren without blocking frame processing.
package notification

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zoneguard-worker-go/internal/models"
)

// Delivery carries one alert through the sink chain. Sinks earlier in the
// chain may fill in fields for later ones.
type Delivery struct {
	Alert        models.Alert
	Snapshot     []byte
	SnapshotPath string
}

// Sink is one side effect of an alert.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, d *Delivery) error
}

// DispatcherStats counts what happened to notified alerts.
type DispatcherStats struct {
	Queued    int64 `json:"queued"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
	Failures  int64 `json:"sink_failures"`
}

// Dispatcher queues alerts and runs the sinks on a small worker pool.
type Dispatcher struct {
	sinks       []Sink
	queue       chan models.Alert
	workers     int
	sinkTimeout time.Duration

	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	started  bool
	stopOnce sync.Once

	queued    atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
	failures  atomic.Int64

	logger zerolog.Logger
}

func NewDispatcher(queueSize, workers int, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 32
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		sinks:       sinks,
		queue:       make(chan models.Alert, queueSize),
		workers:     workers,
		sinkTimeout: 10 * time.Second,
		logger:      log.With().Str("service", "notification").Logger(),
	}
}

// WithLogger replaces the default logger. Call it before Start.
func (d *Dispatcher) WithLogger(l zerolog.Logger) *Dispatcher {
	d.logger = l
	return d
}

// Start launches the workers. They exit once Shutdown has drained the queue.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	d.logger.Info().Int("workers", d.workers).Int("queue", cap(d.queue)).Strs("sinks", names).Msg("Alert dispatcher started")
}

// Notify enqueues an alert. It never blocks; alerts are dropped when the
// queue is full or the dispatcher is shut down.
func (d *Dispatcher) Notify(alert models.Alert) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}

	select {
	case d.queue <- alert:
		d.queued.Add(1)
	default:
		d.dropped.Add(1)
		d.logger.Warn().
			Str("alert_id", alert.ID).
			Str("kind", alert.Kind.String()).
			Int("track_id", alert.TrackID).
			Msg("Alert queue full, dropping alert")
	}
}

func (d *Dispatcher) worker(n int) {
	defer d.wg.Done()
	for alert := range d.queue {
		d.deliver(alert)
	}
	d.logger.Debug().Int("worker", n).Msg("Alert worker stopped")
}

func (d *Dispatcher) deliver(alert models.Alert) {
	start := time.Now()
	delivery := &Delivery{Alert: alert}

	for _, sink := range d.sinks {
		if err := d.runSink(sink, delivery); err != nil {
			d.failures.Add(1)
			d.logger.Error().
				Err(err).
				Str("sink", sink.Name()).
				Str("alert_id", alert.ID).
				Int("track_id", alert.TrackID).
				Msg("Alert sink failed")
		}
	}
	d.delivered.Add(1)

	d.logger.Debug().
		Str("alert_id", alert.ID).
		Str("kind", alert.Kind.String()).
		Dur("processing_time", time.Since(start)).
		Msg("Alert delivered")
}

func (d *Dispatcher) runSink(sink Sink, delivery *Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
	defer cancel()
	return sink.Deliver(ctx, delivery)
}

// Stats returns delivery counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Queued:    d.queued.Load(),
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Failures:  d.failures.Load(),
	}
}

// Shutdown stops accepting alerts and waits for queued ones to be delivered.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		started := d.started
		d.mu.Unlock()

		if !started {
			// Nothing will drain the queue.
			for range d.queue {
				d.dropped.Add(1)
			}
		}
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info().Msg("Alert dispatcher shutdown")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
