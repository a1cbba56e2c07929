package reporter

import (
	"context"
	"time"

	"github.com/trambelus/Blueview/beacon"
	"github.com/trambelus/Blueview/internal/metrics"
)

// Dispatcher decouples the read loop from a slow sink. Handle never blocks;
// records arriving while the queue is full are dropped.
type Dispatcher struct {
	sink    Sink
	queue   chan beacon.Record
	metrics *metrics.Reporter
}

func NewDispatcher(sink Sink, size int, m *metrics.Reporter) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{sink: sink, queue: make(chan beacon.Record, size), metrics: m}
}

// Handle queues rec. It matches scanner.Handler.
func (d *Dispatcher) Handle(rec beacon.Record) {
	select {
	case d.queue <- rec:
	default:
		logger.Debug("send queue full, dropping", "mac", rec.MAC())
		if d.metrics != nil {
			d.metrics.Dropped.Inc()
		}
	}
}

// flushTimeout bounds the delivery of records still queued at shutdown.
const flushTimeout = 5 * time.Second

// Run sends queued records until ctx is done, flushes what is left and closes
// the sink.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.sink.Close()
	for {
		select {
		case <-ctx.Done():
			d.flush()
			return nil
		case rec := <-d.queue:
			d.send(ctx, rec)
		}
	}
}

func (d *Dispatcher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for ctx.Err() == nil {
		select {
		case rec := <-d.queue:
			d.send(ctx, rec)
		default:
			return
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, rec beacon.Record) {
	if err := d.sink.Send(ctx, rec); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("send failed", "mac", rec.MAC(), "err", err)
		if d.metrics != nil {
			d.metrics.Failed.Inc()
		}
		return
	}
	if d.metrics != nil {
		d.metrics.Sent.Inc()
	}
}
