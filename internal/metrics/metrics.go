// Package metrics defines the prometheus collectors of the scanner and collector.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blueview"

// Scanner counts read loop activity.
type Scanner struct {
	Events       prometheus.Counter
	Reports      *prometheus.CounterVec
	DecodeErrors *prometheus.CounterVec
	ReadErrors   prometheus.Counter
	Reconnects   prometheus.Counter
}

// NewScanner registers the scanner collectors with reg.
func NewScanner(reg prometheus.Registerer) *Scanner {
	m := &Scanner{
		Events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hci_events_total",
			Help:      "HCI events read from the source",
		}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Advertising reports decoded, by vendor and payload type",
		}, []string{"vendor", "type"}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Reports or events that failed to decode",
		}, []string{"kind"}),
		ReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_errors_total",
			Help:      "Source read failures",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_reopen_total",
			Help:      "Times the source was reopened after a failure",
		}),
	}
	reg.MustRegister(m.Events, m.Reports, m.DecodeErrors, m.ReadErrors, m.Reconnects)
	return m
}

// Reporter counts transmissions.
type Reporter struct {
	Sent    prometheus.Counter
	Failed  prometheus.Counter
	Dropped prometheus.Counter
}

// NewReporter registers the reporter collectors with reg.
func NewReporter(reg prometheus.Registerer) *Reporter {
	m := &Reporter{
		Sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_sent_total",
			Help:      "Records delivered to the sink",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_failed_total",
			Help:      "Records the sink rejected after all retries",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records dropped because the send queue was full",
		}),
	}
	reg.MustRegister(m.Sent, m.Failed, m.Dropped)
	return m
}

// Collector counts the collector queue traffic.
type Collector struct {
	Received   prometheus.Counter
	Rejected   prometheus.Counter
	Drained    prometheus.Counter
	Dropped    prometheus.Counter
	QueueDepth prometheus.Gauge
}

// NewCollector registers the collector collectors with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	m := &Collector{
		Received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "received_total",
			Help:      "Entries posted by scanners",
		}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "rejected_total",
			Help:      "Posts rejected for missing fields",
		}),
		Drained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "drained_total",
			Help:      "Entries handed out to readers",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "dropped_total",
			Help:      "Oldest entries dropped because the queue was full",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "queue_depth",
			Help:      "Entries waiting in the queue",
		}),
	}
	reg.MustRegister(m.Received, m.Rejected, m.Drained, m.Dropped, m.QueueDepth)
	return m
}

// Serve exposes g on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "metrics listen %s", addr)
	}
	return nil
}
