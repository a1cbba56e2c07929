// Package scanner runs the read loop over an HCI source and hands decoded
// records to a handler.
package scanner

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	ble "github.com/trambelus/Blueview"
	"github.com/trambelus/Blueview/beacon"
	"github.com/trambelus/Blueview/bline/hci/socket"
	"github.com/trambelus/Blueview/hci"
	"github.com/trambelus/Blueview/internal/bytecodec"
	"github.com/trambelus/Blueview/internal/logging"
	"github.com/trambelus/Blueview/internal/metrics"
)

var logger = logging.New("scanner")

// maxEvent covers the largest HCI event: 3 header bytes and 255 parameter bytes.
const maxEvent = 3 + 255

// Opener opens the HCI source. It is called again after read failures.
type Opener func() (io.ReadCloser, error)

// Handler receives records that decoded and passed the filter.
type Handler func(beacon.Record)

// Config tunes the read loop.
type Config struct {
	RetryDelay time.Duration
	// MaxRetries bounds consecutive failed opens or reads. Zero stops at the
	// first failure, a negative value retries forever.
	MaxRetries int
	Filter     ble.AdvFilter
	Metrics    *metrics.Scanner
}

type Scanner struct {
	open   Opener
	handle Handler
	cfg    Config
}

func New(open Opener, handle Handler, cfg Config) *Scanner {
	if cfg.Filter == nil {
		cfg.Filter = ble.All()
	}
	return &Scanner{open: open, handle: handle, cfg: cfg}
}

// Run reads events until ctx is done or the source ends with io.EOF. Both
// return nil. Other failures reopen the source until MaxRetries is exceeded.
func (s *Scanner) Run(ctx context.Context) error {
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		src, err := s.open()
		if err == nil {
			var n int
			n, err = s.read(ctx, src)
			src.Close()
			if err == nil {
				return nil
			}
			if n > 0 {
				failures = 0
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ReadErrors.Inc()
		}
		failures++
		if s.cfg.MaxRetries >= 0 && failures > s.cfg.MaxRetries {
			return errors.Wrapf(err, "scanner gave up after %d failures", failures)
		}
		logger.Warn("source failed, reopening", "err", err, "delay", s.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.RetryDelay):
		}
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.Reconnects.Inc()
		}
	}
}

// read consumes src and returns the number of events read. A nil error means
// end of stream or cancellation.
func (s *Scanner) read(ctx context.Context, src io.ReadCloser) (int, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			src.Close()
		case <-done:
		}
	}()

	events := 0
	buf := make([]byte, maxEvent)
	for {
		n, err := src.Read(buf)
		if ctx.Err() != nil {
			return events, nil
		}
		if err != nil {
			if errors.Is(err, socket.ErrReadTimeout) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, errors.Wrap(err, "read hci event")
		}
		if n == 0 {
			continue
		}
		events++
		event := make([]byte, n)
		copy(event, buf[:n])
		s.Process(event)
	}
}

// Process decodes one event and dispatches its records.
func (s *Scanner) Process(event []byte) {
	m := s.cfg.Metrics
	if m != nil {
		m.Events.Inc()
	}
	if logger.IsTrace() {
		logger.Trace("hci event", "packet", bytecodec.ToHex(event))
	}
	results, err := beacon.DecodeEvent(event)
	if err != nil {
		logger.Warn("undecodable event", "err", err)
		if m != nil {
			m.DecodeErrors.WithLabelValues(errorKind(err)).Inc()
		}
		return
	}
	for _, res := range results {
		if res.Err != nil {
			logger.Warn("undecodable report", "mac", res.Record.MAC(), "index", res.Record.Index, "err", res.Err)
			if m != nil {
				m.DecodeErrors.WithLabelValues(errorKind(res.Err)).Inc()
			}
			continue
		}
		if m != nil {
			m.Reports.WithLabelValues(res.Record.Manufacturer(), res.Record.Payload.Kind()).Inc()
		}
		if !s.cfg.Filter(res.Record) {
			continue
		}
		s.handle(res.Record)
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, hci.ErrTruncatedEvent):
		return "truncated_event"
	case errors.Is(err, beacon.ErrTruncatedPayload):
		return "truncated_payload"
	case errors.Is(err, beacon.ErrUnknownScheme):
		return "unknown_scheme"
	case errors.Is(err, beacon.ErrInvalidURLEncoding):
		return "invalid_url"
	}
	return "other"
}
