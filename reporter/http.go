package reporter

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/trambelus/Blueview/beacon"
)

// NewHTTPClient returns a client with bounded dial and handshake times.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Retry calls fn up to attempts times, doubling the wait from initial up to max.
func Retry(ctx context.Context, attempts int, initial, max time.Duration, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}
	d := initial
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
			if d < max {
				d *= 2
				if d > max {
					d = max
				}
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

// HTTPConfig configures the form post sink.
type HTTPConfig struct {
	URL        string
	Timeout    time.Duration
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// HTTPSink posts each record as an url-encoded form: packet, mac and uuid or
// manufacturer.
type HTTPSink struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTPSink(cfg HTTPConfig) *HTTPSink {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &HTTPSink{cfg: cfg, client: NewHTTPClient(cfg.Timeout)}
}

func (h *HTTPSink) Send(ctx context.Context, rec beacon.Record) error {
	form := url.Values{}
	for k, v := range rec.Fields() {
		form.Set(k, v)
	}
	body := form.Encode()
	return Retry(ctx, h.cfg.Attempts, h.cfg.Backoff, h.cfg.MaxBackoff, func() error {
		return h.post(ctx, body)
	})
}

func (h *HTTPSink) post(ctx context.Context, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.URL, strings.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "post %s", h.cfg.URL)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("post %s: http %d", h.cfg.URL, resp.StatusCode)
	}
	return nil
}

func (h *HTTPSink) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
