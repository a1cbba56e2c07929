package reporter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trambelus/Blueview/beacon"
	"github.com/trambelus/Blueview/internal/metrics"
	eventutil "github.com/trambelus/Blueview/internal/testutil"
)

var testUUID = [16]byte{0xe2, 0xc5, 0x6d, 0xb5, 0xdf, 0xfb, 0x48, 0xd2, 0xb0, 0x60, 0xd0, 0xf5, 0xa7, 0x10, 0x96, 0xe0}

func record(t *testing.T, event []byte) beacon.Record {
	t.Helper()
	results, err := beacon.DecodeEvent(event)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	return results[0].Record
}

func TestHTTPSinkPostsForm(t *testing.T) {
	var got http.Header
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.Header
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	event := eventutil.IBeaconEvent(testUUID, 1, 2, -60)
	sink := NewHTTPSink(HTTPConfig{URL: srv.URL})
	defer sink.Close()
	require.NoError(t, sink.Send(context.Background(), record(t, event)))

	assert.Equal(t, "application/x-www-form-urlencoded", got.Get("Content-Type"))
	assert.Equal(t, eventutil.Hex(event), form["packet"])
	assert.Equal(t, "C0:0A:DE:AD:BE:EF", form["mac"])
	assert.Equal(t, "e2c56db5dffb48d2b060d0f5a71096e0", form["uuid"])
	assert.NotContains(t, form, "manufacturer")
}

func TestHTTPSinkManufacturerField(t *testing.T) {
	var manufacturer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		manufacturer = r.PostFormValue("manufacturer")
	}))
	defer srv.Close()

	sink := NewHTTPSink(HTTPConfig{URL: srv.URL})
	rec := record(t, eventutil.EddystoneURLEvent(0x03, []byte("goo.gl/abc"), -70))
	require.NoError(t, sink.Send(context.Background(), rec))
	assert.Equal(t, "eddystone", manufacturer)
}

func TestHTTPSinkRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewHTTPSink(HTTPConfig{URL: srv.URL, Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond})
	require.NoError(t, sink.Send(context.Background(), record(t, eventutil.IBeaconEvent(testUUID, 1, 2, -60))))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSinkStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sink := NewHTTPSink(HTTPConfig{URL: srv.URL, Attempts: 2, Backoff: time.Millisecond})
	err := sink.Send(context.Background(), record(t, eventutil.IBeaconEvent(testUUID, 1, 2, -60)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 400")
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, time.Hour, func() error {
		calls++
		cancel()
		return errors.New("fail")
	})
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, calls)
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subject, p.data = subject, data
	return p.err
}

func TestNATSSinkPublishesSummary(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewNATSSink(pub, "blueview.beacons")
	rec := record(t, eventutil.IBeaconEvent(testUUID, 0x0102, 0x0304, -60))
	require.NoError(t, sink.Send(context.Background(), rec))
	require.NoError(t, sink.Close())

	assert.Equal(t, "blueview.beacons.apple", pub.subject)
	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, "C0:0A:DE:AD:BE:EF", got["mac"])
	assert.Equal(t, "ibeacon", got["type"])
	assert.Equal(t, float64(0x0102), got["major"])

	pub.err = errors.New("nats: connection closed")
	assert.Error(t, sink.Send(context.Background(), rec))
}

type chanSink struct {
	mu     sync.Mutex
	sent   []beacon.Record
	closed bool
	fail   bool
}

func (c *chanSink) Send(ctx context.Context, rec beacon.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("down")
	}
	c.sent = append(c.sent, rec)
	return nil
}

func (c *chanSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *chanSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	m := metrics.NewReporter(prometheus.NewRegistry())
	sink := &chanSink{}
	d := NewDispatcher(sink, 2, m)
	rec := record(t, eventutil.IBeaconEvent(testUUID, 1, 2, -60))

	// Run is not started: the queue holds two records.
	d.Handle(rec)
	d.Handle(rec)
	d.Handle(rec)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dropped))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	require.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.True(t, sink.closed)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Sent))
}

func TestDispatcherCountsFailures(t *testing.T) {
	m := metrics.NewReporter(prometheus.NewRegistry())
	sink := &chanSink{fail: true}
	d := NewDispatcher(sink, 4, m)
	d.Handle(record(t, eventutil.IBeaconEvent(testUUID, 1, 2, -60)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	require.Eventually(t, func() bool { return testutil.ToFloat64(m.Failed) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestDispatcherFlushesOnCancel(t *testing.T) {
	sink := &chanSink{}
	d := NewDispatcher(sink, 4, nil)
	rec := record(t, eventutil.IBeaconEvent(testUUID, 1, 2, -60))
	d.Handle(rec)
	d.Handle(rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))
	assert.Equal(t, 2, sink.count())
	assert.True(t, sink.closed)
}
