package collector

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDropsOldest(t *testing.T) {
	q := NewQueue(2)
	assert.Equal(t, 0, q.Push(Entry{MAC: "a"}))
	assert.Equal(t, 0, q.Push(Entry{MAC: "b"}))
	assert.Equal(t, 1, q.Push(Entry{MAC: "c"}))
	assert.Equal(t, 2, q.Len())

	got := q.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].MAC)
	assert.Equal(t, "c", got[1].MAC)
	assert.NotNil(t, q.Drain())
	assert.Empty(t, q.Drain())
}

func newTestServer(t *testing.T, cfg Config) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewServer(cfg, reg, reg), reg
}

func post(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/blueview/data", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPostAndDrain(t *testing.T) {
	s, _ := newTestServer(t, Config{QueueSize: 8})
	h := s.Handler()

	rec := post(t, h, url.Values{"uuid": {"e2c56db5dffb48d2b060d0f5a71096e0"}, "mac": {"C0:0A:DE:AD:BE:EF"}, "packet": {"043e"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	rec = post(t, h, url.Values{"manufacturer": {"eddystone"}, "mac": {"C0:0A:DE:AD:BE:EE"}, "packet": {"043f"}})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/blueview/data", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var entries []Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "e2c56db5dffb48d2b060d0f5a71096e0", entries[0].UUID)
	assert.Equal(t, "eddystone", entries[1].Manufacturer)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blueview/data", nil))
	assert.JSONEq(t, "[]", rec.Body.String())
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.Drained))
}

func TestPostMissingField(t *testing.T) {
	s, _ := newTestServer(t, Config{QueueSize: 8})
	cases := map[string]url.Values{
		"mac":    {"uuid": {"x"}, "packet": {"043e"}},
		"packet": {"uuid": {"x"}, "mac": {"C0:0A:DE:AD:BE:EF"}},
		"uuid":   {"mac": {"C0:0A:DE:AD:BE:EF"}, "packet": {"043e"}},
	}
	for field, form := range cases {
		t.Run(field, func(t *testing.T) {
			rec := post(t, s.Handler(), form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), field)
		})
	}
	assert.Equal(t, 0, s.Queue().Len())
	assert.Equal(t, 3.0, testutil.ToFloat64(s.metrics.Rejected))
}

func TestPostCountsDropped(t *testing.T) {
	s, _ := newTestServer(t, Config{QueueSize: 1})
	form := url.Values{"uuid": {"x"}, "mac": {"m"}, "packet": {"p"}}
	post(t, s.Handler(), form)
	post(t, s.Handler(), form)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Dropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.QueueDepth))
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t, Config{QueueSize: 1})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blueview", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/blueview/data")

	file := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(file, []byte("<p>custom</p>"), 0o644))
	s, _ = newTestServer(t, Config{QueueSize: 1, IndexFile: file})
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blueview", nil))
	assert.Equal(t, "<p>custom</p>", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Config{QueueSize: 1})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "blueview_collector_queue_depth")
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, Config{QueueSize: 1})
	req := httptest.NewRequest(http.MethodGet, "/blueview/data", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
