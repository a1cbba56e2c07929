package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "hci", cfg.Scan.Source)
	assert.Equal(t, 5*time.Second, cfg.Scan.ReadTimeout)
	assert.Equal(t, 3, cfg.Scan.MaxRetries)
	assert.Equal(t, "none", cfg.Report.Sink)
	assert.Equal(t, "http://localhost:83/blueview/data", cfg.Report.URL)
	assert.Equal(t, ":83", cfg.Collect.Listen)
	assert.Equal(t, 1024, cfg.Collect.QueueSize)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blueview.yml")
	yml := `
blueview:
  log:
    level: debug
  scan:
    source: bline
    bline_url: anchors.local:4001
    anchor: 2
    vendors: [apple, eddystone]
  report:
    sink: http
    url: http://collector:83/blueview/data
    attempts: 5
  collect:
    queue_size: 16
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "bline", cfg.Scan.Source)
	assert.Equal(t, "anchors.local:4001", cfg.Scan.BlineURL)
	assert.Equal(t, 2, cfg.Scan.Anchor)
	assert.Equal(t, []string{"apple", "eddystone"}, cfg.Scan.Vendors)
	assert.Equal(t, "http", cfg.Report.Sink)
	assert.Equal(t, 5, cfg.Report.Attempts)
	assert.Equal(t, 16, cfg.Collect.QueueSize)
	assert.Equal(t, 2*time.Second, cfg.Scan.RetryDelay)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, yml := range map[string]string{
		"source": "blueview:\n  scan:\n    source: usb\n",
		"bline":  "blueview:\n  scan:\n    source: bline\n",
		"sink":   "blueview:\n  report:\n    sink: kafka\n",
		"level":  "blueview:\n  log:\n    level: loud\n",
	} {
		path := filepath.Join(dir, name+".yml")
		require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
		_, err := Load(path)
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
