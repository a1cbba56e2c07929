package logging

import (
	"bytes"
	"testing"

	log "github.com/mgutz/logxi/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]int{
		"":      log.LevelInfo,
		"TRACE": log.LevelTrace,
		"debug": log.LevelDebug,
		"warn":  log.LevelWarn,
		"error": log.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetupAppliesLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	l := New("test")

	_, err := Setup(Config{Level: "error"})
	require.NoError(t, err)
	assert.False(t, l.IsInfo())
	assert.False(t, l.IsWarn())

	_, err = Setup(Config{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, l.IsDebug())
}
