package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesComponentRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	logger, closer := New(Options{Path: path})

	Component(logger, "audio").Info().Str("device", "[2] USB Mic").Msg("connected")
	Component(logger, "audio").Debug().Msg("hidden at info level")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `"component":"audio"`)
	assert.Contains(t, text, `"message":"connected"`)
	assert.NotContains(t, text, "hidden at info level")
	assert.Equal(t, 1, strings.Count(text, "\n"))
}

func TestDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	logger, closer := New(Options{Path: path, Debug: true})
	logger.Debug().Msg("verbose")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "verbose")
}

func TestEmptyPathDiscards(t *testing.T) {
	logger, closer := New(Options{})
	logger.Error().Msg("nowhere")
	assert.NoError(t, closer.Close())
}

func TestComponentOfNil(t *testing.T) {
	l := Component(nil, "x")
	require.NotNil(t, l)
	l.Info().Msg("dropped")
}
