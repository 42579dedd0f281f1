package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidoenr/barviz/internal/config"
)

func TestThemesCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"themes"})
	require.NoError(t, root.Execute())

	text := out.String()
	assert.Contains(t, text, "Themes:")
	assert.Contains(t, text, config.DefaultTheme)
	assert.Contains(t, text, "Character sets:")
	assert.Contains(t, text, "Fonts: ")
}

func TestDevicesCommandWithSyntheticInput(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"devices", "--no-audio", "--log-file", ""})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "- [0] Synthetic Tone [synthetic] (default)")
	assert.Contains(t, out.String(), "Default selector resolves to: [0] Synthetic Tone")
}

func TestApplyFlagsOverridesSettings(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--device", "[2] Mic", "--fps", "50"}))
	opts := &options{device: "[2] Mic", fps: 50}

	store := config.NewStore(config.Defaults())
	applyFlags(root, opts, store)
	assert.Equal(t, "[2] Mic", store.Current().Device)
	assert.Equal(t, 50.0, store.Current().FPS)
}

func TestApplyFlagsKeepsFileValues(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags(nil))

	cfg := config.Defaults()
	cfg.Device = "Monitor"
	cfg.FPS = 24
	store := config.NewStore(cfg)
	applyFlags(root, &options{}, store)
	assert.Equal(t, "Monitor", store.Current().Device)
	assert.Equal(t, 24.0, store.Current().FPS)

	applyFlags(root, &options{noAudio: true}, store)
	assert.Equal(t, "Default", store.Current().Device)
}
