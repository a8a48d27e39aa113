package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
)

func resetViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadCanvasConfigOverlaysDefaults(t *testing.T) {
	resetViper(t)
	viper.Set("canvas", map[string]interface{}{
		"layout": map[string]interface{}{"node-width": 300},
		"root":   map[string]interface{}{"label": "Start"},
	})

	cfg, err := loadCanvasConfig()
	require.NoError(t, err)
	def := canvas.DefaultConfig()
	assert.Equal(t, 300.0, cfg.Layout.NodeWidth)
	assert.Equal(t, def.Layout.HorizontalGap, cfg.Layout.HorizontalGap)
	assert.Equal(t, "Start", cfg.Root.Label)
	assert.Equal(t, def.Root.Metadata, cfg.Root.Metadata)
}

func TestLoadCanvasConfigValidates(t *testing.T) {
	resetViper(t)
	viper.Set("canvas", map[string]interface{}{"header-height": -1})

	_, err := loadCanvasConfig()
	assert.Error(t, err)
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, InitLogger(&logConfig{Level: "loud", Quiet: true}))
	assert.NoError(t, InitLogger(&logConfig{Level: "error", Quiet: true}))
}

func TestRunCommandWritesExports(t *testing.T) {
	resetViper(t)
	out := t.TempDir()

	cmd := newRunCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--out", out, filepath.Join("..", "..", "pkg", "scenario", "testdata", "demo.yaml")})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "20 steps")
	assert.FileExists(t, filepath.Join(out, "DEMO-20.svg"))
}
