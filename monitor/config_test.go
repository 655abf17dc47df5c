package monitor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pisugar.json")

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pisugar.json")

	cfg := DefaultConfig()
	cfg.AutoWakeType = AutoWakeRepeat
	cfg.AutoWakeTime = [7]byte{0x00, 0x30, 0x87, 0x00, 0x01, 0x01, 0x23}
	cfg.AutoWakeRepeat = 0x7f
	cfg.SingleTapEnable = true
	cfg.SingleTapShell = "systemctl suspend"
	cfg.AutoShutdownLevel = 5.5
	assert.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestTapEnabled(t *testing.T) {
	cfg := &Config{
		DoubleTapEnable: true,
		DoubleTapShell:  "poweroff",
	}

	enabled, shell := cfg.TapEnabled(DoubleTap)
	assert.True(t, enabled)
	assert.Equal(t, "poweroff", shell)

	enabled, _ = cfg.TapEnabled(SingleTap)
	assert.False(t, enabled)
}
