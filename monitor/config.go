package monitor

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/sirupsen/logrus"
)

// Auto-wake modes.
const (
	AutoWakeNone   = 0
	AutoWakeRepeat = 1
)

// Config holds the externally persisted PiSugar settings.
type Config struct {
	AutoWakeType   int     `json:"auto_wake_type"`
	AutoWakeTime   [7]byte `json:"auto_wake_time"`   // packed BCD, rtc.Time layout
	AutoWakeRepeat byte    `json:"auto_wake_repeat"` // weekday mask, Sunday = bit 0

	SingleTapEnable bool   `json:"single_tap_enable"`
	SingleTapShell  string `json:"single_tap_shell"`
	DoubleTapEnable bool   `json:"double_tap_enable"`
	DoubleTapShell  string `json:"double_tap_shell"`
	LongTapEnable   bool   `json:"long_tap_enable"`
	LongTapShell    string `json:"long_tap_shell"`

	// Battery percentage below which the shutdown supervisor fires.
	AutoShutdownLevel float64 `json:"auto_shutdown_level"`
}

// DefaultConfig leaves every tap hook disabled and the shutdown
// threshold at zero, which never triggers.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig reads the config file, creating it with defaults when it
// does not exist.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("config file %s does not exist, creating it with defaults", path)
		cfg := DefaultConfig()
		if err := SaveConfig(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes the config file.
func SaveConfig(path string, cfg *Config) error {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// TapEnabled returns whether the hook for a gesture is enabled, and
// its shell command.
func (c *Config) TapEnabled(t TapType) (bool, string) {
	switch t {
	case SingleTap:
		return c.SingleTapEnable, c.SingleTapShell
	case DoubleTap:
		return c.DoubleTapEnable, c.DoubleTapShell
	case LongTap:
		return c.LongTapEnable, c.LongTapShell
	default:
		return false, ""
	}
}
