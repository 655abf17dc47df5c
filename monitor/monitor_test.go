package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pisugar/pisugar-hat-controller/battery"
	"github.com/pisugar/pisugar-hat-controller/i2cbus"
)

const chipAddr = 0x75

// newIP5209Bus returns a fake bus that answers as an IP5209 board: the
// IP5312 voltage probe reads (0, 0) and falls through.
func newIP5209Bus() *i2cbus.FakeBus {
	bus := i2cbus.NewFakeBus()
	bus.Set(chipAddr, 0xa2, 0x00)
	bus.Set(chipAddr, 0xa3, 0x10) // 3.7V
	return bus
}

func TestNewStatusDetectsChip(t *testing.T) {
	s := NewStatus(newIP5209Bus())
	assert.Equal(t, battery.ModelV2, s.Model())
	assert.InDelta(t, 3.7, s.Voltage(), 0.001)
	assert.InDelta(t, 28.8, s.Level(), 0.1)
}

func TestNewStatusDegradedMode(t *testing.T) {
	bus := i2cbus.NewFakeBus()
	bus.FailRead[0xd0] = errors.New("remote I/O error")
	bus.FailRead[0xa2] = errors.New("remote I/O error")

	s := NewStatus(bus)
	assert.Equal(t, ModelUnknown, s.Model())
	assert.Equal(t, 0.0, s.Voltage())
	// No reading maps to full, so a missing chip never powers off.
	assert.Equal(t, 100.0, s.Level())

	_, ok := s.Poll(DefaultConfig(), time.Now())
	assert.False(t, ok)
}

func TestPollUpdatesReadings(t *testing.T) {
	bus := newIP5209Bus()
	s := NewStatus(bus)

	bus.Set(chipAddr, 0xa3, 0x11) // voltage rises
	_, ok := s.Poll(DefaultConfig(), time.Now())
	assert.False(t, ok)
	assert.InDelta(t, 3.77, s.Voltage(), 0.01)
}

func TestPollKeepsStaleValuesOnReadFailure(t *testing.T) {
	bus := newIP5209Bus()
	s := NewStatus(bus)
	before := s.Voltage()

	bus.FailRead[0xa2] = errors.New("remote I/O error")
	_, ok := s.Poll(DefaultConfig(), time.Now())
	assert.False(t, ok)
	assert.Equal(t, before, s.Voltage())
}

func TestPollDetectsGesture(t *testing.T) {
	bus := newIP5209Bus()
	s := NewStatus(bus)
	cfg := DefaultConfig()

	bus.Set(chipAddr, 0x55, 0x01)
	_, ok := s.Poll(cfg, time.Now())
	assert.False(t, ok)

	bus.Set(chipAddr, 0x55, 0x00)
	for i := 0; i < 2; i++ {
		_, ok = s.Poll(cfg, time.Now())
		assert.False(t, ok)
	}
	tap, ok := s.Poll(cfg, time.Now())
	assert.True(t, ok)
	assert.Equal(t, SingleTap, tap)
}

func TestPollTriggersShutdownSupervisor(t *testing.T) {
	bus := newIP5209Bus()
	bus.Set(chipAddr, 0xa3, 0x00) // 2.6V, level 0
	s := NewStatus(bus)

	fired := false
	s.shutdownFn = func() { fired = true }

	cfg := DefaultConfig()
	cfg.AutoShutdownLevel = 20
	s.Poll(cfg, time.Now())
	assert.True(t, fired)

	// Above the threshold nothing fires.
	fired = false
	bus.Set(chipAddr, 0xa3, 0x10)
	s.Poll(cfg, time.Now())
	assert.False(t, fired)
}

func TestShouldPowerOff(t *testing.T) {
	assert.True(t, shouldPowerOff(29.9, 30))
	assert.False(t, shouldPowerOff(30, 30))
	assert.False(t, shouldPowerOff(100, 0))
}

func TestIsChargingNeedsFreshReadings(t *testing.T) {
	bus := newIP5209Bus()
	s := NewStatus(bus)
	cfg := DefaultConfig()

	now := time.Now()
	// Rising voltage over the whole window.
	for i := 0; i < levelHistorySize; i++ {
		bus.Set(chipAddr, 0xa3, byte(0x10+i))
		s.Poll(cfg, now)
	}
	assert.True(t, s.IsCharging(now))
	// The same history is worthless once readings are stale.
	assert.False(t, s.IsCharging(now.Add(10*time.Second)))
}
