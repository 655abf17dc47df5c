// Package monitor owns the per-board state of a PiSugar hat: the
// detected battery chip, the RTC, and the rolling histories that feed
// charge-trend and tap-gesture detection. One Poll call per second
// drives everything.
package monitor

import (
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pisugar/pisugar-hat-controller/battery"
	"github.com/pisugar/pisugar-hat-controller/i2cbus"
	"github.com/pisugar/pisugar-hat-controller/rtc"
)

const (
	// A reading older than this means the battery chip has stopped
	// answering; trend decisions must not be made from stale data.
	aliveWindow = 3 * time.Second

	// ModelUnknown is reported when no battery chip answered the probe.
	ModelUnknown = "unknown"
)

// Status is the live state of the hat. It is created once at startup
// and mutated only by Poll; all methods serialize on one lock so bus
// transactions never interleave.
type Status struct {
	mu sync.Mutex

	chip *battery.Chip // nil when no chip was detected
	rtc  *rtc.SD3078

	model     string
	voltage   float64
	intensity float64
	level     float64
	levels    *levelHistory
	updatedAt time.Time
	rtcTime   time.Time
	taps      tapHistory

	// shutdownFn is the terminal supervisor action; replaced in tests.
	shutdownFn func()
}

// NewStatus probes for the battery chip, initializes it, and takes
// first readings. Detection failure is not fatal: the monitor degrades
// to zero readings and model "unknown".
func NewStatus(bus i2cbus.Bus) *Status {
	s := &Status{
		model: ModelUnknown,
		rtc:   rtc.New(bus),
	}
	s.shutdownFn = s.superviseShutdown

	chip, err := battery.Detect(bus)
	if err != nil {
		logrus.Error("PiSugar battery chip not found, readings will be zero")
	} else {
		s.chip = chip
		s.model = chip.Model()
		if v, err := chip.ReadVoltage(); err == nil {
			s.voltage = v
		}
		if i, err := chip.ReadIntensity(); err == nil {
			s.intensity = i
		}
		if err := chip.InitGPIO(); err != nil {
			logrus.Errorf("init GPIO failed: %v", err)
		}
		if err := chip.InitAutoShutdown(); err != nil {
			logrus.Errorf("init auto shutdown failed: %v", err)
		}
	}

	s.level = battery.Level(battery.DefaultCurve, s.voltage)
	s.levels = newLevelHistory(s.level)
	s.updatedAt = time.Now()

	if t, err := s.rtc.ReadTime(); err == nil {
		s.rtcTime = t.Time()
	} else {
		s.rtcTime = time.Now()
	}

	return s
}

// Poll runs one monitoring cycle: sample the tap button, refresh
// battery readings, check the shutdown threshold, refresh the RTC
// time, and finally run gesture detection. Failed reads keep the
// previous value; they are not surfaced to the caller.
//
// When the level is below cfg.AutoShutdownLevel, Poll does not return:
// the shutdown supervisor powers the system off.
func (s *Status) Poll(cfg *Config, now time.Time) (TapType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chip != nil {
		if t, err := s.chip.ReadGpioTap(); err == nil {
			s.taps.push(t != 0)
		}

		if v, err := s.chip.ReadVoltage(); err == nil {
			s.voltage = v
			s.level = battery.Level(battery.DefaultCurve, v)
			s.levels.push(s.level)
			s.updatedAt = now
		}
		if i, err := s.chip.ReadIntensity(); err == nil {
			s.intensity = i
			s.updatedAt = now
		}
	}

	if shouldPowerOff(s.level, cfg.AutoShutdownLevel) {
		s.shutdownFn()
	}

	if t, err := s.rtc.ReadTime(); err == nil {
		s.rtcTime = t.Time()
	}

	return s.taps.detect()
}

// shouldPowerOff is the (pure) shutdown decision, kept separate from
// the irreversible action.
func shouldPowerOff(level, threshold float64) bool {
	return level < threshold
}

// superviseShutdown never returns. It keeps invoking poweroff until
// the OS takes the process down; losing power mid-write is worse than
// a stuck loop.
func (s *Status) superviseShutdown() {
	for {
		logrus.Error("battery critically low, powering off")
		out, err := exec.Command("/sbin/poweroff").CombinedOutput()
		if err != nil {
			logrus.Errorf("poweroff failed: %v\n%s", err, out)
		}
		time.Sleep(3 * time.Second)
	}
}

// Model returns the detected board model name.
func (s *Status) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Voltage returns the last battery voltage in volts.
func (s *Status) Voltage() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voltage
}

// Intensity returns the last battery current in amps.
func (s *Status) Intensity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intensity
}

// Level returns the last battery percentage.
func (s *Status) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// IsCharging reports whether the level trend is rising and readings
// are fresh.
func (s *Status) IsCharging(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels.charging(s.isAlive(now))
}

func (s *Status) isAlive(now time.Time) bool {
	return !s.updatedAt.Add(aliveWindow).Before(now)
}

// RTCTime returns the cached RTC time from the last poll.
func (s *Status) RTCTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rtcTime
}

// WriteRTCTime sets the RTC clock.
func (s *Status) WriteRTCTime(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rtc.WriteTime(rtc.FromTime(t))
}

// SetAlarm programs the RTC wake-up alarm.
func (s *Status) SetAlarm(t rtc.Time, weekdayRepeat byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rtc.SetAlarm(t, weekdayRepeat)
}

// DisableAlarm turns the RTC wake-up alarm off.
func (s *Status) DisableAlarm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rtc.DisableAlarm()
}

// TestWake schedules a wake-up 90 seconds out for hardware self-test.
func (s *Status) TestWake() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rtc.SetTestWake()
}

// ForceShutdown cuts battery output via the chip. Only supported on
// the PiSugar 2 Pro.
func (s *Status) ForceShutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chip == nil {
		return battery.ErrNoChip
	}
	return s.chip.ForceShutdown()
}
