// Package rtc drives the SD3078 real-time clock. All writes to time or
// alarm registers must happen inside the chip's write-protect bracket;
// withWriteEnabled models that as a scoped acquisition so protection is
// restored on every exit path.
package rtc

import (
	"fmt"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pisugar/pisugar-hat-controller/i2cbus"
)

const (
	sd3078Address = 0x32

	regTime        = 0x00
	regAlarmTime   = 0x07
	regAlarmEnable = 0x0e
	regCtr1        = 0x0f
	regCtr2        = 0x10

	// Hour register bits.
	hour24Bit = 0b1000_0000
	hourPMBit = 0b0010_0000

	// Write-protect bits: WRTC1 in CTR2, WRTC2/WRTC3 in CTR1.
	ctr2WriteBit  = 0b1000_0000
	ctr1WriteBits = 0b1000_0100

	// CTR1 alarm/interrupt flags, INTDF and INTAF.
	ctr1AlarmFlags = 0b0011_0000

	// CTR2 alarm interrupt setup: set INTAE/IM/INTS0, clear INTS1.
	ctr2AlarmSet   = 0b0101_0010
	ctr2AlarmClear = 0b1101_1111

	// Alarm matches on hour, minute and second.
	alarmEnableHMS = 0b0000_0111

	// All seven weekday bits, Sunday = bit 0.
	RepeatEveryDay = 0b0111_1111
)

// SD3078 is a driver for the SD3078 RTC chip.
type SD3078 struct {
	bus  i2cbus.Bus
	addr uint16
}

func New(bus i2cbus.Bus) *SD3078 {
	return &SD3078{bus: bus, addr: sd3078Address}
}

func (r *SD3078) enableWrite() error {
	v, err := r.bus.ReadByte(r.addr, regCtr2)
	if err != nil {
		return err
	}
	if err := r.bus.WriteByte(r.addr, regCtr2, v|ctr2WriteBit); err != nil {
		return err
	}
	v, err = r.bus.ReadByte(r.addr, regCtr1)
	if err != nil {
		return err
	}
	return r.bus.WriteByte(r.addr, regCtr1, v|ctr1WriteBits)
}

func (r *SD3078) disableWrite() error {
	v, err := r.bus.ReadByte(r.addr, regCtr1)
	if err != nil {
		return err
	}
	if err := r.bus.WriteByte(r.addr, regCtr1, v&^byte(ctr1WriteBits)); err != nil {
		return err
	}
	v, err = r.bus.ReadByte(r.addr, regCtr2)
	if err != nil {
		return err
	}
	return r.bus.WriteByte(r.addr, regCtr2, v&^byte(ctr2WriteBit))
}

// withWriteEnabled runs fn with write protection lifted. Protection is
// restored even when fn fails; a restore failure is surfaced only if
// fn itself succeeded.
func (r *SD3078) withWriteEnabled(fn func() error) (err error) {
	if err = r.enableWrite(); err != nil {
		return err
	}
	defer func() {
		if derr := r.disableWrite(); derr != nil {
			if err == nil {
				err = derr
			} else {
				logrus.Errorf("restoring RTC write protection: %v", derr)
			}
		}
	}()
	return fn()
}

// ReadTime reads the current RTC time. The hour register carries mode
// bits: top bit set means 24-hour mode, otherwise the PM bit selects
// the afternoon in 12-hour mode.
func (r *SD3078) ReadTime() (Time, error) {
	var t Time
	if err := r.bus.ReadBlock(r.addr, regTime, t[:]); err != nil {
		return Time{}, err
	}
	if t[2]&hour24Bit != 0 {
		t[2] &= ^byte(hour24Bit)
	} else if t[2]&hourPMBit != 0 {
		t[2] = toBCD(fromBCD(t[2]&^byte(hourPMBit)) + 12)
	}
	return t, nil
}

// WriteTime sets the RTC time, forcing 24-hour mode.
func (r *SD3078) WriteTime(t Time) error {
	t[2] |= hour24Bit
	return r.withWriteEnabled(func() error {
		return r.bus.WriteBlock(r.addr, regTime, t[:])
	})
}

// SetAlarm programs the wake-up alarm. weekdayRepeat is a 7-bit mask
// of weekdays the alarm repeats on, Sunday = bit 0; it replaces the
// weekday field of the alarm time.
func (r *SD3078) SetAlarm(t Time, weekdayRepeat byte) error {
	t[3] = weekdayRepeat & RepeatEveryDay
	return r.withWriteEnabled(func() error {
		if err := r.bus.WriteBlock(r.addr, regAlarmTime, t[:]); err != nil {
			return err
		}
		ctr2, err := r.bus.ReadByte(r.addr, regCtr2)
		if err != nil {
			return err
		}
		ctr2 |= ctr2AlarmSet
		ctr2 &= ctr2AlarmClear
		if err := r.bus.WriteByte(r.addr, regCtr2, ctr2); err != nil {
			return err
		}
		return r.bus.WriteByte(r.addr, regAlarmEnable, alarmEnableHMS)
	})
}

// DisableAlarm turns the wake-up alarm off.
func (r *SD3078) DisableAlarm() error {
	return r.withWriteEnabled(func() error {
		ctr2, err := r.bus.ReadByte(r.addr, regCtr2)
		if err != nil {
			return err
		}
		ctr2 |= ctr2AlarmSet
		ctr2 &= ctr2AlarmClear
		if err := r.bus.WriteByte(r.addr, regCtr2, ctr2); err != nil {
			return err
		}
		return r.bus.WriteByte(r.addr, regAlarmEnable, 0)
	})
}

// ReadAlarmFlag reports whether an alarm or countdown interrupt has
// fired since the flag was last cleared.
func (r *SD3078) ReadAlarmFlag() (bool, error) {
	v, err := r.bus.ReadByte(r.addr, regCtr1)
	if err != nil {
		return false, err
	}
	return v&ctr1AlarmFlags != 0, nil
}

// ClearAlarmFlag resets the alarm interrupt flags if set.
func (r *SD3078) ClearAlarmFlag() error {
	flag, err := r.ReadAlarmFlag()
	if err != nil || !flag {
		return err
	}
	return r.withWriteEnabled(func() error {
		v, err := r.bus.ReadByte(r.addr, regCtr1)
		if err != nil {
			return err
		}
		return r.bus.WriteByte(r.addr, regCtr1, v&^byte(ctr1AlarmFlags))
	})
}

// SetTestWake sets the clock to now and an alarm 90 seconds out,
// repeating every weekday, so the wake-up circuit can be verified by
// powering off.
func (r *SD3078) SetTestWake() error {
	now := time.Now()
	if err := r.WriteTime(FromTime(now)); err != nil {
		return err
	}
	if err := r.SetAlarm(FromTime(now.Add(90*time.Second)), RepeatEveryDay); err != nil {
		return err
	}
	logrus.Info("will wake after 1 min 30 sec, power off now to test")
	return nil
}

// SetSystemTime writes the RTC time to the system clock.
func (r *SD3078) SetSystemTime() error {
	t, err := r.ReadTime()
	if err != nil {
		return err
	}
	now := t.Time()
	if now.Year() < 2020 {
		// An unset SD3078 reports year 2000, don't clobber the system
		// clock with it.
		logrus.Warnf("RTC time %s looks unset, not writing to system clock", now.Format(time.RFC3339))
		return nil
	}
	timeStr := now.Format("2006-01-02 15:04:05")
	logrus.Infof("writing time to system clock: %s", timeStr)
	out, err := exec.Command("date", "--set", timeStr, "+%Y-%m-%d %H:%M:%S").CombinedOutput()
	if err != nil {
		return fmt.Errorf("setting system clock: %v, out: %s", err, out)
	}
	return nil
}
