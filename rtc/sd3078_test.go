package rtc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pisugar/pisugar-hat-controller/i2cbus"
)

func TestReadTime24Hour(t *testing.T) {
	bus := i2cbus.NewFakeBus()
	for reg, v := range []byte{0x45, 0x30, 0x93, 0x04, 0x05, 0x06, 0x23} {
		bus.Set(sd3078Address, byte(reg), v)
	}

	ts, err := New(bus).ReadTime()
	assert.NoError(t, err)
	// Top bit of the hour byte marks 24-hour mode and is stripped.
	assert.Equal(t, time.Date(2023, 6, 5, 13, 30, 45, 0, time.Local), ts.Time())
}

func TestReadTime12HourPM(t *testing.T) {
	bus := i2cbus.NewFakeBus()
	for reg, v := range []byte{0x00, 0x15, 0x29, 0x04, 0x05, 0x06, 0x23} {
		bus.Set(sd3078Address, byte(reg), v)
	}

	ts, err := New(bus).ReadTime()
	assert.NoError(t, err)
	// PM bit in 12-hour mode adds 12 to the hour.
	assert.Equal(t, 21, ts.Time().Hour())
}

func TestWriteTimeProtectBracket(t *testing.T) {
	bus := i2cbus.NewFakeBus()
	rtc := New(bus)

	err := rtc.WriteTime(FromTime(time.Date(2023, 4, 5, 6, 7, 8, 0, time.Local)))
	assert.NoError(t, err)

	// Unlock order: CTR2 write bit first, then CTR1; restore inverts.
	assert.Equal(t, "w 10=80", bus.Log[0])
	assert.Equal(t, "w 0f=84", bus.Log[1])
	assert.Equal(t, "w 0f=00", bus.Log[len(bus.Log)-2])
	assert.Equal(t, "w 10=00", bus.Log[len(bus.Log)-1])

	// 24-hour mode forced on the hour byte.
	assert.Equal(t, byte(0x86), bus.Regs[sd3078Address][0x02])
	assert.Equal(t, byte(0x08), bus.Regs[sd3078Address][0x00])
	assert.Equal(t, byte(0x23), bus.Regs[sd3078Address][0x06])
}

func TestWriteTimeRestoresProtectionOnFailure(t *testing.T) {
	bus := i2cbus.NewFakeBus()
	bus.FailWrite[regTime] = errors.New("remote I/O error")
	rtc := New(bus)

	err := rtc.WriteTime(FromTime(time.Now()))
	assert.Error(t, err)

	// Protection restored even though the block write failed.
	assert.Equal(t, "w 0f=00", bus.Log[len(bus.Log)-2])
	assert.Equal(t, "w 10=00", bus.Log[len(bus.Log)-1])
}

func TestSetAlarm(t *testing.T) {
	bus := i2cbus.NewFakeBus()
	rtc := New(bus)

	alarm := FromTime(time.Date(2023, 4, 5, 6, 7, 8, 0, time.Local))
	assert.NoError(t, rtc.SetAlarm(alarm, RepeatEveryDay))

	regs := bus.Regs[sd3078Address]
	// Weekday field of the alarm block carries the repeat mask.
	assert.Equal(t, byte(0x7f), regs[regAlarmTime+3])
	assert.Equal(t, byte(0x08), regs[regAlarmTime])
	// Alarm matches on hour/minute/second.
	assert.Equal(t, byte(0x07), regs[regAlarmEnable])
	// Interrupt bits set, write protection restored.
	assert.Equal(t, byte(0x52), regs[regCtr2])
	assert.Equal(t, byte(0x00), regs[regCtr1])
}

func TestDisableAlarm(t *testing.T) {
	bus := i2cbus.NewFakeBus()
	bus.Set(sd3078Address, regAlarmEnable, 0x07)
	rtc := New(bus)

	assert.NoError(t, rtc.DisableAlarm())
	assert.Equal(t, byte(0x00), bus.Regs[sd3078Address][regAlarmEnable])
}

func TestAlarmFlag(t *testing.T) {
	bus := i2cbus.NewFakeBus()
	rtc := New(bus)

	flag, err := rtc.ReadAlarmFlag()
	assert.NoError(t, err)
	assert.False(t, flag)

	bus.Set(sd3078Address, regCtr1, 0x30)
	flag, err = rtc.ReadAlarmFlag()
	assert.NoError(t, err)
	assert.True(t, flag)

	assert.NoError(t, rtc.ClearAlarmFlag())
	assert.Equal(t, byte(0x00), bus.Regs[sd3078Address][regCtr1]&ctr1AlarmFlags)
}
