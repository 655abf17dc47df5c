// Package battery drives the IP5209 and IP5312 power-management chips
// found on PiSugar 2 boards. Both chips share one register address and
// the same signed register-pair encoding, so a single driver handles
// them, parameterized by a per-variant register table.
package battery

import (
	"errors"

	"github.com/pisugar/pisugar-hat-controller/i2cbus"
)

const (
	chipAddress = 0x75

	ModelV2    = "PiSugar 2"
	ModelV2Pro = "PiSugar 2 Pro"

	// Layout of a (low, high) register pair: bit 5 of the high byte is
	// the sign, bits 0-4 carry the upper data bits.
	signMask = 0x20
	dataMask = 0x1f
)

// ErrFeatureNotSupported is returned for operations the detected chip
// variant cannot perform, and by the IP5312 voltage read when the
// register pair reads (0, 0).
var ErrFeatureNotSupported = errors.New("feature not supported by this chip")

// regOp is one read-modify-write step of an init sequence: read from
// readReg, clear the bits outside `and`, set the bits in `or`, write
// to writeReg.
type regOp struct {
	readReg  byte
	writeReg byte
	and      byte
	or       byte
}

type chipConfig struct {
	model string

	voltLowReg, voltHighReg byte
	voltScale               float64 // mV per LSB
	voltBase                float64 // mV
	voltZeroUnsupported     bool

	ampLowReg, ampHighReg byte
	ampScale              float64 // mA per LSB

	gpioInit     []regOp
	shutdownInit []regOp

	tapReg  byte
	tapMask byte

	forceShutdown []regOp // nil when the chip has no force-shutdown bit
}

// IP5209, the PiSugar 2 (pi-zero) chip.
var ip5209Config = chipConfig{
	model:       ModelV2,
	voltLowReg:  0xa2,
	voltHighReg: 0xa3,
	voltScale:   0.26855,
	voltBase:    2600.0,
	ampLowReg:   0xa4,
	ampHighReg:  0xa5,
	ampScale:    0.745985,
	gpioInit: []regOp{
		{readReg: 0x26, writeReg: 0x26, and: 0b1011_1111}, // vset
		{readReg: 0x52, writeReg: 0x52, and: 0b1111_0111, or: 0b0000_0100}, // vset -> gpio
		{readReg: 0x53, writeReg: 0x53, and: 0b1111_1111, or: 0b0001_0000}, // gpio input enable
	},
	shutdownInit: []regOp{
		{readReg: 0x0c, writeReg: 0x0c, and: 0b0000_0111, or: 12 << 3}, // threshold 12*12mA = 144mA
		{readReg: 0x04, writeReg: 0x04, and: 0b0011_1111},              // idle time 8s
		{readReg: 0x02, writeReg: 0x02, and: 0b1111_1111, or: 0b0000_0011}, // enable and turn on
	},
	tapReg:  0x55,
	tapMask: 0xff,
}

// IP5312, the PiSugar 2 Pro (pi-3/4) chip.
var ip5312Config = chipConfig{
	model:               ModelV2Pro,
	voltLowReg:          0xd0,
	voltHighReg:         0xd1,
	voltScale:           0.26855,
	voltBase:            2600.0,
	voltZeroUnsupported: true,
	ampLowReg:           0xd2,
	ampHighReg:          0xd3,
	ampScale:            2.68554,
	gpioInit: []regOp{
		{readReg: 0x52, writeReg: 0x52, and: 0b1111_1111, or: 0b0000_0010}, // mfp_ctl0, l4_sel
		{readReg: 0x54, writeReg: 0x54, and: 0b1111_1111, or: 0b0000_0010}, // gpio1 input
	},
	shutdownInit: []regOp{
		{readReg: 0xc9, writeReg: 0xc9, and: 0b1100_0000, or: 30}, // threshold 30*4.3mA = 129mA
		{readReg: 0x06, writeReg: 0x07, and: 0b0011_1111},         // idle time 8s
		{readReg: 0x03, writeReg: 0x03, and: 0b1111_1111, or: 0b0010_0000}, // enable
		{readReg: 0x13, writeReg: 0x13, and: 0b1100_1111, or: 0b0001_0000}, // bat low, 2.76-2.84V
	},
	tapReg:  0x58,
	tapMask: 0b0000_0010,
	forceShutdown: []regOp{
		{readReg: 0x5b, writeReg: 0x5b, and: 0b1111_1111, or: 0b0001_0010}, // enable force shutdown
		{readReg: 0x5b, writeReg: 0x5b, and: 0b1110_1111},                  // shutdown
	},
}

// Chip is a driver for one battery chip variant.
type Chip struct {
	bus  i2cbus.Bus
	addr uint16
	conf *chipConfig
}

func NewIP5209(bus i2cbus.Bus) *Chip {
	return &Chip{bus: bus, addr: chipAddress, conf: &ip5209Config}
}

func NewIP5312(bus i2cbus.Bus) *Chip {
	return &Chip{bus: bus, addr: chipAddress, conf: &ip5312Config}
}

// Model returns the board model name this chip variant belongs to.
func (c *Chip) Model() string {
	return c.conf.model
}

func (c *Chip) readPair(lowReg, highReg byte) (byte, byte, error) {
	low, err := c.bus.ReadByte(c.addr, lowReg)
	if err != nil {
		return 0, 0, err
	}
	high, err := c.bus.ReadByte(c.addr, highReg)
	if err != nil {
		return 0, 0, err
	}
	return low, high, nil
}

// decode interprets a register pair as a signed 13-bit magnitude.
func decode(low, high byte) int {
	if high&signMask != 0 {
		return int(int16(uint16(high|0b1100_0000)<<8 | uint16(low)))
	}
	return int(uint16(high&dataMask)<<8 | uint16(low))
}

// ReadVoltage returns the battery voltage in volts.
func (c *Chip) ReadVoltage() (float64, error) {
	low, high, err := c.readPair(c.conf.voltLowReg, c.conf.voltHighReg)
	if err != nil {
		return 0, err
	}
	if c.conf.voltZeroUnsupported && low == 0 && high == 0 {
		return 0, ErrFeatureNotSupported
	}
	raw := decode(low, high)
	var mv float64
	if raw < 0 {
		mv = c.conf.voltBase - float64(raw)*c.conf.voltScale
	} else {
		mv = c.conf.voltBase + float64(raw)*c.conf.voltScale
	}
	return mv / 1000.0, nil
}

// ReadIntensity returns the battery current in amps. Positive values
// mean the battery is being charged.
func (c *Chip) ReadIntensity() (float64, error) {
	low, high, err := c.readPair(c.conf.ampLowReg, c.conf.ampHighReg)
	if err != nil {
		return 0, err
	}
	ma := float64(decode(low, high)) * c.conf.ampScale
	return ma / 1000.0, nil
}

func (c *Chip) applyOps(ops []regOp) error {
	for _, op := range ops {
		v, err := c.bus.ReadByte(c.addr, op.readReg)
		if err != nil {
			return err
		}
		v &= op.and
		v |= op.or
		if err := c.bus.WriteByte(c.addr, op.writeReg, v); err != nil {
			return err
		}
	}
	return nil
}

// InitGPIO routes the tap button onto the chip's GPIO input so
// ReadGpioTap reports its state.
func (c *Chip) InitGPIO() error {
	return c.applyOps(c.conf.gpioInit)
}

// InitAutoShutdown programs the chip's light-load auto power-off:
// sustained draw below the threshold for 8 seconds cuts power. This is
// a hardware fail-safe that works even if polling stops.
func (c *Chip) InitAutoShutdown() error {
	return c.applyOps(c.conf.shutdownInit)
}

// ReadGpioTap returns the button bits of the tap GPIO register. A
// non-zero value means the button is pressed.
func (c *Chip) ReadGpioTap() (byte, error) {
	v, err := c.bus.ReadByte(c.addr, c.conf.tapReg)
	if err != nil {
		return 0, err
	}
	return v & c.conf.tapMask, nil
}

// ForceShutdown cuts battery output immediately. Only the IP5312
// supports it.
func (c *Chip) ForceShutdown() error {
	if c.conf.forceShutdown == nil {
		return ErrFeatureNotSupported
	}
	return c.applyOps(c.conf.forceShutdown)
}
