// Package i2cbus provides register-level access to devices on an I2C
// bus. Drivers talk to the Bus interface so they can be tested against
// an in-memory register file instead of real hardware.
package i2cbus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Bus is a byte/block register transport at a 7-bit device address.
// Implementations are not required to be safe for concurrent use;
// callers must serialize access.
type Bus interface {
	ReadByte(addr uint16, reg byte) (byte, error)
	WriteByte(addr uint16, reg byte, value byte) error
	ReadBlock(addr uint16, reg byte, data []byte) error
	WriteBlock(addr uint16, reg byte, data []byte) error
}

// BusError wraps a failed transfer on the underlying transport.
type BusError struct {
	Addr uint16
	Reg  byte
	Op   string
	Err  error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("i2c %s addr 0x%02x reg 0x%02x: %v", e.Op, e.Addr, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// PeriphBus implements Bus on top of a periph.io i2c.Bus.
type PeriphBus struct {
	bus i2c.Bus
}

func New(bus i2c.Bus) *PeriphBus {
	return &PeriphBus{bus: bus}
}

func (p *PeriphBus) ReadByte(addr uint16, reg byte) (byte, error) {
	dev := &i2c.Dev{Bus: p.bus, Addr: addr}
	data := make([]byte, 1)
	if err := dev.Tx([]byte{reg}, data); err != nil {
		return 0, &BusError{Addr: addr, Reg: reg, Op: "read", Err: err}
	}
	return data[0], nil
}

func (p *PeriphBus) WriteByte(addr uint16, reg byte, value byte) error {
	dev := &i2c.Dev{Bus: p.bus, Addr: addr}
	if _, err := dev.Write([]byte{reg, value}); err != nil {
		return &BusError{Addr: addr, Reg: reg, Op: "write", Err: err}
	}
	return nil
}

func (p *PeriphBus) ReadBlock(addr uint16, reg byte, data []byte) error {
	dev := &i2c.Dev{Bus: p.bus, Addr: addr}
	if err := dev.Tx([]byte{reg}, data); err != nil {
		return &BusError{Addr: addr, Reg: reg, Op: "block-read", Err: err}
	}
	return nil
}

func (p *PeriphBus) WriteBlock(addr uint16, reg byte, data []byte) error {
	dev := &i2c.Dev{Bus: p.bus, Addr: addr}
	if _, err := dev.Write(append([]byte{reg}, data...)); err != nil {
		return &BusError{Addr: addr, Reg: reg, Op: "block-write", Err: err}
	}
	return nil
}
