package i2cbus

import "fmt"

// FakeBus is an in-memory register file implementing Bus, used by
// driver tests. Writes are appended to Log in the form
// "w <reg>=<value>" / "W <reg>=<bytes>" so tests can assert on write
// ordering. Errors injected via FailRead/FailWrite are keyed by
// register.
type FakeBus struct {
	Regs      map[uint16]map[byte]byte
	Log       []string
	FailRead  map[byte]error
	FailWrite map[byte]error
}

func NewFakeBus() *FakeBus {
	return &FakeBus{
		Regs:      make(map[uint16]map[byte]byte),
		FailRead:  make(map[byte]error),
		FailWrite: make(map[byte]error),
	}
}

func (b *FakeBus) regs(addr uint16) map[byte]byte {
	if b.Regs[addr] == nil {
		b.Regs[addr] = make(map[byte]byte)
	}
	return b.Regs[addr]
}

// Set seeds a register value without logging a write.
func (b *FakeBus) Set(addr uint16, reg byte, value byte) {
	b.regs(addr)[reg] = value
}

func (b *FakeBus) ReadByte(addr uint16, reg byte) (byte, error) {
	if err := b.FailRead[reg]; err != nil {
		return 0, err
	}
	return b.regs(addr)[reg], nil
}

func (b *FakeBus) WriteByte(addr uint16, reg byte, value byte) error {
	if err := b.FailWrite[reg]; err != nil {
		return err
	}
	b.regs(addr)[reg] = value
	b.Log = append(b.Log, fmt.Sprintf("w %02x=%02x", reg, value))
	return nil
}

func (b *FakeBus) ReadBlock(addr uint16, reg byte, data []byte) error {
	if err := b.FailRead[reg]; err != nil {
		return err
	}
	regs := b.regs(addr)
	for i := range data {
		data[i] = regs[reg+byte(i)]
	}
	return nil
}

func (b *FakeBus) WriteBlock(addr uint16, reg byte, data []byte) error {
	if err := b.FailWrite[reg]; err != nil {
		return err
	}
	regs := b.regs(addr)
	for i, v := range data {
		regs[reg+byte(i)] = v
	}
	b.Log = append(b.Log, fmt.Sprintf("W %02x=%x", reg, data))
	return nil
}
