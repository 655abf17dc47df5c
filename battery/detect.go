package battery

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/pisugar/pisugar-hat-controller/i2cbus"
)

// ErrNoChip is returned by Detect when neither chip variant answers a
// voltage probe.
var ErrNoChip = errors.New("no battery chip found")

// Detect probes for the installed chip variant and returns its driver.
// The IP5312 is tried first: its voltage read fails on boards that
// carry the IP5209, while the reverse probe can succeed on both.
func Detect(bus i2cbus.Bus) (*Chip, error) {
	for _, chip := range []*Chip{NewIP5312(bus), NewIP5209(bus)} {
		if _, err := chip.ReadVoltage(); err == nil {
			logrus.Infof("detected %s battery chip", chip.Model())
			return chip, nil
		}
	}
	return nil, ErrNoChip
}
