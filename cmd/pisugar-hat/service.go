/*
pisugar-hat-controller - Communicates with the PiSugar battery/RTC hat
Copyright (C) 2023, PiSugar

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"errors"
	"time"

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"

	"github.com/pisugar/pisugar-hat-controller/monitor"
)

const (
	dbusName = "org.pisugar.PiSugar"
	dbusPath = "/org/pisugar/PiSugar"
)

type service struct {
	status *monitor.Status
}

func startService(status *monitor.Status) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("name already taken")
	}

	s := &service{
		status: status,
	}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
	return nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// GetModel returns the detected board model name.
func (s service) GetModel() (string, *dbus.Error) {
	return s.status.Model(), nil
}

// GetBattery returns the last battery voltage (V), current (A) and
// level (%).
func (s service) GetBattery() (float64, float64, float64, *dbus.Error) {
	return s.status.Voltage(), s.status.Intensity(), s.status.Level(), nil
}

// IsCharging returns whether a charging trend is detected.
func (s service) IsCharging() (bool, *dbus.Error) {
	return s.status.IsCharging(time.Now()), nil
}

// GetRTCTime returns the cached RTC time in RFC3339 form.
func (s service) GetRTCTime() (string, *dbus.Error) {
	return s.status.RTCTime().Format(time.RFC3339), nil
}

// SetRTCTime sets the RTC clock from an RFC3339 time string.
func (s service) SetRTCTime(timeStr string) *dbus.Error {
	t, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		return makeDbusError(".SetRTCTime", err)
	}
	if err := s.status.WriteRTCTime(t); err != nil {
		log.Error(err)
		return makeDbusError(".SetRTCTime", err)
	}
	return nil
}

// DisableAlarm turns the RTC wake-up alarm off.
func (s service) DisableAlarm() *dbus.Error {
	if err := s.status.DisableAlarm(); err != nil {
		log.Error(err)
		return makeDbusError(".DisableAlarm", err)
	}
	return nil
}

// TestWake schedules a wake-up 90 seconds out for hardware self-test.
func (s service) TestWake() *dbus.Error {
	if err := s.status.TestWake(); err != nil {
		log.Error(err)
		return makeDbusError(".TestWake", err)
	}
	return nil
}

// ForceShutdown cuts battery output (PiSugar 2 Pro only).
func (s service) ForceShutdown() *dbus.Error {
	if err := s.status.ForceShutdown(); err != nil {
		log.Error(err)
		return makeDbusError(".ForceShutdown", err)
	}
	return nil
}

func makeDbusError(name string, err error) *dbus.Error {
	return &dbus.Error{
		Name: dbusName + name,
		Body: []interface{}{err.Error()},
	}
}
