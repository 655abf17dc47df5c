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
	"log"
	"time"

	arg "github.com/alexflint/go-arg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/pisugar/pisugar-hat-controller/i2cbus"
	"github.com/pisugar/pisugar-hat-controller/rtc"
)

type Args struct {
	SyncSystem bool `arg:"--sync-system" help:"write the RTC time to the system clock"`
	SyncRTC    bool `arg:"--sync-rtc" help:"write the system time to the RTC"`
	TestWake   bool `arg:"--test-wake" help:"set the clock to now and an alarm 90s out to test the wake-up circuit"`
	ClearAlarm bool `arg:"--clear-alarm" help:"clear the alarm flag and disable the alarm"`
}

var version = "<not set>"

func (Args) Version() string {
	return version
}

func procArgs() Args {
	args := Args{}
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	log.SetFlags(0)
	args := procArgs()

	if _, err := host.Init(); err != nil {
		return err
	}
	i2c, err := i2creg.Open("")
	if err != nil {
		return err
	}
	clock := rtc.New(i2cbus.New(i2c))

	if args.SyncRTC {
		log.Println("Writing system time to RTC.")
		if err := clock.WriteTime(rtc.FromTime(time.Now())); err != nil {
			return err
		}
	}
	if args.SyncSystem {
		if err := clock.SetSystemTime(); err != nil {
			return err
		}
	}
	if args.ClearAlarm {
		if err := clock.ClearAlarmFlag(); err != nil {
			return err
		}
		if err := clock.DisableAlarm(); err != nil {
			return err
		}
		log.Println("Alarm cleared and disabled.")
	}
	if args.TestWake {
		return clock.SetTestWake()
	}

	t, err := clock.ReadTime()
	if err != nil {
		return err
	}
	log.Println("RTC time:", t.Time().Format(time.RFC3339))
	flag, err := clock.ReadAlarmFlag()
	if err != nil {
		return err
	}
	log.Println("Alarm flag:", flag)
	return nil
}
