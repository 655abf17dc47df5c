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
	"fmt"
	"strings"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/pisugar/pisugar-hat-controller/i2cbus"
	"github.com/pisugar/pisugar-hat-controller/monitor"
	"github.com/pisugar/pisugar-hat-controller/rtc"
)

const pollInterval = time.Second

var version = "<not set>"

var log = logrus.New()

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"configuration file"`
	LogLevel   string `arg:"-l,--log-level" default:"info" help:"Set the logging level (debug, info, warn, error)"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	args := Args{
		ConfigFile: "/etc/pisugar.json",
	}
	arg.MustParse(&args)
	return args
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
		log.Warn("Unknown log level, defaulting to info")
	}
}

type customFormatter struct{}

func (f *customFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return []byte(fmt.Sprintf("[%s] %s\n", strings.ToUpper(entry.Level.String()), entry.Message)), nil
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err.Error())
	}
}

func runMain() error {
	log.SetFormatter(new(customFormatter))
	args := procArgs()
	setLogLevel(args.LogLevel)
	logrus.StandardLogger().SetFormatter(new(customFormatter))
	logrus.SetLevel(log.GetLevel())

	log.Info("Running version: ", version)

	cfg, err := monitor.LoadConfig(args.ConfigFile)
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	i2c, err := i2creg.Open("")
	if err != nil {
		return err
	}
	bus := i2cbus.New(i2c)

	log.Info("Connecting to PiSugar hat.")
	status := monitor.NewStatus(bus)
	log.Info("Model: ", status.Model())

	if err := startService(status); err != nil {
		return err
	}

	if cfg.AutoWakeType == monitor.AutoWakeRepeat {
		log.Info("Programming auto wake alarm.")
		if err := status.SetAlarm(rtc.Time(cfg.AutoWakeTime), cfg.AutoWakeRepeat); err != nil {
			log.Errorf("Setting auto wake alarm: %v", err)
		}
	}

	for {
		tap, ok := status.Poll(cfg, time.Now())
		if ok {
			log.Infof("%s tap detected", tap)
			runTapHook(cfg, tap)
		}
		time.Sleep(pollInterval)
	}
}

func runTapHook(cfg *monitor.Config, tap monitor.TapType) {
	enabled, shell := cfg.TapEnabled(tap)
	if !enabled || shell == "" {
		return
	}
	go func() {
		if err := executeShell(shell); err != nil {
			log.Errorf("%s tap hook failed: %v", tap, err)
		}
	}()
}
