package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/envsensors"
	"github.com/mklimuk/envsensors/cmd/sensors/console"
	"github.com/mklimuk/envsensors/config"
	"github.com/mklimuk/envsensors/environment"
)

var envCmd = cli.Command{
	Name:    "environment",
	Aliases: []string{"env"},
	Usage:   "BME280 temperature, pressure and humidity sensor",
	Subcommands: cli.Commands{
		&envInitCmd,
		&envReadCmd,
		&envCalibrationCmd,
		&envHaltCmd,
	},
}

func newBME280(cfg config.Config, bus envsensors.RegisterBus) *environment.BME280 {
	b := cfg.BME280
	return environment.NewBME280(bus,
		environment.WithBME280Address(b.Address),
		environment.WithOversampling(environment.Oversampling(b.Humidity), environment.Oversampling(b.Temperature), environment.Oversampling(b.Pressure)),
		environment.WithConfig(environment.Standby(b.Standby), environment.Filter(b.Filter)),
	)
}

func initBME280(c *cli.Context, s *environment.BME280) error {
	errCount, err := s.Init(c.Context)
	if err != nil {
		return console.Exit(1, "error initializing %s: %s", s, console.Red(err))
	}
	if errCount > 0 {
		console.Warnf("%s initialized with %d transport errors", s, errCount)
	}
	return nil
}

var envInitCmd = cli.Command{
	Name:  "init",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		return withBus(c, func(c *cli.Context, cfg config.Config, bus envsensors.RegisterBus) error {
			s := newBME280(cfg, bus)
			if err := initBME280(c, s); err != nil {
				return err
			}
			console.PInfof(console.PictoFinish, "%s measuring", s)
			return nil
		})
	},
}

// The calibration lives in the handle, so every read initializes first.
var envReadCmd = cli.Command{
	Name:  "read",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		return withBus(c, func(c *cli.Context, cfg config.Config, bus envsensors.RegisterBus) error {
			s := newBME280(cfg, bus)
			if err := initBME280(c, s); err != nil {
				return err
			}
			var env physic.Env
			if err := s.Sense(c.Context, &env); err != nil {
				return console.Exit(1, "error reading %s: %s", s, console.Red(err))
			}
			console.PInfof(console.PictoThermometer, " %s", console.White(fmt.Sprintf("%.2f°C", s.Temperature())))
			console.PInfof(console.PictoPressure, "%s", console.White(fmt.Sprintf("%.2f hPa", s.Pressure()/100)))
			console.PInfof(console.PictoHumidity, "%s", console.White(fmt.Sprintf("%.2f%%", s.Humidity())))
			return nil
		})
	},
}

var envCalibrationCmd = cli.Command{
	Name:  "calibration",
	Usage: "dump the factory compensation parameters",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		return withBus(c, func(c *cli.Context, cfg config.Config, bus envsensors.RegisterBus) error {
			s := newBME280(cfg, bus)
			if err := initBME280(c, s); err != nil {
				return err
			}
			calibration, ok := s.Calibration()
			if !ok {
				return console.Exit(1, "%s has no calibration", s)
			}
			enc := yaml.NewEncoder(os.Stdout)
			defer func() { _ = enc.Close() }()
			if err := enc.Encode(calibration); err != nil {
				return console.Exit(1, "encoding error: %s", console.Red(err))
			}
			return nil
		})
	},
}

var envHaltCmd = cli.Command{
	Name:  "halt",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		return withBus(c, func(c *cli.Context, cfg config.Config, bus envsensors.RegisterBus) error {
			s := newBME280(cfg, bus)
			if err := s.Halt(c.Context); err != nil {
				return console.Exit(1, "error halting %s: %s", s, console.Red(err))
			}
			console.PInfof(console.PictoStop, "%s sleeping", s)
			return nil
		})
	},
}
