package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/envsensors"
	"github.com/mklimuk/envsensors/accel"
	"github.com/mklimuk/envsensors/cmd/sensors/console"
	"github.com/mklimuk/envsensors/config"
)

var accelCmd = cli.Command{
	Name:  "accel",
	Usage: "ADXL343 accelerometer",
	Subcommands: cli.Commands{
		&accelInitCmd,
		&accelReadCmd,
		&accelHaltCmd,
	},
}

func newADXL343(cfg config.Config, bus envsensors.RegisterBus) *accel.ADXL343 {
	return accel.NewADXL343(bus, accel.WithAddress(cfg.ADXL343.Address))
}

var accelInitCmd = cli.Command{
	Name:  "init",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		return withBus(c, func(c *cli.Context, cfg config.Config, bus envsensors.RegisterBus) error {
			a := newADXL343(cfg, bus)
			errCount, err := a.Init(c.Context)
			if err != nil {
				return console.Exit(1, "error initializing %s: %s", a, console.Red(err))
			}
			if errCount > 0 {
				console.Warnf("%s initialized with %d transport errors", a, errCount)
				return nil
			}
			console.PInfof(console.PictoFinish, "%s measuring", a)
			return nil
		})
	},
}

var accelReadCmd = cli.Command{
	Name: "read",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{Name: "init", Usage: "initialize the device before reading"},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		return withBus(c, func(c *cli.Context, cfg config.Config, bus envsensors.RegisterBus) error {
			a := newADXL343(cfg, bus)
			if c.Bool("init") {
				if _, err := a.Init(c.Context); err != nil {
					return console.Exit(1, "error initializing %s: %s", a, console.Red(err))
				}
			}
			if err := a.ReadAcceleration(c.Context); err != nil {
				return console.Exit(1, "error reading acceleration: %s", console.Red(err))
			}
			x, y, z := a.Acceleration()
			console.PInfof(console.PictoMotion, "x %s y %s z %s",
				console.White(fmt.Sprintf("%.4fg", x)), console.White(fmt.Sprintf("%.4fg", y)), console.White(fmt.Sprintf("%.4fg", z)))
			return nil
		})
	},
}

var accelHaltCmd = cli.Command{
	Name:  "halt",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		return withBus(c, func(c *cli.Context, cfg config.Config, bus envsensors.RegisterBus) error {
			a := newADXL343(cfg, bus)
			if err := a.Halt(c.Context); err != nil {
				return console.Exit(1, "error halting %s: %s", a, console.Red(err))
			}
			console.PInfof(console.PictoStop, "%s in standby", a)
			return nil
		})
	},
}
