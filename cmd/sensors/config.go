package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/envsensors/cmd/sensors/console"
	"github.com/mklimuk/envsensors/config"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "manage the configuration file",
	Subcommands: cli.Commands{
		&configInitCmd,
	},
}

var configInitCmd = cli.Command{
	Name:  "init",
	Usage: "write a default configuration file",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "sensors.yaml",
		},
		&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite without asking"},
	},
	Action: func(c *cli.Context) error {
		path := c.String("config")
		_, err := os.Stat(path)
		switch {
		case err == nil && !c.Bool("force"):
			answer, err := console.YesOrNo(path + " exists, overwrite?")
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if answer != console.Yes {
				console.Info("configuration left untouched")
				return nil
			}
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return console.Exit(1, "could not check %s: %s", path, console.Red(err))
		}
		if err := config.Write(path, config.Default()); err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		console.PInfof(console.PictoPin, "configuration written to %s", console.White(path))
		return nil
	},
}
