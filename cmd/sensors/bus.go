package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/envsensors"
	"github.com/mklimuk/envsensors/adapter"
	"github.com/mklimuk/envsensors/cmd/sensors/console"
	"github.com/mklimuk/envsensors/config"
	"github.com/mklimuk/envsensors/i2c"
)

var busFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "sensors.yaml",
		Usage:   "configuration file",
	},
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "bus adapter: mcp2221, generic or nanopi (overrides config)",
	},
	&cli.StringFlag{
		Name:  "device",
		Usage: "host bus device used by the generic adapter (overrides config)",
	},
	&cli.IntFlag{
		Name:  "bus",
		Value: -1,
		Usage: "bus number used by the nanopi adapter (overrides config)",
	},
	&cli.IntFlag{
		Name:  "usb-device",
		Value: -1,
		Usage: "index of the mcp2221 bridge when several are attached",
	},
	&cli.UintFlag{
		Name:  "bme280-addr",
		Usage: "BME280 address, 0x76 or 0x77 (overrides config)",
	},
	&cli.UintFlag{
		Name:  "adxl343-addr",
		Usage: "ADXL343 address, 0x1d or 0x53 (overrides config)",
	},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
}

// loadConfig reads the configuration file and applies command line
// overrides; the result is validated once, after the overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	return config.Load(c.String("config"), flagOverrides(c))
}

func flagOverrides(c *cli.Context) config.Override {
	return func(cfg *config.Config) {
		if a := c.String("adapter"); a != "" {
			cfg.Adapter = a
		}
		if d := c.String("device"); d != "" {
			cfg.Device = d
		}
		if b := c.Int("bus"); b >= 0 {
			cfg.Bus = b
		}
		if c.IsSet("bme280-addr") {
			cfg.BME280.Address = uint8(c.Uint("bme280-addr"))
		}
		if c.IsSet("adxl343-addr") {
			cfg.ADXL343.Address = uint8(c.Uint("adxl343-addr"))
		}
	}
}

// openBus returns the register bus selected in cfg and a function releasing it.
func openBus(cfg config.Config) (envsensors.RegisterBus, func(), error) {
	switch cfg.Adapter {
	case config.AdapterMCP2221:
		return adapter.NewMCP2221(), func() {}, nil
	case config.AdapterGeneric:
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, nil, err
		}
		return bus, func() {
			if err := bus.Close(); err != nil {
				slog.Warn("could not close bus", "error", err)
			}
		}, nil
	case config.AdapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := i2c.NewGobotBus(npi, cfg.Bus)
		return bus, func() {
			if err := bus.Close(); err != nil {
				slog.Warn("could not close bus connections", "error", err)
			}
			if err := npi.I2cBusAdaptor.Finalize(); err != nil {
				slog.Warn("could not finalize adaptor", "error", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown adapter %q", config.ErrInvalid, cfg.Adapter)
}

// withBus runs fn with the configured bus and a verbose-aware context.
func withBus(c *cli.Context, fn func(c *cli.Context, cfg config.Config, bus envsensors.RegisterBus) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return console.Exit(1, "configuration error: %s", console.Red(err))
	}
	bus, release, err := openBus(cfg)
	if err != nil {
		return console.Exit(1, "adapter initialization error: %s", console.Red(err))
	}
	defer release()
	c.Context = usbContext(c)
	return fn(c, cfg, bus)
}
