// Package config describes how the sensors are wired and where their
// readings go. It is read from a YAML file; selected values can be
// overridden from the environment (or a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Adapters understood by the CLI.
const (
	AdapterMCP2221 = "mcp2221"
	AdapterGeneric = "generic"
	AdapterNanoPi  = "nanopi"
)

// Environment overrides.
const (
	EnvInfluxURL    = "INFLUX_URL"
	EnvInfluxToken  = "INFLUX_TOKEN"
	EnvInfluxOrg    = "INFLUX_ORG"
	EnvInfluxBucket = "INFLUX_BUCKET"
	EnvListen       = "SENSORS_LISTEN"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Adapter string `yaml:"adapter"`
	// Device is the host bus device used by the generic adapter.
	Device string `yaml:"device"`
	// Bus is the bus number used by the nanopi adapter.
	Bus     int     `yaml:"bus"`
	BME280  BME280  `yaml:"bme280"`
	ADXL343 ADXL343 `yaml:"adxl343"`
	Monitor Monitor `yaml:"monitor"`
	Influx  Influx  `yaml:"influx"`
}

type BME280 struct {
	Enabled bool  `yaml:"enabled"`
	Address uint8 `yaml:"address"`
	// Oversampling settings as register codes (0 skip, 1 x1 ... 5 x16).
	Humidity    uint8 `yaml:"humidity_oversampling"`
	Temperature uint8 `yaml:"temperature_oversampling"`
	Pressure    uint8 `yaml:"pressure_oversampling"`
	Standby     uint8 `yaml:"standby"`
	Filter      uint8 `yaml:"filter"`
}

type ADXL343 struct {
	Enabled bool  `yaml:"enabled"`
	Address uint8 `yaml:"address"`
}

type Monitor struct {
	Interval time.Duration `yaml:"interval"`
	Listen   string        `yaml:"listen"`
}

// Influx is the optional InfluxDB sink; it is disabled when URL is empty.
type Influx struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

func Default() Config {
	return Config{
		Adapter: AdapterGeneric,
		Device:  "/dev/i2c-1",
		Bus:     0,
		BME280: BME280{
			Enabled:     true,
			Address:     0x77,
			Humidity:    2,
			Temperature: 1,
			Pressure:    1,
			Standby:     4,
			Filter:      1,
		},
		ADXL343: ADXL343{
			Enabled: true,
			Address: 0x53,
		},
		Monitor: Monitor{
			Interval: 2 * time.Second,
			Listen:   ":8080",
		},
	}
}

// LoadEnv loads .env style files into the process environment; missing
// files are ignored. Without arguments ./.env is used.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no env file", "file", f)
			continue
		}
		if err != nil {
			return fmt.Errorf("could not load env file %s: %w", f, err)
		}
	}
	return nil
}

// Override changes a loaded configuration before it is validated.
type Override func(*Config)

// Load reads the file at path over the defaults, applies the environment
// and then the given overrides, and validates the result. A missing file is
// not an error.
func Load(path string, overrides ...Override) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("config file not found, using defaults", "path", path)
	case err != nil:
		return cfg, fmt.Errorf("could not read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	for _, o := range overrides {
		o(&cfg)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Influx.URL = getEnv(EnvInfluxURL, c.Influx.URL)
	c.Influx.Token = getEnv(EnvInfluxToken, c.Influx.Token)
	c.Influx.Org = getEnv(EnvInfluxOrg, c.Influx.Org)
	c.Influx.Bucket = getEnv(EnvInfluxBucket, c.Influx.Bucket)
	c.Monitor.Listen = getEnv(EnvListen, c.Monitor.Listen)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterMCP2221, AdapterGeneric, AdapterNanoPi:
	default:
		return fmt.Errorf("%w: unknown adapter %q", ErrInvalid, c.Adapter)
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("%w: monitor interval must be positive", ErrInvalid)
	}
	if c.Influx.URL != "" && c.Influx.Bucket == "" {
		return fmt.Errorf("%w: influx bucket is required", ErrInvalid)
	}
	return nil
}

// Write stores cfg at path as YAML.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}
	return nil
}
