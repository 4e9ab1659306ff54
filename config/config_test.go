package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
adapter: nanopi
bus: 2
bme280:
  enabled: true
  address: 0x76
  filter: 4
adxl343:
  enabled: false
monitor:
  interval: 500ms
influx:
  url: http://influx:8086
  bucket: sensors
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, AdapterNanoPi, cfg.Adapter)
	assert.Equal(t, 2, cfg.Bus)
	assert.Equal(t, uint8(0x76), cfg.BME280.Address)
	assert.Equal(t, uint8(4), cfg.BME280.Filter)
	// untouched values keep their defaults
	assert.Equal(t, uint8(2), cfg.BME280.Humidity)
	assert.False(t, cfg.ADXL343.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.Interval)
	assert.Equal(t, ":8080", cfg.Monitor.Listen)
	assert.Equal(t, "http://influx:8086", cfg.Influx.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvInfluxURL, "http://env:8086")
	t.Setenv(EnvInfluxBucket, "env-bucket")
	t.Setenv(EnvInfluxToken, "secret")
	t.Setenv(EnvListen, "127.0.0.1:9000")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Influx{URL: "http://env:8086", Token: "secret", Bucket: "env-bucket"}, cfg.Influx)
	assert.Equal(t, "127.0.0.1:9000", cfg.Monitor.Listen)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"adapter":  "adapter: serial\n",
		"interval": "monitor:\n  interval: 0s\n",
		"bucket":   "influx:\n  url: http://influx:8086\n",
		"syntax":   "adapter: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sensors.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_OverridesBeforeValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adapter: serial\n"), 0o644))

	cfg, err := Load(path, func(c *Config) { c.Adapter = AdapterMCP2221 })
	require.NoError(t, err)
	assert.Equal(t, AdapterMCP2221, cfg.Adapter)

	_, err = Load(filepath.Join(t.TempDir(), "none.yaml"), func(c *Config) { c.Adapter = "serial" })
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWriteLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensors.yaml")
	cfg := Default()
	cfg.Adapter = AdapterMCP2221
	cfg.ADXL343.Address = 0x1D
	require.NoError(t, Write(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SENSORS_TEST_VALUE=from-file\n"), 0o644))
	t.Setenv("SENSORS_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("SENSORS_TEST_VALUE"))

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("SENSORS_TEST_VALUE"))
}
