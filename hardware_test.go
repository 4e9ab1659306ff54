//go:build hardware

package envsensors_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/envsensors/accel"
	"github.com/mklimuk/envsensors/adapter"
	"github.com/mklimuk/envsensors/environment"
	"github.com/mklimuk/envsensors/snsctx"
)

func hardwareContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	if v := os.Getenv("SENSORS_USB_DEVICE"); v != "" {
		index, err := strconv.Atoi(v)
		require.NoError(t, err)
		ctx = snsctx.SetDevice(ctx, index)
	}
	return ctx
}

func TestHardware_BME280(t *testing.T) {
	ctx := hardwareContext(t)
	s := environment.NewBME280(adapter.NewMCP2221())
	errs, err := s.Init(ctx)
	require.NoError(t, err)
	assert.Zero(t, errs)
	defer func() { assert.NoError(t, s.Halt(ctx)) }()

	// first measurement completes after standby plus conversion time
	time.Sleep(time.Second)
	var env physic.Env
	require.NoError(t, s.Sense(ctx, &env))
	assert.InDelta(t, 20, env.Temperature.Celsius(), 25)
	assert.InDelta(t, 95000, float64(env.Pressure)/float64(physic.Pascal), 20000)
	assert.GreaterOrEqual(t, s.Humidity(), float32(0))
	assert.LessOrEqual(t, s.Humidity(), float32(100))
}

func TestHardware_ADXL343(t *testing.T) {
	ctx := hardwareContext(t)
	a := accel.NewADXL343(adapter.NewMCP2221())
	errs, err := a.Init(ctx)
	require.NoError(t, err)
	assert.Zero(t, errs)
	defer func() { assert.NoError(t, a.Halt(ctx)) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, a.ReadAcceleration(ctx))
	x, y, z := a.Acceleration()
	// at rest the magnitude is close to 1 g
	assert.InDelta(t, 1, float64(x*x+y*y+z*z), 0.3)
}
