package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

func TestGenericBus_Registers(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x77, W: []byte{0xD0}, R: []byte{0x60}},
			{Addr: 0x77, W: []byte{0xE0, 0xB6}},
			{Addr: 0x77, W: []byte{0xF7}, R: []byte{0x65, 0x5A, 0xC0}},
			{Addr: 0x53, W: []byte{0x00}, R: []byte{0xE5}},
		},
		DontPanic: true,
	}
	bus := newGenericBus(playback)
	ctx := context.Background()

	id, err := bus.ReadRegister(ctx, 0x77, 0xD0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x60), id)

	require.NoError(t, bus.WriteRegister(ctx, 0x77, 0xE0, 0xB6))

	buf := make([]byte, 3)
	require.NoError(t, bus.ReadRegisters(ctx, 0x77, 0xF7, buf))
	assert.Equal(t, []byte{0x65, 0x5A, 0xC0}, buf)

	id, err = bus.ReadRegister(ctx, 0x53, 0x00)
	require.NoError(t, err)
	assert.Equal(t, byte(0xE5), id)

	require.NoError(t, bus.Close())
}

func TestGenericBus_TransportError(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x76, W: []byte{0xD0}, R: []byte{0x60}}},
		DontPanic: true,
	}
	bus := newGenericBus(playback)

	// wrong address
	_, err := bus.ReadRegister(context.Background(), 0x77, 0xD0)
	assert.Error(t, err)
	assert.Error(t, bus.WriteRegister(context.Background(), 0x76, 0xF4, 0x27))
}

func TestGenericBus_Raw(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x53, W: []byte{0x32}},
			{Addr: 0x53, R: []byte{0x01, 0x02}},
		},
		DontPanic: true,
	}
	bus := newGenericBus(playback)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddr(ctx, 0x53, []byte{0x32}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x53, buf))
	assert.Equal(t, []byte{0x01, 0x02}, buf)
	assert.NoError(t, bus.SetSpeed(400*physic.KiloHertz))
	assert.NoError(t, bus.Close())
}
