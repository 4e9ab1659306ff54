package i2c

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/mmr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/envsensors"
)

var _ envsensors.I2CBus = &GenericBus{}
var _ envsensors.RegisterBus = &GenericBus{}

// GenericBus is a host I2C bus (e.g. /dev/i2c-1) driven through periph.io.
type GenericBus struct {
	bus i2c.BusCloser

	mx   sync.Mutex
	devs map[byte]*mmr.Dev8
}

func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return newGenericBus(bus), nil
}

func newGenericBus(bus i2c.BusCloser) *GenericBus {
	return &GenericBus{
		bus:  bus,
		devs: map[byte]*mmr.Dev8{},
	}
}

// device returns the register view of the device at address.
func (b *GenericBus) device(address byte) *mmr.Dev8 {
	b.mx.Lock()
	defer b.mx.Unlock()
	d, ok := b.devs[address]
	if !ok {
		d = &mmr.Dev8{
			Conn:  &i2c.Dev{Bus: b.bus, Addr: uint16(address)},
			Order: binary.LittleEndian,
		}
		b.devs[address] = d
	}
	return d
}

func (b *GenericBus) ReadRegister(ctx context.Context, address, reg byte) (byte, error) {
	v, err := b.device(address).ReadUint8(reg)
	if err != nil {
		return v, fmt.Errorf("could not read register %#x of %#x: %w", reg, address, err)
	}
	return v, nil
}

func (b *GenericBus) ReadRegisters(ctx context.Context, address, reg byte, buffer []byte) error {
	err := b.device(address).Tx([]byte{reg}, buffer)
	if err != nil {
		return fmt.Errorf("could not read %d registers from %#x of %#x: %w", len(buffer), reg, address, err)
	}
	return nil
}

func (b *GenericBus) WriteRegister(ctx context.Context, address, reg, value byte) error {
	err := b.device(address).WriteUint8(reg, value)
	if err != nil {
		return fmt.Errorf("could not write register %#x of %#x: %w", reg, address, err)
	}
	return nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// SetSpeed changes the clock of the bus. On linux this likely affects every
// bus of the host.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	if err := b.bus.SetSpeed(f); err != nil {
		return fmt.Errorf("could not set bus speed to %s: %w", f, err)
	}
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
