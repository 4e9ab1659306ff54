package i2c

import (
	"context"
	"fmt"
	"sync"

	gobot "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/envsensors"
)

var _ envsensors.RegisterBus = &GobotBus{}

// registerOps is the subset of a gobot I2C connection used for register access.
type registerOps interface {
	ReadByteData(reg uint8) (uint8, error)
	ReadBlockData(reg uint8, b []byte) error
	WriteByteData(reg uint8, val uint8) error
	Close() error
}

// GobotBus gives register access to devices through a gobot I2C connector,
// e.g. nanopi.NewNeoAdaptor(). The adaptor must be connected before use.
//
// One gobot connection is opened lazily per device address and kept until Close.
type GobotBus struct {
	open  func(address int) (registerOps, error)
	mx    sync.Mutex
	conns map[byte]registerOps
}

func NewGobotBus(adaptor gobot.Connector, bus int) *GobotBus {
	return newGobotBus(func(address int) (registerOps, error) {
		return adaptor.GetI2cConnection(address, bus)
	})
}

func newGobotBus(open func(address int) (registerOps, error)) *GobotBus {
	return &GobotBus{open: open, conns: map[byte]registerOps{}}
}

func (b *GobotBus) connection(address byte) (registerOps, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if c, ok := b.conns[address]; ok {
		return c, nil
	}
	c, err := b.open(int(address))
	if err != nil {
		return nil, fmt.Errorf("could not open connection to %#x: %w", address, err)
	}
	b.conns[address] = c
	return c, nil
}

func (b *GobotBus) ReadRegister(ctx context.Context, address, reg byte) (byte, error) {
	c, err := b.connection(address)
	if err != nil {
		return 0, err
	}
	v, err := c.ReadByteData(reg)
	if err != nil {
		return v, fmt.Errorf("could not read register %#x of %#x: %w", reg, address, err)
	}
	return v, nil
}

func (b *GobotBus) ReadRegisters(ctx context.Context, address, reg byte, buffer []byte) error {
	c, err := b.connection(address)
	if err != nil {
		return err
	}
	if err := c.ReadBlockData(reg, buffer); err != nil {
		return fmt.Errorf("could not read %d registers from %#x of %#x: %w", len(buffer), reg, address, err)
	}
	return nil
}

func (b *GobotBus) WriteRegister(ctx context.Context, address, reg, value byte) error {
	c, err := b.connection(address)
	if err != nil {
		return err
	}
	if err := c.WriteByteData(reg, value); err != nil {
		return fmt.Errorf("could not write register %#x of %#x: %w", reg, address, err)
	}
	return nil
}

// Close closes every connection opened so far and returns the first error.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var first error
	for address, c := range b.conns {
		if err := c.Close(); err != nil && first == nil {
			first = fmt.Errorf("could not close connection to %#x: %w", address, err)
		}
		delete(b.conns, address)
	}
	return first
}
