package envsensors

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a raw two-wire bus: every transfer is a plain write or read
// addressed to a 7-bit device address.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// RegisterBus gives register-addressed access to devices on a shared bus.
// All operations block until the exchange completes. Implementations never
// retry; a failed operation is reported as is.
type RegisterBus interface {
	ReadRegister(ctx context.Context, address, reg byte) (byte, error)
	ReadRegisters(ctx context.Context, address, reg byte, buffer []byte) error
	WriteRegister(ctx context.Context, address, reg, value byte) error
}

var _ RegisterBus = &registerBus{}

type registerBus struct {
	bus I2CBus
}

// NewRegisterBus exposes register access over a raw bus by writing the
// register pointer before every read.
func NewRegisterBus(bus I2CBus) RegisterBus {
	return &registerBus{bus: bus}
}

func (b *registerBus) ReadRegister(ctx context.Context, address, reg byte) (byte, error) {
	buf := []byte{0x00}
	err := b.ReadRegisters(ctx, address, reg, buf)
	return buf[0], err
}

func (b *registerBus) ReadRegisters(ctx context.Context, address, reg byte, buffer []byte) error {
	err := b.bus.WriteToAddr(ctx, address, []byte{reg})
	if err != nil {
		return fmt.Errorf("could not set register pointer %#x: %w", reg, err)
	}
	err = b.bus.ReadFromAddr(ctx, address, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#x: %w", reg, err)
	}
	return nil
}

func (b *registerBus) WriteRegister(ctx context.Context, address, reg, value byte) error {
	err := b.bus.WriteToAddr(ctx, address, []byte{reg, value})
	if err != nil {
		return fmt.Errorf("could not write register %#x: %w", reg, err)
	}
	return nil
}
