package envsensors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownDevice is returned when the identity register does not hold the
// value expected for the driven chip.
var ErrUnknownDevice = errors.New("device not recognized")

// InitSequence runs the register writes of a device initialization in order
// and keeps count of the operations that reported a transport error.
//
// A transport error does not stop the sequence: the count is handed back to
// the caller who decides whether a partially configured device is usable.
// Only an identity mismatch (and whatever the driver treats as fatal) aborts.
type InitSequence struct {
	Bus     RegisterBus
	Address byte
	Delay   DelayFunc

	errCount int
	lastErr  error
}

// Identify reads the identity register and compares it with want.
func (s *InitSequence) Identify(ctx context.Context, reg, want byte) error {
	id, err := s.Bus.ReadRegister(ctx, s.Address, reg)
	s.count(err)
	if id == want {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: id register %#x read %#x, expected %#x: %w", ErrUnknownDevice, reg, id, want, err)
	}
	return fmt.Errorf("%w: id register %#x read %#x, expected %#x", ErrUnknownDevice, reg, id, want)
}

// Write writes a single configuration register.
func (s *InitSequence) Write(ctx context.Context, reg, value byte) {
	s.count(s.Bus.WriteRegister(ctx, s.Address, reg, value))
}

// Read reads a block of registers and counts a failure.
func (s *InitSequence) Read(ctx context.Context, reg byte, buffer []byte) error {
	err := s.Bus.ReadRegisters(ctx, s.Address, reg, buffer)
	s.count(err)
	return err
}

// Wait blocks for d using the sequence delay primitive.
func (s *InitSequence) Wait(ctx context.Context, d time.Duration) error {
	if s.Delay == nil {
		return Sleep(ctx, d)
	}
	return s.Delay(ctx, d)
}

// Errors returns the number of low-level operations that failed so far.
func (s *InitSequence) Errors() int {
	return s.errCount
}

// LastError returns the most recent transport error, if any.
func (s *InitSequence) LastError() error {
	return s.lastErr
}

func (s *InitSequence) count(err error) {
	if err != nil {
		s.errCount++
		s.lastErr = err
	}
}
