// Package bustest provides a register-file fake of envsensors.RegisterBus
// for driver tests that run without hardware.
package bustest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mklimuk/envsensors"
)

var _ envsensors.RegisterBus = &Registers{}

// ErrInjected is returned by operations configured to fail.
var ErrInjected = fmt.Errorf("bustest: injected transport error")

// Op kinds recorded by Registers.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// Op is a single recorded bus operation.
type Op struct {
	Kind    string
	Address byte
	Reg     byte
	// Len is the number of bytes read; Value the byte written.
	Len   int
	Value byte
}

// Registers emulates the register files of devices sitting on one bus.
//
// Reads past what was loaded return zeros. Writes are recorded and stored so
// that they can be read back. Failures can be injected per start register.
type Registers struct {
	mx     sync.Mutex
	mem    map[byte]*[256]byte
	fail   map[failKey]bool
	ops    []Op
	onRead func(address, reg byte)
}

type failKey struct {
	kind    string
	address byte
	reg     byte
}

func New() *Registers {
	return &Registers{
		mem:  map[byte]*[256]byte{},
		fail: map[failKey]bool{},
	}
}

// Load copies data into the register file of address starting at reg.
func (r *Registers) Load(address, reg byte, data ...byte) *Registers {
	r.mx.Lock()
	defer r.mx.Unlock()
	m := r.device(address)
	for i, b := range data {
		m[int(reg)+i] = b
	}
	return r
}

// FailRead makes reads starting at reg fail. The returned buffer is left as
// the transport would leave it: untouched.
func (r *Registers) FailRead(address, reg byte) *Registers {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.fail[failKey{OpRead, address, reg}] = true
	return r
}

// FailWrite makes writes to reg fail; the value is not stored.
func (r *Registers) FailWrite(address, reg byte) *Registers {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.fail[failKey{OpWrite, address, reg}] = true
	return r
}

// OnRead registers a hook called before every read; tests use it to change
// device state between operations.
func (r *Registers) OnRead(hook func(address, reg byte)) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.onRead = hook
}

// Ops returns a copy of the recorded operations.
func (r *Registers) Ops() []Op {
	r.mx.Lock()
	defer r.mx.Unlock()
	return append([]Op(nil), r.ops...)
}

// Writes returns the recorded write operations only.
func (r *Registers) Writes() []Op {
	var res []Op
	for _, op := range r.Ops() {
		if op.Kind == OpWrite {
			res = append(res, op)
		}
	}
	return res
}

// Value returns the current content of a register.
func (r *Registers) Value(address, reg byte) byte {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.device(address)[reg]
}

func (r *Registers) ReadRegister(ctx context.Context, address, reg byte) (byte, error) {
	buf := []byte{0x00}
	err := r.ReadRegisters(ctx, address, reg, buf)
	return buf[0], err
}

func (r *Registers) ReadRegisters(ctx context.Context, address, reg byte, buffer []byte) error {
	r.mx.Lock()
	hook := r.onRead
	r.mx.Unlock()
	if hook != nil {
		hook(address, reg)
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	r.ops = append(r.ops, Op{Kind: OpRead, Address: address, Reg: reg, Len: len(buffer)})
	if r.fail[failKey{OpRead, address, reg}] {
		return fmt.Errorf("read %#x@%#x: %w", reg, address, ErrInjected)
	}
	m := r.device(address)
	for i := range buffer {
		buffer[i] = m[(int(reg)+i)%256]
	}
	return nil
}

func (r *Registers) WriteRegister(ctx context.Context, address, reg, value byte) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.ops = append(r.ops, Op{Kind: OpWrite, Address: address, Reg: reg, Value: value})
	if r.fail[failKey{OpWrite, address, reg}] {
		return fmt.Errorf("write %#x@%#x: %w", reg, address, ErrInjected)
	}
	r.device(address)[reg] = value
	return nil
}

func (r *Registers) device(address byte) *[256]byte {
	m, ok := r.mem[address]
	if !ok {
		m = &[256]byte{}
		r.mem[address] = m
	}
	return m
}

// NoDelay is a DelayFunc that returns immediately.
func NoDelay(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

// Delays records the waits requested by a driver without sleeping.
type Delays struct {
	mx   sync.Mutex
	seen []time.Duration
}

func (d *Delays) Delay(ctx context.Context, dur time.Duration) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.seen = append(d.seen, dur)
	return ctx.Err()
}

func (d *Delays) Seen() []time.Duration {
	d.mx.Lock()
	defer d.mx.Unlock()
	return append([]time.Duration(nil), d.seen...)
}
