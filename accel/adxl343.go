package accel

import (
	"context"
	"fmt"

	"github.com/mklimuk/envsensors"
)

// ADXL343 I2C addresses (7-bit), selected with the ALT ADDRESS pin.
const (
	ADXL343Address    = 0x53
	ADXL343AltAddress = 0x1D
)

const adxl343DeviceID = 0xE5

// Register map (datasheet p.22). Only the registers used by the
// initialization and read paths are listed.
const (
	regDevID    byte = 0x00
	regPowerCtl byte = 0x2D
	regDataX0   byte = 0x32
)

const (
	powerCtlStandby byte = 0x00
	powerCtlMeasure byte = 0x08
)

// scale is the acceleration of one LSB in g at the default full-resolution
// setting (3.9 mg/LSB).
const scale = 0.0039

type ADXL343Config struct {
	Address byte
}

type ADXL343Option func(*ADXL343Config)

func WithAddress(address byte) ADXL343Option {
	return func(c *ADXL343Config) {
		c.Address = address
	}
}

// ADXL343 represents Analog Devices ADXL343 3-axis accelerometer.
// Typical usage:
//
//	a := NewADXL343(bus)
//	if _, err := a.Init(ctx); err != nil { ... }
//	err := a.ReadAcceleration(ctx)
//	x, y, z := a.Acceleration()
//
// The handle holds no lock; it must not be used from two goroutines at once.
type ADXL343 struct {
	transport    envsensors.RegisterBus
	address      byte
	acceleration [3]float32
}

func NewADXL343(trans envsensors.RegisterBus, opts ...ADXL343Option) *ADXL343 {
	config := &ADXL343Config{
		Address: ADXL343Address,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &ADXL343{transport: trans, address: config.Address}
}

// Init checks the device identity and takes the device out of standby.
// It returns the number of bus operations that reported a transport error.
// An identity mismatch returns envsensors.ErrUnknownDevice and nothing is
// written to the device.
func (a *ADXL343) Init(ctx context.Context) (int, error) {
	a.acceleration = [3]float32{}
	seq := &envsensors.InitSequence{Bus: a.transport, Address: a.address}
	if err := seq.Identify(ctx, regDevID, adxl343DeviceID); err != nil {
		return seq.Errors(), fmt.Errorf("adxl343: %w", err)
	}
	seq.Write(ctx, regPowerCtl, powerCtlMeasure)
	return seq.Errors(), nil
}

// ReadAcceleration reads the three axes and stores the result in g.
//
// The sample is decoded even if the bus read fails: the returned error tells
// the caller not to trust the stored value.
func (a *ADXL343) ReadAcceleration(ctx context.Context) error {
	var raw [6]byte
	err := a.transport.ReadRegisters(ctx, a.address, regDataX0, raw[:])
	a.acceleration = decodeAcceleration(raw)
	if err != nil {
		return fmt.Errorf("adxl343: could not read axis data: %w", err)
	}
	return nil
}

// Acceleration returns the last decoded X, Y and Z values in g.
func (a *ADXL343) Acceleration() (x, y, z float32) {
	return a.acceleration[0], a.acceleration[1], a.acceleration[2]
}

// Halt puts the device back into standby.
func (a *ADXL343) Halt(ctx context.Context) error {
	err := a.transport.WriteRegister(ctx, a.address, regPowerCtl, powerCtlStandby)
	if err != nil {
		return fmt.Errorf("adxl343: could not enter standby: %w", err)
	}
	return nil
}

func (a *ADXL343) String() string {
	return fmt.Sprintf("ADXL343@%#x", a.address)
}

// decodeAcceleration converts DATAX0..DATAZ1 into g; each axis is a little
// endian two's complement word.
func decodeAcceleration(raw [6]byte) [3]float32 {
	var res [3]float32
	for axis := 0; axis < 3; axis++ {
		v := int16(uint16(raw[2*axis+1])<<8 | uint16(raw[2*axis]))
		res[axis] = float32(v) * scale
	}
	return res
}
