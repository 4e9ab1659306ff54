package environment

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/envsensors"
)

// BME280 I2C addresses (7-bit), selected with the SDO pin.
const (
	BME280Address    = 0x77
	BME280AltAddress = 0x76
)

const bme280ChipID = 0x60

// Register map (datasheet 5.3)
const (
	regChipID   byte = 0xD0
	regReset    byte = 0xE0
	regCtrlHum  byte = 0xF2
	regCtrlMeas byte = 0xF4
	regConfig   byte = 0xF5
	regPress    byte = 0xF7 // press_msb, press_lsb, press_xlsb
	regTemp     byte = 0xFA // temp_msb, temp_lsb, temp_xlsb
	regHum      byte = 0xFD // hum_msb, hum_lsb
)

const (
	resetCommand byte = 0xB6
	// the device does not answer while it copies NVM after a reset
	resetSettle = 100 * time.Millisecond
)

var ErrNotCalibrated = fmt.Errorf("bme280: device not initialized (no calibration loaded)")

// Oversampling selects how many samples are averaged per measurement.
type Oversampling byte

const (
	Skip Oversampling = iota
	O1x
	O2x
	O4x
	O8x
	O16x
)

// Standby is the inactive period between two measurements in normal mode.
type Standby byte

const (
	Standby0_5ms Standby = iota
	Standby62_5ms
	Standby125ms
	Standby250ms
	Standby500ms
	Standby1000ms
	Standby10ms
	Standby20ms
)

// Filter is the IIR filter coefficient.
type Filter byte

const (
	FilterOff Filter = iota
	Filter2
	Filter4
	Filter8
	Filter16
)

type mode byte

const (
	modeSleep  mode = 0b00
	modeNormal mode = 0b11
)

type BME280Config struct {
	Address     byte
	Humidity    Oversampling
	Temperature Oversampling
	Pressure    Oversampling
	Standby     Standby
	Filter      Filter
	Delay       envsensors.DelayFunc
}

type BME280Option func(*BME280Config)

func WithBME280Address(address byte) BME280Option {
	return func(c *BME280Config) {
		c.Address = address
	}
}

func WithOversampling(hum, temp, press Oversampling) BME280Option {
	return func(c *BME280Config) {
		c.Humidity = hum
		c.Temperature = temp
		c.Pressure = press
	}
}

func WithConfig(standby Standby, filter Filter) BME280Option {
	return func(c *BME280Config) {
		c.Standby = standby
		c.Filter = filter
	}
}

// WithDelay replaces the primitive used to wait for the device after reset.
func WithDelay(delay envsensors.DelayFunc) BME280Option {
	return func(c *BME280Config) {
		c.Delay = delay
	}
}

// BME280 represents Bosch BME280 combined humidity, pressure and temperature sensor.
// Typical usage:
//
//	s := NewBME280(bus)
//	if _, err := s.Init(ctx); err != nil { ... }
//	var env physic.Env
//	err := s.Sense(ctx, &env)
//
// ReadPressure and ReadHumidity use the fine temperature computed by the last
// ReadTemperature; call ReadTemperature first in every sampling cycle (Sense
// does it for you). The handle holds no lock.
type BME280 struct {
	transport envsensors.RegisterBus
	config    BME280Config

	calibration *Calibration
	tFine       int32

	temperature float32
	pressure    float32
	humidity    float32
}

func NewBME280(trans envsensors.RegisterBus, opts ...BME280Option) *BME280 {
	config := BME280Config{
		Address:     BME280Address,
		Humidity:    O2x,
		Temperature: O1x,
		Pressure:    O1x,
		Standby:     Standby500ms,
		Filter:      Filter2,
		Delay:       envsensors.Sleep,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &BME280{transport: trans, config: config}
}

// Init validates the chip id, resets the device, loads its calibration and
// starts normal mode measurements.
//
// The returned count is the number of bus operations that reported a
// transport error. An identity mismatch (envsensors.ErrUnknownDevice) stops
// before any write; a failed calibration load (ErrCalibration) stops before
// measurements are enabled and leaves the handle uncalibrated.
func (s *BME280) Init(ctx context.Context) (int, error) {
	s.temperature, s.pressure, s.humidity = 0, 0, 0
	s.calibration = nil
	s.tFine = 0

	seq := &envsensors.InitSequence{Bus: s.transport, Address: s.config.Address, Delay: s.config.Delay}
	if err := seq.Identify(ctx, regChipID, bme280ChipID); err != nil {
		return seq.Errors(), fmt.Errorf("bme280: %w", err)
	}
	seq.Write(ctx, regReset, resetCommand)
	if err := seq.Wait(ctx, resetSettle); err != nil {
		return seq.Errors(), fmt.Errorf("bme280: interrupted while waiting for reset: %w", err)
	}
	seq.Write(ctx, regConfig, s.configRegister())
	calibration, err := readCalibration(ctx, seq)
	if err != nil {
		return seq.Errors(), err
	}
	// ctrl_hum only takes effect after the following ctrl_meas write
	seq.Write(ctx, regCtrlHum, byte(s.config.Humidity))
	seq.Write(ctx, regCtrlMeas, s.ctrlMeas(modeNormal))
	s.calibration = calibration
	return seq.Errors(), nil
}

func (s *BME280) configRegister() byte {
	return byte(s.config.Standby)<<5 | byte(s.config.Filter)<<2
}

func (s *BME280) ctrlMeas(m mode) byte {
	return byte(s.config.Temperature)<<5 | byte(s.config.Pressure)<<2 | byte(m)
}

// ReadTemperature reads the raw temperature, refreshes the fine temperature
// and stores the temperature in °C.
//
// As for every read, the sample is decoded even when the bus read failed;
// the returned error tells the caller not to trust it.
func (s *BME280) ReadTemperature(ctx context.Context) error {
	if s.calibration == nil {
		return ErrNotCalibrated
	}
	var raw [3]byte
	err := s.transport.ReadRegisters(ctx, s.config.Address, regTemp, raw[:])
	tFine, t := s.calibration.CompensateTemperature(raw20(raw[:]))
	s.tFine = tFine
	s.temperature = float32(t) / 100
	if err != nil {
		return fmt.Errorf("bme280: could not read temperature: %w", err)
	}
	return nil
}

// ReadPressure reads the raw pressure and stores the pressure in Pa.
// ErrPressureCompensation leaves the stored pressure untouched.
func (s *BME280) ReadPressure(ctx context.Context) error {
	if s.calibration == nil {
		return ErrNotCalibrated
	}
	var raw [3]byte
	err := s.transport.ReadRegisters(ctx, s.config.Address, regPress, raw[:])
	p, cerr := s.calibration.CompensatePressure(raw20(raw[:]), s.tFine)
	if cerr != nil {
		if err != nil {
			return fmt.Errorf("%w (after read error: %w)", cerr, err)
		}
		return cerr
	}
	s.pressure = float32(p) / 256
	if err != nil {
		return fmt.Errorf("bme280: could not read pressure: %w", err)
	}
	return nil
}

// ReadHumidity reads the raw humidity and stores the relative humidity in %.
func (s *BME280) ReadHumidity(ctx context.Context) error {
	if s.calibration == nil {
		return ErrNotCalibrated
	}
	var raw [2]byte
	err := s.transport.ReadRegisters(ctx, s.config.Address, regHum, raw[:])
	h := s.calibration.CompensateHumidity(raw16(raw[:]), s.tFine)
	s.humidity = float32(h) / 1024
	if err != nil {
		return fmt.Errorf("bme280: could not read humidity: %w", err)
	}
	return nil
}

// Sense runs a full sampling cycle (temperature first) and fills env.
// It stops at the first error; env is only modified on success.
func (s *BME280) Sense(ctx context.Context, env *physic.Env) error {
	if err := s.ReadTemperature(ctx); err != nil {
		return err
	}
	if err := s.ReadPressure(ctx); err != nil {
		return err
	}
	if err := s.ReadHumidity(ctx); err != nil {
		return err
	}
	env.Temperature = physic.ZeroCelsius + physic.Temperature(float64(s.temperature)*float64(physic.Celsius))
	env.Pressure = physic.Pressure(float64(s.pressure) * float64(physic.Pascal))
	env.Humidity = physic.RelativeHumidity(float64(s.humidity) * float64(physic.PercentRH))
	return nil
}

// Halt puts the device into sleep mode.
func (s *BME280) Halt(ctx context.Context) error {
	err := s.transport.WriteRegister(ctx, s.config.Address, regCtrlMeas, s.ctrlMeas(modeSleep))
	if err != nil {
		return fmt.Errorf("bme280: could not enter sleep mode: %w", err)
	}
	return nil
}

// Temperature returns the last temperature in °C.
func (s *BME280) Temperature() float32 {
	return s.temperature
}

// Pressure returns the last pressure in Pa.
func (s *BME280) Pressure() float32 {
	return s.pressure
}

// Humidity returns the last relative humidity in %.
func (s *BME280) Humidity() float32 {
	return s.humidity
}

// TFine returns the fine temperature of the last ReadTemperature.
func (s *BME280) TFine() int32 {
	return s.tFine
}

// Calibration returns a copy of the loaded coefficients; ok is false until
// Init succeeded.
func (s *BME280) Calibration() (c Calibration, ok bool) {
	if s.calibration == nil {
		return Calibration{}, false
	}
	return *s.calibration, true
}

func (s *BME280) String() string {
	return fmt.Sprintf("BME280@%#x", s.config.Address)
}
