package environment

import (
	"context"
	"fmt"

	"github.com/mklimuk/envsensors"
)

// ErrCalibration is returned when the factory compensation parameters could
// not be read; the handle keeps no coefficients in that case.
var ErrCalibration = fmt.Errorf("bme280: could not load calibration")

// Calibration holds the factory-programmed compensation parameters of a
// single BME280 unit (datasheet 4.2.2).
type Calibration struct {
	T1 uint16 `yaml:"dig_T1"`
	T2 int16  `yaml:"dig_T2"`
	T3 int16  `yaml:"dig_T3"`

	P1 uint16 `yaml:"dig_P1"`
	P2 int16  `yaml:"dig_P2"`
	P3 int16  `yaml:"dig_P3"`
	P4 int16  `yaml:"dig_P4"`
	P5 int16  `yaml:"dig_P5"`
	P6 int16  `yaml:"dig_P6"`
	P7 int16  `yaml:"dig_P7"`
	P8 int16  `yaml:"dig_P8"`
	P9 int16  `yaml:"dig_P9"`

	H1 uint8 `yaml:"dig_H1"`
	H2 int16 `yaml:"dig_H2"`
	H3 uint8 `yaml:"dig_H3"`
	H4 int16 `yaml:"dig_H4"`
	H5 int16 `yaml:"dig_H5"`
	H6 int8  `yaml:"dig_H6"`
}

// calibration memory blocks
type block int

const (
	blockTP block = iota // 0x88..0x9F
	blockH1              // 0xA1
	blockH               // 0xE1..0xE7
)

var calibrationBlocks = []struct {
	reg    byte
	length int
}{
	blockTP: {reg: 0x88, length: 24},
	blockH1: {reg: 0xA1, length: 1},
	blockH:  {reg: 0xE1, length: 7},
}

type fieldKind int

const (
	kindU8    fieldKind = iota
	kindS8              // two's complement byte
	kindU16LE           // [lsb, msb]
	kindS16LE           // [lsb, msb]
	kindS12HL           // [msb, lsb in bits 3:0]
	kindS12LH           // [lsb in bits 7:4, msb]
)

type coefficient struct {
	name   string
	block  block
	offset int
	kind   fieldKind
	set    func(c *Calibration, v int32)
}

// calibrationLayout maps every coefficient to its place in the calibration
// memory (datasheet table 16).
var calibrationLayout = []coefficient{
	{"dig_T1", blockTP, 0, kindU16LE, func(c *Calibration, v int32) { c.T1 = uint16(v) }},
	{"dig_T2", blockTP, 2, kindS16LE, func(c *Calibration, v int32) { c.T2 = int16(v) }},
	{"dig_T3", blockTP, 4, kindS16LE, func(c *Calibration, v int32) { c.T3 = int16(v) }},
	{"dig_P1", blockTP, 6, kindU16LE, func(c *Calibration, v int32) { c.P1 = uint16(v) }},
	{"dig_P2", blockTP, 8, kindS16LE, func(c *Calibration, v int32) { c.P2 = int16(v) }},
	{"dig_P3", blockTP, 10, kindS16LE, func(c *Calibration, v int32) { c.P3 = int16(v) }},
	{"dig_P4", blockTP, 12, kindS16LE, func(c *Calibration, v int32) { c.P4 = int16(v) }},
	{"dig_P5", blockTP, 14, kindS16LE, func(c *Calibration, v int32) { c.P5 = int16(v) }},
	{"dig_P6", blockTP, 16, kindS16LE, func(c *Calibration, v int32) { c.P6 = int16(v) }},
	{"dig_P7", blockTP, 18, kindS16LE, func(c *Calibration, v int32) { c.P7 = int16(v) }},
	{"dig_P8", blockTP, 20, kindS16LE, func(c *Calibration, v int32) { c.P8 = int16(v) }},
	{"dig_P9", blockTP, 22, kindS16LE, func(c *Calibration, v int32) { c.P9 = int16(v) }},
	{"dig_H1", blockH1, 0, kindU8, func(c *Calibration, v int32) { c.H1 = uint8(v) }},
	{"dig_H2", blockH, 0, kindS16LE, func(c *Calibration, v int32) { c.H2 = int16(v) }},
	{"dig_H3", blockH, 2, kindU8, func(c *Calibration, v int32) { c.H3 = uint8(v) }},
	// H4 and H5 are 12-bit values sharing the nibbles of 0xE5
	{"dig_H4", blockH, 3, kindS12HL, func(c *Calibration, v int32) { c.H4 = int16(v) }},
	{"dig_H5", blockH, 4, kindS12LH, func(c *Calibration, v int32) { c.H5 = int16(v) }},
	{"dig_H6", blockH, 6, kindS8, func(c *Calibration, v int32) { c.H6 = int8(v) }},
}

func (k fieldKind) decode(b []byte) int32 {
	switch k {
	case kindU8:
		return int32(b[0])
	case kindS8:
		return int32(int8(b[0]))
	case kindU16LE:
		return int32(uint16(b[1])<<8 | uint16(b[0]))
	case kindS16LE:
		return int32(int16(uint16(b[1])<<8 | uint16(b[0])))
	case kindS12HL:
		// msb carries the sign; shifting a signed byte keeps it
		return int32(int8(b[0]))<<4 | int32(b[1]&0x0F)
	case kindS12LH:
		return int32(int8(b[1]))<<4 | int32(b[0]>>4)
	}
	panic(fmt.Sprintf("unknown coefficient kind %d", k))
}

// parseCalibration decodes the raw calibration blocks, indexed by block.
func parseCalibration(blocks [][]byte) Calibration {
	var c Calibration
	for _, f := range calibrationLayout {
		f.set(&c, f.kind.decode(blocks[f.block][f.offset:]))
	}
	return c
}

// readCalibration reads every calibration block before decoding anything so
// that a failed read never yields a partial coefficient set.
func readCalibration(ctx context.Context, seq *envsensors.InitSequence) (*Calibration, error) {
	blocks := make([][]byte, len(calibrationBlocks))
	for i, b := range calibrationBlocks {
		blocks[i] = make([]byte, b.length)
		if err := seq.Read(ctx, b.reg, blocks[i]); err != nil {
			return nil, fmt.Errorf("%w: block %#x: %w", ErrCalibration, b.reg, err)
		}
	}
	c := parseCalibration(blocks)
	return &c, nil
}
