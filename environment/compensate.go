package environment

import (
	"fmt"
	"math"
)

// ErrPressureCompensation is returned when the pressure compensation divisor
// evaluates to zero (typically an all-zero dig_P1).
var ErrPressureCompensation = fmt.Errorf("bme280: pressure compensation divisor is zero")

// humidityMax is 100 %RH in Q22.10 shifted left by 12.
const humidityMax = 419430400

// CompensateTemperature returns the fine temperature consumed by the pressure
// and humidity formulas and the temperature in 0.01 °C (5123 is 51.23 °C).
//
// adcT is the 20-bit raw temperature. Arithmetic is int32 exactly as in the
// datasheet reference code (4.2.3).
func (c *Calibration) CompensateTemperature(adcT int32) (tFine, centiCelsius int32) {
	t1 := int32(c.T1)
	var1 := (((adcT >> 3) - (t1 << 1)) * int32(c.T2)) >> 11
	var2 := (((((adcT >> 4) - t1) * ((adcT >> 4) - t1)) >> 12) * int32(c.T3)) >> 14
	tFine = var1 + var2
	centiCelsius = (tFine*5 + 128) >> 8
	return tFine, centiCelsius
}

// CompensatePressure returns the pressure in Pa as unsigned Q24.8
// (24674867 is 24674867/256 = 96386.2 Pa).
//
// adcP is the 20-bit raw pressure, tFine must come from a temperature
// compensation of the same measurement cycle. Results outside the uint32
// range saturate.
func (c *Calibration) CompensatePressure(adcP, tFine int32) (uint32, error) {
	var1 := int64(tFine) - 128000
	var2 := var1 * var1 * int64(c.P6)
	var2 += (var1 * int64(c.P5)) << 17
	var2 += int64(c.P4) << 35
	var1 = ((var1 * var1 * int64(c.P3)) >> 8) + ((var1 * int64(c.P2)) << 12)
	var1 = (((int64(1) << 47) + var1) * int64(c.P1)) >> 33
	if var1 == 0 {
		return 0, ErrPressureCompensation
	}
	p := 1048576 - int64(adcP)
	p = (((p << 31) - var2) * 3125) / var1
	var1 = (int64(c.P9) * (p >> 13) * (p >> 13)) >> 25
	var2 = (int64(c.P8) * p) >> 19
	p = ((p + var1 + var2) >> 8) + (int64(c.P7) << 4)
	// out of range only with corrupt coefficients; saturate instead of wrapping
	switch {
	case p < 0:
		return 0, nil
	case p > math.MaxUint32:
		return math.MaxUint32, nil
	}
	return uint32(p), nil
}

// CompensateHumidity returns the relative humidity in %RH as unsigned Q22.10
// (47445 is 47445/1024 = 46.333 %RH), always within [0, 100] %RH.
//
// adcH is the 16-bit raw humidity. The intermediate is clamped before the
// final shift so that polynomial overshoot can never leave the valid range.
func (c *Calibration) CompensateHumidity(adcH, tFine int32) uint32 {
	v := tFine - 76800
	v = (((adcH << 14) - (int32(c.H4) << 20) - (int32(c.H5) * v) + 16384) >> 15) *
		(((((((v*int32(c.H6))>>10)*(((v*int32(c.H3))>>11)+32768))>>10)+2097152)*int32(c.H2) + 8192) >> 14)
	v -= ((((v >> 15) * (v >> 15)) >> 7) * int32(c.H1)) >> 4
	if v < 0 {
		v = 0
	}
	if v > humidityMax {
		v = humidityMax
	}
	return uint32(v >> 12)
}

// raw20 assembles a 20-bit sample from msb, lsb and the xlsb high nibble.
func raw20(b []byte) int32 {
	return int32(b[0])<<12 | int32(b[1])<<4 | int32(b[2])>>4
}

// raw16 assembles the big endian 16-bit humidity sample.
func raw16(b []byte) int32 {
	return int32(b[0])<<8 | int32(b[1])
}
