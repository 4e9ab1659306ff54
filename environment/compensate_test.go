package environment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompensateTemperature(t *testing.T) {
	tFine, temp := sampleCalibration.CompensateTemperature(519888)
	assert.Equal(t, int32(128422), tFine)
	assert.Equal(t, int32(2508), temp)
}

func TestCompensatePressure(t *testing.T) {
	p, err := sampleCalibration.CompensatePressure(415148, 128422)
	require.NoError(t, err)
	assert.Equal(t, uint32(25767233), p)
	assert.InDelta(t, 100653.25, float64(p)/256, 0.01)
}

func TestCompensatePressure_ZeroDivisor(t *testing.T) {
	c := sampleCalibration
	c.P1 = 0
	p, err := c.CompensatePressure(415148, 128422)
	assert.ErrorIs(t, err, ErrPressureCompensation)
	assert.Zero(t, p)
}

func TestCompensatePressure_NegativeSaturates(t *testing.T) {
	c := sampleCalibration
	// P4 dominates var2 and drives the intermediate below zero
	c.P4 = 32767
	p, err := c.CompensatePressure(0xFFFFF, 128422)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), p)
}

func TestCompensateHumidity(t *testing.T) {
	tests := []struct {
		adc      int32
		expected uint32
	}{
		{0, 0},
		{1, 0},
		{30000, 56317},
		{32768, 72045},
		{50000, 102400},
		{65535, 102400},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%04x", test.adc), func(t *testing.T) {
			assert.Equal(t, test.expected, sampleCalibration.CompensateHumidity(test.adc, 128422))
		})
	}
}

func TestCompensateHumidity_AlwaysInRange(t *testing.T) {
	extremes := []Calibration{
		sampleCalibration,
		{H1: 255, H2: 32767, H3: 255, H4: 2047, H5: 2047, H6: 127},
		{H1: 0, H2: -32768, H3: 0, H4: -2048, H5: -2048, H6: -128},
		{H1: 255, H2: 32767, H3: 0, H4: -2048, H5: 2047, H6: -128},
	}
	for i, c := range extremes {
		for _, tFine := range []int32{-204800, 0, 76800, 128422, 204800} {
			for adc := int32(0); adc <= 0xFFFF; adc++ {
				h := c.CompensateHumidity(adc, tFine)
				if h > 100*1024 {
					t.Fatalf("calibration %d, t_fine %d, adc %#x: humidity %d out of range", i, tFine, adc, h)
				}
			}
		}
	}
}

func TestRawSamples(t *testing.T) {
	assert.Equal(t, int32(519888), raw20([]byte{0x7E, 0xED, 0x00}))
	assert.Equal(t, int32(415148), raw20([]byte{0x65, 0x5A, 0xC0}))
	// the low nibble of xlsb is not part of the sample
	assert.Equal(t, int32(0xFFFFF), raw20([]byte{0xFF, 0xFF, 0xFF}))
	assert.Equal(t, int32(30000), raw16([]byte{0x75, 0x30}))
}
