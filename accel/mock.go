package accel

import (
	"context"
)

// AccelerationBehaviorFunc defines the function signature for accelerometer behavior.
// It returns X, Y, Z acceleration in g or an error.
type AccelerationBehaviorFunc func(ctx context.Context) ([3]float32, error)

// MockAccelerometer is a mock implementation of a 3-axis accelerometer that uses a behavior
// function to produce results without requiring any hardware.
// It exposes the same read/accessor pair as ADXL343 so it can stand in for it.
type MockAccelerometer struct {
	behavior AccelerationBehaviorFunc
	last     [3]float32
}

// NewMockAccelerometer creates a new mock accelerometer with the given behavior function.
//
// Example usage:
//
//	sensor := NewMockAccelerometer(func(ctx context.Context) ([3]float32, error) {
//		return [3]float32{0, 0, 1}, nil
//	})
func NewMockAccelerometer(behavior AccelerationBehaviorFunc) *MockAccelerometer {
	return &MockAccelerometer{behavior: behavior}
}

// ReadAcceleration calls the behavior function and stores its result, even when
// an error is returned, the same way ADXL343 does.
func (m *MockAccelerometer) ReadAcceleration(ctx context.Context) error {
	v, err := m.behavior(ctx)
	m.last = v
	return err
}

func (m *MockAccelerometer) Acceleration() (x, y, z float32) {
	return m.last[0], m.last[1], m.last[2]
}

func (m *MockAccelerometer) String() string {
	return "mock accelerometer"
}
