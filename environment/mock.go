package environment

import (
	"context"

	"periph.io/x/conn/v3/physic"
)

// EnvBehaviorFunc defines the function signature for environmental sensor behavior.
// It returns a complete sample or an error.
type EnvBehaviorFunc func(ctx context.Context) (physic.Env, error)

// MockEnvironmentSensor is a mock implementation of a combined temperature, pressure
// and humidity sensor that uses a behavior function to produce results without
// requiring any hardware. It can stand in for BME280 wherever Sense is used.
type MockEnvironmentSensor struct {
	behavior EnvBehaviorFunc
	name     string
}

// NewMockEnvironmentSensor creates a new mock sensor with the given behavior function.
//
// Example usage:
//
//	sensor := NewMockEnvironmentSensor(func(ctx context.Context) (physic.Env, error) {
//		return physic.Env{
//			Temperature: physic.ZeroCelsius + 21*physic.Celsius,
//			Pressure:    101325 * physic.Pascal,
//			Humidity:    40 * physic.PercentRH,
//		}, nil
//	})
func NewMockEnvironmentSensor(behavior EnvBehaviorFunc) *MockEnvironmentSensor {
	return &MockEnvironmentSensor{behavior: behavior, name: "mock environment sensor"}
}

// Sense calls the behavior function; env is left untouched on error.
func (m *MockEnvironmentSensor) Sense(ctx context.Context, env *physic.Env) error {
	e, err := m.behavior(ctx)
	if err != nil {
		return err
	}
	*env = e
	return nil
}

func (m *MockEnvironmentSensor) String() string {
	return m.name
}
