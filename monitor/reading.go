// Package monitor samples the sensors periodically and publishes their
// readings to Prometheus, InfluxDB and websocket clients.
package monitor

import (
	"context"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Reading field names.
const (
	FieldTemperature = "temperature" // °C
	FieldPressure    = "pressure"    // Pa
	FieldHumidity    = "humidity"    // %RH
	FieldX           = "x"           // g
	FieldY           = "y"
	FieldZ           = "z"
)

// Reading is one sample of a single sensor.
type Reading struct {
	Sensor    string             `json:"sensor"`
	Fields    map[string]float64 `json:"fields"`
	Timestamp time.Time          `json:"timestamp"`
}

// Sink receives every reading produced by the sampler.
type Sink interface {
	Write(ctx context.Context, r Reading) error
}

func environmentReading(sensor string, env physic.Env, ts time.Time) Reading {
	return Reading{
		Sensor: sensor,
		Fields: map[string]float64{
			FieldTemperature: env.Temperature.Celsius(),
			FieldPressure:    float64(env.Pressure) / float64(physic.Pascal),
			FieldHumidity:    float64(env.Humidity) / float64(physic.PercentRH),
		},
		Timestamp: ts,
	}
}

func accelerationReading(sensor string, x, y, z float32, ts time.Time) Reading {
	return Reading{
		Sensor: sensor,
		Fields: map[string]float64{
			FieldX: float64(x),
			FieldY: float64(y),
			FieldZ: float64(z),
		},
		Timestamp: ts,
	}
}
