package monitor

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink exposes the last value of every field as a gauge.
type PrometheusSink struct {
	temperature  *prometheus.GaugeVec
	pressure     *prometheus.GaugeVec
	humidity     *prometheus.GaugeVec
	acceleration *prometheus.GaugeVec
}

func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sensor_temperature_celsius",
			Help: "Temperature in degrees Celsius.",
		}, []string{"sensor"}),
		pressure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sensor_pressure_pascal",
			Help: "Barometric pressure in pascal.",
		}, []string{"sensor"}),
		humidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sensor_humidity_percent",
			Help: "Relative humidity in percent.",
		}, []string{"sensor"}),
		acceleration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sensor_acceleration_g",
			Help: "Acceleration along an axis in g.",
		}, []string{"sensor", "axis"}),
	}
	reg.MustRegister(s.temperature, s.pressure, s.humidity, s.acceleration)
	return s
}

func (s *PrometheusSink) Write(ctx context.Context, r Reading) error {
	for field, v := range r.Fields {
		switch field {
		case FieldTemperature:
			s.temperature.WithLabelValues(r.Sensor).Set(v)
		case FieldPressure:
			s.pressure.WithLabelValues(r.Sensor).Set(v)
		case FieldHumidity:
			s.humidity.WithLabelValues(r.Sensor).Set(v)
		case FieldX, FieldY, FieldZ:
			s.acceleration.WithLabelValues(r.Sensor, field).Set(v)
		}
	}
	return nil
}
