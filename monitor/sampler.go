package monitor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// EnvironmentSensor is satisfied by environment.BME280 and its mock.
type EnvironmentSensor interface {
	Sense(ctx context.Context, env *physic.Env) error
	String() string
}

// Accelerometer is satisfied by accel.ADXL343 and its mock.
type Accelerometer interface {
	ReadAcceleration(ctx context.Context) error
	Acceleration() (x, y, z float32)
	String() string
}

type SamplerOption func(*Sampler)

func WithEnvironment(sensors ...EnvironmentSensor) SamplerOption {
	return func(s *Sampler) {
		s.env = append(s.env, sensors...)
	}
}

func WithAccelerometer(sensors ...Accelerometer) SamplerOption {
	return func(s *Sampler) {
		s.accel = append(s.accel, sensors...)
	}
}

func WithSink(sinks ...Sink) SamplerOption {
	return func(s *Sampler) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// Sampler reads every sensor once per interval and hands the readings to
// the sinks. A failing sensor or sink is logged and skipped; the loop goes on.
type Sampler struct {
	interval time.Duration
	env      []EnvironmentSensor
	accel    []Accelerometer
	sinks    []Sink
	now      func() time.Time

	mx     sync.RWMutex
	latest map[string]Reading
}

func NewSampler(interval time.Duration, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		interval: interval,
		now:      time.Now,
		latest:   map[string]Reading{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run samples until ctx is done.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.Sample(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sample runs a single cycle and returns the readings it produced.
func (s *Sampler) Sample(ctx context.Context) []Reading {
	var readings []Reading
	for _, sensor := range s.env {
		var env physic.Env
		if err := sensor.Sense(ctx, &env); err != nil {
			slog.Warn("sensor read error", "sensor", sensor.String(), "error", err)
			continue
		}
		readings = append(readings, environmentReading(sensor.String(), env, s.now()))
	}
	for _, sensor := range s.accel {
		if err := sensor.ReadAcceleration(ctx); err != nil {
			slog.Warn("sensor read error", "sensor", sensor.String(), "error", err)
			continue
		}
		x, y, z := sensor.Acceleration()
		readings = append(readings, accelerationReading(sensor.String(), x, y, z, s.now()))
	}
	s.mx.Lock()
	for _, r := range readings {
		s.latest[r.Sensor] = r
	}
	s.mx.Unlock()
	for _, r := range readings {
		slog.Debug("reading", "sensor", r.Sensor, "fields", r.Fields)
		for _, sink := range s.sinks {
			if err := sink.Write(ctx, r); err != nil {
				slog.Warn("sink write error", "sensor", r.Sensor, "error", err)
			}
		}
	}
	return readings
}

// Latest returns the most recent reading of every sensor, ordered by name.
func (s *Sampler) Latest() []Reading {
	s.mx.RLock()
	defer s.mx.RUnlock()
	res := make([]Reading, 0, len(s.latest))
	for _, r := range s.latest {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Sensor < res[j].Sensor })
	return res
}
