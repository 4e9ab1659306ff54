package monitor

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

const measurement = "sensor_data"

// InfluxSink writes every reading as one point, synchronously.
type InfluxSink struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClient(url, token)
	return &InfluxSink{
		client: client,
		write:  client.WriteAPIBlocking(org, bucket),
	}
}

func (s *InfluxSink) Write(ctx context.Context, r Reading) error {
	p := influxdb2.NewPointWithMeasurement(measurement).
		AddTag("sensor", r.Sensor).
		SetTime(r.Timestamp)
	for key, value := range r.Fields {
		p.AddField(key, value)
	}
	p.SortFields()
	if err := s.write.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("could not write %s reading to influx: %w", r.Sensor, err)
	}
	return nil
}

func (s *InfluxSink) Close() {
	s.client.Close()
}
