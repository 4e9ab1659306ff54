package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/envsensors"
	"github.com/mklimuk/envsensors/cmd/sensors/console"
	"github.com/mklimuk/envsensors/config"
	"github.com/mklimuk/envsensors/monitor"
)

var monitorCmd = cli.Command{
	Name:  "monitor",
	Usage: "sample the sensors periodically and serve the readings",
	Flags: append([]cli.Flag{
		&cli.DurationFlag{Name: "interval", Usage: "sampling interval (overrides config)"},
		&cli.StringFlag{Name: "listen", Usage: "http listen address (overrides config)"},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		return withBus(c, runMonitor)
	},
}

func runMonitor(c *cli.Context, cfg config.Config, bus envsensors.RegisterBus) error {
	if d := c.Duration("interval"); d > 0 {
		cfg.Monitor.Interval = d
	}
	if l := c.String("listen"); l != "" {
		cfg.Monitor.Listen = l
	}
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	hub := monitor.NewHub()
	defer hub.Close()
	opts := []monitor.SamplerOption{
		monitor.WithSink(monitor.NewPrometheusSink(reg), hub),
	}
	if cfg.Influx.URL != "" {
		influx := monitor.NewInfluxSink(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
		defer influx.Close()
		opts = append(opts, monitor.WithSink(influx))
		slog.Info("writing readings to influx", "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	}
	if cfg.BME280.Enabled {
		s := newBME280(cfg, bus)
		if err := initBME280(c, s); err != nil {
			return err
		}
		opts = append(opts, monitor.WithEnvironment(s))
	}
	if cfg.ADXL343.Enabled {
		a := newADXL343(cfg, bus)
		errCount, err := a.Init(ctx)
		if err != nil {
			return console.Exit(1, "error initializing %s: %s", a, console.Red(err))
		}
		if errCount > 0 {
			console.Warnf("%s initialized with %d transport errors", a, errCount)
		}
		opts = append(opts, monitor.WithAccelerometer(a))
	}
	sampler := monitor.NewSampler(cfg.Monitor.Interval, opts...)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Monitor.Listen,
		Handler:           monitor.NewRouter(sampler, hub, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("serving readings", "listen", cfg.Monitor.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("sampling", "interval", cfg.Monitor.Interval)
	_ = sampler.Run(ctx)

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		slog.Warn("http server shutdown error", "error", err)
	}
	return nil
}
