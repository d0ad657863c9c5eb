// fakestation publishes synthetic weather readings over MQTT so the daemon
// can be exercised without an SDR and a real station. Values drift as a
// bounded random walk, roughly matching what a backyard station reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newcubes/Living-Synthesizer/internal/config"
	"github.com/newcubes/Living-Synthesizer/internal/logging"
	"github.com/newcubes/Living-Synthesizer/internal/mqtt"
	"github.com/newcubes/Living-Synthesizer/internal/wx"
)

const appName = "fakestation"

var version = "dev"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg.MQTTClientID = appName

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}

func run(ctx context.Context, cfg config.Config) error {
	stationID := envOr("STATION_ID", "fake-ws2000")
	interval, err := time.ParseDuration(envOr("PUBLISH_INTERVAL", "16s"))
	if err != nil {
		return fmt.Errorf("invalid PUBLISH_INTERVAL: %w", err)
	}

	publisher := mqtt.NewPublisher(cfg, slog.Default())
	if err := publisher.Connect(ctx); err != nil {
		return err
	}
	defer publisher.Disconnect()

	slog.Info("publishing synthetic readings",
		"station_id", stationID,
		"interval", interval,
	)

	gen := newWalker()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r := gen.next()
			if err := publisher.PublishReading(stationID, r); err != nil {
				slog.Error("publish failed", "error", err)
				continue
			}
			slog.Info("published",
				"wind_mph", r.WindSpeedMPH,
				"dir_deg", r.WindDirDeg,
				"temp_c", r.TemperatureC,
				"humidity_pct", r.HumidityPct,
			)
		}
	}
}

// walker produces a plausible weather trajectory: gusty wind, slowly
// veering direction, near-constant temperature and humidity.
type walker struct {
	rng      *rand.Rand
	wind     float64
	dir      float64
	temp     float64
	humidity float64
}

func newWalker() *walker {
	return &walker{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		wind:     6,
		dir:      225,
		temp:     18,
		humidity: 55,
	}
}

func (g *walker) next() wx.Reading {
	g.wind = clamp(g.wind+g.rng.NormFloat64()*2, 0, 30)
	g.dir += g.rng.NormFloat64() * 15
	g.temp = clamp(g.temp+g.rng.NormFloat64()*0.3, -10, 45)
	g.humidity = clamp(g.humidity+g.rng.NormFloat64()*1.5, 0, 100)

	return wx.Reading{
		Timestamp:    time.Now(),
		WindSpeedMPH: g.wind,
		WindDirDeg:   g.dir,
		TemperatureC: g.temp,
		HumidityPct:  g.humidity,
	}.Sanitize()
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
