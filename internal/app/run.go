package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/newcubes/Living-Synthesizer/internal/archive"
	"github.com/newcubes/Living-Synthesizer/internal/config"
	"github.com/newcubes/Living-Synthesizer/internal/httpapi"
	"github.com/newcubes/Living-Synthesizer/internal/midi"
	"github.com/newcubes/Living-Synthesizer/internal/mqtt"
	"github.com/newcubes/Living-Synthesizer/internal/pipeline"
	"github.com/newcubes/Living-Synthesizer/internal/wx"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"sqlitePath", cfg.SQLitePath,
		"midiPort", cfg.MIDIPort,
		"midiChannel", cfg.MIDIChannel,
		"lfo", cfg.LFO,
		"profile", cfg.ProfileName,
		"algorithm", cfg.Algorithm,
		"maxWindMPH", cfg.MaxWindMPH,
		"emitInterval", cfg.EmitInterval,
	)

	dbConn, err := archive.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := archive.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	store := archive.NewArchive(dbConn)
	if err := store.Init(); err != nil {
		return err
	}
	slog.Info("reading archive ready")

	profile, err := cfg.Profile()
	if err != nil {
		return err
	}
	bank, _ := pipeline.BankForLFO(cfg.LFO)
	pl, err := pipeline.New(pipeline.Config{
		Profile:     profile,
		Bank:        bank,
		MIDIChannel: uint8(cfg.MIDIChannel),
		MaxWindMPH:  cfg.MaxWindMPH,
	})
	if err != nil {
		return err
	}
	guard := &guardedPipeline{p: pl}

	emitter, err := openEmitter(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := emitter.Close(); closeErr != nil {
			slog.Error("midi close", "error", closeErr)
		}
	}()

	// Single queue feeding one consumer: the paho callback goroutine
	// produces, the loop below is the only writer touching the pipeline's
	// buffers (besides the mutex-guarded HTTP handlers).
	readings := make(chan wx.Reading, 64)

	// Set the handler before Connect so queued messages arriving right
	// after CONNACK are not lost.
	subscriber := mqtt.NewSubscriber(cfg, slog.Default())
	subscriber.SetHandler(func(r wx.Reading) error {
		select {
		case readings <- r:
			return nil
		default:
			slog.Warn("reading queue full, dropping", "timestamp", r.Timestamp)
			return nil
		}
	})

	// Short timeout so startup does not block when the broker is down;
	// paho keeps retrying in the background.
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = subscriber.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing, paho will retry)", "error", err)
	}

	mux := httpapi.NewMux(dbConn, store, guard)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				subscriber.Disconnect()
				return err
			}
			break loop
		case r := <-readings:
			processReading(ctx, guard, store, emitter, r, cfg.EmitInterval)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("mqtt disconnecting")
	subscriber.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// processReading runs one full cycle: archive, stabilize, map, emit. Every
// failure here is non-fatal; the next cycle proceeds with clean state.
func processReading(ctx context.Context, guard *guardedPipeline, store archive.ReadingArchive, emitter midi.Emitter, r wx.Reading, interval time.Duration) {
	if err := store.Insert(r); err != nil {
		slog.Error("archive reading", "timestamp", r.Timestamp, "error", err)
	}

	msgs := guard.ProcessOne(r)
	slog.Debug("processed reading",
		"timestamp", r.Timestamp,
		"wind_mph", r.WindSpeedMPH,
		"dir_deg", r.WindDirDeg,
		"temp_c", r.TemperatureC,
		"messages", len(msgs),
	)

	for i, m := range msgs {
		if err := emitter.Emit(m); err != nil {
			slog.Error("midi emit", "controller", m.Controller, "value", m.Value, "error", err)
		}
		if interval <= 0 || i == len(msgs)-1 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func openEmitter(cfg config.Config) (midi.Emitter, error) {
	if cfg.MIDIPort == "" {
		slog.Warn("no MIDI_PORT configured, running in dry-run mode")
		return midi.NewLogEmitter(slog.Default()), nil
	}
	port, err := midi.OpenPort(cfg.MIDIPort)
	if err != nil {
		return nil, err
	}
	slog.Info("midi port open", "port", port.Name())
	return port, nil
}

// guardedPipeline serializes pipeline access between the ingest loop and
// the HTTP handlers. The pipeline itself is a single-writer object.
type guardedPipeline struct {
	mu sync.Mutex
	p  *pipeline.Pipeline
}

func (g *guardedPipeline) ProcessOne(r wx.Reading) []pipeline.CC {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.p.ProcessOne(r)
}

func (g *guardedPipeline) Snapshot() pipeline.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.p.Snapshot()
}

func (g *guardedPipeline) SetProfile(p pipeline.Profile) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.p.SetProfile(p)
}
