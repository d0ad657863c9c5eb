package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/newcubes/Living-Synthesizer/internal/pipeline"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	MQTTBroker   string
	MQTTPort     int
	MQTTTopic    string
	MQTTClientID string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration

	// MIDIPort is a substring of the output port name; empty means dry-run
	// (messages are logged, not sent).
	MIDIPort    string
	MIDIChannel int
	LFO         int

	ProfileName  string
	Algorithm    pipeline.Algorithm
	MaxWindMPH   float64
	EmitInterval time.Duration
}

func LoadFromEnv() (Config, error) {
	appEnv := envOr("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	mqttPort, err := envInt("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}

	midiChannel, err := envInt("MIDI_CHANNEL", 0)
	if err != nil {
		return Config{}, err
	}
	if midiChannel < 0 || midiChannel > 15 {
		return Config{}, fmt.Errorf("invalid MIDI_CHANNEL %d (must be 0-15)", midiChannel)
	}

	lfo, err := envInt("LFO", 1)
	if err != nil {
		return Config{}, err
	}
	if lfo != 1 && lfo != 2 {
		return Config{}, fmt.Errorf("invalid LFO %d (must be 1 or 2)", lfo)
	}

	profileName := envOr("PROFILE", "balanced")
	if _, err := pipeline.NamedProfile(profileName); err != nil {
		return Config{}, fmt.Errorf("invalid PROFILE: %w", err)
	}

	algorithm, err := pipeline.ParseAlgorithm(envOr("ALGORITHM", "linear"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ALGORITHM: %w", err)
	}

	maxWind, err := envFloat("MAX_WIND_MPH", 20)
	if err != nil {
		return Config{}, err
	}
	if maxWind <= 0 {
		return Config{}, fmt.Errorf("invalid MAX_WIND_MPH %g (must be > 0)", maxWind)
	}

	emitInterval, err := envDuration("EMIT_INTERVAL", 16*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	if emitInterval < 0 {
		return Config{}, fmt.Errorf("invalid EMIT_INTERVAL %s (must be >= 0)", emitInterval)
	}

	return Config{
		AppEnv:   appEnv,
		LogLevel: level,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		MQTTBroker:   envOr("MQTT_BROKER", "localhost"),
		MQTTPort:     mqttPort,
		MQTTTopic:    envOr("MQTT_TOPIC", "stations/+/weather"),
		MQTTClientID: envOr("MQTT_CLIENT_ID", "windsynth"),

		SQLiteDriver:          envOr("DB_DRIVER", "sqlite3"),
		SQLiteDSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		SQLitePath:            envOr("SQLITE_PATH", "dev/sqlite/windsynth.db"),
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,

		MIDIPort:    strings.TrimSpace(os.Getenv("MIDI_PORT")),
		MIDIChannel: midiChannel,
		LFO:         lfo,

		ProfileName:  profileName,
		Algorithm:    algorithm,
		MaxWindMPH:   maxWind,
		EmitInterval: emitInterval,
	}, nil
}

// Profile resolves the configured named profile with the configured
// algorithm applied.
func (c Config) Profile() (pipeline.Profile, error) {
	p, err := pipeline.NamedProfile(c.ProfileName)
	if err != nil {
		return pipeline.Profile{}, err
	}
	p.Algorithm = c.Algorithm
	return p, nil
}

func envOr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return f, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
