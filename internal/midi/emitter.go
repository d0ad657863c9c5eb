// Package midi is the transport boundary: it accepts quantized CC messages
// from the pipeline and delivers them to a MIDI output port. Delivery
// failures are surfaced to the caller and never retried here.
package midi

import (
	"fmt"
	"log/slog"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/newcubes/Living-Synthesizer/internal/pipeline"
)

// Emitter sends one CC message to the synthesizer.
type Emitter interface {
	Emit(msg pipeline.CC) error
	Close() error
}

// PortEmitter writes CC messages to a real MIDI output port.
type PortEmitter struct {
	name string
	send func(gomidi.Message) error
}

// OpenPort resolves a MIDI output by case-insensitive substring match on
// the port name (so "digitone" finds "Elektron Digitone MIDI 1").
func OpenPort(name string) (*PortEmitter, error) {
	out, err := gomidi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("find midi out %q: %w", name, err)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open midi out %q: %w", out.String(), err)
	}
	return &PortEmitter{name: out.String(), send: send}, nil
}

// Name returns the resolved port name.
func (e *PortEmitter) Name() string { return e.name }

func (e *PortEmitter) Emit(msg pipeline.CC) error {
	if err := e.send(gomidi.ControlChange(msg.Channel, msg.Controller, msg.Value)); err != nil {
		return fmt.Errorf("send cc %d=%d: %w", msg.Controller, msg.Value, err)
	}
	return nil
}

func (e *PortEmitter) Close() error {
	gomidi.CloseDriver()
	return nil
}

// LogEmitter logs messages instead of sending them. Used as the dry-run
// transport when no MIDI port is configured.
type LogEmitter struct {
	logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(msg pipeline.CC) error {
	e.logger.Debug("midi cc",
		"channel", msg.Channel,
		"controller", msg.Controller,
		"value", msg.Value,
	)
	return nil
}

func (e *LogEmitter) Close() error { return nil }
