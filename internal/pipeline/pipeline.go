package pipeline

import (
	"fmt"
	"time"

	"github.com/newcubes/Living-Synthesizer/internal/wx"
)

// Config carries the pipeline's fixed parameters. The profile can change at
// runtime; everything else is set per run.
type Config struct {
	Profile     Profile
	Bank        CCBank
	MIDIChannel uint8
	// MaxWindMPH is the domain ceiling for wind-speed normalization:
	// readings at or above it map to 1.0.
	MaxWindMPH float64
}

// Pipeline owns the per-channel buffers, the interpolators and the mapper,
// and turns one reading into the CC messages for one cycle. It is a
// single-writer object: the host must serialize calls (one queue feeding
// one consumer).
type Pipeline struct {
	profile    Profile
	maxWind    float64
	speed      *smoother
	direction  *smoother
	temp       *smoother
	humidity   *smoother
	speedWalk  *Interpolator
	dirWalk    *Interpolator
	tempWalk   *Interpolator
	mapper     *Mapper
	lastTS     time.Time
	hasTS      bool
	prevSpeed  float64 // previous stabilized wind speed, normalized
	prevDir    float64
	prevTemp   float64
	primed     bool
	lastValues map[Channel]Stabilized
}

// New validates the configuration and builds an idle pipeline.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	if cfg.MaxWindMPH <= 0 {
		return nil, fmt.Errorf("invalid max wind ceiling %g (must be > 0)", cfg.MaxWindMPH)
	}
	if cfg.MIDIChannel > 15 {
		return nil, fmt.Errorf("invalid midi channel %d (must be 0-15)", cfg.MIDIChannel)
	}
	a := cfg.Profile.Algorithm
	return &Pipeline{
		profile:    cfg.Profile,
		maxWind:    cfg.MaxWindMPH,
		speed:      newSmoother(ChannelWindSpeed),
		direction:  newSmoother(ChannelWindDirection),
		temp:       newSmoother(ChannelTemperature),
		humidity:   newSmoother(ChannelHumidity),
		speedWalk:  NewInterpolator(a),
		dirWalk:    NewInterpolator(a),
		tempWalk:   NewInterpolator(a),
		mapper:     NewMapper(cfg.Bank, cfg.MIDIChannel),
		lastValues: make(map[Channel]Stabilized),
	}, nil
}

// SetProfile switches the active profile. Validation fails fast without
// touching the running buffers; on success buffers are resized (growing
// pads with the oldest sample, shrinking keeps the newest) and the change
// applies from the next ingestion cycle. Past stabilized values are never
// recomputed.
func (p *Pipeline) SetProfile(profile Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	p.profile = profile
	for _, s := range []*smoother{p.speed, p.direction, p.temp, p.humidity} {
		s.resize(profile.BufferSize)
	}
	for _, it := range []*Interpolator{p.speedWalk, p.dirWalk, p.tempWalk} {
		it.SetAlgorithm(profile.Algorithm)
	}
	return nil
}

// Profile returns the active profile.
func (p *Pipeline) Profile() Profile { return p.profile }

// ProcessOne runs one full pass: ingest, stabilize, interpolate, map. It
// returns the quantized CC messages for this cycle, already deduplicated
// per controller. Readings repeating the previous timestamp are dropped;
// out-of-order readings are processed in arrival order.
func (p *Pipeline) ProcessOne(r wx.Reading) []CC {
	if p.hasTS && r.Timestamp.Equal(p.lastTS) {
		return nil
	}
	p.lastTS = r.Timestamp
	p.hasTS = true

	r = r.Sanitize()

	speedVal := p.speed.ingest(r.WindSpeedMPH, p.profile)
	dirVal := p.direction.ingest(r.WindDirDeg, p.profile)
	tempVal := p.temp.ingest(r.TemperatureC, p.profile)
	humVal := p.humidity.ingest(r.HumidityPct, p.profile)

	speedNorm := clamp01(speedVal / p.maxWind)

	p.lastValues[ChannelWindSpeed] = Stabilized{Channel: ChannelWindSpeed, Value: speedVal, Normalized: speedNorm}
	p.lastValues[ChannelWindDirection] = Stabilized{Channel: ChannelWindDirection, Value: dirVal}
	p.lastValues[ChannelTemperature] = Stabilized{Channel: ChannelTemperature, Value: tempVal}
	p.lastValues[ChannelHumidity] = Stabilized{Channel: ChannelHumidity, Value: humVal}

	if !p.primed {
		// Cold start: no previous value to walk from.
		p.prevSpeed, p.prevDir, p.prevTemp = speedNorm, dirVal, tempVal
		p.primed = true
	}

	steps := p.profile.InterpolationSteps
	p.speedWalk.Restart(p.prevSpeed, speedNorm, steps)
	p.dirWalk.Restart(p.prevDir, dirVal, steps)
	p.tempWalk.Restart(p.prevTemp, tempVal, steps)

	var out []CC
	for {
		sv, ok := p.speedWalk.Next()
		if !ok {
			break
		}
		dv, _ := p.dirWalk.Next()
		tv, _ := p.tempWalk.Next()
		out = append(out, p.mapper.Map(sv, dv, tv)...)
	}

	p.prevSpeed, p.prevDir, p.prevTemp = speedNorm, dirVal, tempVal
	return out
}

// Snapshot is a point-in-time view of the pipeline for the status API.
type Snapshot struct {
	Profile       Profile         `json:"profile"`
	LastReadingAt time.Time       `json:"last_reading_at"`
	BufferFill    int             `json:"buffer_fill"`
	Stabilized    []Stabilized    `json:"stabilized"`
	LastSent      map[uint8]uint8 `json:"last_sent"`
}

// Snapshot reports the active profile, buffer fill and latest stabilized
// values. Like every other method it must be serialized with ProcessOne by
// the caller.
func (p *Pipeline) Snapshot() Snapshot {
	vals := make([]Stabilized, 0, len(p.lastValues))
	for _, ch := range []Channel{ChannelWindSpeed, ChannelWindDirection, ChannelTemperature, ChannelHumidity} {
		if v, ok := p.lastValues[ch]; ok {
			vals = append(vals, v)
		}
	}
	return Snapshot{
		Profile:       p.profile,
		LastReadingAt: p.lastTS,
		BufferFill:    p.speed.fill(),
		Stabilized:    vals,
		LastSent:      p.mapper.Last(),
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
