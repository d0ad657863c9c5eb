package pipeline

import "math"

// Waveform values understood by the synthesizer's LFO waveform CC.
type Waveform uint8

const (
	WaveTriangle    Waveform = 0
	WaveSquare      Waveform = 2
	WaveExponential Waveform = 4
	WaveRandom      Waveform = 6
)

func (w Waveform) String() string {
	switch w {
	case WaveTriangle:
		return "triangle"
	case WaveSquare:
		return "square"
	case WaveExponential:
		return "exponential"
	case WaveRandom:
		return "random"
	}
	return "unknown"
}

// CC is a single MIDI control-change message. Value is always in [0,127].
type CC struct {
	Channel    uint8 `json:"channel"`
	Controller uint8 `json:"controller"`
	Value      uint8 `json:"value"`
}

// CCBank is the set of controller numbers driving one LFO.
type CCBank struct {
	Rate     uint8 `json:"rate"`
	Depth    uint8 `json:"depth"`
	Waveform uint8 `json:"waveform"`
}

// Controller numbers for the synthesizer's two LFOs.
var (
	LFO1 = CCBank{Rate: 28, Depth: 29, Waveform: 111}
	LFO2 = CCBank{Rate: 30, Depth: 31, Waveform: 117}
)

// BankForLFO returns the CC bank for LFO 1 or 2.
func BankForLFO(n int) (CCBank, bool) {
	switch n {
	case 1:
		return LFO1, true
	case 2:
		return LFO2, true
	}
	return CCBank{}, false
}

// Mapper converts stabilized environmental values into quantized CC
// messages. It suppresses messages whose value is unchanged from the last
// one emitted for that controller; redundant MIDI traffic confuses some
// synthesizers and wastes the wire.
type Mapper struct {
	bank    CCBank
	channel uint8
	last    map[uint8]uint8
}

func NewMapper(bank CCBank, midiChannel uint8) *Mapper {
	return &Mapper{bank: bank, channel: midiChannel, last: make(map[uint8]uint8)}
}

// Map quantizes one stabilized tuple into CC messages, in the order the
// synthesizer expects them: rate, waveform, depth. Controllers whose value
// did not change since the last emission are omitted.
func (m *Mapper) Map(speedNorm, dirDeg, tempC float64) []CC {
	var out []CC
	out = m.emit(out, m.bank.Rate, RateCC(speedNorm))
	out = m.emit(out, m.bank.Waveform, uint8(WaveformFor(dirDeg)))
	out = m.emit(out, m.bank.Depth, DepthCC(tempC))
	return out
}

// Last returns the most recently emitted value per controller.
func (m *Mapper) Last() map[uint8]uint8 {
	out := make(map[uint8]uint8, len(m.last))
	for k, v := range m.last {
		out[k] = v
	}
	return out
}

func (m *Mapper) emit(out []CC, controller, value uint8) []CC {
	if prev, ok := m.last[controller]; ok && prev == value {
		return out
	}
	m.last[controller] = value
	return append(out, CC{Channel: m.channel, Controller: controller, Value: value})
}

// RateCC maps a normalized wind speed in [0,1] to the LFO rate value.
func RateCC(norm float64) uint8 {
	if norm < 0 {
		norm = 0
	} else if norm > 1 {
		norm = 1
	}
	return roundHalfUp(norm*127, 127)
}

// DepthCC maps a temperature in the 0-40 Celsius domain to the LFO depth
// value. Out-of-domain temperatures clamp to the edges.
func DepthCC(tempC float64) uint8 {
	if tempC < 0 {
		tempC = 0
	} else if tempC > 40 {
		tempC = 40
	}
	return roundHalfUp(tempC/40*63, 127)
}

// WaveformFor quantizes a wind direction into the four quadrant waveforms.
// 360 wraps to 0.
func WaveformFor(dirDeg float64) Waveform {
	d := math.Mod(dirDeg, 360)
	if d < 0 {
		d += 360
	}
	switch {
	case d < 90:
		return WaveTriangle
	case d < 180:
		return WaveSquare
	case d < 270:
		return WaveExponential
	default:
		return WaveRandom
	}
}

// roundHalfUp rounds to the nearest integer with .5 going up, clamped to
// [0,max].
func roundHalfUp(x float64, max uint8) uint8 {
	v := math.Floor(x + 0.5)
	if v < 0 {
		return 0
	}
	if v > float64(max) {
		return max
	}
	return uint8(v)
}
