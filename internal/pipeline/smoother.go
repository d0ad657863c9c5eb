package pipeline

import "math"

// Channel identifies one environmental signal tracked by the pipeline.
type Channel string

const (
	ChannelWindSpeed     Channel = "wind_speed"
	ChannelWindDirection Channel = "wind_direction"
	ChannelTemperature   Channel = "temperature"
	ChannelHumidity      Channel = "humidity"
)

// Stabilized is the smoothed, buffer-derived representation of a noisy raw
// reading. Normalized is only meaningful for channels with a fixed domain
// ceiling (wind speed); other channels carry 0.
type Stabilized struct {
	Channel    Channel `json:"channel"`
	Value      float64 `json:"value"`
	Normalized float64 `json:"normalized"`
}

// smoother keeps a bounded FIFO of the most recent raw values for one
// channel and derives a stabilized value per the active profile. It never
// touches any other channel's state.
type smoother struct {
	channel Channel
	buf     []float64 // oldest first
	prev    float64   // previous stabilized value, for the EMA
	primed  bool
}

func newSmoother(ch Channel) *smoother {
	return &smoother{channel: ch}
}

// ingest appends raw to the buffer, evicting the oldest value on overflow,
// and returns the stabilized value under the given profile. A partially
// filled buffer computes over whatever is available.
func (s *smoother) ingest(raw float64, p Profile) float64 {
	s.buf = append(s.buf, raw)
	if n := len(s.buf) - p.BufferSize; n > 0 {
		s.buf = append(s.buf[:0], s.buf[n:]...)
	}

	var v float64
	switch p.Algorithm {
	case AlgorithmExponential:
		if !s.primed {
			v = raw
		} else {
			v = p.ResponseSpeed*raw + (1-p.ResponseSpeed)*s.prev
		}
	case AlgorithmGaussian:
		v = gaussianAverage(s.buf)
	default:
		v = mean(s.buf)
	}

	s.prev = v
	s.primed = true
	return v
}

// resize adjusts the buffer for a profile change without discarding history
// abruptly: growing pads with the oldest available sample, shrinking keeps
// the newest size samples.
func (s *smoother) resize(size int) {
	n := len(s.buf)
	switch {
	case n == 0 || n == size:
	case n > size:
		s.buf = append(s.buf[:0], s.buf[n-size:]...)
	default:
		padded := make([]float64, 0, size)
		for i := 0; i < size-n; i++ {
			padded = append(padded, s.buf[0])
		}
		s.buf = append(padded, s.buf...)
	}
}

func (s *smoother) fill() int { return len(s.buf) }

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// gaussianAverage weights the buffer with a kernel centered on the newest
// sample. Width scales with the buffer, floored so tiny buffers do not
// collapse onto a single sample.
func gaussianAverage(xs []float64) float64 {
	n := len(xs)
	if n == 1 {
		return xs[0]
	}
	sigma := float64(n) / 4
	if sigma < 1 {
		sigma = 1
	}
	var sum, wsum float64
	for i, x := range xs {
		d := float64(i-(n-1)) / sigma
		w := math.Exp(-0.5 * d * d)
		sum += w * x
		wsum += w
	}
	return sum / wsum
}
