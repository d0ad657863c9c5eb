package pipeline

import "fmt"

// Algorithm selects both the smoothing computation and the matching easing
// curve used during interpolation, so perceived motion follows the chosen
// musical character.
type Algorithm string

const (
	AlgorithmLinear      Algorithm = "linear"
	AlgorithmExponential Algorithm = "exponential"
	AlgorithmGaussian    Algorithm = "gaussian"
)

// ParseAlgorithm maps a config string to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmLinear, AlgorithmExponential, AlgorithmGaussian:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("invalid algorithm %q (allowed: linear, exponential, gaussian)", s)
	}
}

// Profile bundles the smoothing parameters tuned for a musical use case.
// It is an immutable value; the pipeline copies it on SetProfile.
type Profile struct {
	Name               string    `json:"name"`
	BufferSize         int       `json:"buffer_size"`
	ResponseSpeed      float64   `json:"response_speed"`
	InterpolationSteps int       `json:"interpolation_steps"`
	Algorithm          Algorithm `json:"algorithm"`
}

// Validate fails fast on out-of-bounds parameters, before the profile can
// touch a running buffer.
func (p Profile) Validate() error {
	if p.BufferSize < 1 {
		return fmt.Errorf("invalid buffer_size %d (must be >= 1)", p.BufferSize)
	}
	if p.ResponseSpeed <= 0 || p.ResponseSpeed > 1 {
		return fmt.Errorf("invalid response_speed %g (must be in (0,1])", p.ResponseSpeed)
	}
	if p.InterpolationSteps < 1 {
		return fmt.Errorf("invalid interpolation_steps %d (must be >= 1)", p.InterpolationSteps)
	}
	if _, err := ParseAlgorithm(string(p.Algorithm)); err != nil {
		return err
	}
	return nil
}

// namedProfiles are the built-in smoothing presets, ordered from most
// reactive to most glacial.
var namedProfiles = map[string]Profile{
	"responsive": {Name: "responsive", BufferSize: 3, ResponseSpeed: 0.8, InterpolationSteps: 50, Algorithm: AlgorithmLinear},
	"balanced":   {Name: "balanced", BufferSize: 8, ResponseSpeed: 0.5, InterpolationSteps: 100, Algorithm: AlgorithmLinear},
	"smooth":     {Name: "smooth", BufferSize: 15, ResponseSpeed: 0.3, InterpolationSteps: 200, Algorithm: AlgorithmLinear},
	"ambient":    {Name: "ambient", BufferSize: 20, ResponseSpeed: 0.2, InterpolationSteps: 300, Algorithm: AlgorithmLinear},
}

// NamedProfile returns a built-in profile by name.
func NamedProfile(name string) (Profile, error) {
	p, ok := namedProfiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (allowed: responsive, balanced, smooth, ambient)", name)
	}
	return p, nil
}

// ProfileNames lists the built-in profile names.
func ProfileNames() []string {
	return []string{"responsive", "balanced", "smooth", "ambient"}
}
