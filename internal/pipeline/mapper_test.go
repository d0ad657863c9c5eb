package pipeline

import "testing"

func TestRateCC(t *testing.T) {
	tests := []struct {
		name string
		norm float64
		want uint8
	}{
		{name: "zero", norm: 0, want: 0},
		{name: "full", norm: 1, want: 127},
		{name: "above ceiling clamps", norm: 1.25, want: 127},
		{name: "negative clamps", norm: -0.5, want: 0},
		{name: "half rounds up", norm: 0.5, want: 64}, // 63.5 -> 64
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RateCC(tt.norm); got != tt.want {
				t.Errorf("RateCC(%g) = %d, want %d", tt.norm, got, tt.want)
			}
		})
	}
}

func TestDepthCC(t *testing.T) {
	tests := []struct {
		name  string
		tempC float64
		want  uint8
	}{
		{name: "freezing", tempC: 0, want: 0},
		{name: "twenty degrees", tempC: 20, want: 32}, // round(20/40*63) = 32
		{name: "top of domain", tempC: 40, want: 63},
		{name: "above domain clamps", tempC: 55, want: 63},
		{name: "below domain clamps", tempC: -12, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DepthCC(tt.tempC); got != tt.want {
				t.Errorf("DepthCC(%g) = %d, want %d", tt.tempC, got, tt.want)
			}
		})
	}
}

func TestWaveformFor(t *testing.T) {
	tests := []struct {
		name string
		deg  float64
		want Waveform
	}{
		{name: "north", deg: 0, want: WaveTriangle},
		{name: "just below east", deg: 89.9, want: WaveTriangle},
		{name: "east boundary", deg: 90, want: WaveSquare},
		{name: "south boundary", deg: 180, want: WaveExponential},
		{name: "west boundary", deg: 270, want: WaveRandom},
		{name: "just below wrap", deg: 359.9, want: WaveRandom},
		{name: "wrap at 360", deg: 360, want: WaveTriangle},
		{name: "negative wraps", deg: -90, want: WaveRandom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WaveformFor(tt.deg); got != tt.want {
				t.Errorf("WaveformFor(%g) = %s, want %s", tt.deg, got, tt.want)
			}
		})
	}
}

func TestMapper_EmitsAllControllersFirstCycle(t *testing.T) {
	m := NewMapper(LFO1, 0)

	got := m.Map(0.5, 45, 20)
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	wantControllers := []uint8{LFO1.Rate, LFO1.Waveform, LFO1.Depth}
	for i, cc := range got {
		if cc.Controller != wantControllers[i] {
			t.Errorf("message %d controller = %d, want %d", i, cc.Controller, wantControllers[i])
		}
		if cc.Value > 127 {
			t.Errorf("message %d value = %d, want <= 127", i, cc.Value)
		}
	}
}

func TestMapper_DeduplicatesUnchangedValues(t *testing.T) {
	m := NewMapper(LFO1, 0)

	first := m.Map(0.5, 45, 20)
	if len(first) != 3 {
		t.Fatalf("first cycle: got %d messages, want 3", len(first))
	}

	second := m.Map(0.5, 45, 20)
	if len(second) != 0 {
		t.Errorf("identical cycle: got %d messages, want 0", len(second))
	}

	// Only the rate changes.
	third := m.Map(0.9, 45, 20)
	if len(third) != 1 || third[0].Controller != LFO1.Rate {
		t.Errorf("rate-only change: got %v, want single rate message", third)
	}
}

func TestMapper_QuantizationAbsorbsTinyChanges(t *testing.T) {
	m := NewMapper(LFO1, 0)
	m.Map(0.5, 45, 20)

	// A change below half a CC step quantizes to the same value.
	got := m.Map(0.5005, 45, 20)
	if len(got) != 0 {
		t.Errorf("sub-quantum change: got %d messages, want 0", len(got))
	}
}

func TestMapper_UsesConfiguredBankAndChannel(t *testing.T) {
	m := NewMapper(LFO2, 9)

	got := m.Map(1, 0, 40)
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	if got[0].Controller != LFO2.Rate || got[0].Value != 127 {
		t.Errorf("rate message = %+v, want controller %d value 127", got[0], LFO2.Rate)
	}
	for i, cc := range got {
		if cc.Channel != 9 {
			t.Errorf("message %d channel = %d, want 9", i, cc.Channel)
		}
	}
}

func TestBankForLFO(t *testing.T) {
	if b, ok := BankForLFO(1); !ok || b != LFO1 {
		t.Errorf("BankForLFO(1) = %+v, %v", b, ok)
	}
	if b, ok := BankForLFO(2); !ok || b != LFO2 {
		t.Errorf("BankForLFO(2) = %+v, %v", b, ok)
	}
	if _, ok := BankForLFO(3); ok {
		t.Error("BankForLFO(3) = ok, want not ok")
	}
}
