package klatt

import (
	"fmt"
	"math"
	"strings"
)

// VoiceSource selects the glottal excitation waveform.
type VoiceSource int

const (
	Impulsive VoiceSource = 1 // analytic polynomial pulse
	Natural   VoiceSource = 2 // sampled natural glottal wave
	Soft      VoiceSource = 3 // raised cosine (Rosenberg) pulse
	Custom    VoiceSource = 4 // caller supplied waveform
)

var voiceSourceNames = map[VoiceSource]string{
	Impulsive: "impulsive",
	Natural:   "natural",
	Soft:      "soft",
	Custom:    "custom",
}

func (v VoiceSource) String() string {
	if name, ok := voiceSourceNames[v]; ok {
		return name
	}
	return fmt.Sprintf("VoiceSource(%d)", int(v))
}

// ParseVoiceSource accepts a source by name.
func ParseVoiceSource(name string) (VoiceSource, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for v, n := range voiceSourceNames {
		if n == lower {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown voice source %q, valid options are: impulsive, natural, soft, custom", name)
}

// naturalSamples is one period of a natural glottal waveform.
var naturalSamples = []float64{
	-310, -400, 530, 356, 224, 89, 23, -10, -58, -16, 461, 599, 536, 701, 770,
	605, 497, 461, 560, 404, 110, 224, 131, 104, -97, 155, 278, -154, -1165,
	-598, 737, 125, -592, 41, 11, -247, -10, 65, 92, 80, -304, 71, 167, -1, 122,
	233, 161, -43, 278, 479, 485, 407, 266, 650, 134, 80, 236, 68, 260, 269, 179,
	53, 140, 275, 293, 296, 104, 257, 152, 311, 182, 263, 245, 125, 314, 140, 44,
	203, 230, -235, -286, 23, 107, 92, -91, 38, 464, 443, 176, 98, -784, -2449,
	-1891, -1045, -1600, -1462, -1384, -1261, -949, -730,
}

// SourcePeak is the peak amplitude the table sources are normalised to.
const SourcePeak = 1400

const softPulseLength = 80

var softSamples = softPulse(softPulseLength)

// softPulse builds a raised cosine glottal pulse: a 60% opening phase, a
// closing phase and a short negative tail, scaled to SourcePeak.
func softPulse(n int) []float64 {
	open := int(0.6 * float64(n))
	closing := n - open - 5
	tail := n - open - closing

	out := make([]float64, 0, n)
	for i := 0; i < open; i++ {
		out = append(out, 0.5*(1-math.Cos(math.Pi*float64(i)/float64(open))))
	}
	for i := 0; i < closing; i++ {
		out = append(out, 0.5*(1+math.Cos(math.Pi*float64(i)/float64(closing))))
	}
	tailDiv := float64(tail - 1)
	if tailDiv < 1 {
		tailDiv = 1
	}
	for i := 0; i < tail; i++ {
		out = append(out, -0.1*math.Sin(math.Pi*float64(i)/tailDiv))
	}

	return NormalizeWaveform(out, SourcePeak)
}

// NormalizeWaveform returns a copy of samples scaled so the largest absolute
// value equals peak. An all-zero waveform is returned unscaled.
func NormalizeWaveform(samples []float64, peak float64) []float64 {
	max := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > max {
			max = a
		}
	}

	out := make([]float64, len(samples))
	if max == 0 {
		copy(out, samples)
		return out
	}

	scale := peak / max
	for i, s := range samples {
		out[i] = s * scale
	}
	return out
}

// NaturalWaveform returns a copy of the natural glottal table.
func NaturalWaveform() []float64 {
	out := make([]float64, len(naturalSamples))
	copy(out, naturalSamples)
	return out
}

// SoftWaveform returns a copy of the soft pulse table.
func SoftWaveform() []float64 {
	out := make([]float64, len(softSamples))
	copy(out, softSamples)
	return out
}

// sourceTable picks the table used for a table driven source, nil for the
// impulsive source. Custom without a waveform uses the natural table.
func sourceTable(src VoiceSource, custom []float64) []float64 {
	switch src {
	case Impulsive:
		return nil
	case Soft:
		return softSamples
	case Custom:
		if len(custom) > 0 {
			return custom
		}
		return naturalSamples
	default:
		return naturalSamples
	}
}

// tableSample reads the table at fractional position pos, interpolating
// linearly between neighbours. The last entry is held and anything past the
// end reads as zero.
func tableSample(table []float64, pos float64) float64 {
	n := len(table)
	idx := int(pos)
	frac := pos - float64(idx)

	switch {
	case idx < n-1:
		return table[idx]*(1-frac) + table[idx+1]*frac
	case idx < n:
		return table[idx]
	default:
		return 0
	}
}

// impulsiveSample evaluates the polynomial pulse at alpha in [0, 1) of the
// period.
func impulsiveSample(alpha float64) float64 {
	if alpha <= 1.0/3.0 {
		return 3 * 4096 * alpha
	}
	return 4096 * ((9*alpha-12)*alpha + 3)
}
