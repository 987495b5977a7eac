package klatt

import (
	"fmt"
	"strings"
)

// Param indexes one channel of a synthesis parameter vector.
type Param int

// Parameter channels, in frame vector order.
const (
	Fn    Param = iota // nasal zero frequency
	F1                 // first formant frequency
	F2                 // second formant frequency
	F3                 // third formant frequency
	B1                 // first formant bandwidth
	B2                 // second formant bandwidth
	B3                 // third formant bandwidth
	An                 // parallel nasal pole amplitude (dB)
	A1                 // parallel F1 amplitude (dB)
	A2                 // parallel F2 frication amplitude (dB)
	A3                 // parallel F3 frication amplitude (dB)
	A4                 // parallel F4 frication amplitude (dB)
	A5                 // parallel F5 frication amplitude (dB)
	A6                 // parallel F6 frication amplitude (dB)
	Ab                 // bypass frication amplitude (dB)
	Av                 // voicing amplitude (dB)
	Avc                // voice-bar amplitude (dB)
	Asp                // aspiration amplitude (dB)
	Af                 // frication amplitude (dB)
	Kopen              // open phase length, quarter samples
	Tlt                // spectral tilt (dB)
	Aturb              // breathiness (dB)
	Kskew              // skew of the noise modulation point
	B1p                // parallel F1 bandwidth

	ParamCount = 24
)

// Params is one frame's worth of synthesis parameters.
type Params [ParamCount]float64

var paramNames = [ParamCount]string{
	"fn", "f1", "f2", "f3", "b1", "b2", "b3", "an", "a1",
	"a2", "a3", "a4", "a5", "a6", "ab", "av", "avc", "asp", "af",
	"kopen", "tlt", "aturb", "kskew", "b1p",
}

func (p Param) String() string {
	if p < 0 || int(p) >= ParamCount {
		return fmt.Sprintf("Param(%d)", int(p))
	}
	return paramNames[p]
}

// ParamNames returns the channel names in vector order.
func ParamNames() []string {
	names := make([]string, ParamCount)
	copy(names, paramNames[:])
	return names
}

// ParseParam looks a channel up by its (case insensitive) name.
func ParseParam(name string) (Param, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, n := range paramNames {
		if n == lower {
			return Param(i), nil
		}
	}
	return 0, fmt.Errorf("unknown synthesis parameter %q, valid options are: %s", name, strings.Join(paramNames[:], ", "))
}

// Voiced reports whether the frame carries any voicing energy.
func (p *Params) Voiced() bool {
	return p[Av] > 0 || p[Avc] > 0
}

// Silent reports whether the frame has no noise excitation at all: frication,
// aspiration, bypass and the F2..F6 parallel amplitudes are all <= 0.
func (p *Params) Silent() bool {
	return p[Af] <= 0 &&
		p[Asp] <= 0 &&
		p[Ab] <= 0 &&
		p[A2] <= 0 &&
		p[A3] <= 0 &&
		p[A4] <= 0 &&
		p[A5] <= 0 &&
		p[A6] <= 0
}
