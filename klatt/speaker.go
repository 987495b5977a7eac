package klatt

import (
	"fmt"
)

// Speaker holds the voice characteristics that stay fixed for an utterance:
// the upper formants, the nasal pole, the overall gain and per-speaker
// adjustments applied to the phoneme-driven F1..F3.
type Speaker struct {
	F0Hz  float64 // fallback fundamental frequency
	Gain0 float64 // overall gain in dB

	F4Hz  float64
	B4Hz  float64
	F5Hz  float64
	B5Hz  float64
	F6Hz  float64
	B6Hz  float64
	FNPHz float64 // nasal pole frequency
	BNHz  float64 // nasal pole and zero bandwidth

	B4pHz float64 // parallel branch bandwidths
	B5pHz float64
	B6pHz float64
	B1pHz float64

	F1Offset float64
	F1Scale  float64
	F2Offset float64
	F2Scale  float64
	F3Offset float64
	F3Scale  float64
}

// DefaultSpeaker returns the stock adult voice.
func DefaultSpeaker() Speaker {
	return Speaker{
		F0Hz:  120,
		Gain0: 57,
		F4Hz:  3900,
		B4Hz:  400,
		F5Hz:  4700,
		B5Hz:  150,
		F6Hz:  4900,
		B6Hz:  150,
		FNPHz: 270,
		BNHz:  500,
		B4pHz: 500,
		B5pHz: 600,
		B6pHz: 800,
		B1pHz: 80,

		F1Scale: 1,
		F2Scale: 1,
		F3Scale: 1,
	}
}

// Safe ranges for the phoneme-driven formants after speaker adjustment.
const (
	f1MinHz = 200
	f1MaxHz = 1000
	f2MinHz = 700
	f2MaxHz = 2500
	f3MinHz = 1500
	f3MaxHz = 3500
)

func clampHz(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (spk *Speaker) f1(p *Params) float64 {
	return clampHz(p[F1]*spk.F1Scale+spk.F1Offset, f1MinHz, f1MaxHz)
}

func (spk *Speaker) f2(p *Params) float64 {
	return clampHz(p[F2]*spk.F2Scale+spk.F2Offset, f2MinHz, f2MaxHz)
}

func (spk *Speaker) f3(p *Params) float64 {
	return clampHz(p[F3]*spk.F3Scale+spk.F3Offset, f3MinHz, f3MaxHz)
}

func (spk *Speaker) validate() error {
	if !(spk.F0Hz > 0) {
		return fmt.Errorf("speaker F0 must be positive, got %f", spk.F0Hz)
	}

	for name, v := range map[string]float64{
		"F4": spk.F4Hz, "B4": spk.B4Hz, "F5": spk.F5Hz, "B5": spk.B5Hz,
		"F6": spk.F6Hz, "B6": spk.B6Hz, "FNP": spk.FNPHz, "BN": spk.BNHz,
		"B4p": spk.B4pHz, "B5p": spk.B5pHz, "B6p": spk.B6pHz, "B1p": spk.B1pHz,
	} {
		if v < 0 {
			return fmt.Errorf("speaker %s cannot be negative, got %f", name, v)
		}
	}

	return nil
}
