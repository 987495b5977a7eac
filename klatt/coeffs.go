package klatt

import (
	"math"
)

// ampTable maps whole decibels 0..87 to linear gain (times 1000). It is the
// amplitude table of the hardware synthesizer and is reproduced exactly;
// it is not 10^(dB/20).
var ampTable = [88]float64{
	0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
	0.0, 0.0, 0.0, 6.0, 7.0, 8.0, 9.0, 10.0, 11.0, 13.0,
	14.0, 16.0, 18.0, 20.0, 22.0, 25.0, 28.0, 32.0, 35.0, 40.0,
	45.0, 51.0, 57.0, 64.0, 71.0, 80.0, 90.0, 101.0, 114.0, 128.0,
	142.0, 159.0, 179.0, 202.0, 227.0, 256.0, 284.0, 318.0, 359.0, 405.0,
	455.0, 512.0, 568.0, 638.0, 719.0, 811.0, 911.0, 1024.0, 1137.0, 1276.0,
	1437.0, 1613.0, 1795.0, 2029.0, 2278.0, 2560.0, 2844.0, 3180.0, 3590.0, 4050.0,
	4550.0, 5120.0, 5680.0, 6380.0, 7190.0, 8110.0, 9110.0, 10240.0, 11370.0, 12760.0,
	14370.0, 16130.0, 17950.0, 20290.0, 22780.0, 25600.0, 28440.0, 31800.0,
}

// DbToLinear converts a level in dB to linear gain using the amplitude
// table. Anything <= 0 dB (and NaN) is silence, anything past the end of
// the table saturates at the last entry.
func DbToLinear(db float64) float64 {
	if !(db > 0) {
		return 0
	}
	idx := len(ampTable) - 1
	if db < float64(idx) {
		idx = int(db)
	}
	return ampTable[idx] * 0.001
}

// ResonatorCoeffs computes the a, b, c coefficients of a two pole resonator
// centred on freq with the given bandwidth.
//
// A resonator that would alias (2*freq - bandwidth > sampleRate) becomes a
// passthrough stage in the cascade and a muted stage in the parallel branch.
// When only the upper skirt crosses Nyquist the resonance is pulled down so
// that it fits, keeping the lower skirt where it was.
func ResonatorCoeffs(sampleRate int, freq, bandwidth float64, cascade bool) (a, b, c float64) {
	sr := float64(sampleRate)

	if !(2*freq-bandwidth <= sr) {
		if cascade {
			return 1, 0, 0
		}
		return 0, 0, 0
	}

	if 2*(freq+bandwidth) > sr {
		low := freq - bandwidth
		freq = (sr/2 + low) / 2
		bandwidth = freq - low
	}

	r := math.Exp(-math.Pi * bandwidth / sr)
	c = -(r * r)
	b = 2 * r * math.Cos(2*math.Pi*freq/sr)
	a = 1 - b - c

	return a, b, c
}

// AntiresonatorCoeffs computes the coefficients of a spectral zero at freq by
// inverting the matching cascade resonator.
func AntiresonatorCoeffs(sampleRate int, freq, bandwidth float64) (a, b, c float64) {
	a, b, c = ResonatorCoeffs(sampleRate, freq, bandwidth, true)

	if a == 0 {
		return 1, 0, 0
	}

	inv := 1 / a
	return inv, -b * inv, -c * inv
}
