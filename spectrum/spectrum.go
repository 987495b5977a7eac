// Package spectrum measures the frequency content of synthesized audio.
package spectrum

import (
	"fmt"
	"math"
)

// Magnitudes windows up to points samples (zero padded when fewer are
// given) and returns the magnitude of bins 0..points/2.
func Magnitudes(samples []int16, points int, window WindowFunction) ([]float64, error) {
	if !IsPowerOfTwo(points) {
		return nil, fmt.Errorf("points must be a power of two, got %d", points)
	}
	if window == nil {
		window = VonHannWindow
	}

	n := len(samples)
	if n > points {
		n = points
	}

	w := window(points)
	data := make([]float64, points)
	for i := 0; i < n; i++ {
		data[i] = float64(samples[i]) * w[i]
	}

	RealFFT(data, Time2Freq)

	half := points / 2
	mags := make([]float64, half+1)
	mags[0] = math.Abs(data[0])
	mags[half] = math.Abs(data[1])
	for k := 1; k < half; k++ {
		mags[k] = math.Hypot(data[2*k], data[2*k+1])
	}

	return mags, nil
}

// Average is the mean magnitude spectrum of consecutive points sized
// blocks of samples, hopping by half a block.
func Average(samples []int16, points int, window WindowFunction) ([]float64, error) {
	if len(samples) <= points {
		return Magnitudes(samples, points, window)
	}

	var sum []float64
	blocks := 0
	for start := 0; start+points <= len(samples); start += points / 2 {
		mags, err := Magnitudes(samples[start:start+points], points, window)
		if err != nil {
			return nil, err
		}
		if sum == nil {
			sum = mags
		} else {
			for i := range sum {
				sum[i] += mags[i]
			}
		}
		blocks++
	}

	for i := range sum {
		sum[i] /= float64(blocks)
	}
	return sum, nil
}

// BandFrequency is the centre frequency of bin in a spectrum of bins
// magnitudes.
func BandFrequency(bin, bins, sampleRate int) float64 {
	if bins < 2 {
		return 0
	}
	return float64(bin) * float64(sampleRate) / float64(2*(bins-1))
}

// PeakFrequency returns the frequency of the loudest bin between lo and hi
// Hz inclusive, or 0 when no bin falls in range.
func PeakFrequency(mags []float64, sampleRate int, lo, hi float64) float64 {
	best := -1
	for i, m := range mags {
		f := BandFrequency(i, len(mags), sampleRate)
		if f < lo || f > hi {
			continue
		}
		if best < 0 || m > mags[best] {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return BandFrequency(best, len(mags), sampleRate)
}

// Decibels converts magnitudes to dB relative to the loudest bin, floored
// at floor.
func Decibels(mags []float64, floor float64) []float64 {
	peak := 0.0
	for _, m := range mags {
		peak = math.Max(peak, m)
	}

	out := make([]float64, len(mags))
	for i, m := range mags {
		if peak == 0 || m == 0 {
			out[i] = floor
			continue
		}
		out[i] = math.Max(20*math.Log10(m/peak), floor)
	}
	return out
}
