package spectrum

import (
	"math"
)

// Direction selects a forward or inverse transform.
type Direction int

const (
	Time2Freq Direction = iota
	Freq2Time
)

var omegaPiImag = make([]float64, 31)
var omegaPiReal = make([]float64, 31)

func init() {
	var n uint32 = 2

	for i := 0; i < 31; i++ {
		fn := float64(n)
		omegaPiImag[i] = math.Sin(2 * math.Pi / fn)
		omegaPiReal[i] = -2 * math.Sin(math.Pi/fn) * math.Sin(math.Pi/fn)

		n <<= 1
	}
}

// IsPowerOfTwo reports whether n can be used as a transform size.
func IsPowerOfTwo(n int) bool {
	return n >= 2 && n&(n-1) == 0
}

// bitReverse reorders interleaved (re, im) pairs into bit reversed order
// in place. It swaps pairs, not single values:
//
//	[0, 1, 2, 3, 4, 5, 6, 7]  values
//	 ----  ----  ----  ----
//	  0     1     2     3     pair indexes that get reversed
func bitReverse(data []float64) {
	var m int

	for i, j := 0, 0; i < len(data); i, j = i+2, j+m {
		if j > i {
			data[i], data[j] = data[j], data[i]
			data[i+1], data[j+1] = data[j+1], data[i+1]
		}

		for m = len(data) / 2; m >= 2 && j >= m; m /= 2 {
			j -= m
		}
	}
}

// FFT is an in place complex transform over interleaved (re, im) pairs.
// len(data) must be a power of two. The inverse is scaled by 2/len(data).
func FFT(data []float64, dir Direction) {
	bitReverse(data)

	n := len(data)

	var twoMMax int
	k := 0
	for mMax := 2; mMax < n; mMax = twoMMax {
		twoMMax = mMax * 2
		wpr := omegaPiReal[k]
		wpi := omegaPiImag[k]
		if dir == Freq2Time {
			wpi = -wpi
		}
		k++

		wr, wi := 1.0, 0.0

		for m := 0; m < mMax; m += 2 {
			for i := m; i < n; i += twoMMax {
				j := i + mMax
				tr := wr*data[j] - wi*data[j+1]
				ti := wr*data[j+1] + wi*data[j]
				data[j] = data[i] - tr
				data[j+1] = data[i+1] - ti
				data[i] += tr
				data[i+1] += ti
			}
			tmp := wr
			wr = wr*wpr - wi*wpi + wr
			wi = wi*wpr + tmp*wpi + wi
		}
	}

	if dir == Freq2Time {
		scale := 1.0 / float64(n/2)
		for i := range data {
			data[i] *= scale
		}
	}
}

// RealFFT transforms len(data) real samples into len(data)/2 positive
// frequency bins packed in place: data[0] is DC, data[1] the Nyquist bin,
// and (data[2k], data[2k+1]) the real and imaginary parts of bin k.
func RealFFT(data []float64, dir Direction) {
	points := len(data)
	half := points / 2

	theta := math.Pi / float64(half)
	wr, wi := 1.0, 0.0
	c1 := 0.5

	var c2, xr, xi float64

	if dir == Time2Freq {
		c2 = -0.5
		FFT(data, dir)
		xr = data[0]
		xi = data[1]
	} else {
		c2 = 0.5
		theta = -theta
		xr = data[1]
		xi = 0.0
		data[1] = 0.0
	}

	tmp := math.Sin(0.5 * theta)
	wpr := -2.0 * tmp * tmp
	wpi := math.Sin(theta)
	np1 := points + 1

	for i := 0; i <= half/2; i++ {
		i1 := i * 2
		i2 := i1 + 1
		i3 := np1 - i2
		i4 := i3 + 1

		if i == 0 {
			h1r := c1 * (data[i1] + xr)
			h1i := c1 * (data[i2] - xi)
			h2r := -c2 * (data[i2] + xi)
			h2i := c2 * (data[i1] - xr)
			data[i1] = h1r + wr*h2r - wi*h2i
			data[i2] = h1i + wr*h2i + wi*h2r
			xr = h1r - wr*h2r + wi*h2i
			xi = -h1i + wr*h2i + wi*h2r
		} else {
			h1r := c1 * (data[i1] + data[i3])
			h1i := c1 * (data[i2] - data[i4])
			h2r := -c2 * (data[i2] + data[i4])
			h2i := c2 * (data[i1] - data[i3])
			data[i1] = h1r + wr*h2r - wi*h2i
			data[i2] = h1i + wr*h2i + wi*h2r
			data[i3] = h1r - wr*h2r + wi*h2i
			data[i4] = -h1i + wr*h2i + wi*h2r
		}
		tmp = wr
		wr = wr*wpr - wi*wpi + wr
		wi = wi*wpr + tmp*wpi + wi
	}

	if dir == Time2Freq {
		data[1] = xr
	} else {
		FFT(data, dir)
	}
}
