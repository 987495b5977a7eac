package klatt

// Resonator is a second order IIR section
//
//	y[n] = a*x[n] + b*y[n-1] + c*y[n-2]
//
// whose coefficients can glide towards a target over a number of samples.
// The same type serves as an anti-resonator through ProcessZero.
type Resonator struct {
	a  float64
	b  float64
	c  float64
	p1 float64
	p2 float64

	aInc float64
	bInc float64
	cInc float64
}

// Process runs one sample through the resonator.
func (r *Resonator) Process(x float64) float64 {
	y := r.a*x + r.b*r.p1 + r.c*r.p2
	r.p2 = r.p1
	r.p1 = y
	return y
}

// ProcessZero runs one sample through the section as an anti-resonator: the
// output equation is unchanged but the history holds inputs, not outputs.
func (r *Resonator) ProcessZero(x float64) float64 {
	y := r.a*x + r.b*r.p1 + r.c*r.p2
	r.p2 = r.p1
	r.p1 = x
	return y
}

// Interpolate advances the coefficients one step towards their target.
func (r *Resonator) Interpolate() {
	r.a += r.aInc
	r.b += r.bInc
	r.c += r.cInc
}

// SetTarget spreads the move to (a, b, c) over steps calls to Interpolate.
// steps <= 0 applies the coefficients immediately.
func (r *Resonator) SetTarget(a, b, c float64, steps int) {
	if steps <= 0 {
		r.a, r.b, r.c = a, b, c
		r.aInc, r.bInc, r.cInc = 0, 0, 0
		return
	}

	n := float64(steps)
	r.aInc = (a - r.a) / n
	r.bInc = (b - r.b) / n
	r.cInc = (c - r.c) / n
}

// Set replaces the coefficients, leaving any pending glide untouched.
func (r *Resonator) Set(a, b, c float64) {
	r.a, r.b, r.c = a, b, c
}

// Coeffs returns the current coefficients.
func (r *Resonator) Coeffs() (a, b, c float64) {
	return r.a, r.b, r.c
}

// Reset clears the sample history. Coefficients are kept.
func (r *Resonator) Reset() {
	r.p1 = 0
	r.p2 = 0
}

func (r *Resonator) quiet() bool {
	return r.p1 == 0 && r.p2 == 0
}
